package usecases

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/0xcro3dile/ragchat/internal/domain/entities"
	"github.com/0xcro3dile/ragchat/internal/domain/ports"
)

// IndexOrigin records how an index handle came to be.
type IndexOrigin string

const (
	OriginFresh     IndexOrigin = "fresh"
	OriginPersisted IndexOrigin = "persisted"
)

// IndexHandle is a cached, ready-to-query index.
// Every handle returned by GetOrBuild, Resolve or Acquire must be released. A handle that has been
// replaced in the cache closes its index when the last user releases it.
type IndexHandle struct {
	Index       ports.Index
	Fingerprint entities.Fingerprint
	Origin      IndexOrigin
	LoadedAt    time.Time

	mu      sync.Mutex
	refs    int
	retired bool
	closed  bool
}

// Release ends one use of the handle.
func (h *IndexHandle) Release() {
	h.mu.Lock()
	if h.refs > 0 {
		h.refs--
	}
	done := h.retired && h.refs == 0
	h.mu.Unlock()

	if done {
		h.close()
	}
}

func (h *IndexHandle) acquire() {
	h.mu.Lock()
	h.refs++
	h.mu.Unlock()
}

// retire marks the handle as no longer cached; the index closes now or on the last Release.
func (h *IndexHandle) retire() {
	h.mu.Lock()
	h.retired = true
	done := h.refs == 0
	h.mu.Unlock()

	if done {
		h.close()
	}
}

func (h *IndexHandle) close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.mu.Unlock()

	if c, ok := h.Index.(io.Closer); ok {
		_ = c.Close()
	}
}

// IndexCache maps the data directory's fingerprint to the index handle built or loaded for it.
//
// Policy: storage absent -> build fresh and persist; storage present -> load it, even when the
// fingerprint differs from the one recorded at build time. A fingerprint change therefore only
// causes a reload from storage, never a rebuild. Within one process, a fingerprint is resolved
// at most once. The map holds at most one entry; a new fingerprint replaces the old entry.
type IndexCache struct {
	fingerprinter ports.Fingerprinter
	logger        zerolog.Logger

	mu      sync.Mutex
	entries map[entities.Fingerprint]*IndexHandle
}

// NewIndexCache creates an empty cache.
func NewIndexCache(fingerprinter ports.Fingerprinter, logger zerolog.Logger) *IndexCache {
	return &IndexCache{
		fingerprinter: fingerprinter,
		logger:        logger.With().Str("component", "index_cache").Logger(),
		entries:       make(map[entities.Fingerprint]*IndexHandle),
	}
}

// GetOrBuild returns the index for dir's current state. The caller must Release the handle.
func (c *IndexCache) GetOrBuild(ctx context.Context, dir string, builder ports.IndexBuilder) (*IndexHandle, error) {
	fp, err := c.fingerprinter.Compute(ctx, dir)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if h, ok := c.entries[fp]; ok {
		h.acquire()
		return h, nil
	}

	persisted, err := builder.Persisted(ctx)
	if err != nil {
		return nil, err
	}

	var (
		index  ports.Index
		origin IndexOrigin
	)
	if !persisted {
		index, err = builder.BuildFresh(ctx, dir)
		origin = OriginFresh
	} else {
		index, err = builder.LoadPersisted(ctx)
		origin = OriginPersisted
	}
	if err != nil {
		return nil, err
	}

	if origin == OriginPersisted {
		c.warnIfStale(ctx, index, fp)
	}

	h := &IndexHandle{
		Index:       index,
		Fingerprint: fp,
		Origin:      origin,
		LoadedAt:    time.Now(),
	}
	c.retireAll()
	c.entries = map[entities.Fingerprint]*IndexHandle{fp: h}
	h.acquire()

	c.logger.Debug().Str("fingerprint", fp.Short()).Str("origin", string(origin)).Msg("cached index handle")
	return h, nil
}

// Acquire returns the cached handle, if any, without resolving the directory.
// The caller must Release it.
func (c *IndexCache) Acquire() (*IndexHandle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, h := range c.entries {
		h.acquire()
		return h, true
	}
	return nil, false
}

// Reset drops the cached entry. Its index is closed once no longer in use.
func (c *IndexCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.retireAll()
	c.entries = make(map[entities.Fingerprint]*IndexHandle)
}

// retireAll must be called with c.mu held.
func (c *IndexCache) retireAll() {
	for fp, h := range c.entries {
		h.retire()
		c.logger.Debug().Str("fingerprint", fp.Short()).Msg("released index handle")
	}
}

func (c *IndexCache) warnIfStale(ctx context.Context, index ports.Index, current entities.Fingerprint) {
	meta, err := index.Meta(ctx)
	if err != nil {
		c.logger.Debug().Err(err).Msg("reading index metadata")
		return
	}
	if meta.Fingerprint != current {
		c.logger.Warn().
			Str("built_for", meta.Fingerprint.Short()).
			Str("current", current.Short()).
			Msg("data directory changed since the index was persisted; serving the persisted index (run `ragchat reindex` to rebuild)")
	}
}

// BoundIndex resolves the index for one directory and builder pair.
type BoundIndex struct {
	cache   *IndexCache
	dir     string
	builder ports.IndexBuilder
}

// Bind fixes the directory and builder for repeated resolution.
func (c *IndexCache) Bind(dir string, builder ports.IndexBuilder) *BoundIndex {
	return &BoundIndex{cache: c, dir: dir, builder: builder}
}

// Resolve returns the index for the directory's current state. The caller must Release the handle.
func (b *BoundIndex) Resolve(ctx context.Context) (*IndexHandle, error) {
	return b.cache.GetOrBuild(ctx, b.dir, b.builder)
}
