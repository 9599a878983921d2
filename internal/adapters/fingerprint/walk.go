// Package fingerprint computes a reproducible digest of a directory tree from file metadata.
//
// Each file contributes, in order, its modification time (Unix nanoseconds, decimal), its size
// (decimal) and its full path, each followed by a NUL byte. Within a directory, files are visited in lexicographic order before
// any subdirectory; subdirectories are then descended in lexicographic order.
//
// Symlinks are followed with a single stat: links to files count as regular files with the
// target's size and mtime, links to directories are not descended, and anything that cannot be
// stat-ed (broken links, races with deletion) is skipped.
package fingerprint

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/zeebo/xxh3"

	"github.com/0xcro3dile/ragchat/internal/domain/apperr"
	"github.com/0xcro3dile/ragchat/internal/domain/entities"
)

// Walker implements ports.Fingerprinter.
type Walker struct {
	logger zerolog.Logger
}

// NewWalker creates a fingerprint walker.
func NewWalker(logger zerolog.Logger) *Walker {
	return &Walker{logger: logger.With().Str("component", "fingerprint").Logger()}
}

// Compute returns the hex digest of dir's current state.
func (w *Walker) Compute(ctx context.Context, dir string) (entities.Fingerprint, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", apperr.NotFound("data directory "+dir, err)
		}
		return "", fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return "", apperr.NotFound(dir+" is not a directory", nil)
	}

	h := xxh3.New()
	files := 0
	if err := w.walk(ctx, h, dir, &files); err != nil {
		return "", err
	}

	sum := h.Sum128().Bytes()
	fp := entities.Fingerprint(hex.EncodeToString(sum[:]))
	w.logger.Debug().Str("dir", dir).Int("files", files).Str("fingerprint", fp.Short()).Msg("computed fingerprint")
	return fp, nil
}

func (w *Walker) walk(ctx context.Context, h *xxh3.Hasher, dir string, files *int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		// A subdirectory vanishing mid-walk is a state change, not a failure.
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", dir, err)
	}

	var names, subdirs []string
	for _, e := range entries {
		if e.IsDir() {
			subdirs = append(subdirs, e.Name())
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	sort.Strings(subdirs)

	for _, name := range names {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil {
			w.logger.Debug().Err(err).Str("path", path).Msg("skipping unstatable entry")
			continue
		}
		if info.IsDir() {
			// Symlink to a directory: not descended.
			continue
		}
		writeEntry(h, info, path)
		*files++
	}

	for _, name := range subdirs {
		if err := w.walk(ctx, h, filepath.Join(dir, name), files); err != nil {
			return err
		}
	}
	return nil
}

func writeEntry(h *xxh3.Hasher, info fs.FileInfo, path string) {
	// Hasher writes never fail.
	for _, field := range []string{
		strconv.FormatInt(info.ModTime().UnixNano(), 10),
		strconv.FormatInt(info.Size(), 10),
		path,
	} {
		_, _ = h.WriteString(field)
		_, _ = h.Write([]byte{0})
	}
}

// Empty is the fingerprint of a directory with no files.
func Empty() entities.Fingerprint {
	sum := xxh3.New().Sum128().Bytes()
	return entities.Fingerprint(hex.EncodeToString(sum[:]))
}
