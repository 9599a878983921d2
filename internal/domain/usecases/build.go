package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/0xcro3dile/ragchat/internal/domain/entities"
	"github.com/0xcro3dile/ragchat/internal/domain/ports"
)

// DocumentSource lists the documents under a directory.
type DocumentSource interface {
	List(ctx context.Context, dir string) ([]string, error)
}

// IndexBuildUseCase implements ports.IndexBuilder on top of persisted storage.
type IndexBuildUseCase struct {
	storage       ports.IndexStorage
	source        DocumentSource
	loader        ports.DocumentLoader
	ingest        *IngestUseCase
	fingerprinter ports.Fingerprinter
	embeddingName string
	logger        zerolog.Logger
}

// NewIndexBuildUseCase wires the builder.
func NewIndexBuildUseCase(
	storage ports.IndexStorage,
	source DocumentSource,
	loader ports.DocumentLoader,
	ingest *IngestUseCase,
	fingerprinter ports.Fingerprinter,
	embeddingName string,
	logger zerolog.Logger,
) *IndexBuildUseCase {
	return &IndexBuildUseCase{
		storage:       storage,
		source:        source,
		loader:        loader,
		ingest:        ingest,
		fingerprinter: fingerprinter,
		embeddingName: embeddingName,
		logger:        logger.With().Str("component", "index_builder").Logger(),
	}
}

// Persisted reports whether storage already holds an index.
func (b *IndexBuildUseCase) Persisted(ctx context.Context) (bool, error) {
	return b.storage.Exists()
}

// BuildFresh indexes every document under dir and persists the result.
// Unreadable documents are skipped; embedding or storage failures abort the build.
func (b *IndexBuildUseCase) BuildFresh(ctx context.Context, dir string) (ports.Index, error) {
	started := time.Now()

	fp, err := b.fingerprinter.Compute(ctx, dir)
	if err != nil {
		return nil, err
	}

	paths, err := b.source.List(ctx, dir)
	if err != nil {
		return nil, err
	}
	b.logger.Info().Str("dir", dir).Int("documents", len(paths)).Msg("building index")

	index, err := b.storage.Build(ctx, func(ctx context.Context, store ports.VectorStore) (entities.IndexMeta, error) {
		meta := entities.IndexMeta{
			Fingerprint:    fp,
			EmbeddingModel: b.embeddingName,
		}
		for _, path := range paths {
			doc, err := b.loader.Load(ctx, path)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return meta, ctxErr
				}
				b.logger.Warn().Err(err).Str("path", path).Msg("skipping unreadable document")
				continue
			}

			n, err := b.ingest.Ingest(ctx, store, doc)
			if err != nil {
				return meta, err
			}
			meta.Documents++
			meta.Chunks += n
			b.logger.Debug().Str("path", path).Int("chunks", n).Msg("indexed document")
		}
		meta.BuiltAt = time.Now().UTC()
		return meta, nil
	})
	if err != nil {
		return nil, fmt.Errorf("building index: %w", err)
	}

	b.logger.Info().
		Str("fingerprint", fp.Short()).
		Dur("took", time.Since(started)).
		Msg("index built and persisted")
	return index, nil
}

// LoadPersisted opens the stored index.
func (b *IndexBuildUseCase) LoadPersisted(ctx context.Context) (ports.Index, error) {
	index, err := b.storage.Open(ctx)
	if err != nil {
		return nil, err
	}
	b.logger.Info().Msg("loaded persisted index")
	return index, nil
}

// Rebuild builds a fresh index over the persisted one. The previous index stays in place
// until the new one is complete. This is the only path that rebuilds once storage exists.
func (b *IndexBuildUseCase) Rebuild(ctx context.Context, dir string) (ports.Index, error) {
	return b.BuildFresh(ctx, dir)
}
