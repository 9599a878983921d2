// Package vectordb provides the persisted vector index.
// Chunks and their embeddings live in a SQLite file; similarity is computed by the sqlite-vec extension.
package vectordb

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/rs/zerolog"

	"github.com/0xcro3dile/ragchat/internal/domain/apperr"
	"github.com/0xcro3dile/ragchat/internal/domain/entities"
	"github.com/0xcro3dile/ragchat/internal/domain/ports"
)

// DBFile is the database file name inside the index directory.
const DBFile = "index.db"

const schema = `
	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL,
		source TEXT NOT NULL,
		content TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		embedding BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
`

// Metadata keys.
const (
	metaFingerprint = "fingerprint"
	metaModel       = "embedding_model"
	metaDimension   = "dimension"
	metaDocuments   = "documents"
	metaChunks      = "chunks"
	metaBuiltAt     = "built_at"
)

func init() {
	sqlite_vec.Auto()
}

// Storage implements ports.IndexStorage over a directory holding one SQLite file.
type Storage struct {
	dir    string
	logger zerolog.Logger
}

// NewStorage creates a storage rooted at dir. Nothing is touched on disk until Build.
func NewStorage(dir string, logger zerolog.Logger) *Storage {
	return &Storage{
		dir:    dir,
		logger: logger.With().Str("component", "index_storage").Logger(),
	}
}

// Dir returns the index directory.
func (s *Storage) Dir() string {
	return s.dir
}

// Exists reports whether the index directory is present.
func (s *Storage) Exists() (bool, error) {
	_, err := os.Stat(s.dir)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", s.dir, err)
}

// Build creates the index in a sibling staging directory and renames it into place once fill and
// the metadata write succeed. Any failure removes the staging directory.
func (s *Storage) Build(ctx context.Context, fill func(ctx context.Context, store ports.VectorStore) (entities.IndexMeta, error)) (ports.Index, error) {
	parent := filepath.Dir(s.dir)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", parent, err)
	}

	staging, err := os.MkdirTemp(parent, "."+filepath.Base(s.dir)+"-staging-*")
	if err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			os.RemoveAll(staging)
		}
	}()

	db, err := sqlx.Open("sqlite3", filepath.Join(staging, DBFile))
	if err != nil {
		return nil, fmt.Errorf("opening staging database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	idx := &Index{db: db}
	meta, err := fill(ctx, idx)
	if err == nil {
		if meta.Dimension == 0 {
			meta.Dimension = idx.dimension
		}
		err = writeMeta(ctx, db, meta)
	}
	if cerr := db.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("closing staging database: %w", cerr)
	}
	if err != nil {
		return nil, err
	}

	if err := os.RemoveAll(s.dir); err != nil {
		return nil, fmt.Errorf("replacing %s: %w", s.dir, err)
	}
	if err := os.Rename(staging, s.dir); err != nil {
		return nil, fmt.Errorf("moving index into place: %w", err)
	}
	committed = true

	s.logger.Info().
		Str("dir", s.dir).
		Int("documents", meta.Documents).
		Int("chunks", meta.Chunks).
		Int("dimension", meta.Dimension).
		Msg("persisted index")

	return s.Open(ctx)
}

// readOnlyDSN returns a SQLite URI for path with ? # and % escaped.
func readOnlyDSN(path string) string {
	u := url.URL{Scheme: "file", OmitHost: true, Path: filepath.ToSlash(path), RawQuery: "mode=ro"}
	return u.String()
}

// Open loads the persisted index read-only.
// A missing database file, missing tables or incomplete metadata yields apperr.ErrLoadFailure.
func (s *Storage) Open(ctx context.Context) (ports.Index, error) {
	path := filepath.Join(s.dir, DBFile)
	if _, err := os.Stat(path); err != nil {
		return nil, apperr.LoadFailure("index database "+path, err)
	}

	db, err := sqlx.Open("sqlite3", readOnlyDSN(path))
	if err != nil {
		return nil, apperr.LoadFailure("opening "+path, err)
	}

	meta, err := readMeta(ctx, db)
	if err != nil {
		db.Close()
		return nil, apperr.LoadFailure("reading "+path, err)
	}

	var n int
	if err := db.GetContext(ctx, &n, "SELECT COUNT(*) FROM chunks"); err != nil {
		db.Close()
		return nil, apperr.LoadFailure("reading "+path, err)
	}

	s.logger.Debug().
		Str("fingerprint", meta.Fingerprint.Short()).
		Str("model", meta.EmbeddingModel).
		Int("chunks", n).
		Msg("opened index")

	return &Index{db: db, meta: meta, dimension: meta.Dimension, readOnly: true}, nil
}

// Index implements ports.Index over one SQLite database.
type Index struct {
	mu        sync.RWMutex
	db        *sqlx.DB
	meta      entities.IndexMeta
	dimension int
	readOnly  bool
}

type chunkRow struct {
	ID         string  `db:"id"`
	DocumentID string  `db:"document_id"`
	Source     string  `db:"source"`
	Content    string  `db:"content"`
	Index      int     `db:"chunk_index"`
	Distance   float64 `db:"distance"`
}

// Store saves chunks with their embeddings. All embeddings must share one dimension.
func (i *Index) Store(ctx context.Context, chunks []entities.Chunk) error {
	if i.readOnly {
		return errors.New("index is read-only")
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	tx, err := i.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT OR REPLACE INTO chunks (id, document_id, source, content, chunk_index, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding", chunk.ID)
		}
		if i.dimension == 0 {
			i.dimension = len(chunk.Embedding)
		} else if len(chunk.Embedding) != i.dimension {
			return fmt.Errorf("chunk %s has %d dimensions, index has %d", chunk.ID, len(chunk.Embedding), i.dimension)
		}

		blob, err := sqlite_vec.SerializeFloat32(chunk.Embedding)
		if err != nil {
			return fmt.Errorf("encoding embedding: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.Source, chunk.Content, chunk.Index, blob); err != nil {
			return fmt.Errorf("inserting chunk: %w", err)
		}
	}

	return tx.Commit()
}

// Search returns the topK chunks closest to embedding by cosine distance.
// Score is cosine similarity (1 - distance).
func (i *Index) Search(ctx context.Context, embedding []float32, topK int) ([]entities.QueryResult, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if i.dimension != 0 && len(embedding) != i.dimension {
		return nil, fmt.Errorf("query embedding has %d dimensions, index has %d (was it built with another embedding model?)", len(embedding), i.dimension)
	}

	blob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return nil, fmt.Errorf("encoding query embedding: %w", err)
	}

	var rows []chunkRow
	err = i.db.SelectContext(ctx, &rows, `
		SELECT id, document_id, source, content, chunk_index,
			vec_distance_cosine(embedding, ?) AS distance
		FROM chunks
		ORDER BY distance ASC
		LIMIT ?
	`, blob, topK)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}

	results := make([]entities.QueryResult, len(rows))
	for n, r := range rows {
		results[n] = entities.QueryResult{
			Chunk: entities.Chunk{
				ID:         r.ID,
				DocumentID: r.DocumentID,
				Source:     r.Source,
				Content:    r.Content,
				Index:      r.Index,
			},
			Score:     1 - r.Distance,
			SourceDoc: r.Source,
		}
	}
	return results, nil
}

// Count returns the number of stored chunks.
func (i *Index) Count(ctx context.Context) (int, error) {
	var n int
	err := i.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM chunks")
	return n, err
}

// Meta returns the metadata recorded at build time.
func (i *Index) Meta(ctx context.Context) (entities.IndexMeta, error) {
	return i.meta, nil
}

// Close closes the database connection.
func (i *Index) Close() error {
	return i.db.Close()
}

func writeMeta(ctx context.Context, db *sqlx.DB, meta entities.IndexMeta) error {
	values := map[string]string{
		metaFingerprint: string(meta.Fingerprint),
		metaModel:       meta.EmbeddingModel,
		metaDimension:   strconv.Itoa(meta.Dimension),
		metaDocuments:   strconv.Itoa(meta.Documents),
		metaChunks:      strconv.Itoa(meta.Chunks),
		metaBuiltAt:     meta.BuiltAt.UTC().Format(time.RFC3339Nano),
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for k, v := range values {
		if _, err := tx.ExecContext(ctx, "INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("writing metadata %s: %w", k, err)
		}
	}
	return tx.Commit()
}

func readMeta(ctx context.Context, db *sqlx.DB) (entities.IndexMeta, error) {
	var rows []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}
	if err := db.SelectContext(ctx, &rows, "SELECT key, value FROM meta"); err != nil {
		return entities.IndexMeta{}, err
	}

	values := make(map[string]string, len(rows))
	for _, r := range rows {
		values[r.Key] = r.Value
	}

	var meta entities.IndexMeta
	fp, ok := values[metaFingerprint]
	if !ok {
		return meta, errors.New("metadata has no fingerprint")
	}
	meta.Fingerprint = entities.Fingerprint(fp)
	meta.EmbeddingModel = values[metaModel]

	var err error
	if meta.Dimension, err = strconv.Atoi(values[metaDimension]); err != nil {
		return meta, fmt.Errorf("metadata dimension: %w", err)
	}
	meta.Documents, _ = strconv.Atoi(values[metaDocuments])
	meta.Chunks, _ = strconv.Atoi(values[metaChunks])
	if ts, ok := values[metaBuiltAt]; ok {
		meta.BuiltAt, _ = time.Parse(time.RFC3339Nano, ts)
	}
	return meta, nil
}
