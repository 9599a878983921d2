// Package ports defines interfaces for external dependencies.
// Usecases depend on these abstractions, adapters implement them.
package ports

import (
	"context"

	"github.com/0xcro3dile/ragchat/internal/domain/entities"
)

// EmbeddingService generates vector embeddings for text.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// ModelName identifies the embedding model; it is persisted with the index.
	ModelName() string
}

// LLMService generates text responses from a language model.
type LLMService interface {
	// Complete sends a fully rendered prompt and returns the model's answer.
	Complete(ctx context.Context, prompt string) (string, error)

	// Name returns the provider name used in logs and error messages.
	Name() string
}

// VectorStore persists and queries document embeddings.
type VectorStore interface {
	// Store saves chunks with their embeddings.
	Store(ctx context.Context, chunks []entities.Chunk) error

	// Search finds the most similar chunks to a query embedding.
	Search(ctx context.Context, embedding []float32, topK int) ([]entities.QueryResult, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)
}

// Index is a loaded retrieval index: a read-side vector store plus the metadata it was built with.
type Index interface {
	VectorStore

	// Meta returns the metadata recorded when the index was persisted.
	Meta(ctx context.Context) (entities.IndexMeta, error)
}

// IndexStorage owns the persisted index location.
type IndexStorage interface {
	// Exists reports whether a persisted index is present.
	Exists() (bool, error)

	// Build fills a staging index via fill, records meta, and atomically moves it into place.
	// Nothing is left behind on failure.
	Build(ctx context.Context, fill func(ctx context.Context, store VectorStore) (entities.IndexMeta, error)) (Index, error)

	// Open loads the persisted index, failing with apperr.ErrLoadFailure when it is unreadable.
	Open(ctx context.Context) (Index, error)
}

// IndexBuilder constructs retrieval indexes, either fresh from documents or from storage.
type IndexBuilder interface {
	// Persisted reports whether storage already holds an index.
	Persisted(ctx context.Context) (bool, error)

	// BuildFresh reads every document under dir, indexes it and persists the result.
	BuildFresh(ctx context.Context, dir string) (Index, error)

	// LoadPersisted opens the stored index without touching the documents.
	LoadPersisted(ctx context.Context) (Index, error)
}

// Fingerprinter summarizes a directory tree's state for change detection.
type Fingerprinter interface {
	Compute(ctx context.Context, dir string) (entities.Fingerprint, error)
}

// DocumentLoader reads and parses documents from various formats.
type DocumentLoader interface {
	// Load reads a document from the given path.
	Load(ctx context.Context, path string) (*entities.Document, error)

	// SupportedExtensions returns file extensions this loader handles.
	SupportedExtensions() []string
}

// DocumentParser extracts text from binary document formats (PDF, DOCX, etc).
type DocumentParser interface {
	// Parse extracts text content from document bytes.
	Parse(ctx context.Context, data []byte, filename string) (string, error)

	// SupportedFormats returns formats this parser handles (e.g., "pdf", "docx").
	SupportedFormats() []string
}

// QueryFacade answers a question using retrieval plus an LLM.
type QueryFacade interface {
	// Answer may block for a provider-dependent duration; failures wrap apperr.ErrProvider.
	Answer(ctx context.Context, query string, history []entities.Message) (string, error)
}

// ChatSessionStore keeps the ordered messages of one UI session.
// Single session, single writer.
type ChatSessionStore interface {
	Append(msg entities.Message) error
	All() []entities.Message
}

// FileWatcher monitors a directory for changes.
type FileWatcher interface {
	// Watch starts monitoring the directory tree and emits events.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
	FileRenamed
)

func (op FileOperation) String() string {
	switch op {
	case FileCreated:
		return "created"
	case FileModified:
		return "modified"
	case FileDeleted:
		return "deleted"
	case FileRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}
