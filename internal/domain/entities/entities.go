// Package entities contains core business entities.
// These are pure domain objects with no external dependencies.
package entities

import "time"

// Document represents a source document loaded from the data directory.
type Document struct {
	ID       string
	Name     string
	Path     string
	Content  string
	Size     int64
	ModTime  time.Time
	LoadedAt time.Time
}

// Chunk represents a piece of a document for embedding.
type Chunk struct {
	ID         string
	DocumentID string
	Source     string    // Document path, kept for citations
	Content    string
	Index      int       // Position in document
	Embedding  []float32 // Vector representation (populated by adapter)
}

// QueryResult represents a search result with relevance.
type QueryResult struct {
	Chunk     Chunk
	Score     float64 // Similarity score, higher is closer
	SourceDoc string  // Document path for citation
}

// Role is the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Label returns the speaker prefix used when history is flattened into a prompt.
func (r Role) Label() string {
	if r == RoleUser {
		return "User"
	}
	return "Assistant"
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message represents a conversation turn.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Fingerprint is a hex digest summarizing the state of a directory tree.
// It detects change; it is not a security primitive.
type Fingerprint string

// Short returns an abbreviated form for logs and UI.
func (f Fingerprint) Short() string {
	if len(f) <= 12 {
		return string(f)
	}
	return string(f[:12])
}

// IndexMeta describes a persisted index.
type IndexMeta struct {
	Fingerprint    Fingerprint
	EmbeddingModel string
	Dimension      int
	Documents      int
	Chunks         int
	BuiltAt        time.Time
}

// ChatResponse represents the LLM's answer with the chunks it was grounded on.
type ChatResponse struct {
	Answer  string
	Sources []QueryResult
}
