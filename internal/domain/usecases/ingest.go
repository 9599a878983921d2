// Package usecases contains application business rules.
// Usecases orchestrate entities and depend on port interfaces only.
package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"

	"github.com/0xcro3dile/ragchat/internal/domain/entities"
	"github.com/0xcro3dile/ragchat/internal/domain/ports"
)

// IngestUseCase chunks documents, embeds the chunks and writes them to a vector store.
type IngestUseCase struct {
	embedder     ports.EmbeddingService
	chunkSize    int
	chunkOverlap int
	batchSize    int
}

// NewIngestUseCase creates an IngestUseCase with injected dependencies.
// Sizes are in characters (runes).
func NewIngestUseCase(embedder ports.EmbeddingService, chunkSize, chunkOverlap, batchSize int) *IngestUseCase {
	if chunkSize <= 0 {
		chunkSize = 1024
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 5
	}
	if batchSize <= 0 {
		batchSize = 16
	}
	return &IngestUseCase{
		embedder:     embedder,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		batchSize:    batchSize,
	}
}

// Ingest processes a document into store and returns the number of chunks written.
func (uc *IngestUseCase) Ingest(ctx context.Context, store ports.VectorStore, doc *entities.Document) (int, error) {
	chunks := uc.chunkDocument(doc)
	if len(chunks) == 0 {
		return 0, nil
	}

	for start := 0; start < len(chunks); start += uc.batchSize {
		end := min(start+uc.batchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Content
		}

		embeddings, err := uc.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("embedding %s: %w", doc.Name, err)
		}
		if len(embeddings) != len(batch) {
			return 0, fmt.Errorf("embedding %s: got %d vectors for %d chunks", doc.Name, len(embeddings), len(batch))
		}
		for i := range batch {
			batch[i].Embedding = embeddings[i]
		}

		if err := store.Store(ctx, batch); err != nil {
			return 0, fmt.Errorf("storing %s: %w", doc.Name, err)
		}
	}

	return len(chunks), nil
}

// chunkDocument splits document content into overlapping chunks, preferring word boundaries.
func (uc *IngestUseCase) chunkDocument(doc *entities.Document) []entities.Chunk {
	content := []rune(strings.TrimSpace(doc.Content))
	if len(content) == 0 {
		return nil
	}

	var chunks []entities.Chunk
	start := 0
	index := 0

	for start < len(content) {
		end := min(start+uc.chunkSize, len(content))

		// Try to break at word boundary, but never give up more than half a chunk.
		if end < len(content) {
			for i := end; i > start+uc.chunkSize/2; i-- {
				if unicode.IsSpace(content[i-1]) {
					end = i
					break
				}
			}
		}

		chunkContent := strings.TrimSpace(string(content[start:end]))
		if len(chunkContent) > 0 {
			chunks = append(chunks, entities.Chunk{
				ID:         generateChunkID(doc.ID, index),
				DocumentID: doc.ID,
				Source:     doc.Path,
				Content:    chunkContent,
				Index:      index,
			})
			index++
		}

		if end >= len(content) {
			break
		}
		next := end - uc.chunkOverlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

// generateChunkID creates a deterministic ID for a chunk.
func generateChunkID(docID string, index int) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s#%d", docID, index)))
	return hex.EncodeToString(hash[:8])
}
