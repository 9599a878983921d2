package usecases

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/ragchat/internal/domain/entities"
)

func TestIngestUseCase_ChunksAndStores(t *testing.T) {
	embedder := &mockEmbedder{}
	store := &mockIndex{}
	uc := NewIngestUseCase(embedder, 100, 20, 2)

	doc := &entities.Document{
		ID:      "doc-1",
		Path:    "data/guide.txt",
		Name:    "guide.txt",
		Content: strings.Repeat("word ", 100),
	}

	n, err := uc.Ingest(context.Background(), store, doc)
	require.NoError(t, err)
	assert.Greater(t, n, 1)
	assert.Len(t, store.chunks, n)

	for i, c := range store.chunks {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, "doc-1", c.DocumentID)
		assert.Equal(t, "data/guide.txt", c.Source)
		assert.NotEmpty(t, c.Embedding)
		assert.LessOrEqual(t, len([]rune(c.Content)), 100)
	}
}

func TestIngestUseCase_EmptyDocument(t *testing.T) {
	uc := NewIngestUseCase(&mockEmbedder{}, 100, 10, 4)
	store := &mockIndex{}

	n, err := uc.Ingest(context.Background(), store, &entities.Document{ID: "d", Content: "   \n  "})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, store.chunks)
}

func TestIngestUseCase_EmbeddingFailure(t *testing.T) {
	embedder := &mockEmbedder{embedFn: func(string) ([]float32, error) { return nil, errBoom }}
	uc := NewIngestUseCase(embedder, 100, 10, 4)

	_, err := uc.Ingest(context.Background(), &mockIndex{}, &entities.Document{ID: "d", Name: "d.txt", Content: "hello"})
	assert.ErrorIs(t, err, errBoom)
}

func TestChunkDocument_Terminates(t *testing.T) {
	// One long token with no spaces must still make progress.
	uc := NewIngestUseCase(&mockEmbedder{}, 10, 9, 4)
	doc := &entities.Document{ID: "d", Content: strings.Repeat("x", 95)}

	chunks := uc.chunkDocument(doc)
	require.NotEmpty(t, chunks)
	assert.Less(t, len(chunks), 100)
	assert.True(t, strings.HasSuffix(chunks[len(chunks)-1].Content, "x"))
}

func TestChunkDocument_MultibyteSafe(t *testing.T) {
	uc := NewIngestUseCase(&mockEmbedder{}, 5, 1, 4)
	chunks := uc.chunkDocument(&entities.Document{ID: "d", Content: "héllo wörld ünïcode"})
	for _, c := range chunks {
		assert.True(t, strings.ToValidUTF8(c.Content, "?") == c.Content, "chunk %q is not valid UTF-8", c.Content)
	}
}

func TestGenerateChunkID_Deterministic(t *testing.T) {
	assert.Equal(t, generateChunkID("doc", 3), generateChunkID("doc", 3))
	assert.NotEqual(t, generateChunkID("doc", 3), generateChunkID("doc", 4))
	assert.Len(t, generateChunkID("doc", 0), 16)
}
