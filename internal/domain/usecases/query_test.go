package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/ragchat/internal/domain/apperr"
	"github.com/0xcro3dile/ragchat/internal/domain/entities"
)

func newResolver(chunks ...entities.Chunk) *staticResolver {
	return &staticResolver{handle: &IndexHandle{Index: &mockIndex{chunks: chunks}, Fingerprint: "fp", Origin: OriginPersisted}}
}

func TestQueryUseCase_Answer(t *testing.T) {
	embedder := &mockEmbedder{}
	llm := &mockLLM{response: "Go was created at Google."}
	resolver := newResolver(
		entities.Chunk{ID: "1", Content: "Go is a language from Google.", Source: "go.txt"},
		entities.Chunk{ID: "2", Content: "It was released in 2009.", Source: "go.txt"},
		entities.Chunk{ID: "3", Content: "Unrelated third chunk.", Source: "x.txt"},
	)
	uc := NewQueryUseCase(embedder, resolver, llm, nil, 2, zerolog.Nop())

	answer, err := uc.Answer(context.Background(), "Who made Go?", nil)
	require.NoError(t, err)
	assert.Equal(t, "Go was created at Google.", answer)

	require.Len(t, llm.prompts, 1)
	prompt := llm.prompts[0]
	assert.Contains(t, prompt, "Go is a language from Google.\n\nIt was released in 2009.")
	assert.NotContains(t, prompt, "Unrelated third chunk.")
	assert.Contains(t, prompt, "Query: User: Who made Go?")
}

func TestQueryUseCase_HistoryFlowsIntoRetrievalAndPrompt(t *testing.T) {
	embedder := &mockEmbedder{}
	llm := &mockLLM{}
	tmpl := NewPromptTemplate("CTX[{context_str}] Q[{query_str}]")
	uc := NewQueryUseCase(embedder, newResolver(entities.Chunk{Content: "c1"}), llm, tmpl, 2, zerolog.Nop())

	history := []entities.Message{
		{Role: entities.RoleAssistant, Content: "How can I help?"},
		{Role: entities.RoleUser, Content: "Tell me about X"},
		{Role: entities.RoleAssistant, Content: "X is a thing."},
	}
	_, err := uc.Answer(context.Background(), "And Y?", history)
	require.NoError(t, err)

	want := "Assistant: How can I help?\nUser: Tell me about X\nAssistant: X is a thing.\nUser: And Y?"
	require.Len(t, embedder.calls, 1)
	assert.Equal(t, want, embedder.calls[0])
	assert.Equal(t, "CTX[c1] Q["+want+"]", llm.prompts[0])
}

func TestQueryUseCase_ProviderFailure(t *testing.T) {
	llm := &mockLLM{err: apperr.Provider("openai", errors.New("401 unauthorized"))}
	uc := NewQueryUseCase(&mockEmbedder{}, newResolver(), llm, nil, 2, zerolog.Nop())

	_, err := uc.Answer(context.Background(), "hi", nil)
	require.Error(t, err)
	assert.True(t, apperr.IsProvider(err))
}

func TestQueryUseCase_IndexFailure(t *testing.T) {
	resolver := &staticResolver{err: apperr.LoadFailure("index.db", nil)}
	llm := &mockLLM{}
	uc := NewQueryUseCase(&mockEmbedder{}, resolver, llm, nil, 2, zerolog.Nop())

	_, err := uc.Answer(context.Background(), "hi", nil)
	assert.True(t, apperr.IsLoadFailure(err))
	assert.Empty(t, llm.prompts)
}

func TestQueryUseCase_EmbeddingFailure(t *testing.T) {
	embedder := &mockEmbedder{embedFn: func(string) ([]float32, error) { return nil, errBoom }}
	uc := NewQueryUseCase(embedder, newResolver(), &mockLLM{}, nil, 2, zerolog.Nop())

	_, err := uc.Retrieve(context.Background(), "q")
	assert.ErrorIs(t, err, errBoom)
}

func TestQueryUseCase_Sources(t *testing.T) {
	uc := NewQueryUseCase(&mockEmbedder{}, newResolver(entities.Chunk{Content: "a", Source: "a.md"}), &mockLLM{}, nil, 0, zerolog.Nop())

	resp, err := uc.Query(context.Background(), "q", nil)
	require.NoError(t, err)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "a.md", resp.Sources[0].SourceDoc)
}
