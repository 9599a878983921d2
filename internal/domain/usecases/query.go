package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/0xcro3dile/ragchat/internal/domain/entities"
	"github.com/0xcro3dile/ragchat/internal/domain/ports"
)

// IndexResolver yields the index to query for the current data state.
type IndexResolver interface {
	Resolve(ctx context.Context) (*IndexHandle, error)
}

// QueryUseCase implements ports.QueryFacade: retrieval over the cached index plus LLM generation.
type QueryUseCase struct {
	embedder ports.EmbeddingService
	indexes  IndexResolver
	llm      ports.LLMService
	template *PromptTemplate
	topK     int
	logger   zerolog.Logger
}

// NewQueryUseCase creates a QueryUseCase with injected dependencies.
func NewQueryUseCase(
	embedder ports.EmbeddingService,
	indexes IndexResolver,
	llm ports.LLMService,
	template *PromptTemplate,
	topK int,
	logger zerolog.Logger,
) *QueryUseCase {
	if topK <= 0 {
		topK = 2
	}
	if template == nil {
		template = NewPromptTemplate("")
	}
	return &QueryUseCase{
		embedder: embedder,
		indexes:  indexes,
		llm:      llm,
		template: template,
		topK:     topK,
		logger:   logger.With().Str("component", "query").Logger(),
	}
}

// Answer returns the generated answer for query given the prior conversation.
func (uc *QueryUseCase) Answer(ctx context.Context, query string, history []entities.Message) (string, error) {
	resp, err := uc.Query(ctx, query, history)
	if err != nil {
		return "", err
	}
	return resp.Answer, nil
}

// Query searches for relevant context and generates a response with its sources.
// The flattened conversation is used both as the retrieval query and as {query_str}.
func (uc *QueryUseCase) Query(ctx context.Context, query string, history []entities.Message) (*entities.ChatResponse, error) {
	fullPrompt := ConversationPrompt(history, query)

	results, err := uc.Retrieve(ctx, fullPrompt)
	if err != nil {
		return nil, err
	}

	contextParts := make([]string, len(results))
	for i, r := range results {
		contextParts[i] = r.Chunk.Content
	}

	prompt := uc.template.Format(strings.Join(contextParts, "\n\n"), fullPrompt)
	answer, err := uc.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generating response: %w", err)
	}

	uc.logger.Debug().
		Int("history", len(history)).
		Int("sources", len(results)).
		Int("answer_len", len(answer)).
		Msg("answered query")

	return &entities.ChatResponse{
		Answer:  answer,
		Sources: results,
	}, nil
}

// Retrieve only returns the most relevant chunks without LLM generation.
func (uc *QueryUseCase) Retrieve(ctx context.Context, text string) ([]entities.QueryResult, error) {
	handle, err := uc.indexes.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	defer handle.Release()

	embedding, err := uc.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := handle.Index.Search(ctx, embedding, uc.topK)
	if err != nil {
		return nil, fmt.Errorf("searching vectors: %w", err)
	}
	return results, nil
}
