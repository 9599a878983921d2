package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"

	"github.com/0xcro3dile/ragchat/internal/domain/apperr"
)

// DefaultOpenAIModel is used by the "default" embedding provider.
const DefaultOpenAIModel = "text-embedding-ada-002"

// OpenAIAdapter implements ports.EmbeddingService with the OpenAI embeddings endpoint.
type OpenAIAdapter struct {
	client openai.Client
	model  string
	logger zerolog.Logger
}

// NewOpenAIAdapter creates an OpenAI embedding adapter. Extra options (base URL, retries) are
// appended after the API key.
func NewOpenAIAdapter(apiKey, model string, logger zerolog.Logger, opts ...option.RequestOption) *OpenAIAdapter {
	if model == "" {
		model = DefaultOpenAIModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAIAdapter{
		client: openai.NewClient(opts...),
		model:  model,
		logger: logger.With().Str("component", "embedding").Str("provider", "openai").Logger(),
	}
}

// ModelName returns the embedding model.
func (a *OpenAIAdapter) ModelName() string {
	return "openai/" + a.model
}

// Embed generates an embedding for a single text.
func (a *OpenAIAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := a.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch embeds texts in one API call, preserving input order.
func (a *OpenAIAdapter) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	started := time.Now()
	resp, err := a.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(a.model),
	})
	if err != nil {
		return nil, apperr.Provider("openai", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, apperr.Provider("openai", fmt.Errorf("got %d embeddings for %d inputs", len(resp.Data), len(texts)))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(out) {
			return nil, apperr.Provider("openai", fmt.Errorf("embedding index %d out of range", d.Index))
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		out[d.Index] = vec
	}

	a.logger.Debug().
		Int("inputs", len(texts)).
		Int64("tokens", resp.Usage.TotalTokens).
		Dur("took", time.Since(started)).
		Msg("embedded batch")
	return out, nil
}
