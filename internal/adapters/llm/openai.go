package llm

import (
	"context"
	"errors"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"

	"github.com/0xcro3dile/ragchat/internal/domain/apperr"
)

// GroqBaseURL is Groq's OpenAI-compatible endpoint.
const GroqBaseURL = "https://api.groq.com/openai/v1/"

// OpenAIOptions are the generation settings understood by OpenAI-compatible chat endpoints.
type OpenAIOptions struct {
	Temperature    *float64
	MaxTokens      int64
	RequestTimeout time.Duration
}

// OpenAIAdapter implements ports.LLMService over the chat completions API.
// Groq speaks the same protocol and reuses this adapter with a different base URL.
type OpenAIAdapter struct {
	name   string
	client openai.Client
	model  string
	opts   OpenAIOptions
	logger zerolog.Logger
}

// NewOpenAIAdapter creates a chat adapter named name ("openai" or "groq").
func NewOpenAIAdapter(name, apiKey, model string, opts OpenAIOptions, logger zerolog.Logger, reqOpts ...option.RequestOption) *OpenAIAdapter {
	all := []option.RequestOption{option.WithAPIKey(apiKey)}
	if opts.RequestTimeout > 0 {
		all = append(all, option.WithRequestTimeout(opts.RequestTimeout))
	}
	all = append(all, reqOpts...)

	return &OpenAIAdapter{
		name:   name,
		client: openai.NewClient(all...),
		model:  model,
		opts:   opts,
		logger: logger.With().Str("component", "llm").Str("provider", name).Logger(),
	}
}

// NewGroqAdapter points the OpenAI client at Groq.
func NewGroqAdapter(apiKey, model string, opts OpenAIOptions, logger zerolog.Logger, reqOpts ...option.RequestOption) *OpenAIAdapter {
	reqOpts = append([]option.RequestOption{option.WithBaseURL(GroqBaseURL)}, reqOpts...)
	return NewOpenAIAdapter("groq", apiKey, model, opts, logger, reqOpts...)
}

// Name returns the provider name.
func (a *OpenAIAdapter) Name() string {
	return a.name
}

// Complete sends prompt as a single user message.
func (a *OpenAIAdapter) Complete(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(a.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if a.opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(a.opts.MaxTokens)
	}
	if a.opts.Temperature != nil {
		params.Temperature = openai.Float(*a.opts.Temperature)
	}

	started := time.Now()
	response, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", apperr.Provider(a.name, err)
	}
	if len(response.Choices) == 0 {
		return "", apperr.Provider(a.name, errors.New("no response choices returned"))
	}

	a.logger.Debug().
		Str("model", a.model).
		Int64("prompt_tokens", response.Usage.PromptTokens).
		Int64("completion_tokens", response.Usage.CompletionTokens).
		Dur("took", time.Since(started)).
		Msg("completion finished")
	return response.Choices[0].Message.Content, nil
}
