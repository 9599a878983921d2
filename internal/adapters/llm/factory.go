package llm

import (
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"

	"github.com/0xcro3dile/ragchat/internal/config"
	"github.com/0xcro3dile/ragchat/internal/domain/apperr"
	"github.com/0xcro3dile/ragchat/internal/domain/ports"
)

// New builds the LLM selected by llm_provider with llm_parameters applied.
// Ollama receives unrecognized parameters as generation options; OpenAI-compatible
// providers only take the recognized ones.
func New(cfg *config.Config, logger zerolog.Logger) (ports.LLMService, error) {
	params := cfg.LLMParameters

	switch cfg.LLMProvider {
	case config.LLMOpenAI, config.LLMGroq:
		opts := OpenAIOptions{RequestTimeout: params.RequestTimeout()}
		if t, ok := params.Temperature(); ok {
			opts.Temperature = &t
		}
		if n, ok := params.MaxTokens(); ok {
			opts.MaxTokens = n
		}
		if extra := params.Extra(); len(extra) > 0 {
			logger.Warn().Interface("ignored", extra).Str("provider", cfg.LLMProvider).Msg("llm_parameters not supported by provider")
		}

		var reqOpts []option.RequestOption
		if u := params.BaseURL(); u != "" {
			reqOpts = append(reqOpts, option.WithBaseURL(u))
		}
		if cfg.LLMProvider == config.LLMGroq {
			return NewGroqAdapter(cfg.APIKeys.Groq, cfg.LLMModelName, opts, logger, reqOpts...), nil
		}
		return NewOpenAIAdapter(config.LLMOpenAI, cfg.APIKeys.OpenAI, cfg.LLMModelName, opts, logger, reqOpts...), nil

	case config.LLMOllama:
		options := params.Extra()
		if t, ok := params.Temperature(); ok {
			options["temperature"] = t
		}
		if n, ok := params.MaxTokens(); ok {
			options["num_predict"] = n
		}
		return NewOllamaLLMAdapter(cfg.LLMModelName, OllamaOptions{
			BaseURL: params.BaseURL(),
			APIKey:  cfg.APIKeys.Ollama,
			Timeout: params.RequestTimeout(),
			Options: options,
		}, logger), nil

	default:
		return nil, apperr.Config("unsupported llm_provider: %q", cfg.LLMProvider)
	}
}
