package embedding

import (
	"github.com/rs/zerolog"

	"github.com/0xcro3dile/ragchat/internal/config"
	"github.com/0xcro3dile/ragchat/internal/domain/apperr"
	"github.com/0xcro3dile/ragchat/internal/domain/ports"
)

// New builds the embedder selected by embedding_provider, wrapped with the query cache.
func New(cfg *config.Config, logger zerolog.Logger) (ports.EmbeddingService, error) {
	var e ports.EmbeddingService
	switch cfg.EmbeddingProvider {
	case config.EmbeddingDefault, "":
		e = NewOpenAIAdapter(cfg.APIKeys.OpenAI, cfg.EmbeddingName, logger)
	case config.EmbeddingHuggingFace:
		if cfg.EmbeddingName == "" {
			return nil, apperr.Config("embedding_name must be specified for huggingface embeddings")
		}
		e = NewHuggingFaceAdapter("", cfg.EmbeddingName, cfg.APIKeys.HuggingFace, logger)
	case config.EmbeddingOllama:
		baseURL := ""
		if cfg.LLMProvider == config.LLMOllama {
			baseURL = cfg.LLMParameters.BaseURL()
		}
		e = NewOllamaAdapter(baseURL, cfg.EmbeddingName, cfg.APIKeys.Ollama, logger)
	default:
		return nil, apperr.Config("unsupported embedding_provider: %s", cfg.EmbeddingProvider)
	}

	return WithCache(e, cfg.Retrieval.EmbeddingCacheSize, cfg.Retrieval.EmbeddingCacheTTL, logger), nil
}
