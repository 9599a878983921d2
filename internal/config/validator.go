package config

import (
	"github.com/0xcro3dile/ragchat/internal/domain/apperr"
)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks provider selection, credentials and numeric bounds. Errors wrap apperr.ErrConfig.
func (v *Validator) Validate(cfg *Config) error {
	if err := v.ValidateEmbedding(cfg); err != nil {
		return err
	}
	if err := v.ValidateLLM(cfg); err != nil {
		return err
	}
	if err := v.ValidateRetrieval(cfg.Retrieval); err != nil {
		return err
	}
	if cfg.Paths.DataDir == "" {
		return apperr.Config("paths.data_dir cannot be empty")
	}
	if cfg.Paths.IndexDir == "" {
		return apperr.Config("paths.index_dir cannot be empty")
	}
	return nil
}

// ValidateEmbedding validates the embedding provider block.
func (v *Validator) ValidateEmbedding(cfg *Config) error {
	switch cfg.EmbeddingProvider {
	case EmbeddingDefault:
		if cfg.APIKeys.OpenAI == "" {
			return apperr.Config("api_keys.openai_api_key is required for the default embedding provider")
		}
	case EmbeddingHuggingFace:
		if cfg.EmbeddingName == "" {
			return apperr.Config("embedding_name must be specified for Hugging Face embeddings")
		}
	case EmbeddingOllama:
		if cfg.EmbeddingName == "" {
			return apperr.Config("embedding_name must be specified for Ollama embeddings")
		}
	default:
		return apperr.Config("unsupported embedding_provider: %q", cfg.EmbeddingProvider)
	}
	return nil
}

// ValidateLLM validates the LLM provider block.
func (v *Validator) ValidateLLM(cfg *Config) error {
	switch cfg.LLMProvider {
	case LLMOpenAI:
		if cfg.APIKeys.OpenAI == "" {
			return apperr.Config("api_keys.openai_api_key is required for llm_provider openai")
		}
	case LLMGroq:
		if cfg.APIKeys.Groq == "" {
			return apperr.Config("api_keys.groq_api_key is required for llm_provider groq")
		}
	case LLMOllama:
	default:
		return apperr.Config("unsupported llm_provider: %q", cfg.LLMProvider)
	}

	if cfg.LLMModelName == "" {
		return apperr.Config("llm_model_name cannot be empty")
	}
	if t, ok := cfg.LLMParameters.Temperature(); ok && (t < 0 || t > 2) {
		return apperr.Config("llm_parameters.temperature must be between 0 and 2, got %v", t)
	}
	return nil
}

// ValidateRetrieval validates chunking and search bounds.
func (v *Validator) ValidateRetrieval(r RetrievalConfig) error {
	if r.SimilarityTopK <= 0 {
		return apperr.Config("retrieval.similarity_top_k must be positive")
	}
	if r.ChunkSize <= 0 {
		return apperr.Config("retrieval.chunk_size must be positive")
	}
	if r.ChunkOverlap < 0 || r.ChunkOverlap >= r.ChunkSize {
		return apperr.Config("retrieval.chunk_overlap must be in [0, chunk_size)")
	}
	if r.EmbedBatchSize <= 0 {
		return apperr.Config("retrieval.embed_batch_size must be positive")
	}
	return nil
}
