// Package config loads and validates the application configuration.
//
// Credentials live in the returned Config and are handed to provider constructors explicitly;
// nothing here writes to the process environment.
package config

import (
	"time"

	"github.com/spf13/cast"
)

// Embedding providers.
const (
	EmbeddingDefault     = "default"
	EmbeddingHuggingFace = "huggingface"
	EmbeddingOllama      = "ollama"
)

// LLM providers.
const (
	LLMOpenAI = "openai"
	LLMOllama = "ollama"
	LLMGroq   = "groq"
)

// Config represents the structure of config.yaml
type Config struct {
	APIKeys           APIKeys         `mapstructure:"api_keys"`
	EmbeddingProvider string          `mapstructure:"embedding_provider"`
	EmbeddingName     string          `mapstructure:"embedding_name"`
	LLMProvider       string          `mapstructure:"llm_provider"`
	LLMModelName      string          `mapstructure:"llm_model_name"`
	LLMParameters     LLMParameters   `mapstructure:"llm_parameters"`
	Paths             PathsConfig     `mapstructure:"paths"`
	Retrieval         RetrievalConfig `mapstructure:"retrieval"`
	Loader            LoaderConfig    `mapstructure:"loader"`
	Logging           LoggingConfig   `mapstructure:"logging"`
	Server            ServerConfig    `mapstructure:"server"`
}

// APIKeys holds provider credentials.
type APIKeys struct {
	OpenAI      string `mapstructure:"openai_api_key"`
	Groq        string `mapstructure:"groq_api_key"`
	Ollama      string `mapstructure:"ollama_api_key"`
	HuggingFace string `mapstructure:"huggingface_api_key"`
}

// PathsConfig locates the data directory, the persisted index and UI resources.
type PathsConfig struct {
	DataDir      string `mapstructure:"data_dir"`
	IndexDir     string `mapstructure:"index_dir"`
	TemplateFile string `mapstructure:"template_file"`
	MessagesFile string `mapstructure:"messages_file"`
	UIConfigFile string `mapstructure:"ui_config_file"`
}

// RetrievalConfig tunes chunking and similarity search.
type RetrievalConfig struct {
	SimilarityTopK     int           `mapstructure:"similarity_top_k"`
	ChunkSize          int           `mapstructure:"chunk_size"`
	ChunkOverlap       int           `mapstructure:"chunk_overlap"`
	EmbedBatchSize     int           `mapstructure:"embed_batch_size"`
	EmbeddingCacheSize int           `mapstructure:"embedding_cache_size"`
	EmbeddingCacheTTL  time.Duration `mapstructure:"embedding_cache_ttl"`
}

// LoaderConfig configures document readers.
type LoaderConfig struct {
	PDFServiceURL string `mapstructure:"pdf_service_url"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `mapstructure:"level"`
	File      string `mapstructure:"file"`
	Pretty    bool   `mapstructure:"pretty"`
	Redaction bool   `mapstructure:"redaction"`
}

// ServerConfig configures the web UI.
type ServerConfig struct {
	Addr       string        `mapstructure:"addr"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

// DefaultConfig returns the configuration used for keys absent from config.yaml.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingProvider: EmbeddingDefault,
		LLMParameters:     LLMParameters{},
		Paths: PathsConfig{
			DataDir:      "./data",
			IndexDir:     "./storage",
			TemplateFile: "./template.txt",
			MessagesFile: "./messages.json",
			UIConfigFile: "./ui.json",
		},
		Retrieval: RetrievalConfig{
			SimilarityTopK:     2,
			ChunkSize:          1024,
			ChunkOverlap:       200,
			EmbedBatchSize:     16,
			EmbeddingCacheSize: 256,
			EmbeddingCacheTTL:  30 * time.Minute,
		},
		Loader: LoaderConfig{
			PDFServiceURL: "http://localhost:8081",
		},
		Logging: LoggingConfig{
			Level:     "info",
			Pretty:    true,
			Redaction: true,
		},
		Server: ServerConfig{
			Addr:       ":8501",
			SessionTTL: 2 * time.Hour,
		},
	}
}

// LLMParameters are free-form provider overrides from llm_parameters.
// A few keys are understood by every provider; the rest are forwarded where the provider allows it.
type LLMParameters map[string]any

const (
	ParamTemperature    = "temperature"
	ParamMaxTokens      = "max_tokens"
	ParamBaseURL        = "base_url"
	ParamRequestTimeout = "request_timeout"
)

// Temperature returns the sampling temperature, if set.
func (p LLMParameters) Temperature() (float64, bool) {
	v, ok := p[ParamTemperature]
	if !ok {
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	return f, err == nil
}

// MaxTokens returns the completion token cap, if set.
func (p LLMParameters) MaxTokens() (int64, bool) {
	v, ok := p[ParamMaxTokens]
	if !ok {
		return 0, false
	}
	n, err := cast.ToInt64E(v)
	return n, err == nil && n > 0
}

// BaseURL returns a custom API endpoint, or "".
func (p LLMParameters) BaseURL() string {
	return cast.ToString(p[ParamBaseURL])
}

// RequestTimeout returns the per-request timeout, or 0 when unset.
// Numbers are seconds; strings use time.ParseDuration syntax.
func (p LLMParameters) RequestTimeout() time.Duration {
	v, ok := p[ParamRequestTimeout]
	if !ok {
		return 0
	}
	if s, isString := v.(string); isString {
		d, err := time.ParseDuration(s)
		if err == nil {
			return d
		}
	}
	secs, err := cast.ToFloat64E(v)
	if err != nil {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

// Extra returns the parameters not consumed by the typed accessors.
func (p LLMParameters) Extra() map[string]any {
	out := make(map[string]any)
	for k, v := range p {
		switch k {
		case ParamTemperature, ParamMaxTokens, ParamBaseURL, ParamRequestTimeout:
			continue
		}
		out[k] = v
	}
	return out
}
