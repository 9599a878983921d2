package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/0xcro3dile/ragchat/internal/domain/apperr"
)

// DefaultPath is where the config file is looked up when no --config is given.
const DefaultPath = "./config.yaml"

// EnvPrefix prefixes environment overrides, e.g. RAGCHAT_LLM_MODEL_NAME.
const EnvPrefix = "RAGCHAT"

// Loader handles configuration loading
type Loader struct {
	configPath string
}

// NewLoader creates a new config loader
func NewLoader(configPath string) *Loader {
	if configPath == "" {
		configPath = DefaultPath
	}
	return &Loader{
		configPath: configPath,
	}
}

// Path returns the config file location.
func (l *Loader) Path() string {
	return l.configPath
}

// Load reads the YAML file, expands ${VAR} references, applies RAGCHAT_* overrides and validates.
func (l *Loader) Load() (*Config, error) {
	raw, err := os.ReadFile(l.configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.NotFound("config file "+l.configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadConfig(bytes.NewReader([]byte(ExpandEnv(string(raw))))); err != nil {
		return nil, apperr.Config("parse %s: %v", l.configPath, err)
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, apperr.Config("decode %s: %v", l.configPath, err)
	}
	if cfg.LLMParameters == nil {
		cfg.LLMParameters = LLMParameters{}
	}

	if err := NewValidator().Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ExpandEnv replaces $VAR and ${VAR} with environment values. Unset variables expand to "".
func ExpandEnv(s string) string {
	return os.Expand(s, func(key string) string {
		return os.Getenv(key)
	})
}

// setDefaults registers every key so AutomaticEnv can override keys missing from the file.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("api_keys.openai_api_key", "")
	v.SetDefault("api_keys.groq_api_key", "")
	v.SetDefault("api_keys.ollama_api_key", "")
	v.SetDefault("api_keys.huggingface_api_key", "")
	v.SetDefault("embedding_provider", d.EmbeddingProvider)
	v.SetDefault("embedding_name", "")
	v.SetDefault("llm_provider", "")
	v.SetDefault("llm_model_name", "")
	v.SetDefault("paths.data_dir", d.Paths.DataDir)
	v.SetDefault("paths.index_dir", d.Paths.IndexDir)
	v.SetDefault("paths.template_file", d.Paths.TemplateFile)
	v.SetDefault("paths.messages_file", d.Paths.MessagesFile)
	v.SetDefault("paths.ui_config_file", d.Paths.UIConfigFile)
	v.SetDefault("retrieval.similarity_top_k", d.Retrieval.SimilarityTopK)
	v.SetDefault("retrieval.chunk_size", d.Retrieval.ChunkSize)
	v.SetDefault("retrieval.chunk_overlap", d.Retrieval.ChunkOverlap)
	v.SetDefault("retrieval.embed_batch_size", d.Retrieval.EmbedBatchSize)
	v.SetDefault("retrieval.embedding_cache_size", d.Retrieval.EmbeddingCacheSize)
	v.SetDefault("retrieval.embedding_cache_ttl", d.Retrieval.EmbeddingCacheTTL)
	v.SetDefault("loader.pdf_service_url", d.Loader.PDFServiceURL)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.pretty", d.Logging.Pretty)
	v.SetDefault("logging.redaction", d.Logging.Redaction)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.session_ttl", d.Server.SessionTTL)
}
