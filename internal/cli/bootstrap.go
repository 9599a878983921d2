package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/0xcro3dile/ragchat/internal/adapters/embedding"
	"github.com/0xcro3dile/ragchat/internal/adapters/fingerprint"
	"github.com/0xcro3dile/ragchat/internal/adapters/llm"
	"github.com/0xcro3dile/ragchat/internal/adapters/loader"
	"github.com/0xcro3dile/ragchat/internal/adapters/parser"
	"github.com/0xcro3dile/ragchat/internal/adapters/resources"
	"github.com/0xcro3dile/ragchat/internal/adapters/vectordb"
	"github.com/0xcro3dile/ragchat/internal/config"
	"github.com/0xcro3dile/ragchat/internal/domain/usecases"
	"github.com/0xcro3dile/ragchat/internal/logger"
)

// app holds the wired components shared by the subcommands.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	logger  zerolog.Logger
	bundle  *resources.Bundle
	loader  *loader.MultiLoader
	storage *vectordb.Storage
	builder *usecases.IndexBuildUseCase
	cache   *usecases.IndexCache
	index   *usecases.BoundIndex
	chat    *usecases.ChatUseCase
}

// loadConfig reads the config file named by --config.
func loadConfig() (*config.Config, error) {
	return config.NewLoader(cfgFile).Load()
}

// newLogger builds the process logger; --log-level wins over logging.level.
func newLogger(cfg *config.Config) (*logger.Logger, error) {
	lc := logger.DefaultConfig()
	lc.Level = cfg.Logging.Level
	lc.File = cfg.Logging.File
	lc.Pretty = cfg.Logging.Pretty
	lc.Redaction = cfg.Logging.Redaction
	if logLevel != "" {
		lc.Level = logLevel
	}
	return logger.New(lc)
}

// bootstrap loads configuration and resources and wires every component.
// Config and resource problems are returned before any provider is contacted.
func bootstrap() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	zl := log.Zerolog()

	bundle, err := resources.Load(cfg.Paths)
	if err != nil {
		log.Close()
		return nil, err
	}

	embedder, err := embedding.New(cfg, zl)
	if err != nil {
		log.Close()
		return nil, err
	}
	model, err := llm.New(cfg, zl)
	if err != nil {
		log.Close()
		return nil, err
	}

	docs := loader.NewMultiLoader(
		loader.NewTextLoader(),
		loader.NewPDFLoader(parser.NewPDFServiceParser(cfg.Loader.PDFServiceURL, zl)),
	)
	ingest := usecases.NewIngestUseCase(embedder, cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap, cfg.Retrieval.EmbedBatchSize)
	walker := fingerprint.NewWalker(zl)
	storage := vectordb.NewStorage(cfg.Paths.IndexDir, zl)
	builder := usecases.NewIndexBuildUseCase(
		storage,
		loader.NewDirectoryReader(zl),
		docs,
		ingest,
		walker,
		embedder.ModelName(),
		zl,
	)

	cache := usecases.NewIndexCache(walker, zl)
	bound := cache.Bind(cfg.Paths.DataDir, builder)
	prompt := usecases.NewPromptTemplate(bundle.Template)
	query := usecases.NewQueryUseCase(embedder, bound, model, prompt, cfg.Retrieval.SimilarityTopK, zl)

	cliLog := log.Component("cli")
	if !prompt.HasQuery() {
		cliLog.Warn().Str("template", cfg.Paths.TemplateFile).Msg("prompt template has no {query_str}; the question will not reach the model")
	}
	cliLog.Debug().
		Str("version", GetVersion()).
		Str("config", config.NewLoader(cfgFile).Path()).
		Str("embedding", embedder.ModelName()).
		Str("llm", model.Name()).
		Str("data_dir", cfg.Paths.DataDir).
		Str("index_dir", cfg.Paths.IndexDir).
		Msg("components wired")

	return &app{
		cfg:     cfg,
		log:     log,
		logger:  zl,
		bundle:  bundle,
		loader:  docs,
		storage: storage,
		builder: builder,
		cache:   cache,
		index:   bound,
		chat:    usecases.NewChatUseCase(query, zl),
	}, nil
}

// warmUp resolves the index once so the first question does not pay for the build.
func (a *app) warmUp(ctx context.Context) error {
	h, err := a.index.Resolve(ctx)
	if err != nil {
		return fmt.Errorf("preparing index: %w", err)
	}
	defer h.Release()

	a.logger.Info().
		Str("fingerprint", h.Fingerprint.Short()).
		Str("origin", string(h.Origin)).
		Str("dir", a.storage.Dir()).
		Msg("index ready")
	return nil
}

// Close releases the cached index and the log file.
func (a *app) Close() error {
	a.cache.Reset()
	return a.log.Close()
}
