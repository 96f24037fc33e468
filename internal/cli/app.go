package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/easeaico/session-memory/internal/config"
	"github.com/easeaico/session-memory/internal/consolidate"
	"github.com/easeaico/session-memory/internal/extract"
	"github.com/easeaico/session-memory/internal/generate"
	"github.com/easeaico/session-memory/internal/llm"
	"github.com/easeaico/session-memory/internal/memory"
	"github.com/easeaico/session-memory/internal/pipeline"
	"github.com/easeaico/session-memory/internal/transcript"
	"github.com/easeaico/session-memory/internal/verify"
)

// app wires the configured components together for one command run.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  memory.Store
	oracle *llm.Client
	index  *transcript.Index
	pipe   *pipeline.Pipeline
}

// newApp loads configuration and constructs the pipeline. The oracle is
// optional: without an API key the oracle-dependent paths degrade or
// refuse per command.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var oracle *llm.Client
	if cfg.Oracle.APIKey != "" {
		opts := []llm.ClientOption{llm.WithMaxTurns(cfg.Oracle.MaxTurns)}
		if cfg.Oracle.Model != "" {
			opts = append(opts, llm.WithModel(cfg.Oracle.Model))
		}
		oracle, err = llm.NewClient(ctx, cfg.Oracle.APIKey, opts...)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to create oracle client: %w", err)
		}
	}

	index := transcript.NewIndex(cfg.Sessions.Dir)

	// Typed nil must not leak into the interfaces, the components check
	// them against plain nil.
	var (
		oracleIface llm.Oracle
		embedder    llm.Embedder
		verifier    *verify.Verifier
	)
	if oracle != nil {
		oracleIface = oracle
		embedder = oracle
		if !noVerify {
			verifier = verify.New(oracle, verify.WithMaxTurns(cfg.Oracle.MaxTurns))
		}
	}

	pipe := pipeline.New(pipeline.Config{
		Store:        store,
		Index:        index,
		Extractor:    extract.New(oracleIface, index, extract.WithMaxTurns(cfg.Oracle.MaxTurns)),
		Consolidator: consolidate.New(consolidate.WithOracle(oracleIface), consolidate.WithMaxTurns(cfg.Oracle.MaxTurns)),
		Generator:    generate.New(generate.WithOracle(oracleIface), generate.WithMaxTurns(cfg.Oracle.MaxTurns)),
		Verifier:     verifier,
		Embedder:     embedder,
		Logger:       logger,
		MinFrequency: cfg.Generate.MinFrequency,
	})

	return &app{
		cfg:    cfg,
		logger: logger,
		store:  store,
		oracle: oracle,
		index:  index,
		pipe:   pipe,
	}, nil
}

func (a *app) close() {
	if a.oracle != nil {
		a.oracle.Close()
	}
	a.store.Close()
	_ = a.logger.Sync()
}

// requireOracle guards commands that cannot run without a model.
func (a *app) requireOracle() error {
	if a.oracle == nil {
		return fmt.Errorf("an API key is required for this command: set SESSMEM_ORACLE_API_KEY or GOOGLE_API_KEY")
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (memory.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		store, err := memory.NewPostgresStore(ctx, cfg.Store.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := store.InitSchema(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
		return store, nil
	default:
		if dir := filepath.Dir(cfg.Store.URL); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		store, err := memory.NewSQLiteStore(ctx, cfg.Store.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		if err := store.InitSchema(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
		return store, nil
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.TimeKey = ""
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}
