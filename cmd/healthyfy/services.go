package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hpungsan/healthyfy/internal/action"
	"github.com/hpungsan/healthyfy/internal/browser"
	"github.com/hpungsan/healthyfy/internal/config"
	"github.com/hpungsan/healthyfy/internal/db"
	"github.com/hpungsan/healthyfy/internal/insights"
	"github.com/hpungsan/healthyfy/internal/logging"
	"github.com/hpungsan/healthyfy/internal/mcp"
	"github.com/hpungsan/healthyfy/internal/ops"
	"github.com/hpungsan/healthyfy/internal/remote"
	"github.com/hpungsan/healthyfy/internal/report"
	"github.com/hpungsan/healthyfy/internal/session"
)

// page is the visible app: something to navigate and fill forms on.
type page interface {
	action.Navigator
	action.FormFiller
}

// services is everything a command needs, built once per process.
type services struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    *db.Store
	sessions *session.Manager
	closers  []func() error
}

// Close releases the browser and database.
func (s *services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Warn("shutdown", zap.Error(err))
		}
	}
	_ = s.logger.Sync()
}

// baseDir is ~/.healthyfy.
func baseDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".healthyfy"), nil
}

// loadConfig reads .env files, config.json (global, then repo) and the
// environment, in that order of increasing precedence.
func loadConfig(dir, envFile string) (*config.Config, error) {
	if envFile != "" {
		if err := config.LoadEnvFile(envFile); err != nil {
			return nil, err
		}
	} else if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	}
	cfg, err := config.LoadWithRepo(dir, cwd)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg = cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bootstrap wires config, logging, storage, the page driver, the remote
// chat client and the session manager.
func bootstrap(ctx context.Context, envFile string) (*services, error) {
	dir, err := baseDir()
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(dir, envFile)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		logger.Warn("unknown tools in disabled_tools", zap.Strings("tools", unknown))
	}

	database, err := db.Init(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	db.ConfigurePool(database, cfg)

	svc, err := newServices(ctx, cfg, logger, database, newPage(cfg))
	if err != nil {
		database.Close()
		return nil, err
	}
	return svc, nil
}

// newPage drives Chrome when a DevTools URL is configured and otherwise
// keeps an in-memory page.
func newPage(cfg *config.Config) page {
	if cfg.BrowserURL == "" {
		return browser.NewMemory("/app/dashboard")
	}
	return browser.NewRod(browser.RodConfig{
		ControlURL: cfg.BrowserURL,
		BaseURL:    cfg.AppURL,
	})
}

// newRemote returns nil for the none provider.
func newRemote(ctx context.Context, cfg *config.Config) (remote.Client, error) {
	switch cfg.ChatProvider {
	case config.ProviderHTTP:
		c, err := remote.NewHTTPClient(cfg.ChatEndpoint, cfg.ChatTimeout())
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.ProviderGenAI:
		c, err := remote.NewGenAIClient(ctx, cfg.GenAIAPIKey, cfg.GenAIModel)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, nil
	}
}

func newServices(ctx context.Context, cfg *config.Config, logger *zap.Logger, database *sql.DB, pg page) (*services, error) {
	rc, err := newRemote(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store := db.NewStore(database)
	exec := &action.Executor{
		Store:      store,
		Navigator:  pg,
		Exporter:   &report.PDFExporter{Policy: ops.PolicyFrom(cfg)},
		Summarizer: insights.Rules{},
		Forms:      pg,
		Logger:     logger,
	}

	svc := &services{
		cfg:    cfg,
		logger: logger,
		store:  store,
		sessions: session.NewManager(store, exec, session.Options{
			Remote:    rc,
			Navigator: pg,
			Logger:    logger,
		}),
		closers: []func() error{database.Close},
	}
	if c, ok := pg.(interface{ Close() error }); ok {
		svc.closers = append(svc.closers, c.Close)
	}
	return svc, nil
}
