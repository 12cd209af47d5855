package main

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/lab-ranker/internal/analysis"
	"github.com/yourusername/lab-ranker/internal/config"
	"github.com/yourusername/lab-ranker/internal/database"
	"github.com/yourusername/lab-ranker/internal/logger"
	"github.com/yourusername/lab-ranker/internal/metrics"
	"github.com/yourusername/lab-ranker/internal/platform"
	"github.com/yourusername/lab-ranker/internal/repository"
	"github.com/yourusername/lab-ranker/internal/service"
)

// app holds the collaborators shared by the commands
type app struct {
	cfg      *config.Config
	log      *logrus.Logger
	engine   *analysis.Engine
	client   *platform.Client
	catalog  *platform.MarketCatalog
	db       *database.DB
	repos    *repository.Repositories
	analysis *service.AnalysisService
}

// loadConfig reads the configuration file, overlays secrets and validates
func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.LoadWithDefaults(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := config.LoadSecretsFromAWS(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	if cfg.IsProduction() {
		if err := config.ValidateEnvironment(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// newApp wires the engine, platform client, catalog and database from cfg.
// Console reports go to out when it is not nil.
func newApp(ctx context.Context, cfg *config.Config, persist bool, out io.Writer) (*app, error) {
	log := logger.NewLogger(cfg.App.LogLevel)
	a := &app{cfg: cfg, log: log}

	engine, err := analysis.NewEngine(cfg.EngineConfig(), log, analysis.WithRecorder(metrics.NewRecorder()))
	if err != nil {
		return nil, err
	}
	a.engine = engine

	var opts []service.AnalysisServiceOption
	if out != nil {
		opts = append(opts, service.WithConsole(out))
	}
	if cfg.Platform.BaseURL != "" {
		a.client, err = platform.NewClient(platformClientConfig(cfg), log)
		if err != nil {
			return nil, err
		}
		opts = append(opts, service.WithBacktestSource(a.client))
	}

	a.catalog = platform.NewMarketCatalog(cfg.MarketCatalogTTL(), cfg.CacheCleanupInterval(), log)
	if err := a.catalog.Seed(cfg.Cache.StaticMarkets); err != nil {
		return nil, err
	}
	var fetcher platform.MarketFetcher
	if a.client != nil {
		fetcher = a.client
	}
	opts = append(opts, service.WithMarketCatalog(a.catalog, fetcher))

	if persist && cfg.Database.Enabled {
		a.db, err = database.Open(ctx, &cfg.Database)
		if err != nil {
			a.close()
			return nil, err
		}
		a.repos, err = repository.NewRepositories(a.db)
		if err != nil {
			a.close()
			return nil, err
		}
		opts = append(opts, service.WithRunStore(a.repos.AnalysisRun))
	}

	a.analysis = service.NewAnalysisService(engine, service.AnalysisServiceConfig{
		ReportDir:            cfg.Report.OutputDir,
		Formats:              cfg.Report.Formats,
		RequireListedMarkets: cfg.Cache.RequireListedMarkets,
	}, log, opts...)
	return a, nil
}

func (a *app) close() {
	if a.client != nil {
		a.client.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

func platformClientConfig(cfg *config.Config) platform.ClientConfig {
	httpCfg := platform.DefaultHTTPClientConfig()
	httpCfg.Timeout = cfg.PlatformTimeout()
	httpCfg.MaxRetries = cfg.Platform.RetryAttempts
	httpCfg.RateLimit = cfg.Platform.RequestsPerSecond
	httpCfg.Burst = cfg.Platform.Burst

	return platform.ClientConfig{
		BaseURL:   cfg.Platform.BaseURL,
		APIKey:    cfg.Platform.APIKey,
		APISecret: cfg.Platform.APISecret,
		PageSize:  cfg.Platform.PageSize,
		HTTP:      httpCfg,
	}
}
