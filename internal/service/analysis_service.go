package service

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/lab-ranker/internal/analysis"
	"github.com/yourusername/lab-ranker/internal/logger"
	"github.com/yourusername/lab-ranker/internal/models"
	"github.com/yourusername/lab-ranker/internal/platform"
	"github.com/yourusername/lab-ranker/internal/report"
)

// maxConcurrentLabFetches bounds parallel lab downloads; the platform
// client rate limits on top of this.
const maxConcurrentLabFetches = 4

// BacktestSource lists the backtests of a lab
type BacktestSource interface {
	GetAllLabBacktests(ctx context.Context, labID string) ([]models.RawResult, error)
}

// RunStore persists completed runs
type RunStore interface {
	SaveRun(ctx context.Context, report *models.Report) error
}

// AnalysisServiceConfig controls where reports go
type AnalysisServiceConfig struct {
	ReportDir            string
	Formats              []string
	RequireListedMarkets bool
}

// AnalysisServiceOption configures an AnalysisService
type AnalysisServiceOption func(*AnalysisService)

// WithBacktestSource sets where lab backtests are fetched from
func WithBacktestSource(source BacktestSource) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.source = source
	}
}

// WithMarketCatalog checks market tags against catalog, refreshed from
// fetcher before each run when fetcher is not nil
func WithMarketCatalog(catalog *platform.MarketCatalog, fetcher platform.MarketFetcher) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.catalog = catalog
		s.markets = fetcher
	}
}

// WithRunStore persists every completed run
func WithRunStore(store RunStore) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.store = store
	}
}

// WithConsole prints the console report to w
func WithConsole(w io.Writer) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.console = w
	}
}

// AnalysisService fetches lab backtests, runs the engine and publishes the
// report to files, the console and the database
type AnalysisService struct {
	engine  *analysis.Engine
	cfg     AnalysisServiceConfig
	source  BacktestSource
	catalog *platform.MarketCatalog
	markets platform.MarketFetcher
	store   RunStore
	console io.Writer
	logger  *logrus.Logger
	audit   *logger.AuditLogger
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(engine *analysis.Engine, cfg AnalysisServiceConfig, log *logrus.Logger, opts ...AnalysisServiceOption) *AnalysisService {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	s := &AnalysisService{
		engine: engine,
		cfg:    cfg,
		logger: log,
		audit:  logger.NewAuditLogger(log),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchLabs downloads the backtests of every lab. Results keep lab order.
func (s *AnalysisService) FetchLabs(ctx context.Context, labIDs []string) ([]models.RawResult, error) {
	if s.source == nil {
		return nil, fmt.Errorf("no backtest source configured")
	}

	perLab := make([][]models.RawResult, len(labIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLabFetches)
	for i, labID := range labIDs {
		i, labID := i, labID
		g.Go(func() error {
			results, err := s.source.GetAllLabBacktests(gctx, labID)
			if err != nil {
				return fmt.Errorf("failed to fetch lab %s: %w", labID, err)
			}
			perLab[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []models.RawResult
	for _, results := range perLab {
		all = append(all, results...)
	}
	return all, nil
}

// AnalyzeLabs fetches every lab and analyzes the combined batch
func (s *AnalysisService) AnalyzeLabs(ctx context.Context, labIDs []string) (*models.Report, error) {
	raws, err := s.FetchLabs(ctx, labIDs)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"labs":      len(labIDs),
		"backtests": len(raws),
	}).Info("Fetched lab backtests")
	return s.Analyze(ctx, raws)
}

// Analyze runs one batch and publishes the report. When publishing fails
// the report is still returned together with the error.
func (s *AnalysisService) Analyze(ctx context.Context, raws []models.RawResult) (*models.Report, error) {
	var (
		rep *models.Report
		err error
	)
	if s.catalog != nil && s.cfg.RequireListedMarkets {
		snapshot, serr := s.catalogSnapshot(ctx)
		if serr != nil {
			return nil, serr
		}
		rep, err = s.engine.RunWithCatalog(ctx, raws, snapshot)
	} else {
		rep, err = s.engine.Run(ctx, raws)
	}
	if err != nil {
		return nil, err
	}

	return rep, s.publish(ctx, rep)
}

func (s *AnalysisService) catalogSnapshot(ctx context.Context) (platform.MarketSet, error) {
	if s.markets != nil {
		if err := s.catalog.Refresh(ctx, s.markets); err != nil {
			if s.catalog.Count() == 0 {
				return nil, fmt.Errorf("market catalog unavailable: %w", err)
			}
			s.logger.WithError(err).Warn("Market catalog refresh failed, using cached markets")
		}
	}
	return s.catalog.Snapshot(), nil
}

func (s *AnalysisService) publish(ctx context.Context, rep *models.Report) error {
	if s.console != nil && hasFormat(s.cfg.Formats, report.FormatConsole) {
		fmt.Fprint(s.console, report.ConsoleReport(rep))
	}

	if s.cfg.ReportDir != "" {
		paths, err := report.WriteAll(rep, s.cfg.ReportDir, s.cfg.Formats)
		for _, path := range paths {
			s.audit.LogReportPersisted(rep.RunID, path, len(rep.Dispositions))
		}
		if err != nil {
			return fmt.Errorf("failed to write reports for run %s: %w", rep.RunID, err)
		}
	}

	if s.store != nil {
		if err := s.store.SaveRun(ctx, rep); err != nil {
			return fmt.Errorf("failed to persist run %s: %w", rep.RunID, err)
		}
		s.audit.LogReportPersisted(rep.RunID, "database", len(rep.Dispositions))
	}
	return nil
}

func hasFormat(formats []string, want string) bool {
	for _, f := range formats {
		if f == want {
			return true
		}
	}
	return false
}
