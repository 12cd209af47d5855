package analysis

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/lab-ranker/internal/logger"
	"github.com/yourusername/lab-ranker/internal/models"
	"github.com/yourusername/lab-ranker/internal/normalizer"
)

// Run statuses reported to the Recorder.
const (
	RunStatusCompleted = "completed"
	RunStatusAbandoned = "abandoned"
)

// Recorder receives batch-level metrics for a run.
type Recorder interface {
	RecordRun(duration time.Duration, status string)
	RecordDisposition(validity models.Validity)
	ObserveScore(score int)
	RecordRecommendations(issued, dropped int)
	UpdateEligible(n int)
}

type nopRecorder struct{}

func (nopRecorder) RecordRun(time.Duration, string)   {}
func (nopRecorder) RecordDisposition(models.Validity) {}
func (nopRecorder) ObserveScore(int)                  {}
func (nopRecorder) RecordRecommendations(int, int)    {}
func (nopRecorder) UpdateEligible(int)                {}

// EngineConfig configures an analysis run.
type EngineConfig struct {
	Workers int
	Rubric  Rubric
	Gates   EligibilityGates
	Policy  CapitalPolicy
}

// DefaultEngineConfig returns the default rubric, gates and policy with one
// worker per CPU.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Workers: runtime.NumCPU(),
		Rubric:  DefaultRubric(),
		Gates:   DefaultEligibilityGates(),
		Policy:  DefaultCapitalPolicy(),
	}
}

// Validate checks every section; the first problem is returned.
func (c EngineConfig) Validate() error {
	if c.Workers < 0 {
		return models.NewConfigurationError("analysis.workers", "must not be negative, got %d", c.Workers)
	}
	if err := c.Rubric.Validate(); err != nil {
		return err
	}
	if err := c.Gates.Validate(); err != nil {
		return err
	}
	return c.Policy.Validate()
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRecorder sends run metrics to r.
func WithRecorder(r Recorder) EngineOption {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithMarketCatalog rejects market tags unknown to catalog.
func WithMarketCatalog(catalog normalizer.MarketCatalog) EngineOption {
	return func(e *Engine) {
		e.normalizer = normalizer.New(normalizer.WithMarketCatalog(catalog))
	}
}

// WithClock overrides the clock used for GeneratedAt and durations.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// Engine runs batches of raw results through normalization, scoring,
// ranking and recommendation building.
type Engine struct {
	cfg        EngineConfig
	scorer     *Scorer
	normalizer *normalizer.Normalizer
	recorder   Recorder
	now        func() time.Time
	log        *logger.AnalysisLogger
	audit      *logger.AuditLogger
}

// NewEngine validates cfg and creates an engine. A configuration problem is
// returned as a *models.ConfigurationError before any record is seen.
func NewEngine(cfg EngineConfig, log *logrus.Logger, opts ...EngineOption) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	scorer, err := NewScorer(cfg.Rubric)
	if err != nil {
		return nil, err
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}

	e := &Engine{
		cfg:        cfg,
		scorer:     scorer,
		normalizer: normalizer.New(),
		recorder:   nopRecorder{},
		now:        time.Now,
		log:        logger.NewAnalysisLogger(log),
		audit:      logger.NewAuditLogger(log),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the validated configuration.
func (e *Engine) Config() EngineConfig {
	return e.cfg
}

// Run analyzes one batch. Per-record problems become dispositions; the only
// error is cancellation of ctx, in which case no report is returned.
func (e *Engine) Run(ctx context.Context, raws []models.RawResult) (*models.Report, error) {
	return e.run(ctx, raws, e.normalizer)
}

// RunWithCatalog is Run with market tags checked against catalog for this
// batch only.
func (e *Engine) RunWithCatalog(ctx context.Context, raws []models.RawResult, catalog normalizer.MarketCatalog) (*models.Report, error) {
	return e.run(ctx, raws, normalizer.New(normalizer.WithMarketCatalog(catalog)))
}

func (e *Engine) run(ctx context.Context, raws []models.RawResult, norm *normalizer.Normalizer) (*models.Report, error) {
	start := e.now()
	runID := uuid.New()
	e.log.LogRunStarted(runID, len(raws), e.cfg.Workers)

	dispositions := make([]models.ScoredRecord, len(raws))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i := range raws {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			dispositions[i] = e.evaluate(norm, raws[i])
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		e.recorder.RecordRun(e.now().Sub(start), RunStatusAbandoned)
		e.log.LogRunAbandoned(runID, err)
		return nil, fmt.Errorf("analysis run %s abandoned: %w", runID, err)
	}

	rejectDuplicates(dispositions)

	ranked := Rank(dispositions)
	eligible := FilterEligible(ranked, e.cfg.Gates)
	markEligible(dispositions, ranked, eligible)
	recs, dropped := Build(eligible, e.cfg.Policy)

	report := &models.Report{
		RunID:           runID,
		GeneratedAt:     e.now().UTC(),
		Dispositions:    dispositions,
		Ranked:          ranked,
		Recommendations: recs,
		Dropped:         dropped,
		Summary:         summarize(dispositions, len(eligible), recs, dropped),
	}

	e.emit(report)
	e.recorder.RecordRun(e.now().Sub(start), RunStatusCompleted)
	e.log.LogRunCompleted(runID, report.Summary, e.now().Sub(start))
	return report, nil
}

func (e *Engine) evaluate(norm *normalizer.Normalizer, raw models.RawResult) models.ScoredRecord {
	record := norm.Normalize(raw)
	if !record.IsScorable() {
		return models.ScoredRecord{Record: record}
	}
	metrics := Compute(record)
	if record.IsRankable() {
		metrics = metrics.WithScore(e.scorer.Score(metrics))
	}
	return models.ScoredRecord{Record: record, Metrics: &metrics}
}

// rejectDuplicates turns every repeat of an identity into a MALFORMED
// disposition. The first occurrence in input order is kept.
func rejectDuplicates(dispositions []models.ScoredRecord) {
	seen := make(map[models.Identity]struct{}, len(dispositions))
	for i, d := range dispositions {
		if d.Record.Validity == models.ValidityMalformed {
			continue
		}
		id := d.Record.Identity
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			continue
		}
		dispositions[i] = models.ScoredRecord{
			Record: models.Malformed(id, d.Record.Market, d.Record.ScriptName, "duplicate identity %s", id),
		}
	}
}

func markEligible(dispositions, ranked, eligible []models.ScoredRecord) {
	ids := make(map[models.Identity]struct{}, len(eligible))
	for _, rec := range eligible {
		ids[rec.Record.Identity] = struct{}{}
	}
	for i := range ranked {
		_, ranked[i].Eligible = ids[ranked[i].Record.Identity]
	}
	for i := range dispositions {
		if dispositions[i].Record.IsRankable() {
			_, dispositions[i].Eligible = ids[dispositions[i].Record.Identity]
		}
	}
}

func summarize(dispositions []models.ScoredRecord, eligible int, recs []models.Recommendation, dropped []models.DroppedRecommendation) models.RunSummary {
	summary := models.RunSummary{
		Total:            len(dispositions),
		Eligible:         eligible,
		Recommended:      len(recs),
		Dropped:          len(dropped),
		CapitalCommitted: decimal.Zero,
	}
	for _, d := range dispositions {
		switch d.Record.Validity {
		case models.ValidityValid:
			summary.Valid++
		case models.ValidityZeroTrade:
			summary.ZeroTrade++
		default:
			summary.Malformed++
		}
	}
	for _, rec := range recs {
		summary.CapitalCommitted = summary.CapitalCommitted.Add(rec.AccountSize)
	}
	return summary
}

func (e *Engine) emit(report *models.Report) {
	for _, d := range report.Dispositions {
		e.recorder.RecordDisposition(d.Record.Validity)
		if d.Metrics != nil {
			if score, ok := d.Metrics.Scored(); ok {
				e.recorder.ObserveScore(score)
			}
		}
		e.log.LogDisposition(d)
	}
	for _, rec := range report.Recommendations {
		e.audit.LogRecommendationIssued(report.RunID, rec)
	}
	for _, d := range report.Dropped {
		e.audit.LogRecommendationDropped(report.RunID, d)
	}
	e.recorder.UpdateEligible(report.Summary.Eligible)
	e.recorder.RecordRecommendations(len(report.Recommendations), len(report.Dropped))
}
