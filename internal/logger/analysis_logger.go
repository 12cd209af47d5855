package logger

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/lab-ranker/internal/models"
)

// AnalysisLogger provides dedicated logging for analysis runs.
type AnalysisLogger struct {
	*logrus.Entry
}

// NewAnalysisLogger creates a new analysis logger.
func NewAnalysisLogger(baseLogger *logrus.Logger) *AnalysisLogger {
	return &AnalysisLogger{
		Entry: baseLogger.WithField("component", "analysis"),
	}
}

// LogRunStarted logs the start of an analysis run.
func (al *AnalysisLogger) LogRunStarted(runID uuid.UUID, inputs, workers int) {
	al.WithFields(logrus.Fields{
		"run_id":  runID.String(),
		"inputs":  inputs,
		"workers": workers,
	}).Info("Analysis run started")
}

// LogRunCompleted logs the summary of a finished run.
func (al *AnalysisLogger) LogRunCompleted(runID uuid.UUID, summary models.RunSummary, duration time.Duration) {
	al.WithFields(logrus.Fields{
		"run_id":            runID.String(),
		"total":             summary.Total,
		"valid":             summary.Valid,
		"zero_trade":        summary.ZeroTrade,
		"malformed":         summary.Malformed,
		"eligible":          summary.Eligible,
		"recommended":       summary.Recommended,
		"dropped":           summary.Dropped,
		"capital_committed": summary.CapitalCommitted.String(),
		"duration_ms":       duration.Milliseconds(),
	}).Info("Analysis run completed")
}

// LogRunAbandoned logs a run stopped by cancellation.
func (al *AnalysisLogger) LogRunAbandoned(runID uuid.UUID, err error) {
	al.WithFields(logrus.Fields{
		"run_id": runID.String(),
		"error":  err.Error(),
	}).Warn("Analysis run abandoned")
}

// LogDisposition logs the outcome for one backtest at debug level.
// Malformed records are logged at warn level with their reason.
func (al *AnalysisLogger) LogDisposition(scored models.ScoredRecord) {
	fields := logrus.Fields{
		"lab_id":      scored.Record.Identity.LabID,
		"backtest_id": scored.Record.Identity.BacktestID,
		"market":      scored.Record.Market,
		"validity":    string(scored.Record.Validity),
	}
	if scored.Record.Validity == models.ValidityMalformed {
		fields["reason"] = scored.Record.Reason
		al.WithFields(fields).Warn("Backtest rejected as malformed")
		return
	}
	if scored.Metrics != nil {
		if score, ok := scored.Metrics.Scored(); ok {
			fields["score"] = score
			fields["classification"] = scored.Metrics.Classification.String()
		}
		fields["roi_pct"] = scored.Metrics.ROIPct
	}
	fields["eligible"] = scored.Eligible
	al.WithFields(fields).Debug("Backtest evaluated")
}
