// Package logger provides audit logging.
package logger

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/lab-ranker/internal/models"
)

// AuditLogger provides dedicated audit trail logging.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogRecommendationIssued records a proposed bot deployment.
func (al *AuditLogger) LogRecommendationIssued(runID uuid.UUID, rec models.Recommendation) {
	al.WithFields(logrus.Fields{
		"run_id":            runID.String(),
		"recommendation_id": rec.ID.String(),
		"rank":              rec.Rank,
		"lab_id":            rec.Identity.LabID,
		"backtest_id":       rec.Identity.BacktestID,
		"market":            rec.Market,
		"score":             rec.Score,
		"account_size":      rec.AccountSize.String(),
		"trade_amount":      rec.TradeAmount.String(),
		"leverage":          rec.Leverage,
		"position_mode":     string(rec.PositionMode),
		"margin_mode":       string(rec.MarginMode),
	}).Info("Recommendation issued")
}

// LogRecommendationDropped records an eligible backtest left out by the
// capital policy.
func (al *AuditLogger) LogRecommendationDropped(runID uuid.UUID, dropped models.DroppedRecommendation) {
	al.WithFields(logrus.Fields{
		"run_id":           runID.String(),
		"rank":             dropped.Rank,
		"lab_id":           dropped.Identity.LabID,
		"backtest_id":      dropped.Identity.BacktestID,
		"proposed_capital": dropped.ProposedCapital.String(),
		"reason":           dropped.Reason,
	}).Warn("Recommendation dropped")
}

// LogReportPersisted records where a run's report was written.
func (al *AuditLogger) LogReportPersisted(runID uuid.UUID, destination string, recommendations int) {
	al.WithFields(logrus.Fields{
		"run_id":          runID.String(),
		"destination":     destination,
		"recommendations": recommendations,
	}).Info("Report persisted")
}
