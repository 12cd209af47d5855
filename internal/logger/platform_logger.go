package logger

import (
	"github.com/sirupsen/logrus"
)

// PlatformLogger provides dedicated logging for trading platform calls.
type PlatformLogger struct {
	*logrus.Entry
}

// NewPlatformLogger creates a new platform logger.
func NewPlatformLogger(baseLogger *logrus.Logger) *PlatformLogger {
	return &PlatformLogger{
		Entry: baseLogger.WithField("component", "platform"),
	}
}

// LogBacktestsFetched logs one fetched page of lab backtests.
func (pl *PlatformLogger) LogBacktestsFetched(labID string, page, count int, latencyMs float64) {
	pl.WithFields(logrus.Fields{
		"lab_id":     labID,
		"page":       page,
		"count":      count,
		"latency_ms": latencyMs,
	}).Info("Lab backtests fetched")
}

// LogCatalogRefresh logs a market catalog refresh.
func (pl *PlatformLogger) LogCatalogRefresh(markets int, cacheHit bool) {
	pl.WithFields(logrus.Fields{
		"markets":   markets,
		"cache_hit": cacheHit,
	}).Info("Market catalog refreshed")
}

// LogPlatformError logs a failed platform request.
func (pl *PlatformLogger) LogPlatformError(operation string, err error) {
	pl.WithFields(logrus.Fields{
		"operation": operation,
		"error":     err.Error(),
	}).Error("Platform request failed")
}
