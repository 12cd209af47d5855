// Package metrics provides the centralized Prometheus metrics registry for lab-ranker.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lab_ranker"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Run metrics
var (
	AnalysisRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "analysis_runs_total",
		Help:      "Total number of analysis runs by status",
	}, []string{"status"})
	AnalysisRunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "analysis_run_duration_seconds",
		Help:      "Duration of analysis runs in seconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	})
	LastRunTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time of the last completed analysis run",
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register run metrics
		registry.MustRegister(AnalysisRunsTotal)
		registry.MustRegister(AnalysisRunDuration)
		registry.MustRegister(LastRunTimestamp)

		// Register analysis metrics
		registry.MustRegister(BacktestDispositionsTotal)
		registry.MustRegister(BacktestScore)
		registry.MustRegister(EligibleBacktests)
		registry.MustRegister(RecommendationsTotal)

		// Register platform metrics
		registry.MustRegister(PlatformRequestsTotal)
		registry.MustRegister(PlatformRequestDuration)
		registry.MustRegister(MarketCatalogLookupsTotal)
		registry.MustRegister(MarketCatalogSize)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}
