package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yourusername/lab-ranker/internal/models"
)

// Analysis counter and gauge vectors
var (
	BacktestDispositionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backtest_dispositions_total",
		Help:      "Total number of analyzed backtests by validity",
	}, []string{"validity"})
	RecommendationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recommendations_total",
		Help:      "Total number of recommendations by outcome",
	}, []string{"outcome"})
	EligibleBacktests = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "eligible_backtests",
		Help:      "Number of eligible backtests in the last run",
	})
)

// Analysis histograms
var (
	BacktestScore = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backtest_score",
		Help:      "Quality scores of VALID backtests",
		Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
	})
)

// Recorder reports analysis engine events to the registry.
type Recorder struct{}

// NewRecorder initializes the registry and returns a recorder.
func NewRecorder() *Recorder {
	InitRegistry()
	return &Recorder{}
}

// RecordRun records a finished or abandoned run.
func (Recorder) RecordRun(duration time.Duration, status string) {
	AnalysisRunsTotal.WithLabelValues(status).Inc()
	AnalysisRunDuration.Observe(duration.Seconds())
	if status == "completed" {
		LastRunTimestamp.SetToCurrentTime()
	}
}

// RecordDisposition counts one analyzed backtest.
func (Recorder) RecordDisposition(validity models.Validity) {
	BacktestDispositionsTotal.WithLabelValues(string(validity)).Inc()
}

// ObserveScore records the score of a VALID backtest.
func (Recorder) ObserveScore(score int) {
	BacktestScore.Observe(float64(score))
}

// RecordRecommendations counts issued and dropped recommendations.
func (Recorder) RecordRecommendations(issued, dropped int) {
	RecommendationsTotal.WithLabelValues("issued").Add(float64(issued))
	RecommendationsTotal.WithLabelValues("dropped").Add(float64(dropped))
}

// UpdateEligible sets the eligible backtest gauge.
func (Recorder) UpdateEligible(n int) {
	EligibleBacktests.Set(float64(n))
}
