package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/lab-ranker/internal/models"
)

// MockRecorder mocks the run metrics recorder
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordRun(duration time.Duration, status string) {
	m.Called(duration, status)
}

func (m *MockRecorder) RecordDisposition(validity models.Validity) {
	m.Called(validity)
}

func (m *MockRecorder) ObserveScore(score int) {
	m.Called(score)
}

func (m *MockRecorder) RecordRecommendations(issued, dropped int) {
	m.Called(issued, dropped)
}

func (m *MockRecorder) UpdateEligible(n int) {
	m.Called(n)
}

type allowList map[string]bool

func (a allowList) Contains(tag string) bool { return a[tag] }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func payload(backtestID string, balance, profit string, trades, wins int, drawdown string) models.RawResult {
	return models.RawResult{
		"lab_id":           "lab-1",
		"backtest_id":      backtestID,
		"script_name":      "Scalper v2",
		"market_tag":       "binance_btc_usdt_",
		"starting_balance": json.Number(balance),
		"realized_profit":  json.Number(profit),
		"max_drawdown_pct": json.Number(drawdown),
		"sharpe_ratio":     json.Number("1.1"),
		"trade_statistics": map[string]interface{}{
			"total_trades":   json.Number(fmt.Sprint(trades)),
			"winning_trades": json.Number(fmt.Sprint(wins)),
			"losing_trades":  json.Number(fmt.Sprint(trades - wins)),
			"gross_profit":   json.Number("2600"),
			"gross_loss":     json.Number("454.33"),
		},
	}
}

func newTestEngine(t *testing.T, opts ...EngineOption) *Engine {
	t.Helper()
	cfg := DefaultEngineConfig()
	cfg.Workers = 4
	engine, err := NewEngine(cfg, quietLogger(), opts...)
	require.NoError(t, err)
	return engine
}

func TestEngineRunScenario(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine := newTestEngine(t, WithClock(func() time.Time { return fixed }))

	noStats := payload("bt-zero", "5000", "0", 0, 0, "1")
	delete(noStats, "trade_statistics")
	badMarket := payload("bt-bad", "5000", "10", 4, 2, "1")
	badMarket["market_tag"] = "BTCUSDT"

	raws := []models.RawResult{
		payload("bt-scenario", "12799.88", "2145.67", 8, 7, "2.8"),
		noStats,
		badMarket,
		payload("bt-risky", "2000", "100", 10, 4, "35"),
		payload("bt-scenario", "1000", "1", 5, 5, "1"),
		nil,
	}

	report, err := engine.Run(context.Background(), raws)
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, fixed, report.GeneratedAt)
	require.Len(t, report.Dispositions, len(raws))

	scenario := report.Dispositions[0]
	assert.Equal(t, models.ValidityValid, scenario.Record.Validity)
	require.NotNil(t, scenario.Metrics)
	score, ok := scenario.Metrics.Scored()
	require.True(t, ok)
	assert.Equal(t, 100, score)
	assert.Equal(t, 87.5, *scenario.Metrics.WinRatePct)
	assert.True(t, scenario.Metrics.Classification.HighQuality)
	assert.True(t, scenario.Eligible)

	zero := report.Dispositions[1]
	assert.Equal(t, models.ValidityZeroTrade, zero.Record.Validity)
	require.NotNil(t, zero.Metrics)
	_, ok = zero.Metrics.Scored()
	assert.False(t, ok)
	assert.Nil(t, zero.Metrics.WinRatePct)
	assert.False(t, zero.Eligible)

	assert.Equal(t, models.ValidityMalformed, report.Dispositions[2].Record.Validity)
	assert.Nil(t, report.Dispositions[2].Metrics)

	risky := report.Dispositions[3]
	assert.True(t, risky.Metrics.Classification.HighRisk)
	assert.False(t, risky.Eligible)

	duplicate := report.Dispositions[4]
	assert.Equal(t, models.ValidityMalformed, duplicate.Record.Validity)
	assert.Equal(t, "duplicate identity lab-1/bt-scenario", duplicate.Record.Reason)

	assert.Equal(t, "payload is not an object", report.Dispositions[5].Record.Reason)

	require.Len(t, report.Ranked, 2)
	assert.Equal(t, "bt-scenario", report.Ranked[0].Record.Identity.BacktestID)
	assert.True(t, report.Ranked[0].Eligible)

	require.Len(t, report.Recommendations, 1)
	rec := report.Recommendations[0]
	assert.Equal(t, "bt-scenario", rec.Identity.BacktestID)
	assert.Equal(t, "BINANCE_BTC_USDT_", rec.Market)
	assert.Equal(t, "2000", rec.TradeAmount.String())

	summary := report.Summary
	assert.Equal(t, 6, summary.Total)
	assert.Equal(t, 2, summary.Valid)
	assert.Equal(t, 1, summary.ZeroTrade)
	assert.Equal(t, 3, summary.Malformed)
	assert.Equal(t, 1, summary.Eligible)
	assert.Equal(t, 1, summary.Recommended)
	assert.Equal(t, 0, summary.Dropped)
	assert.True(t, summary.CapitalCommitted.Equal(rec.AccountSize))
}

func TestEngineRunIsDeterministic(t *testing.T) {
	engine := newTestEngine(t)
	raws := make([]models.RawResult, 0, 40)
	for i := 0; i < 40; i++ {
		raws = append(raws, payload(fmt.Sprintf("bt-%02d", i), "1000", fmt.Sprint(10+i%7), 10, 5+i%5, fmt.Sprint(i%6)))
	}

	first, err := engine.Run(context.Background(), raws)
	require.NoError(t, err)
	second, err := engine.Run(context.Background(), raws)
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Recommendations, second.Recommendations)
	assert.Equal(t, first.Dropped, second.Dropped)
	assert.Equal(t, first.Ranked, second.Ranked)
	assert.Len(t, first.Recommendations, 5)
}

func TestEngineRunNothingEligible(t *testing.T) {
	engine := newTestEngine(t)
	report, err := engine.Run(context.Background(), []models.RawResult{
		payload("bt-1", "100", "5", 2, 1, "9"),
	})
	require.NoError(t, err)
	assert.Len(t, report.Dispositions, 1)
	assert.Empty(t, report.Recommendations)
	assert.Equal(t, 0, report.Summary.Eligible)
	assert.True(t, report.Summary.CapitalCommitted.IsZero())
}

func TestEngineRunEmptyBatch(t *testing.T) {
	engine := newTestEngine(t)
	report, err := engine.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, report.Dispositions)
	assert.Equal(t, 0, report.Summary.Total)
}

func TestEngineRunCancelled(t *testing.T) {
	recorder := new(MockRecorder)
	recorder.On("RecordRun", mock.Anything, RunStatusAbandoned).Return()
	engine := newTestEngine(t, WithRecorder(recorder))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := engine.Run(ctx, []models.RawResult{payload("bt-1", "1000", "10", 5, 3, "1")})
	assert.Nil(t, report)
	assert.ErrorIs(t, err, context.Canceled)
	recorder.AssertExpectations(t)
	recorder.AssertNotCalled(t, "RecordRecommendations", mock.Anything, mock.Anything)
}

func TestEngineRecordsMetrics(t *testing.T) {
	recorder := new(MockRecorder)
	recorder.On("RecordDisposition", models.ValidityValid).Return().Once()
	recorder.On("RecordDisposition", models.ValidityMalformed).Return().Once()
	recorder.On("ObserveScore", 100).Return().Once()
	recorder.On("UpdateEligible", 1).Return().Once()
	recorder.On("RecordRecommendations", 1, 0).Return().Once()
	recorder.On("RecordRun", mock.Anything, RunStatusCompleted).Return().Once()
	engine := newTestEngine(t, WithRecorder(recorder))

	_, err := engine.Run(context.Background(), []models.RawResult{
		payload("bt-scenario", "12799.88", "2145.67", 8, 7, "2.8"),
		nil,
	})
	require.NoError(t, err)
	recorder.AssertExpectations(t)
}

func TestEngineMarketCatalog(t *testing.T) {
	engine := newTestEngine(t, WithMarketCatalog(allowList{"KRAKEN_BTC_EUR_": true}))

	report, err := engine.Run(context.Background(), []models.RawResult{
		payload("bt-1", "1000", "10", 5, 3, "1"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.ValidityMalformed, report.Dispositions[0].Record.Validity)
	assert.Contains(t, report.Dispositions[0].Record.Reason, "not listed")
}

func TestEngineRunWithCatalogIsPerBatch(t *testing.T) {
	engine := newTestEngine(t)
	batch := []models.RawResult{payload("bt-1", "1000", "10", 5, 3, "1")}

	report, err := engine.RunWithCatalog(context.Background(), batch, allowList{"BINANCE_BTC_USDT_": true})
	require.NoError(t, err)
	assert.Equal(t, models.ValidityValid, report.Dispositions[0].Record.Validity)

	report, err = engine.RunWithCatalog(context.Background(), batch, allowList{})
	require.NoError(t, err)
	assert.Equal(t, models.ValidityMalformed, report.Dispositions[0].Record.Validity)

	report, err = engine.Run(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, models.ValidityValid, report.Dispositions[0].Record.Validity)
}

func TestNewEngineRejectsBadConfiguration(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*EngineConfig)
	}{
		{name: "negative workers", mutate: func(c *EngineConfig) { c.Workers = -2 }},
		{name: "rubric", mutate: func(c *EngineConfig) { c.Rubric.LowDrawdownPoints = 500 }},
		{name: "gates", mutate: func(c *EngineConfig) { c.Gates.MinTrades = -1 }},
		{name: "policy", mutate: func(c *EngineConfig) { c.Policy.Leverage = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultEngineConfig()
			tt.mutate(&cfg)

			engine, err := NewEngine(cfg, quietLogger())
			assert.Nil(t, engine)
			assert.ErrorIs(t, err, models.ErrConfiguration)
		})
	}
}

func TestNewEngineDefaultsWorkers(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.Workers = 0
	engine, err := NewEngine(cfg, quietLogger())
	require.NoError(t, err)
	assert.Greater(t, engine.Config().Workers, 0)
}
