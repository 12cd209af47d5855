package analysis

import (
	"github.com/shopspring/decimal"

	"github.com/yourusername/lab-ranker/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

// scenarioRecord is the 12799.88 balance, 8 trade, 7 win backtest.
func scenarioRecord() models.BacktestRecord {
	return models.BacktestRecord{
		Identity:        models.Identity{LabID: "lab-1", BacktestID: "bt-scenario"},
		Market:          "BINANCE_BTC_USDT_",
		ScriptName:      "Scalper v2",
		StartingBalance: decimal.RequireFromString("12799.88"),
		RealizedProfit:  decimal.RequireFromString("2145.67"),
		TradeCount:      8,
		WinCount:        7,
		LossCount:       1,
		GrossProfit:     decimal.RequireFromString("2600"),
		GrossLoss:       decimal.RequireFromString("454.33"),
		MaxDrawdownPct:  2.8,
		SharpeLikeRatio: floatPtr(1.1),
		Validity:        models.ValidityValid,
	}
}

func scoredMetrics(score int, roi float64, winRate *float64, drawdown float64) *models.MetricSet {
	m := models.MetricSet{
		ROIPct:         roi,
		WinRatePct:     winRate,
		MaxDrawdownPct: drawdown,
		RealizedProfit: decimal.Zero,
	}.WithScore(score, models.Classification{})
	return &m
}

func scored(lab, backtest string, score int, roi float64, winRate *float64, drawdown float64) models.ScoredRecord {
	id := models.Identity{LabID: lab, BacktestID: backtest}
	m := scoredMetrics(score, roi, winRate, drawdown)
	m.Identity = id
	return models.ScoredRecord{
		Record: models.BacktestRecord{
			Identity:        id,
			Market:          "BINANCE_BTC_USDT_",
			StartingBalance: decimal.NewFromInt(1000),
			TradeCount:      10,
			WinCount:        6,
			LossCount:       4,
			MaxDrawdownPct:  drawdown,
			Validity:        models.ValidityValid,
		},
		Metrics: m,
	}
}
