// Package analysis derives metrics from normalized backtest records, scores
// and ranks them, and turns the eligible ones into deployment proposals.
package analysis

import (
	"github.com/shopspring/decimal"

	"github.com/yourusername/lab-ranker/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Compute derives the MetricSet of a non-malformed record. The returned set
// is unscored; see Scorer.
func Compute(record models.BacktestRecord) models.MetricSet {
	m := models.MetricSet{
		Identity:        record.Identity,
		ROIPct:          calculateROI(record),
		WinRatePct:      calculateWinRate(record),
		ProfitFactor:    calculateProfitFactor(record.GrossProfit, record.GrossLoss),
		MaxDrawdownPct:  record.MaxDrawdownPct,
		RealizedProfit:  record.RealizedProfit,
		BalanceUnknown:  record.BalanceUnknown || !record.StartingBalance.IsPositive(),
		DrawdownUnknown: record.DrawdownUnknown,
	}
	if record.SharpeLikeRatio != nil && record.TradeCount > 0 {
		sharpe := *record.SharpeLikeRatio
		m.SharpeLikeRatio = &sharpe
	}
	return m
}

// calculateROI returns 0 when the starting balance is not positive.
func calculateROI(record models.BacktestRecord) float64 {
	if !record.StartingBalance.IsPositive() {
		return 0
	}
	return record.RealizedProfit.Div(record.StartingBalance).Mul(hundred).InexactFloat64()
}

func calculateWinRate(record models.BacktestRecord) *float64 {
	if record.TradeCount <= 0 {
		return nil
	}
	rate := float64(record.WinCount) / float64(record.TradeCount) * 100
	return &rate
}

func calculateProfitFactor(grossProfit, grossLoss decimal.Decimal) models.ProfitFactor {
	switch {
	case grossLoss.IsPositive():
		return models.FiniteProfitFactor(grossProfit.Div(grossLoss).InexactFloat64())
	case grossProfit.IsPositive():
		return models.InfiniteProfitFactor()
	default:
		return models.UndefinedProfitFactor()
	}
}
