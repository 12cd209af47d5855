package analysis

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/lab-ranker/internal/models"
)

func eligibleBatch(n int) []models.ScoredRecord {
	batch := make([]models.ScoredRecord, n)
	for i := range batch {
		rec := scored("lab-1", fmt.Sprintf("bt-%02d", i), 100-i, 10, floatPtr(60), 2)
		rec.Record.ScriptName = "Grid"
		rec.Eligible = true
		batch[i] = rec
	}
	return batch
}

func TestBuildAppliesPolicyUniformly(t *testing.T) {
	recs, dropped := Build(eligibleBatch(3), DefaultCapitalPolicy())

	require.Len(t, recs, 3)
	assert.Empty(t, dropped)
	for i, rec := range recs {
		assert.Equal(t, i+1, rec.Rank)
		assert.True(t, rec.AccountSize.Equal(decimal.NewFromInt(10000)))
		assert.True(t, rec.TradeAmount.Equal(decimal.NewFromInt(2000)), rec.TradeAmount.String())
		assert.Equal(t, 10.0, rec.Leverage)
		assert.Equal(t, models.PositionModeHedge, rec.PositionMode)
		assert.Equal(t, models.MarginModeCross, rec.MarginMode)
		assert.Equal(t, "Grid [BINANCE_BTC_USDT_]", rec.BotName)
		assert.Equal(t, 60.0, rec.WinRatePct)
		assert.Equal(t, RecommendationID(rec.Identity), rec.ID)
	}
	assert.Equal(t, 100, recs[0].Score)
	assert.Equal(t, 98, recs[2].Score)
}

func TestBuildDropsLowestRankedAtPortfolioCap(t *testing.T) {
	recs, dropped := Build(eligibleBatch(7), DefaultCapitalPolicy())

	require.Len(t, recs, 5)
	require.Len(t, dropped, 2)
	assert.Equal(t, "bt-04", recs[4].Identity.BacktestID)
	assert.Equal(t, 6, dropped[0].Rank)
	assert.Equal(t, "bt-05", dropped[0].Identity.BacktestID)
	assert.Equal(t, 7, dropped[1].Rank)
	assert.True(t, dropped[0].ProposedCapital.Equal(decimal.NewFromInt(10000)))
	assert.Contains(t, dropped[0].Reason, models.ErrPolicyViolation.Error())
	assert.Contains(t, dropped[0].Reason, "portfolio cap of 50000")

	committed := decimal.Zero
	for _, rec := range recs {
		committed = committed.Add(rec.AccountSize)
	}
	assert.True(t, committed.LessThanOrEqual(DefaultCapitalPolicy().PortfolioCap()))
}

func TestBuildNeverScalesAmounts(t *testing.T) {
	policy := DefaultCapitalPolicy()
	policy.TotalCapital = 25000
	policy.MaxPortfolioFraction = 1

	recs, dropped := Build(eligibleBatch(3), policy)
	require.Len(t, recs, 2)
	require.Len(t, dropped, 1)
	for _, rec := range recs {
		assert.True(t, rec.AccountSize.Equal(decimal.NewFromInt(10000)))
	}
}

func TestBuildMaxRecommendations(t *testing.T) {
	policy := DefaultCapitalPolicy()
	policy.MaxRecommendations = 2

	recs, dropped := Build(eligibleBatch(4), policy)
	require.Len(t, recs, 2)
	require.Len(t, dropped, 2)
	assert.Contains(t, dropped[0].Reason, "recommendation limit of 2")
}

func TestBuildEmpty(t *testing.T) {
	recs, dropped := Build(nil, DefaultCapitalPolicy())
	assert.Empty(t, recs)
	assert.Empty(t, dropped)
}

func TestBuildIsDeterministic(t *testing.T) {
	first, firstDropped := Build(eligibleBatch(8), DefaultCapitalPolicy())
	second, secondDropped := Build(eligibleBatch(8), DefaultCapitalPolicy())

	assert.Equal(t, first, second)
	assert.Equal(t, firstDropped, secondDropped)
}

func TestRecommendationIDIsStable(t *testing.T) {
	id := models.Identity{LabID: "lab-1", BacktestID: "bt-1"}
	assert.Equal(t, RecommendationID(id), RecommendationID(id))
	assert.NotEqual(t, RecommendationID(id), RecommendationID(models.Identity{LabID: "lab-1", BacktestID: "bt-2"}))
	assert.Equal(t, 5, int(RecommendationID(id).Version()))
}

func TestCapitalPolicyValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CapitalPolicy)
		field  string
	}{
		{name: "zero account", mutate: func(p *CapitalPolicy) { p.AccountSize = 0 }, field: "capital.account_size"},
		{name: "fraction above one", mutate: func(p *CapitalPolicy) { p.TradeAmountFraction = 1.2 }, field: "capital.trade_amount_fraction"},
		{name: "leverage below one", mutate: func(p *CapitalPolicy) { p.Leverage = 0.5 }, field: "capital.leverage"},
		{name: "leverage above 125", mutate: func(p *CapitalPolicy) { p.Leverage = 200 }, field: "capital.leverage"},
		{name: "unknown position mode", mutate: func(p *CapitalPolicy) { p.PositionMode = "BOTH" }, field: "capital.position_mode"},
		{name: "unknown margin mode", mutate: func(p *CapitalPolicy) { p.MarginMode = "PORTFOLIO" }, field: "capital.margin_mode"},
		{name: "negative total", mutate: func(p *CapitalPolicy) { p.TotalCapital = -1 }, field: "capital.total_capital"},
		{name: "zero portfolio fraction", mutate: func(p *CapitalPolicy) { p.MaxPortfolioFraction = 0 }, field: "capital.max_portfolio_fraction"},
		{name: "negative limit", mutate: func(p *CapitalPolicy) { p.MaxRecommendations = -1 }, field: "capital.max_recommendations"},
	}

	require.NoError(t, DefaultCapitalPolicy().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := DefaultCapitalPolicy()
			tt.mutate(&policy)

			err := policy.Validate()
			var cfgErr *models.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}
