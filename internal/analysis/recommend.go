package analysis

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yourusername/lab-ranker/internal/models"
)

// recommendationNamespace seeds the name-based recommendation ids.
var recommendationNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("lab-ranker/recommendation"))

// CapitalPolicy is applied uniformly to every recommendation in a run.
type CapitalPolicy struct {
	AccountSize          float64             `mapstructure:"account_size" json:"account_size" validate:"gt=0"`
	TradeAmountFraction  float64             `mapstructure:"trade_amount_fraction" json:"trade_amount_fraction" validate:"gt=0,lte=1"`
	Leverage             float64             `mapstructure:"leverage" json:"leverage" validate:"gte=1,lte=125"`
	PositionMode         models.PositionMode `mapstructure:"position_mode" json:"position_mode" validate:"oneof=HEDGE ONE_WAY"`
	MarginMode           models.MarginMode   `mapstructure:"margin_mode" json:"margin_mode" validate:"oneof=CROSS ISOLATED"`
	TotalCapital         float64             `mapstructure:"total_capital" json:"total_capital" validate:"gt=0"`
	MaxPortfolioFraction float64             `mapstructure:"max_portfolio_fraction" json:"max_portfolio_fraction" validate:"gt=0,lte=1"`
	MaxRecommendations   int                 `mapstructure:"max_recommendations" json:"max_recommendations" validate:"gte=0"`
}

// DefaultCapitalPolicy returns a 10000 account per bot trading 20% of it at
// 10x in hedge/cross mode, with at most half of 100000 committed.
func DefaultCapitalPolicy() CapitalPolicy {
	return CapitalPolicy{
		AccountSize:          10000,
		TradeAmountFraction:  0.20,
		Leverage:             10,
		PositionMode:         models.PositionModeHedge,
		MarginMode:           models.MarginModeCross,
		TotalCapital:         100000,
		MaxPortfolioFraction: 0.5,
	}
}

// Validate checks the policy ranges.
func (p CapitalPolicy) Validate() error {
	return validateStruct("capital", p)
}

// PortfolioCap is the most capital a run may commit.
func (p CapitalPolicy) PortfolioCap() decimal.Decimal {
	return decimal.NewFromFloat(p.TotalCapital).Mul(decimal.NewFromFloat(p.MaxPortfolioFraction))
}

// RecommendationID derives the stable id of the recommendation for id.
func RecommendationID(id models.Identity) uuid.UUID {
	return uuid.NewSHA1(recommendationNamespace, []byte(id.String()))
}

// Build turns eligible records, in rank order, into recommendations. Each
// one commits AccountSize. The first recommendation that would breach the
// recommendation limit or the portfolio cap is dropped together with every
// lower-ranked one; amounts are never scaled down.
func Build(eligible []models.ScoredRecord, policy CapitalPolicy) ([]models.Recommendation, []models.DroppedRecommendation) {
	accountSize := decimal.NewFromFloat(policy.AccountSize)
	tradeAmount := accountSize.Mul(decimal.NewFromFloat(policy.TradeAmountFraction))
	portfolioCap := policy.PortfolioCap()

	recs := make([]models.Recommendation, 0, len(eligible))
	var dropped []models.DroppedRecommendation
	committed := decimal.Zero
	stopReason := ""

	for i, scored := range eligible {
		rank := i + 1
		if stopReason == "" {
			switch {
			case policy.MaxRecommendations > 0 && len(recs) >= policy.MaxRecommendations:
				stopReason = fmt.Sprintf("%v: recommendation limit of %d reached at rank %d",
					models.ErrPolicyViolation, policy.MaxRecommendations, rank)
			case committed.Add(accountSize).GreaterThan(portfolioCap):
				stopReason = fmt.Sprintf("%v: committing %s at rank %d would exceed the portfolio cap of %s",
					models.ErrPolicyViolation, committed.Add(accountSize).String(), rank, portfolioCap.String())
			}
		}
		if stopReason != "" {
			dropped = append(dropped, models.DroppedRecommendation{
				Identity:        scored.Record.Identity,
				Rank:            rank,
				ProposedCapital: accountSize,
				Reason:          stopReason,
			})
			continue
		}

		committed = committed.Add(accountSize)
		recs = append(recs, newRecommendation(rank, scored, policy, accountSize, tradeAmount))
	}
	return recs, dropped
}

func newRecommendation(rank int, scored models.ScoredRecord, policy CapitalPolicy, accountSize, tradeAmount decimal.Decimal) models.Recommendation {
	record := scored.Record
	rec := models.Recommendation{
		ID:           RecommendationID(record.Identity),
		Rank:         rank,
		Identity:     record.Identity,
		BotName:      botName(record),
		ScriptName:   record.ScriptName,
		Market:       record.Market,
		AccountSize:  accountSize,
		TradeAmount:  tradeAmount,
		Leverage:     policy.Leverage,
		PositionMode: policy.PositionMode,
		MarginMode:   policy.MarginMode,
	}
	if m := scored.Metrics; m != nil {
		rec.Score, _ = m.Scored()
		rec.ROIPct = m.ROIPct
		rec.WinRatePct, _ = m.WinRate()
		rec.MaxDrawdownPct = m.MaxDrawdownPct
	}
	return rec
}

func botName(record models.BacktestRecord) string {
	name := record.ScriptName
	if name == "" {
		name = record.Identity.BacktestID
	}
	return fmt.Sprintf("%s [%s]", name, record.Market)
}
