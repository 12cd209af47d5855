package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PositionMode is the bot position mode applied to every recommendation.
type PositionMode string

// MarginMode is the bot margin mode applied to every recommendation.
type MarginMode string

const (
	PositionModeHedge  PositionMode = "HEDGE"
	PositionModeOneWay PositionMode = "ONE_WAY"

	MarginModeCross    MarginMode = "CROSS"
	MarginModeIsolated MarginMode = "ISOLATED"
)

// Recommendation is a proposed bot deployment for one ranked backtest.
type Recommendation struct {
	ID             uuid.UUID       `json:"id"`
	Rank           int             `json:"rank"`
	Identity       Identity        `json:"identity"`
	BotName        string          `json:"bot_name"`
	ScriptName     string          `json:"script_name"`
	Market         string          `json:"market"`
	Score          int             `json:"score"`
	ROIPct         float64         `json:"roi_pct"`
	WinRatePct     float64         `json:"win_rate_pct"`
	MaxDrawdownPct float64         `json:"max_drawdown_pct"`
	AccountSize    decimal.Decimal `json:"account_size"`
	TradeAmount    decimal.Decimal `json:"trade_amount"`
	Leverage       float64         `json:"leverage"`
	PositionMode   PositionMode    `json:"position_mode"`
	MarginMode     MarginMode      `json:"margin_mode"`
}

// DroppedRecommendation is an eligible backtest left out of the proposal
// set by the capital policy.
type DroppedRecommendation struct {
	Identity        Identity        `json:"identity"`
	Rank            int             `json:"rank"`
	ProposedCapital decimal.Decimal `json:"proposed_capital"`
	Reason          string          `json:"reason"`
}

// RunSummary counts the outcome of an analysis run.
type RunSummary struct {
	Total            int             `json:"total"`
	Valid            int             `json:"valid"`
	ZeroTrade        int             `json:"zero_trade"`
	Malformed        int             `json:"malformed"`
	Eligible         int             `json:"eligible"`
	Recommended      int             `json:"recommended"`
	Dropped          int             `json:"dropped"`
	CapitalCommitted decimal.Decimal `json:"capital_committed"`
}

// Report is the output of one analysis run. Dispositions keep input order
// and contain every input exactly once.
type Report struct {
	RunID           uuid.UUID               `json:"run_id"`
	GeneratedAt     time.Time               `json:"generated_at"`
	Dispositions    []ScoredRecord          `json:"dispositions"`
	Ranked          []ScoredRecord          `json:"ranked"`
	Recommendations []Recommendation        `json:"recommendations"`
	Dropped         []DroppedRecommendation `json:"dropped"`
	Summary         RunSummary              `json:"summary"`
}
