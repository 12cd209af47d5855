package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// RawResult is one backtest payload as delivered by the trading platform.
// Fields may be absent, null or carry the wrong type.
type RawResult map[string]interface{}

// Validity is the disposition of a normalized backtest.
type Validity string

const (
	ValidityValid     Validity = "VALID"
	ValidityZeroTrade Validity = "ZERO_TRADE"
	ValidityMalformed Validity = "MALFORMED"
)

// Identity is the composite key of a backtest within a lab.
type Identity struct {
	LabID      string `json:"lab_id"`
	BacktestID string `json:"backtest_id"`
}

// String returns "lab/backtest".
func (id Identity) String() string {
	return id.LabID + "/" + id.BacktestID
}

// Compare orders identities by lab then backtest.
func (id Identity) Compare(other Identity) int {
	if c := strings.Compare(id.LabID, other.LabID); c != 0 {
		return c
	}
	return strings.Compare(id.BacktestID, other.BacktestID)
}

// BacktestRecord is the canonical form of a backtest result. Records are
// passed by value and never modified once the normalizer returns them.
type BacktestRecord struct {
	Identity        Identity        `json:"identity"`
	Market          string          `json:"market"`
	ScriptName      string          `json:"script_name"`
	StartingBalance decimal.Decimal `json:"starting_balance"`
	RealizedProfit  decimal.Decimal `json:"realized_profit"`
	TradeCount      int             `json:"trade_count"`
	WinCount        int             `json:"win_count"`
	LossCount       int             `json:"loss_count"`
	GrossProfit     decimal.Decimal `json:"gross_profit"`
	GrossLoss       decimal.Decimal `json:"gross_loss"`
	MaxDrawdownPct  float64         `json:"max_drawdown_pct"`
	SharpeLikeRatio *float64        `json:"sharpe_like_ratio"`
	BalanceUnknown  bool            `json:"balance_unknown"`
	DrawdownUnknown bool            `json:"drawdown_unknown"`
	Validity        Validity        `json:"validity"`
	Reason          string          `json:"reason,omitempty"`
}

// Malformed builds a MALFORMED record carrying whatever identity and
// market information was recovered before the problem was found.
func Malformed(id Identity, market, scriptName, format string, args ...interface{}) BacktestRecord {
	return BacktestRecord{
		Identity:        id,
		Market:          market,
		ScriptName:      scriptName,
		StartingBalance: decimal.Zero,
		RealizedProfit:  decimal.Zero,
		GrossProfit:     decimal.Zero,
		GrossLoss:       decimal.Zero,
		Validity:        ValidityMalformed,
		Reason:          fmt.Sprintf(format, args...),
	}
}

// IsScorable reports whether a MetricSet may be built for the record.
func (r BacktestRecord) IsScorable() bool {
	return r.Validity != ValidityMalformed
}

// IsRankable reports whether the record takes part in ranking.
func (r BacktestRecord) IsRankable() bool {
	return r.Validity == ValidityValid
}
