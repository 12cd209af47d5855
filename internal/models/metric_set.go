package models

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// profitFactorKind distinguishes the three states a profit factor can be in.
type profitFactorKind int

const (
	profitFactorUndefined profitFactorKind = iota
	profitFactorFinite
	profitFactorInfinite
)

const infiniteProfitFactor = "infinite"

// ProfitFactor is gross profit over gross loss. It is undefined when both
// are zero and infinite when only the loss is zero.
type ProfitFactor struct {
	kind  profitFactorKind
	value float64
}

// UndefinedProfitFactor returns the "no trades won or lost" state.
func UndefinedProfitFactor() ProfitFactor {
	return ProfitFactor{kind: profitFactorUndefined}
}

// InfiniteProfitFactor returns the "no losing trades" sentinel.
func InfiniteProfitFactor() ProfitFactor {
	return ProfitFactor{kind: profitFactorInfinite}
}

// FiniteProfitFactor wraps a computed ratio.
func FiniteProfitFactor(v float64) ProfitFactor {
	return ProfitFactor{kind: profitFactorFinite, value: v}
}

// IsDefined reports whether the factor is finite or infinite.
func (p ProfitFactor) IsDefined() bool { return p.kind != profitFactorUndefined }

// IsInfinite reports whether the factor is the infinite sentinel.
func (p ProfitFactor) IsInfinite() bool { return p.kind == profitFactorInfinite }

// Value returns the finite value and true, or 0 and false.
func (p ProfitFactor) Value() (float64, bool) {
	if p.kind != profitFactorFinite {
		return 0, false
	}
	return p.value, true
}

// Exceeds reports whether the factor is strictly greater than threshold.
// The infinite sentinel exceeds every threshold; undefined exceeds none.
func (p ProfitFactor) Exceeds(threshold float64) bool {
	switch p.kind {
	case profitFactorInfinite:
		return true
	case profitFactorFinite:
		return p.value > threshold
	default:
		return false
	}
}

// String formats the factor for reports.
func (p ProfitFactor) String() string {
	switch p.kind {
	case profitFactorInfinite:
		return infiniteProfitFactor
	case profitFactorFinite:
		return strconv.FormatFloat(p.value, 'f', 2, 64)
	default:
		return "n/a"
	}
}

// MarshalJSON encodes undefined as null and infinite as "infinite".
func (p ProfitFactor) MarshalJSON() ([]byte, error) {
	switch p.kind {
	case profitFactorInfinite:
		return json.Marshal(infiniteProfitFactor)
	case profitFactorFinite:
		return json.Marshal(p.value)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (p *ProfitFactor) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = UndefinedProfitFactor()
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != infiniteProfitFactor {
			return fmt.Errorf("unknown profit factor %q", s)
		}
		*p = InfiniteProfitFactor()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid profit factor: %w", err)
	}
	*p = FiniteProfitFactor(v)
	return nil
}

// Classification labels a scored backtest on two independent axes.
type Classification struct {
	HighQuality bool `json:"high_quality"`
	HighRisk    bool `json:"high_risk"`
}

// Labels returns the human readable labels that apply.
func (c Classification) Labels() []string {
	labels := make([]string, 0, 2)
	if c.HighQuality {
		labels = append(labels, "high quality")
	}
	if c.HighRisk {
		labels = append(labels, "high risk")
	}
	return labels
}

// String joins the labels, or returns "standard" when none apply.
func (c Classification) String() string {
	labels := c.Labels()
	switch len(labels) {
	case 0:
		return "standard"
	case 1:
		return labels[0]
	default:
		return labels[0] + ", " + labels[1]
	}
}

// MetricSet holds the metrics derived from one non-malformed record.
type MetricSet struct {
	Identity        Identity        `json:"identity"`
	ROIPct          float64         `json:"roi_pct"`
	WinRatePct      *float64        `json:"win_rate_pct"`
	ProfitFactor    ProfitFactor    `json:"profit_factor"`
	MaxDrawdownPct  float64         `json:"max_drawdown_pct"`
	SharpeLikeRatio *float64        `json:"sharpe_like_ratio"`
	RealizedProfit  decimal.Decimal `json:"realized_profit"`
	BalanceUnknown  bool            `json:"balance_unknown"`
	DrawdownUnknown bool            `json:"drawdown_unknown"`
	Score           *int            `json:"score"`
	Classification  Classification  `json:"classification"`
}

// Scored returns the score and whether the set was scored. Only VALID
// records are scored; zero-trade sets keep an undefined score.
func (m MetricSet) Scored() (int, bool) {
	if m.Score == nil {
		return 0, false
	}
	return *m.Score, true
}

// WithScore returns a copy of m carrying score and classification.
func (m MetricSet) WithScore(score int, class Classification) MetricSet {
	m.Score = &score
	m.Classification = class
	return m
}

// WinRate returns the win rate and whether it is defined.
func (m MetricSet) WinRate() (float64, bool) {
	if m.WinRatePct == nil {
		return 0, false
	}
	return *m.WinRatePct, true
}

// ScoredRecord is the disposition of one input: the record and, unless it
// is malformed, its metrics.
type ScoredRecord struct {
	Record   BacktestRecord `json:"record"`
	Metrics  *MetricSet     `json:"metrics,omitempty"`
	Eligible bool           `json:"eligible"`
}
