package analysis

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/yourusername/lab-ranker/internal/models"
)

// EligibilityGates are the thresholds a ranked backtest must meet to be
// recommended. ROI is deliberately not among them.
type EligibilityGates struct {
	MinWinRatePct      float64 `mapstructure:"min_win_rate_pct" json:"min_win_rate_pct" validate:"gte=0,lte=100"`
	MinStartingBalance float64 `mapstructure:"min_starting_balance" json:"min_starting_balance" validate:"gte=0"`
	MinTrades          int     `mapstructure:"min_trades" json:"min_trades" validate:"gte=0"`
	MaxDrawdownPct     float64 `mapstructure:"max_drawdown_pct" json:"max_drawdown_pct" validate:"gte=0"`
}

// DefaultEligibilityGates returns win rate >= 50, balance >= 500,
// trades >= 3 and drawdown <= 5.
func DefaultEligibilityGates() EligibilityGates {
	return EligibilityGates{
		MinWinRatePct:      50,
		MinStartingBalance: 500,
		MinTrades:          3,
		MaxDrawdownPct:     5,
	}
}

// Validate checks the gate ranges.
func (g EligibilityGates) Validate() error {
	return validateStruct("eligibility", g)
}

// Eligible reports whether a VALID record and its metrics pass every gate.
func Eligible(record models.BacktestRecord, m models.MetricSet, gates EligibilityGates) bool {
	if !record.IsRankable() {
		return false
	}
	winRate, ok := m.WinRate()
	if !ok || winRate < gates.MinWinRatePct {
		return false
	}
	if record.StartingBalance.LessThan(decimal.NewFromFloat(gates.MinStartingBalance)) {
		return false
	}
	if record.TradeCount < gates.MinTrades {
		return false
	}
	return m.MaxDrawdownPct <= gates.MaxDrawdownPct
}

// Rank drops MALFORMED, ZERO_TRADE and unscored records and sorts the rest
// best first. The input slice is not modified.
func Rank(records []models.ScoredRecord) []models.ScoredRecord {
	ranked := make([]models.ScoredRecord, 0, len(records))
	for _, rec := range records {
		if !rec.Record.IsRankable() || rec.Metrics == nil {
			continue
		}
		if _, ok := rec.Metrics.Scored(); !ok {
			continue
		}
		ranked = append(ranked, rec)
	}

	sort.Slice(ranked, func(i, j int) bool {
		return Compare(ranked[i], ranked[j]) < 0
	})
	return ranked
}

// FilterEligible returns the ranked records passing gates, in rank order,
// with Eligible set.
func FilterEligible(ranked []models.ScoredRecord, gates EligibilityGates) []models.ScoredRecord {
	eligible := make([]models.ScoredRecord, 0, len(ranked))
	for _, rec := range ranked {
		if rec.Metrics == nil || !Eligible(rec.Record, *rec.Metrics, gates) {
			continue
		}
		rec.Eligible = true
		eligible = append(eligible, rec)
	}
	return eligible
}

// Compare orders two scored records: score desc, ROI desc, win rate desc
// with an undefined win rate last, drawdown asc, then identity asc. It
// returns a negative number when a ranks before b.
func Compare(a, b models.ScoredRecord) int {
	ma, mb := a.Metrics, b.Metrics
	sa, _ := ma.Scored()
	sb, _ := mb.Scored()
	if sa != sb {
		return descending(float64(sa), float64(sb))
	}
	if ma.ROIPct != mb.ROIPct {
		return descending(ma.ROIPct, mb.ROIPct)
	}
	wa, okA := ma.WinRate()
	wb, okB := mb.WinRate()
	switch {
	case okA && !okB:
		return -1
	case !okA && okB:
		return 1
	case okA && okB && wa != wb:
		return descending(wa, wb)
	}
	if ma.MaxDrawdownPct != mb.MaxDrawdownPct {
		if ma.MaxDrawdownPct < mb.MaxDrawdownPct {
			return -1
		}
		return 1
	}
	return a.Record.Identity.Compare(b.Record.Identity)
}

func descending(a, b float64) int {
	if a > b {
		return -1
	}
	return 1
}
