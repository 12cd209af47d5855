// Package normalizer turns raw platform backtest payloads into canonical
// backtest records. It never fails: structural problems are reported as
// MALFORMED records carrying a reason.
package normalizer

import (
	"github.com/shopspring/decimal"

	"github.com/yourusername/lab-ranker/internal/market"
	"github.com/yourusername/lab-ranker/internal/models"
)

var hundred = decimal.NewFromInt(100)

// MarketCatalog is the read-only exchange market list a normalizer may
// check tags against.
type MarketCatalog interface {
	Contains(tag string) bool
}

// Normalizer converts RawResult payloads into BacktestRecords. It holds no
// mutable state and is safe for concurrent use.
type Normalizer struct {
	catalog MarketCatalog
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithMarketCatalog makes tags unknown to catalog MALFORMED.
func WithMarketCatalog(catalog MarketCatalog) Option {
	return func(n *Normalizer) {
		n.catalog = catalog
	}
}

// New creates a normalizer.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize converts raw with a catalog-less normalizer.
func Normalize(raw models.RawResult) models.BacktestRecord {
	return New().Normalize(raw)
}

// Normalize converts one raw payload.
func (n *Normalizer) Normalize(raw models.RawResult) models.BacktestRecord {
	if raw == nil {
		return models.Malformed(models.Identity{}, "", "", "payload is not an object")
	}
	obj := map[string]interface{}(raw)

	var id models.Identity
	scriptName := ""
	if v, ok := lookup(obj, keysScriptName, true); ok {
		s, err := toText(v)
		if err != nil {
			return models.Malformed(id, "", "", "script_name: %v", err)
		}
		scriptName = s
	}

	labID, reason := requiredText(obj, keysLabID, "missing lab identifier", "lab_id")
	if reason != "" {
		return models.Malformed(id, "", scriptName, "%s", reason)
	}
	id.LabID = labID

	backtestID, reason := requiredText(obj, keysBacktestID, "missing backtest identifier", "backtest_id")
	if reason != "" {
		return models.Malformed(id, "", scriptName, "%s", reason)
	}
	id.BacktestID = backtestID

	rawMarket, reason := requiredText(obj, keysMarket, "missing market tag", "market_tag")
	if reason != "" {
		return models.Malformed(id, "", scriptName, "%s", reason)
	}
	tag, err := market.Normalize(rawMarket)
	if err != nil {
		return models.Malformed(id, rawMarket, scriptName, "market tag %q does not match %s format", rawMarket, market.Format)
	}
	marketTag := tag.String()
	if n.catalog != nil && !n.catalog.Contains(marketTag) {
		return models.Malformed(id, marketTag, scriptName, "market %s is not listed by the exchange catalog", marketTag)
	}

	record := models.BacktestRecord{
		Identity:        id,
		Market:          marketTag,
		ScriptName:      scriptName,
		StartingBalance: decimal.Zero,
		RealizedProfit:  decimal.Zero,
		GrossProfit:     decimal.Zero,
		GrossLoss:       decimal.Zero,
	}

	if v, ok := lookup(obj, keysStartingBalance, true); ok {
		balance, err := toDecimal(v)
		if err != nil {
			return models.Malformed(id, marketTag, scriptName, "starting_balance: %v", err)
		}
		if balance.IsNegative() {
			return models.Malformed(id, marketTag, scriptName, "starting_balance is negative")
		}
		record.StartingBalance = balance
	}
	// ROI has no base unless the balance is positive.
	record.BalanceUnknown = !record.StartingBalance.IsPositive()

	if v, ok := lookup(obj, keysRealizedProfit, true); ok {
		profit, err := toDecimal(v)
		if err != nil {
			return models.Malformed(id, marketTag, scriptName, "realized_profit: %v", err)
		}
		record.RealizedProfit = profit
	}

	drawdown, known, reason := readDrawdown(obj)
	if reason != "" {
		return models.Malformed(id, marketTag, scriptName, "%s", reason)
	}
	record.MaxDrawdownPct = drawdown
	record.DrawdownUnknown = !known

	if v, ok := lookup(obj, keysSharpe, true); ok {
		sharpe, err := toFloat(v)
		if err != nil {
			return models.Malformed(id, marketTag, scriptName, "sharpe_ratio: %v", err)
		}
		record.SharpeLikeRatio = &sharpe
	}

	stats, reason := readTradeStatistics(obj)
	if reason != "" {
		return models.Malformed(id, marketTag, scriptName, "%s", reason)
	}
	record.TradeCount = stats.total
	record.WinCount = stats.wins
	record.LossCount = stats.losses
	record.GrossProfit = stats.grossProfit
	record.GrossLoss = stats.grossLoss

	if record.TradeCount == 0 {
		record.Validity = models.ValidityZeroTrade
		record.SharpeLikeRatio = nil
	} else {
		record.Validity = models.ValidityValid
	}
	return record
}

func requiredText(obj map[string]interface{}, keys []string, missing, field string) (string, string) {
	v, ok := lookup(obj, keys, true)
	if !ok {
		return "", missing
	}
	s, err := toText(v)
	if err != nil {
		return "", field + ": " + err.Error()
	}
	if s == "" {
		return "", missing
	}
	return s, ""
}

// readDrawdown reconciles the percent and fraction forms to a percentage.
func readDrawdown(obj map[string]interface{}) (float64, bool, string) {
	if v, ok := lookup(obj, keysDrawdownPct, true); ok {
		d, err := toDecimal(v)
		if err != nil {
			return 0, false, "max_drawdown_pct: " + err.Error()
		}
		if d.IsNegative() {
			return 0, false, "max_drawdown_pct is negative"
		}
		return d.InexactFloat64(), true, ""
	}
	if v, ok := lookup(obj, keysDrawdownRatio, true); ok {
		d, err := toDecimal(v)
		if err != nil {
			return 0, false, "max_drawdown: " + err.Error()
		}
		if d.IsNegative() {
			return 0, false, "max_drawdown is negative"
		}
		return d.Mul(hundred).InexactFloat64(), true, ""
	}
	return 0, false, ""
}

type tradeStatistics struct {
	total       int
	wins        int
	losses      int
	grossProfit decimal.Decimal
	grossLoss   decimal.Decimal
}

// readTradeStatistics returns zero counters when the section is absent:
// the platform omits it for backtests that never traded.
func readTradeStatistics(obj map[string]interface{}) (tradeStatistics, string) {
	stats := tradeStatistics{grossProfit: decimal.Zero, grossLoss: decimal.Zero}

	v, ok := lookup(obj, keysTradeStats, true)
	if !ok {
		return stats, ""
	}
	section, ok := asObject(v)
	if !ok {
		return stats, "trade statistics section is not an object"
	}

	totalRaw, ok := lookup(section, keysTotalTrades, false)
	if !ok {
		return stats, "trade statistics section has no total_trades"
	}
	var err error
	if stats.total, err = toCount(totalRaw); err != nil {
		return stats, "total_trades: " + err.Error()
	}
	if w, ok := lookup(section, keysWinningTrades, false); ok {
		if stats.wins, err = toCount(w); err != nil {
			return stats, "winning_trades: " + err.Error()
		}
	}
	if l, ok := lookup(section, keysLosingTrades, false); ok {
		if stats.losses, err = toCount(l); err != nil {
			return stats, "losing_trades: " + err.Error()
		}
	}
	if stats.wins+stats.losses > stats.total {
		return stats, "winning_trades + losing_trades exceeds total_trades"
	}

	if gp, ok := lookup(section, keysGrossProfit, false); ok {
		d, err := toDecimal(gp)
		if err != nil {
			return stats, "gross_profit: " + err.Error()
		}
		if d.IsNegative() {
			return stats, "gross_profit is negative"
		}
		stats.grossProfit = d
	}
	// Some exports sign gross loss negatively; only the magnitude matters.
	if gl, ok := lookup(section, keysGrossLoss, false); ok {
		d, err := toDecimal(gl)
		if err != nil {
			return stats, "gross_loss: " + err.Error()
		}
		stats.grossLoss = d.Abs()
	}
	return stats, ""
}
