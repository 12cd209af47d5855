package normalizer

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/yourusername/lab-ranker/internal/models"
)

// Raw keys, snake_case first. Lookups also search the nested "settings"
// and "summary" objects after the top level.
var (
	keysLabID           = []string{"lab_id", "labId"}
	keysBacktestID      = []string{"backtest_id", "backtestId"}
	keysScriptName      = []string{"script_name", "scriptName"}
	keysMarket          = []string{"market_tag", "marketTag", "market"}
	keysStartingBalance = []string{"starting_balance", "startingBalance"}
	keysRealizedProfit  = []string{"realized_profit", "realizedProfit"}
	keysDrawdownPct     = []string{"max_drawdown_pct", "maxDrawdownPct"}
	keysDrawdownRatio   = []string{"max_drawdown", "maxDrawdown"}
	keysSharpe          = []string{"sharpe_ratio", "sharpeRatio"}
	keysTradeStats      = []string{"trade_statistics", "tradeStatistics"}

	keysTotalTrades   = []string{"total_trades", "totalTrades"}
	keysWinningTrades = []string{"winning_trades", "winningTrades"}
	keysLosingTrades  = []string{"losing_trades", "losingTrades"}
	keysGrossProfit   = []string{"gross_profit", "grossProfit"}
	keysGrossLoss     = []string{"gross_loss", "grossLoss"}

	nestedSections = []string{"settings", "summary"}
)

// lookup returns the first non-empty value stored under one of keys. Null
// values and blank strings count as absent.
func lookup(obj map[string]interface{}, keys []string, nested bool) (interface{}, bool) {
	for _, key := range keys {
		if v, ok := obj[key]; ok && !isBlank(v) {
			return v, true
		}
	}
	if !nested {
		return nil, false
	}
	for _, section := range nestedSections {
		child, ok := asObject(obj[section])
		if !ok {
			continue
		}
		if v, found := lookup(child, keys, false); found {
			return v, true
		}
	}
	return nil, false
}

func isBlank(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func asObject(v interface{}) (map[string]interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		return t, t != nil
	case models.RawResult:
		return t, t != nil
	default:
		return nil, false
	}
}

func toText(v interface{}) (string, error) {
	switch v.(type) {
	case map[string]interface{}, []interface{}:
		return "", fmt.Errorf("expected a scalar, got %T", v)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

func toDecimal(v interface{}) (decimal.Decimal, error) {
	switch t := v.(type) {
	case bool:
		return decimal.Zero, fmt.Errorf("expected a number, got boolean")
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return decimal.Zero, fmt.Errorf("expected a finite number, got %v", t)
		}
		return decimal.NewFromFloat(t), nil
	case json.Number:
		return decimal.NewFromString(t.String())
	}
	s, err := toText(v)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("expected a number, got %q", s)
	}
	return d, nil
}

func toCount(v interface{}) (int, error) {
	d, err := toDecimal(v)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("expected a whole number, got %s", d.String())
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("must not be negative, got %s", d.String())
	}
	if d.GreaterThan(decimal.NewFromInt(math.MaxInt32)) {
		return 0, fmt.Errorf("out of range: %s", d.String())
	}
	return int(d.IntPart()), nil
}

func toFloat(v interface{}) (float64, error) {
	d, err := toDecimal(v)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}
