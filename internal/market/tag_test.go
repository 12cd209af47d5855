package market

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		contract string
	}{
		{name: "lowercase with trailing underscore", input: "binance_btc_usdt_", expected: "BINANCE_BTC_USDT_"},
		{name: "missing trailing underscore", input: "Binance_BTC_USDT", expected: "BINANCE_BTC_USDT_"},
		{name: "already canonical", input: "KRAKEN_ETH_EUR_", expected: "KRAKEN_ETH_EUR_"},
		{name: "surrounding whitespace", input: "  bybit_sol_usdt_ ", expected: "BYBIT_SOL_USDT_"},
		{name: "contract qualifier", input: "binancefutures_btc_usdt_perpetual", expected: "BINANCEFUTURES_BTC_USDT_PERPETUAL", contract: "PERPETUAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag, err := Normalize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, tag.String())
			assert.Equal(t, tt.contract, tag.Contract)
			assert.True(t, IsCanonical(tag.String()))
		})
	}
}

func TestNormalizeRejectsBadTags(t *testing.T) {
	inputs := []string{
		"",
		"BINANCE",
		"BINANCE_BTC",
		"BINANCE__USDT_",
		"BINANCE_BTC_USDT_PERP_EXTRA",
		"BINANCE_BTC-USD_T_",
		"BINANCE_BTC_ÜSDT_",
		"_BTC_USDT_",
		"bınance_btc_usdt_",
		"ſpot_btc_usdt_",
		"BINANCE_BTC_USDT_\u212a",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := Normalize(input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidTag))
		})
	}
}

func TestValidateIsStrict(t *testing.T) {
	assert.NoError(t, Validate("BINANCE_BTC_USDT_"))
	assert.NoError(t, Validate("BINANCEFUTURES_BTC_USDT_PERPETUAL"))
	assert.Error(t, Validate("binance_btc_usdt_"))
	assert.Error(t, Validate("BINANCE_BTC_USDT"))
}

func TestParse(t *testing.T) {
	tag, err := Parse("BYBIT_ETH_USDT_")
	require.NoError(t, err)
	assert.Equal(t, "BYBIT", tag.Exchange)
	assert.Equal(t, "ETH", tag.Primary)
	assert.Equal(t, "USDT", tag.Secondary)
	assert.False(t, tag.IsContract())

	_, err = Parse("bybit_eth_usdt_")
	assert.Error(t, err)
}
