package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestMarketCommands(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{name: "normalize", args: []string{"market", "normalize", " binance_btc_usdt "}, want: "BINANCE_BTC_USDT_\n"},
		{name: "normalize contract", args: []string{"market", "normalize", "bybit_eth_usdt_perpetual"}, want: "BYBIT_ETH_USDT_PERPETUAL\n"},
		{name: "normalize invalid", args: []string{"market", "normalize", "btc-usdt"}, wantErr: true},
		{name: "validate canonical", args: []string{"market", "validate", "BINANCE_BTC_USDT_"}, want: "BINANCE_BTC_USDT_ is canonical\n"},
		{name: "validate missing underscore", args: []string{"market", "validate", "BINANCE_BTC_USDT"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "lab-ranker dev")
}

func TestAnalyzeWithoutInputs(t *testing.T) {
	_, err := execute(t, "--config", "does-not-exist.yaml", "analyze", "--output-dir", t.TempDir())
	assert.ErrorContains(t, err, "nothing to analyze")
}
