package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHTTPConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:           2 * time.Second,
		MaxRetries:        0,
		RetryWaitMin:      time.Millisecond,
		RetryWaitMax:      time.Millisecond,
		RateLimit:         1000,
		Burst:             100,
		CircuitBreakerMax: 3,
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientConfig{
		BaseURL:   server.URL,
		APIKey:    "key-123",
		APISecret: "secret-456",
		PageSize:  2,
		HTTP:      testHTTPConfig(),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(ClientConfig{}, nil)
	assert.Error(t, err)
}

func TestGetLabBacktestsSendsCredentials(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/labs/lab-1/backtests", r.URL.Path)
		assert.Equal(t, "key-123", r.Header.Get(headerAPIKey))
		assert.Equal(t, "secret-456", r.Header.Get(headerAPISecret))
		assert.Equal(t, "0", r.URL.Query().Get("page"))
		assert.Equal(t, "2", r.URL.Query().Get("page_size"))
		fmt.Fprint(w, `{"Success":true,"Error":"","Data":{"I":[{"backtest_id":"bt-1","realized_profit":1680.5}],"NP":-1}}`)
	})

	page, err := client.GetLabBacktests(context.Background(), "lab-1", 0, 0)
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, NoNextPage, page.NextPage)
	assert.Equal(t, "lab-1", page.Results[0]["lab_id"])
	assert.Equal(t, "1680.5", fmt.Sprint(page.Results[0]["realized_profit"]))
}

func TestGetLabBacktestsKeepsExistingLabID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Success":true,"Data":[{"labId":"other","backtest_id":"bt-1"},null]}`)
	})

	page, err := client.GetLabBacktests(context.Background(), "lab-1", 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Results, 2)
	_, injected := page.Results[0]["lab_id"]
	assert.False(t, injected)
	assert.Equal(t, "other", page.Results[0]["labId"])
	assert.Nil(t, page.Results[1])
	assert.Equal(t, NoNextPage, page.NextPage)
}

func TestGetAllLabBacktestsFollowsPages(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		switch r.URL.Query().Get("page") {
		case "0":
			fmt.Fprint(w, `{"Success":true,"Data":{"I":[{"backtest_id":"bt-1"},{"backtest_id":"bt-2"}],"NP":1}}`)
		case "1":
			fmt.Fprint(w, `{"Success":true,"Data":{"I":[{"backtest_id":"bt-3"}],"NP":-1}}`)
		default:
			t.Errorf("unexpected page %s", r.URL.Query().Get("page"))
		}
	})

	results, err := client.GetAllLabBacktests(context.Background(), "lab-1")
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "bt-3", results[2]["backtest_id"])
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetLabBacktestsEnvelopeFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Success":false,"Error":"lab not found","Data":null}`)
	})

	_, err := client.GetLabBacktests(context.Background(), "missing", 0, 10)
	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "lab not found", apiErr.Message)
}

func TestGetLabBacktestsInvalidJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	})

	_, err := client.GetLabBacktests(context.Background(), "lab-1", 0, 10)
	assert.ErrorIs(t, err, ErrMalformedEnvelope)
}

func TestGetLabBacktestsHTTPStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"Success":false,"Error":"bad key"}`)
	})

	_, err := client.GetLabBacktests(context.Background(), "lab-1", 0, 10)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestGetMarketsNormalizesTags(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/markets", r.URL.Path)
		fmt.Fprint(w, `{"Success":true,"Data":["BINANCE_BTC_USDT_",{"market_tag":"binance_eth_usdt"},{"tag":"garbage"},"bınance_btc_usdt_"]}`)
	})

	tags, err := client.GetMarkets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"BINANCE_BTC_USDT_", "BINANCE_ETH_USDT_"}, tags)
}

func TestCircuitBreakerOpensAfterServerErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	for i := 0; i < 3; i++ {
		_, err := client.GetMarkets(context.Background())
		require.Error(t, err)
	}
	assert.True(t, client.http.IsOpen())

	_, err := client.GetMarkets(context.Background())
	assert.ErrorIs(t, err, ErrCircuitOpen)

	client.http.Reset()
	assert.False(t, client.http.IsOpen())
}
