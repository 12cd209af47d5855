package platform

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMarketFetcher struct {
	mock.Mock
}

func (m *MockMarketFetcher) GetMarkets(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func TestMarketCatalogSeed(t *testing.T) {
	catalog := NewMarketCatalog(time.Hour, time.Hour, nil)

	require.NoError(t, catalog.Seed([]string{"BINANCE_BTC_USDT_", "BYBIT_ETH_USDT_PERPETUAL"}))
	assert.True(t, catalog.Contains("BINANCE_BTC_USDT_"))
	assert.False(t, catalog.Contains("BINANCE_SOL_USDT_"))
	assert.Equal(t, 2, catalog.Count())

	err := catalog.Seed([]string{"btc-usdt"})
	assert.Error(t, err)
	assert.Equal(t, 2, catalog.Count())
}

func TestMarketCatalogRefreshUsesCache(t *testing.T) {
	ctx := context.Background()
	fetcher := new(MockMarketFetcher)
	fetcher.On("GetMarkets", ctx).Return([]string{"BINANCE_BTC_USDT_"}, nil).Once()

	catalog := NewMarketCatalog(time.Hour, time.Hour, nil)
	require.NoError(t, catalog.Refresh(ctx, fetcher))
	require.NoError(t, catalog.Refresh(ctx, fetcher))

	assert.True(t, catalog.Contains("BINANCE_BTC_USDT_"))
	hits, misses := catalog.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
	fetcher.AssertExpectations(t)
}

func TestMarketCatalogInvalidateForcesFetch(t *testing.T) {
	ctx := context.Background()
	fetcher := new(MockMarketFetcher)
	fetcher.On("GetMarkets", ctx).Return([]string{"BINANCE_BTC_USDT_"}, nil).Twice()

	catalog := NewMarketCatalog(time.Hour, time.Hour, nil)
	require.NoError(t, catalog.Refresh(ctx, fetcher))
	catalog.Invalidate()
	require.NoError(t, catalog.Refresh(ctx, fetcher))

	fetcher.AssertExpectations(t)
}

func TestMarketCatalogRefreshError(t *testing.T) {
	ctx := context.Background()
	fetcher := new(MockMarketFetcher)
	fetcher.On("GetMarkets", ctx).Return(nil, errors.New("platform down"))

	catalog := NewMarketCatalog(time.Hour, time.Hour, nil)
	err := catalog.Refresh(ctx, fetcher)
	assert.Error(t, err)
	assert.Equal(t, 0, catalog.Count())
}

func TestMarketCatalogFetchedMarketsExpire(t *testing.T) {
	ctx := context.Background()
	fetcher := new(MockMarketFetcher)
	fetcher.On("GetMarkets", ctx).Return([]string{"BINANCE_BTC_USDT_"}, nil)

	catalog := NewMarketCatalog(20*time.Millisecond, time.Hour, nil)
	require.NoError(t, catalog.Seed([]string{"BYBIT_ETH_USDT_PERPETUAL"}))
	require.NoError(t, catalog.Refresh(ctx, fetcher))
	assert.Equal(t, 2, catalog.Count())

	time.Sleep(40 * time.Millisecond)
	assert.False(t, catalog.Contains("BINANCE_BTC_USDT_"))
	assert.True(t, catalog.Contains("BYBIT_ETH_USDT_PERPETUAL"))
}

func TestMarketCatalogRefreshKeepsStaticMarkets(t *testing.T) {
	ctx := context.Background()
	fetcher := new(MockMarketFetcher)
	fetcher.On("GetMarkets", ctx).Return([]string{"BINANCE_BTC_USDT_", "BINANCE_ETH_USDT_"}, nil).Once()
	fetcher.On("GetMarkets", ctx).Return(nil, errors.New("platform down")).Once()

	catalog := NewMarketCatalog(20*time.Millisecond, time.Hour, nil)
	require.NoError(t, catalog.Seed([]string{"BINANCE_BTC_USDT_"}))
	require.NoError(t, catalog.Refresh(ctx, fetcher))
	assert.Equal(t, 2, catalog.Count())

	time.Sleep(40 * time.Millisecond)
	require.Error(t, catalog.Refresh(ctx, fetcher))

	assert.True(t, catalog.Contains("BINANCE_BTC_USDT_"))
	assert.False(t, catalog.Contains("BINANCE_ETH_USDT_"))
	assert.Equal(t, 1, catalog.Count())
	fetcher.AssertExpectations(t)
}

func TestMarketCatalogSnapshotIsStable(t *testing.T) {
	catalog := NewMarketCatalog(time.Hour, time.Hour, nil)
	require.NoError(t, catalog.Seed([]string{"BINANCE_BTC_USDT_"}))

	snapshot := catalog.Snapshot()
	require.NoError(t, catalog.Seed([]string{"BINANCE_ETH_USDT_"}))

	assert.Equal(t, 1, snapshot.Len())
	assert.True(t, snapshot.Contains("BINANCE_BTC_USDT_"))
	assert.False(t, snapshot.Contains("BINANCE_ETH_USDT_"))
	assert.False(t, snapshot.Contains(refreshedKey))
}
