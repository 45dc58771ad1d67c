package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/cryptofolio/backend/src/logger"
	"github.com/username/cryptofolio/backend/src/models"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func newTestService(primaryURL, cmcURL, cmcKey, capiURL, capiKey string) *marketDataService {
	client := &http.Client{}
	return &marketDataService{
		primary:        &coingeckoClient{baseURL: primaryURL, httpClient: client},
		secondary:      &coinmarketcapClient{baseURL: cmcURL, apiKey: cmcKey, httpClient: client},
		tertiary:       &coinapiClient{baseURL: capiURL, apiKey: capiKey, httpClient: client},
		attemptTimeout: 2 * time.Second,
		retry:          RetryPolicy{MaxAttempts: 0, Delay: time.Millisecond},
		now:            time.Now,
	}
}

func jsonHandler(payload interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(payload)
	}
}

func TestListMarketsPrimaryPassthrough(t *testing.T) {
	rows := []models.MarketRow{
		{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", CurrentPrice: 50000, PriceChangePercentage24h: 1.2},
	}
	primary := httptest.NewServer(jsonHandler(rows))
	defer primary.Close()

	svc := newTestService(primary.URL, "", "", "", "")

	got, err := svc.ListMarkets(context.Background(), 1, 50)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rows[0], got[0])
}

func TestListMarketsFallsBackToCMC(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer primary.Close()

	cmc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-CMC_PRO_API_KEY"))
		jsonHandler(cmcListingsResponse{Data: []cmcCoin{
			{
				ID: 1, Name: "Bitcoin", Symbol: "BTC", Slug: "bitcoin",
				Quote: map[string]cmcQuoteUSD{"USD": {Price: 50000, MarketCap: 1e12, Volume24h: 3e10, PercentChange24h: 2.5}},
			},
		}})(w, r)
	}))
	defer cmc.Close()

	svc := newTestService(primary.URL, cmc.URL, "test-key", "", "")

	got, err := svc.ListMarkets(context.Background(), 1, 50)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "bitcoin", got[0].ID)
	assert.Equal(t, "btc", got[0].Symbol)
	assert.Equal(t, "https://s2.coinmarketcap.com/static/img/coins/64x64/1.png", got[0].Image)
	assert.InDelta(t, 50000, got[0].CurrentPrice, 1e-9)
	assert.InDelta(t, 2.5, got[0].PriceChangePercentage24h, 1e-9)
}

func TestMarketChartFallsBackToCoinAPI(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer primary.Close()

	capi := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "capi-key", r.Header.Get("X-CoinAPI-Key"))
		assert.Contains(t, r.URL.Path, "/ohlcv/BTC/USD/history")
		jsonHandler([]coinapiOHLCV{
			{TimePeriodStart: "2024-01-01T00:00:00Z", PriceClose: 100},
			{TimePeriodStart: "2024-01-02T00:00:00Z", PriceClose: 110},
			{TimePeriodStart: "2024-01-03T00:00:00Z", PriceClose: 105},
		})(w, r)
	}))
	defer capi.Close()

	// Secondary has no key, so the cascade skips it.
	svc := newTestService(primary.URL, "http://unused.invalid", "", capi.URL, "capi-key")

	series, err := svc.GetMarketChart(context.Background(), "btc", 7)
	require.NoError(t, err)
	require.Len(t, series.Prices, 3)

	for i := 1; i < len(series.Prices); i++ {
		assert.Greater(t, series.Prices[i][0], series.Prices[i-1][0])
	}
	assert.InDelta(t, 100, series.Prices[0][1], 1e-9)
}

func TestCascadeExhaustedSurfacesPrimaryClassification(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer primary.Close()

	svc := newTestService(primary.URL, "", "", "", "")

	_, err := svc.ListMarkets(context.Background(), 1, 50)
	require.Error(t, err)

	gwErr, ok := err.(*GatewayError)
	require.True(t, ok)
	assert.Equal(t, KindUpstreamError, gwErr.Kind)
	assert.Contains(t, gwErr.Message, "status 500")
}

func TestInvalidRequestClassification(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer primary.Close()

	svc := newTestService(primary.URL, "", "", "", "")

	_, err := svc.GetCoinDetail(context.Background(), "not-a-coin")
	require.Error(t, err)

	gwErr, ok := err.(*GatewayError)
	require.True(t, ok)
	assert.Equal(t, KindInvalidRequest, gwErr.Kind)
}

func TestRateLimitRetriesWholeCascade(t *testing.T) {
	var hits int32
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer primary.Close()

	svc := newTestService(primary.URL, "", "", "", "")
	svc.retry = RetryPolicy{MaxAttempts: 3, Delay: 5 * time.Millisecond}

	_, err := svc.ListMarkets(context.Background(), 1, 50)
	require.Error(t, err)

	gwErr, ok := err.(*GatewayError)
	require.True(t, ok)
	assert.Equal(t, KindRateLimited, gwErr.Kind)

	// Initial attempt plus three scheduled retries.
	assert.Equal(t, int32(4), atomic.LoadInt32(&hits))
}

func TestRateLimitRetrySucceedsOnSecondAttempt(t *testing.T) {
	var hits int32
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		jsonHandler([]models.MarketRow{{ID: "bitcoin"}})(w, r)
	}))
	defer primary.Close()

	svc := newTestService(primary.URL, "", "", "", "")
	svc.retry = RetryPolicy{MaxAttempts: 3, Delay: 5 * time.Millisecond}

	rows, err := svc.ListMarkets(context.Background(), 1, 50)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestSearchCoinsFiltersAndPropagates(t *testing.T) {
	primary := httptest.NewServer(jsonHandler([]models.MarketRow{
		{ID: "bitcoin", Name: "Bitcoin", Symbol: "btc", CurrentPrice: 50000},
		{ID: "ethereum", Name: "Ethereum", Symbol: "eth", CurrentPrice: 3000},
		{ID: "bitcoin-cash", Name: "Bitcoin Cash", Symbol: "bch", CurrentPrice: 400},
	}))
	defer primary.Close()

	svc := newTestService(primary.URL, "", "", "", "")

	results, err := svc.SearchCoins(context.Background(), "BITCOIN")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "bitcoin", results[0].ID)
	assert.Equal(t, "bitcoin-cash", results[1].ID)

	primary.Close()
	_, err = svc.SearchCoins(context.Background(), "bitcoin")
	require.Error(t, err)
	gwErr, ok := err.(*GatewayError)
	require.True(t, ok)
	assert.Equal(t, KindUpstreamError, gwErr.Kind)
}

func TestValidateCoinID(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.RawQuery, "ids=bitcoin") {
			jsonHandler([]models.MarketRow{{ID: "bitcoin"}})(w, r)
			return
		}
		jsonHandler([]models.MarketRow{})(w, r)
	}))
	defer primary.Close()

	svc := newTestService(primary.URL, "", "", "", "")

	assert.True(t, svc.ValidateCoinID(context.Background(), "bitcoin"))
	assert.False(t, svc.ValidateCoinID(context.Background(), "no-such-coin"))
}

func TestGetPriceQuotes(t *testing.T) {
	primary := httptest.NewServer(jsonHandler([]models.MarketRow{
		{ID: "bitcoin", CurrentPrice: 51432.76, PriceChangePercentage24h: 2.34},
		{ID: "ethereum", CurrentPrice: 2843.12, PriceChangePercentage24h: 1.87},
	}))
	defer primary.Close()

	svc := newTestService(primary.URL, "", "", "", "")

	quotes, err := svc.GetPriceQuotes(context.Background(), []string{"bitcoin", "ethereum", "missingcoin"})
	require.NoError(t, err)

	require.Contains(t, quotes, "bitcoin")
	assert.InDelta(t, 51432.76, quotes["bitcoin"].Current, 1e-9)
	assert.InDelta(t, 2.34, quotes["bitcoin"].Change24h, 1e-9)
	assert.NotContains(t, quotes, "missingcoin")
}

func TestGetPriceQuotesEmptyInput(t *testing.T) {
	svc := newTestService("http://unused.invalid", "", "", "", "")
	quotes, err := svc.GetPriceQuotes(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, quotes)
}
