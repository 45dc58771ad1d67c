package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformCMCChartSynthesis(t *testing.T) {
	coin := &cmcCoin{
		ID: 1, Name: "Bitcoin", Symbol: "BTC", Slug: "bitcoin",
		Quote: map[string]cmcQuoteUSD{"USD": {Price: 50000, PercentChange24h: 6}},
	}
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	series := transformCMCChart(coin, now)
	require.Len(t, series.Prices, 7)

	// Last point is the current price at now.
	last := series.Prices[6]
	assert.InDelta(t, float64(now.UnixMilli()), last[0], 1)
	assert.InDelta(t, 50000, last[1], 1e-9)

	// First point is six days back, extrapolated linearly from the 24h change.
	first := series.Prices[0]
	assert.InDelta(t, float64(now.Add(-6*24*time.Hour).UnixMilli()), first[0], 1)
	assert.InDelta(t, 50000*(1-0.06), first[1], 1e-9)

	for i := 1; i < 7; i++ {
		assert.Greater(t, series.Prices[i][0], series.Prices[i-1][0])
	}
}

func TestTransformCMCDetailEstimates(t *testing.T) {
	maxSupply := 21000000.0
	coin := &cmcCoin{
		ID: 1, Name: "Bitcoin", Symbol: "BTC", Slug: "bitcoin",
		CirculatingSupply: 19000000,
		MaxSupply:         &maxSupply,
		Quote:             map[string]cmcQuoteUSD{"USD": {Price: 50000, MarketCap: 1e12, Volume24h: 3e10, PercentChange24h: 2}},
	}

	detail := transformCMCDetail(coin)

	assert.Equal(t, "Bitcoin", detail.Name)
	assert.Equal(t, "btc", detail.Symbol)
	assert.Equal(t, "https://s2.coinmarketcap.com/static/img/coins/128x128/1.png", detail.Image.Large)
	assert.InDelta(t, 50000*1.02, detail.MarketData.High24h.USD, 1e-9)
	assert.InDelta(t, 50000*0.98, detail.MarketData.Low24h.USD, 1e-9)
	require.NotNil(t, detail.MarketData.MaxSupply)
	assert.InDelta(t, 21000000, *detail.MarketData.MaxSupply, 1e-9)
}

func TestTransformCoinAPIMarketsChangeApproximation(t *testing.T) {
	assets := []coinapiAsset{
		{AssetID: "BTC", Name: "Bitcoin", IDIcon: "abc123", PriceUSD: 50000, MarketCapUSD: 1e12, Volume1dUSD: 3e10},
		{AssetID: "ZRO", Name: "ZeroVolume", PriceUSD: 10, Volume1dUSD: 0},
	}

	rows := transformCoinAPIMarkets(assets)
	require.Len(t, rows, 2)

	assert.Equal(t, "btc", rows[0].ID)
	assert.Equal(t, "btc", rows[0].Symbol)
	assert.Equal(t, "https://s3.eu-central-1.amazonaws.com/bbxt-static-icons/type-id/png_32/abc123.png", rows[0].Image)
	assert.InDelta(t, ((50000.0/3e10)*100)-100, rows[0].PriceChangePercentage24h, 1e-9)

	// Zero volume means no approximation is possible.
	assert.Zero(t, rows[1].PriceChangePercentage24h)
	assert.Empty(t, rows[1].Image)
}

func TestTransformCoinAPIDetailEstimates(t *testing.T) {
	asset := &coinapiAsset{AssetID: "BTC", Name: "Bitcoin", IDIcon: "abc123", PriceUSD: 50000, MarketCapUSD: 1e12, Volume1dUSD: 3e10}

	detail := transformCoinAPIDetail(asset)

	assert.Equal(t, "btc", detail.Symbol)
	assert.InDelta(t, 52500, detail.MarketData.High24h.USD, 1e-9)
	assert.InDelta(t, 47500, detail.MarketData.Low24h.USD, 1e-9)
	assert.Zero(t, detail.MarketData.PriceChangePercentage24h)
	assert.Empty(t, detail.Description.EN)
	assert.Equal(t, "https://s3.eu-central-1.amazonaws.com/bbxt-static-icons/type-id/png_128/abc123.png", detail.Image.Large)
}

func TestFallbackDataset(t *testing.T) {
	rows := FallbackMarketRows()
	require.Len(t, rows, 5)
	assert.Equal(t, "bitcoin", rows[0].ID)
	assert.InDelta(t, 51432.76, rows[0].CurrentPrice, 1e-9)

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	series := FallbackChartSeries(now)
	require.Len(t, series.Prices, 7)
	assert.InDelta(t, float64(now.UnixMilli()), series.Prices[6][0], 1)
	for i := 1; i < 7; i++ {
		assert.Greater(t, series.Prices[i][0], series.Prices[i-1][0])
	}

	detail, ok := FallbackCoinDetail("bitcoin")
	require.True(t, ok)
	assert.InDelta(t, 51432.76, detail.MarketData.CurrentPrice.USD, 1e-9)

	_, ok = FallbackCoinDetail("dogecoin")
	assert.False(t, ok)
}
