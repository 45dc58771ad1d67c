package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/cryptofolio/backend/src/models"
)

func TestEnrichHoldingsAndStats(t *testing.T) {
	holdings := []models.HoldingLot{
		{ID: 1, CoinID: "bitcoin", Quantity: 0.5, PurchasePrice: 48000},
		{ID: 2, CoinID: "ethereum", Quantity: 3.2, PurchasePrice: 2500},
	}
	quotes := map[string]models.PriceQuote{
		"bitcoin":  {Current: 51432.76, Change24h: 2.34},
		"ethereum": {Current: 2843.12, Change24h: 1.87},
	}

	enriched := EnrichHoldings(holdings, quotes)
	require.Len(t, enriched, 2)

	assert.InDelta(t, 25716.38, enriched[0].TotalValue, 1e-9)
	assert.InDelta(t, 1716.38, enriched[0].ProfitLoss, 1e-9)
	assert.InDelta(t, 9097.984, enriched[1].TotalValue, 1e-9)
	assert.InDelta(t, 1097.984, enriched[1].ProfitLoss, 1e-9)

	stats := ComputePortfolioStats(enriched)

	assert.InDelta(t, 34814.364, stats.TotalValue, 1e-9)
	assert.InDelta(t, 2814.364, stats.TotalProfitLoss, 1e-9)

	totalCost := 48000*0.5 + 2500*3.2
	assert.InDelta(t, (34814.364-totalCost)/totalCost*100, stats.ProfitLossPercentage, 1e-9)

	wantDaily := (2.34*25716.38 + 1.87*9097.984) / 34814.364
	assert.InDelta(t, wantDaily, stats.DailyChange, 1e-9)

	assert.Equal(t, "bitcoin", stats.BestPerformer.Coin)
	assert.InDelta(t, 2.34, stats.BestPerformer.Change, 1e-9)
	assert.Equal(t, "ethereum", stats.WorstPerformer.Coin)
	assert.InDelta(t, 1.87, stats.WorstPerformer.Change, 1e-9)
}

func TestEnrichHoldingsMissingQuote(t *testing.T) {
	holdings := []models.HoldingLot{
		{ID: 1, CoinID: "obscurecoin", Quantity: 2, PurchasePrice: 100},
	}

	enriched := EnrichHoldings(holdings, map[string]models.PriceQuote{})
	require.Len(t, enriched, 1)

	assert.Zero(t, enriched[0].CurrentPrice)
	assert.Zero(t, enriched[0].TotalValue)
	assert.InDelta(t, -200, enriched[0].ProfitLoss, 1e-9)
}

func TestComputePortfolioStatsEmpty(t *testing.T) {
	stats := ComputePortfolioStats(nil)

	assert.Zero(t, stats.TotalValue)
	assert.Zero(t, stats.TotalProfitLoss)
	assert.Zero(t, stats.ProfitLossPercentage)
	assert.Zero(t, stats.DailyChange)
	assert.Empty(t, stats.BestPerformer.Coin)
	assert.Empty(t, stats.WorstPerformer.Coin)
}

func TestComputePortfolioStatsZeroCost(t *testing.T) {
	enriched := EnrichHoldings(
		[]models.HoldingLot{{CoinID: "bitcoin", Quantity: 1, PurchasePrice: 0}},
		map[string]models.PriceQuote{"bitcoin": {Current: 100, Change24h: 1}},
	)
	stats := ComputePortfolioStats(enriched)

	assert.InDelta(t, 100, stats.TotalValue, 1e-9)
	assert.Zero(t, stats.ProfitLossPercentage)
}

func TestPerformerTieBreakKeepsFirst(t *testing.T) {
	quotes := map[string]models.PriceQuote{
		"bitcoin":  {Current: 10, Change24h: 1.5},
		"ethereum": {Current: 10, Change24h: 1.5},
	}
	enriched := EnrichHoldings([]models.HoldingLot{
		{CoinID: "bitcoin", Quantity: 1, PurchasePrice: 1},
		{CoinID: "ethereum", Quantity: 1, PurchasePrice: 1},
	}, quotes)

	stats := ComputePortfolioStats(enriched)
	assert.Equal(t, "bitcoin", stats.BestPerformer.Coin)
	assert.Equal(t, "bitcoin", stats.WorstPerformer.Coin)
}

func TestComputePortfolioStatsIdempotent(t *testing.T) {
	quotes := map[string]models.PriceQuote{
		"bitcoin":  {Current: 51432.76, Change24h: 2.34},
		"ethereum": {Current: 2843.12, Change24h: -1.87},
	}
	enriched := EnrichHoldings([]models.HoldingLot{
		{CoinID: "bitcoin", Quantity: 0.5, PurchasePrice: 48000},
		{CoinID: "ethereum", Quantity: 3.2, PurchasePrice: 2500},
	}, quotes)

	first := ComputePortfolioStats(enriched)
	second := ComputePortfolioStats(enriched)
	assert.Equal(t, first, second)
}
