package services

import "github.com/username/cryptofolio/backend/src/models"

// EnrichHoldings joins each holding lot with its live quote. A lot whose asset
// has no quote is valued at zero, which leaves its full cost basis showing as
// unrealized loss until a price comes back.
func EnrichHoldings(holdings []models.HoldingLot, quotes map[string]models.PriceQuote) []models.EnrichedHolding {
	enriched := make([]models.EnrichedHolding, 0, len(holdings))
	for _, lot := range holdings {
		quote := quotes[lot.CoinID]
		enriched = append(enriched, models.EnrichedHolding{
			HoldingLot:     lot,
			CurrentPrice:   quote.Current,
			PriceChange24h: quote.Change24h,
			TotalValue:     quote.Current * lot.Quantity,
			ProfitLoss:     (quote.Current - lot.PurchasePrice) * lot.Quantity,
		})
	}
	return enriched
}

// ComputePortfolioStats aggregates enriched holdings into the portfolio
// summary. It is a pure fold over its input: same holdings in, same stats out.
func ComputePortfolioStats(enriched []models.EnrichedHolding) models.PortfolioStats {
	var stats models.PortfolioStats
	if len(enriched) == 0 {
		return stats
	}

	var totalCost float64
	best := models.PerformerStat{Coin: enriched[0].CoinID, Change: enriched[0].PriceChange24h}
	worst := best

	for _, h := range enriched {
		stats.TotalValue += h.TotalValue
		stats.TotalProfitLoss += h.ProfitLoss
		totalCost += h.PurchasePrice * h.Quantity

		// Strict comparisons keep the first occurrence on ties.
		if h.PriceChange24h > best.Change {
			best = models.PerformerStat{Coin: h.CoinID, Change: h.PriceChange24h}
		}
		if h.PriceChange24h < worst.Change {
			worst = models.PerformerStat{Coin: h.CoinID, Change: h.PriceChange24h}
		}
	}

	if totalCost > 0 {
		stats.ProfitLossPercentage = (stats.TotalValue - totalCost) / totalCost * 100
	}

	if stats.TotalValue > 0 {
		var weighted float64
		for _, h := range enriched {
			weighted += h.PriceChange24h * h.TotalValue
		}
		stats.DailyChange = weighted / stats.TotalValue
	}

	stats.BestPerformer = best
	stats.WorstPerformer = worst
	return stats
}
