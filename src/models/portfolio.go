package models

// HoldingLot is one recorded purchase of an asset by a user. Lots are created
// and deleted, never mutated in place; an edit is a delete-and-recreate.
type HoldingLot struct {
	ID            int64   `json:"id"`
	CoinID        string  `json:"coinId"`
	Quantity      float64 `json:"amount"`
	PurchasePrice float64 `json:"purchasePrice"`
	PurchaseDate  string  `json:"purchaseDate"`
}

// PriceQuote is the live price snapshot used to value a holding.
type PriceQuote struct {
	Current   float64 `json:"current"`
	Change24h float64 `json:"change24h"`
}

// EnrichedHolding is a HoldingLot joined with a live price snapshot. It is
// derived on every view and never persisted.
type EnrichedHolding struct {
	HoldingLot
	CurrentPrice   float64 `json:"current_price"`
	PriceChange24h float64 `json:"price_change_24h"`
	TotalValue     float64 `json:"total_value"`
	ProfitLoss     float64 `json:"profit_loss"`
}

// PerformerStat names the holding with the extreme 24h change.
type PerformerStat struct {
	Coin   string  `json:"coin"`
	Change float64 `json:"change"`
}

// PortfolioStats is the aggregate over all enriched holdings of one user,
// recomputed from scratch on each load.
type PortfolioStats struct {
	TotalValue           float64       `json:"totalValue"`
	TotalProfitLoss      float64       `json:"totalProfitLoss"`
	ProfitLossPercentage float64       `json:"profitLossPercentage"`
	DailyChange          float64       `json:"dailyChange"`
	BestPerformer        PerformerStat `json:"bestPerformer"`
	WorstPerformer       PerformerStat `json:"worstPerformer"`
}

// PriceAlert is a user-defined threshold watch on one asset.
type PriceAlert struct {
	ID        int64   `json:"id"`
	UserID    int64   `json:"user_id"`
	CoinID    string  `json:"coin_id"`
	Price     float64 `json:"price"`
	Condition string  `json:"condition"` // "above" or "below"
	CreatedAt string  `json:"created_at"`
}
