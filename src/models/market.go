package models

// MarketRow is the canonical per-asset market snapshot. Its shape follows the
// primary provider's /coins/markets records; the fallback providers are
// translated into it.
type MarketRow struct {
	ID                       string  `json:"id"`
	Symbol                   string  `json:"symbol"`
	Name                     string  `json:"name"`
	Image                    string  `json:"image"`
	CurrentPrice             float64 `json:"current_price"`
	MarketCap                float64 `json:"market_cap"`
	TotalVolume              float64 `json:"total_volume"`
	PriceChangePercentage24h float64 `json:"price_change_percentage_24h"`
}

// CoinDetail is the canonical extended single-asset record, mirroring the
// primary provider's /coins/{id} response subset the UI consumes.
type CoinDetail struct {
	Name        string          `json:"name"`
	Symbol      string          `json:"symbol"`
	Image       CoinImage       `json:"image"`
	MarketData  CoinMarketData  `json:"market_data"`
	Description CoinDescription `json:"description"`
}

type CoinImage struct {
	Large string `json:"large"`
}

// USDValue wraps a single USD-denominated figure, matching the provider's
// per-currency nesting.
type USDValue struct {
	USD float64 `json:"usd"`
}

type CoinMarketData struct {
	CurrentPrice             USDValue `json:"current_price"`
	High24h                  USDValue `json:"high_24h"`
	Low24h                   USDValue `json:"low_24h"`
	PriceChangePercentage24h float64  `json:"price_change_percentage_24h"`
	MarketCap                USDValue `json:"market_cap"`
	TotalVolume              USDValue `json:"total_volume"`
	CirculatingSupply        float64  `json:"circulating_supply"`
	// MaxSupply is nil for uncapped assets.
	MaxSupply *float64 `json:"max_supply"`
}

type CoinDescription struct {
	EN string `json:"en"`
}

// ChartPoint is one (timestamp, price) pair. The wire form is a two-element
// array [timestamp_ms, price], as the primary provider emits it.
type ChartPoint [2]float64

// ChartSeries is an ordered price history for one asset. Timestamps are
// strictly increasing; a successful fetch has at least one point.
type ChartSeries struct {
	Prices []ChartPoint `json:"prices"`
}

// SearchResult is one row of the coin search helper.
type SearchResult struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Symbol       string  `json:"symbol"`
	CurrentPrice float64 `json:"current_price"`
}

// NewsItem is one aggregated news article, already sanitized for display.
type NewsItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	URL         string `json:"url"`
	PublishedOn int64  `json:"published_on"`
	ImageURL    string `json:"imageurl"`
	Source      string `json:"source"`
	Categories  string `json:"categories"`
}
