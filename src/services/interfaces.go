package services

import (
	"context"

	"github.com/username/cryptofolio/backend/src/models"
)

// MarketDataService is the logical query surface over the provider cascade.
// All methods issue at most one attempt per configured provider, in fixed
// order, and surface a *GatewayError once the cascade is exhausted.
type MarketDataService interface {
	ListMarkets(ctx context.Context, page, perPage int) ([]models.MarketRow, error)
	GetCoinDetail(ctx context.Context, coinID string) (*models.CoinDetail, error)
	GetMarketChart(ctx context.Context, coinID string, days int) (*models.ChartSeries, error)

	// SearchCoins queries the primary provider only and propagates failures;
	// there is no fallback wired for search.
	SearchCoins(ctx context.Context, term string) ([]models.SearchResult, error)

	// ValidateCoinID reports whether the primary provider knows the asset id.
	// Any failure counts as "unknown".
	ValidateCoinID(ctx context.Context, coinID string) bool

	// GetPriceQuotes resolves live prices for a set of asset ids through the
	// cascade. Assets the providers do not return are absent from the map.
	GetPriceQuotes(ctx context.Context, coinIDs []string) (map[string]models.PriceQuote, error)
}

// NewsService aggregates crypto news feeds through the RSS-to-JSON proxy.
type NewsService interface {
	GetNews(ctx context.Context) ([]models.NewsItem, error)
}
