package services

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/username/cryptofolio/backend/src/config"
	"github.com/username/cryptofolio/backend/src/logger"
	"github.com/username/cryptofolio/backend/src/models"
	"golang.org/x/net/publicsuffix"
)

// RetryPolicy bounds the client-scheduled retries that follow a RateLimited
// classification. The retries re-run the whole cascade and are independent of
// the one-attempt-per-provider rule inside it.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// marketDataService runs the provider cascade: primary (canonical shape) →
// secondary → tertiary, in fixed order, one attempt per provider per call,
// never in parallel. First success wins.
type marketDataService struct {
	primary   *coingeckoClient
	secondary *coinmarketcapClient
	tertiary  *coinapiClient

	attemptTimeout time.Duration
	retry          RetryPolicy
	now            func() time.Time
}

func NewMarketDataService() MarketDataService {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
	}

	// Per-attempt deadlines come from context, so the client itself carries
	// no timeout.
	client := &http.Client{Jar: jar}

	return &marketDataService{
		primary: &coingeckoClient{
			baseURL:    config.Cfg.CoinGeckoBaseURL,
			httpClient: client,
		},
		secondary: &coinmarketcapClient{
			baseURL:    config.Cfg.CoinMarketCapBaseURL,
			apiKey:     config.Cfg.CoinMarketCapAPIKey,
			httpClient: client,
		},
		tertiary: &coinapiClient{
			baseURL:    config.Cfg.CoinAPIBaseURL,
			apiKey:     config.Cfg.CoinAPIKey,
			httpClient: client,
		},
		attemptTimeout: config.Cfg.ProviderTimeout,
		retry: RetryPolicy{
			MaxAttempts: config.Cfg.RateLimitMaxRetries,
			Delay:       config.Cfg.RateLimitRetryDelay,
		},
		now: time.Now,
	}
}

// withRateLimitRetry re-runs a logical query while its classified failure is
// RateLimited, up to the policy's attempt budget, then surfaces the error.
func (s *marketDataService) withRateLimitRetry(ctx context.Context, query string, run func(context.Context) *GatewayError) error {
	gwErr := run(ctx)
	attempt := 0
	for gwErr != nil && gwErr.Kind == KindRateLimited && attempt < s.retry.MaxAttempts {
		attempt++
		logger.L.Warn("Primary provider rate limited, scheduling retry",
			"query", query, "attempt", attempt, "maxAttempts", s.retry.MaxAttempts, "delay", s.retry.Delay.String())
		select {
		case <-ctx.Done():
			return &GatewayError{Kind: KindUpstreamError, Message: "request cancelled while waiting to retry", Err: ctx.Err()}
		case <-time.After(s.retry.Delay):
		}
		gwErr = run(ctx)
	}
	if gwErr != nil {
		return gwErr
	}
	return nil
}

func (s *marketDataService) ListMarkets(ctx context.Context, page, perPage int) ([]models.MarketRow, error) {
	var rows []models.MarketRow
	err := s.withRateLimitRetry(ctx, "list-markets", func(ctx context.Context) *GatewayError {
		r, gwErr := s.listMarketsCascade(ctx, page, perPage, nil)
		if gwErr != nil {
			return gwErr
		}
		rows = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// listMarketsCascade tries each provider once. The classification surfaced on
// total failure always reflects the primary provider's failure; secondary and
// tertiary failures are absorbed.
func (s *marketDataService) listMarketsCascade(ctx context.Context, page, perPage int, ids []string) ([]models.MarketRow, *GatewayError) {
	actx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
	rows, status, err := s.primary.markets(actx, page, perPage, ids)
	cancel()
	if err == nil {
		return rows, nil
	}
	classified := classifyPrimaryFailure(status, err)
	logger.L.Warn("CoinGecko failed, trying CoinMarketCap", "error", err)

	if s.secondary.configured() {
		actx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
		coins, cmcErr := s.secondary.listings(actx, perPage)
		cancel()
		if cmcErr == nil {
			return filterRowsByID(transformCMCMarkets(coins), ids), nil
		}
		logger.L.Warn("CoinMarketCap failed, trying CoinAPI", "error", cmcErr)
	}

	if s.tertiary.configured() {
		actx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
		assets, capiErr := s.tertiary.assets(actx)
		cancel()
		if capiErr == nil {
			rows := filterRowsByID(transformCoinAPIMarkets(assets), ids)
			if len(rows) > perPage {
				rows = rows[:perPage]
			}
			return rows, nil
		}
		logger.L.Warn("CoinAPI failed, all providers exhausted", "error", capiErr)
	}

	return nil, classified
}

func (s *marketDataService) GetCoinDetail(ctx context.Context, coinID string) (*models.CoinDetail, error) {
	var detail *models.CoinDetail
	err := s.withRateLimitRetry(ctx, "coin-detail", func(ctx context.Context) *GatewayError {
		d, gwErr := s.coinDetailCascade(ctx, coinID)
		if gwErr != nil {
			return gwErr
		}
		detail = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *marketDataService) coinDetailCascade(ctx context.Context, coinID string) (*models.CoinDetail, *GatewayError) {
	actx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
	detail, status, err := s.primary.coinDetail(actx, coinID)
	cancel()
	if err == nil {
		return detail, nil
	}
	classified := classifyPrimaryFailure(status, err)
	logger.L.Warn("CoinGecko failed, trying CoinMarketCap", "coinID", coinID, "error", err)

	if s.secondary.configured() {
		actx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
		coin, cmcErr := s.secondary.quoteForSymbol(actx, coinID)
		cancel()
		if cmcErr == nil {
			return transformCMCDetail(coin), nil
		}
		logger.L.Warn("CoinMarketCap failed, trying CoinAPI", "coinID", coinID, "error", cmcErr)
	}

	if s.tertiary.configured() {
		actx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
		asset, capiErr := s.tertiary.assetByID(actx, coinID)
		cancel()
		if capiErr == nil {
			return transformCoinAPIDetail(asset), nil
		}
		logger.L.Warn("CoinAPI failed, all providers exhausted", "coinID", coinID, "error", capiErr)
	}

	return nil, classified
}

func (s *marketDataService) GetMarketChart(ctx context.Context, coinID string, days int) (*models.ChartSeries, error) {
	var series *models.ChartSeries
	err := s.withRateLimitRetry(ctx, "market-chart", func(ctx context.Context) *GatewayError {
		c, gwErr := s.marketChartCascade(ctx, coinID, days)
		if gwErr != nil {
			return gwErr
		}
		series = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return series, nil
}

func (s *marketDataService) marketChartCascade(ctx context.Context, coinID string, days int) (*models.ChartSeries, *GatewayError) {
	actx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
	series, status, err := s.primary.marketChart(actx, coinID, days)
	cancel()
	if err == nil {
		return series, nil
	}
	classified := classifyPrimaryFailure(status, err)
	logger.L.Warn("CoinGecko failed, trying CoinMarketCap", "coinID", coinID, "error", err)

	if s.secondary.configured() {
		actx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
		coin, cmcErr := s.secondary.quoteForSymbol(actx, coinID)
		cancel()
		if cmcErr == nil {
			// No historical endpoint on this provider; the series is a
			// linear approximation from the 24h change.
			return transformCMCChart(coin, s.now()), nil
		}
		logger.L.Warn("CoinMarketCap failed, trying CoinAPI", "coinID", coinID, "error", cmcErr)
	}

	if s.tertiary.configured() {
		actx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
		points, capiErr := s.tertiary.ohlcvHistory(actx, coinID, days)
		cancel()
		if capiErr == nil {
			chart, terr := transformCoinAPIChart(points)
			if terr == nil {
				return chart, nil
			}
			capiErr = terr
		}
		logger.L.Warn("CoinAPI failed, all providers exhausted", "coinID", coinID, "error", capiErr)
	}

	return nil, classified
}

// SearchCoins filters the primary provider's top markets locally. There is no
// cascade, no retry, and no mock fallback wired for search; failures
// propagate classified.
func (s *marketDataService) SearchCoins(ctx context.Context, term string) ([]models.SearchResult, error) {
	actx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
	rows, status, err := s.primary.markets(actx, 1, 20, nil)
	cancel()
	if err != nil {
		return nil, classifyPrimaryFailure(status, err)
	}

	lower := strings.ToLower(term)
	results := make([]models.SearchResult, 0)
	for _, row := range rows {
		if strings.Contains(strings.ToLower(row.Name), lower) ||
			strings.Contains(strings.ToLower(row.Symbol), lower) {
			results = append(results, models.SearchResult{
				ID:           row.ID,
				Name:         row.Name,
				Symbol:       row.Symbol,
				CurrentPrice: row.CurrentPrice,
			})
		}
	}
	return results, nil
}

func (s *marketDataService) ValidateCoinID(ctx context.Context, coinID string) bool {
	actx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
	defer cancel()
	rows, _, err := s.primary.markets(actx, 1, 1, []string{coinID})
	return err == nil && len(rows) > 0
}

func (s *marketDataService) GetPriceQuotes(ctx context.Context, coinIDs []string) (map[string]models.PriceQuote, error) {
	if len(coinIDs) == 0 {
		return map[string]models.PriceQuote{}, nil
	}

	var rows []models.MarketRow
	err := s.withRateLimitRetry(ctx, "price-quotes", func(ctx context.Context) *GatewayError {
		r, gwErr := s.listMarketsCascade(ctx, 1, len(coinIDs), coinIDs)
		if gwErr != nil {
			return gwErr
		}
		rows = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	quotes := make(map[string]models.PriceQuote, len(rows))
	for _, row := range rows {
		quotes[row.ID] = models.PriceQuote{
			Current:   row.CurrentPrice,
			Change24h: row.PriceChangePercentage24h,
		}
	}
	return quotes, nil
}

// filterRowsByID narrows a translated listing to the requested asset ids.
// The primary provider filters server-side; the fallbacks cannot.
func filterRowsByID(rows []models.MarketRow, ids []string) []models.MarketRow {
	if len(ids) == 0 {
		return rows
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	filtered := make([]models.MarketRow, 0, len(ids))
	for _, row := range rows {
		if wanted[row.ID] {
			filtered = append(filtered, row)
		}
	}
	return filtered
}
