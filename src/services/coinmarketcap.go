package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/username/cryptofolio/backend/src/models"
)

// --- CoinMarketCap API response structs ---

type cmcQuoteUSD struct {
	Price            float64 `json:"price"`
	MarketCap        float64 `json:"market_cap"`
	Volume24h        float64 `json:"volume_24h"`
	PercentChange24h float64 `json:"percent_change_24h"`
}

type cmcCoin struct {
	ID                int                    `json:"id"`
	Name              string                 `json:"name"`
	Symbol            string                 `json:"symbol"`
	Slug              string                 `json:"slug"`
	CirculatingSupply float64                `json:"circulating_supply"`
	MaxSupply         *float64               `json:"max_supply"`
	Description       string                 `json:"description"`
	Quote             map[string]cmcQuoteUSD `json:"quote"`
}

type cmcListingsResponse struct {
	Data []cmcCoin `json:"data"`
}

type cmcQuotesResponse struct {
	Data map[string]cmcCoin `json:"data"`
}

// coinmarketcapClient is the secondary provider. Configured reports whether
// an API key is present; without one the cascade skips this provider, as the
// endpoints reject unauthenticated calls anyway.
type coinmarketcapClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func (c *coinmarketcapClient) configured() bool {
	return c.apiKey != ""
}

func (c *coinmarketcapClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-CMC_PRO_API_KEY", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call CoinMarketCap API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("coinmarketcap API returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode CoinMarketCap response: %w", err)
	}
	return nil
}

func (c *coinmarketcapClient) listings(ctx context.Context, limit int) ([]cmcCoin, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	path := "/cryptocurrency/listings/latest"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var out cmcListingsResponse
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// quoteForSymbol resolves a single coin by symbol. Asset ids from the logical
// query are slugs; CoinMarketCap's quote endpoint keys on upper-cased symbols.
func (c *coinmarketcapClient) quoteForSymbol(ctx context.Context, coinID string) (*cmcCoin, error) {
	symbol := strings.ToUpper(coinID)
	var out cmcQuotesResponse
	if err := c.get(ctx, "/cryptocurrency/quotes/latest?symbol="+url.QueryEscape(symbol), &out); err != nil {
		return nil, err
	}
	for _, coin := range out.Data {
		return &coin, nil
	}
	return nil, fmt.Errorf("no quote data for symbol %s", symbol)
}

// --- Transforms into the canonical shape ---

// cmcImageURL builds the icon URL from CoinMarketCap's numeric id; the
// provider does not inline image links in its quote payloads.
func cmcImageURL(id, size int) string {
	return fmt.Sprintf("https://s2.coinmarketcap.com/static/img/coins/%dx%d/%d.png", size, size, id)
}

func transformCMCMarkets(coins []cmcCoin) []models.MarketRow {
	rows := make([]models.MarketRow, 0, len(coins))
	for _, coin := range coins {
		quote := coin.Quote["USD"]
		rows = append(rows, models.MarketRow{
			ID:                       coin.Slug,
			Symbol:                   strings.ToLower(coin.Symbol),
			Name:                     coin.Name,
			Image:                    cmcImageURL(coin.ID, 64),
			CurrentPrice:             quote.Price,
			MarketCap:                quote.MarketCap,
			TotalVolume:              quote.Volume24h,
			PriceChangePercentage24h: quote.PercentChange24h,
		})
	}
	return rows
}

// transformCMCChart synthesizes a 7-point daily series from the current price
// and the 24h change. CoinMarketCap's free tier has no historical endpoint,
// so this is an explicit linear approximation, not real history.
func transformCMCChart(coin *cmcCoin, now time.Time) *models.ChartSeries {
	quote := coin.Quote["USD"]
	change := quote.PercentChange24h / 100

	series := &models.ChartSeries{Prices: make([]models.ChartPoint, 0, 7)}
	for i := 0; i < 7; i++ {
		ts := now.Add(-time.Duration(6-i) * 24 * time.Hour)
		price := quote.Price * (1 - change*float64(6-i)/6)
		series.Prices = append(series.Prices, models.ChartPoint{
			float64(ts.UnixMilli()),
			price,
		})
	}
	return series
}

// transformCMCDetail maps the nested quote fields into a CoinDetail. High and
// low are estimated from the 24h change since the endpoint does not carry them.
func transformCMCDetail(coin *cmcCoin) *models.CoinDetail {
	quote := coin.Quote["USD"]
	change := quote.PercentChange24h / 100

	return &models.CoinDetail{
		Name:   coin.Name,
		Symbol: strings.ToLower(coin.Symbol),
		Image:  models.CoinImage{Large: cmcImageURL(coin.ID, 128)},
		MarketData: models.CoinMarketData{
			CurrentPrice:             models.USDValue{USD: quote.Price},
			High24h:                  models.USDValue{USD: quote.Price * (1 + change)},
			Low24h:                   models.USDValue{USD: quote.Price * (1 - change)},
			PriceChangePercentage24h: quote.PercentChange24h,
			MarketCap:                models.USDValue{USD: quote.MarketCap},
			TotalVolume:              models.USDValue{USD: quote.Volume24h},
			CirculatingSupply:        coin.CirculatingSupply,
			MaxSupply:                coin.MaxSupply,
		},
		Description: models.CoinDescription{EN: coin.Description},
	}
}
