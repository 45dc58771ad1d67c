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

// --- CoinAPI response structs ---

type coinapiAsset struct {
	AssetID      string  `json:"asset_id"`
	Name         string  `json:"name"`
	IDIcon       string  `json:"id_icon"`
	PriceUSD     float64 `json:"price_usd"`
	MarketCapUSD float64 `json:"market_cap_usd"`
	Volume1dUSD  float64 `json:"volume_1day_usd"`
}

type coinapiOHLCV struct {
	TimePeriodStart string  `json:"time_period_start"`
	PriceClose      float64 `json:"price_close"`
}

// coinapiClient is the tertiary provider. Asset-centric: ids are upper-cased
// symbols, and per-asset 24h change is not available.
type coinapiClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func (c *coinapiClient) configured() bool {
	return c.apiKey != ""
}

func (c *coinapiClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-CoinAPI-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call CoinAPI: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("coinapi returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode CoinAPI response: %w", err)
	}
	return nil
}

func (c *coinapiClient) assets(ctx context.Context) ([]coinapiAsset, error) {
	var out []coinapiAsset
	if err := c.get(ctx, "/assets", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *coinapiClient) assetByID(ctx context.Context, coinID string) (*coinapiAsset, error) {
	var out []coinapiAsset
	if err := c.get(ctx, "/assets/"+url.PathEscape(strings.ToUpper(coinID)), &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no asset data for %s", coinID)
	}
	return &out[0], nil
}

func (c *coinapiClient) ohlcvHistory(ctx context.Context, coinID string, days int) ([]coinapiOHLCV, error) {
	path := fmt.Sprintf("/ohlcv/%s/USD/history?period_id=1DAY&limit=%s",
		url.PathEscape(strings.ToUpper(coinID)), strconv.Itoa(days))

	var out []coinapiOHLCV
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// --- Transforms into the canonical shape ---

func coinapiIconURL(idIcon string, size int) string {
	if idIcon == "" {
		return ""
	}
	return fmt.Sprintf("https://s3.eu-central-1.amazonaws.com/bbxt-static-icons/type-id/png_%d/%s.png", size, idIcon)
}

func transformCoinAPIMarkets(assets []coinapiAsset) []models.MarketRow {
	rows := make([]models.MarketRow, 0, len(assets))
	for _, asset := range assets {
		// 24h change is not exposed per asset; approximate it from the
		// price/volume ratio the way the display layer always has.
		change := 0.0
		if asset.Volume1dUSD > 0 {
			change = ((asset.PriceUSD / asset.Volume1dUSD) * 100) - 100
		}
		rows = append(rows, models.MarketRow{
			ID:                       strings.ToLower(asset.AssetID),
			Symbol:                   strings.ToLower(asset.AssetID),
			Name:                     asset.Name,
			Image:                    coinapiIconURL(asset.IDIcon, 32),
			CurrentPrice:             asset.PriceUSD,
			MarketCap:                asset.MarketCapUSD,
			TotalVolume:              asset.Volume1dUSD,
			PriceChangePercentage24h: change,
		})
	}
	return rows
}

// transformCoinAPIChart maps OHLCV close prices into a series. Unlike the
// secondary provider this is real history.
func transformCoinAPIChart(points []coinapiOHLCV) (*models.ChartSeries, error) {
	series := &models.ChartSeries{Prices: make([]models.ChartPoint, 0, len(points))}
	for _, p := range points {
		ts, err := time.Parse(time.RFC3339, p.TimePeriodStart)
		if err != nil {
			return nil, fmt.Errorf("bad time_period_start %q: %w", p.TimePeriodStart, err)
		}
		series.Prices = append(series.Prices, models.ChartPoint{
			float64(ts.UnixMilli()),
			p.PriceClose,
		})
	}
	return series, nil
}

// transformCoinAPIDetail estimates the fields CoinAPI does not carry: high and
// low as ±5% of the current price, 24h change as zero, no description.
func transformCoinAPIDetail(asset *coinapiAsset) *models.CoinDetail {
	return &models.CoinDetail{
		Name:   asset.Name,
		Symbol: strings.ToLower(asset.AssetID),
		Image:  models.CoinImage{Large: coinapiIconURL(asset.IDIcon, 128)},
		MarketData: models.CoinMarketData{
			CurrentPrice:             models.USDValue{USD: asset.PriceUSD},
			High24h:                  models.USDValue{USD: asset.PriceUSD * 1.05},
			Low24h:                   models.USDValue{USD: asset.PriceUSD * 0.95},
			PriceChangePercentage24h: 0,
			MarketCap:                models.USDValue{USD: asset.MarketCapUSD},
			TotalVolume:              models.USDValue{USD: asset.Volume1dUSD},
			CirculatingSupply:        0,
			MaxSupply:                nil,
		},
		Description: models.CoinDescription{EN: ""},
	}
}
