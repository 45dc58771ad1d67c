package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/username/cryptofolio/backend/src/models"
)

// coingeckoClient is the primary provider. Its response shapes are the
// canonical shapes of this system, so everything decodes straight into the
// models package with no translation step.
type coingeckoClient struct {
	baseURL    string
	httpClient *http.Client
}

func (c *coingeckoClient) get(ctx context.Context, path string, out interface{}) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to call CoinGecko API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, fmt.Errorf("coingecko API returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode CoinGecko response: %w", err)
	}
	return resp.StatusCode, nil
}

// markets fetches /coins/markets. ids narrows the result to specific assets
// when non-empty.
func (c *coingeckoClient) markets(ctx context.Context, page, perPage int, ids []string) ([]models.MarketRow, int, error) {
	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("order", "market_cap_desc")
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("page", strconv.Itoa(page))
	params.Set("sparkline", "false")
	if len(ids) > 0 {
		params.Set("ids", strings.Join(ids, ","))
	}

	var rows []models.MarketRow
	status, err := c.get(ctx, "/coins/markets?"+params.Encode(), &rows)
	if err != nil {
		return nil, status, err
	}
	return rows, status, nil
}

func (c *coingeckoClient) coinDetail(ctx context.Context, coinID string) (*models.CoinDetail, int, error) {
	path := fmt.Sprintf("/coins/%s?localization=false&tickers=false&market_data=true&community_data=false&developer_data=false",
		url.PathEscape(coinID))

	var detail models.CoinDetail
	status, err := c.get(ctx, path, &detail)
	if err != nil {
		return nil, status, err
	}
	return &detail, status, nil
}

func (c *coingeckoClient) marketChart(ctx context.Context, coinID string, days int) (*models.ChartSeries, int, error) {
	path := fmt.Sprintf("/coins/%s/market_chart?vs_currency=usd&days=%d&interval=daily",
		url.PathEscape(coinID), days)

	var series models.ChartSeries
	status, err := c.get(ctx, path, &series)
	if err != nil {
		return nil, status, err
	}
	return &series, status, nil
}
