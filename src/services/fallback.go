package services

import (
	"time"

	"github.com/username/cryptofolio/backend/src/models"
)

// Static offline dataset, served when every provider in the cascade has
// failed and the call site has a fallback wired. The figures are a fixed
// snapshot of well-known assets; they are intentionally stable so the UI can
// render something recognizable while offline.

func float64Ptr(v float64) *float64 { return &v }

// FallbackMarketRows returns the offline market listing.
func FallbackMarketRows() []models.MarketRow {
	return []models.MarketRow{
		{
			ID:                       "bitcoin",
			Symbol:                   "btc",
			Name:                     "Bitcoin",
			Image:                    "https://assets.coingecko.com/coins/images/1/large/bitcoin.png",
			CurrentPrice:             51432.76,
			MarketCap:                1008394823754,
			TotalVolume:              28394726354,
			PriceChangePercentage24h: 2.34,
		},
		{
			ID:                       "ethereum",
			Symbol:                   "eth",
			Name:                     "Ethereum",
			Image:                    "https://assets.coingecko.com/coins/images/279/large/ethereum.png",
			CurrentPrice:             2843.12,
			MarketCap:                341283746123,
			TotalVolume:              15372648293,
			PriceChangePercentage24h: 1.87,
		},
		{
			ID:                       "cardano",
			Symbol:                   "ada",
			Name:                     "Cardano",
			Image:                    "https://assets.coingecko.com/coins/images/975/large/cardano.png",
			CurrentPrice:             0.54,
			MarketCap:                19283746123,
			TotalVolume:              1372648293,
			PriceChangePercentage24h: -0.87,
		},
		{
			ID:                       "solana",
			Symbol:                   "sol",
			Name:                     "Solana",
			Image:                    "https://assets.coingecko.com/coins/images/4128/large/solana.png",
			CurrentPrice:             143.21,
			MarketCap:                61283746123,
			TotalVolume:              5372648293,
			PriceChangePercentage24h: 3.45,
		},
		{
			ID:                       "polkadot",
			Symbol:                   "dot",
			Name:                     "Polkadot",
			Image:                    "https://assets.coingecko.com/coins/images/12171/large/polkadot.png",
			CurrentPrice:             7.32,
			MarketCap:                9283746123,
			TotalVolume:              872648293,
			PriceChangePercentage24h: -1.23,
		},
	}
}

// fallbackChartPrices is a fixed 7-day price walk used for every asset in
// offline mode.
var fallbackChartPrices = []float64{50123.45, 51234.56, 49876.54, 52345.67, 53456.78, 51234.56, 51432.76}

// FallbackChartSeries returns the offline 7-day chart, with daily timestamps
// ending at now.
func FallbackChartSeries(now time.Time) *models.ChartSeries {
	series := &models.ChartSeries{Prices: make([]models.ChartPoint, 0, len(fallbackChartPrices))}
	n := len(fallbackChartPrices)
	for i, price := range fallbackChartPrices {
		ts := now.Add(-time.Duration(n-1-i) * 24 * time.Hour)
		series.Prices = append(series.Prices, models.ChartPoint{float64(ts.UnixMilli()), price})
	}
	return series
}

// FallbackCoinDetail returns the offline detail record for the assets the
// fixed dataset covers. The second return is false for any other asset; those
// call sites propagate the gateway failure instead.
func FallbackCoinDetail(coinID string) (*models.CoinDetail, bool) {
	switch coinID {
	case "bitcoin":
		return &models.CoinDetail{
			Name:   "Bitcoin",
			Symbol: "btc",
			Image:  models.CoinImage{Large: "https://assets.coingecko.com/coins/images/1/large/bitcoin.png"},
			MarketData: models.CoinMarketData{
				CurrentPrice:             models.USDValue{USD: 51432.76},
				High24h:                  models.USDValue{USD: 52345.67},
				Low24h:                   models.USDValue{USD: 50123.45},
				PriceChangePercentage24h: 2.34,
				MarketCap:                models.USDValue{USD: 1008394823754},
				TotalVolume:              models.USDValue{USD: 28394726354},
				CirculatingSupply:        19384625,
				MaxSupply:                float64Ptr(21000000),
			},
			Description: models.CoinDescription{EN: "Bitcoin is the first successful internet money based on peer-to-peer technology; whereby no central bank or authority is involved in the transaction and production of the Bitcoin currency."},
		}, true
	case "ethereum":
		return &models.CoinDetail{
			Name:   "Ethereum",
			Symbol: "eth",
			Image:  models.CoinImage{Large: "https://assets.coingecko.com/coins/images/279/large/ethereum.png"},
			MarketData: models.CoinMarketData{
				CurrentPrice:             models.USDValue{USD: 2843.12},
				High24h:                  models.USDValue{USD: 2900.45},
				Low24h:                   models.USDValue{USD: 2800.32},
				PriceChangePercentage24h: 1.87,
				MarketCap:                models.USDValue{USD: 341283746123},
				TotalVolume:              models.USDValue{USD: 15372648293},
				CirculatingSupply:        120123745,
				MaxSupply:                nil,
			},
			Description: models.CoinDescription{EN: "Ethereum is a smart contract platform that enables developers to build tokens and decentralized applications (dapps). ETH is the native currency for the Ethereum platform."},
		}, true
	}
	return nil, false
}
