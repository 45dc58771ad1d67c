package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/username/cryptofolio/backend/src/logger"
	"github.com/username/cryptofolio/backend/src/security/validation"
	"github.com/username/cryptofolio/backend/src/services"
	"github.com/username/cryptofolio/backend/src/utils"
)

type MarketHandler struct {
	marketService services.MarketDataService
	newsService   services.NewsService
}

func NewMarketHandler(marketService services.MarketDataService, newsService services.NewsService) *MarketHandler {
	return &MarketHandler{
		marketService: marketService,
		newsService:   newsService,
	}
}

// sendGatewayError maps a classified gateway failure onto an HTTP status.
func sendGatewayError(w http.ResponseWriter, err error) {
	var gwErr *services.GatewayError
	if errors.As(err, &gwErr) {
		switch gwErr.Kind {
		case services.KindRateLimited:
			sendJSONError(w, gwErr.Message, http.StatusTooManyRequests)
		case services.KindInvalidRequest:
			sendJSONError(w, gwErr.Message, http.StatusUnprocessableEntity)
		default:
			sendJSONError(w, gwErr.Message, http.StatusBadGateway)
		}
		return
	}
	sendJSONError(w, "Failed to fetch market data", http.StatusBadGateway)
}

func queryParamInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}

// HandleListMarkets serves the market listing. When the whole cascade fails
// the static dataset is substituted so the page still renders.
func (h *MarketHandler) HandleListMarkets(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	page := queryParamInt(r, "page", 1)
	perPage := queryParamInt(r, "per_page", 50)
	if perPage > 250 {
		perPage = 250
	}

	rows, err := h.marketService.ListMarkets(r.Context(), page, perPage)
	if err != nil {
		ctxLogger.Warn("Market listing unavailable, serving static dataset", "error", err)
		utils.SendJSON(w, services.FallbackMarketRows())
		return
	}
	utils.SendJSON(w, rows)
}

// HandleGetCoinDetail serves the extended record for one asset. The static
// dataset only covers a couple of assets; anything else propagates the error.
func (h *MarketHandler) HandleGetCoinDetail(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	coinID := chi.URLParam(r, "coinID")
	if err := validation.ValidateCoinID(coinID); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	detail, err := h.marketService.GetCoinDetail(r.Context(), coinID)
	if err != nil {
		if fallback, ok := services.FallbackCoinDetail(coinID); ok {
			ctxLogger.Warn("Coin detail unavailable, serving static dataset", "coinID", coinID, "error", err)
			utils.SendJSON(w, fallback)
			return
		}
		ctxLogger.Warn("Coin detail unavailable and no static record exists", "coinID", coinID, "error", err)
		sendGatewayError(w, err)
		return
	}
	utils.SendJSON(w, detail)
}

func (h *MarketHandler) HandleGetMarketChart(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	coinID := chi.URLParam(r, "coinID")
	if err := validation.ValidateCoinID(coinID); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	days := queryParamInt(r, "days", 7)
	if days > 365 {
		days = 365
	}

	series, err := h.marketService.GetMarketChart(r.Context(), coinID, days)
	if err != nil {
		ctxLogger.Warn("Market chart unavailable, serving static dataset", "coinID", coinID, "error", err)
		utils.SendJSON(w, services.FallbackChartSeries(time.Now()))
		return
	}
	utils.SendJSON(w, series)
}

// HandleSearchCoins has no fallback; a failed search reports the classified
// gateway error.
func (h *MarketHandler) HandleSearchCoins(w http.ResponseWriter, r *http.Request) {
	term := validation.SanitizeText(r.URL.Query().Get("query"))
	if term == "" {
		sendJSONError(w, "Search query is required", http.StatusBadRequest)
		return
	}

	results, err := h.marketService.SearchCoins(r.Context(), term)
	if err != nil {
		sendGatewayError(w, err)
		return
	}
	utils.SendJSON(w, results)
}

func (h *MarketHandler) HandleGetNews(w http.ResponseWriter, r *http.Request) {
	items, err := h.newsService.GetNews(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("News aggregation failed", "error", err)
		sendJSONError(w, "Failed to fetch news", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"Data": items})
}
