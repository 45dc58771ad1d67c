package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/username/cryptofolio/backend/src/database"
	"github.com/username/cryptofolio/backend/src/logger"
	"github.com/username/cryptofolio/backend/src/model"
	"github.com/username/cryptofolio/backend/src/models"
	"github.com/username/cryptofolio/backend/src/security/validation"
	"github.com/username/cryptofolio/backend/src/services"
	"github.com/username/cryptofolio/backend/src/utils"
)

type PortfolioHandler struct {
	marketService services.MarketDataService
}

func NewPortfolioHandler(marketService services.MarketDataService) *PortfolioHandler {
	return &PortfolioHandler{marketService: marketService}
}

// HandleGetPortfolio returns the user's holdings enriched with live prices
// plus the aggregate stats. A failed quote lookup degrades to zero quotes so
// the portfolio still renders.
func (h *PortfolioHandler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	holdings, err := model.GetHoldingsByUserID(database.DB, userID)
	if err != nil {
		ctxLogger.Error("Failed to load holdings", "error", err)
		sendJSONError(w, "Failed to load portfolio", http.StatusInternalServerError)
		return
	}

	seen := make(map[string]bool, len(holdings))
	coinIDs := make([]string, 0, len(holdings))
	for _, lot := range holdings {
		if !seen[lot.CoinID] {
			seen[lot.CoinID] = true
			coinIDs = append(coinIDs, lot.CoinID)
		}
	}

	quotes, err := h.marketService.GetPriceQuotes(r.Context(), coinIDs)
	if err != nil {
		ctxLogger.Warn("Price quotes unavailable, valuing portfolio at zero", "error", err)
		quotes = map[string]models.PriceQuote{}
	}

	enriched := services.EnrichHoldings(holdings, quotes)
	stats := services.ComputePortfolioStats(enriched)

	utils.SendJSON(w, map[string]interface{}{
		"holdings": enriched,
		"stats":    stats,
	})
}

func (h *PortfolioHandler) HandleCreateHolding(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var payload models.HoldingLot
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	payload.CoinID = strings.ToLower(validation.SanitizeText(strings.TrimSpace(payload.CoinID)))
	payload.PurchaseDate = validation.SanitizeText(strings.TrimSpace(payload.PurchaseDate))

	if err := validation.ValidateCoinID(payload.CoinID); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidatePositiveFloat(payload.Quantity, "Amount"); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidatePositiveFloat(payload.PurchasePrice, "Purchase price"); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if payload.PurchaseDate == "" {
		payload.PurchaseDate = time.Now().Format("2006-01-02")
	}

	if !h.marketService.ValidateCoinID(r.Context(), payload.CoinID) {
		sendJSONError(w, "Unknown coin id", http.StatusUnprocessableEntity)
		return
	}

	if err := model.CreateHolding(database.DB, userID, &payload); err != nil {
		ctxLogger.Error("Failed to create holding", "coinID", payload.CoinID, "error", err)
		sendJSONError(w, "Failed to save holding", http.StatusInternalServerError)
		return
	}

	ctxLogger.Info("Holding created", "holdingID", payload.ID, "coinID", payload.CoinID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(payload)
}

func (h *PortfolioHandler) HandleDeleteHolding(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	holdingID, err := strconv.ParseInt(chi.URLParam(r, "holdingID"), 10, 64)
	if err != nil {
		sendJSONError(w, "Invalid holding ID format", http.StatusBadRequest)
		return
	}

	deleted, err := model.DeleteHolding(database.DB, userID, holdingID)
	if err != nil {
		ctxLogger.Error("Failed to delete holding", "holdingID", holdingID, "error", err)
		sendJSONError(w, "Failed to delete holding", http.StatusInternalServerError)
		return
	}
	if !deleted {
		sendJSONError(w, "Holding not found", http.StatusNotFound)
		return
	}

	ctxLogger.Info("Holding deleted", "holdingID", holdingID)
	w.WriteHeader(http.StatusNoContent)
}
