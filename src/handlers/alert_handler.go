package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/username/cryptofolio/backend/src/database"
	"github.com/username/cryptofolio/backend/src/logger"
	"github.com/username/cryptofolio/backend/src/model"
	"github.com/username/cryptofolio/backend/src/models"
	"github.com/username/cryptofolio/backend/src/security/validation"
	"github.com/username/cryptofolio/backend/src/services"
	"github.com/username/cryptofolio/backend/src/utils"
)

type AlertHandler struct {
	marketService services.MarketDataService
}

func NewAlertHandler(marketService services.MarketDataService) *AlertHandler {
	return &AlertHandler{marketService: marketService}
}

func (h *AlertHandler) HandleGetAlerts(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	alerts, err := model.GetAlertsByUserID(database.DB, userID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to load alerts", "error", err)
		sendJSONError(w, "Failed to load alerts", http.StatusInternalServerError)
		return
	}
	if alerts == nil {
		alerts = []models.PriceAlert{}
	}
	utils.SendJSON(w, alerts)
}

func (h *AlertHandler) HandleCreateAlert(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var payload models.PriceAlert
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	payload.CoinID = strings.ToLower(validation.SanitizeText(strings.TrimSpace(payload.CoinID)))
	payload.Condition = strings.ToLower(strings.TrimSpace(payload.Condition))

	if err := validation.ValidateCoinID(payload.CoinID); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidatePositiveFloat(payload.Price, "Price"); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if payload.Condition != "above" && payload.Condition != "below" {
		sendJSONError(w, "Condition must be 'above' or 'below'", http.StatusBadRequest)
		return
	}

	if !h.marketService.ValidateCoinID(r.Context(), payload.CoinID) {
		sendJSONError(w, "Unknown coin id", http.StatusUnprocessableEntity)
		return
	}

	payload.UserID = userID
	if err := model.CreateAlert(database.DB, &payload); err != nil {
		ctxLogger.Error("Failed to create alert", "coinID", payload.CoinID, "error", err)
		sendJSONError(w, "Failed to save alert", http.StatusInternalServerError)
		return
	}

	ctxLogger.Info("Alert created", "alertID", payload.ID, "coinID", payload.CoinID, "condition", payload.Condition)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(payload)
}

func (h *AlertHandler) HandleDeleteAlert(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	alertID, err := strconv.ParseInt(chi.URLParam(r, "alertID"), 10, 64)
	if err != nil {
		sendJSONError(w, "Invalid alert ID format", http.StatusBadRequest)
		return
	}

	deleted, err := model.DeleteAlert(database.DB, userID, alertID)
	if err != nil {
		ctxLogger.Error("Failed to delete alert", "alertID", alertID, "error", err)
		sendJSONError(w, "Failed to delete alert", http.StatusInternalServerError)
		return
	}
	if !deleted {
		sendJSONError(w, "Alert not found", http.StatusNotFound)
		return
	}

	ctxLogger.Info("Alert deleted", "alertID", alertID)
	w.WriteHeader(http.StatusNoContent)
}

// TriggeredAlert is a PriceAlert whose condition currently holds, joined with
// the live price that tripped it.
type TriggeredAlert struct {
	models.PriceAlert
	CurrentPrice float64 `json:"current_price"`
}

// HandleGetTriggeredAlerts evaluates the user's alerts against live prices.
// Alerts whose asset has no live quote are skipped rather than reported.
func (h *AlertHandler) HandleGetTriggeredAlerts(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	alerts, err := model.GetAlertsByUserID(database.DB, userID)
	if err != nil {
		ctxLogger.Error("Failed to load alerts", "error", err)
		sendJSONError(w, "Failed to load alerts", http.StatusInternalServerError)
		return
	}

	seen := make(map[string]bool, len(alerts))
	coinIDs := make([]string, 0, len(alerts))
	for _, alert := range alerts {
		if !seen[alert.CoinID] {
			seen[alert.CoinID] = true
			coinIDs = append(coinIDs, alert.CoinID)
		}
	}

	quotes, err := h.marketService.GetPriceQuotes(r.Context(), coinIDs)
	if err != nil {
		ctxLogger.Warn("Price quotes unavailable for alert evaluation", "error", err)
		utils.SendJSON(w, []TriggeredAlert{})
		return
	}

	triggered := make([]TriggeredAlert, 0)
	for _, alert := range alerts {
		quote, ok := quotes[alert.CoinID]
		if !ok {
			continue
		}
		hit := (alert.Condition == "above" && quote.Current > alert.Price) ||
			(alert.Condition == "below" && quote.Current < alert.Price)
		if hit {
			triggered = append(triggered, TriggeredAlert{PriceAlert: alert, CurrentPrice: quote.Current})
		}
	}

	utils.SendJSON(w, triggered)
}
