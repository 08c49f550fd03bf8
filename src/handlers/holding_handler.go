// backend/src/handlers/holding_handler.go
package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/username/divifolio/backend/src/database"
	"github.com/username/divifolio/backend/src/logger"
	"github.com/username/divifolio/backend/src/model"
	"github.com/username/divifolio/backend/src/models"
	"github.com/username/divifolio/backend/src/security/validation"
	"github.com/username/divifolio/backend/src/services"
	"github.com/username/divifolio/backend/src/utils"
)

type HoldingHandler struct {
	reportService services.ReportService
}

func NewHoldingHandler(reportService services.ReportService) *HoldingHandler {
	return &HoldingHandler{reportService: reportService}
}

type holdingRequest struct {
	AccountID    string `json:"account_id"`
	Ticker       string `json:"ticker"`
	Shares       string `json:"shares"`
	AvgCostBasis string `json:"avg_cost_basis"`
	PurchaseDate string `json:"purchase_date"`
}

func (req *holdingRequest) validate() (*models.Holding, error) {
	ticker := validation.NormalizeTicker(req.Ticker)
	if err := validation.ValidateTicker(ticker); err != nil {
		return nil, err
	}
	shares, err := validation.ValidatePositiveDecimalString(req.Shares, "shares")
	if err != nil {
		return nil, err
	}
	avgCost, err := validation.ValidateDecimalString(req.AvgCostBasis, "avg_cost_basis", false)
	if err != nil {
		return nil, err
	}
	if _, err := validation.ValidateDateString(req.PurchaseDate, "purchase_date"); err != nil {
		return nil, err
	}
	return &models.Holding{
		AccountID:    req.AccountID,
		Ticker:       ticker,
		Shares:       shares,
		AvgCostBasis: avgCost,
		PurchaseDate: req.PurchaseDate,
	}, nil
}

func (h *HoldingHandler) ListHoldings(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		utils.SendJSONError(w, "account_id required", http.StatusBadRequest)
		return
	}

	holdings, err := model.GetHoldingsByAccount(database.DB, accountID, userID)
	if err != nil {
		logger.L.Error("Failed to list holdings", "accountID", accountID, "error", err)
		utils.SendJSONError(w, "Failed to retrieve holdings", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(holdings)
}

// HandleGetAggregatedHoldings returns the portfolio's positions collapsed
// to one row per ticker.
func (h *HoldingHandler) HandleGetAggregatedHoldings(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	portfolioID := r.URL.Query().Get("portfolio_id")
	if portfolioID == "" {
		utils.SendJSONError(w, "portfolio_id required", http.StatusBadRequest)
		return
	}

	rows, err := h.reportService.GetAggregatedHoldings(userID, portfolioID)
	if err != nil {
		if errors.Is(err, services.ErrPortfolioMissing) {
			utils.SendJSONError(w, "Portfolio not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to aggregate holdings", "portfolioID", portfolioID, "error", err)
		utils.SendJSONError(w, "Failed to aggregate holdings", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rows)
}

func (h *HoldingHandler) CreateHolding(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	var req holdingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}
	holding, err := req.validate()
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	account, err := model.GetAccountByID(database.DB, holding.AccountID, userID)
	if err != nil {
		utils.SendJSONError(w, "Account not found", http.StatusNotFound)
		return
	}

	holding.ID = uuid.New().String()
	if err := model.CreateHolding(database.DB, holding); err != nil {
		logger.L.Error("Failed to create holding", "accountID", holding.AccountID, "error", err)
		utils.SendJSONError(w, "Failed to create holding", http.StatusInternalServerError)
		return
	}

	h.syncAfterLotChange(userID, account.PortfolioID, holding.AccountID, holding.Ticker)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(holding)
}

func (h *HoldingHandler) UpdateHolding(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	holdingID := chi.URLParam(r, "id")

	existing, err := model.GetHoldingByID(database.DB, holdingID, userID)
	if err != nil {
		utils.SendJSONError(w, "Holding not found", http.StatusNotFound)
		return
	}

	var req holdingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}
	// account and ticker of a lot are fixed; only size, cost and date change
	req.AccountID = existing.AccountID
	req.Ticker = existing.Ticker
	holding, err := req.validate()
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	holding.ID = holdingID

	if err := model.UpdateHolding(database.DB, holding, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			utils.SendJSONError(w, "Holding not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to update holding", "holdingID", holdingID, "error", err)
		utils.SendJSONError(w, "Failed to update holding", http.StatusInternalServerError)
		return
	}

	account, err := model.GetAccountByID(database.DB, existing.AccountID, userID)
	if err == nil {
		h.syncAfterLotChange(userID, account.PortfolioID, existing.AccountID, existing.Ticker)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(holding)
}

func (h *HoldingHandler) DeleteHolding(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	holdingID := chi.URLParam(r, "id")

	existing, err := model.GetHoldingByID(database.DB, holdingID, userID)
	if err != nil {
		utils.SendJSONError(w, "Holding not found", http.StatusNotFound)
		return
	}

	if err := model.DeleteHolding(database.DB, holdingID, userID); err != nil {
		logger.L.Error("Failed to delete holding", "holdingID", holdingID, "error", err)
		utils.SendJSONError(w, "Failed to delete holding", http.StatusInternalServerError)
		return
	}

	account, err := model.GetAccountByID(database.DB, existing.AccountID, userID)
	if err == nil {
		h.syncAfterLotChange(userID, account.PortfolioID, existing.AccountID, existing.Ticker)
	}
	w.WriteHeader(http.StatusNoContent)
}

// syncAfterLotChange keeps dividend totals in step with the shares now
// held and drops stale cached reports.
func (h *HoldingHandler) syncAfterLotChange(userID int64, portfolioID, accountID, ticker string) {
	shares, err := model.SumSharesByTicker(database.DB, accountID, ticker)
	if err != nil {
		logger.L.Error("Failed to sum shares after lot change", "accountID", accountID, "ticker", ticker, "error", err)
		return
	}
	if err := model.SyncDividendTotals(database.DB, accountID, ticker, shares); err != nil {
		logger.L.Error("Failed to resync dividend totals", "accountID", accountID, "ticker", ticker, "error", err)
	}
	h.reportService.InvalidatePortfolio(userID, portfolioID)
}
