// backend/src/handlers/account_handler.go
package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

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

type AccountHandler struct {
	reportService services.ReportService
}

func NewAccountHandler(reportService services.ReportService) *AccountHandler {
	return &AccountHandler{reportService: reportService}
}

// requirePortfolioParam resolves the portfolio_id query parameter and
// verifies ownership.
func requirePortfolioParam(w http.ResponseWriter, r *http.Request, userID int64) (string, bool) {
	portfolioID := r.URL.Query().Get("portfolio_id")
	if portfolioID == "" {
		utils.SendJSONError(w, "portfolio_id required", http.StatusBadRequest)
		return "", false
	}
	if _, err := model.GetPortfolioByID(database.DB, portfolioID, userID); err != nil {
		utils.SendJSONError(w, "Portfolio not found", http.StatusNotFound)
		return "", false
	}
	return portfolioID, true
}

func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	portfolioID, ok := requirePortfolioParam(w, r, userID)
	if !ok {
		return
	}

	accounts, err := model.GetAccountsByPortfolio(database.DB, portfolioID, userID)
	if err != nil {
		logger.L.Error("Failed to list accounts", "portfolioID", portfolioID, "error", err)
		utils.SendJSONError(w, "Failed to retrieve accounts", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(accounts)
}

func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	var req struct {
		PortfolioID string `json:"portfolio_id"`
		Name        string `json:"name"`
		Broker      string `json:"broker"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}
	req.Name = validation.SanitizeText(strings.TrimSpace(req.Name))
	req.Broker = validation.SanitizeText(strings.TrimSpace(req.Broker))

	if err := validation.ValidateStringNotEmpty(req.Name, "Account name"); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidateStringMaxLength(req.Name, validation.MaxNameLength, "Account name"); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := model.GetPortfolioByID(database.DB, req.PortfolioID, userID); err != nil {
		utils.SendJSONError(w, "Portfolio not found", http.StatusNotFound)
		return
	}

	account := &models.Account{
		ID:          uuid.New().String(),
		PortfolioID: req.PortfolioID,
		UserID:      userID,
		Name:        req.Name,
		Broker:      req.Broker,
	}
	if err := model.CreateAccount(database.DB, account); err != nil {
		logger.L.Error("Failed to create account", "portfolioID", req.PortfolioID, "error", err)
		utils.SendJSONError(w, "Failed to create account (name must be unique within portfolio)", http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(account)
}

func (h *AccountHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	accountID := chi.URLParam(r, "id")

	var req struct {
		Name   string `json:"name"`
		Broker string `json:"broker"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}
	req.Name = validation.SanitizeText(strings.TrimSpace(req.Name))
	req.Broker = validation.SanitizeText(strings.TrimSpace(req.Broker))
	if err := validation.ValidateStringNotEmpty(req.Name, "Account name"); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	account := &models.Account{
		ID:     accountID,
		UserID: userID,
		Name:   req.Name,
		Broker: req.Broker,
	}
	if err := model.UpdateAccount(database.DB, account); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			utils.SendJSONError(w, "Account not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to update account", "accountID", accountID, "error", err)
		utils.SendJSONError(w, "Failed to update account", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Account updated"})
}

func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	accountID := chi.URLParam(r, "id")

	account, err := model.GetAccountByID(database.DB, accountID, userID)
	if err != nil {
		utils.SendJSONError(w, "Account not found", http.StatusNotFound)
		return
	}

	if err := model.DeleteAccount(database.DB, accountID, userID); err != nil {
		logger.L.Error("Failed to delete account", "accountID", accountID, "error", err)
		utils.SendJSONError(w, "Failed to delete account", http.StatusInternalServerError)
		return
	}
	h.reportService.InvalidatePortfolio(userID, account.PortfolioID)
	w.WriteHeader(http.StatusNoContent)
}
