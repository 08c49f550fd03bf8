// backend/src/handlers/dividend_handler.go
package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

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

const (
	defaultTrailingMonths = 12
	maxTrailingMonths     = 120
)

type DividendHandler struct {
	reportService services.ReportService
}

func NewDividendHandler(reportService services.ReportService) *DividendHandler {
	return &DividendHandler{reportService: reportService}
}

type dividendRequest struct {
	AccountID      string `json:"account_id"`
	Ticker         string `json:"ticker"`
	AmountPerShare string `json:"amount_per_share"`
	PayDate        string `json:"pay_date"`
	Status         string `json:"status"`
}

func (req *dividendRequest) validate() (*models.Dividend, error) {
	ticker := validation.NormalizeTicker(req.Ticker)
	if err := validation.ValidateTicker(ticker); err != nil {
		return nil, err
	}
	aps, err := validation.ValidatePositiveDecimalString(req.AmountPerShare, "amount_per_share")
	if err != nil {
		return nil, err
	}
	if _, err := validation.ValidateDateString(req.PayDate, "pay_date"); err != nil {
		return nil, err
	}
	status, err := models.ParseDividendStatus(req.Status)
	if err != nil {
		return nil, err
	}
	return &models.Dividend{
		AccountID:      req.AccountID,
		Ticker:         ticker,
		AmountPerShare: aps,
		PayDate:        req.PayDate,
		Status:         status,
	}, nil
}

func (h *DividendHandler) ListDividends(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var (
		dividends []models.Dividend
		err       error
	)
	switch {
	case r.URL.Query().Get("account_id") != "":
		dividends, err = model.GetDividendsByAccount(database.DB, r.URL.Query().Get("account_id"), userID)
	case r.URL.Query().Get("portfolio_id") != "":
		dividends, err = model.GetDividendsByPortfolio(database.DB, r.URL.Query().Get("portfolio_id"), userID)
	default:
		utils.SendJSONError(w, "account_id or portfolio_id required", http.StatusBadRequest)
		return
	}
	if err != nil {
		logger.L.Error("Failed to list dividends", "error", err)
		utils.SendJSONError(w, "Failed to retrieve dividends", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dividends)
}

func (h *DividendHandler) CreateDividend(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	var req dividendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}
	dividend, err := req.validate()
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	account, err := model.GetAccountByID(database.DB, dividend.AccountID, userID)
	if err != nil {
		utils.SendJSONError(w, "Account not found", http.StatusNotFound)
		return
	}

	shares, err := model.SumSharesByTicker(database.DB, dividend.AccountID, dividend.Ticker)
	if err != nil {
		logger.L.Error("Failed to sum shares for dividend", "ticker", dividend.Ticker, "error", err)
		utils.SendJSONError(w, "Failed to create dividend", http.StatusInternalServerError)
		return
	}
	dividend.ID = uuid.New().String()
	dividend.TotalAmount = dividend.AmountPerShare.Mul(shares)

	if err := model.CreateDividend(database.DB, dividend); err != nil {
		logger.L.Error("Failed to create dividend", "accountID", dividend.AccountID, "error", err)
		utils.SendJSONError(w, "Failed to create dividend", http.StatusInternalServerError)
		return
	}
	h.reportService.InvalidatePortfolio(userID, account.PortfolioID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(dividend)
}

func (h *DividendHandler) UpdateDividend(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	dividendID := chi.URLParam(r, "id")

	existing, err := model.GetDividendByID(database.DB, dividendID, userID)
	if err != nil {
		utils.SendJSONError(w, "Dividend not found", http.StatusNotFound)
		return
	}

	var req dividendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}
	req.AccountID = existing.AccountID
	req.Ticker = existing.Ticker
	dividend, err := req.validate()
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	dividend.ID = dividendID

	shares, err := model.SumSharesByTicker(database.DB, dividend.AccountID, dividend.Ticker)
	if err != nil {
		logger.L.Error("Failed to sum shares for dividend", "ticker", dividend.Ticker, "error", err)
		utils.SendJSONError(w, "Failed to update dividend", http.StatusInternalServerError)
		return
	}
	dividend.TotalAmount = dividend.AmountPerShare.Mul(shares)

	if err := model.UpdateDividend(database.DB, dividend, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			utils.SendJSONError(w, "Dividend not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to update dividend", "dividendID", dividendID, "error", err)
		utils.SendJSONError(w, "Failed to update dividend", http.StatusInternalServerError)
		return
	}

	if account, aerr := model.GetAccountByID(database.DB, existing.AccountID, userID); aerr == nil {
		h.reportService.InvalidatePortfolio(userID, account.PortfolioID)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dividend)
}

func (h *DividendHandler) DeleteDividend(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	dividendID := chi.URLParam(r, "id")

	existing, err := model.GetDividendByID(database.DB, dividendID, userID)
	if err != nil {
		utils.SendJSONError(w, "Dividend not found", http.StatusNotFound)
		return
	}

	if err := model.DeleteDividend(database.DB, dividendID, userID); err != nil {
		logger.L.Error("Failed to delete dividend", "dividendID", dividendID, "error", err)
		utils.SendJSONError(w, "Failed to delete dividend", http.StatusInternalServerError)
		return
	}

	if account, aerr := model.GetAccountByID(database.DB, existing.AccountID, userID); aerr == nil {
		h.reportService.InvalidatePortfolio(userID, account.PortfolioID)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DividendHandler) HandleGetDividendSummary(w http.ResponseWriter, r *http.Request) {
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

	summary, err := h.reportService.GetDividendSummary(userID, portfolioID)
	if err != nil {
		if errors.Is(err, services.ErrPortfolioMissing) {
			utils.SendJSONError(w, "Portfolio not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to build dividend summary", "portfolioID", portfolioID, "error", err)
		utils.SendJSONError(w, "Failed to build dividend summary", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

func (h *DividendHandler) HandleGetTrailingIncome(w http.ResponseWriter, r *http.Request) {
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

	months := defaultTrailingMonths
	if raw := r.URL.Query().Get("months"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxTrailingMonths {
			utils.SendJSONError(w, "months must be between 1 and 120", http.StatusBadRequest)
			return
		}
		months = parsed
	}

	series, err := h.reportService.GetTrailingIncome(userID, portfolioID, months)
	if err != nil {
		if errors.Is(err, services.ErrPortfolioMissing) {
			utils.SendJSONError(w, "Portfolio not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to build trailing income", "portfolioID", portfolioID, "error", err)
		utils.SendJSONError(w, "Failed to build trailing income", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(series)
}

func (h *DividendHandler) HandleGetProjection(w http.ResponseWriter, r *http.Request) {
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

	projection, err := h.reportService.GetProjection(userID, portfolioID)
	if err != nil {
		if errors.Is(err, services.ErrPortfolioMissing) {
			utils.SendJSONError(w, "Portfolio not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to build projection", "portfolioID", portfolioID, "error", err)
		utils.SendJSONError(w, "Failed to build projection", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(projection)
}
