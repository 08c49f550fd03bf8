// backend/src/handlers/portfolio_handler.go
package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/username/divifolio/backend/src/config"
	"github.com/username/divifolio/backend/src/database"
	"github.com/username/divifolio/backend/src/logger"
	"github.com/username/divifolio/backend/src/model"
	"github.com/username/divifolio/backend/src/models"
	"github.com/username/divifolio/backend/src/security/validation"
	"github.com/username/divifolio/backend/src/services"
	"github.com/username/divifolio/backend/src/utils"
)

type PortfolioHandler struct {
	reportService services.ReportService
}

func NewPortfolioHandler(reportService services.ReportService) *PortfolioHandler {
	return &PortfolioHandler{reportService: reportService}
}

func (h *PortfolioHandler) ListPortfolios(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	portfolios, err := model.GetPortfoliosByUser(database.DB, userID)
	if err != nil {
		logger.L.Error("Failed to list portfolios", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to retrieve portfolios", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(portfolios)
}

func (h *PortfolioHandler) CreatePortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}
	req.Name = validation.SanitizeText(strings.TrimSpace(req.Name))
	req.Description = validation.SanitizeText(strings.TrimSpace(req.Description))

	if err := validation.ValidateStringNotEmpty(req.Name, "Portfolio name"); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidateStringMaxLength(req.Name, validation.MaxNameLength, "Portfolio name"); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidateStringMaxLength(req.Description, validation.MaxDescriptionLength, "Description"); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	currentCount, err := model.CountPortfoliosByUser(database.DB, userID)
	if err != nil {
		logger.L.Error("Failed to count existing portfolios", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to check portfolio limit", http.StatusInternalServerError)
		return
	}
	if currentCount >= config.Cfg.MaxPortfoliosPerUser {
		limitStr := strconv.Itoa(config.Cfg.MaxPortfoliosPerUser)
		utils.SendJSONError(w, "Portfolio limit reached ("+limitStr+")", http.StatusForbidden)
		return
	}

	portfolio := &models.Portfolio{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		IsDefault:   currentCount == 0,
	}
	if err := model.CreatePortfolio(database.DB, portfolio); err != nil {
		logger.L.Error("Failed to create portfolio", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to create portfolio (name must be unique)", http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(portfolio)
}

func (h *PortfolioHandler) UpdatePortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	portfolioID := chi.URLParam(r, "id")

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid body", http.StatusBadRequest)
		return
	}
	req.Name = validation.SanitizeText(strings.TrimSpace(req.Name))
	req.Description = validation.SanitizeText(strings.TrimSpace(req.Description))
	if err := validation.ValidateStringNotEmpty(req.Name, "Portfolio name"); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	portfolio := &models.Portfolio{
		ID:          portfolioID,
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
	}
	if err := model.UpdatePortfolio(database.DB, portfolio); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			utils.SendJSONError(w, "Portfolio not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to update portfolio", "portfolioID", portfolioID, "error", err)
		utils.SendJSONError(w, "Failed to update portfolio", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Portfolio updated"})
}

func (h *PortfolioHandler) SetDefaultPortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	portfolioID := chi.URLParam(r, "id")

	if err := model.SetDefaultPortfolio(database.DB, portfolioID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			utils.SendJSONError(w, "Portfolio not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to set default portfolio", "portfolioID", portfolioID, "error", err)
		utils.SendJSONError(w, "Failed to set default portfolio", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Default portfolio updated"})
}

func (h *PortfolioHandler) DeletePortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	portfolioID := chi.URLParam(r, "id")

	portfolio, err := model.GetPortfolioByID(database.DB, portfolioID, userID)
	if err != nil {
		utils.SendJSONError(w, "Portfolio not found", http.StatusNotFound)
		return
	}
	if portfolio.IsDefault {
		utils.SendJSONError(w, "Cannot delete the default portfolio", http.StatusBadRequest)
		return
	}

	if err := model.DeletePortfolio(database.DB, portfolioID, userID); err != nil {
		logger.L.Error("Failed to delete portfolio", "portfolioID", portfolioID, "error", err)
		utils.SendJSONError(w, "Failed to delete portfolio", http.StatusInternalServerError)
		return
	}
	h.reportService.InvalidatePortfolio(userID, portfolioID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *PortfolioHandler) HandleGetPortfolioValue(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	portfolioID := chi.URLParam(r, "id")

	valuation, err := h.reportService.GetPortfolioValue(userID, portfolioID)
	if err != nil {
		if errors.Is(err, services.ErrPortfolioMissing) {
			utils.SendJSONError(w, "Portfolio not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to compute portfolio value", "portfolioID", portfolioID, "error", err)
		utils.SendJSONError(w, "Failed to compute portfolio value", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(valuation)
}

func (h *PortfolioHandler) HandleGetValueHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	portfolioID := chi.URLParam(r, "id")

	to := r.URL.Query().Get("to")
	if to == "" {
		to = time.Now().Format(models.DateLayout)
	}
	from := r.URL.Query().Get("from")
	if from == "" {
		fromTime, _ := time.Parse(models.DateLayout, to)
		from = fromTime.AddDate(-1, 0, 0).Format(models.DateLayout)
	}
	if _, err := validation.ValidateDateString(from, "from"); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := validation.ValidateDateString(to, "to"); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if from > to {
		utils.SendJSONError(w, "from must not be after to", http.StatusBadRequest)
		return
	}

	points, err := h.reportService.GetValueHistory(userID, portfolioID, from, to)
	if err != nil {
		if errors.Is(err, services.ErrPortfolioMissing) {
			utils.SendJSONError(w, "Portfolio not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to build value history", "portfolioID", portfolioID, "error", err)
		utils.SendJSONError(w, "Failed to build value history", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(points)
}

func (h *PortfolioHandler) HandleRefreshSnapshot(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	portfolioID := chi.URLParam(r, "id")

	snapshot, err := h.reportService.RefreshSnapshot(userID, portfolioID)
	if err != nil {
		if errors.Is(err, services.ErrPortfolioMissing) {
			utils.SendJSONError(w, "Portfolio not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to refresh snapshot", "portfolioID", portfolioID, "error", err)
		utils.SendJSONError(w, "Failed to refresh snapshot", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snapshot)
}
