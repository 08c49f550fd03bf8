// backend/src/handlers/import_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/username/divifolio/backend/src/config"
	"github.com/username/divifolio/backend/src/logger"
	"github.com/username/divifolio/backend/src/services"
	"github.com/username/divifolio/backend/src/utils"
)

type ImportHandler struct {
	importService services.ImportService
}

func NewImportHandler(importService services.ImportService) *ImportHandler {
	return &ImportHandler{importService: importService}
}

// HandleImportCSV ingests a multipart CSV upload of holdings and dividend
// rows into one account. The file goes in the "file" field, the target
// account in "account_id".
func (h *ImportHandler) HandleImportCSV(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, config.Cfg.MaxImportSizeBytes)
	if err := r.ParseMultipartForm(config.Cfg.MaxImportSizeBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "userID", userID, "error", err, "limit", config.Cfg.MaxImportSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to process upload or file too large (max %d MB)", config.Cfg.MaxImportSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	accountID := r.FormValue("account_id")
	if accountID == "" {
		utils.SendJSONError(w, "account_id is required", http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		logger.L.Warn("Failed to retrieve file from request", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > config.Cfg.MaxImportSizeBytes {
		logger.L.Warn("Uploaded file too large", "userID", userID, "fileSize", fileHeader.Size, "limit", config.Cfg.MaxImportSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB", config.Cfg.MaxImportSizeBytes/(1024*1024)), http.StatusRequestEntityTooLarge)
		return
	}

	summary, err := h.importService.ImportCSV(file, userID, accountID)
	if err != nil {
		if errors.Is(err, services.ErrParsingFailed) {
			utils.SendJSONError(w, "Import file could not be parsed", http.StatusBadRequest)
			return
		}
		logger.L.Error("CSV import failed", "accountID", accountID, "error", err)
		utils.SendJSONError(w, "Import failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}
