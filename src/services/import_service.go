// backend/src/services/import_service.go
package services

import (
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/username/divifolio/backend/src/logger"
	"github.com/username/divifolio/backend/src/model"
	"github.com/username/divifolio/backend/src/parsers"
)

type importServiceImpl struct {
	db            *sql.DB
	parser        *parsers.PortfolioCSVParser
	reportService ReportService
}

func NewImportService(db *sql.DB, reportService ReportService) ImportService {
	return &importServiceImpl{
		db:            db,
		parser:        parsers.NewPortfolioCSVParser(),
		reportService: reportService,
	}
}

// ImportCSV parses the upload and writes its rows into the target account.
// Dividend totals are derived from the shares held after the holding rows
// of the same file have been applied.
func (s *importServiceImpl) ImportCSV(reader io.Reader, userID int64, accountID string) (*ImportSummary, error) {
	account, err := model.GetAccountByID(s.db, accountID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account %s not found", accountID)
		}
		return nil, err
	}

	parsed, err := s.parser.Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	summary := &ImportSummary{SkippedRows: parsed.Skipped}

	for i := range parsed.Holdings {
		holding := parsed.Holdings[i]
		holding.ID = uuid.New().String()
		holding.AccountID = account.ID
		if err := model.CreateHolding(s.db, &holding); err != nil {
			return nil, fmt.Errorf("failed to store holding for %s: %w", holding.Ticker, err)
		}
		summary.HoldingsCreated++
	}

	for i := range parsed.Dividends {
		dividend := parsed.Dividends[i]
		dividend.ID = uuid.New().String()
		dividend.AccountID = account.ID

		shares, err := model.SumSharesByTicker(s.db, account.ID, dividend.Ticker)
		if err != nil {
			return nil, err
		}
		dividend.TotalAmount = dividend.AmountPerShare.Mul(shares)
		if err := model.CreateDividend(s.db, &dividend); err != nil {
			return nil, fmt.Errorf("failed to store dividend for %s: %w", dividend.Ticker, err)
		}
		summary.DividendsCreated++
	}

	s.reportService.InvalidatePortfolio(userID, account.PortfolioID)
	logger.L.Info("CSV import finished",
		"accountID", account.ID,
		"holdings", summary.HoldingsCreated,
		"dividends", summary.DividendsCreated,
		"skipped", len(summary.SkippedRows),
	)
	return summary, nil
}
