// backend/src/services/interfaces.go
package services

import (
	"errors"
	"io"

	"github.com/shopspring/decimal"
	"github.com/username/divifolio/backend/src/models"
)

// Common service errors.
var (
	ErrParsingFailed    = errors.New("csv parsing failed")
	ErrPortfolioMissing = errors.New("portfolio not found")
)

// PriceService fetches current market prices and maintains the cached
// price history for held tickers.
type PriceService interface {
	// GetCurrentPrices returns the latest known close per ticker. Tickers
	// the provider cannot price are absent from the result, not errors.
	GetCurrentPrices(tickers []string) (map[string]decimal.Decimal, error)

	// RefreshHistory pulls daily close history for a ticker into the
	// price_history cache.
	RefreshHistory(ticker string) error
}

// ImportSummary reports what a CSV import run did.
type ImportSummary struct {
	HoldingsCreated  int      `json:"holdings_created"`
	DividendsCreated int      `json:"dividends_created"`
	SkippedRows      []string `json:"skipped_rows,omitempty"`
}

// ImportService loads holdings and dividend records from broker CSV exports.
type ImportService interface {
	ImportCSV(reader io.Reader, userID int64, accountID string) (*ImportSummary, error)
}

// ReportService computes the income and valuation reports for a portfolio.
// Results are cached per (user, portfolio) until a mutation invalidates them.
type ReportService interface {
	GetDividendSummary(userID int64, portfolioID string) (*models.DividendSummary, error)
	GetTrailingIncome(userID int64, portfolioID string, months int) ([]models.TrailingMonth, error)
	GetProjection(userID int64, portfolioID string) (*models.ProjectionResult, error)
	GetAggregatedHoldings(userID int64, portfolioID string) ([]models.AggregatedHolding, error)
	GetPortfolioValue(userID int64, portfolioID string) (*models.Valuation, error)
	GetValueHistory(userID int64, portfolioID string, from, to string) ([]models.ValuePoint, error)
	RefreshSnapshot(userID int64, portfolioID string) (*models.ValueSnapshot, error)
	InvalidatePortfolio(userID int64, portfolioID string)
}
