package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Portfolio groups a user's brokerage accounts.
type Portfolio struct {
	ID          string    `json:"id"`
	UserID      int64     `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsDefault   bool      `json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
}

// Account is one brokerage account within a portfolio.
type Account struct {
	ID          string    `json:"id"`
	PortfolioID string    `json:"portfolio_id"`
	UserID      int64     `json:"user_id"`
	Name        string    `json:"name"`
	Broker      string    `json:"broker,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ValueSnapshot is the persisted daily portfolio valuation. One row per
// (portfolio, date); writes are upserts, never duplicates.
type ValueSnapshot struct {
	PortfolioID string          `json:"portfolio_id"`
	Date        string          `json:"date"` // YYYY-MM-DD
	TotalValue  decimal.Decimal `json:"total_value"`
	CostBasis   decimal.Decimal `json:"cost_basis"`
	IsPartial   bool            `json:"is_partial"`
}

// PricePoint is one close price for a ticker on a calendar day.
type PricePoint struct {
	Ticker string          `json:"ticker"`
	Date   string          `json:"date"` // YYYY-MM-DD
	Close  decimal.Decimal `json:"close"`
}
