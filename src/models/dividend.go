package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date storage format used across the application.
// Dates carry no time-of-day component.
const DateLayout = "2006-01-02"

// DividendStatus is the closed set of states a dividend record can be in.
// Only paid records count toward realized income and cadence inference.
type DividendStatus string

const (
	StatusPaid      DividendStatus = "paid"
	StatusScheduled DividendStatus = "scheduled"
	StatusProjected DividendStatus = "projected"
)

// ParseDividendStatus validates a raw status string against the closed set.
func ParseDividendStatus(s string) (DividendStatus, error) {
	switch DividendStatus(s) {
	case StatusPaid:
		return StatusPaid, nil
	case StatusScheduled:
		return StatusScheduled, nil
	case StatusProjected:
		return StatusProjected, nil
	default:
		return "", fmt.Errorf("unknown dividend status %q", s)
	}
}

// Dividend represents a single dividend record for a ticker within an account.
// TotalAmount is always AmountPerShare multiplied by the shares held for that
// ticker at record time; it is recomputed whenever the per-share amount or the
// underlying lots change.
type Dividend struct {
	ID             string          `json:"id"`
	AccountID      string          `json:"account_id"`
	AccountName    string          `json:"account_name,omitempty"`
	Ticker         string          `json:"ticker"`
	AmountPerShare decimal.Decimal `json:"amount_per_share"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PayDate        string          `json:"pay_date"` // YYYY-MM-DD
	Status         DividendStatus  `json:"status"`
}

// AggregatedPeriod is one calendar bucket (a year, or a year+quarter) of
// summed dividend income. Total always equals the sum of PerTicker's values.
type AggregatedPeriod struct {
	Year      int                        `json:"year"`
	Quarter   int                        `json:"quarter,omitempty"` // 0 when bucketing by year
	PerTicker map[string]decimal.Decimal `json:"per_ticker"`
	Total     decimal.Decimal            `json:"total"`
}

// GrowthComparison compares a period's income against the matching period one
// year (or one quarter) earlier.
type GrowthComparison struct {
	CurrentAmount  decimal.Decimal `json:"current_amount"`
	PreviousAmount decimal.Decimal `json:"previous_amount"`
	GrowthAmount   decimal.Decimal `json:"growth_amount"`
	GrowthPercent  float64         `json:"growth_percent"` // 0 by policy when the previous period is 0
}

// DividendSummary is the aggregate income report for one portfolio.
type DividendSummary struct {
	Yearly        []AggregatedPeriod `json:"yearly"`
	Quarterly     []AggregatedPeriod `json:"quarterly"` // most recent quarters, oldest first
	YearOverYear  GrowthComparison   `json:"year_over_year"`
	QuarterGrowth GrowthComparison   `json:"quarter_growth"`
	CAGRPercent   float64            `json:"cagr_percent"`
	TTMIncome     decimal.Decimal    `json:"ttm_income"`
}
