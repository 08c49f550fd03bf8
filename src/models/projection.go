package models

import "github.com/shopspring/decimal"

// Cadence is the inferred payment-frequency class of a ticker's dividends.
type Cadence string

const (
	CadenceMonthly   Cadence = "monthly"
	CadenceQuarterly Cadence = "quarterly"
	CadenceAnnual    Cadence = "annual"
	CadenceIrregular Cadence = "irregular"
)

// PaymentsPerYear returns how many payments a year the cadence implies.
// Irregular cadences imply none: they are excluded from projection.
func (c Cadence) PaymentsPerYear() int {
	switch c {
	case CadenceMonthly:
		return 12
	case CadenceQuarterly:
		return 4
	case CadenceAnnual:
		return 1
	default:
		return 0
	}
}

// Exclusion reasons surfaced to the user instead of silently dropping a holding.
const (
	ReasonInsufficientHistory = "insufficient history"
	ReasonIrregularHistory    = "irregular payment history"
)

// HoldingProjection is the forward-looking estimate for one holding that
// qualified for cadence inference.
type HoldingProjection struct {
	Ticker          string          `json:"ticker"`
	AccountName     string          `json:"account_name,omitempty"`
	Cadence         Cadence         `json:"cadence"`
	NextPayDate     string          `json:"next_pay_date"` // YYYY-MM-DD
	NextPayAmount   decimal.Decimal `json:"next_pay_amount"`
	ProjectedAnnual decimal.Decimal `json:"projected_annual"`
	PercentOfTotal  float64         `json:"percent_of_total"`
}

// ExcludedHolding names a holding left out of projection and why.
type ExcludedHolding struct {
	Ticker      string `json:"ticker"`
	AccountName string `json:"account_name,omitempty"`
	Reason      string `json:"reason"`
}

// ChartMonth is one slot of the fixed-length projection chart: realized
// income for past months, projected income for future months.
type ChartMonth struct {
	Year      int                        `json:"year"`
	Month     int                        `json:"month"`
	Actual    decimal.Decimal            `json:"actual"`
	Projected decimal.Decimal            `json:"projected"`
	PerTicker map[string]decimal.Decimal `json:"per_ticker,omitempty"`
}

// ProjectionResult is the full projection response payload.
type ProjectionResult struct {
	HoldingProjections []HoldingProjection `json:"holding_projections"`
	Excluded           []ExcludedHolding   `json:"excluded"`
	TTMIncome          decimal.Decimal     `json:"ttm_income"`
	ProjectedAnnual    decimal.Decimal     `json:"projected_annual"`
	Trend              string              `json:"trend"` // "up", "down" or "flat"
	TrendPct           float64             `json:"trend_pct"`
	ChartData          []ChartMonth        `json:"chart_data"`
}

// AccountIncome is one account's share of a trailing-series month.
type AccountIncome struct {
	AccountID   string          `json:"account_id"`
	AccountName string          `json:"account_name"`
	Income      decimal.Decimal `json:"income"`
}

// TrailingMonth is one zero-filled slot of a trailing income series.
type TrailingMonth struct {
	Year      int             `json:"year"`
	Month     int             `json:"month"`
	Total     decimal.Decimal `json:"total"`
	ByAccount []AccountIncome `json:"by_account"`
}
