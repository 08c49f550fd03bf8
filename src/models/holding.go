package models

import "github.com/shopspring/decimal"

// Holding is a single purchase lot: shares of one ticker bought at one cost
// basis on one date. Several lots may share a ticker within an account.
type Holding struct {
	ID           string          `json:"id"`
	AccountID    string          `json:"account_id"`
	Ticker       string          `json:"ticker"` // normalized uppercase
	Shares       decimal.Decimal `json:"shares"`
	AvgCostBasis decimal.Decimal `json:"avg_cost_basis"` // per share
	PurchaseDate string          `json:"purchase_date"`  // YYYY-MM-DD
}

// AggregatedHolding collapses all lots of one ticker into a single position:
// summed shares and a share-weighted average cost per share.
type AggregatedHolding struct {
	Ticker       string          `json:"ticker"`
	Shares       decimal.Decimal `json:"shares"`
	AvgCostBasis decimal.Decimal `json:"avg_cost_basis"`
	CostBasis    decimal.Decimal `json:"cost_basis"` // shares * avg cost
}

// Valuation is a point-in-time portfolio value. IsPartial is set when at
// least one held ticker had no price and its cost basis was substituted.
type Valuation struct {
	TotalValue decimal.Decimal `json:"total_value"`
	CostBasis  decimal.Decimal `json:"cost_basis"`
	IsPartial  bool            `json:"is_partial"`
}

// ValuePoint is one day of a historical portfolio-value series. Days where
// any held ticker lacked a price are omitted from the series entirely.
type ValuePoint struct {
	Date       string          `json:"date"` // YYYY-MM-DD
	TotalValue decimal.Decimal `json:"total_value"`
	CostBasis  decimal.Decimal `json:"cost_basis"`
	IsPartial  bool            `json:"is_partial"`
}
