// backend/src/model/holding.go
package model

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/divifolio/backend/src/models"
)

func parseStoredDecimal(column, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("corrupt %s value %q: %w", column, raw, err)
	}
	return d, nil
}

func CreateHolding(db *sql.DB, h *models.Holding) error {
	now := time.Now()
	query := `
	INSERT INTO holdings (id, account_id, ticker, shares, avg_cost_basis, purchase_date, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.Exec(query, h.ID, h.AccountID, h.Ticker, h.Shares.String(), h.AvgCostBasis.String(), h.PurchaseDate, now, now)
	return err
}

func scanHoldingRows(rows *sql.Rows) ([]models.Holding, error) {
	holdings := make([]models.Holding, 0)
	for rows.Next() {
		var h models.Holding
		var shares, avgCost string
		if err := rows.Scan(&h.ID, &h.AccountID, &h.Ticker, &shares, &avgCost, &h.PurchaseDate); err != nil {
			return nil, err
		}
		var err error
		if h.Shares, err = parseStoredDecimal("shares", shares); err != nil {
			return nil, err
		}
		if h.AvgCostBasis, err = parseStoredDecimal("avg_cost_basis", avgCost); err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

func GetHoldingByID(db *sql.DB, id string, userID int64) (*models.Holding, error) {
	query := `
	SELECT h.id, h.account_id, h.ticker, h.shares, h.avg_cost_basis, h.purchase_date
	FROM holdings h
	JOIN accounts a ON a.id = h.account_id
	WHERE h.id = ? AND a.user_id = ?`
	var h models.Holding
	var shares, avgCost string
	err := db.QueryRow(query, id, userID).Scan(&h.ID, &h.AccountID, &h.Ticker, &shares, &avgCost, &h.PurchaseDate)
	if err != nil {
		return nil, err
	}
	if h.Shares, err = parseStoredDecimal("shares", shares); err != nil {
		return nil, err
	}
	if h.AvgCostBasis, err = parseStoredDecimal("avg_cost_basis", avgCost); err != nil {
		return nil, err
	}
	return &h, nil
}

func GetHoldingsByAccount(db *sql.DB, accountID string, userID int64) ([]models.Holding, error) {
	query := `
	SELECT h.id, h.account_id, h.ticker, h.shares, h.avg_cost_basis, h.purchase_date
	FROM holdings h
	JOIN accounts a ON a.id = h.account_id
	WHERE h.account_id = ? AND a.user_id = ?
	ORDER BY h.ticker ASC, h.purchase_date ASC`
	rows, err := db.Query(query, accountID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHoldingRows(rows)
}

func GetHoldingsByPortfolio(db *sql.DB, portfolioID string, userID int64) ([]models.Holding, error) {
	query := `
	SELECT h.id, h.account_id, h.ticker, h.shares, h.avg_cost_basis, h.purchase_date
	FROM holdings h
	JOIN accounts a ON a.id = h.account_id
	WHERE a.portfolio_id = ? AND a.user_id = ?
	ORDER BY h.ticker ASC, h.purchase_date ASC`
	rows, err := db.Query(query, portfolioID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHoldingRows(rows)
}

// SumSharesByTicker totals the shares held for one ticker across every lot
// of an account. Used to price new dividend records and to resync totals
// when lots change.
func SumSharesByTicker(db *sql.DB, accountID, ticker string) (decimal.Decimal, error) {
	rows, err := db.Query(`SELECT shares FROM holdings WHERE account_id = ? AND ticker = ?`, accountID, ticker)
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, err
		}
		shares, err := parseStoredDecimal("shares", raw)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(shares)
	}
	return total, rows.Err()
}

func UpdateHolding(db *sql.DB, h *models.Holding, userID int64) error {
	query := `
	UPDATE holdings SET shares = ?, avg_cost_basis = ?, purchase_date = ?, updated_at = ?
	WHERE id = ? AND account_id IN (SELECT id FROM accounts WHERE user_id = ?)`
	res, err := db.Exec(query, h.Shares.String(), h.AvgCostBasis.String(), h.PurchaseDate, time.Now(), h.ID, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func DeleteHolding(db *sql.DB, id string, userID int64) error {
	query := `
	DELETE FROM holdings
	WHERE id = ? AND account_id IN (SELECT id FROM accounts WHERE user_id = ?)`
	res, err := db.Exec(query, id, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DistinctTickersByPortfolio lists every ticker currently held anywhere in
// the portfolio, for price refresh and valuation.
func DistinctTickersByPortfolio(db *sql.DB, portfolioID string, userID int64) ([]string, error) {
	query := `
	SELECT DISTINCT h.ticker
	FROM holdings h
	JOIN accounts a ON a.id = h.account_id
	WHERE a.portfolio_id = ? AND a.user_id = ?
	ORDER BY h.ticker ASC`
	rows, err := db.Query(query, portfolioID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickers := make([]string, 0)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}
