// backend/src/model/dividend.go
package model

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/divifolio/backend/src/models"
)

func CreateDividend(db *sql.DB, d *models.Dividend) error {
	now := time.Now()
	query := `
	INSERT INTO dividends (id, account_id, ticker, amount_per_share, total_amount, pay_date, status, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.Exec(query,
		d.ID, d.AccountID, d.Ticker,
		d.AmountPerShare.String(), d.TotalAmount.String(),
		d.PayDate, string(d.Status), now, now,
	)
	return err
}

func scanDividendRows(rows *sql.Rows) ([]models.Dividend, error) {
	dividends := make([]models.Dividend, 0)
	for rows.Next() {
		var d models.Dividend
		var perShare, total, status string
		if err := rows.Scan(&d.ID, &d.AccountID, &d.AccountName, &d.Ticker, &perShare, &total, &d.PayDate, &status); err != nil {
			return nil, err
		}
		var err error
		if d.AmountPerShare, err = parseStoredDecimal("amount_per_share", perShare); err != nil {
			return nil, err
		}
		if d.TotalAmount, err = parseStoredDecimal("total_amount", total); err != nil {
			return nil, err
		}
		if d.Status, err = models.ParseDividendStatus(status); err != nil {
			return nil, err
		}
		dividends = append(dividends, d)
	}
	return dividends, rows.Err()
}

const dividendColumns = `d.id, d.account_id, a.name, d.ticker, d.amount_per_share, d.total_amount, d.pay_date, d.status`

func GetDividendByID(db *sql.DB, id string, userID int64) (*models.Dividend, error) {
	query := `
	SELECT ` + dividendColumns + `
	FROM dividends d
	JOIN accounts a ON a.id = d.account_id
	WHERE d.id = ? AND a.user_id = ?`
	var d models.Dividend
	var perShare, total, status string
	err := db.QueryRow(query, id, userID).Scan(&d.ID, &d.AccountID, &d.AccountName, &d.Ticker, &perShare, &total, &d.PayDate, &status)
	if err != nil {
		return nil, err
	}
	if d.AmountPerShare, err = parseStoredDecimal("amount_per_share", perShare); err != nil {
		return nil, err
	}
	if d.TotalAmount, err = parseStoredDecimal("total_amount", total); err != nil {
		return nil, err
	}
	if d.Status, err = models.ParseDividendStatus(status); err != nil {
		return nil, err
	}
	return &d, nil
}

func GetDividendsByAccount(db *sql.DB, accountID string, userID int64) ([]models.Dividend, error) {
	query := `
	SELECT ` + dividendColumns + `
	FROM dividends d
	JOIN accounts a ON a.id = d.account_id
	WHERE d.account_id = ? AND a.user_id = ?
	ORDER BY d.pay_date ASC, d.ticker ASC`
	rows, err := db.Query(query, accountID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDividendRows(rows)
}

func GetDividendsByPortfolio(db *sql.DB, portfolioID string, userID int64) ([]models.Dividend, error) {
	query := `
	SELECT ` + dividendColumns + `
	FROM dividends d
	JOIN accounts a ON a.id = d.account_id
	WHERE a.portfolio_id = ? AND a.user_id = ?
	ORDER BY d.pay_date ASC, d.ticker ASC`
	rows, err := db.Query(query, portfolioID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDividendRows(rows)
}

// GetPaidDividendsByPortfolio narrows to realized income only, the input
// for aggregation, cadence inference and trailing series.
func GetPaidDividendsByPortfolio(db *sql.DB, portfolioID string, userID int64) ([]models.Dividend, error) {
	query := `
	SELECT ` + dividendColumns + `
	FROM dividends d
	JOIN accounts a ON a.id = d.account_id
	WHERE a.portfolio_id = ? AND a.user_id = ? AND d.status = 'paid'
	ORDER BY d.pay_date ASC, d.ticker ASC`
	rows, err := db.Query(query, portfolioID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDividendRows(rows)
}

func UpdateDividend(db *sql.DB, d *models.Dividend, userID int64) error {
	query := `
	UPDATE dividends SET amount_per_share = ?, total_amount = ?, pay_date = ?, status = ?, updated_at = ?
	WHERE id = ? AND account_id IN (SELECT id FROM accounts WHERE user_id = ?)`
	res, err := db.Exec(query,
		d.AmountPerShare.String(), d.TotalAmount.String(),
		d.PayDate, string(d.Status), time.Now(), d.ID, userID,
	)
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

func DeleteDividend(db *sql.DB, id string, userID int64) error {
	query := `
	DELETE FROM dividends
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

// SyncDividendTotals recomputes total_amount for every dividend of a ticker
// in an account after the underlying share count changed. Totals always
// track amount_per_share times the shares currently held.
func SyncDividendTotals(db *sql.DB, accountID, ticker string, shares decimal.Decimal) error {
	rows, err := db.Query(`SELECT id, amount_per_share FROM dividends WHERE account_id = ? AND ticker = ?`, accountID, ticker)
	if err != nil {
		return err
	}
	defer rows.Close()

	type pending struct {
		id    string
		total string
	}
	updates := make([]pending, 0)
	for rows.Next() {
		var id, perShareRaw string
		if err := rows.Scan(&id, &perShareRaw); err != nil {
			return err
		}
		perShare, err := parseStoredDecimal("amount_per_share", perShareRaw)
		if err != nil {
			return err
		}
		updates = append(updates, pending{id: id, total: perShare.Mul(shares).String()})
	}
	if err := rows.Err(); err != nil {
		return err
	}

	now := time.Now()
	for _, u := range updates {
		if _, err := db.Exec(`UPDATE dividends SET total_amount = ?, updated_at = ? WHERE id = ?`, u.total, now, u.id); err != nil {
			return err
		}
	}
	return nil
}
