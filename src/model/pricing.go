// backend/src/model/pricing.go
package model

import (
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/divifolio/backend/src/models"
)

// UpsertPrice writes one close price for a ticker on a day, replacing any
// earlier value for the same (ticker, date) key.
func UpsertPrice(db *sql.DB, p models.PricePoint) error {
	query := `
	INSERT INTO price_history (ticker, date, close_price, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(ticker, date) DO UPDATE SET close_price = excluded.close_price, updated_at = excluded.updated_at`
	_, err := db.Exec(query, p.Ticker, p.Date, p.Close.String(), time.Now())
	return err
}

// GetLatestPrices returns the most recent cached close per ticker.
func GetLatestPrices(db *sql.DB, tickers []string) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal)
	if len(tickers) == 0 {
		return prices, nil
	}
	query := `
	SELECT p.ticker, p.close_price
	FROM price_history p
	JOIN (
		SELECT ticker, MAX(date) AS max_date
		FROM price_history
		WHERE ticker IN (?` + strings.Repeat(",?", len(tickers)-1) + `)
		GROUP BY ticker
	) latest ON latest.ticker = p.ticker AND latest.max_date = p.date`
	args := make([]interface{}, len(tickers))
	for i, t := range tickers {
		args[i] = t
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var ticker, raw string
		if err := rows.Scan(&ticker, &raw); err != nil {
			return nil, err
		}
		price, err := parseStoredDecimal("close_price", raw)
		if err != nil {
			return nil, err
		}
		prices[ticker] = price
	}
	return prices, rows.Err()
}

// GetPricesInRange returns cached prices keyed by date then ticker for the
// inclusive [from, to] date range.
func GetPricesInRange(db *sql.DB, tickers []string, from, to string) (map[string]map[string]decimal.Decimal, error) {
	byDate := make(map[string]map[string]decimal.Decimal)
	if len(tickers) == 0 {
		return byDate, nil
	}
	query := `
	SELECT ticker, date, close_price
	FROM price_history
	WHERE date >= ? AND date <= ? AND ticker IN (?` + strings.Repeat(",?", len(tickers)-1) + `)
	ORDER BY date ASC`
	args := make([]interface{}, 0, len(tickers)+2)
	args = append(args, from, to)
	for _, t := range tickers {
		args = append(args, t)
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var ticker, date, raw string
		if err := rows.Scan(&ticker, &date, &raw); err != nil {
			return nil, err
		}
		price, err := parseStoredDecimal("close_price", raw)
		if err != nil {
			return nil, err
		}
		if byDate[date] == nil {
			byDate[date] = make(map[string]decimal.Decimal)
		}
		byDate[date][ticker] = price
	}
	return byDate, rows.Err()
}

// GetPriceDatesInRange lists the distinct dates that have at least one
// cached price in the inclusive range, ascending.
func GetPriceDatesInRange(db *sql.DB, from, to string) ([]string, error) {
	rows, err := db.Query(`SELECT DISTINCT date FROM price_history WHERE date >= ? AND date <= ? ORDER BY date ASC`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dates := make([]string, 0)
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// GetLatestPriceDate returns the newest cached date for a ticker, or empty
// when the ticker has no cached history yet.
func GetLatestPriceDate(db *sql.DB, ticker string) (string, error) {
	var date sql.NullString
	err := db.QueryRow(`SELECT MAX(date) FROM price_history WHERE ticker = ?`, ticker).Scan(&date)
	if err != nil {
		return "", err
	}
	return date.String, nil
}
