// backend/src/model/portfolio.go
package model

import (
	"database/sql"
	"time"

	"github.com/username/divifolio/backend/src/models"
)

func CreatePortfolio(db *sql.DB, p *models.Portfolio) error {
	p.CreatedAt = time.Now()
	query := `
	INSERT INTO portfolios (id, user_id, name, description, is_default, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`
	_, err := db.Exec(query, p.ID, p.UserID, p.Name, p.Description, p.IsDefault, p.CreatedAt)
	return err
}

func scanPortfolio(row *sql.Row) (*models.Portfolio, error) {
	var p models.Portfolio
	var description sql.NullString
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &description, &p.IsDefault, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.Description = description.String
	return &p, nil
}

// GetPortfolioByID scopes the lookup to the owning user so one user can
// never address another user's portfolio by guessing IDs.
func GetPortfolioByID(db *sql.DB, id string, userID int64) (*models.Portfolio, error) {
	query := `
	SELECT id, user_id, name, description, is_default, created_at
	FROM portfolios WHERE id = ? AND user_id = ?`
	return scanPortfolio(db.QueryRow(query, id, userID))
}

func GetPortfoliosByUser(db *sql.DB, userID int64) ([]models.Portfolio, error) {
	query := `
	SELECT id, user_id, name, description, is_default, created_at
	FROM portfolios WHERE user_id = ? ORDER BY created_at ASC, name ASC`
	rows, err := db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	portfolios := make([]models.Portfolio, 0)
	for rows.Next() {
		var p models.Portfolio
		var description sql.NullString
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &description, &p.IsDefault, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Description = description.String
		portfolios = append(portfolios, p)
	}
	return portfolios, rows.Err()
}

// GetAllPortfolios lists every portfolio across all users, for the daily
// snapshot job.
func GetAllPortfolios(db *sql.DB) ([]models.Portfolio, error) {
	query := `
	SELECT id, user_id, name, description, is_default, created_at
	FROM portfolios ORDER BY user_id ASC, created_at ASC`
	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	portfolios := make([]models.Portfolio, 0)
	for rows.Next() {
		var p models.Portfolio
		var description sql.NullString
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &description, &p.IsDefault, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Description = description.String
		portfolios = append(portfolios, p)
	}
	return portfolios, rows.Err()
}

func CountPortfoliosByUser(db *sql.DB, userID int64) (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM portfolios WHERE user_id = ?`, userID).Scan(&count)
	return count, err
}

func UpdatePortfolio(db *sql.DB, p *models.Portfolio) error {
	query := `UPDATE portfolios SET name = ?, description = ? WHERE id = ? AND user_id = ?`
	res, err := db.Exec(query, p.Name, p.Description, p.ID, p.UserID)
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

// SetDefaultPortfolio marks one portfolio as the user's default and clears
// the flag on every other portfolio in the same statement batch.
func SetDefaultPortfolio(db *sql.DB, id string, userID int64) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE portfolios SET is_default = 0 WHERE user_id = ?`, userID); err != nil {
		return err
	}
	res, err := tx.Exec(`UPDATE portfolios SET is_default = 1 WHERE id = ? AND user_id = ?`, id, userID)
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
	return tx.Commit()
}

// DeletePortfolio removes the portfolio; accounts, holdings, dividends and
// snapshots underneath it go with it via foreign key cascade.
func DeletePortfolio(db *sql.DB, id string, userID int64) error {
	res, err := db.Exec(`DELETE FROM portfolios WHERE id = ? AND user_id = ?`, id, userID)
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

func CreateAccount(db *sql.DB, a *models.Account) error {
	a.CreatedAt = time.Now()
	query := `
	INSERT INTO accounts (id, portfolio_id, user_id, name, broker, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`
	_, err := db.Exec(query, a.ID, a.PortfolioID, a.UserID, a.Name, a.Broker, a.CreatedAt)
	return err
}

func GetAccountByID(db *sql.DB, id string, userID int64) (*models.Account, error) {
	query := `
	SELECT id, portfolio_id, user_id, name, broker, created_at
	FROM accounts WHERE id = ? AND user_id = ?`
	var a models.Account
	var broker sql.NullString
	err := db.QueryRow(query, id, userID).Scan(&a.ID, &a.PortfolioID, &a.UserID, &a.Name, &broker, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.Broker = broker.String
	return &a, nil
}

func GetAccountsByPortfolio(db *sql.DB, portfolioID string, userID int64) ([]models.Account, error) {
	query := `
	SELECT id, portfolio_id, user_id, name, broker, created_at
	FROM accounts WHERE portfolio_id = ? AND user_id = ? ORDER BY name ASC`
	rows, err := db.Query(query, portfolioID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]models.Account, 0)
	for rows.Next() {
		var a models.Account
		var broker sql.NullString
		if err := rows.Scan(&a.ID, &a.PortfolioID, &a.UserID, &a.Name, &broker, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Broker = broker.String
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// GetAccountNamesByPortfolio returns an account ID to display name map for
// the trailing-income series.
func GetAccountNamesByPortfolio(db *sql.DB, portfolioID string, userID int64) (map[string]string, error) {
	rows, err := db.Query(`SELECT id, name FROM accounts WHERE portfolio_id = ? AND user_id = ?`, portfolioID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}

func UpdateAccount(db *sql.DB, a *models.Account) error {
	query := `UPDATE accounts SET name = ?, broker = ? WHERE id = ? AND user_id = ?`
	res, err := db.Exec(query, a.Name, a.Broker, a.ID, a.UserID)
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

func DeleteAccount(db *sql.DB, id string, userID int64) error {
	res, err := db.Exec(`DELETE FROM accounts WHERE id = ? AND user_id = ?`, id, userID)
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
