// backend/src/model/snapshot.go
package model

import (
	"database/sql"
	"time"

	"github.com/username/divifolio/backend/src/models"
)

// UpsertSnapshot writes the daily portfolio valuation, replacing any
// earlier snapshot for the same (portfolio, date) key.
func UpsertSnapshot(db *sql.DB, s models.ValueSnapshot) error {
	query := `
	INSERT INTO portfolio_value_snapshots (portfolio_id, date, total_value, cost_basis, is_partial, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(portfolio_id, date) DO UPDATE SET
		total_value = excluded.total_value,
		cost_basis = excluded.cost_basis,
		is_partial = excluded.is_partial,
		updated_at = excluded.updated_at`
	_, err := db.Exec(query, s.PortfolioID, s.Date, s.TotalValue.String(), s.CostBasis.String(), s.IsPartial, time.Now())
	return err
}

// GetSnapshotsInRange returns stored valuations for the inclusive [from, to]
// range in ascending date order.
func GetSnapshotsInRange(db *sql.DB, portfolioID string, from, to string) ([]models.ValueSnapshot, error) {
	query := `
	SELECT portfolio_id, date, total_value, cost_basis, is_partial
	FROM portfolio_value_snapshots
	WHERE portfolio_id = ? AND date >= ? AND date <= ?
	ORDER BY date ASC`
	rows, err := db.Query(query, portfolioID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshots := make([]models.ValueSnapshot, 0)
	for rows.Next() {
		var s models.ValueSnapshot
		var total, cost string
		if err := rows.Scan(&s.PortfolioID, &s.Date, &total, &cost, &s.IsPartial); err != nil {
			return nil, err
		}
		if s.TotalValue, err = parseStoredDecimal("total_value", total); err != nil {
			return nil, err
		}
		if s.CostBasis, err = parseStoredDecimal("cost_basis", cost); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}
