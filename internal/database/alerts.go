package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/finsight/finance-pipeline/internal/models"
)

// CreateAlert inserts a new price alert.
func (db *DB) CreateAlert(a *models.Alert) error {
	query := `
		INSERT INTO price_alerts (symbol, target_price, condition, triggered, created_at)
		VALUES ($1, $2, $3, false, $4)
		RETURNING id
	`
	now := time.Now()
	err := db.conn.QueryRow(query, a.Symbol, a.TargetPrice, a.Condition, now).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	a.Triggered = false
	a.CreatedAt = now
	return nil
}

// GetAlerts retrieves alerts, optionally restricted to untriggered ones.
func (db *DB) GetAlerts(onlyActive bool) ([]*models.Alert, error) {
	query := `
		SELECT id, symbol, target_price, condition, triggered, created_at
		FROM price_alerts
	`
	if onlyActive {
		query += ` WHERE triggered = false`
	}
	query += ` ORDER BY created_at DESC`

	return db.scanAlerts(db.conn.Query(query))
}

// UntriggeredAlerts retrieves all alerts whose condition has not yet fired.
// The evaluator never revisits triggered alerts, which keeps the triggered
// flag monotonic until explicit deletion.
func (db *DB) UntriggeredAlerts() ([]*models.Alert, error) {
	query := `
		SELECT id, symbol, target_price, condition, triggered, created_at
		FROM price_alerts
		WHERE triggered = false
		ORDER BY symbol, id
	`
	return db.scanAlerts(db.conn.Query(query))
}

func (db *DB) scanAlerts(rows *sql.Rows, err error) ([]*models.Alert, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*models.Alert
	for rows.Next() {
		var a models.Alert
		if err := rows.Scan(&a.ID, &a.Symbol, &a.TargetPrice, &a.Condition, &a.Triggered, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, &a)
	}
	return alerts, rows.Err()
}

// MarkAlertTriggered sets the triggered flag. There is no reverse operation;
// re-arming an alert means deleting and recreating it.
func (db *DB) MarkAlertTriggered(id int64) error {
	result, err := db.conn.Exec(`UPDATE price_alerts SET triggered = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark alert triggered: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("alert %d: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteAlert removes an alert by ID.
func (db *DB) DeleteAlert(id int64) error {
	result, err := db.conn.Exec(`DELETE FROM price_alerts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("alert %d: %w", id, ErrNotFound)
	}
	return nil
}
