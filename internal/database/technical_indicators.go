package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/finsight/finance-pipeline/internal/models"
)

// ReplaceIndicators stores a freshly computed indicator batch for a symbol.
// The engine always recomputes series wholesale, so previous rows for the
// symbol are dropped in the same transaction to avoid stale tails.
func (db *DB) ReplaceIndicators(symbol string, indicators []*models.TechnicalIndicator) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM technical_indicators WHERE symbol = $1`, symbol); err != nil {
		return fmt.Errorf("failed to clear indicators for %s: %w", symbol, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO technical_indicators (symbol, date, indicator_name, value, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (symbol, date, indicator_name) DO UPDATE SET
			value = EXCLUDED.value
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, ind := range indicators {
		if _, err := stmt.Exec(ind.Symbol, ind.Date, ind.IndicatorName, ind.Value, now); err != nil {
			return fmt.Errorf("failed to insert indicator %s for %s: %w", ind.IndicatorName, ind.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetIndicatorHistory retrieves one indicator series for a symbol, ascending by date.
func (db *DB) GetIndicatorHistory(symbol, indicatorName string) ([]*models.TechnicalIndicator, error) {
	query := `
		SELECT id, symbol, date, indicator_name, value, created_at
		FROM technical_indicators
		WHERE symbol = $1 AND indicator_name = $2
		ORDER BY date ASC
	`
	return db.scanIndicators(db.conn.Query(query, symbol, indicatorName))
}

// GetLatestIndicators retrieves the most recent value of every indicator for a symbol.
func (db *DB) GetLatestIndicators(symbol string) ([]*models.TechnicalIndicator, error) {
	query := `
		SELECT DISTINCT ON (indicator_name) id, symbol, date, indicator_name, value, created_at
		FROM technical_indicators
		WHERE symbol = $1
		ORDER BY indicator_name, date DESC
	`
	return db.scanIndicators(db.conn.Query(query, symbol))
}

func (db *DB) scanIndicators(rows *sql.Rows, err error) ([]*models.TechnicalIndicator, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query indicators: %w", err)
	}
	defer rows.Close()

	var indicators []*models.TechnicalIndicator
	for rows.Next() {
		var ind models.TechnicalIndicator
		if err := rows.Scan(&ind.ID, &ind.Symbol, &ind.Date, &ind.IndicatorName, &ind.Value, &ind.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan indicator: %w", err)
		}
		indicators = append(indicators, &ind)
	}
	return indicators, rows.Err()
}
