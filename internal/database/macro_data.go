package database

import (
	"fmt"
	"time"

	"github.com/finsight/finance-pipeline/internal/models"
)

// UpsertMacroObservations writes a batch of macro observations in one
// transaction, keyed by (indicator, date).
func (db *DB) UpsertMacroObservations(obs []*models.MacroObservation) error {
	if len(obs) == 0 {
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO macro_data (indicator, date, value, frequency, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (indicator, date) DO UPDATE SET
			value = EXCLUDED.value,
			frequency = EXCLUDED.frequency,
			source = EXCLUDED.source
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, o := range obs {
		if _, err := stmt.Exec(o.Indicator, o.Date, o.Value, o.Frequency, o.Source, now); err != nil {
			return fmt.Errorf("failed to upsert macro observation for %s: %w", o.Indicator, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetMacroSeries retrieves all observations for an indicator, ascending by date.
func (db *DB) GetMacroSeries(indicator string) ([]*models.MacroObservation, error) {
	query := `
		SELECT indicator, date, value, frequency, source, created_at
		FROM macro_data
		WHERE indicator = $1
		ORDER BY date ASC
	`
	rows, err := db.conn.Query(query, indicator)
	if err != nil {
		return nil, fmt.Errorf("failed to query macro series: %w", err)
	}
	defer rows.Close()

	var series []*models.MacroObservation
	for rows.Next() {
		var o models.MacroObservation
		if err := rows.Scan(&o.Indicator, &o.Date, &o.Value, &o.Frequency, &o.Source, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan macro observation: %w", err)
		}
		series = append(series, &o)
	}
	return series, rows.Err()
}

// GetMacroIndicators returns the distinct indicator codes present in the store.
func (db *DB) GetMacroIndicators() ([]string, error) {
	rows, err := db.conn.Query(`SELECT DISTINCT indicator FROM macro_data ORDER BY indicator`)
	if err != nil {
		return nil, fmt.Errorf("failed to query macro indicators: %w", err)
	}
	defer rows.Close()

	var indicators []string
	for rows.Next() {
		var ind string
		if err := rows.Scan(&ind); err != nil {
			return nil, fmt.Errorf("failed to scan indicator: %w", err)
		}
		indicators = append(indicators, ind)
	}
	return indicators, rows.Err()
}
