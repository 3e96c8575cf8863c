package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finsight/finance-pipeline/internal/models"
)

// UpsertPriceBar writes one daily bar. Writing a bar for an existing
// (symbol, date) replaces it atomically, so retries after partial failures
// are idempotent.
func (db *DB) UpsertPriceBar(b *models.PriceBar) error {
	query := `
		INSERT INTO price_bars (symbol, date, open, high, low, close, adjusted_close, volume, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (symbol, date) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			adjusted_close = EXCLUDED.adjusted_close,
			volume = EXCLUDED.volume,
			source = EXCLUDED.source
		RETURNING id
	`
	err := db.conn.QueryRow(query,
		b.Symbol, b.Date, b.Open, b.High, b.Low, b.Close, nullDecimal(b.AdjustedClose), b.Volume, b.Source, time.Now(),
	).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert price bar: %w", err)
	}
	return nil
}

// UpsertPriceBars writes a batch of bars in one transaction. Row-level
// conflict resolution is last-writer-wins per (symbol, date).
func (db *DB) UpsertPriceBars(bars []*models.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO price_bars (symbol, date, open, high, low, close, adjusted_close, volume, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (symbol, date) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			adjusted_close = EXCLUDED.adjusted_close,
			volume = EXCLUDED.volume,
			source = EXCLUDED.source
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, b := range bars {
		if _, err := stmt.Exec(b.Symbol, b.Date, b.Open, b.High, b.Low, b.Close, nullDecimal(b.AdjustedClose), b.Volume, b.Source, now); err != nil {
			return fmt.Errorf("failed to upsert price bar for %s: %w", b.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetLatestPriceBar retrieves the most recent bar for a symbol.
func (db *DB) GetLatestPriceBar(symbol string) (*models.PriceBar, error) {
	query := `
		SELECT id, symbol, date, open, high, low, close, adjusted_close, volume, source, created_at
		FROM price_bars
		WHERE symbol = $1
		ORDER BY date DESC
		LIMIT 1
	`
	return db.scanPriceBar(db.conn.QueryRow(query, symbol))
}

// LatestClose returns the most recent close for a symbol.
func (db *DB) LatestClose(symbol string) (decimal.Decimal, error) {
	bar, err := db.GetLatestPriceBar(symbol)
	if err != nil {
		return decimal.Zero, err
	}
	return bar.Close, nil
}

// GetPriceHistory retrieves all bars for a symbol in ascending date order.
// Indicator computation depends on this ordering.
func (db *DB) GetPriceHistory(symbol string) ([]*models.PriceBar, error) {
	query := `
		SELECT id, symbol, date, open, high, low, close, adjusted_close, volume, source, created_at
		FROM price_bars
		WHERE symbol = $1
		ORDER BY date ASC
	`
	return db.scanPriceBars(db.conn.Query(query, symbol))
}

// GetPriceRange retrieves bars for a symbol within [start, end], ascending.
func (db *DB) GetPriceRange(symbol string, start, end time.Time) ([]*models.PriceBar, error) {
	query := `
		SELECT id, symbol, date, open, high, low, close, adjusted_close, volume, source, created_at
		FROM price_bars
		WHERE symbol = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC
	`
	return db.scanPriceBars(db.conn.Query(query, symbol, start, end))
}

// nullDecimal maps a zero decimal to NULL. Providers that serve no adjusted
// close leave the field zero, which must not be stored as a real price of 0.
func nullDecimal(d decimal.Decimal) interface{} {
	if d.IsZero() {
		return nil
	}
	return d
}

func (db *DB) scanPriceBar(row *sql.Row) (*models.PriceBar, error) {
	var b models.PriceBar
	var adjClose sql.NullString

	err := row.Scan(&b.ID, &b.Symbol, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &adjClose, &b.Volume, &b.Source, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("price bar: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan price bar: %w", err)
	}
	if adjClose.Valid {
		b.AdjustedClose, _ = decimal.NewFromString(adjClose.String)
	}
	return &b, nil
}

func (db *DB) scanPriceBars(rows *sql.Rows, err error) ([]*models.PriceBar, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query price bars: %w", err)
	}
	defer rows.Close()

	var bars []*models.PriceBar
	for rows.Next() {
		var b models.PriceBar
		var adjClose sql.NullString

		err := rows.Scan(&b.ID, &b.Symbol, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &adjClose, &b.Volume, &b.Source, &b.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price bar: %w", err)
		}
		if adjClose.Valid {
			b.AdjustedClose, _ = decimal.NewFromString(adjClose.String)
		}
		bars = append(bars, &b)
	}
	return bars, rows.Err()
}
