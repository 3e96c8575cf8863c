package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/finsight/finance-pipeline/internal/models"
)

// CreateWatchlist creates a named watchlist with the given member symbols.
// Names are unique; a duplicate surfaces as ErrConstraintViolation.
func (db *DB) CreateWatchlist(w *models.Watchlist) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	err = tx.QueryRow(`
		INSERT INTO watchlists (name, description, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`, w.Name, w.Description, now).Scan(&w.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("watchlist %q already exists: %w", w.Name, ErrConstraintViolation)
		}
		return fmt.Errorf("failed to create watchlist: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO watchlist_symbols (watchlist_id, symbol) VALUES ($1, $2) ON CONFLICT DO NOTHING`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, symbol := range w.Symbols {
		if _, err := stmt.Exec(w.ID, symbol); err != nil {
			return fmt.Errorf("failed to add %s to watchlist: %w", symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	w.CreatedAt = now
	return nil
}

// GetWatchlist retrieves a watchlist and its member symbols by name.
func (db *DB) GetWatchlist(name string) (*models.Watchlist, error) {
	var w models.Watchlist
	var description sql.NullString

	err := db.conn.QueryRow(`
		SELECT id, name, description, created_at
		FROM watchlists
		WHERE name = $1
	`, name).Scan(&w.ID, &w.Name, &description, &w.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("watchlist %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get watchlist: %w", err)
	}
	w.Description = description.String

	rows, err := db.conn.Query(`SELECT symbol FROM watchlist_symbols WHERE watchlist_id = $1 ORDER BY symbol`, w.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist symbols: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist symbol: %w", err)
		}
		w.Symbols = append(w.Symbols, symbol)
	}
	return &w, rows.Err()
}

// ListWatchlists retrieves all watchlists without their memberships.
func (db *DB) ListWatchlists() ([]*models.Watchlist, error) {
	rows, err := db.conn.Query(`SELECT id, name, description, created_at FROM watchlists ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlists: %w", err)
	}
	defer rows.Close()

	var lists []*models.Watchlist
	for rows.Next() {
		var w models.Watchlist
		var description sql.NullString
		if err := rows.Scan(&w.ID, &w.Name, &description, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist: %w", err)
		}
		w.Description = description.String
		lists = append(lists, &w)
	}
	return lists, rows.Err()
}

// DeleteWatchlist removes a watchlist by name. Membership rows cascade;
// symbols and price bars are untouched.
func (db *DB) DeleteWatchlist(name string) error {
	result, err := db.conn.Exec(`DELETE FROM watchlists WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to delete watchlist: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("watchlist %q: %w", name, ErrNotFound)
	}
	return nil
}
