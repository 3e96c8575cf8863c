package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/finsight/finance-pipeline/internal/models"
)

// CreatePosition inserts a new portfolio position.
func (db *DB) CreatePosition(p *models.Position) error {
	query := `
		INSERT INTO positions (symbol, quantity, entry_price, side, entry_date, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	now := time.Now()
	if p.Side == "" {
		p.Side = models.SideLong
	}
	err := db.conn.QueryRow(query,
		p.Symbol, p.Quantity, p.EntryPrice, p.Side, p.EntryDate, p.Notes, now,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to create position: %w", err)
	}
	p.CreatedAt = now
	return nil
}

// GetPositions retrieves all positions, newest first.
func (db *DB) GetPositions() ([]*models.Position, error) {
	query := `
		SELECT id, symbol, quantity, entry_price, side, entry_date, notes, created_at
		FROM positions
		ORDER BY entry_date DESC, id DESC
	`
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []*models.Position
	for rows.Next() {
		var p models.Position
		var notes sql.NullString

		err := rows.Scan(&p.ID, &p.Symbol, &p.Quantity, &p.EntryPrice, &p.Side, &p.EntryDate, &notes, &p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		p.Notes = notes.String
		positions = append(positions, &p)
	}
	return positions, rows.Err()
}

// DeletePosition removes a position by ID.
func (db *DB) DeletePosition(id int64) error {
	result, err := db.conn.Exec(`DELETE FROM positions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete position: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("position %d: %w", id, ErrNotFound)
	}
	return nil
}
