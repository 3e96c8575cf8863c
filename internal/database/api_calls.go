package database

import (
	"fmt"
	"time"

	"github.com/finsight/finance-pipeline/internal/models"
)

// LogAPICall appends one outbound-request audit row. Rows are never updated
// or deleted by the pipeline.
func (db *DB) LogAPICall(call *models.APICall) error {
	query := `
		INSERT INTO api_calls (source, endpoint, symbol, timestamp, success, error)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	if call.Timestamp.IsZero() {
		call.Timestamp = time.Now()
	}
	err := db.conn.QueryRow(query,
		call.Source, call.Endpoint, call.Symbol, call.Timestamp, call.Success, call.Error,
	).Scan(&call.ID)
	if err != nil {
		return fmt.Errorf("failed to log api call: %w", err)
	}
	return nil
}

// CountAPICallsSince counts audit rows for a source with timestamp at or
// after the window start. When includeFailures is false only successful
// calls count toward the quota.
func (db *DB) CountAPICallsSince(source string, since time.Time, includeFailures bool) (int, error) {
	query := `SELECT COUNT(*) FROM api_calls WHERE source = $1 AND timestamp >= $2`
	if !includeFailures {
		query += ` AND success = true`
	}

	var count int
	if err := db.conn.QueryRow(query, source, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count api calls: %w", err)
	}
	return count, nil
}

// RecentAPICalls retrieves the newest audit rows for a source, for inspection.
func (db *DB) RecentAPICalls(source string, limit int) ([]*models.APICall, error) {
	query := `
		SELECT id, source, endpoint, symbol, timestamp, success, error
		FROM api_calls
		WHERE source = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`
	rows, err := db.conn.Query(query, source, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query api calls: %w", err)
	}
	defer rows.Close()

	var calls []*models.APICall
	for rows.Next() {
		var c models.APICall
		if err := rows.Scan(&c.ID, &c.Source, &c.Endpoint, &c.Symbol, &c.Timestamp, &c.Success, &c.Error); err != nil {
			return nil, fmt.Errorf("failed to scan api call: %w", err)
		}
		calls = append(calls, &c)
	}
	return calls, rows.Err()
}
