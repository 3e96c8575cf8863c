package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finsight/finance-pipeline/internal/models"
)

// UpsertSymbol inserts or updates catalog metadata for a symbol. The
// favorited flag is preserved on update; it only changes via ToggleFavorite.
func (db *DB) UpsertSymbol(s *models.Symbol) error {
	query := `
		INSERT INTO symbols (symbol, name, sector, industry, exchange, country, currency, asset_class, favorited, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (symbol) DO UPDATE SET
			name = EXCLUDED.name,
			sector = EXCLUDED.sector,
			industry = EXCLUDED.industry,
			exchange = EXCLUDED.exchange,
			country = EXCLUDED.country,
			currency = EXCLUDED.currency,
			asset_class = EXCLUDED.asset_class,
			updated_at = EXCLUDED.updated_at
	`
	now := time.Now()
	if s.AssetClass == "" {
		s.AssetClass = models.AssetClassEquity
	}
	_, err := db.conn.Exec(query,
		s.Symbol, s.Name, s.Sector, s.Industry, s.Exchange, s.Country, s.Currency,
		s.AssetClass, s.Favorited, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert symbol %s: %w", s.Symbol, err)
	}
	return nil
}

// GetSymbol retrieves one symbol by ticker.
func (db *DB) GetSymbol(symbol string) (*models.Symbol, error) {
	query := `
		SELECT symbol, name, sector, industry, exchange, country, currency, asset_class, favorited, created_at, updated_at
		FROM symbols
		WHERE symbol = $1
	`
	var s models.Symbol
	var name, sector, industry, exchange, country, currency sql.NullString

	err := db.conn.QueryRow(query, symbol).Scan(
		&s.Symbol, &name, &sector, &industry, &exchange, &country, &currency,
		&s.AssetClass, &s.Favorited, &s.CreatedAt, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("symbol %s: %w", symbol, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get symbol: %w", err)
	}

	s.Name = name.String
	s.Sector = sector.String
	s.Industry = industry.String
	s.Exchange = exchange.String
	s.Country = country.String
	s.Currency = currency.String
	return &s, nil
}

// ToggleFavorite flips the favorited flag for a symbol and returns the new state.
func (db *DB) ToggleFavorite(symbol string) (bool, error) {
	query := `
		UPDATE symbols
		SET favorited = NOT favorited, updated_at = $2
		WHERE symbol = $1
		RETURNING favorited
	`
	var favorited bool
	err := db.conn.QueryRow(query, symbol, time.Now()).Scan(&favorited)
	if err == sql.ErrNoRows {
		return false, fmt.Errorf("symbol %s: %w", symbol, ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("failed to toggle favorite: %w", err)
	}
	return favorited, nil
}

// FavoritedSymbols returns the tickers of all favorited symbols. This set is
// the scope of the background refresh cycle.
func (db *DB) FavoritedSymbols() ([]string, error) {
	rows, err := db.conn.Query(`SELECT symbol FROM symbols WHERE favorited = true ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorited symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}

// GetSymbolQuotes returns every symbol that has cached price data, joined
// with its latest close and the percent change against the previous bar.
func (db *DB) GetSymbolQuotes() ([]models.SymbolQuote, error) {
	query := `
		SELECT s.symbol, COALESCE(s.name, ''), s.favorited, latest.close, latest.date, prev.close
		FROM symbols s
		JOIN LATERAL (
			SELECT close, date FROM price_bars
			WHERE symbol = s.symbol ORDER BY date DESC LIMIT 1
		) latest ON true
		LEFT JOIN LATERAL (
			SELECT close FROM price_bars
			WHERE symbol = s.symbol ORDER BY date DESC LIMIT 1 OFFSET 1
		) prev ON true
		ORDER BY s.symbol
	`
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbol quotes: %w", err)
	}
	defer rows.Close()

	var quotes []models.SymbolQuote
	for rows.Next() {
		var q models.SymbolQuote
		var prevClose sql.NullString

		err := rows.Scan(&q.Symbol, &q.Name, &q.Favorited, &q.Price, &q.AsOf, &prevClose)
		if err != nil {
			return nil, fmt.Errorf("failed to scan symbol quote: %w", err)
		}

		q.ChangeDirection = "unchanged"
		if prevClose.Valid {
			prev, err := decimal.NewFromString(prevClose.String)
			if err == nil && prev.IsPositive() {
				q.ChangePercent = q.Price.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).Round(4)
				switch {
				case q.ChangePercent.IsPositive():
					q.ChangeDirection = "up"
				case q.ChangePercent.IsNegative():
					q.ChangeDirection = "down"
				}
			}
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}
