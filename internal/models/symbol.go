package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Asset class constants
const (
	AssetClassEquity = "equity"
	AssetClassETF    = "etf"
	AssetClassIndex  = "index"
)

// Symbol represents catalog metadata for a tradable instrument.
// Symbols are never hard-deleted; absence of price rows implies soft absence.
type Symbol struct {
	Symbol     string    `json:"symbol"`
	Name       string    `json:"name,omitempty"`
	Sector     string    `json:"sector,omitempty"`
	Industry   string    `json:"industry,omitempty"`
	Exchange   string    `json:"exchange,omitempty"`
	Country    string    `json:"country,omitempty"`
	Currency   string    `json:"currency,omitempty"`
	AssetClass string    `json:"asset_class"`
	Favorited  bool      `json:"favorited"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SymbolQuote is a symbol joined with its latest cached price and the
// percent change against the previous bar. Built at read time, never stored.
type SymbolQuote struct {
	Symbol          string          `json:"symbol"`
	Name            string          `json:"name,omitempty"`
	Favorited       bool            `json:"favorited"`
	Price           decimal.Decimal `json:"price"`
	ChangePercent   decimal.Decimal `json:"change_percent"`
	ChangeDirection string          `json:"change_direction"` // "up", "down", or "unchanged"
	AsOf            time.Time       `json:"as_of"`
}
