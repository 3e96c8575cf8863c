package models

import "time"

// Watchlist is a named set of symbols. Membership is unordered. Deleting a
// watchlist cascades to its membership rows but never touches symbols or
// price data; a watchlist is a view over symbols, not an owner of them.
type Watchlist struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Symbols     []string  `json:"symbols"`
	CreatedAt   time.Time `json:"created_at"`
}
