package models

import "time"

// APICall is an append-only audit record of one outbound provider request.
// These rows are the factual basis for rate-limit accounting.
type APICall struct {
	ID        int64     `json:"id"`
	Source    string    `json:"source"`
	Endpoint  string    `json:"endpoint"`
	Symbol    string    `json:"symbol,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}
