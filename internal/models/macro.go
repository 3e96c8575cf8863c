package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Observation frequency constants
const (
	FrequencyDaily     = "daily"
	FrequencyWeekly    = "weekly"
	FrequencyMonthly   = "monthly"
	FrequencyQuarterly = "quarterly"
)

// MacroObservation represents a single observation of a macroeconomic
// indicator series, keyed by (indicator, date). Append-only in practice.
type MacroObservation struct {
	Indicator string          `json:"indicator"`
	Date      time.Time       `json:"date"`
	Value     decimal.Decimal `json:"value"`
	Frequency string          `json:"frequency"`
	Source    string          `json:"source"`
	CreatedAt time.Time       `json:"created_at"`
}
