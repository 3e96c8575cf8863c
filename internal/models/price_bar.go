package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Price source constants
const (
	SourceYahoo        = "yahoo"
	SourceAlphaVantage = "alpha_vantage"
	SourceFRED         = "fred"
	SourceStream       = "stream"
)

// PriceBar represents one daily OHLCV bar for a symbol. At most one bar
// exists per (symbol, date); later writes replace earlier ones.
type PriceBar struct {
	ID            int             `json:"id"`
	Symbol        string          `json:"symbol"`
	Date          time.Time       `json:"date"`
	Open          decimal.Decimal `json:"open"`
	High          decimal.Decimal `json:"high"`
	Low           decimal.Decimal `json:"low"`
	Close         decimal.Decimal `json:"close"`
	AdjustedClose decimal.Decimal `json:"adjusted_close,omitempty"`
	Volume        int64           `json:"volume"`
	Source        string          `json:"source"`
	CreatedAt     time.Time       `json:"created_at"`
}
