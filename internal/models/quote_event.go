package models

import "time"

// Quote event type constants
const (
	EventTypeQuote          = "QUOTE"
	EventTypeAlertTriggered = "ALERT_TRIGGERED"
)

// QuoteEvent is the wire shape for streamed intraday quotes. Numeric fields
// travel as strings so producers in other languages don't lose precision.
type QuoteEvent struct {
	EventType string    `json:"event_type"`
	Source    string    `json:"source"`
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	Data      QuoteData `json:"data"`
}

// QuoteData carries the OHLCV payload of a QuoteEvent.
type QuoteData struct {
	Date   string `json:"date"` // YYYY-MM-DD trading date the quote belongs to
	Open   string `json:"open"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Close  string `json:"close"`
	Volume string `json:"volume"`
}
