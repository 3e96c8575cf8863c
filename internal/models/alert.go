package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Alert condition constants
const (
	ConditionAbove = "above"
	ConditionBelow = "below"
)

// Alert represents a user-defined price alert. Once triggered it stays
// triggered until deleted; re-arming means delete and recreate.
type Alert struct {
	ID          int64           `json:"id"`
	Symbol      string          `json:"symbol"`
	TargetPrice decimal.Decimal `json:"target_price"`
	Condition   string          `json:"condition"`
	Triggered   bool            `json:"triggered"`
	CreatedAt   time.Time       `json:"created_at"`
}

// AlertEvent is the wire shape published when an alert trips.
type AlertEvent struct {
	EventType   string          `json:"event_type"`
	AlertID     int64           `json:"alert_id"`
	Symbol      string          `json:"symbol"`
	TargetPrice decimal.Decimal `json:"target_price"`
	Condition   string          `json:"condition"`
	Price       decimal.Decimal `json:"price"`
	Timestamp   time.Time       `json:"timestamp"`
}
