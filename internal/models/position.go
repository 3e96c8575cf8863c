package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position side constants
const (
	SideLong  = "long"
	SideShort = "short"
)

// Position represents a portfolio holding. Current value and P&L are
// derived from the latest cached price at read time, never stored.
type Position struct {
	ID         int64           `json:"id"`
	Symbol     string          `json:"symbol"`
	Quantity   decimal.Decimal `json:"quantity"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	Side       string          `json:"side"`
	EntryDate  time.Time       `json:"entry_date"`
	Notes      string          `json:"notes,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// PositionView is a position enriched with price-derived fields.
type PositionView struct {
	Position
	CurrentPrice      decimal.Decimal `json:"current_price"`
	CurrentValue      decimal.Decimal `json:"current_value"`
	CostBasis         decimal.Decimal `json:"cost_basis"`
	ProfitLoss        decimal.Decimal `json:"profit_loss"`
	ProfitLossPercent decimal.Decimal `json:"profit_loss_percent"`
}

// PortfolioSummary aggregates all positions with derived totals.
type PortfolioSummary struct {
	Positions              []PositionView  `json:"positions"`
	TotalValue             decimal.Decimal `json:"total_value"`
	TotalCost              decimal.Decimal `json:"total_cost"`
	TotalProfitLoss        decimal.Decimal `json:"total_profit_loss"`
	TotalProfitLossPercent decimal.Decimal `json:"total_profit_loss_percent"`
}
