// Package fetcher pulls price and macro series from external providers.
// Every outbound request passes through a rate-limit gate; a denied
// acquire aborts the remaining batch instead of hammering the provider.
package fetcher

import (
	"context"
	"errors"
	"time"

	"github.com/finsight/finance-pipeline/internal/models"
	"github.com/finsight/finance-pipeline/internal/ratelimit"
)

// ErrSourceUnavailable indicates the provider could not be reached or
// returned an unusable response for the whole batch.
var ErrSourceUnavailable = errors.New("source unavailable")

// Range selects how much history a price fetch requests.
type Range string

const (
	// RangeCompact covers recent history, enough to keep a warm cache current.
	RangeCompact Range = "compact"
	// RangeFull covers the provider's maximum daily history for backfills.
	RangeFull Range = "full"
)

// Gate is the slice of the rate limiter the adapters depend on.
type Gate interface {
	TryAcquire(source string) (ratelimit.Result, error)
	Record(source, endpoint, symbol string, success bool, errMsg string) error
}

// SymbolStatus reports the outcome for one symbol within a batch.
type SymbolStatus struct {
	Symbol  string `json:"symbol"`
	Fetched int    `json:"fetched"`
	Error   string `json:"error,omitempty"`
}

// BatchResult aggregates a multi-symbol fetch. A partial failure is not an
// error: callers persist whatever arrived and report Statuses per symbol.
type BatchResult struct {
	Source         string                    `json:"source"`
	Succeeded      int                       `json:"succeeded"`
	Failed         int                       `json:"failed"`
	QuotaExhausted bool                      `json:"quota_exhausted"`
	RetryAfter     time.Duration             `json:"retry_after,omitempty"`
	Statuses       []SymbolStatus            `json:"statuses"`
	Bars           []models.PriceBar         `json:"-"`
	Observations   []models.MacroObservation `json:"-"`
}

// PriceAdapter fetches daily OHLCV history for equity symbols.
type PriceAdapter interface {
	Name() string
	FetchPrices(ctx context.Context, symbols []string, rng Range) (*BatchResult, error)
}

// MacroAdapter fetches macroeconomic indicator series.
type MacroAdapter interface {
	Name() string
	FetchMacro(ctx context.Context, indicators []string) (*BatchResult, error)
}
