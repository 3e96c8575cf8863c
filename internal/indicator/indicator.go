// Package indicator derives technical indicator series from daily price
// history. Series are always computed from the full stored history; values
// before an indicator's warm-up window are simply not emitted.
package indicator

import (
	"errors"
	"time"

	"github.com/finsight/finance-pipeline/internal/models"
)

// ErrInsufficientHistory indicates the price history is shorter than the
// indicator's warm-up window.
var ErrInsufficientHistory = errors.New("insufficient history")

// Point is one dated value within a derived series.
type Point struct {
	Date  time.Time
	Value float64
}

func closes(bars []models.PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close.InexactFloat64()
	}
	return out
}
