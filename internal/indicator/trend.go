package indicator

import (
	"math"

	"github.com/finsight/finance-pipeline/internal/models"
)

// ATR computes the Wilder-smoothed average true range. Requires period+1
// bars because the true range looks back at the previous close.
func ATR(bars []models.PriceBar, period int) ([]Point, error) {
	if period <= 0 || len(bars) < period+1 {
		return nil, ErrInsufficientHistory
	}

	trs := trueRanges(bars)

	seed := 0.0
	for i := 0; i < period; i++ {
		seed += trs[i]
	}
	atr := seed / float64(period)

	points := make([]Point, 0, len(trs)-period+1)
	points = append(points, Point{Date: bars[period].Date, Value: atr})

	for i := period; i < len(trs); i++ {
		atr = (atr*float64(period-1) + trs[i]) / float64(period)
		points = append(points, Point{Date: bars[i+1].Date, Value: atr})
	}
	return points, nil
}

// ADX computes the average directional index, a trend-strength measure.
// Requires 2*period+1 bars for the double smoothing to warm up.
func ADX(bars []models.PriceBar, period int) ([]Point, error) {
	if period <= 0 || len(bars) < period*2+1 {
		return nil, ErrInsufficientHistory
	}

	n := len(bars) - 1
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	trs := trueRanges(bars)

	for i := 1; i < len(bars); i++ {
		upMove := bars[i].High.InexactFloat64() - bars[i-1].High.InexactFloat64()
		downMove := bars[i-1].Low.InexactFloat64() - bars[i].Low.InexactFloat64()

		if upMove > downMove && upMove > 0 {
			plusDM[i-1] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i-1] = downMove
		}
	}

	var smoothPlusDM, smoothMinusDM, smoothTR float64
	for i := 0; i < period; i++ {
		smoothPlusDM += plusDM[i]
		smoothMinusDM += minusDM[i]
		smoothTR += trs[i]
	}

	dxValues := make([]Point, 0, n-period)
	for i := period; i < n; i++ {
		smoothPlusDM = smoothPlusDM - smoothPlusDM/float64(period) + plusDM[i]
		smoothMinusDM = smoothMinusDM - smoothMinusDM/float64(period) + minusDM[i]
		smoothTR = smoothTR - smoothTR/float64(period) + trs[i]

		var plusDI, minusDI float64
		if smoothTR != 0 {
			plusDI = 100.0 * smoothPlusDM / smoothTR
			minusDI = 100.0 * smoothMinusDM / smoothTR
		}

		dx := 0.0
		if diSum := plusDI + minusDI; diSum != 0 {
			dx = 100.0 * math.Abs(plusDI-minusDI) / diSum
		}
		dxValues = append(dxValues, Point{Date: bars[i+1].Date, Value: dx})
	}

	if len(dxValues) < period {
		return nil, ErrInsufficientHistory
	}

	seed := 0.0
	for i := 0; i < period; i++ {
		seed += dxValues[i].Value
	}
	adx := seed / float64(period)

	points := make([]Point, 0, len(dxValues)-period+1)
	for i := period - 1; i < len(dxValues); i++ {
		if i >= period {
			adx = (adx*float64(period-1) + dxValues[i].Value) / float64(period)
		}
		points = append(points, Point{Date: dxValues[i].Date, Value: adx})
	}
	return points, nil
}

func trueRanges(bars []models.PriceBar) []float64 {
	out := make([]float64, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		high := bars[i].High.InexactFloat64()
		low := bars[i].Low.InexactFloat64()
		prevClose := bars[i-1].Close.InexactFloat64()

		tr := high - low
		tr = math.Max(tr, math.Abs(high-prevClose))
		tr = math.Max(tr, math.Abs(low-prevClose))
		out[i-1] = tr
	}
	return out
}
