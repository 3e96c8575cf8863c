package indicator

import "github.com/finsight/finance-pipeline/internal/models"

// SMA computes the simple moving average series. The first value lands on
// the period-th bar; earlier dates have no defined value.
func SMA(bars []models.PriceBar, period int) ([]Point, error) {
	if period <= 0 || len(bars) < period {
		return nil, ErrInsufficientHistory
	}

	prices := closes(bars)
	points := make([]Point, 0, len(bars)-period+1)

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	points = append(points, Point{Date: bars[period-1].Date, Value: sum / float64(period)})

	for i := period; i < len(prices); i++ {
		sum += prices[i] - prices[i-period]
		points = append(points, Point{Date: bars[i].Date, Value: sum / float64(period)})
	}
	return points, nil
}

// EMA computes the exponential moving average series, seeded with the SMA
// of the first period bars.
func EMA(bars []models.PriceBar, period int) ([]Point, error) {
	if period <= 0 || len(bars) < period {
		return nil, ErrInsufficientHistory
	}
	prices := closes(bars)
	values := emaSeries(prices, period)

	points := make([]Point, len(values))
	for i, v := range values {
		points[i] = Point{Date: bars[period-1+i].Date, Value: v}
	}
	return points, nil
}

// emaSeries returns one value per input index starting at period-1.
func emaSeries(values []float64, period int) []float64 {
	multiplier := 2.0 / (float64(period) + 1.0)

	seed := 0.0
	for i := 0; i < period; i++ {
		seed += values[i]
	}
	ema := seed / float64(period)

	out := make([]float64, 0, len(values)-period+1)
	out = append(out, ema)
	for i := period; i < len(values); i++ {
		ema = (values[i]-ema)*multiplier + ema
		out = append(out, ema)
	}
	return out
}
