package indicator

import (
	"math"

	"github.com/finsight/finance-pipeline/internal/models"
)

// BollingerBands computes the upper, middle and lower bands over a rolling
// window. The middle band is the SMA; the outer bands sit stdDevMult
// population standard deviations away.
func BollingerBands(bars []models.PriceBar, period int, stdDevMult float64) (upper, middle, lower []Point, err error) {
	if period <= 0 || len(bars) < period {
		return nil, nil, nil, ErrInsufficientHistory
	}
	prices := closes(bars)

	for i := period - 1; i < len(prices); i++ {
		window := prices[i+1-period : i+1]

		sum := 0.0
		for _, v := range window {
			sum += v
		}
		sma := sum / float64(period)

		variance := 0.0
		for _, v := range window {
			diff := v - sma
			variance += diff * diff
		}
		stdDev := math.Sqrt(variance / float64(period))

		date := bars[i].Date
		upper = append(upper, Point{Date: date, Value: sma + stdDevMult*stdDev})
		middle = append(middle, Point{Date: date, Value: sma})
		lower = append(lower, Point{Date: date, Value: sma - stdDevMult*stdDev})
	}
	return upper, middle, lower, nil
}
