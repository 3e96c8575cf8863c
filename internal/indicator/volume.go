package indicator

import "github.com/finsight/finance-pipeline/internal/models"

// OBV computes the cumulative on-balance volume series. The first bar's
// volume is the starting point; flat days leave the total unchanged.
func OBV(bars []models.PriceBar) ([]Point, error) {
	if len(bars) < 2 {
		return nil, ErrInsufficientHistory
	}

	obv := bars[0].Volume
	points := make([]Point, 0, len(bars))
	points = append(points, Point{Date: bars[0].Date, Value: float64(obv)})

	for i := 1; i < len(bars); i++ {
		switch bars[i].Close.Cmp(bars[i-1].Close) {
		case 1:
			obv += bars[i].Volume
		case -1:
			obv -= bars[i].Volume
		}
		points = append(points, Point{Date: bars[i].Date, Value: float64(obv)})
	}
	return points, nil
}
