package indicator

import "github.com/finsight/finance-pipeline/internal/models"

// MACD computes the MACD line (fast EMA minus slow EMA), its signal line
// and the histogram. All three series share the signal line's start date.
func MACD(bars []models.PriceBar, fast, slow, signal int) (macd, signalLine, histogram []Point, err error) {
	if fast <= 0 || slow <= fast || signal <= 0 || len(bars) < slow+signal {
		return nil, nil, nil, ErrInsufficientHistory
	}
	prices := closes(bars)

	fastMult := 2.0 / (float64(fast) + 1.0)
	slowMult := 2.0 / (float64(slow) + 1.0)
	signalMult := 2.0 / (float64(signal) + 1.0)

	var fastSeed, slowSeed float64
	for i := 0; i < fast; i++ {
		fastSeed += prices[i]
	}
	for i := 0; i < slow; i++ {
		slowSeed += prices[i]
	}
	fastEMA := fastSeed / float64(fast)
	slowEMA := slowSeed / float64(slow)

	// MACD values start once the slow EMA is seeded.
	macdValues := make([]Point, 0, len(prices)-slow)
	for i := slow; i < len(prices); i++ {
		fastEMA = (prices[i]-fastEMA)*fastMult + fastEMA
		slowEMA = (prices[i]-slowEMA)*slowMult + slowEMA
		macdValues = append(macdValues, Point{Date: bars[i].Date, Value: fastEMA - slowEMA})
	}

	if len(macdValues) < signal {
		return nil, nil, nil, ErrInsufficientHistory
	}

	var signalSeed float64
	for i := 0; i < signal; i++ {
		signalSeed += macdValues[i].Value
	}
	signalEMA := signalSeed / float64(signal)

	for i := signal - 1; i < len(macdValues); i++ {
		if i >= signal {
			signalEMA = (macdValues[i].Value-signalEMA)*signalMult + signalEMA
		}
		macd = append(macd, macdValues[i])
		signalLine = append(signalLine, Point{Date: macdValues[i].Date, Value: signalEMA})
		histogram = append(histogram, Point{Date: macdValues[i].Date, Value: macdValues[i].Value - signalEMA})
	}
	return macd, signalLine, histogram, nil
}
