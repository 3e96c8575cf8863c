package indicator

import (
	"math"

	"github.com/finsight/finance-pipeline/internal/models"
)

// RSI computes the Wilder-smoothed relative strength index. Requires
// period+1 bars; an all-gain window yields 100.
func RSI(bars []models.PriceBar, period int) ([]Point, error) {
	if period <= 0 || len(bars) < period+1 {
		return nil, ErrInsufficientHistory
	}
	prices := closes(bars)

	gains := make([]float64, len(prices)-1)
	losses := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains[i-1] = change
		} else {
			losses[i-1] = -change
		}
	}

	var avgGain, avgLoss float64
	for i := 0; i < period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	points := make([]Point, 0, len(gains)-period+1)
	points = append(points, Point{Date: bars[period].Date, Value: rsiValue(avgGain, avgLoss)})

	for i := period; i < len(gains); i++ {
		avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)
		points = append(points, Point{Date: bars[i+1].Date, Value: rsiValue(avgGain, avgLoss)})
	}
	return points, nil
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}

// Stochastic computes the %K and %D oscillator series. A zero-range window
// yields a neutral 50.
func Stochastic(bars []models.PriceBar, kPeriod, dPeriod int) (k, d []Point, err error) {
	if kPeriod <= 0 || dPeriod <= 0 || len(bars) < kPeriod+dPeriod {
		return nil, nil, ErrInsufficientHistory
	}

	for i := kPeriod - 1; i < len(bars); i++ {
		lowest := math.Inf(1)
		highest := math.Inf(-1)
		for j := i + 1 - kPeriod; j <= i; j++ {
			lowest = math.Min(lowest, bars[j].Low.InexactFloat64())
			highest = math.Max(highest, bars[j].High.InexactFloat64())
		}

		kv := 50.0
		if rng := highest - lowest; rng != 0 {
			kv = (bars[i].Close.InexactFloat64() - lowest) / rng * 100.0
		}
		k = append(k, Point{Date: bars[i].Date, Value: kv})
	}

	for i := dPeriod - 1; i < len(k); i++ {
		sum := 0.0
		for j := i + 1 - dPeriod; j <= i; j++ {
			sum += k[j].Value
		}
		d = append(d, Point{Date: k[i].Date, Value: sum / float64(dPeriod)})
	}
	return k, d, nil
}

// WilliamsR computes Williams %R, ranging from 0 to -100. A zero-range
// window yields a neutral -50.
func WilliamsR(bars []models.PriceBar, period int) ([]Point, error) {
	if period <= 0 || len(bars) < period {
		return nil, ErrInsufficientHistory
	}

	points := make([]Point, 0, len(bars)-period+1)
	for i := period - 1; i < len(bars); i++ {
		lowest := math.Inf(1)
		highest := math.Inf(-1)
		for j := i + 1 - period; j <= i; j++ {
			lowest = math.Min(lowest, bars[j].Low.InexactFloat64())
			highest = math.Max(highest, bars[j].High.InexactFloat64())
		}

		wr := -50.0
		if rng := highest - lowest; rng != 0 {
			wr = (highest - bars[i].Close.InexactFloat64()) / rng * -100.0
		}
		points = append(points, Point{Date: bars[i].Date, Value: wr})
	}
	return points, nil
}

// CCI computes the commodity channel index over typical prices.
func CCI(bars []models.PriceBar, period int) ([]Point, error) {
	if period <= 0 || len(bars) < period {
		return nil, ErrInsufficientHistory
	}

	tp := typicalPrices(bars)
	points := make([]Point, 0, len(bars)-period+1)

	for i := period - 1; i < len(bars); i++ {
		window := tp[i+1-period : i+1]

		sum := 0.0
		for _, v := range window {
			sum += v
		}
		mean := sum / float64(period)

		meanDev := 0.0
		for _, v := range window {
			meanDev += math.Abs(v - mean)
		}
		meanDev /= float64(period)

		cci := 0.0
		if meanDev != 0 {
			cci = (tp[i] - mean) / (0.015 * meanDev)
		}
		points = append(points, Point{Date: bars[i].Date, Value: cci})
	}
	return points, nil
}

// MFI computes the money flow index, a volume-weighted RSI analogue.
func MFI(bars []models.PriceBar, period int) ([]Point, error) {
	if period <= 0 || len(bars) < period+1 {
		return nil, ErrInsufficientHistory
	}

	tp := typicalPrices(bars)
	flows := make([]float64, len(bars))
	for i, b := range bars {
		flows[i] = tp[i] * float64(b.Volume)
	}

	points := make([]Point, 0, len(bars)-period)
	for i := period; i < len(bars); i++ {
		var positive, negative float64
		for j := i + 1 - period; j <= i; j++ {
			if j == 0 {
				continue
			}
			switch {
			case tp[j] > tp[j-1]:
				positive += flows[j]
			case tp[j] < tp[j-1]:
				negative += flows[j]
			}
		}

		var mfi float64
		switch {
		case negative == 0:
			mfi = 100.0
		case positive == 0:
			mfi = 0.0
		default:
			mfr := positive / negative
			mfi = 100.0 - 100.0/(1.0+mfr)
		}
		points = append(points, Point{Date: bars[i].Date, Value: mfi})
	}
	return points, nil
}

// ROC computes the rate of change as a percentage over period bars.
func ROC(bars []models.PriceBar, period int) ([]Point, error) {
	if period <= 0 || len(bars) <= period {
		return nil, ErrInsufficientHistory
	}
	prices := closes(bars)

	points := make([]Point, 0, len(bars)-period)
	for i := period; i < len(bars); i++ {
		roc := 0.0
		if prices[i-period] != 0 {
			roc = (prices[i] - prices[i-period]) / prices[i-period] * 100.0
		}
		points = append(points, Point{Date: bars[i].Date, Value: roc})
	}
	return points, nil
}

func typicalPrices(bars []models.PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = (b.High.InexactFloat64() + b.Low.InexactFloat64() + b.Close.InexactFloat64()) / 3.0
	}
	return out
}
