package indicator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/finsight/finance-pipeline/internal/models"
)

// Standard parameter set applied on every recompute.
const (
	rsiPeriod        = 14
	smaShort         = 20
	smaMedium        = 50
	smaLong          = 200
	emaFast          = 12
	emaSlow          = 26
	macdSignalPeriod = 9
	bbPeriod         = 20
	bbStdDevMult     = 2.0
	stochKPeriod     = 14
	stochDPeriod     = 3
	atrPeriod        = 14
	adxPeriod        = 14
	willRPeriod      = 14
	mfiPeriod        = 14
	cciPeriod        = 20
	rocPeriod        = 12
)

// ComputeAll derives every supported indicator series from the full price
// history, which must be sorted ascending by date. Series whose warm-up
// window exceeds the history are skipped, not errors: a young symbol
// simply has fewer derived series.
func ComputeAll(symbol string, bars []models.PriceBar) []models.TechnicalIndicator {
	var out []models.TechnicalIndicator

	appendSeries := func(name string, points []Point, err error) {
		if err != nil {
			return
		}
		for _, p := range points {
			out = append(out, models.TechnicalIndicator{
				Symbol:        symbol,
				Date:          p.Date,
				IndicatorName: name,
				Value:         decimal.NewFromFloat(p.Value),
			})
		}
	}

	rsi, err := RSI(bars, rsiPeriod)
	appendSeries(models.IndicatorRSI14, rsi, err)

	for _, sma := range []struct {
		name   string
		period int
	}{
		{models.IndicatorSMA20, smaShort},
		{models.IndicatorSMA50, smaMedium},
		{models.IndicatorSMA200, smaLong},
	} {
		points, err := SMA(bars, sma.period)
		appendSeries(sma.name, points, err)
	}

	ema12, err := EMA(bars, emaFast)
	appendSeries(models.IndicatorEMA12, ema12, err)
	ema26, err := EMA(bars, emaSlow)
	appendSeries(models.IndicatorEMA26, ema26, err)

	macd, signal, hist, err := MACD(bars, emaFast, emaSlow, macdSignalPeriod)
	appendSeries(models.IndicatorMACD, macd, err)
	appendSeries(models.IndicatorMACDSignal, signal, err)
	appendSeries(models.IndicatorMACDHist, hist, err)

	upper, middle, lower, err := BollingerBands(bars, bbPeriod, bbStdDevMult)
	appendSeries(models.IndicatorBBUpper, upper, err)
	appendSeries(models.IndicatorBBMiddle, middle, err)
	appendSeries(models.IndicatorBBLower, lower, err)

	k, d, err := Stochastic(bars, stochKPeriod, stochDPeriod)
	appendSeries(models.IndicatorStochK, k, err)
	appendSeries(models.IndicatorStochD, d, err)

	atr, err := ATR(bars, atrPeriod)
	appendSeries(models.IndicatorATR14, atr, err)

	adx, err := ADX(bars, adxPeriod)
	appendSeries(models.IndicatorADX14, adx, err)

	obv, err := OBV(bars)
	appendSeries(models.IndicatorOBV, obv, err)

	willR, err := WilliamsR(bars, willRPeriod)
	appendSeries(models.IndicatorWillR14, willR, err)

	cci, err := CCI(bars, cciPeriod)
	appendSeries(models.IndicatorCCI20, cci, err)

	mfi, err := MFI(bars, mfiPeriod)
	appendSeries(models.IndicatorMFI14, mfi, err)

	roc, err := ROC(bars, rocPeriod)
	appendSeries(models.IndicatorROC12, roc, err)

	return out
}

// Compute derives a single named indicator series. Composite families
// (MACD, Bollinger, Stochastic) return the member the name selects.
func Compute(name string, bars []models.PriceBar) ([]Point, error) {
	switch name {
	case models.IndicatorRSI14:
		return RSI(bars, rsiPeriod)
	case models.IndicatorSMA20:
		return SMA(bars, smaShort)
	case models.IndicatorSMA50:
		return SMA(bars, smaMedium)
	case models.IndicatorSMA200:
		return SMA(bars, smaLong)
	case models.IndicatorEMA12:
		return EMA(bars, emaFast)
	case models.IndicatorEMA26:
		return EMA(bars, emaSlow)
	case models.IndicatorMACD:
		macd, _, _, err := MACD(bars, emaFast, emaSlow, macdSignalPeriod)
		return macd, err
	case models.IndicatorMACDSignal:
		_, signal, _, err := MACD(bars, emaFast, emaSlow, macdSignalPeriod)
		return signal, err
	case models.IndicatorMACDHist:
		_, _, hist, err := MACD(bars, emaFast, emaSlow, macdSignalPeriod)
		return hist, err
	case models.IndicatorBBUpper:
		upper, _, _, err := BollingerBands(bars, bbPeriod, bbStdDevMult)
		return upper, err
	case models.IndicatorBBMiddle:
		_, middle, _, err := BollingerBands(bars, bbPeriod, bbStdDevMult)
		return middle, err
	case models.IndicatorBBLower:
		_, _, lower, err := BollingerBands(bars, bbPeriod, bbStdDevMult)
		return lower, err
	case models.IndicatorStochK:
		k, _, err := Stochastic(bars, stochKPeriod, stochDPeriod)
		return k, err
	case models.IndicatorStochD:
		_, d, err := Stochastic(bars, stochKPeriod, stochDPeriod)
		return d, err
	case models.IndicatorATR14:
		return ATR(bars, atrPeriod)
	case models.IndicatorADX14:
		return ADX(bars, adxPeriod)
	case models.IndicatorOBV:
		return OBV(bars)
	case models.IndicatorWillR14:
		return WilliamsR(bars, willRPeriod)
	case models.IndicatorCCI20:
		return CCI(bars, cciPeriod)
	case models.IndicatorMFI14:
		return MFI(bars, mfiPeriod)
	case models.IndicatorROC12:
		return ROC(bars, rocPeriod)
	default:
		return nil, fmt.Errorf("unknown indicator %q", name)
	}
}
