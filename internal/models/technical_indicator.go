package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Indicator name constants
const (
	IndicatorRSI14      = "RSI_14"
	IndicatorSMA20      = "SMA_20"
	IndicatorSMA50      = "SMA_50"
	IndicatorSMA200     = "SMA_200"
	IndicatorEMA12      = "EMA_12"
	IndicatorEMA26      = "EMA_26"
	IndicatorMACD       = "MACD"
	IndicatorMACDSignal = "MACD_SIGNAL"
	IndicatorMACDHist   = "MACD_HIST"
	IndicatorBBUpper    = "BB_UPPER"
	IndicatorBBMiddle   = "BB_MIDDLE"
	IndicatorBBLower    = "BB_LOWER"
	IndicatorStochK     = "STOCH_K"
	IndicatorStochD     = "STOCH_D"
	IndicatorATR14      = "ATR_14"
	IndicatorADX14      = "ADX_14"
	IndicatorCCI20      = "CCI_20"
	IndicatorOBV        = "OBV"
	IndicatorWillR14    = "WILLR_14"
	IndicatorMFI14      = "MFI_14"
	IndicatorROC12      = "ROC_12"
)

// TechnicalIndicator represents one derived indicator value, keyed by
// (symbol, indicator_name, date). Derived series are recomputed wholesale
// from the stored price history, never patched in place.
type TechnicalIndicator struct {
	ID            int             `json:"id"`
	Symbol        string          `json:"symbol"`
	Date          time.Time       `json:"date"`
	IndicatorName string          `json:"indicator_name"`
	Value         decimal.Decimal `json:"value"`
	CreatedAt     time.Time       `json:"created_at"`
}
