package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/finsight/finance-pipeline/internal/models"
)

const defaultAlphaVantageBaseURL = "https://www.alphavantage.co"

// AlphaVantageAdapter fetches daily bars from the Alpha Vantage
// TIME_SERIES_DAILY endpoint. The free tier allows very few calls per
// day, so this adapter is the fallback when Yahoo cannot serve a symbol.
type AlphaVantageAdapter struct {
	client  *http.Client
	gate    Gate
	pace    *rate.Limiter
	apiKey  string
	baseURL string
	log     *logrus.Entry
}

// NewAlphaVantageAdapter creates an Alpha Vantage adapter. baseURL
// overrides the production endpoint when non-empty.
func NewAlphaVantageAdapter(gate Gate, apiKey, baseURL string, log *logrus.Logger) *AlphaVantageAdapter {
	if baseURL == "" {
		baseURL = defaultAlphaVantageBaseURL
	}
	return &AlphaVantageAdapter{
		client:  &http.Client{Timeout: 30 * time.Second},
		gate:    gate,
		pace:    rate.NewLimiter(rate.Every(time.Second), 1),
		apiKey:  apiKey,
		baseURL: baseURL,
		log:     log.WithField("source", models.SourceAlphaVantage),
	}
}

func (a *AlphaVantageAdapter) Name() string { return models.SourceAlphaVantage }

// avDaily is the TIME_SERIES_DAILY response. Numeric fields arrive as
// strings; "Note" and "Information" carry throttling messages.
type avDaily struct {
	TimeSeries map[string]struct {
		Open   string `json:"1. open"`
		High   string `json:"2. high"`
		Low    string `json:"3. low"`
		Close  string `json:"4. close"`
		Volume string `json:"5. volume"`
	} `json:"Time Series (Daily)"`
	Note         string `json:"Note"`
	Information  string `json:"Information"`
	ErrorMessage string `json:"Error Message"`
}

// FetchPrices fetches daily history per symbol. Alpha Vantage signals an
// exhausted quota in the response body rather than with a status code, so
// both the gate and the body are checked.
func (a *AlphaVantageAdapter) FetchPrices(ctx context.Context, symbols []string, rng Range) (*BatchResult, error) {
	result := &BatchResult{Source: a.Name()}

	for _, symbol := range symbols {
		res, err := a.gate.TryAcquire(a.Name())
		if err != nil {
			return nil, err
		}
		if !res.Allowed {
			result.QuotaExhausted = true
			result.RetryAfter = res.RetryAfter
			break
		}

		bars, throttled, err := a.fetchDaily(ctx, symbol, rng)
		if recordErr := a.gate.Record(a.Name(), "TIME_SERIES_DAILY", symbol, err == nil, errString(err)); recordErr != nil {
			a.log.WithError(recordErr).Warn("failed to record api call")
		}
		if throttled {
			result.QuotaExhausted = true
			break
		}
		if err != nil {
			a.log.WithError(err).WithField("symbol", symbol).Warn("fetch failed")
			result.Failed++
			result.Statuses = append(result.Statuses, SymbolStatus{Symbol: symbol, Error: err.Error()})
			continue
		}

		result.Succeeded++
		result.Statuses = append(result.Statuses, SymbolStatus{Symbol: symbol, Fetched: len(bars)})
		result.Bars = append(result.Bars, bars...)
	}

	if result.Succeeded == 0 && result.Failed > 0 {
		return result, fmt.Errorf("alpha vantage: all %d symbols failed: %w", result.Failed, ErrSourceUnavailable)
	}
	return result, nil
}

func (a *AlphaVantageAdapter) fetchDaily(ctx context.Context, symbol string, rng Range) ([]models.PriceBar, bool, error) {
	if err := a.pace.Wait(ctx); err != nil {
		return nil, false, err
	}
	outputSize := "compact"
	if rng == RangeFull {
		outputSize = "full"
	}
	u := fmt.Sprintf("%s/query?function=TIME_SERIES_DAILY&symbol=%s&outputsize=%s&apikey=%s",
		a.baseURL, url.QueryEscape(symbol), outputSize, url.QueryEscape(a.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, err
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("alpha vantage fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("alpha vantage read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("alpha vantage: status %d", resp.StatusCode)
	}

	var daily avDaily
	if err := json.Unmarshal(body, &daily); err != nil {
		return nil, false, fmt.Errorf("alpha vantage decode: %w", err)
	}
	if daily.Note != "" || daily.Information != "" {
		a.log.WithField("symbol", symbol).Warn("provider reported throttling")
		return nil, true, nil
	}
	if daily.ErrorMessage != "" {
		return nil, false, fmt.Errorf("alpha vantage api error: %s", daily.ErrorMessage)
	}
	if len(daily.TimeSeries) == 0 {
		return nil, false, fmt.Errorf("alpha vantage: no data returned for %s", symbol)
	}

	bars := make([]models.PriceBar, 0, len(daily.TimeSeries))
	for dateStr, row := range daily.TimeSeries {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		bar, err := avBar(symbol, date, row.Open, row.High, row.Low, row.Close, row.Volume)
		if err != nil {
			a.log.WithError(err).WithFields(logrus.Fields{"symbol": symbol, "date": dateStr}).Warn("skipping malformed bar")
			continue
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, false, nil
}

func avBar(symbol string, date time.Time, open, high, low, close, volume string) (models.PriceBar, error) {
	o, err := decimal.NewFromString(open)
	if err != nil {
		return models.PriceBar{}, fmt.Errorf("bad open %q: %w", open, err)
	}
	h, err := decimal.NewFromString(high)
	if err != nil {
		return models.PriceBar{}, fmt.Errorf("bad high %q: %w", high, err)
	}
	l, err := decimal.NewFromString(low)
	if err != nil {
		return models.PriceBar{}, fmt.Errorf("bad low %q: %w", low, err)
	}
	c, err := decimal.NewFromString(close)
	if err != nil {
		return models.PriceBar{}, fmt.Errorf("bad close %q: %w", close, err)
	}
	v, err := decimal.NewFromString(volume)
	if err != nil {
		return models.PriceBar{}, fmt.Errorf("bad volume %q: %w", volume, err)
	}
	return models.PriceBar{
		Symbol: symbol,
		Date:   date,
		Open:   o,
		High:   h,
		Low:    l,
		Close:  c,
		Volume: v.IntPart(),
		Source: models.SourceAlphaVantage,
	}, nil
}
