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

const defaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooAdapter fetches daily bars from the Yahoo Finance chart API.
// Yahoo needs no API key, so it serves as the primary EOD source.
type YahooAdapter struct {
	client  *http.Client
	gate    Gate
	pace    *rate.Limiter
	baseURL string
	log     *logrus.Entry
}

// NewYahooAdapter creates a Yahoo adapter. baseURL overrides the production
// endpoint when non-empty.
func NewYahooAdapter(gate Gate, baseURL string, log *logrus.Logger) *YahooAdapter {
	if baseURL == "" {
		baseURL = defaultYahooBaseURL
	}
	return &YahooAdapter{
		client:  &http.Client{Timeout: 30 * time.Second},
		gate:    gate,
		pace:    rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
		baseURL: baseURL,
		log:     log.WithField("source", models.SourceYahoo),
	}
}

func (a *YahooAdapter) Name() string { return models.SourceYahoo }

// yahooChart is the response structure from the Yahoo chart API. Price
// arrays use interface{} because Yahoo serializes missing bars as null.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []interface{} `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) float64 {
	if n, ok := v.(float64); ok {
		return n
	}
	return 0
}

func yahooRange(rng Range) string {
	if rng == RangeFull {
		return "10y"
	}
	return "3mo"
}

// FetchPrices fetches daily bars for each symbol, one chart request per
// symbol. A quota denial aborts the remaining symbols.
func (a *YahooAdapter) FetchPrices(ctx context.Context, symbols []string, rng Range) (*BatchResult, error) {
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

		bars, err := a.fetchChart(ctx, symbol, rng)
		if recordErr := a.gate.Record(a.Name(), "chart", symbol, err == nil, errString(err)); recordErr != nil {
			a.log.WithError(recordErr).Warn("failed to record api call")
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
		return result, fmt.Errorf("yahoo: all %d symbols failed: %w", result.Failed, ErrSourceUnavailable)
	}
	return result, nil
}

func (a *YahooAdapter) fetchChart(ctx context.Context, symbol string, rng Range) ([]models.PriceBar, error) {
	if err := a.pace.Wait(ctx); err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		a.baseURL, url.PathEscape(symbol), yahooRange(rng))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned for %s", symbol)
	}

	res := chart.Chart.Result[0]
	if len(res.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: no quote data for %s", symbol)
	}
	quote := res.Indicators.Quote[0]

	var adjClose []interface{}
	if len(res.Indicators.AdjClose) > 0 {
		adjClose = res.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]models.PriceBar, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		o := toFloat(quote.Open[i])
		h := toFloat(quote.High[i])
		l := toFloat(quote.Low[i])
		c := toFloat(quote.Close[i])
		if o == 0 && h == 0 && l == 0 && c == 0 {
			// Null bars appear on holidays and half-days.
			continue
		}
		bar := models.PriceBar{
			Symbol: symbol,
			Date:   time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Open:   decimal.NewFromFloat(o),
			High:   decimal.NewFromFloat(h),
			Low:    decimal.NewFromFloat(l),
			Close:  decimal.NewFromFloat(c),
			Volume: int64(toFloat(quote.Volume[i])),
			Source: models.SourceYahoo,
		}
		if i < len(adjClose) && adjClose[i] != nil {
			bar.AdjustedClose = decimal.NewFromFloat(toFloat(adjClose[i]))
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
