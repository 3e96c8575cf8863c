package fetcher

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/finsight/finance-pipeline/internal/models"
)

const defaultFREDBaseURL = "https://fred.stlouisfed.org"

// macroCatalog maps supported FRED series to their native frequency.
var macroCatalog = map[string]string{
	"CPIAUCSL": models.FrequencyMonthly,   // CPI, all urban consumers
	"UNRATE":   models.FrequencyMonthly,   // unemployment rate
	"FEDFUNDS": models.FrequencyMonthly,   // effective federal funds rate
	"DGS10":    models.FrequencyDaily,     // 10-year treasury yield
	"DGS2":     models.FrequencyDaily,     // 2-year treasury yield
	"T10Y2Y":   models.FrequencyDaily,     // 10y-2y spread
	"GDP":      models.FrequencyQuarterly, // gross domestic product
	"M2SL":     models.FrequencyMonthly,   // M2 money stock
	"UMCSENT":  models.FrequencyMonthly,   // consumer sentiment
	"VIXCLS":   models.FrequencyDaily,     // CBOE volatility index
}

// MacroIndicators returns the supported FRED series IDs.
func MacroIndicators() []string {
	out := make([]string, 0, len(macroCatalog))
	for id := range macroCatalog {
		out = append(out, id)
	}
	return out
}

// FREDAdapter fetches macro series from the public FRED CSV endpoint,
// which needs no API key.
type FREDAdapter struct {
	client  *http.Client
	gate    Gate
	pace    *rate.Limiter
	baseURL string
	log     *logrus.Entry
}

// NewFREDAdapter creates a FRED adapter. baseURL overrides the production
// endpoint when non-empty.
func NewFREDAdapter(gate Gate, baseURL string, log *logrus.Logger) *FREDAdapter {
	if baseURL == "" {
		baseURL = defaultFREDBaseURL
	}
	return &FREDAdapter{
		client:  &http.Client{Timeout: 30 * time.Second},
		gate:    gate,
		pace:    rate.NewLimiter(rate.Every(time.Second), 1),
		baseURL: baseURL,
		log:     log.WithField("source", models.SourceFRED),
	}
}

func (a *FREDAdapter) Name() string { return models.SourceFRED }

// FetchMacro fetches each requested series. Unknown series are reported in
// Statuses and skipped.
func (a *FREDAdapter) FetchMacro(ctx context.Context, indicators []string) (*BatchResult, error) {
	result := &BatchResult{Source: a.Name()}

	for _, indicator := range indicators {
		frequency, ok := macroCatalog[indicator]
		if !ok {
			result.Failed++
			result.Statuses = append(result.Statuses, SymbolStatus{
				Symbol: indicator,
				Error:  fmt.Sprintf("unknown macro indicator %q", indicator),
			})
			continue
		}

		res, err := a.gate.TryAcquire(a.Name())
		if err != nil {
			return nil, err
		}
		if !res.Allowed {
			result.QuotaExhausted = true
			result.RetryAfter = res.RetryAfter
			break
		}

		obs, err := a.fetchSeries(ctx, indicator, frequency)
		if recordErr := a.gate.Record(a.Name(), "fredgraph.csv", indicator, err == nil, errString(err)); recordErr != nil {
			a.log.WithError(recordErr).Warn("failed to record api call")
		}
		if err != nil {
			a.log.WithError(err).WithField("indicator", indicator).Warn("fetch failed")
			result.Failed++
			result.Statuses = append(result.Statuses, SymbolStatus{Symbol: indicator, Error: err.Error()})
			continue
		}

		result.Succeeded++
		result.Statuses = append(result.Statuses, SymbolStatus{Symbol: indicator, Fetched: len(obs)})
		result.Observations = append(result.Observations, obs...)
	}

	if result.Succeeded == 0 && result.Failed > 0 {
		return result, fmt.Errorf("fred: all %d series failed: %w", result.Failed, ErrSourceUnavailable)
	}
	return result, nil
}

func (a *FREDAdapter) fetchSeries(ctx context.Context, indicator, frequency string) ([]models.MacroObservation, error) {
	if err := a.pace.Wait(ctx); err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/graph/fredgraph.csv?id=%s", a.baseURL, url.QueryEscape(indicator))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fred fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fred: status %d for %s", resp.StatusCode, indicator)
	}

	reader := csv.NewReader(resp.Body)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("fred csv parse: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("fred: no observations for %s", indicator)
	}

	// First row is the header ("observation_date,SERIES").
	obs := make([]models.MacroObservation, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < 2 {
			continue
		}
		// FRED encodes missing observations as ".".
		if row[1] == "." {
			continue
		}
		date, err := time.Parse("2006-01-02", row[0])
		if err != nil {
			continue
		}
		value, err := decimal.NewFromString(row[1])
		if err != nil {
			a.log.WithFields(logrus.Fields{"indicator": indicator, "value": row[1]}).Warn("skipping malformed observation")
			continue
		}
		obs = append(obs, models.MacroObservation{
			Indicator: indicator,
			Date:      date,
			Value:     value,
			Frequency: frequency,
			Source:    models.SourceFRED,
		})
	}

	if len(obs) == 0 {
		return nil, fmt.Errorf("fred: no usable observations for %s", indicator)
	}
	return obs, nil
}
