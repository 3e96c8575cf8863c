package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/finsight/finance-pipeline/internal/fetcher"
	"github.com/finsight/finance-pipeline/internal/indicator"
	"github.com/finsight/finance-pipeline/internal/models"
)

// FetchPrices ingests EOD history for the given symbols: fetch, persist,
// recompute indicators, then sweep alerts. full selects a deep backfill
// instead of recent history.
func (s *Service) FetchPrices(ctx context.Context, symbols []string, full bool) Result {
	symbols = normalizeSymbols(symbols)
	if len(symbols) == 0 {
		return fail("no symbols given")
	}

	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()

	rng := fetcher.RangeCompact
	if full {
		rng = fetcher.RangeFull
	}

	summary, err := s.fetchAndStore(ctx, symbols, rng)
	if err != nil {
		return fail(err.Error())
	}
	return summary
}

// RefreshFavorites runs one scheduled refresh cycle over the favorited
// symbols. Implements the scheduler's Refresher interface.
func (s *Service) RefreshFavorites(ctx context.Context) (int, error) {
	favorites, err := s.store.FavoritedSymbols()
	if err != nil {
		return 0, fmt.Errorf("failed to load favorites: %w", err)
	}
	if len(favorites) == 0 {
		return 0, nil
	}

	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()

	summary, err := s.fetchAndStore(ctx, favorites, fetcher.RangeCompact)
	if err != nil {
		return 0, err
	}
	if !summary.Success {
		return 0, fmt.Errorf("refresh incomplete: %s", summary.Message)
	}
	return len(favorites), nil
}

// fetchAndStore is the shared ingest body. Callers hold ingestMu.
func (s *Service) fetchAndStore(ctx context.Context, symbols []string, rng fetcher.Range) (Result, error) {
	var (
		merged    fetcher.BatchResult
		retryMsg  string
		exhausted bool
	)

	for _, batch := range chunk(symbols, s.batchSize) {
		result, err := s.prices.FetchPrices(ctx, batch, rng)
		if err != nil && result == nil {
			return Result{}, fmt.Errorf("fetch failed: %w", err)
		}

		// Retry the symbols the primary could not serve on the fallback
		// source before giving up on them.
		if s.fallback != nil && result != nil && result.Failed > 0 {
			result = s.retryOnFallback(ctx, result, rng)
		}

		if result != nil {
			merged.Succeeded += result.Succeeded
			merged.Failed += result.Failed
			merged.Statuses = append(merged.Statuses, result.Statuses...)
			merged.Bars = append(merged.Bars, result.Bars...)
			if result.QuotaExhausted {
				exhausted = true
				retryMsg = fmt.Sprintf("quota exhausted, retry in %s", result.RetryAfter.Round(time.Second))
				break
			}
		}
	}

	if len(merged.Bars) > 0 {
		if err := s.persistBars(ctx, merged.Bars); err != nil {
			return Result{}, err
		}
	}

	// Alerts are evaluated even on a partial ingest: whatever landed is
	// the freshest view we have.
	if s.evaluator != nil {
		if _, err := s.evaluator.EvaluateAll(ctx); err != nil {
			s.log.WithError(err).Error("alert sweep failed")
		}
	}

	msg := fmt.Sprintf("fetched %d bars for %d/%d symbols", len(merged.Bars), merged.Succeeded, len(symbols))
	if exhausted {
		return fail(msg + "; " + retryMsg), nil
	}
	if merged.Succeeded == 0 {
		return fail(msg), nil
	}
	return ok(msg), nil
}

// persistBars upserts bars grouped by symbol, then recomputes that
// symbol's full derived series from stored history.
func (s *Service) persistBars(ctx context.Context, bars []models.PriceBar) error {
	grouped := make(map[string][]*models.PriceBar)
	var order []string
	for i := range bars {
		b := &bars[i]
		if _, seen := grouped[b.Symbol]; !seen {
			order = append(order, b.Symbol)
		}
		grouped[b.Symbol] = append(grouped[b.Symbol], b)
	}

	for _, symbol := range order {
		if err := s.ensureSymbol(symbol); err != nil {
			return err
		}
		if err := s.store.UpsertPriceBars(grouped[symbol]); err != nil {
			return fmt.Errorf("failed to store bars for %s: %w", symbol, err)
		}
		if err := s.recomputeIndicators(symbol); err != nil {
			s.log.WithError(err).WithField("symbol", symbol).Error("indicator recompute failed")
		}
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, order...)
	}
	return nil
}

// recomputeIndicators rebuilds every derived series for the symbol from
// its full stored history. Derived data is always replaced wholesale.
func (s *Service) recomputeIndicators(symbol string) error {
	history, err := s.store.GetPriceHistory(symbol)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	bars := make([]models.PriceBar, len(history))
	for i, b := range history {
		bars[i] = *b
	}

	computed := indicator.ComputeAll(symbol, bars)
	out := make([]*models.TechnicalIndicator, len(computed))
	for i := range computed {
		out[i] = &computed[i]
	}

	if err := s.store.ReplaceIndicators(symbol, out); err != nil {
		return fmt.Errorf("failed to store indicators: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"symbol": symbol,
		"values": len(out),
	}).Debug("indicators recomputed")
	return nil
}

// ensureSymbol makes sure a catalog row exists before price rows reference
// it. Existing rows keep their metadata and favorited flag.
func (s *Service) ensureSymbol(symbol string) error {
	_, err := s.store.GetSymbol(symbol)
	if err == nil {
		return nil
	}
	if !notFound(err) {
		return fmt.Errorf("failed to look up symbol %s: %w", symbol, err)
	}
	if err := s.store.UpsertSymbol(&models.Symbol{Symbol: symbol, AssetClass: models.AssetClassEquity}); err != nil {
		return fmt.Errorf("failed to register symbol %s: %w", symbol, err)
	}
	return nil
}

// retryOnFallback re-fetches the primary's failed symbols from the
// fallback adapter and merges the outcome.
func (s *Service) retryOnFallback(ctx context.Context, primary *fetcher.BatchResult, rng fetcher.Range) *fetcher.BatchResult {
	var failed []string
	kept := primary.Statuses[:0]
	for _, st := range primary.Statuses {
		if st.Error != "" {
			failed = append(failed, st.Symbol)
			continue
		}
		kept = append(kept, st)
	}
	if len(failed) == 0 {
		return primary
	}

	retry, err := s.fallback.FetchPrices(ctx, failed, rng)
	if err != nil && retry == nil {
		s.log.WithError(err).Warn("fallback fetch failed")
		return primary
	}

	primary.Statuses = append(kept, retry.Statuses...)
	primary.Succeeded += retry.Succeeded
	primary.Failed = retry.Failed
	primary.Bars = append(primary.Bars, retry.Bars...)
	return primary
}

// FetchMacro ingests the given macro series, or every supported series
// when none are named.
func (s *Service) FetchMacro(ctx context.Context, indicators []string) Result {
	if s.macro == nil {
		return fail("no macro source configured")
	}
	if len(indicators) == 0 {
		indicators = fetcher.MacroIndicators()
	}

	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()

	result, err := s.macro.FetchMacro(ctx, indicators)
	if err != nil && result == nil {
		return fail(fmt.Sprintf("macro fetch failed: %v", err))
	}

	if len(result.Observations) > 0 {
		obs := make([]*models.MacroObservation, len(result.Observations))
		for i := range result.Observations {
			obs[i] = &result.Observations[i]
		}
		if err := s.store.UpsertMacroObservations(obs); err != nil {
			return fail(fmt.Sprintf("failed to store observations: %v", err))
		}
	}

	msg := fmt.Sprintf("fetched %d observations for %d/%d series", len(result.Observations), result.Succeeded, len(indicators))
	if result.QuotaExhausted {
		return fail(msg + fmt.Sprintf("; quota exhausted, retry in %s", result.RetryAfter.Round(time.Second)))
	}
	if result.Succeeded == 0 {
		return fail(msg)
	}
	return ok(msg)
}

func normalizeSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func chunk(symbols []string, size int) [][]string {
	var out [][]string
	for len(symbols) > size {
		out = append(out, symbols[:size])
		symbols = symbols[size:]
	}
	if len(symbols) > 0 {
		out = append(out, symbols)
	}
	return out
}
