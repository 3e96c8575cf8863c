// Package pipeline is the orchestration layer tying storage, fetching,
// derivation and alerting together. Handlers and the scheduler call into
// it; nothing below this package knows about HTTP or cron.
package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/finsight/finance-pipeline/internal/alerts"
	"github.com/finsight/finance-pipeline/internal/cache"
	"github.com/finsight/finance-pipeline/internal/database"
	"github.com/finsight/finance-pipeline/internal/fetcher"
	"github.com/finsight/finance-pipeline/internal/models"
)

// Store is the full storage surface the service depends on, implemented
// by *database.DB.
type Store interface {
	UpsertSymbol(s *models.Symbol) error
	GetSymbol(symbol string) (*models.Symbol, error)
	GetSymbolQuotes() ([]models.SymbolQuote, error)
	ToggleFavorite(symbol string) (bool, error)
	FavoritedSymbols() ([]string, error)

	UpsertPriceBars(bars []*models.PriceBar) error
	GetPriceHistory(symbol string) ([]*models.PriceBar, error)
	LatestClose(symbol string) (decimal.Decimal, error)

	UpsertMacroObservations(obs []*models.MacroObservation) error
	GetMacroSeries(indicator string) ([]*models.MacroObservation, error)
	GetMacroIndicators() ([]string, error)

	ReplaceIndicators(symbol string, indicators []*models.TechnicalIndicator) error
	GetIndicatorHistory(symbol, indicatorName string) ([]*models.TechnicalIndicator, error)
	GetLatestIndicators(symbol string) ([]*models.TechnicalIndicator, error)

	CreateAlert(a *models.Alert) error
	GetAlerts(onlyActive bool) ([]*models.Alert, error)
	DeleteAlert(id int64) error

	CreatePosition(p *models.Position) error
	GetPositions() ([]*models.Position, error)
	DeletePosition(id int64) error

	CreateWatchlist(w *models.Watchlist) error
	GetWatchlist(name string) (*models.Watchlist, error)
	ListWatchlists() ([]*models.Watchlist, error)
	DeleteWatchlist(name string) error
}

// Result is the uniform outcome shape for mutating operations.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func ok(message string) Result {
	return Result{Success: true, Message: message}
}

func fail(message string) Result {
	return Result{Success: false, Message: message}
}

// Service coordinates the ingestion and derivation pipeline.
type Service struct {
	store     Store
	prices    fetcher.PriceAdapter
	fallback  fetcher.PriceAdapter
	macro     fetcher.MacroAdapter
	evaluator *alerts.Evaluator
	cache     *cache.PriceCache
	batchSize int
	log       *logrus.Entry

	// Serializes ingest cycles so manual fetches and scheduler ticks
	// cannot interleave partial writes for the same symbols.
	ingestMu sync.Mutex
}

// Options carries the optional collaborators of a Service.
type Options struct {
	Fallback  fetcher.PriceAdapter
	Cache     *cache.PriceCache
	BatchSize int
}

const defaultBatchSize = 5

// New creates the pipeline Service.
func New(store Store, prices fetcher.PriceAdapter, macro fetcher.MacroAdapter, evaluator *alerts.Evaluator, opts Options, log *logrus.Logger) *Service {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Service{
		store:     store,
		prices:    prices,
		fallback:  opts.Fallback,
		macro:     macro,
		evaluator: evaluator,
		cache:     opts.Cache,
		batchSize: batchSize,
		log:       log.WithField("component", "pipeline"),
	}
}

// latestClose reads the latest close, through the cache when one is wired.
func (s *Service) latestClose(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if s.cache != nil {
		return s.cache.LatestClose(ctx, symbol)
	}
	return s.store.LatestClose(symbol)
}

func notFound(err error) bool {
	return errors.Is(err, database.ErrNotFound)
}
