package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/finsight/finance-pipeline/internal/database"
	"github.com/finsight/finance-pipeline/internal/models"
)

// GetSymbols returns every cataloged symbol with its latest quote.
func (s *Service) GetSymbols() ([]models.SymbolQuote, error) {
	return s.store.GetSymbolQuotes()
}

// GetPriceHistory returns the full stored history for a symbol, oldest
// first.
func (s *Service) GetPriceHistory(symbol string) ([]*models.PriceBar, error) {
	return s.store.GetPriceHistory(strings.ToUpper(symbol))
}

// GetIndicatorHistory returns the stored series for one named indicator.
func (s *Service) GetIndicatorHistory(symbol, indicatorName string) ([]*models.TechnicalIndicator, error) {
	return s.store.GetIndicatorHistory(strings.ToUpper(symbol), indicatorName)
}

// GetLatestIndicators returns the most recent value of every derived
// series for a symbol.
func (s *Service) GetLatestIndicators(symbol string) ([]*models.TechnicalIndicator, error) {
	return s.store.GetLatestIndicators(strings.ToUpper(symbol))
}

// GetMacroSeries returns the stored observations for one macro indicator.
func (s *Service) GetMacroSeries(indicator string) ([]*models.MacroObservation, error) {
	return s.store.GetMacroSeries(strings.ToUpper(indicator))
}

// GetMacroIndicators lists the macro series that have stored data.
func (s *Service) GetMacroIndicators() ([]string, error) {
	return s.store.GetMacroIndicators()
}

// ToggleFavorite flips a symbol's favorited flag and reports the new
// state.
func (s *Service) ToggleFavorite(symbol string) Result {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return fail("no symbol given")
	}

	favorited, err := s.store.ToggleFavorite(symbol)
	if notFound(err) {
		return fail(fmt.Sprintf("unknown symbol %s", symbol))
	}
	if err != nil {
		return fail(fmt.Sprintf("failed to toggle favorite: %v", err))
	}

	if favorited {
		return ok(fmt.Sprintf("%s added to favorites", symbol))
	}
	return ok(fmt.Sprintf("%s removed from favorites", symbol))
}

// CreateAlert registers a new price alert.
func (s *Service) CreateAlert(a *models.Alert) Result {
	a.Symbol = strings.ToUpper(strings.TrimSpace(a.Symbol))
	if a.Symbol == "" {
		return fail("no symbol given")
	}
	if a.Condition != models.ConditionAbove && a.Condition != models.ConditionBelow {
		return fail(fmt.Sprintf("invalid condition %q", a.Condition))
	}
	if a.TargetPrice.LessThanOrEqual(decimal.Zero) {
		return fail("target price must be positive")
	}

	if err := s.store.CreateAlert(a); err != nil {
		return fail(fmt.Sprintf("failed to create alert: %v", err))
	}
	return ok(fmt.Sprintf("alert created for %s %s %s", a.Symbol, a.Condition, a.TargetPrice.String()))
}

// GetAlerts lists alerts, optionally only the untriggered ones.
func (s *Service) GetAlerts(onlyActive bool) ([]*models.Alert, error) {
	return s.store.GetAlerts(onlyActive)
}

// DeleteAlert removes an alert. Deleting is also how a triggered alert is
// re-armed: delete and recreate.
func (s *Service) DeleteAlert(id int64) Result {
	err := s.store.DeleteAlert(id)
	if notFound(err) {
		return fail(fmt.Sprintf("alert %d not found", id))
	}
	if err != nil {
		return fail(fmt.Sprintf("failed to delete alert: %v", err))
	}
	return ok(fmt.Sprintf("alert %d deleted", id))
}

// CreatePosition records a new holding. Side defaults to long.
func (s *Service) CreatePosition(p *models.Position) Result {
	p.Symbol = strings.ToUpper(strings.TrimSpace(p.Symbol))
	if p.Symbol == "" {
		return fail("no symbol given")
	}
	if p.Quantity.LessThanOrEqual(decimal.Zero) {
		return fail("quantity must be positive")
	}
	if p.EntryPrice.LessThanOrEqual(decimal.Zero) {
		return fail("entry price must be positive")
	}
	if p.Side != "" && p.Side != models.SideLong && p.Side != models.SideShort {
		return fail(fmt.Sprintf("invalid side %q", p.Side))
	}

	if err := s.store.CreatePosition(p); err != nil {
		return fail(fmt.Sprintf("failed to create position: %v", err))
	}
	return ok(fmt.Sprintf("position created: %s %s @ %s", p.Symbol, p.Quantity.String(), p.EntryPrice.String()))
}

// DeletePosition removes a holding.
func (s *Service) DeletePosition(id int64) Result {
	err := s.store.DeletePosition(id)
	if notFound(err) {
		return fail(fmt.Sprintf("position %d not found", id))
	}
	if err != nil {
		return fail(fmt.Sprintf("failed to delete position: %v", err))
	}
	return ok(fmt.Sprintf("position %d deleted", id))
}

// GetPortfolio returns all positions enriched with price-derived P&L and
// portfolio totals. Positions whose symbol has no price history carry a
// zero current price and are excluded from the totals.
func (s *Service) GetPortfolio(ctx context.Context) (*models.PortfolioSummary, error) {
	positions, err := s.store.GetPositions()
	if err != nil {
		return nil, fmt.Errorf("failed to load positions: %w", err)
	}

	summary := &models.PortfolioSummary{Positions: make([]models.PositionView, 0, len(positions))}
	for _, p := range positions {
		view := models.PositionView{Position: *p}
		view.CostBasis = p.EntryPrice.Mul(p.Quantity)

		price, err := s.latestClose(ctx, p.Symbol)
		if err != nil {
			if !errors.Is(err, database.ErrNotFound) {
				return nil, fmt.Errorf("failed to price %s: %w", p.Symbol, err)
			}
			summary.Positions = append(summary.Positions, view)
			continue
		}

		view.CurrentPrice = price
		view.CurrentValue = price.Mul(p.Quantity)
		if p.Side == models.SideShort {
			view.ProfitLoss = p.EntryPrice.Sub(price).Mul(p.Quantity)
		} else {
			view.ProfitLoss = price.Sub(p.EntryPrice).Mul(p.Quantity)
		}
		if view.CostBasis.IsPositive() {
			view.ProfitLossPercent = view.ProfitLoss.Div(view.CostBasis).Mul(decimal.NewFromInt(100)).Round(4)
		}

		summary.TotalValue = summary.TotalValue.Add(view.CurrentValue)
		summary.TotalCost = summary.TotalCost.Add(view.CostBasis)
		summary.TotalProfitLoss = summary.TotalProfitLoss.Add(view.ProfitLoss)
		summary.Positions = append(summary.Positions, view)
	}

	if summary.TotalCost.IsPositive() {
		summary.TotalProfitLossPercent = summary.TotalProfitLoss.Div(summary.TotalCost).Mul(decimal.NewFromInt(100)).Round(4)
	}
	return summary, nil
}

// CreateWatchlist creates a named symbol set. Names are unique.
func (s *Service) CreateWatchlist(w *models.Watchlist) Result {
	w.Name = strings.TrimSpace(w.Name)
	if w.Name == "" {
		return fail("no watchlist name given")
	}
	for i, sym := range w.Symbols {
		w.Symbols[i] = strings.ToUpper(strings.TrimSpace(sym))
	}

	err := s.store.CreateWatchlist(w)
	if errors.Is(err, database.ErrConstraintViolation) {
		return fail(fmt.Sprintf("watchlist %q already exists", w.Name))
	}
	if err != nil {
		return fail(fmt.Sprintf("failed to create watchlist: %v", err))
	}
	return ok(fmt.Sprintf("watchlist %q created with %d symbols", w.Name, len(w.Symbols)))
}

// GetWatchlist returns one watchlist by name.
func (s *Service) GetWatchlist(name string) (*models.Watchlist, error) {
	return s.store.GetWatchlist(name)
}

// ListWatchlists returns every watchlist.
func (s *Service) ListWatchlists() ([]*models.Watchlist, error) {
	return s.store.ListWatchlists()
}

// DeleteWatchlist removes a watchlist and its membership rows. Symbols
// and price data are untouched.
func (s *Service) DeleteWatchlist(name string) Result {
	err := s.store.DeleteWatchlist(name)
	if notFound(err) {
		return fail(fmt.Sprintf("watchlist %q not found", name))
	}
	if err != nil {
		return fail(fmt.Sprintf("failed to delete watchlist: %v", err))
	}
	return ok(fmt.Sprintf("watchlist %q deleted", name))
}
