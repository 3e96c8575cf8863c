// Package alerts evaluates untriggered price alerts against the latest
// stored close. Alerts latch: once triggered they never re-arm, so an
// oscillating price fires each alert at most once.
package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/finsight/finance-pipeline/internal/database"
	"github.com/finsight/finance-pipeline/internal/models"
)

// Store is the slice of the database the evaluator depends on.
type Store interface {
	UntriggeredAlerts() ([]*models.Alert, error)
	MarkAlertTriggered(id int64) error
}

// PriceSource yields the latest stored close for a symbol.
type PriceSource interface {
	LatestClose(symbol string) (decimal.Decimal, error)
}

// Publisher emits an event when an alert trips. Optional.
type Publisher interface {
	PublishAlertEvent(ctx context.Context, event *models.AlertEvent) error
}

// Evaluator runs a single evaluation sweep over all untriggered alerts.
type Evaluator struct {
	store  Store
	prices PriceSource
	pub    Publisher
	now    func() time.Time
	log    *logrus.Entry
}

// New creates an Evaluator. pub may be nil when no event stream is wired.
func New(store Store, prices PriceSource, pub Publisher, log *logrus.Logger) *Evaluator {
	return &Evaluator{
		store:  store,
		prices: prices,
		pub:    pub,
		now:    time.Now,
		log:    log.WithField("component", "alerts"),
	}
}

// EvaluateAll checks every untriggered alert and marks those whose
// condition the latest close satisfies. Symbols with no price history are
// skipped; a sweep never fails because one symbol is cold.
func (e *Evaluator) EvaluateAll(ctx context.Context) ([]*models.AlertEvent, error) {
	pending, err := e.store.UntriggeredAlerts()
	if err != nil {
		return nil, fmt.Errorf("failed to load alerts: %w", err)
	}

	var events []*models.AlertEvent
	for _, alert := range pending {
		price, err := e.prices.LatestClose(alert.Symbol)
		if errors.Is(err, database.ErrNotFound) {
			continue
		}
		if err != nil {
			e.log.WithError(err).WithField("symbol", alert.Symbol).Warn("failed to load latest close")
			continue
		}

		if !conditionMet(alert, price) {
			continue
		}

		if err := e.store.MarkAlertTriggered(alert.ID); err != nil {
			e.log.WithError(err).WithField("alert_id", alert.ID).Error("failed to mark alert triggered")
			continue
		}

		event := &models.AlertEvent{
			EventType:   models.EventTypeAlertTriggered,
			AlertID:     alert.ID,
			Symbol:      alert.Symbol,
			TargetPrice: alert.TargetPrice,
			Condition:   alert.Condition,
			Price:       price,
			Timestamp:   e.now(),
		}
		events = append(events, event)

		e.log.WithFields(logrus.Fields{
			"alert_id":  alert.ID,
			"symbol":    alert.Symbol,
			"condition": alert.Condition,
			"target":    alert.TargetPrice.String(),
			"price":     price.String(),
		}).Info("alert triggered")

		if e.pub != nil {
			if err := e.pub.PublishAlertEvent(ctx, event); err != nil {
				e.log.WithError(err).WithField("alert_id", alert.ID).Warn("failed to publish alert event")
			}
		}
	}
	return events, nil
}

// conditionMet treats the target price as inclusive in both directions.
func conditionMet(alert *models.Alert, price decimal.Decimal) bool {
	switch alert.Condition {
	case models.ConditionAbove:
		return price.GreaterThanOrEqual(alert.TargetPrice)
	case models.ConditionBelow:
		return price.LessThanOrEqual(alert.TargetPrice)
	default:
		return false
	}
}
