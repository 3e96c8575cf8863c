package alerts

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/finance-pipeline/internal/database"
	"github.com/finsight/finance-pipeline/internal/models"
)

type fakeAlertStore struct {
	alerts    []*models.Alert
	triggered []int64
}

func (s *fakeAlertStore) UntriggeredAlerts() ([]*models.Alert, error) {
	var out []*models.Alert
	for _, a := range s.alerts {
		if !a.Triggered {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeAlertStore) MarkAlertTriggered(id int64) error {
	s.triggered = append(s.triggered, id)
	for _, a := range s.alerts {
		if a.ID == id {
			a.Triggered = true
		}
	}
	return nil
}

type fakePrices struct {
	closes map[string]decimal.Decimal
}

func (p *fakePrices) LatestClose(symbol string) (decimal.Decimal, error) {
	c, ok := p.closes[symbol]
	if !ok {
		return decimal.Zero, database.ErrNotFound
	}
	return c, nil
}

type capturingPublisher struct {
	events []*models.AlertEvent
}

func (c *capturingPublisher) PublishAlertEvent(ctx context.Context, event *models.AlertEvent) error {
	c.events = append(c.events, event)
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.FatalLevel)
	return log
}

func TestEvaluateAllTriggersAboveAtTarget(t *testing.T) {
	store := &fakeAlertStore{alerts: []*models.Alert{
		{ID: 1, Symbol: "AAPL", TargetPrice: decimal.NewFromInt(190), Condition: models.ConditionAbove},
	}}
	prices := &fakePrices{closes: map[string]decimal.Decimal{
		"AAPL": decimal.RequireFromString("186.50"),
	}}

	ev := New(store, prices, nil, quietLogger())

	events, err := ev.EvaluateAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events, "186.50 does not satisfy above 190")
	assert.Empty(t, store.triggered)

	prices.closes["AAPL"] = decimal.RequireFromString("191.00")
	events, err = ev.EvaluateAll(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventTypeAlertTriggered, events[0].EventType)
	assert.Equal(t, []int64{1}, store.triggered)
}

func TestEvaluateAllTargetIsInclusive(t *testing.T) {
	store := &fakeAlertStore{alerts: []*models.Alert{
		{ID: 1, Symbol: "AAPL", TargetPrice: decimal.NewFromInt(190), Condition: models.ConditionAbove},
		{ID: 2, Symbol: "MSFT", TargetPrice: decimal.NewFromInt(400), Condition: models.ConditionBelow},
	}}
	prices := &fakePrices{closes: map[string]decimal.Decimal{
		"AAPL": decimal.NewFromInt(190),
		"MSFT": decimal.NewFromInt(400),
	}}

	ev := New(store, prices, nil, quietLogger())

	events, err := ev.EvaluateAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, events, 2, "crossing exactly at the target triggers")
}

func TestEvaluateAllTriggeredAlertStaysTriggered(t *testing.T) {
	store := &fakeAlertStore{alerts: []*models.Alert{
		{ID: 1, Symbol: "AAPL", TargetPrice: decimal.NewFromInt(190), Condition: models.ConditionAbove},
	}}
	prices := &fakePrices{closes: map[string]decimal.Decimal{
		"AAPL": decimal.NewFromInt(195),
	}}

	ev := New(store, prices, nil, quietLogger())

	events, err := ev.EvaluateAll(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)

	// Price drops back below the target and crosses again.
	prices.closes["AAPL"] = decimal.NewFromInt(185)
	events, err = ev.EvaluateAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events)

	prices.closes["AAPL"] = decimal.NewFromInt(196)
	events, err = ev.EvaluateAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events, "a latched alert never fires twice")
	assert.Equal(t, []int64{1}, store.triggered)
}

func TestEvaluateAllSkipsSymbolsWithoutHistory(t *testing.T) {
	store := &fakeAlertStore{alerts: []*models.Alert{
		{ID: 1, Symbol: "NEWCO", TargetPrice: decimal.NewFromInt(10), Condition: models.ConditionAbove},
		{ID: 2, Symbol: "AAPL", TargetPrice: decimal.NewFromInt(100), Condition: models.ConditionAbove},
	}}
	prices := &fakePrices{closes: map[string]decimal.Decimal{
		"AAPL": decimal.NewFromInt(150),
	}}

	ev := New(store, prices, nil, quietLogger())

	events, err := ev.EvaluateAll(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1, "cold symbol is skipped, warm one still evaluates")
	assert.Equal(t, "AAPL", events[0].Symbol)
}

func TestEvaluateAllPublishesEvents(t *testing.T) {
	store := &fakeAlertStore{alerts: []*models.Alert{
		{ID: 7, Symbol: "AAPL", TargetPrice: decimal.NewFromInt(100), Condition: models.ConditionAbove},
	}}
	prices := &fakePrices{closes: map[string]decimal.Decimal{
		"AAPL": decimal.NewFromInt(120),
	}}
	pub := &capturingPublisher{}

	ev := New(store, prices, pub, quietLogger())

	_, err := ev.EvaluateAll(context.Background())
	require.NoError(t, err)
	require.Len(t, pub.events, 1)
	assert.Equal(t, int64(7), pub.events[0].AlertID)
	assert.Equal(t, "120", pub.events[0].Price.String())
}
