package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/finsight/finance-pipeline/internal/models"
)

// BarWriter defines the interface for persisting streamed bars.
type BarWriter interface {
	UpsertPriceBar(bar *models.PriceBar) error
}

// Consumer ingests intraday quote events and folds them into the daily
// price_bars table. A streamed quote for today's date upserts today's bar,
// so the stored close tracks the market during the session.
type Consumer struct {
	reader *kafka.Reader
	repo   BarWriter
	log    *logrus.Entry
}

// NewConsumer creates a Kafka consumer for quote events.
func NewConsumer(brokers []string, topic, groupID string, repo BarWriter, log *logrus.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.LastOffset,
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader: reader,
		repo:   repo,
		log:    log.WithField("component", "kafka_consumer"),
	}
}

// Start begins consuming quote events. Blocks until the context is
// cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	c.log.WithField("topic", c.reader.Config().Topic).Info("starting quote consumer")

	for {
		select {
		case <-ctx.Done():
			c.log.Info("quote consumer shutting down")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				c.log.WithError(err).Error("failed to read message")
				continue
			}

			if err := c.processMessage(msg); err != nil {
				// A malformed event must not stall the partition.
				c.log.WithError(err).WithField("offset", msg.Offset).Error("failed to process message")
			}
		}
	}
}

func (c *Consumer) processMessage(msg kafka.Message) error {
	var event models.QuoteEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal quote event: %w", err)
	}

	if event.EventType != models.EventTypeQuote {
		c.log.WithField("event_type", event.EventType).Debug("ignoring event")
		return nil
	}

	bar, err := c.convertEventToBar(event)
	if err != nil {
		return fmt.Errorf("failed to convert quote event: %w", err)
	}

	if err := c.repo.UpsertPriceBar(bar); err != nil {
		return fmt.Errorf("failed to save streamed bar: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"symbol": bar.Symbol,
		"date":   bar.Date.Format("2006-01-02"),
		"close":  bar.Close.String(),
	}).Debug("streamed bar saved")
	return nil
}

func (c *Consumer) convertEventToBar(event models.QuoteEvent) (*models.PriceBar, error) {
	if event.Symbol == "" {
		return nil, fmt.Errorf("quote event has no symbol")
	}

	date, err := time.Parse("2006-01-02", event.Data.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid quote date %q: %w", event.Data.Date, err)
	}

	open, err := decimal.NewFromString(event.Data.Open)
	if err != nil {
		return nil, fmt.Errorf("invalid open %q: %w", event.Data.Open, err)
	}
	high, err := decimal.NewFromString(event.Data.High)
	if err != nil {
		return nil, fmt.Errorf("invalid high %q: %w", event.Data.High, err)
	}
	low, err := decimal.NewFromString(event.Data.Low)
	if err != nil {
		return nil, fmt.Errorf("invalid low %q: %w", event.Data.Low, err)
	}
	closePrice, err := decimal.NewFromString(event.Data.Close)
	if err != nil {
		return nil, fmt.Errorf("invalid close %q: %w", event.Data.Close, err)
	}

	volume := decimal.Zero
	if event.Data.Volume != "" {
		volume, err = decimal.NewFromString(event.Data.Volume)
		if err != nil {
			return nil, fmt.Errorf("invalid volume %q: %w", event.Data.Volume, err)
		}
	}

	return &models.PriceBar{
		Symbol: event.Symbol,
		Date:   date,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePrice,
		Volume: volume.IntPart(),
		Source: models.SourceStream,
	}, nil
}

// Close closes the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
