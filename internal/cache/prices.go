// Package cache fronts the price store with a Redis read-through layer
// for latest closes. The database stays authoritative; a cache miss or a
// Redis outage falls back to a store read.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// CloseSource is the authoritative store the cache reads through to.
type CloseSource interface {
	LatestClose(symbol string) (decimal.Decimal, error)
}

// PriceCache caches latest closes per symbol with a short TTL.
type PriceCache struct {
	client *redis.Client
	store  CloseSource
	ttl    time.Duration
	log    *logrus.Entry
}

// NewPriceCache creates a PriceCache over the given Redis client.
func NewPriceCache(client *redis.Client, store CloseSource, ttl time.Duration, log *logrus.Logger) *PriceCache {
	return &PriceCache{
		client: client,
		store:  store,
		ttl:    ttl,
		log:    log.WithField("component", "price_cache"),
	}
}

func latestCloseKey(symbol string) string {
	return fmt.Sprintf("price:latest:%s", symbol)
}

// LatestClose returns the cached latest close, reading through to the
// store on a miss. Redis errors degrade to a store read, never a failure.
func (c *PriceCache) LatestClose(ctx context.Context, symbol string) (decimal.Decimal, error) {
	key := latestCloseKey(symbol)

	val, err := c.client.Get(ctx, key).Result()
	if err == nil {
		price, parseErr := decimal.NewFromString(val)
		if parseErr == nil {
			return price, nil
		}
		c.log.WithField("key", key).Warn("dropping unparseable cache entry")
		c.client.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		c.log.WithError(err).Warn("redis read failed, falling back to store")
	}

	price, err := c.store.LatestClose(symbol)
	if err != nil {
		return decimal.Zero, err
	}

	if setErr := c.client.Set(ctx, key, price.String(), c.ttl).Err(); setErr != nil {
		c.log.WithError(setErr).Warn("failed to populate cache")
	}
	return price, nil
}

// Invalidate drops the cached close for each symbol. Called after an
// ingest so readers see fresh prices immediately.
func (c *PriceCache) Invalidate(ctx context.Context, symbols ...string) {
	if len(symbols) == 0 {
		return
	}
	keys := make([]string, len(symbols))
	for i, s := range symbols {
		keys[i] = latestCloseKey(s)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.WithError(err).Warn("failed to invalidate cache entries")
	}
}
