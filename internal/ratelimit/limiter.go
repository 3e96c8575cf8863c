// Package ratelimit gates outbound provider requests against per-source
// call quotas. The append-only api_calls audit log is the source of truth;
// the limiter keeps an in-memory reservation count per window so concurrent
// batch fetches cannot jointly exceed a quota between log writes.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/finsight/finance-pipeline/internal/models"
)

// SourceConfig declares the quota window for one data source. Quota <= 0
// means the source is unlimited (e.g. FRED), but calls are still audited.
type SourceConfig struct {
	Quota         int
	Window        time.Duration
	CountFailures bool
}

// Result is the outcome of a TryAcquire call. When Allowed is false,
// RetryAfter is the time until the current window resets.
type Result struct {
	Allowed    bool
	RetryAfter time.Duration
}

// AuditLog is the slice of the store the limiter depends on.
type AuditLog interface {
	CountAPICallsSince(source string, since time.Time, includeFailures bool) (int, error)
	LogAPICall(call *models.APICall) error
}

type windowState struct {
	start time.Time
	used  int
}

// Limiter tracks per-source call budgets over fixed windows.
type Limiter struct {
	mu      sync.Mutex
	sources map[string]SourceConfig
	audit   AuditLog
	windows map[string]*windowState
	now     func() time.Time
	log     *logrus.Entry
}

// New creates a Limiter over the given per-source configuration.
func New(sources map[string]SourceConfig, audit AuditLog, log *logrus.Logger) *Limiter {
	return &Limiter{
		sources: sources,
		audit:   audit,
		windows: make(map[string]*windowState),
		now:     time.Now,
		log:     log.WithField("component", "ratelimit"),
	}
}

// SetClock overrides the limiter's clock. Tests use this to roll windows
// forward without sleeping.
func (l *Limiter) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// TryAcquire must be called before every outbound request for the source.
// On Denied the caller must not make the request and must surface a
// quota-exceeded condition instead of retrying silently.
func (l *Limiter) TryAcquire(source string) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cfg, ok := l.sources[source]
	if !ok {
		return Result{}, fmt.Errorf("unknown source %q", source)
	}
	if cfg.Quota <= 0 {
		return Result{Allowed: true}, nil
	}

	now := l.now()
	windowStart := now.Truncate(cfg.Window)

	ws := l.windows[source]
	if ws == nil || !ws.start.Equal(windowStart) {
		// New window: seed the reservation count from the audit log so
		// restarts don't forget calls already spent this window.
		used, err := l.audit.CountAPICallsSince(source, windowStart, cfg.CountFailures)
		if err != nil {
			return Result{}, fmt.Errorf("failed to seed window for %s: %w", source, err)
		}
		ws = &windowState{start: windowStart, used: used}
		l.windows[source] = ws
	}

	if ws.used >= cfg.Quota {
		retryAfter := windowStart.Add(cfg.Window).Sub(now)
		l.log.WithFields(logrus.Fields{
			"source":      source,
			"quota":       cfg.Quota,
			"retry_after": retryAfter,
		}).Warn("quota exceeded")
		return Result{Allowed: false, RetryAfter: retryAfter}, nil
	}

	ws.used++
	return Result{Allowed: true}, nil
}

// Record appends an audit row for a request that was actually sent. For
// sources configured with CountFailures=false, a failed call releases the
// reservation taken by TryAcquire so it does not consume quota.
func (l *Limiter) Record(source, endpoint, symbol string, success bool, errMsg string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cfg, ok := l.sources[source]
	if ok && cfg.Quota > 0 && !success && !cfg.CountFailures {
		if ws := l.windows[source]; ws != nil && ws.used > 0 {
			ws.used--
		}
	}

	return l.audit.LogAPICall(&models.APICall{
		Source:    source,
		Endpoint:  endpoint,
		Symbol:    symbol,
		Timestamp: l.now(),
		Success:   success,
		Error:     errMsg,
	})
}
