// Package scheduler drives periodic refresh cycles over the favorited
// symbols. Refreshes are best effort: a failed cycle logs and waits for
// the next tick instead of aborting the scheduler.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Refresher performs one refresh cycle and reports how many symbols were
// refreshed.
type Refresher interface {
	RefreshFavorites(ctx context.Context) (int, error)
}

// Scheduler runs the refresh cycle on a fixed interval.
type Scheduler struct {
	cron      *cron.Cron
	refresher Refresher
	interval  time.Duration
	log       *logrus.Entry
	now       func() time.Time

	mu          sync.Mutex
	lastChecked time.Time
	lastCount   int
}

// New creates a Scheduler that refreshes every interval.
func New(refresher Refresher, interval time.Duration, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		refresher: refresher,
		interval:  interval,
		log:       log.WithField("component", "scheduler"),
		now:       time.Now,
	}
}

// Start registers the periodic job and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, func() { s.RunCycle(ctx) }); err != nil {
		return fmt.Errorf("failed to register refresh job: %w", err)
	}
	s.cron.Start()
	s.log.WithField("interval", s.interval).Info("scheduler started")
	return nil
}

// Stop stops the cron loop and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunCycle executes one refresh cycle immediately. The last-checked
// timestamp advances even when no favorites exist, so staleness reflects
// the last attempt rather than the last success with data.
func (s *Scheduler) RunCycle(ctx context.Context) {
	started := s.now()
	count, err := s.refresher.RefreshFavorites(ctx)
	if err != nil {
		s.log.WithError(err).Error("refresh cycle failed")
		return
	}

	s.mu.Lock()
	s.lastChecked = started
	s.lastCount = count
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"symbols":  count,
		"duration": s.now().Sub(started),
	}).Info("refresh cycle complete")
}

// Status reports when the last successful cycle ran and how many symbols
// it covered. The zero time means no cycle has completed yet.
func (s *Scheduler) Status() (lastChecked time.Time, symbols int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastChecked, s.lastCount
}
