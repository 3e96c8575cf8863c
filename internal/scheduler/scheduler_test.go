package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRefresher struct {
	count int
	err   error
	calls int
}

func (f *fakeRefresher) RefreshFavorites(ctx context.Context) (int, error) {
	f.calls++
	return f.count, f.err
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.FatalLevel)
	return log
}

func TestRunCycleUpdatesStatus(t *testing.T) {
	ref := &fakeRefresher{count: 3}
	s := New(ref, time.Minute, quietLogger())

	tick := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return tick }

	s.RunCycle(context.Background())

	lastChecked, symbols := s.Status()
	assert.Equal(t, tick, lastChecked)
	assert.Equal(t, 3, symbols)
	assert.Equal(t, 1, ref.calls)
}

func TestRunCycleAdvancesWithNoFavorites(t *testing.T) {
	ref := &fakeRefresher{count: 0}
	s := New(ref, time.Minute, quietLogger())

	s.RunCycle(context.Background())

	lastChecked, symbols := s.Status()
	assert.False(t, lastChecked.IsZero(), "an empty cycle still counts as checked")
	assert.Equal(t, 0, symbols)
}

func TestRunCycleFailureKeepsPreviousStatus(t *testing.T) {
	ref := &fakeRefresher{count: 2}
	s := New(ref, time.Minute, quietLogger())

	s.RunCycle(context.Background())
	first, _ := s.Status()
	require.False(t, first.IsZero())

	ref.err = errors.New("provider down")
	s.RunCycle(context.Background())

	lastChecked, symbols := s.Status()
	assert.Equal(t, first, lastChecked, "a failed cycle must not advance last-checked")
	assert.Equal(t, 2, symbols)
}

func TestStartAndStop(t *testing.T) {
	ref := &fakeRefresher{}
	s := New(ref, time.Hour, quietLogger())

	require.NoError(t, s.Start(context.Background()))
	s.Stop()
}
