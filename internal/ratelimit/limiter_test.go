package ratelimit

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/finance-pipeline/internal/models"
)

type fakeAuditLog struct {
	calls  []*models.APICall
	seeded int
}

func (f *fakeAuditLog) CountAPICallsSince(source string, since time.Time, includeFailures bool) (int, error) {
	return f.seeded, nil
}

func (f *fakeAuditLog) LogAPICall(call *models.APICall) error {
	f.calls = append(f.calls, call)
	return nil
}

func newTestLimiter(t *testing.T, cfg SourceConfig, audit *fakeAuditLog) *Limiter {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.FatalLevel)
	return New(map[string]SourceConfig{"alphavantage": cfg}, audit, log)
}

func TestTryAcquireDeniesAtQuota(t *testing.T) {
	audit := &fakeAuditLog{}
	l := newTestLimiter(t, SourceConfig{Quota: 2, Window: 24 * time.Hour, CountFailures: true}, audit)

	for i := 0; i < 2; i++ {
		res, err := l.TryAcquire("alphavantage")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "call %d should be within quota", i+1)
	}

	res, err := l.TryAcquire("alphavantage")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Greater(t, res.RetryAfter, time.Duration(0))
}

func TestTryAcquireSeedsWindowFromAuditLog(t *testing.T) {
	audit := &fakeAuditLog{seeded: 24}
	l := newTestLimiter(t, SourceConfig{Quota: 25, Window: 24 * time.Hour, CountFailures: true}, audit)

	res, err := l.TryAcquire("alphavantage")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = l.TryAcquire("alphavantage")
	require.NoError(t, err)
	assert.False(t, res.Allowed, "restart must not forget calls already spent this window")
}

func TestTryAcquireUnknownSource(t *testing.T) {
	l := newTestLimiter(t, SourceConfig{Quota: 1, Window: time.Hour}, &fakeAuditLog{})

	_, err := l.TryAcquire("bloomberg")
	assert.Error(t, err)
}

func TestUnlimitedSourceAlwaysAllowed(t *testing.T) {
	audit := &fakeAuditLog{}
	log := logrus.New()
	log.SetLevel(logrus.FatalLevel)
	l := New(map[string]SourceConfig{"fred": {Quota: 0, Window: time.Hour}}, audit, log)

	for i := 0; i < 100; i++ {
		res, err := l.TryAcquire("fred")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
}

func TestRecordFailureReleasesReservation(t *testing.T) {
	audit := &fakeAuditLog{}
	l := newTestLimiter(t, SourceConfig{Quota: 1, Window: time.Hour, CountFailures: false}, audit)

	res, err := l.TryAcquire("alphavantage")
	require.NoError(t, err)
	require.True(t, res.Allowed)

	require.NoError(t, l.Record("alphavantage", "GLOBAL_QUOTE", "AAPL", false, "timeout"))

	res, err = l.TryAcquire("alphavantage")
	require.NoError(t, err)
	assert.True(t, res.Allowed, "failed call should not consume quota when CountFailures is off")

	require.Len(t, audit.calls, 1)
	assert.False(t, audit.calls[0].Success)
	assert.Equal(t, "timeout", audit.calls[0].Error)
}

func TestRecordFailureCountsWhenConfigured(t *testing.T) {
	audit := &fakeAuditLog{}
	l := newTestLimiter(t, SourceConfig{Quota: 1, Window: time.Hour, CountFailures: true}, audit)

	res, err := l.TryAcquire("alphavantage")
	require.NoError(t, err)
	require.True(t, res.Allowed)

	require.NoError(t, l.Record("alphavantage", "GLOBAL_QUOTE", "AAPL", false, "timeout"))

	res, err = l.TryAcquire("alphavantage")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
}

func TestWindowRolloverResetsQuota(t *testing.T) {
	audit := &fakeAuditLog{}
	l := newTestLimiter(t, SourceConfig{Quota: 1, Window: time.Hour, CountFailures: true}, audit)

	clock := time.Date(2025, 6, 2, 10, 15, 0, 0, time.UTC)
	l.SetClock(func() time.Time { return clock })

	res, err := l.TryAcquire("alphavantage")
	require.NoError(t, err)
	require.True(t, res.Allowed)

	res, err = l.TryAcquire("alphavantage")
	require.NoError(t, err)
	require.False(t, res.Allowed)
	assert.Equal(t, 45*time.Minute, res.RetryAfter)

	clock = clock.Add(time.Hour)
	res, err = l.TryAcquire("alphavantage")
	require.NoError(t, err)
	assert.True(t, res.Allowed, "new window should reset the budget")
}
