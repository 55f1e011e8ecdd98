package reclaim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/dbx"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/repomanager"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger         { return n }

type failingPool struct{}

func (failingPool) Acquire(context.Context) (dbx.Conn, error) {
	return nil, errors.New("pool exhausted")
}

func newReclaimer(t *testing.T, now time.Time) (*Reclaimer, *repomanager.MemoryRepositoryManager) {
	t.Helper()
	rm := repomanager.NewMemoryRepositoryManager()
	r := New(dbx.NopPool{}, rm, nopLogger{}, metrics.New(nil), 0, time.Second)
	r.now = func() time.Time { return now }
	return r, rm
}

func TestReclaimOnce_RemovesOnlyStale(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	r, rm := newReclaimer(t, now)
	ctx := context.Background()

	_, err := rm.TokenStore.Mint(ctx, now.Add(-models.RetentionHorizon-time.Second))
	require.NoError(t, err)
	fresh, err := rm.TokenStore.Mint(ctx, now.Add(-time.Hour))
	require.NoError(t, err)

	for range 3 {
		_, err := r.ReclaimOnce(ctx)
		require.NoError(t, err)
	}

	assert.Equal(t, 1, rm.TokenStore.Len())
	_, err = rm.TokenStore.Lookup(ctx, fresh)
	assert.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.metrics.Reclaimed))
}

func TestReclaimOnce_PoolFailure(t *testing.T) {
	r, _ := newReclaimer(t, time.Now())
	r.pool = failingPool{}

	_, err := r.ReclaimOnce(context.Background())
	assert.ErrorIs(t, err, common.ErrorUnavailable)
}

func TestTrigger_NeverBlocks(t *testing.T) {
	r, _ := newReclaimer(t, time.Now())

	done := make(chan struct{})
	go func() {
		for range 100 {
			r.Trigger()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Trigger blocked")
	}
	assert.Len(t, r.trigger, 1)
}

func TestRun_ProcessesTriggerAndStops(t *testing.T) {
	now := time.Now()
	r, rm := newReclaimer(t, now)

	_, err := rm.TokenStore.Mint(context.Background(), now.Add(-8*24*time.Hour))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- r.Run(ctx) }()

	r.Trigger()
	require.Eventually(t, func() bool { return rm.TokenStore.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestRun_SwallowsFailures(t *testing.T) {
	r, _ := newReclaimer(t, time.Now())
	r.pool = failingPool{}
	r.interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- r.Run(ctx) }()

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(r.metrics.ReclaimErrors) >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.NoError(t, <-errc)
}
