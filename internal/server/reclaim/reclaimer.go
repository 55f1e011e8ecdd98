// Package reclaim deletes token rows that can no longer pass validation.
//
// Reclamation is housekeeping only: requests never wait for it, and its
// failures are logged and dropped.
package reclaim

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/dbx"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/repomanager"
)

type Reclaimer struct {
	pool        dbx.Pool
	repomanager repomanager.RepositoryManager
	log         logging.Logger
	metrics     *metrics.Metrics

	interval time.Duration
	timeout  time.Duration
	now      func() time.Time

	trigger chan struct{}
}

// New builds a Reclaimer. interval <= 0 disables the periodic tick; runs then
// happen only on Trigger.
func New(pool dbx.Pool, m repomanager.RepositoryManager, log logging.Logger, mx *metrics.Metrics, interval, timeout time.Duration) *Reclaimer {
	return &Reclaimer{
		pool:        pool,
		repomanager: m,
		log:         log.With("module", "reclaim"),
		metrics:     mx,
		interval:    interval,
		timeout:     timeout,
		now:         time.Now,
		trigger:     make(chan struct{}, 1),
	}
}

// Trigger schedules a run without blocking. Triggers that arrive while one
// is already pending collapse into it.
func (r *Reclaimer) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Run services triggers and the periodic tick until ctx is cancelled.
func (r *Reclaimer) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if r.interval > 0 {
		t := time.NewTicker(r.interval)
		defer t.Stop()
		tick = t.C
	}

	r.log.Info(ctx, "reclaimer started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.log.Info(context.Background(), "reclaimer stopped")
			return nil
		case <-r.trigger:
		case <-tick:
		}
		r.runLogged(ctx)
	}
}

func (r *Reclaimer) runLogged(ctx context.Context) {
	n, err := r.ReclaimOnce(ctx)
	if err != nil {
		r.metrics.ReclaimErrors.Inc()
		r.log.Warn(ctx, "reclamation failed", "error", err)
		return
	}
	if n > 0 {
		r.log.Debug(ctx, "stale tokens reclaimed", "count", n)
	}
}

// ReclaimOnce deletes every token whose last use predates the retention
// horizon and reports how many were removed.
func (r *Reclaimer) ReclaimOnce(ctx context.Context) (int64, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire: %w: %w", common.ErrorUnavailable, err)
	}
	defer conn.Close()

	n, err := r.repomanager.Tokens(conn).DeleteStale(ctx, r.now().Add(-models.RetentionHorizon))
	if err != nil {
		return 0, fmt.Errorf("delete stale: %w: %w", common.ErrorUnavailable, err)
	}

	r.metrics.Reclaimed.Add(float64(n))
	return n, nil
}
