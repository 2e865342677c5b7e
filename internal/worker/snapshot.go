package worker

import (
	"context"
	"errors"
	"time"

	"github.com/ignite/engagement-analytics/internal/config"
	"github.com/ignite/engagement-analytics/internal/domain"
	"github.com/ignite/engagement-analytics/internal/pkg/distlock"
	"github.com/ignite/engagement-analytics/internal/pkg/logger"
	"github.com/ignite/engagement-analytics/internal/service/engagement"
)

// Snapshotter builds and archives one report.
type Snapshotter interface {
	Snapshot(ctx context.Context, q engagement.Query) (domain.SnapshotMeta, error)
}

// SnapshotWorker archives a report for every configured tenant on a fixed
// interval. Only one replica runs a cycle at a time.
type SnapshotWorker struct {
	snapshots Snapshotter
	lock      distlock.Lock
	cfg       config.SnapshotConfig
	timeout   time.Duration
}

// NewSnapshotWorker creates a snapshot worker. timeout bounds each tenant's
// report; zero means no bound beyond ctx.
func NewSnapshotWorker(s Snapshotter, lock distlock.Lock, cfg config.SnapshotConfig, timeout time.Duration) *SnapshotWorker {
	return &SnapshotWorker{snapshots: s, lock: lock, cfg: cfg, timeout: timeout}
}

// Start runs a cycle immediately and then on every tick. It blocks until ctx
// is cancelled.
func (w *SnapshotWorker) Start(ctx context.Context) {
	interval := w.cfg.Interval()
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	logger.Info("[SnapshotWorker] starting", "interval", interval.String(), "tenants", len(w.cfg.Tenants))

	w.RunOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("[SnapshotWorker] stopping")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// CycleResult summarizes one RunOnce call.
type CycleResult struct {
	Skipped  bool
	Saved    []domain.SnapshotMeta
	Failures map[string]error
}

// RunOnce snapshots each tenant in order while holding the lock. A tenant
// failure is logged and does not stop the cycle. Skipped is set when another
// replica holds the lock.
func (w *SnapshotWorker) RunOnce(ctx context.Context) CycleResult {
	result := CycleResult{Failures: map[string]error{}}
	start := time.Now()

	acquired, err := distlock.Run(ctx, w.lock, func(ctx context.Context) error {
		for _, tenant := range w.cfg.Tenants {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			meta, err := w.snapshotTenant(ctx, tenant)
			if err != nil {
				result.Failures[tenant] = err
				logger.Error("[SnapshotWorker] snapshot failed", "tenant_id", tenant, "error", err)
				continue
			}
			result.Saved = append(result.Saved, meta)
			logger.Info("[SnapshotWorker] snapshot saved",
				"tenant_id", tenant,
				"snapshot_id", meta.ID,
				"location", meta.Location,
				"size", meta.Size)
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("[SnapshotWorker] cycle failed", "error", err)
	}
	if !acquired {
		if err == nil {
			logger.Debug("[SnapshotWorker] lock held elsewhere, skipping cycle")
		}
		result.Skipped = true
		return result
	}

	logger.Info("[SnapshotWorker] cycle complete",
		"saved", len(result.Saved),
		"failed", len(result.Failures),
		"duration_ms", time.Since(start).Milliseconds())
	return result
}

func (w *SnapshotWorker) snapshotTenant(ctx context.Context, tenant string) (domain.SnapshotMeta, error) {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	return w.snapshots.Snapshot(ctx, engagement.Query{
		TenantID:   tenant,
		CohortType: w.cfg.CohortType,
		Days:       w.cfg.Days,
	})
}
