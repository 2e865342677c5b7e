package worker

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/ignite/engagement-analytics/internal/pkg/logger"
)

// DefaultRetentionBatchSize limits each DELETE so the table is never locked
// for long.
const DefaultRetentionBatchSize = 10000

// RetentionWorker deletes engagement events older than the retention window
// in batches. Events without a send time age out by created_at.
type RetentionWorker struct {
	db        *sql.DB
	interval  time.Duration
	keepDays  int
	batchSize int
	pause     time.Duration
	now       func() time.Time
}

// NewRetentionWorker creates a cleanup worker keeping keepDays of events.
func NewRetentionWorker(db *sql.DB, keepDays int, interval time.Duration, batchSize int) *RetentionWorker {
	if batchSize <= 0 {
		batchSize = DefaultRetentionBatchSize
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &RetentionWorker{
		db:        db,
		interval:  interval,
		keepDays:  keepDays,
		batchSize: batchSize,
		pause:     100 * time.Millisecond,
		now:       time.Now,
	}
}

// Start runs a cleanup immediately and then on every tick until ctx is
// cancelled.
func (w *RetentionWorker) Start(ctx context.Context) {
	logger.Info("[Retention] starting", "interval", w.interval.String(), "keep_days", w.keepDays, "batch_size", w.batchSize)

	w.RunOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("[Retention] stopping")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

const deleteExpiredEvents = `
	DELETE FROM engagement_events
	WHERE id IN (
		SELECT id FROM engagement_events
		WHERE COALESCE(sent_at, created_at) < $1
		LIMIT $2
	)`

// RunOnce deletes expired events batch by batch until none remain and
// returns how many rows were removed. A missing table is not an error.
func (w *RetentionWorker) RunOnce(ctx context.Context) int64 {
	if w.keepDays <= 0 {
		return 0
	}
	start := time.Now()
	cutoff := w.now().UTC().AddDate(0, 0, -w.keepDays)

	var total int64
	for ctx.Err() == nil {
		queryCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
		res, err := w.db.ExecContext(queryCtx, deleteExpiredEvents, cutoff, w.batchSize)
		cancel()
		if err != nil {
			if isUndefinedTable(err) {
				logger.Warn("[Retention] engagement_events does not exist, skipping")
			} else {
				logger.Error("[Retention] delete failed", "error", err, "deleted", total)
			}
			break
		}

		affected, err := res.RowsAffected()
		if err != nil {
			logger.Error("[Retention] rows affected unavailable", "error", err, "deleted", total)
			break
		}
		if affected == 0 {
			break
		}
		total += affected
		if affected < int64(w.batchSize) {
			break
		}
		time.Sleep(w.pause)
	}

	if total > 0 {
		logger.Info("[Retention] removed expired events",
			"deleted", total,
			"cutoff", cutoff.Format(time.RFC3339),
			"duration_ms", time.Since(start).Milliseconds())
	}
	return total
}

// isUndefinedTable matches Postgres error 42P01, raised before migrations run.
func isUndefinedTable(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "42P01"
}
