package engagement

import (
	"context"
	"time"

	"github.com/ignite/engagement-analytics/internal/analytics"
	"github.com/ignite/engagement-analytics/internal/domain"
)

// EventSource yields a tenant's send/engagement records sent at or after
// since. Ordering is not required. Implementations must be safe for
// concurrent use.
type EventSource interface {
	ListEvents(ctx context.Context, tenantID string, since time.Time) ([]domain.EngagementEvent, error)
}

// SubscriberSource yields a tenant's full subscriber directory.
type SubscriberSource interface {
	ListSubscribers(ctx context.Context, tenantID string) ([]domain.SubscriberRecord, error)
}

// TemplateSource loads marketplace template statistics. Returns
// ErrTemplateNotFound if the template doesn't exist for the tenant.
type TemplateSource interface {
	GetTemplate(ctx context.Context, tenantID, templateID string) (*domain.TemplateStats, error)
}

// ReportCache stores complete reports. A miss is (nil, false, nil).
type ReportCache interface {
	Get(ctx context.Context, key string) (*analytics.Report, bool, error)
	Set(ctx context.Context, key string, r *analytics.Report) error
}

// Archive persists report snapshots and lists them newest first.
type Archive interface {
	Save(ctx context.Context, meta domain.SnapshotMeta, body []byte) (domain.SnapshotMeta, error)
	List(ctx context.Context, tenantID string, limit int) ([]domain.SnapshotMeta, error)
}
