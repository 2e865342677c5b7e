package engagement

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ignite/engagement-analytics/internal/analytics"
	"github.com/ignite/engagement-analytics/internal/cache"
	"github.com/ignite/engagement-analytics/internal/domain"
	"github.com/ignite/engagement-analytics/internal/pkg/logger"
)

// DefaultSnapshotLimit caps ListSnapshots when the caller gives no limit.
const DefaultSnapshotLimit = 20

// Query is the single report entry point's input. Zero values select the
// defaults: monthly cohorts and churn analysis included. Days is clamped to
// [1,365]; callers that want the 90-day default must set it.
type Query struct {
	TenantID     string
	CohortType   string
	IncludeChurn *bool
	Days         int
}

// Options validates the query and resolves it into engine options.
func (q Query) Options() (analytics.Options, error) {
	if strings.TrimSpace(q.TenantID) == "" {
		return analytics.Options{}, ErrMissingTenant
	}
	ct := analytics.CohortType(strings.ToLower(strings.TrimSpace(q.CohortType)))
	if ct == "" {
		ct = analytics.CohortMonthly
	}
	if !ct.Valid() {
		return analytics.Options{}, fmt.Errorf("%w: %q", ErrInvalidCohortType, q.CohortType)
	}
	includeChurn := true
	if q.IncludeChurn != nil {
		includeChurn = *q.IncludeChurn
	}
	return analytics.Options{
		CohortType:   ct,
		IncludeChurn: includeChurn,
		Days:         analytics.ClampDays(q.Days),
	}, nil
}

// Service implements the engagement report entry point. All public methods
// are safe for concurrent use if the underlying sources are.
type Service struct {
	events      EventSource
	subscribers SubscriberSource
	templates   TemplateSource
	cache       ReportCache
	archive     Archive
	now         func() time.Time
}

// Option configures optional collaborators.
type Option func(*Service)

// WithCache puts a report cache in front of Report.
func WithCache(c ReportCache) Option { return func(s *Service) { s.cache = c } }

// WithArchive enables Snapshot and ListSnapshots.
func WithArchive(a Archive) Option { return func(s *Service) { s.archive = a } }

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// NewService creates an engagement service backed by the given sources.
func NewService(events EventSource, subscribers SubscriberSource, templates TemplateSource, opts ...Option) *Service {
	s := &Service{
		events:      events,
		subscribers: subscribers,
		templates:   templates,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func cacheKey(tenantID string, o analytics.Options) string {
	return cache.Key(tenantID, fmt.Sprintf("%s:%t:%d", o.CohortType, o.IncludeChurn, o.Days))
}

// Report validates q, fetches the tenant's events and subscribers
// concurrently, and runs the analytics pipeline. A failure of either
// fetch fails the whole report with ErrFetchFailed.
func (s *Service) Report(ctx context.Context, q Query) (*analytics.Report, error) {
	opts, err := q.Options()
	if err != nil {
		return nil, err
	}
	tenantID := strings.TrimSpace(q.TenantID)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := cacheKey(tenantID, opts)
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			logger.Warn("[Engagement] report cache read failed", "tenant_id", tenantID, "error", err)
		} else if ok {
			return cached, nil
		}
	}

	now := s.now().UTC()
	since := analytics.Since(now, opts.Days)

	var (
		events      []domain.EngagementEvent
		subscribers []domain.SubscriberRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		events, err = s.events.ListEvents(gctx, tenantID, since)
		if err != nil {
			return fmt.Errorf("list events: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		subscribers, err = s.subscribers.ListSubscribers(gctx, tenantID)
		if err != nil {
			return fmt.Errorf("list subscribers: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Error("[Engagement] fetch failed", "tenant_id", tenantID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	report := analytics.BuildReport(events, subscribers, opts, now)
	logger.Info("[Engagement] report built",
		"tenant_id", tenantID,
		"events", len(events),
		"subscribers", len(subscribers),
		"days", opts.Days,
		"duration_ms", time.Since(start).Milliseconds())

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, &report); err != nil {
			logger.Warn("[Engagement] report cache write failed", "tenant_id", tenantID, "error", err)
		}
	}
	return &report, nil
}

// ScoreTemplate scores a marketplace template with its ratings and full
// heuristic signals.
func (s *Service) ScoreTemplate(ctx context.Context, tenantID, templateID string) (analytics.QualityScore, error) {
	if strings.TrimSpace(tenantID) == "" {
		return analytics.QualityScore{}, ErrMissingTenant
	}
	if strings.TrimSpace(templateID) == "" {
		return analytics.QualityScore{}, ErrTemplateNotFound
	}
	tpl, err := s.templates.GetTemplate(ctx, tenantID, templateID)
	if err != nil {
		return analytics.QualityScore{}, err
	}
	return analytics.TemplateQuality(*tpl), nil
}

// Snapshot builds a report for q and stores it in the archive.
func (s *Service) Snapshot(ctx context.Context, q Query) (domain.SnapshotMeta, error) {
	if s.archive == nil {
		return domain.SnapshotMeta{}, ErrArchiveUnavailable
	}
	report, err := s.Report(ctx, q)
	if err != nil {
		return domain.SnapshotMeta{}, err
	}
	body, err := json.Marshal(report)
	if err != nil {
		return domain.SnapshotMeta{}, fmt.Errorf("encode report: %w", err)
	}
	meta := domain.SnapshotMeta{
		ID:          uuid.New().String(),
		TenantID:    strings.TrimSpace(q.TenantID),
		CohortType:  string(report.Cohorts.Type),
		Days:        report.Period.Days,
		GeneratedAt: report.GeneratedAt,
		Size:        int64(len(body)),
	}
	saved, err := s.archive.Save(ctx, meta, body)
	if err != nil {
		return domain.SnapshotMeta{}, fmt.Errorf("archive snapshot: %w", err)
	}
	return saved, nil
}

// ListSnapshots returns a tenant's archived snapshots, newest first.
func (s *Service) ListSnapshots(ctx context.Context, tenantID string, limit int) ([]domain.SnapshotMeta, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, ErrMissingTenant
	}
	if s.archive == nil {
		return nil, ErrArchiveUnavailable
	}
	if limit <= 0 {
		limit = DefaultSnapshotLimit
	}
	return s.archive.List(ctx, strings.TrimSpace(tenantID), limit)
}
