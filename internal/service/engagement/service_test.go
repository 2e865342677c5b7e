package engagement_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/engagement-analytics/internal/analytics"
	"github.com/ignite/engagement-analytics/internal/domain"
	"github.com/ignite/engagement-analytics/internal/service/engagement"
)

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type memSource struct {
	events      []domain.EngagementEvent
	subscribers []domain.SubscriberRecord
	templates   map[string]domain.TemplateStats

	eventsErr error
	subsErr   error

	mu        sync.Mutex
	calls     int
	lastSince time.Time
}

func (m *memSource) ListEvents(_ context.Context, tenantID string, since time.Time) ([]domain.EngagementEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastSince = since
	return m.events, m.eventsErr
}

func (m *memSource) ListSubscribers(_ context.Context, tenantID string) ([]domain.SubscriberRecord, error) {
	return m.subscribers, m.subsErr
}

func (m *memSource) GetTemplate(_ context.Context, tenantID, templateID string) (*domain.TemplateStats, error) {
	t, ok := m.templates[tenantID+"/"+templateID]
	if !ok {
		return nil, engagement.ErrTemplateNotFound
	}
	return &t, nil
}

type memCache struct {
	reports map[string]*analytics.Report
	getErr  error
}

func (c *memCache) Get(_ context.Context, key string) (*analytics.Report, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	r, ok := c.reports[key]
	return r, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, r *analytics.Report) error {
	c.reports[key] = r
	return nil
}

type memArchive struct {
	saved  []domain.SnapshotMeta
	bodies [][]byte
}

func (a *memArchive) Save(_ context.Context, meta domain.SnapshotMeta, body []byte) (domain.SnapshotMeta, error) {
	meta.Location = "mem://" + meta.ID
	a.saved = append(a.saved, meta)
	a.bodies = append(a.bodies, body)
	return meta, nil
}

func (a *memArchive) List(_ context.Context, tenantID string, limit int) ([]domain.SnapshotMeta, error) {
	var out []domain.SnapshotMeta
	for i := len(a.saved) - 1; i >= 0 && len(out) < limit; i-- {
		if a.saved[i].TenantID == tenantID {
			out = append(out, a.saved[i])
		}
	}
	return out, nil
}

func fixture() *memSource {
	open := fixedNow.AddDate(0, 0, -2)
	return &memSource{
		subscribers: []domain.SubscriberRecord{
			{Email: "a@x.com", SignupDate: fixedNow.AddDate(0, -2, 0), Status: domain.SubscriberActive},
			{Email: "b@x.com", SignupDate: fixedNow.AddDate(0, -1, 0), Status: domain.SubscriberUnsubscribed},
		},
		events: []domain.EngagementEvent{
			{Recipient: "a@x.com", SentAt: open.Add(-time.Hour), Opens: 1, FirstOpenAt: &open},
			{Recipient: "b@x.com", SentAt: open.Add(-time.Hour)},
		},
		templates: map[string]domain.TemplateStats{
			"t1/tpl-1": {TemplateID: "tpl-1", TenantID: "t1", ThumbnailURL: "x.png", Favorites: 6, RatingPositive: 1, RatingTotal: 1},
		},
	}
}

func newService(src *memSource, opts ...engagement.Option) *engagement.Service {
	opts = append([]engagement.Option{engagement.WithClock(func() time.Time { return fixedNow })}, opts...)
	return engagement.NewService(src, src, src, opts...)
}

func TestQuery_Options(t *testing.T) {
	no := false
	tests := []struct {
		name    string
		query   engagement.Query
		want    analytics.Options
		wantErr error
	}{
		{"defaults", engagement.Query{TenantID: "t1", Days: 90}, analytics.Options{CohortType: analytics.CohortMonthly, IncludeChurn: true, Days: 90}, nil},
		{"clamp low", engagement.Query{TenantID: "t1", Days: 0}, analytics.Options{CohortType: analytics.CohortMonthly, IncludeChurn: true, Days: 1}, nil},
		{"clamp high", engagement.Query{TenantID: "t1", Days: 9999}, analytics.Options{CohortType: analytics.CohortMonthly, IncludeChurn: true, Days: 365}, nil},
		{"explicit", engagement.Query{TenantID: "t1", CohortType: "Weekly", IncludeChurn: &no, Days: 30}, analytics.Options{CohortType: analytics.CohortWeekly, IncludeChurn: false, Days: 30}, nil},
		{"missing tenant", engagement.Query{TenantID: "  "}, analytics.Options{}, engagement.ErrMissingTenant},
		{"bad cohort", engagement.Query{TenantID: "t1", CohortType: "daily"}, analytics.Options{}, engagement.ErrInvalidCohortType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.query.Options()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReport(t *testing.T) {
	src := fixture()
	svc := newService(src)

	r, err := svc.Report(context.Background(), engagement.Query{TenantID: "t1", Days: 30})
	require.NoError(t, err)

	assert.Equal(t, 30, r.Period.Days)
	assert.True(t, fixedNow.AddDate(0, 0, -30).Equal(src.lastSince))
	assert.Equal(t, 2, r.Engagement.TotalEmails)
	require.NotNil(t, r.Churn)
	assert.Equal(t, 1, r.Churn.Count(analytics.ChurnActive))
	assert.Equal(t, 1, r.Churn.Count(analytics.ChurnUnsubscribed))
	assert.True(t, fixedNow.Equal(r.GeneratedAt))
}

func TestReport_ValidationBeforeIO(t *testing.T) {
	src := fixture()
	svc := newService(src)

	_, err := svc.Report(context.Background(), engagement.Query{})
	assert.ErrorIs(t, err, engagement.ErrMissingTenant)
	_, err = svc.Report(context.Background(), engagement.Query{TenantID: "t1", CohortType: "yearly"})
	assert.ErrorIs(t, err, engagement.ErrInvalidCohortType)
	assert.Zero(t, src.calls)
}

func TestReport_FetchFailure(t *testing.T) {
	cause := errors.New("connection refused")
	for name, src := range map[string]*memSource{
		"events":      {eventsErr: cause},
		"subscribers": {subsErr: cause},
	} {
		t.Run(name, func(t *testing.T) {
			cache := &memCache{reports: map[string]*analytics.Report{}}
			svc := newService(src, engagement.WithCache(cache))

			r, err := svc.Report(context.Background(), engagement.Query{TenantID: "t1", Days: 90})

			assert.Nil(t, r)
			assert.ErrorIs(t, err, engagement.ErrFetchFailed)
			assert.ErrorIs(t, err, cause)
			assert.Empty(t, cache.reports)
		})
	}
}

func TestReport_CancelledContext(t *testing.T) {
	src := fixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newService(src).Report(ctx, engagement.Query{TenantID: "t1", Days: 90})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, src.calls)
}

func TestReport_Cache(t *testing.T) {
	src := fixture()
	cache := &memCache{reports: map[string]*analytics.Report{}}
	svc := newService(src, engagement.WithCache(cache))
	q := engagement.Query{TenantID: "t1", Days: 90}

	first, err := svc.Report(context.Background(), q)
	require.NoError(t, err)
	second, err := svc.Report(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, 1, src.calls)
	assert.Same(t, first, second)
	assert.Len(t, cache.reports, 1)
}

func TestReport_CacheFailureFailsOpen(t *testing.T) {
	src := fixture()
	cache := &memCache{reports: map[string]*analytics.Report{}, getErr: errors.New("redis down")}
	svc := newService(src, engagement.WithCache(cache))

	r, err := svc.Report(context.Background(), engagement.Query{TenantID: "t1", Days: 90})

	require.NoError(t, err)
	assert.NotNil(t, r)
	assert.Equal(t, 1, src.calls)
}

func TestScoreTemplate(t *testing.T) {
	svc := newService(fixture())

	q, err := svc.ScoreTemplate(context.Background(), "t1", "tpl-1")
	require.NoError(t, err)
	assert.InDelta(t, 70.0, q.Score, 1e-9)
	assert.Equal(t, analytics.TierGood, q.Tier)

	_, err = svc.ScoreTemplate(context.Background(), "t1", "missing")
	assert.ErrorIs(t, err, engagement.ErrTemplateNotFound)
	_, err = svc.ScoreTemplate(context.Background(), "", "tpl-1")
	assert.ErrorIs(t, err, engagement.ErrMissingTenant)
}

func TestSnapshots(t *testing.T) {
	archive := &memArchive{}
	svc := newService(fixture(), engagement.WithArchive(archive))

	meta, err := svc.Snapshot(context.Background(), engagement.Query{TenantID: "t1", Days: 45})
	require.NoError(t, err)
	assert.NotEmpty(t, meta.ID)
	assert.Equal(t, "t1", meta.TenantID)
	assert.Equal(t, "monthly", meta.CohortType)
	assert.Equal(t, 45, meta.Days)
	assert.Equal(t, int64(len(archive.bodies[0])), meta.Size)
	assert.Contains(t, string(archive.bodies[0]), `"engagement"`)

	list, err := svc.ListSnapshots(context.Background(), "t1", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, meta.ID, list[0].ID)

	_, err = svc.ListSnapshots(context.Background(), "", 5)
	assert.ErrorIs(t, err, engagement.ErrMissingTenant)
}

func TestSnapshots_ArchiveDisabled(t *testing.T) {
	svc := newService(fixture())

	_, err := svc.Snapshot(context.Background(), engagement.Query{TenantID: "t1"})
	assert.ErrorIs(t, err, engagement.ErrArchiveUnavailable)
	_, err = svc.ListSnapshots(context.Background(), "t1", 5)
	assert.ErrorIs(t, err, engagement.ErrArchiveUnavailable)
}
