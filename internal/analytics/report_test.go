package analytics

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/engagement-analytics/internal/domain"
)

func reportFixture() ([]domain.EngagementEvent, []domain.SubscriberRecord) {
	var subs []domain.SubscriberRecord
	var events []domain.EngagementEvent
	for i := 0; i < 40; i++ {
		email := fmt.Sprintf("user%02d@x.com", i)
		subs = append(subs, subscriber(email, daysAgo(5+i*7)))
		for j := 0; j < i%6; j++ {
			e := sendEvent(email, daysAgo(1+(i*j)%80).Add(time.Duration(i)*time.Hour), i%3, i%2)
			e.Subject = fmt.Sprintf("Weekly digest %d", j)
			e.ContentKey = fmt.Sprintf("tpl-%d", j)
			e.DeviceType = []string{"mobile", "desktop", ""}[i%3]
			events = append(events, e)
		}
	}
	subs[3].Status = domain.SubscriberUnsubscribed
	return events, subs
}

func TestClampDays(t *testing.T) {
	assert.Equal(t, 1, ClampDays(0))
	assert.Equal(t, 1, ClampDays(-5))
	assert.Equal(t, 365, ClampDays(9999))
	assert.Equal(t, 90, ClampDays(90))
}

func TestBuildReport_Period(t *testing.T) {
	for _, tt := range []struct{ in, want int }{{0, 1}, {9999, 365}, {30, 30}} {
		r := BuildReport(nil, nil, Options{Days: tt.in}, testNow)
		assert.Equal(t, tt.want, r.Period.Days)
		assert.True(t, testNow.AddDate(0, 0, -tt.want).Equal(r.Period.Since))
		assert.True(t, testNow.Equal(r.Period.Until))
	}
}

func TestBuildReport_Idempotent(t *testing.T) {
	events, subs := reportFixture()
	opts := Options{CohortType: CohortWeekly, IncludeChurn: true, Days: 90}

	first := BuildReport(events, subs, opts, testNow)
	second := BuildReport(events, subs, opts, testNow)

	assert.Equal(t, first, second)
	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestBuildReport_TestEventsExcluded(t *testing.T) {
	events, subs := reportFixture()
	opts := Options{CohortType: CohortMonthly, IncludeChurn: true, Days: 90}
	clean := BuildReport(events, subs, opts, testNow)

	noisy := append([]domain.EngagementEvent(nil), events...)
	for i := 0; i < 40; i++ {
		e := sendEvent(fmt.Sprintf("user%02d@x.com", i), daysAgo(2), 9, 9)
		e.IsTest = true
		e.Subject = "Seed test"
		e.ContentKey = "tpl-seed"
		noisy = append(noisy, e)
	}

	assert.Equal(t, clean, BuildReport(noisy, subs, opts, testNow))
}

func TestBuildReport_Partitions(t *testing.T) {
	events, subs := reportFixture()
	subs = append(subs,
		subscriber("", daysAgo(200)),
		subscriber("   ", daysAgo(5)))
	events = append(events, sendEvent("", daysAgo(2), 1, 1))

	r := BuildReport(events, subs, Options{IncludeChurn: true, Days: 365}, testNow)

	require.NotNil(t, r.Churn)
	var tierTotal, segmentTotal int
	for _, tier := range ChurnTiers {
		tierTotal += r.Churn.Tiers[tier].Count
	}
	for _, name := range SegmentNames {
		stats := r.Segments.Segments[name]
		segmentTotal += stats.Count
		assert.GreaterOrEqual(t, stats.Percentage, 0.0)
		assert.LessOrEqual(t, stats.Percentage, 100.0)
	}
	assert.Equal(t, len(subs), tierTotal)
	assert.Equal(t, len(subs), segmentTotal)
	assert.Equal(t, len(subs), r.Churn.Total)
	assert.Equal(t, len(subs), r.Segments.Total)
	assert.Equal(t, 1, r.Churn.Count(ChurnUnsubscribed))

	for _, c := range r.Cohorts.Cohorts {
		assert.GreaterOrEqual(t, c.ActiveRate, 0.0)
		assert.LessOrEqual(t, c.ActiveRate, 100.0)
		assert.GreaterOrEqual(t, c.EngagementRate, 0.0)
		assert.LessOrEqual(t, c.EngagementRate, 100.0)
	}
	assert.Equal(t, CohortMonthly, r.Cohorts.Type)
}

func TestBuildReport_Window(t *testing.T) {
	subs := []domain.SubscriberRecord{subscriber("a@x.com", daysAgo(100))}
	events := []domain.EngagementEvent{
		sendEvent("a@x.com", daysAgo(3), 1, 0),
		sendEvent("a@x.com", daysAgo(20), 1, 0),
		sendEvent("a@x.com", testNow.Add(time.Hour), 1, 0),
		{Recipient: "a@x.com"},
	}

	r := BuildReport(events, subs, Options{IncludeChurn: true, Days: 7}, testNow)

	assert.Equal(t, 2, r.Engagement.TotalEmails)
	assert.Equal(t, 1, r.Engagement.OpenedEmails)
	assert.Equal(t, 1, r.Churn.Count(ChurnActive))
}

func TestBuildReport_WithoutChurn(t *testing.T) {
	events, subs := reportFixture()

	r := BuildReport(events, subs, Options{IncludeChurn: false, Days: 90}, testNow)

	assert.Nil(t, r.Churn)
	assert.Nil(t, r.Predictions.ProjectedChurn)

	raw, err := json.Marshal(r)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "churn")
	assert.Nil(t, decoded["churn"])
	for _, key := range []string{"period", "engagement", "cohorts", "segments", "predictions", "recommendations", "generatedAt"} {
		assert.Contains(t, decoded, key)
	}
}

func TestBuildReport_Empty(t *testing.T) {
	r := BuildReport(nil, nil, Options{IncludeChurn: true, Days: 90}, testNow)

	require.NotNil(t, r.Churn)
	assert.Zero(t, r.Churn.Total)
	assert.Zero(t, r.Segments.Total)
	assert.Empty(t, r.Cohorts.Cohorts)
	require.Len(t, r.Recommendations, 1)
	assert.Equal(t, RiskLow, r.Predictions.RiskLevel)
}

func TestBuildProfiles_BlankEmail(t *testing.T) {
	subs := []domain.SubscriberRecord{
		subscriber("", daysAgo(200)),
		subscriber("a@x.com", daysAgo(200)),
		subscriber(" ", daysAgo(5)),
	}
	events := []domain.EngagementEvent{
		sendEvent("", daysAgo(1), 1, 1),
		sendEvent("a@x.com", daysAgo(1), 1, 0),
	}

	profiles := BuildProfiles(events, subs, testNow)

	require.Len(t, profiles, 3)
	assert.Zero(t, profiles[0].TotalEmails)
	assert.Nil(t, profiles[0].LastEngagedAt)
	assert.Equal(t, ChurnChurned, ClassifyTier(profiles[0]))
	assert.Equal(t, SegmentHibernating, AssignSegment(profiles[0]))
	assert.Equal(t, 1, profiles[1].TotalEmails)
	assert.Equal(t, SegmentNewSubscribers, AssignSegment(profiles[2]))
}
