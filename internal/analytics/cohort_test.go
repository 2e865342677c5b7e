package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/engagement-analytics/internal/domain"
)

func TestCohortKey(t *testing.T) {
	tests := []struct {
		name      string
		signup    time.Time
		ct        CohortType
		wantKey   string
		wantStart time.Time
	}{
		{"weekly thursday", time.Date(2024, 6, 13, 18, 0, 0, 0, time.UTC), CohortWeekly, "2024-06-10", time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)},
		{"weekly sunday", time.Date(2024, 6, 9, 1, 0, 0, 0, time.UTC), CohortWeekly, "2024-06-03", time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)},
		{"weekly across year", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), CohortWeekly, "2024-12-30", time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)},
		{"monthly", time.Date(2024, 6, 30, 23, 59, 0, 0, time.UTC), CohortMonthly, "2024-06", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		{"quarter one end", time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), CohortQuarterly, "2024-Q1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"quarter two start", time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), CohortQuarterly, "2024-Q2", time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
		{"quarter four", time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), CohortQuarterly, "2024-Q4", time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)},
		{"non utc signup", time.Date(2024, 7, 1, 2, 0, 0, 0, time.FixedZone("plus5", 5*3600)), CohortMonthly, "2024-06", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		{"unknown type", time.Date(2024, 6, 13, 0, 0, 0, 0, time.UTC), CohortType("daily"), "2024-06", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, start := CohortKey(tt.signup, tt.ct)
			assert.Equal(t, tt.wantKey, key)
			assert.True(t, tt.wantStart.Equal(start), "start %v, want %v", start, tt.wantStart)
		})
	}
}

func TestAnalyzeCohorts_SingleMonthFullyEngaged(t *testing.T) {
	var subs []domain.SubscriberRecord
	var events []domain.EngagementEvent
	for i := 0; i < 100; i++ {
		email := fmt.Sprintf("user%03d@x.com", i)
		subs = append(subs, subscriber(email, time.Date(2024, 5, 1+i%28, 0, 0, 0, 0, time.UTC)))
		events = append(events, sendEvent(email, daysAgo(3), 1, 0))
	}

	got := AnalyzeCohorts(subs, events, CohortMonthly)

	require.Len(t, got.Cohorts, 1)
	c := got.Cohorts[0]
	assert.Equal(t, "2024-05", c.Key)
	assert.Equal(t, 100, c.Subscribers)
	assert.InDelta(t, 100.0, c.ActiveRate, 1e-9)
	assert.InDelta(t, 100.0, c.EngagementRate, 1e-9)
	assert.InDelta(t, 1.0, c.AvgEmailsPerUser, 1e-9)
	assert.InDelta(t, 1.0, c.AvgOpensPerUser, 1e-9)
	assert.Equal(t, 1, got.Summary.TotalCohorts)
	assert.Equal(t, "2024-05", got.Summary.BestCohort)
	assert.Equal(t, "2024-05", got.Summary.WorstCohort)
}

func TestAnalyzeCohorts_BlankEmailCountsButNeverActive(t *testing.T) {
	signup := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	subs := []domain.SubscriberRecord{
		subscriber("a@x.com", signup),
		subscriber("", signup),
	}
	events := []domain.EngagementEvent{
		sendEvent("a@x.com", daysAgo(3), 1, 0),
		sendEvent("", daysAgo(3), 1, 1),
	}

	got := AnalyzeCohorts(subs, events, CohortMonthly)

	require.Len(t, got.Cohorts, 1)
	c := got.Cohorts[0]
	assert.Equal(t, 2, c.Subscribers)
	assert.Equal(t, 1, c.ActiveUsers)
	assert.InDelta(t, 50.0, c.ActiveRate, 1e-9)
}

func TestAnalyzeCohorts_RatesAndOrdering(t *testing.T) {
	subs := []domain.SubscriberRecord{
		subscriber("march@x.com", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)),
		subscriber("jan-1@x.com", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)),
		subscriber("jan-2@x.com", time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)),
		subscriber("feb@x.com", time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)),
		subscriber("JAN-1@x.com", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
		{Email: "nosignup@x.com"},
	}
	testEvent := sendEvent("feb@x.com", daysAgo(1), 1, 0)
	testEvent.IsTest = true
	events := []domain.EngagementEvent{
		sendEvent("jan-1@x.com", daysAgo(1), 2, 0),
		sendEvent("jan-1@x.com", daysAgo(2), 0, 0),
		sendEvent("jan-2@x.com", daysAgo(1), 0, 0),
		sendEvent("march@x.com", daysAgo(1), 0, 1),
		sendEvent("nosignup@x.com", daysAgo(1), 1, 0),
		sendEvent("stranger@x.com", daysAgo(1), 1, 0),
		testEvent,
	}

	got := AnalyzeCohorts(subs, events, CohortMonthly)

	require.Len(t, got.Cohorts, 3)
	jan, feb, mar := got.Cohorts[0], got.Cohorts[1], got.Cohorts[2]
	assert.Equal(t, "2024-01", jan.Key)
	assert.Equal(t, "2024-02", feb.Key)
	assert.Equal(t, "2024-03", mar.Key)

	assert.Equal(t, 2, jan.Subscribers)
	assert.Equal(t, 2, jan.ActiveUsers)
	assert.Equal(t, 1, jan.EngagedUsers)
	assert.InDelta(t, 100.0, jan.ActiveRate, 1e-9)
	assert.InDelta(t, 50.0, jan.EngagementRate, 1e-9)
	assert.InDelta(t, 1.5, jan.AvgEmailsPerUser, 1e-9)
	assert.InDelta(t, 1.0, jan.AvgOpensPerUser, 1e-9)

	// No active users: the engagement rate is guarded to zero.
	assert.Equal(t, 0, feb.ActiveUsers)
	assert.Zero(t, feb.ActiveRate)
	assert.Zero(t, feb.EngagementRate)

	assert.InDelta(t, 100.0, mar.EngagementRate, 1e-9)

	assert.Equal(t, 3, got.Summary.TotalCohorts)
	assert.InDelta(t, 200.0/3, got.Summary.AvgActiveRate, 1e-9)
	assert.InDelta(t, 50.0, got.Summary.AvgEngagementRate, 1e-9)
	assert.Equal(t, "2024-03", got.Summary.BestCohort)
	assert.Equal(t, "2024-02", got.Summary.WorstCohort)
}

func TestAnalyzeCohorts_TiesKeepFirst(t *testing.T) {
	subs := []domain.SubscriberRecord{
		subscriber("b@x.com", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)),
		subscriber("a@x.com", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	}

	got := AnalyzeCohorts(subs, nil, CohortMonthly)

	assert.Equal(t, "2024-01", got.Summary.BestCohort)
	assert.Equal(t, "2024-01", got.Summary.WorstCohort)
}

func TestAnalyzeCohorts_Empty(t *testing.T) {
	got := AnalyzeCohorts(nil, nil, "")

	assert.Equal(t, CohortMonthly, got.Type)
	assert.NotNil(t, got.Cohorts)
	assert.Empty(t, got.Cohorts)
	assert.Equal(t, CohortSummary{}, got.Summary)
}
