package analytics

import (
	"sync"
	"time"

	"github.com/ignite/engagement-analytics/internal/domain"
)

// Period is the analysis window [Since, Until).
type Period struct {
	Days  int       `json:"days"`
	Since time.Time `json:"since"`
	Until time.Time `json:"until"`
}

// Report is the composed output of one analysis run.
type Report struct {
	Period          Period           `json:"period"`
	Engagement      Engagement       `json:"engagement"`
	Cohorts         Cohorts          `json:"cohorts"`
	Churn           *Churn           `json:"churn"`
	Segments        Segments         `json:"segments"`
	Predictions     Predictions      `json:"predictions"`
	Recommendations []Recommendation `json:"recommendations"`
	GeneratedAt     time.Time        `json:"generatedAt"`
}

// InWindow reports whether an event belongs to [since, until). Events with
// an absent send time are kept so that they still count toward totals.
func InWindow(e *domain.EngagementEvent, since, until time.Time) bool {
	if e.SentAt.IsZero() {
		return true
	}
	return !e.SentAt.Before(since) && e.SentAt.Before(until)
}

// BuildReport runs the full pipeline over one tenant's events and
// subscribers. It performs no I/O and is deterministic for a given now.
func BuildReport(events []domain.EngagementEvent, subscribers []domain.SubscriberRecord, opts Options, now time.Time) Report {
	now = now.UTC()
	days := ClampDays(opts.Days)
	since := Since(now, days)
	cohortType := opts.CohortType
	if cohortType == "" {
		cohortType = CohortMonthly
	}

	window := make([]domain.EngagementEvent, 0, len(events))
	for i := range events {
		if InWindow(&events[i], since, now) {
			window = append(window, events[i])
		}
	}

	r := Report{
		Period:      Period{Days: days, Since: since, Until: now},
		Engagement:  Aggregate(window),
		GeneratedAt: now,
	}

	profiles := BuildProfiles(window, subscribers, now)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		r.Cohorts = AnalyzeCohorts(subscribers, window, cohortType)
	}()
	go func() {
		defer wg.Done()
		r.Segments = Segment(profiles)
	}()
	if opts.IncludeChurn {
		wg.Add(1)
		go func() {
			defer wg.Done()
			churn := ClassifyChurn(profiles)
			r.Churn = &churn
		}()
	}
	wg.Wait()

	r.Predictions = Predict(window, r.Churn, now, days)
	r.Recommendations = Recommend(r.Segments, &r.Engagement)
	return r
}
