package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/ignite/engagement-analytics/internal/domain"
)

// Cohort holds the activity of the subscribers who signed up in one period.
type Cohort struct {
	Key              string    `json:"key"`
	Start            time.Time `json:"start"`
	Subscribers      int       `json:"subscribers"`
	ActiveUsers      int       `json:"activeUsers"`
	EngagedUsers     int       `json:"engagedUsers"`
	ActiveRate       float64   `json:"activeRate"`
	EngagementRate   float64   `json:"engagementRate"`
	AvgEmailsPerUser float64   `json:"avgEmailsPerUser"`
	AvgOpensPerUser  float64   `json:"avgOpensPerUser"`
}

type CohortSummary struct {
	TotalCohorts      int     `json:"totalCohorts"`
	AvgActiveRate     float64 `json:"avgActiveRate"`
	AvgEngagementRate float64 `json:"avgEngagementRate"`
	BestCohort        string  `json:"bestCohort,omitempty"`
	WorstCohort       string  `json:"worstCohort,omitempty"`
}

// Cohorts is the cohort analyzer output, ordered by cohort start.
type Cohorts struct {
	Type    CohortType    `json:"type"`
	Cohorts []Cohort      `json:"cohorts"`
	Summary CohortSummary `json:"summary"`
}

// CohortKey returns the cohort key and period start for a signup date.
// Weekly cohorts start on Monday. Unknown types fall back to monthly.
func CohortKey(signup time.Time, ct CohortType) (string, time.Time) {
	t := signup.UTC()
	y, m, d := t.Date()
	switch ct {
	case CohortWeekly:
		offset := (int(t.Weekday()) + 6) % 7
		start := time.Date(y, m, d-offset, 0, 0, 0, 0, time.UTC)
		return start.Format("2006-01-02"), start
	case CohortQuarterly:
		q := (int(m)-1)/3 + 1
		start := time.Date(y, time.Month((q-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
		return fmt.Sprintf("%04d-Q%d", y, q), start
	default:
		start := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
		return start.Format("2006-01"), start
	}
}

type cohortAcc struct {
	Cohort
	emails, opens int
}

type memberState struct {
	cohort  *cohortAcc
	active  bool
	engaged bool
}

// AnalyzeCohorts groups subscribers by signup period and measures how many
// of each cohort appeared in, and engaged with, the events. Subscribers
// without a signup date belong to no cohort.
func AnalyzeCohorts(subscribers []domain.SubscriberRecord, events []domain.EngagementEvent, ct CohortType) Cohorts {
	if !ct.Valid() {
		ct = CohortMonthly
	}

	profiles, _ := indexSubscribers(subscribers)
	byKey := make(map[string]*cohortAcc)
	members := make(map[string]*memberState, len(profiles))
	for _, p := range profiles {
		if p.SignupDate.IsZero() {
			continue
		}
		key, start := CohortKey(p.SignupDate, ct)
		c, ok := byKey[key]
		if !ok {
			c = &cohortAcc{Cohort: Cohort{Key: key, Start: start}}
			byKey[key] = c
		}
		c.Subscribers++
		if p.Email != "" {
			members[p.Email] = &memberState{cohort: c}
		}
	}

	for i := range events {
		e := &events[i]
		if e.IsTest {
			continue
		}
		m, ok := members[domain.NormalizeEmail(e.Recipient)]
		if !ok {
			continue
		}
		c := m.cohort
		c.emails++
		c.opens += max(e.Opens, 0)
		if !m.active {
			m.active = true
			c.ActiveUsers++
		}
		if e.Engaged() && !m.engaged {
			m.engaged = true
			c.EngagedUsers++
		}
	}

	list := make([]Cohort, 0, len(byKey))
	for _, c := range byKey {
		out := c.Cohort
		out.ActiveRate = percent(out.ActiveUsers, out.Subscribers)
		out.EngagementRate = percent(out.EngagedUsers, out.ActiveUsers)
		out.AvgEmailsPerUser = ratio(c.emails, out.Subscribers)
		out.AvgOpensPerUser = ratio(c.opens, out.Subscribers)
		list = append(list, out)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Start.Before(list[j].Start) })

	return Cohorts{Type: ct, Cohorts: list, Summary: summarizeCohorts(list)}
}

func summarizeCohorts(list []Cohort) CohortSummary {
	s := CohortSummary{TotalCohorts: len(list)}
	if len(list) == 0 {
		return s
	}
	var activeSum, engagedSum float64
	best, worst := 0, 0
	for i, c := range list {
		activeSum += c.ActiveRate
		engagedSum += c.EngagementRate
		if c.EngagementRate > list[best].EngagementRate {
			best = i
		}
		if c.EngagementRate < list[worst].EngagementRate {
			worst = i
		}
	}
	s.AvgActiveRate = meanOf(activeSum, len(list))
	s.AvgEngagementRate = meanOf(engagedSum, len(list))
	s.BestCohort = list[best].Key
	s.WorstCohort = list[worst].Key
	return s
}
