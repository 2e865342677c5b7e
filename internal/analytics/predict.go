package analytics

import (
	"time"

	"github.com/ignite/engagement-analytics/internal/domain"
)

// trendThreshold is the open-rate change, in percentage points, that counts
// as a movement.
const trendThreshold = 2.0

type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendDeclining TrendDirection = "declining"
	TrendStable    TrendDirection = "stable"
)

// Trend compares open rates between the two halves of the window.
type Trend struct {
	Direction        TrendDirection `json:"direction"`
	RecentOpenRate   float64        `json:"recentOpenRate"`
	PreviousOpenRate float64        `json:"previousOpenRate"`
	Change           float64        `json:"change"`
}

// ProjectedChurn estimates churn over the next 30 days: inactive subscribers
// cross the 90-day threshold within that horizon.
type ProjectedChurn struct {
	AtRiskOfChurning   int     `json:"atRiskOfChurning"`
	ProjectedChurnRate float64 `json:"projectedChurnRate"`
}

type RiskLevel string

const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

type Predictions struct {
	EngagementTrend Trend           `json:"engagementTrend"`
	ProjectedChurn  *ProjectedChurn `json:"projectedChurn,omitempty"`
	RiskLevel       RiskLevel       `json:"riskLevel"`
}

// Predict derives trend and risk heuristics. churn may be nil when churn
// analysis was not requested.
func Predict(events []domain.EngagementEvent, churn *Churn, now time.Time, days int) Predictions {
	out := Predictions{EngagementTrend: engagementTrend(events, now, days)}

	declining := out.EngagementTrend.Direction == TrendDeclining
	out.RiskLevel = RiskLow
	if declining {
		out.RiskLevel = RiskMedium
	}
	if churn == nil {
		return out
	}

	inactive := churn.Count(ChurnInactive)
	out.ProjectedChurn = &ProjectedChurn{
		AtRiskOfChurning:   inactive,
		ProjectedChurnRate: percent(churn.Count(ChurnChurned)+inactive, churn.Total),
	}

	if len(churn.RiskFactors) > 0 {
		out.RiskLevel = RiskMedium
	}
	for _, rf := range churn.RiskFactors {
		if rf.Severity == PriorityHigh {
			out.RiskLevel = RiskHigh
		}
	}
	if declining && churn.MonthlyChurnRate > 50 {
		out.RiskLevel = RiskHigh
	}
	return out
}

func engagementTrend(events []domain.EngagementEvent, now time.Time, days int) Trend {
	now = now.UTC()
	since := Since(now, days)
	mid := since.Add(now.Sub(since) / 2)

	var recentSent, recentOpened, prevSent, prevOpened int
	for i := range events {
		e := &events[i]
		if e.IsTest || e.SentAt.IsZero() || e.SentAt.Before(since) || !e.SentAt.Before(now) {
			continue
		}
		opened := e.Opens > 0
		if e.SentAt.Before(mid) {
			prevSent++
			if opened {
				prevOpened++
			}
			continue
		}
		recentSent++
		if opened {
			recentOpened++
		}
	}

	t := Trend{
		RecentOpenRate:   percent(recentOpened, recentSent),
		PreviousOpenRate: percent(prevOpened, prevSent),
	}
	t.Change = t.RecentOpenRate - t.PreviousOpenRate
	switch {
	case t.Change > trendThreshold:
		t.Direction = TrendImproving
	case t.Change < -trendThreshold:
		t.Direction = TrendDeclining
	default:
		t.Direction = TrendStable
	}
	return t
}
