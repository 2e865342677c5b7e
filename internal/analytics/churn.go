package analytics

import "fmt"

// ChurnTier is a recency-based lifecycle classification.
type ChurnTier string

const (
	ChurnActive       ChurnTier = "active"
	ChurnAtRisk       ChurnTier = "atRisk"
	ChurnInactive     ChurnTier = "inactive"
	ChurnChurned      ChurnTier = "churned"
	ChurnUnsubscribed ChurnTier = "unsubscribed"
)

// ChurnTiers lists every tier in report order.
var ChurnTiers = []ChurnTier{ChurnActive, ChurnAtRisk, ChurnInactive, ChurnChurned, ChurnUnsubscribed}

// Recency thresholds in whole days since the last engagement.
const (
	activeWithinDays   = 30
	atRiskWithinDays   = 60
	inactiveWithinDays = 90
)

type TierStats struct {
	Count              int     `json:"count"`
	Percentage         float64 `json:"percentage"`
	AvgEngagementScore float64 `json:"avgEngagementScore"`
}

// RiskFactor is an advisory flag raised by the lifecycle classifier.
type RiskFactor struct {
	Type        string   `json:"type"`
	Severity    Priority `json:"severity"`
	Description string   `json:"description"`
}

// Churn is the lifecycle classifier output. Every tier is always present.
type Churn struct {
	Total              int                     `json:"total"`
	Tiers              map[ChurnTier]TierStats `json:"tiers"`
	MonthlyChurnRate   float64                 `json:"monthlyChurnRate"`
	QuarterlyChurnRate float64                 `json:"quarterlyChurnRate"`
	RiskFactors        []RiskFactor            `json:"riskFactors"`
}

// Count returns the number of subscribers in tier t.
func (c *Churn) Count(t ChurnTier) int {
	return c.Tiers[t].Count
}

// ClassifyTier assigns a profile to exactly one churn tier. Directory status
// takes precedence over engagement recency.
func ClassifyTier(p Profile) ChurnTier {
	switch {
	case p.Unsubscribed:
		return ChurnUnsubscribed
	case p.LastEngagedAt == nil:
		return ChurnChurned
	case p.DaysSinceLastEngaged <= activeWithinDays:
		return ChurnActive
	case p.DaysSinceLastEngaged <= atRiskWithinDays:
		return ChurnAtRisk
	case p.DaysSinceLastEngaged <= inactiveWithinDays:
		return ChurnInactive
	default:
		return ChurnChurned
	}
}

// ClassifyChurn partitions the profiles into churn tiers and derives churn
// rates and risk factors.
func ClassifyChurn(profiles []Profile) Churn {
	counts := make(map[ChurnTier]int, len(ChurnTiers))
	scores := make(map[ChurnTier]float64, len(ChurnTiers))
	for _, p := range profiles {
		t := ClassifyTier(p)
		counts[t]++
		scores[t] += p.EngagementScore
	}

	total := len(profiles)
	out := Churn{
		Total:       total,
		Tiers:       make(map[ChurnTier]TierStats, len(ChurnTiers)),
		RiskFactors: []RiskFactor{},
	}
	for _, t := range ChurnTiers {
		out.Tiers[t] = TierStats{
			Count:              counts[t],
			Percentage:         percent(counts[t], total),
			AvgEngagementScore: meanOf(scores[t], counts[t]),
		}
	}

	active, atRisk := counts[ChurnActive], counts[ChurnAtRisk]
	inactive, churned := counts[ChurnInactive], counts[ChurnChurned]
	out.MonthlyChurnRate = percent(atRisk+inactive+churned, total)
	out.QuarterlyChurnRate = percent(churned, total)

	if churned+inactive > active+atRisk {
		out.RiskFactors = append(out.RiskFactors, RiskFactor{
			Type:     "High Churn Rate",
			Severity: PriorityHigh,
			Description: fmt.Sprintf("%d inactive or churned subscribers outnumber %d active or at-risk subscribers",
				churned+inactive, active+atRisk),
		})
	}
	if active > 0 {
		activeAvg := out.Tiers[ChurnActive].AvgEngagementScore
		if activeAvg < 40 {
			out.RiskFactors = append(out.RiskFactors, RiskFactor{
				Type:        "Low Active Engagement",
				Severity:    PriorityMedium,
				Description: fmt.Sprintf("Active subscribers average an engagement score of %.1f", activeAvg),
			})
		}
		atRiskAvg := out.Tiers[ChurnAtRisk].AvgEngagementScore
		if atRiskAvg > 0.8*activeAvg {
			out.RiskFactors = append(out.RiskFactors, RiskFactor{
				Type:        "Rapid Engagement Decline",
				Severity:    PriorityMedium,
				Description: fmt.Sprintf("At-risk subscribers score %.1f against %.1f for active subscribers", atRiskAvg, activeAvg),
			})
		}
	}
	return out
}
