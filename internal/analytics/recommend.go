package analytics

import (
	"fmt"
	"sort"
)

// Priority orders recommendations and grades risk factors.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

type Recommendation struct {
	Priority    Priority    `json:"priority"`
	Segment     SegmentName `json:"segment,omitempty"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Actions     []string    `json:"actions"`
}

type segmentRecommendation struct {
	segment  SegmentName
	priority Priority
	applies  func(stats SegmentStats) bool
	title    string
	describe func(stats SegmentStats) string
	actions  []string
}

var segmentRecommendations = []segmentRecommendation{
	{
		segment:  SegmentChampions,
		priority: PriorityHigh,
		applies:  func(s SegmentStats) bool { return s.Percentage < 10 },
		title:    "Grow Champion Segment",
		describe: func(s SegmentStats) string {
			return fmt.Sprintf("Only %.1f%% of subscribers are champions.", s.Percentage)
		},
		actions: []string{
			"Create a VIP program for highly engaged subscribers",
			"Send exclusive content to loyalists to move them up",
			"Ask champions for referrals and reviews",
		},
	},
	{
		segment:  SegmentNeedsAttention,
		priority: PriorityHigh,
		applies:  func(s SegmentStats) bool { return s.Percentage > 20 },
		title:    "Re-engage Declining Subscribers",
		describe: func(s SegmentStats) string {
			return fmt.Sprintf("%.1f%% of subscribers were engaged but have gone quiet for over 30 days.", s.Percentage)
		},
		actions: []string{
			"Launch a re-engagement campaign",
			"Survey subscribers about content preferences",
			"Offer a time-limited incentive",
		},
	},
	{
		segment:  SegmentCannotLose,
		priority: PriorityHigh,
		applies:  func(s SegmentStats) bool { return s.Count > 0 },
		title:    "Win Back High-Value Subscribers",
		describe: func(s SegmentStats) string {
			return fmt.Sprintf("%d frequently mailed subscribers have not engaged in over 60 days.", s.Count)
		},
		actions: []string{
			"Send a personal win-back message",
			"Reduce send frequency for this group",
		},
	},
	{
		segment:  SegmentHibernating,
		priority: PriorityMedium,
		applies:  func(s SegmentStats) bool { return s.Percentage > 30 },
		title:    "Address Inactive Subscribers",
		describe: func(s SegmentStats) string {
			return fmt.Sprintf("%.1f%% of subscribers are hibernating.", s.Percentage)
		},
		actions: []string{
			"Run a sunset campaign before removing inactive addresses",
			"Clean the list to protect sender reputation",
		},
	},
	{
		segment:  SegmentPromising,
		priority: PriorityMedium,
		applies:  func(s SegmentStats) bool { return s.Percentage > 15 },
		title:    "Convert Promising Subscribers",
		describe: func(s SegmentStats) string {
			return fmt.Sprintf("%.1f%% of subscribers are recent and engaging.", s.Percentage)
		},
		actions: []string{
			"Add promising subscribers to a nurture sequence",
			"Increase send cadence gradually",
		},
	},
}

// Recommend derives prioritized suggestions from the segment mix and the
// hourly open histogram. The send-time recommendation is always present.
func Recommend(segments Segments, engagement *Engagement) []Recommendation {
	var recs []Recommendation
	if segments.Total > 0 {
		for _, r := range segmentRecommendations {
			stats := segments.Segments[r.segment]
			if !r.applies(stats) {
				continue
			}
			recs = append(recs, Recommendation{
				Priority:    r.priority,
				Segment:     r.segment,
				Title:       r.title,
				Description: r.describe(stats),
				Actions:     r.actions,
			})
		}
	}
	recs = append(recs, sendTimeRecommendation(engagement))

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority.rank() < recs[j].Priority.rank()
	})
	return recs
}

func sendTimeRecommendation(engagement *Engagement) Recommendation {
	rec := Recommendation{
		Priority: PriorityLow,
		Title:    "Optimize Send Times",
		Actions: []string{
			"Schedule campaigns near the peak open hour",
			"A/B test send times across segments",
		},
	}
	hour, ok := engagement.PeakHour()
	if ok {
		rec.Description = fmt.Sprintf("Subscribers open most emails at %02d:00 UTC.", hour)
	} else {
		rec.Description = "No opens were recorded in this period; defaulting to 00:00 UTC until data is available."
	}
	return rec
}
