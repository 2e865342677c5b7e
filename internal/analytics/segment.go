package analytics

// SegmentName is one of the seven behavioral personas.
type SegmentName string

const (
	SegmentChampions      SegmentName = "champions"
	SegmentLoyalists      SegmentName = "loyalists"
	SegmentNewSubscribers SegmentName = "newSubscribers"
	SegmentPromising      SegmentName = "promising"
	SegmentNeedsAttention SegmentName = "needsAttention"
	SegmentCannotLose     SegmentName = "cannotLose"
	SegmentHibernating    SegmentName = "hibernating"
)

// SegmentRule pairs a segment with its membership predicate.
type SegmentRule struct {
	Name  SegmentName
	Match func(Profile) bool
}

// SegmentRules are evaluated top to bottom; the first match wins. The last
// rule matches every profile.
var SegmentRules = []SegmentRule{
	{SegmentChampions, func(p Profile) bool {
		return p.EngagementScore > 80 && p.Frequency > 2
	}},
	{SegmentLoyalists, func(p Profile) bool {
		return p.EngagementScore > 60 && p.Frequency > 1
	}},
	{SegmentNewSubscribers, func(p Profile) bool {
		return p.DaysSinceSignup < 30
	}},
	{SegmentPromising, func(p Profile) bool {
		return p.DaysSinceSignup < 90 && p.EngagementScore > 40
	}},
	{SegmentNeedsAttention, func(p Profile) bool {
		return p.EngagementScore > 20 && p.DaysSinceLastEngaged > 30
	}},
	{SegmentCannotLose, func(p Profile) bool {
		return p.Frequency > 2 && p.DaysSinceLastEngaged > 60
	}},
	{SegmentHibernating, func(Profile) bool { return true }},
}

// SegmentNames lists every segment in rule order.
var SegmentNames = func() []SegmentName {
	names := make([]SegmentName, len(SegmentRules))
	for i, r := range SegmentRules {
		names[i] = r.Name
	}
	return names
}()

type SegmentStats struct {
	Count              int     `json:"count"`
	Percentage         float64 `json:"percentage"`
	AvgEngagementScore float64 `json:"avgEngagementScore"`
	AvgFrequency       float64 `json:"avgFrequency"`
	TotalValue         int     `json:"totalValue"`
}

// Segments is the segmenter output. Every segment is always present.
type Segments struct {
	Total    int                          `json:"total"`
	Segments map[SegmentName]SegmentStats `json:"segments"`
}

// Percentage returns the share of subscribers in segment s.
func (s *Segments) Percentage(name SegmentName) float64 {
	return s.Segments[name].Percentage
}

// AssignSegment returns the first segment whose rule matches p.
func AssignSegment(p Profile) SegmentName {
	for _, r := range SegmentRules {
		if r.Match(p) {
			return r.Name
		}
	}
	return SegmentHibernating
}

// Segment partitions the profiles into behavioral segments.
func Segment(profiles []Profile) Segments {
	type acc struct {
		count       int
		score, freq float64
		value       int
	}
	accs := make(map[SegmentName]*acc, len(SegmentNames))
	for _, name := range SegmentNames {
		accs[name] = &acc{}
	}
	for _, p := range profiles {
		a := accs[AssignSegment(p)]
		a.count++
		a.score += p.EngagementScore
		a.freq += p.Frequency
		a.value += p.Value()
	}

	total := len(profiles)
	out := Segments{Total: total, Segments: make(map[SegmentName]SegmentStats, len(SegmentNames))}
	for name, a := range accs {
		out.Segments[name] = SegmentStats{
			Count:              a.count,
			Percentage:         percent(a.count, total),
			AvgEngagementScore: meanOf(a.score, a.count),
			AvgFrequency:       meanOf(a.freq, a.count),
			TotalValue:         a.value,
		}
	}
	return out
}
