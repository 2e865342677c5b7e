package analytics

import "time"

// CohortType selects how subscribers are grouped by signup date.
type CohortType string

const (
	CohortWeekly    CohortType = "weekly"
	CohortMonthly   CohortType = "monthly"
	CohortQuarterly CohortType = "quarterly"
)

// Valid reports whether c is one of the supported cohort types.
func (c CohortType) Valid() bool {
	switch c {
	case CohortWeekly, CohortMonthly, CohortQuarterly:
		return true
	}
	return false
}

// Analysis window bounds, in days.
const (
	MinDays     = 1
	MaxDays     = 365
	DefaultDays = 90
)

// ClampDays forces a caller-supplied window into [MinDays, MaxDays].
func ClampDays(days int) int {
	if days < MinDays {
		return MinDays
	}
	if days > MaxDays {
		return MaxDays
	}
	return days
}

// Options controls a single report.
type Options struct {
	CohortType   CohortType
	IncludeChurn bool
	Days         int
}

// Since returns the inclusive lower bound of the analysis window ending at now.
func Since(now time.Time, days int) time.Time {
	return now.UTC().AddDate(0, 0, -ClampDays(days))
}

const day = 24 * time.Hour

// daysBetween returns the whole UTC days elapsed from t to now, never negative.
func daysBetween(t, now time.Time) int {
	d := now.Sub(t)
	if d <= 0 {
		return 0
	}
	return int(d / day)
}

// percent returns num/den as a percentage, or 0 when den is not positive.
func percent(num, den int) float64 {
	if den <= 0 {
		return 0
	}
	return float64(num) / float64(den) * 100
}

// ratio returns num/den, or 0 when den is not positive.
func ratio(num, den int) float64 {
	if den <= 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func meanOf(sum float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	return sum / float64(n)
}
