package analytics

import (
	"math"
	"unicode/utf8"

	"github.com/ignite/engagement-analytics/internal/domain"
)

// wilsonZ is the normal quantile for a 95% confidence interval.
const wilsonZ = 1.96

// HeuristicSignals are the optional marketplace signals of a content item.
type HeuristicSignals struct {
	HasThumbnail      bool `json:"hasThumbnail"`
	DescriptionLength int  `json:"descriptionLength"`
	TagCount          int  `json:"tagCount"`
	HasCategory       bool `json:"hasCategory"`
	Downloads         int  `json:"downloads"`
	Views             int  `json:"views"`
	Favorites         int  `json:"favorites"`
}

// QualityTier is the discrete label attached to a quality score.
type QualityTier string

const (
	TierExcellent QualityTier = "Excellent"
	TierGood      QualityTier = "Good"
	TierFair      QualityTier = "Fair"
	TierPoor      QualityTier = "Poor"
)

// QualityScore is a bounded [0,100] score for a template or campaign. The
// heuristic component is omitted when no signals were supplied.
type QualityScore struct {
	Score     float64     `json:"score"`
	Tier      QualityTier `json:"tier"`
	Heuristic *float64    `json:"heuristic,omitempty"`
	Wilson    float64     `json:"wilson"`
}

// HeuristicScore adds fixed bonuses to a base of 50. The result is not
// clamped; QualityScoreOf clamps the combined score.
func HeuristicScore(s HeuristicSignals) float64 {
	score := 50.0
	if s.HasThumbnail {
		score += 10
	}
	if s.DescriptionLength > 50 {
		score += 5
	}
	if s.TagCount > 0 {
		score += 5
	}
	if s.HasCategory {
		score += 5
	}
	if s.Downloads > 10 {
		score += 10
	}
	if s.Views > 100 {
		score += 5
	}
	if s.Favorites > 5 {
		score += 10
	}
	conversion := ratio(s.Downloads, s.Views)
	if conversion > 0.1 {
		score += 10
	}
	if conversion > 0.05 {
		score += 5
	}
	return score
}

// WilsonScore is the lower bound of the Wilson score interval for
// positive/total at 95% confidence, scaled to [0,100]. It is 0 when total
// is 0. positive is clamped to [0,total].
func WilsonScore(positive, total int) float64 {
	positive = min(positive, total)
	if total <= 0 || positive <= 0 {
		return 0
	}

	n := float64(total)
	p := float64(positive) / n
	z2 := wilsonZ * wilsonZ

	lower := (p + z2/(2*n) - wilsonZ*math.Sqrt((p*(1-p)+z2/(4*n))/n)) / (1 + z2/n)
	return clampScore(lower * 100)
}

// TierFor maps a score onto its tier label.
func TierFor(score float64) QualityTier {
	switch {
	case score >= 85:
		return TierExcellent
	case score >= 70:
		return TierGood
	case score >= 55:
		return TierFair
	default:
		return TierPoor
	}
}

// QualityScoreOf combines the heuristic and Wilson paths by taking the
// larger of the two. signals may be nil.
func QualityScoreOf(positive, total int, signals *HeuristicSignals) QualityScore {
	q := QualityScore{Wilson: WilsonScore(positive, total)}
	score := q.Wilson
	if signals != nil {
		h := HeuristicScore(*signals)
		q.Heuristic = &h
		score = math.Max(h, score)
	}
	q.Score = clampScore(score)
	q.Tier = TierFor(q.Score)
	return q
}

// SignalsFromTemplate extracts the heuristic signals of a marketplace template.
func SignalsFromTemplate(t domain.TemplateStats) HeuristicSignals {
	return HeuristicSignals{
		HasThumbnail:      t.ThumbnailURL != "",
		DescriptionLength: utf8.RuneCountInString(t.Description),
		TagCount:          len(t.Tags),
		HasCategory:       t.Category != "",
		Downloads:         t.Downloads,
		Views:             t.Views,
		Favorites:         t.Favorites,
	}
}

// TemplateQuality scores a marketplace template from its ratings and signals.
func TemplateQuality(t domain.TemplateStats) QualityScore {
	signals := SignalsFromTemplate(t)
	return QualityScoreOf(t.RatingPositive, t.RatingTotal, &signals)
}

func clampScore(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
