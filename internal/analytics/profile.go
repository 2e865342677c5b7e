package analytics

import (
	"time"

	"github.com/ignite/engagement-analytics/internal/domain"
)

// Profile is the per-subscriber engagement accumulation used by the
// lifecycle classifier and the behavioral segmenter.
type Profile struct {
	Email        string
	SignupDate   time.Time
	Unsubscribed bool

	TotalEmails int
	TotalOpens  int
	TotalClicks int

	// LastEngagedAt is nil when the subscriber never engaged.
	LastEngagedAt *time.Time

	EngagementScore      float64
	Frequency            float64
	DaysSinceSignup      int
	DaysSinceLastEngaged int
}

// Value is the weighted interaction count (opens + 2*clicks).
func (p Profile) Value() int {
	return p.TotalOpens + 2*p.TotalClicks
}

// EngagementScore is ((opens + 2*clicks) / emails) * 100, or 0 with no emails.
func EngagementScore(emails, opens, clicks int) float64 {
	return percent(opens+2*clicks, emails)
}

// SendFrequency is emails per week since signup, or 0 on the signup day.
func SendFrequency(emails, daysSinceSignup int) float64 {
	if daysSinceSignup <= 0 {
		return 0
	}
	return float64(emails) / (float64(daysSinceSignup) / 7)
}

// subscriberIndex maps normalized emails to positions in a profile slice.
// Duplicate directory entries keep the first record. Records with a blank
// email still get a profile but are not indexed, so no event matches them.
type subscriberIndex map[string]int

func indexSubscribers(subscribers []domain.SubscriberRecord) ([]Profile, subscriberIndex) {
	idx := make(subscriberIndex, len(subscribers))
	profiles := make([]Profile, 0, len(subscribers))
	for _, s := range subscribers {
		email := domain.NormalizeEmail(s.Email)
		if email != "" {
			if _, dup := idx[email]; dup {
				continue
			}
			idx[email] = len(profiles)
		}
		profiles = append(profiles, Profile{
			Email:        email,
			SignupDate:   s.SignupDate,
			Unsubscribed: s.IsUnsubscribed(),
		})
	}
	return profiles, idx
}

// BuildProfiles folds the events into one Profile per distinct subscriber,
// in directory order. Test events and events for unknown recipients are
// ignored.
func BuildProfiles(events []domain.EngagementEvent, subscribers []domain.SubscriberRecord, now time.Time) []Profile {
	profiles, idx := indexSubscribers(subscribers)

	for i := range events {
		e := &events[i]
		if e.IsTest {
			continue
		}
		pos, ok := idx[domain.NormalizeEmail(e.Recipient)]
		if !ok {
			continue
		}
		p := &profiles[pos]
		p.TotalEmails++
		p.TotalOpens += max(e.Opens, 0)
		p.TotalClicks += max(e.Clicks, 0)
		if t, ok := e.LastEngagementAt(); ok {
			if p.LastEngagedAt == nil || t.After(*p.LastEngagedAt) {
				p.LastEngagedAt = &t
			}
		}
	}

	for i := range profiles {
		p := &profiles[i]
		if !p.SignupDate.IsZero() {
			p.DaysSinceSignup = daysBetween(p.SignupDate, now)
		}
		p.EngagementScore = EngagementScore(p.TotalEmails, p.TotalOpens, p.TotalClicks)
		p.Frequency = SendFrequency(p.TotalEmails, p.DaysSinceSignup)
		if p.LastEngagedAt != nil {
			p.DaysSinceLastEngaged = daysBetween(*p.LastEngagedAt, now)
		} else {
			p.DaysSinceLastEngaged = p.DaysSinceSignup
		}
	}
	return profiles
}
