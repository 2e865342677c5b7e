package analytics

import (
	"time"

	"github.com/ignite/engagement-analytics/internal/domain"
)

// testNow is a Saturday.
var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return testNow.AddDate(0, 0, -n)
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func sendEvent(recipient string, sentAt time.Time, opens, clicks int) domain.EngagementEvent {
	e := domain.EngagementEvent{
		Recipient: recipient,
		SentAt:    sentAt,
		Opens:     opens,
		Clicks:    clicks,
	}
	if opens > 0 {
		e.FirstOpenAt = timePtr(sentAt.Add(30 * time.Minute))
	}
	if clicks > 0 {
		e.FirstClickAt = timePtr(sentAt.Add(45 * time.Minute))
	}
	return e
}

func subscriber(email string, signup time.Time) domain.SubscriberRecord {
	return domain.SubscriberRecord{Email: email, SignupDate: signup, Status: domain.SubscriberActive}
}
