package analytics

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/engagement-analytics/internal/domain"
)

func TestAggregate_Totals(t *testing.T) {
	sent := daysAgo(2)
	forwarded := sendEvent("a@x.com", sent, 2, 1)
	forwarded.ForwardCount = 1
	testEvent := sendEvent("c@x.com", sent, 5, 5)
	testEvent.IsTest = true

	eng := Aggregate([]domain.EngagementEvent{
		forwarded,
		sendEvent("A@x.com ", sent, 1, 0),
		sendEvent("b@x.com", sent, 0, 0),
		sendEvent("", sent, 1, 1),
		testEvent,
	})

	assert.Equal(t, 4, eng.TotalEmails)
	assert.Equal(t, 4, eng.TotalOpens)
	assert.Equal(t, 2, eng.TotalClicks)
	assert.Equal(t, 3, eng.OpenedEmails)
	assert.Equal(t, 2, eng.ClickedEmails)
	assert.Equal(t, 2, eng.UniqueRecipients)
	assert.Equal(t, 1, eng.UniqueOpeners)
	assert.Equal(t, 1, eng.UniqueClickers)
	assert.Equal(t, 1, eng.MultiOpenRecipients)
	assert.Equal(t, 0, eng.MultiClickRecipients)
	assert.Equal(t, 1, eng.ForwardShares)
	assert.InDelta(t, 75.0, eng.OpenRate, 1e-9)
	assert.InDelta(t, 50.0, eng.ClickRate, 1e-9)
	assert.InDelta(t, 200.0/3, eng.ClickToOpenRate, 1e-9)
}

func TestAggregate_Empty(t *testing.T) {
	eng := Aggregate(nil)

	assert.Zero(t, eng.TotalEmails)
	assert.Zero(t, eng.OpenRate)
	assert.Zero(t, eng.ClickToOpenRate)
	assert.Len(t, eng.SubjectLength, subjectBuckets)
	assert.NotNil(t, eng.Devices)
	assert.NotNil(t, eng.Locations)
	assert.NotNil(t, eng.TopSubjects)
	assert.NotNil(t, eng.TopContent)
	_, ok := eng.PeakHour()
	assert.False(t, ok)
}

func TestAggregate_HistogramsUseUTC(t *testing.T) {
	plus5 := time.FixedZone("plus5", 5*3600)
	// 03:00 Monday at +05:00 is 22:00 Sunday UTC.
	open := time.Date(2024, 6, 10, 3, 0, 0, 0, plus5)
	e := domain.EngagementEvent{
		Recipient:    "a@x.com",
		SentAt:       open.Add(-2 * time.Hour),
		Opens:        1,
		Clicks:       1,
		FirstOpenAt:  &open,
		FirstClickAt: &open,
	}

	eng := Aggregate([]domain.EngagementEvent{e})

	assert.Equal(t, Slot{Opens: 1, Clicks: 1}, eng.Hourly[22])
	assert.Equal(t, Slot{Opens: 1, Clicks: 1}, eng.Daily[time.Sunday])
	hour, ok := eng.PeakHour()
	require.True(t, ok)
	assert.Equal(t, 22, hour)
}

func TestAggregate_TimestampWithoutCountNotBucketed(t *testing.T) {
	sent := daysAgo(1)
	e := domain.EngagementEvent{
		Recipient:    "a@x.com",
		SentAt:       sent,
		FirstOpenAt:  timePtr(sent.Add(time.Hour)),
		FirstClickAt: timePtr(sent.Add(2 * time.Hour)),
	}

	eng := Aggregate([]domain.EngagementEvent{e})

	assert.Zero(t, eng.TotalOpens)
	for h, s := range eng.Hourly {
		assert.Equal(t, Slot{}, s, "hour %d", h)
	}
	for d, s := range eng.Daily {
		assert.Equal(t, Slot{}, s, "day %d", d)
	}
	assert.Equal(t, TimeToEngagement{}, eng.TimeToEngagement)
}

func TestAggregate_TimeToEngagement(t *testing.T) {
	sent := daysAgo(3)
	opened := func(delay time.Duration) domain.EngagementEvent {
		return domain.EngagementEvent{
			Recipient:   "a@x.com",
			SentAt:      sent,
			Opens:       1,
			FirstOpenAt: timePtr(sent.Add(delay)),
		}
	}
	noSendTime := opened(time.Hour)
	noSendTime.SentAt = time.Time{}

	eng := Aggregate([]domain.EngagementEvent{
		opened(30 * time.Minute),
		opened(time.Hour),
		opened(5 * time.Hour),
		opened(6 * time.Hour),
		opened(24 * time.Hour),
		opened(72 * time.Hour),
		opened(-time.Hour),
		noSendTime,
	})

	assert.Equal(t, TimeToEngagement{Immediate: 1, Quick: 2, Delayed: 1, Late: 2}, eng.TimeToEngagement)
	// Time buckets are skipped independently of totals.
	assert.Equal(t, 8, eng.TotalEmails)
	var hourlyOpens int
	for _, s := range eng.Hourly {
		hourlyOpens += s.Opens
	}
	assert.Equal(t, 8, hourlyOpens)
}

func TestAggregate_SubjectLength(t *testing.T) {
	sent := daysAgo(1)
	withSubject := func(subject string, opens int) domain.EngagementEvent {
		e := sendEvent("a@x.com", sent, opens, 0)
		e.Subject = subject
		return e
	}

	eng := Aggregate([]domain.EngagementEvent{
		withSubject("", 0),
		withSubject("ééééééééé", 1),
		withSubject("0123456789", 1),
		withSubject(strings.Repeat("x", 150), 0),
	})

	require.Len(t, eng.SubjectLength, 10)
	assert.Equal(t, "0-9", eng.SubjectLength[0].Label)
	assert.Equal(t, "10-19", eng.SubjectLength[1].Label)
	assert.Equal(t, "90+", eng.SubjectLength[9].Label)

	assert.Equal(t, 2, eng.SubjectLength[0].Sent)
	assert.Equal(t, 1, eng.SubjectLength[0].Opened)
	assert.InDelta(t, 50.0, eng.SubjectLength[0].OpenRate, 1e-9)
	assert.Equal(t, 1, eng.SubjectLength[1].Sent)
	assert.InDelta(t, 100.0, eng.SubjectLength[1].OpenRate, 1e-9)
	assert.Equal(t, 1, eng.SubjectLength[9].Sent)
	assert.Zero(t, eng.SubjectLength[5].OpenRate)
}

func TestAggregate_Attachments(t *testing.T) {
	sent := daysAgo(1)
	with := sendEvent("a@x.com", sent, 3, 0)
	with.Attachments = true
	withUnopened := sendEvent("b@x.com", sent, 0, 0)
	withUnopened.Attachments = true

	eng := Aggregate([]domain.EngagementEvent{with, withUnopened, sendEvent("c@x.com", sent, 1, 0)})

	assert.Equal(t, AttachmentStats{Sent: 2, Opened: 1, Opens: 3, OpenRate: 50}, eng.Attachments.With)
	assert.Equal(t, AttachmentStats{Sent: 1, Opened: 1, Opens: 1, OpenRate: 100}, eng.Attachments.Without)
}

func TestAggregate_Dimensions(t *testing.T) {
	sent := daysAgo(1)
	on := func(recipient, device, country string, opens int) domain.EngagementEvent {
		e := sendEvent(recipient, sent, opens, 0)
		e.DeviceType = device
		e.GeoCountry = country
		return e
	}

	eng := Aggregate([]domain.EngagementEvent{
		on("a@x.com", "mobile", "US", 2),
		on("a@x.com", "mobile", "US", 1),
		on("b@x.com", "mobile", "DE", 0),
		on("c@x.com", "desktop", "", 1),
		on("d@x.com", "", "US", 1),
	})

	require.Len(t, eng.Devices, 3)
	assert.Equal(t, DimensionStats{Key: "mobile", Emails: 3, Opens: 3, UniqueUsers: 2, OpensPerUser: 1.5}, eng.Devices[0])
	assert.Equal(t, "desktop", eng.Devices[1].Key)
	assert.Equal(t, "unknown", eng.Devices[2].Key)

	require.Len(t, eng.Locations, 3)
	assert.Equal(t, "US", eng.Locations[0].Key)
	assert.Equal(t, 3, eng.Locations[0].Emails)
	assert.Equal(t, 2, eng.Locations[0].UniqueUsers)
	assert.Equal(t, "DE", eng.Locations[1].Key)
	assert.Equal(t, "unknown", eng.Locations[2].Key)
}

func TestAggregate_TopSubjects(t *testing.T) {
	sent := daysAgo(1)
	var events []domain.EngagementEvent
	send := func(subject string, n, opened int) {
		for i := 0; i < n; i++ {
			opens := 0
			if i < opened {
				opens = 1
			}
			e := sendEvent(fmt.Sprintf("%s-%d@x.com", subject, i), sent, opens, 0)
			e.Subject = subject
			events = append(events, e)
		}
	}
	send("D", 5, 5)
	send("B", 6, 3)
	send("C", 4, 4)
	send("A", 5, 5)

	eng := Aggregate(events)

	require.Len(t, eng.TopSubjects, 3)
	assert.Equal(t, "A", eng.TopSubjects[0].Key)
	assert.Equal(t, "D", eng.TopSubjects[1].Key)
	assert.Equal(t, "B", eng.TopSubjects[2].Key)
	assert.InDelta(t, 50.0, eng.TopSubjects[2].OpenRate, 1e-9)

	top := eng.TopSubjects[0]
	assert.Equal(t, 5, top.UniqueOpens)
	assert.Nil(t, top.Quality.Heuristic)
	assert.InDelta(t, WilsonScore(5, 5), top.Quality.Score, 1e-9)
	assert.Empty(t, eng.TopContent)
}

func TestAggregate_TopContentTruncated(t *testing.T) {
	sent := daysAgo(1)
	var events []domain.EngagementEvent
	for k := 0; k < 12; k++ {
		for i := 0; i < 5; i++ {
			e := sendEvent("a@x.com", sent, 1, 0)
			e.ContentKey = fmt.Sprintf("tpl-%02d", k)
			events = append(events, e)
		}
	}

	eng := Aggregate(events)

	require.Len(t, eng.TopContent, topListSize)
	assert.Equal(t, "tpl-00", eng.TopContent[0].Key)
	assert.Equal(t, "tpl-09", eng.TopContent[9].Key)
}

func TestAggregate_OrderIndependent(t *testing.T) {
	sent := daysAgo(4)
	events := []domain.EngagementEvent{
		sendEvent("a@x.com", sent, 1, 1),
		sendEvent("b@x.com", sent.Add(time.Hour), 2, 0),
		sendEvent("c@x.com", sent.Add(2*time.Hour), 0, 0),
		sendEvent("", sent, 1, 0),
	}
	reversed := make([]domain.EngagementEvent, len(events))
	for i, e := range events {
		reversed[len(events)-1-i] = e
	}

	assert.Equal(t, Aggregate(events), Aggregate(reversed))
}
