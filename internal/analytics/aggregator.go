package analytics

import (
	"sort"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/ignite/engagement-analytics/internal/domain"
)

const (
	// topListSize is the number of subjects and content keys ranked.
	topListSize = 10
	// minRankedSends is the sample floor for ranking an item by open rate.
	minRankedSends = 5

	subjectBucketWidth = 10
	subjectBuckets     = 10

	unknownDimension = "unknown"
)

// Slot is one histogram cell.
type Slot struct {
	Opens  int `json:"opens"`
	Clicks int `json:"clicks"`
}

// TimeToEngagement buckets the delay between send and first open.
type TimeToEngagement struct {
	Immediate int `json:"immediate"`
	Quick     int `json:"quick"`
	Delayed   int `json:"delayed"`
	Late      int `json:"late"`
}

// RateBucket is a labelled slice of sends with open and click rates.
type RateBucket struct {
	Label     string  `json:"label"`
	Sent      int     `json:"sent"`
	Opened    int     `json:"opened"`
	Clicked   int     `json:"clicked"`
	OpenRate  float64 `json:"openRate"`
	ClickRate float64 `json:"clickRate"`
}

// AttachmentStats covers the sends on one side of the attachment split.
type AttachmentStats struct {
	Sent     int     `json:"sent"`
	Opened   int     `json:"opened"`
	Opens    int     `json:"opens"`
	OpenRate float64 `json:"openRate"`
}

type AttachmentSplit struct {
	With    AttachmentStats `json:"with"`
	Without AttachmentStats `json:"without"`
}

// DimensionStats aggregates sends sharing a device type or country.
type DimensionStats struct {
	Key          string  `json:"key"`
	Emails       int     `json:"emails"`
	Opens        int     `json:"opens"`
	Clicks       int     `json:"clicks"`
	UniqueUsers  int     `json:"uniqueUsers"`
	OpensPerUser float64 `json:"opensPerUser"`
}

// ContentRank is one entry of a top subjects or top content list.
type ContentRank struct {
	Key          string       `json:"key"`
	Sent         int          `json:"sent"`
	UniqueOpens  int          `json:"uniqueOpens"`
	UniqueClicks int          `json:"uniqueClicks"`
	OpenRate     float64      `json:"openRate"`
	ClickRate    float64      `json:"clickRate"`
	Quality      QualityScore `json:"quality"`
}

// Engagement is the output of a single aggregation pass over the events.
type Engagement struct {
	TotalEmails   int `json:"totalEmails"`
	TotalOpens    int `json:"totalOpens"`
	TotalClicks   int `json:"totalClicks"`
	OpenedEmails  int `json:"openedEmails"`
	ClickedEmails int `json:"clickedEmails"`

	UniqueRecipients     int `json:"uniqueRecipients"`
	UniqueOpeners        int `json:"uniqueOpeners"`
	UniqueClickers       int `json:"uniqueClickers"`
	MultiOpenRecipients  int `json:"multiOpenRecipients"`
	MultiClickRecipients int `json:"multiClickRecipients"`
	ForwardShares        int `json:"forwardShares"`

	OpenRate        float64 `json:"openRate"`
	ClickRate       float64 `json:"clickRate"`
	ClickToOpenRate float64 `json:"clickToOpenRate"`

	Hourly           [24]Slot         `json:"hourly"`
	Daily            [7]Slot          `json:"daily"`
	TimeToEngagement TimeToEngagement `json:"timeToEngagement"`
	SubjectLength    []RateBucket     `json:"subjectLength"`
	Attachments      AttachmentSplit  `json:"attachments"`
	Devices          []DimensionStats `json:"devices"`
	Locations        []DimensionStats `json:"locations"`
	TopSubjects      []ContentRank    `json:"topSubjects"`
	TopContent       []ContentRank    `json:"topContent"`
}

// PeakHour returns the UTC hour with the most opens, preferring the lowest
// hour on ties. ok is false when there are no opens at all.
func (e *Engagement) PeakHour() (hour int, ok bool) {
	best := 0
	for h, s := range e.Hourly {
		if s.Opens > best {
			best, hour = s.Opens, h
		}
	}
	return hour, best > 0
}

type recipientTotals struct {
	opens  int
	clicks int
}

type dimensionAcc struct {
	emails, opens, clicks int
	users                 map[string]struct{}
}

type contentAcc struct {
	sent, opened, clicked int
}

// aggregator is the accumulator folded over the event slice.
type aggregator struct {
	out        Engagement
	recipients map[string]*recipientTotals
	subjects   [subjectBuckets]RateBucket
	devices    map[string]*dimensionAcc
	locations  map[string]*dimensionAcc
	bySubject  map[string]*contentAcc
	byContent  map[string]*contentAcc
}

func newAggregator() *aggregator {
	return &aggregator{
		recipients: make(map[string]*recipientTotals),
		devices:    make(map[string]*dimensionAcc),
		locations:  make(map[string]*dimensionAcc),
		bySubject:  make(map[string]*contentAcc),
		byContent:  make(map[string]*contentAcc),
	}
}

// Aggregate computes the engagement bundle in one pass. Test events are
// excluded entirely; events without a recipient count toward totals only.
// All buckets are computed in UTC.
func Aggregate(events []domain.EngagementEvent) Engagement {
	acc := newAggregator()
	for i := range events {
		if events[i].IsTest {
			continue
		}
		acc.add(&events[i])
	}
	return acc.result()
}

func (a *aggregator) add(e *domain.EngagementEvent) {
	opens, clicks := max(e.Opens, 0), max(e.Clicks, 0)
	opened, clicked := opens > 0, clicks > 0

	out := &a.out
	out.TotalEmails++
	out.TotalOpens += opens
	out.TotalClicks += clicks
	out.ForwardShares += max(e.ForwardCount, 0)
	if opened {
		out.OpenedEmails++
	}
	if clicked {
		out.ClickedEmails++
	}

	recipient := domain.NormalizeEmail(e.Recipient)
	if recipient != "" {
		r, ok := a.recipients[recipient]
		if !ok {
			r = &recipientTotals{}
			a.recipients[recipient] = r
		}
		r.opens += opens
		r.clicks += clicks
	}

	// A first-open or first-click timestamp without a matching count is
	// tracker noise and is not bucketed.
	if opened && e.FirstOpenAt != nil {
		t := e.FirstOpenAt.UTC()
		out.Hourly[t.Hour()].Opens++
		out.Daily[t.Weekday()].Opens++
		if !e.SentAt.IsZero() {
			a.addDelay(t.Sub(e.SentAt))
		}
	}
	if clicked && e.FirstClickAt != nil {
		t := e.FirstClickAt.UTC()
		out.Hourly[t.Hour()].Clicks++
		out.Daily[t.Weekday()].Clicks++
	}

	b := &a.subjects[subjectBucket(e.Subject)]
	b.Sent++
	if opened {
		b.Opened++
	}
	if clicked {
		b.Clicked++
	}

	side := &out.Attachments.Without
	if e.Attachments {
		side = &out.Attachments.With
	}
	side.Sent++
	side.Opens += opens
	if opened {
		side.Opened++
	}

	addDimension(a.devices, e.DeviceType, recipient, opens, clicks)
	addDimension(a.locations, e.GeoCountry, recipient, opens, clicks)

	addContent(a.bySubject, e.Subject, opened, clicked)
	addContent(a.byContent, e.ContentKey, opened, clicked)
}

func (a *aggregator) addDelay(d time.Duration) {
	tte := &a.out.TimeToEngagement
	switch {
	case d < 0:
	case d < time.Hour:
		tte.Immediate++
	case d < 6*time.Hour:
		tte.Quick++
	case d < 24*time.Hour:
		tte.Delayed++
	default:
		tte.Late++
	}
}

func subjectBucket(subject string) int {
	return min(utf8.RuneCountInString(subject)/subjectBucketWidth, subjectBuckets-1)
}

func subjectBucketLabel(i int) string {
	lo := i * subjectBucketWidth
	if i == subjectBuckets-1 {
		return strconv.Itoa(lo) + "+"
	}
	return strconv.Itoa(lo) + "-" + strconv.Itoa(lo+subjectBucketWidth-1)
}

func addDimension(m map[string]*dimensionAcc, key, recipient string, opens, clicks int) {
	if key == "" {
		key = unknownDimension
	}
	d, ok := m[key]
	if !ok {
		d = &dimensionAcc{users: make(map[string]struct{})}
		m[key] = d
	}
	d.emails++
	d.opens += opens
	d.clicks += clicks
	if recipient != "" {
		d.users[recipient] = struct{}{}
	}
}

func addContent(m map[string]*contentAcc, key string, opened, clicked bool) {
	if key == "" {
		return
	}
	c, ok := m[key]
	if !ok {
		c = &contentAcc{}
		m[key] = c
	}
	c.sent++
	if opened {
		c.opened++
	}
	if clicked {
		c.clicked++
	}
}

func (a *aggregator) result() Engagement {
	out := a.out

	out.UniqueRecipients = len(a.recipients)
	for _, r := range a.recipients {
		if r.opens > 0 {
			out.UniqueOpeners++
		}
		if r.clicks > 0 {
			out.UniqueClickers++
		}
		if r.opens > 1 {
			out.MultiOpenRecipients++
		}
		if r.clicks > 1 {
			out.MultiClickRecipients++
		}
	}

	out.OpenRate = percent(out.OpenedEmails, out.TotalEmails)
	out.ClickRate = percent(out.ClickedEmails, out.TotalEmails)
	out.ClickToOpenRate = percent(out.ClickedEmails, out.OpenedEmails)

	out.SubjectLength = make([]RateBucket, subjectBuckets)
	for i, b := range a.subjects {
		b.Label = subjectBucketLabel(i)
		b.OpenRate = percent(b.Opened, b.Sent)
		b.ClickRate = percent(b.Clicked, b.Sent)
		out.SubjectLength[i] = b
	}

	for _, side := range []*AttachmentStats{&out.Attachments.With, &out.Attachments.Without} {
		side.OpenRate = percent(side.Opened, side.Sent)
	}

	out.Devices = dimensionList(a.devices)
	out.Locations = dimensionList(a.locations)
	out.TopSubjects = rankContent(a.bySubject)
	out.TopContent = rankContent(a.byContent)
	return out
}

func dimensionList(m map[string]*dimensionAcc) []DimensionStats {
	list := make([]DimensionStats, 0, len(m))
	for key, d := range m {
		list = append(list, DimensionStats{
			Key:          key,
			Emails:       d.emails,
			Opens:        d.opens,
			Clicks:       d.clicks,
			UniqueUsers:  len(d.users),
			OpensPerUser: ratio(d.opens, len(d.users)),
		})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Emails != list[j].Emails {
			return list[i].Emails > list[j].Emails
		}
		return list[i].Key < list[j].Key
	})
	return list
}

func rankContent(m map[string]*contentAcc) []ContentRank {
	list := make([]ContentRank, 0, len(m))
	for key, c := range m {
		if c.sent < minRankedSends {
			continue
		}
		list = append(list, ContentRank{
			Key:          key,
			Sent:         c.sent,
			UniqueOpens:  c.opened,
			UniqueClicks: c.clicked,
			OpenRate:     percent(c.opened, c.sent),
			ClickRate:    percent(c.clicked, c.sent),
			Quality:      QualityScoreOf(c.opened, c.sent, nil),
		})
	}
	sort.Slice(list, func(i, j int) bool {
		// Cross-multiplied to compare opened/sent without float error.
		li := list[i].UniqueOpens * list[j].Sent
		lj := list[j].UniqueOpens * list[i].Sent
		if li != lj {
			return li > lj
		}
		return list[i].Key < list[j].Key
	})
	if len(list) > topListSize {
		list = list[:topListSize]
	}
	return list
}
