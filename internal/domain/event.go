package domain

import "time"

// EngagementEvent is one sent message plus the engagement counters that
// downstream trackers appended to it. Records are read-only to the analytics
// engine.
//
// A zero SentAt means the stored timestamp was absent or malformed.
// FirstOpenAt and FirstClickAt are nil under the same conditions.
type EngagementEvent struct {
	Recipient    string     `json:"recipient"`
	SentAt       time.Time  `json:"sent_at"`
	Opens        int        `json:"opens"`
	Clicks       int        `json:"clicks"`
	FirstOpenAt  *time.Time `json:"first_open_at,omitempty"`
	FirstClickAt *time.Time `json:"first_click_at,omitempty"`
	Subject      string     `json:"subject"`
	ContentKey   string     `json:"content_key"`
	Attachments  bool       `json:"attachments"`
	DeviceType   string     `json:"device_type"`
	GeoCountry   string     `json:"geo_country"`
	ForwardCount int        `json:"forward_count"`
	IsTest       bool       `json:"is_test"`
}

// Engaged reports whether the recipient opened or clicked this message.
func (e EngagementEvent) Engaged() bool {
	return e.Opens > 0 || e.Clicks > 0
}

// HasRecipient reports whether the record can feed recipient-keyed
// aggregates.
func (e EngagementEvent) HasRecipient() bool {
	return e.Recipient != ""
}

// LastEngagementAt returns the latest engagement timestamp carried by the
// record. Engaged records without open/click timestamps fall back to SentAt.
// ok is false for unengaged records and for records with no usable time.
func (e EngagementEvent) LastEngagementAt() (t time.Time, ok bool) {
	if !e.Engaged() {
		return time.Time{}, false
	}
	if e.FirstOpenAt != nil {
		t, ok = *e.FirstOpenAt, true
	}
	if e.FirstClickAt != nil && (!ok || e.FirstClickAt.After(t)) {
		t, ok = *e.FirstClickAt, true
	}
	if ok {
		return t, true
	}
	if !e.SentAt.IsZero() {
		return e.SentAt, true
	}
	return time.Time{}, false
}
