package postgres

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ignite/engagement-analytics/internal/domain"
	"github.com/ignite/engagement-analytics/internal/pkg/logger"
)

// EventRepo implements engagement.EventSource against PostgreSQL. Event
// payloads live in a JSONB document written by the delivery trackers, so
// every field is decoded tolerantly.
type EventRepo struct{ db *sql.DB }

// NewEventRepo creates a Postgres-backed event source.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// eventDoc is the stored payload. Loosely typed fields accept whatever the
// trackers wrote.
type eventDoc struct {
	SentAt       any    `json:"sent_at"`
	Opens        any    `json:"opens"`
	Clicks       any    `json:"clicks"`
	FirstOpenAt  any    `json:"first_open_at"`
	FirstClickAt any    `json:"first_click_at"`
	Subject      string `json:"subject"`
	ContentKey   string `json:"content_key"`
	Attachments  any    `json:"attachments"`
	DeviceType   string `json:"device_type"`
	GeoCountry   string `json:"geo_country"`
	ForwardCount any    `json:"forward_count"`
	IsTest       any    `json:"is_test"`
}

// ListEvents returns the tenant's events sent at or after since. Rows with
// no usable send time are included so they still count toward totals.
func (r *EventRepo) ListEvents(ctx context.Context, tenantID string, since time.Time) ([]domain.EngagementEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT recipient, sent_at, doc
		FROM engagement_events
		WHERE tenant_id = $1 AND (sent_at >= $2 OR sent_at IS NULL)
	`, tenantID, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []domain.EngagementEvent
	var malformed int
	for rows.Next() {
		var (
			recipient string
			sentAt    sql.NullTime
			raw       []byte
		)
		if err := rows.Scan(&recipient, &sentAt, &raw); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e, ok := decodeEvent(recipient, sentAt, raw)
		if !ok {
			malformed++
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	if malformed > 0 {
		logger.Debug("[EventRepo] undecodable event documents", "tenant_id", tenantID, "count", malformed)
	}
	return events, nil
}

// decodeEvent never fails: an unreadable document yields an event carrying
// only the indexed columns, and ok reports whether the document decoded.
func decodeEvent(recipient string, sentAt sql.NullTime, raw []byte) (domain.EngagementEvent, bool) {
	e := domain.EngagementEvent{Recipient: domain.NormalizeEmail(recipient)}
	if sentAt.Valid {
		e.SentAt = sentAt.Time.UTC()
	}

	var doc eventDoc
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return e, false
	}

	if e.SentAt.IsZero() {
		if t, ok := domain.ParseTimestamp(doc.SentAt); ok {
			e.SentAt = t
		}
	}
	e.Opens = toCount(doc.Opens)
	e.Clicks = toCount(doc.Clicks)
	if t, ok := domain.ParseTimestamp(doc.FirstOpenAt); ok {
		e.FirstOpenAt = &t
	}
	if t, ok := domain.ParseTimestamp(doc.FirstClickAt); ok {
		e.FirstClickAt = &t
	}
	e.Subject = doc.Subject
	e.ContentKey = doc.ContentKey
	e.Attachments = toBool(doc.Attachments)
	e.DeviceType = strings.ToLower(strings.TrimSpace(doc.DeviceType))
	e.GeoCountry = strings.ToUpper(strings.TrimSpace(doc.GeoCountry))
	e.ForwardCount = toCount(doc.ForwardCount)
	e.IsTest = toBool(doc.IsTest)
	return e, true
}

// toCount reads a non-negative counter. Unreadable values count as zero.
func toCount(v any) int {
	var n int64
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			n = i
		} else if f, err := t.Float64(); err == nil {
			n = int64(f)
		}
	case string:
		n, _ = strconv.ParseInt(strings.TrimSpace(t), 10, 64)
	case bool:
		if t {
			n = 1
		}
	}
	if n < 0 {
		return 0
	}
	return int(n)
}

func toBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case json.Number:
		return t.String() != "0"
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(t))
		return b
	}
	return false
}
