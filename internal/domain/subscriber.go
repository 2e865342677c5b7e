package domain

import (
	"strings"
	"time"
)

// SubscriberStatus enumerates the directory states a subscriber can be in.
type SubscriberStatus string

const (
	SubscriberActive       SubscriberStatus = "active"
	SubscriberUnsubscribed SubscriberStatus = "unsubscribed"
)

// SubscriberRecord is a single entry of a tenant's subscriber directory.
// SignupDate is immutable; Status may move to unsubscribed.
type SubscriberRecord struct {
	Email      string           `json:"email" db:"email"`
	SignupDate time.Time        `json:"signup_date" db:"signup_date"`
	Status     SubscriberStatus `json:"status" db:"status"`
}

// IsUnsubscribed reports whether the directory status overrides any
// engagement-based classification.
func (s SubscriberRecord) IsUnsubscribed() bool {
	return s.Status == SubscriberUnsubscribed
}

// NormalizeEmail lowercases and trims an address so it can be used as a key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ParseSubscriberStatus maps a stored status string onto the two directory
// states. Anything other than "unsubscribed" is treated as active.
func ParseSubscriberStatus(s string) SubscriberStatus {
	if strings.EqualFold(strings.TrimSpace(s), string(SubscriberUnsubscribed)) {
		return SubscriberUnsubscribed
	}
	return SubscriberActive
}
