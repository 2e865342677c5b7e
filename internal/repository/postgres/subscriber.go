package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/engagement-analytics/internal/domain"
)

// SubscriberRepo implements engagement.SubscriberSource against PostgreSQL.
type SubscriberRepo struct{ db *sql.DB }

// NewSubscriberRepo creates a Postgres-backed subscriber directory.
func NewSubscriberRepo(db *sql.DB) *SubscriberRepo { return &SubscriberRepo{db: db} }

func (r *SubscriberRepo) ListSubscribers(ctx context.Context, tenantID string) ([]domain.SubscriberRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT email, signup_date, COALESCE(status, '')
		FROM subscribers
		WHERE tenant_id = $1
		ORDER BY created_at, email
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	var subs []domain.SubscriberRecord
	for rows.Next() {
		var (
			email, status string
			signup        sql.NullTime
		)
		if err := rows.Scan(&email, &signup, &status); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		s := domain.SubscriberRecord{
			Email:  domain.NormalizeEmail(email),
			Status: domain.ParseSubscriberStatus(status),
		}
		if signup.Valid {
			s.SignupDate = signup.Time.UTC()
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscribers: %w", err)
	}
	return subs, nil
}
