package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/ignite/engagement-analytics/internal/domain"
	"github.com/ignite/engagement-analytics/internal/service/engagement"
)

// TemplateRepo implements engagement.TemplateSource against PostgreSQL.
type TemplateRepo struct{ db *sql.DB }

// NewTemplateRepo creates a Postgres-backed template statistics source.
func NewTemplateRepo(db *sql.DB) *TemplateRepo { return &TemplateRepo{db: db} }

func (r *TemplateRepo) GetTemplate(ctx context.Context, tenantID, templateID string) (*domain.TemplateStats, error) {
	t := &domain.TemplateStats{}
	var tags []string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, COALESCE(thumbnail_url,''), COALESCE(description,''),
		       tags, COALESCE(category,''), downloads, views, favorites,
		       rating_positive, rating_total
		FROM marketplace_templates
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, templateID).Scan(
		&t.TemplateID, &t.TenantID, &t.ThumbnailURL, &t.Description,
		pq.Array(&tags), &t.Category, &t.Downloads, &t.Views, &t.Favorites,
		&t.RatingPositive, &t.RatingTotal,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, engagement.ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	t.Tags = tags
	return t, nil
}
