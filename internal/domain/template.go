package domain

// TemplateStats holds the marketplace counters of a page or email template
// that feed the shared quality-scoring formula.
type TemplateStats struct {
	TemplateID     string   `json:"template_id" db:"id"`
	TenantID       string   `json:"tenant_id" db:"tenant_id"`
	ThumbnailURL   string   `json:"thumbnail_url" db:"thumbnail_url"`
	Description    string   `json:"description" db:"description"`
	Tags           []string `json:"tags" db:"tags"`
	Category       string   `json:"category" db:"category"`
	Downloads      int      `json:"downloads" db:"downloads"`
	Views          int      `json:"views" db:"views"`
	Favorites      int      `json:"favorites" db:"favorites"`
	RatingPositive int      `json:"rating_positive" db:"rating_positive"`
	RatingTotal    int      `json:"rating_total" db:"rating_total"`
}
