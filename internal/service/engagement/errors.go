package engagement

import "errors"

// Sentinel errors for the engagement service layer.
var (
	ErrMissingTenant      = errors.New("tenant_id is required")
	ErrInvalidCohortType  = errors.New("cohort_type must be weekly, monthly or quarterly")
	ErrFetchFailed        = errors.New("failed to fetch analytics data")
	ErrTemplateNotFound   = errors.New("template not found")
	ErrArchiveUnavailable = errors.New("snapshot archive is not configured")
)
