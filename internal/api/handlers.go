package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/engagement-analytics/internal/analytics"
	"github.com/ignite/engagement-analytics/internal/config"
	"github.com/ignite/engagement-analytics/internal/domain"
	"github.com/ignite/engagement-analytics/internal/pkg/httputil"
	"github.com/ignite/engagement-analytics/internal/service/engagement"
)

// EngagementService is the subset of the engagement service the HTTP layer
// calls.
type EngagementService interface {
	Report(ctx context.Context, q engagement.Query) (*analytics.Report, error)
	ScoreTemplate(ctx context.Context, tenantID, templateID string) (analytics.QualityScore, error)
	ListSnapshots(ctx context.Context, tenantID string, limit int) ([]domain.SnapshotMeta, error)
}

// maxSnapshotLimit caps the snapshots listing page.
const maxSnapshotLimit = 100

// Handlers contains the HTTP handlers for the engagement API.
type Handlers struct {
	svc      EngagementService
	defaults config.AnalyticsConfig
}

// NewHandlers creates handlers. defaults supplies the days and cohort type
// used when a request omits them.
func NewHandlers(svc EngagementService, defaults config.AnalyticsConfig) *Handlers {
	return &Handlers{svc: svc, defaults: defaults}
}

type reportResponse struct {
	OK bool `json:"ok"`
	*analytics.Report
}

// GetEngagement returns the full engagement report for a tenant.
//
//	GET /api/analytics/engagement?tenant_id=&cohort_type=&include_churn=&days=
func (h *Handlers) GetEngagement(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseReportQuery(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	ctx := r.Context()
	if timeout := h.defaults.FetchTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	report, err := h.svc.Report(ctx, q)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, reportResponse{OK: true, Report: report})
}

func (h *Handlers) parseReportQuery(r *http.Request) (engagement.Query, error) {
	params := r.URL.Query()
	q := engagement.Query{
		TenantID:   params.Get("tenant_id"),
		CohortType: params.Get("cohort_type"),
		Days:       h.defaults.DefaultDays,
	}
	if q.CohortType == "" {
		q.CohortType = h.defaults.DefaultCohortType
	}
	if v := params.Get("days"); v != "" {
		days, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return q, errors.New("days must be an integer")
		}
		q.Days = days
	}
	if v := params.Get("include_churn"); v != "" {
		include, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return q, errors.New("include_churn must be a boolean")
		}
		q.IncludeChurn = &include
	}
	return q, nil
}

// GetTemplateQuality scores one marketplace template.
//
//	GET /api/templates/{templateId}/quality?tenant_id=
func (h *Handlers) GetTemplateQuality(w http.ResponseWriter, r *http.Request) {
	templateID := chi.URLParam(r, "templateId")
	score, err := h.svc.ScoreTemplate(r.Context(), r.URL.Query().Get("tenant_id"), templateID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{
		"ok":         true,
		"templateId": templateID,
		"quality":    score,
	})
}

type scoreRequest struct {
	Positive int                         `json:"positive"`
	Total    int                         `json:"total"`
	Signals  *analytics.HeuristicSignals `json:"signals,omitempty"`
}

// ScoreQuality scores raw ratings with optional heuristic signals.
//
//	POST /api/quality/score
func (h *Handlers) ScoreQuality(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Positive < 0 || req.Total < 0 {
		httputil.BadRequest(w, "positive and total must be non-negative")
		return
	}
	httputil.OK(w, map[string]interface{}{
		"ok":      true,
		"quality": analytics.QualityScoreOf(req.Positive, req.Total, req.Signals),
	})
}

// ListSnapshots returns a tenant's archived report snapshots, newest first.
//
//	GET /api/analytics/snapshots?tenant_id=&limit=
func (h *Handlers) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httputil.BadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = min(n, maxSnapshotLimit)
	}

	snapshots, err := h.svc.ListSnapshots(r.Context(), r.URL.Query().Get("tenant_id"), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{
		"ok":        true,
		"snapshots": snapshots,
	})
}

// writeServiceError maps service sentinels to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engagement.ErrMissingTenant), errors.Is(err, engagement.ErrInvalidCohortType):
		httputil.BadRequest(w, err.Error())
	case errors.Is(err, engagement.ErrTemplateNotFound):
		httputil.NotFound(w, err.Error())
	case errors.Is(err, engagement.ErrFetchFailed):
		httputil.BadGateway(w, engagement.ErrFetchFailed.Error(), err)
	case errors.Is(err, engagement.ErrArchiveUnavailable):
		httputil.ServiceUnavailable(w, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		httputil.ErrorCode(w, http.StatusGatewayTimeout, "timeout", "report timed out")
	default:
		httputil.InternalError(w, err)
	}
}
