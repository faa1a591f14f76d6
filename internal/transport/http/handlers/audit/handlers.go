package audithandler

import (
	"context"
	"net/http"

	"github.com/aarondl/null/v8"
	"github.com/go-chi/chi/v5"

	"perfhub/internal/domain/audit"
	"perfhub/internal/domain/auth"
	"perfhub/internal/platform/jobs"
	"perfhub/internal/transport/http/api"
	"perfhub/internal/transport/http/middleware"
	"perfhub/internal/transport/http/shared"
)

type Lister interface {
	List(ctx context.Context, filter audit.Filter, includeDetails bool, limit, offset uint64) ([]audit.Event, int, error)
}

// JobLister reads the bookkeeping rows of batch calculations and report syncs.
type JobLister interface {
	List(ctx context.Context, filter jobs.RunFilter, limit, offset uint64) ([]jobs.Run, int, error)
}

type Handler struct {
	Service Lister
	Jobs    JobLister
	Perms   middleware.PermissionStore
}

func NewHandler(service Lister, jobRuns JobLister, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Jobs: jobRuns, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/audit", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermAuditRead, h.Perms))
		r.Get("/events", h.handleListEvents)
		r.Get("/jobs", h.handleListJobs)
	})
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 100, 500)
	filter := audit.Filter{
		Action:      shared.QueryString(r, "action"),
		EntityType:  shared.QueryString(r, "entity_type"),
		ActorUserID: shared.QueryInt64(r, "actor_user_id"),
	}
	includeDetails := r.URL.Query().Get("include_details") == "true"

	events, total, err := h.Service.List(r.Context(), filter, includeDetails, page.Limit(), page.Offset())
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Paged(w, events, page.Meta(total), requestID)
}

func (h *Handler) handleListJobs(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	filter := jobs.RunFilter{
		JobType: shared.QueryString(r, "job_type"),
		Status:  shared.QueryString(r, "status"),
	}
	for name, dst := range map[string]*null.Time{"started_from": &filter.StartedFrom, "started_to": &filter.StartedTo} {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			continue
		}
		parsed, err := shared.ParseInstant(raw)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_"+name, name+" must be a timestamp", requestID)
			return
		}
		*dst = null.TimeFrom(parsed)
	}

	runs, total, err := h.Jobs.List(r.Context(), filter, page.Limit(), page.Offset())
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Paged(w, runs, page.Meta(total), requestID)
}
