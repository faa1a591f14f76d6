package performancehandler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"perfhub/internal/domain/audit"
	"perfhub/internal/domain/auth"
	"perfhub/internal/domain/performance"
	"perfhub/internal/transport/http/api"
	"perfhub/internal/transport/http/middleware"
	"perfhub/internal/transport/http/shared"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Service interface {
	Calculate(ctx context.Context, userID int64, cycle string) (performance.CalculateResult, error)
	CalculateBatch(ctx context.Context, cycle string) ([]performance.BatchItem, error)
	List(ctx context.Context, scope auth.Scope, filter performance.ReviewFilter, limit, offset uint64) ([]performance.Review, int, error)
	My(ctx context.Context, userID int64) ([]performance.Review, error)
	Get(ctx context.Context, scope auth.Scope, id int64) (performance.Review, error)
	Review(ctx context.Context, id int64, update performance.ReviewUpdate, reviewerID int64) (before, after performance.Review, err error)
	ExportXLSX(ctx context.Context, scope auth.Scope, cycle string, w io.Writer) error
	ReportPDF(ctx context.Context, scope auth.Scope, id int64, w io.Writer) error
}

type Handler struct {
	Service Service
	Scopes  shared.ScopeResolver
	Audit   audit.Recorder
	Perms   middleware.PermissionStore
}

func NewHandler(service Service, scopes shared.ScopeResolver, recorder audit.Recorder, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Scopes: scopes, Audit: recorder, Perms: perms}
}

type calculateRequest struct {
	UserID int64  `json:"user_id" validate:"required,gt=0"`
	Cycle  string `json:"cycle" validate:"required"`
}

type batchRequest struct {
	Cycle string `json:"cycle" validate:"required"`
}

// RegisterListRoutes mounts the review listing, whose authentication
// requirement is configurable. The caller wraps it in RequireAuth.
func (h *Handler) RegisterListRoutes(r chi.Router) {
	r.Get("/performance", h.handleList)
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermPerformanceRead, h.Perms)).Get("/performance/my", h.handleMy)
	r.With(middleware.RequirePermission(auth.PermPerformanceCalculate, h.Perms)).Post("/performance/calculate", h.handleCalculate)
	r.With(middleware.RequirePermission(auth.PermPerformanceBatch, h.Perms)).Post("/performance/calculate-batch", h.handleCalculateBatch)
	r.With(middleware.RequirePermission(auth.PermPerformanceExport, h.Perms)).Get("/performance/export", h.handleExport)
	r.With(middleware.RequirePermission(auth.PermPerformanceRead, h.Perms)).Get("/performance/{reviewID}", h.handleGet)
	r.With(middleware.RequirePermission(auth.PermPerformanceRead, h.Perms)).Get("/performance/{reviewID}/report.pdf", h.handleReportPDF)
	r.With(middleware.RequirePermission(auth.PermPerformanceReview, h.Perms)).Put("/performance/{reviewID}", h.handleReview)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	scope, ok := shared.OptionalCaller(w, r, h.Scopes)
	if !ok {
		return
	}
	page := shared.ParsePagination(r, 20, 100)
	filter := performance.ReviewFilter{
		UserID: shared.QueryInt64(r, "user_id"),
		Cycle:  shared.QueryString(r, "cycle"),
		Status: shared.QueryString(r, "status"),
	}
	items, total, err := h.Service.List(r.Context(), scope, filter, page.Limit(), page.Offset())
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Paged(w, items, page.Meta(total), requestID)
}

func (h *Handler) handleMy(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	scope, ok := shared.Caller(w, r, h.Scopes)
	if !ok {
		return
	}
	items, err := h.Service.My(r.Context(), scope.UserID)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, items, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	scope, ok := shared.Caller(w, r, h.Scopes)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, r, "reviewID", requestID)
	if !ok {
		return
	}
	review, err := h.Service.Get(r.Context(), scope, id)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, review, requestID)
}

func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload calculateRequest
	if !shared.DecodeValid(w, r, &payload, requestID) {
		return
	}
	result, err := h.Service.Calculate(r.Context(), payload.UserID, payload.Cycle)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, result, requestID)
}

func (h *Handler) handleCalculateBatch(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload batchRequest
	if !shared.DecodeValid(w, r, &payload, requestID) {
		return
	}
	items, err := h.Service.CalculateBatch(r.Context(), payload.Cycle)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.SuccessMessage(w, fmt.Sprintf("calculated %d reviews", len(items)), items, requestID)
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	scope, ok := shared.Caller(w, r, h.Scopes)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, r, "reviewID", requestID)
	if !ok {
		return
	}
	var payload performance.ReviewUpdate
	if !shared.DecodeValid(w, r, &payload, requestID) {
		return
	}
	before, after, err := h.Service.Review(r.Context(), id, payload, scope.UserID)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	audit.Log(r.Context(), h.Audit, audit.Entry{
		ActorUserID: scope.UserID,
		Action:      audit.ActionReviewUpdate,
		EntityType:  "performance_review",
		EntityID:    strconv.FormatInt(id, 10),
		RequestID:   requestID,
		IP:          shared.ClientIP(r),
		Before:      reviewState(before),
		After:       reviewState(after),
	})
	api.Success(w, after, requestID)
}

func reviewState(r performance.Review) map[string]any {
	return map[string]any{"status": r.Status, "manager_comment": r.ManagerComment}
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	scope, ok := shared.Caller(w, r, h.Scopes)
	if !ok {
		return
	}
	cycle := r.URL.Query().Get("cycle")
	var buf bytes.Buffer
	if err := h.Service.ExportXLSX(r.Context(), scope, cycle, &buf); err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	writeAttachment(w, xlsxContentType, "performance-"+cycle+".xlsx", buf.Bytes())
}

func (h *Handler) handleReportPDF(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	scope, ok := shared.Caller(w, r, h.Scopes)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, r, "reviewID", requestID)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.Service.ReportPDF(r.Context(), scope, id, &buf); err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	writeAttachment(w, "application/pdf", fmt.Sprintf("performance-review-%d.pdf", id), buf.Bytes())
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		slog.Warn("write attachment failed", "filename", filename, "err", err)
	}
}
