package feishuhandler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/aarondl/null/v8"
	"github.com/go-chi/chi/v5"

	"perfhub/internal/domain/audit"
	"perfhub/internal/domain/auth"
	"perfhub/internal/domain/feishu"
	"perfhub/internal/transport/http/api"
	"perfhub/internal/transport/http/middleware"
	"perfhub/internal/transport/http/shared"
)

type Service interface {
	GetConfig(ctx context.Context) (feishu.Config, error)
	SaveConfig(ctx context.Context, input feishu.ConfigInput) (feishu.Config, error)
	Test(ctx context.Context) (feishu.TestResult, error)
	Reports(ctx context.Context, scope auth.Scope, filter feishu.ReportFilter, limit, offset uint64) ([]feishu.Report, int, error)
	Sync(ctx context.Context, date string) (feishu.SyncResult, error)
	Bind(ctx context.Context, scope auth.Scope, input feishu.BindInput) (feishu.BindResult, error)
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

type syncRequest struct {
	Date string `json:"date"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	admin := middleware.RequirePermission(auth.PermReportsAdmin, h.Perms)

	r.Route("/feishu", func(r chi.Router) {
		r.With(admin).Get("/config", h.handleGetConfig)
		r.With(admin).Post("/config", h.handleSaveConfig)
		r.With(admin).Post("/test", h.handleTest)
		r.With(admin).Post("/sync", h.handleSync)
		r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/reports", h.handleReports)
		r.With(middleware.RequirePermission(auth.PermReportsBind, h.Perms)).Post("/bind", h.handleBind)
	})
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	cfg, err := h.Service.GetConfig(r.Context())
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, cfg, requestID)
}

func (h *Handler) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	scope, ok := shared.Caller(w, r, h.Scopes)
	if !ok {
		return
	}
	var payload feishu.ConfigInput
	if !shared.DecodeValid(w, r, &payload, requestID) {
		return
	}

	var before any
	if prev, err := h.Service.GetConfig(r.Context()); err == nil {
		before = prev
	}
	cfg, err := h.Service.SaveConfig(r.Context(), payload)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	audit.Log(r.Context(), h.Audit, audit.Entry{
		ActorUserID: scope.UserID,
		Action:      audit.ActionReportConfigUpdate,
		EntityType:  "feishu_config",
		EntityID:    "1",
		RequestID:   requestID,
		IP:          shared.ClientIP(r),
		Before:      before,
		After:       cfg,
	})
	api.SuccessMessage(w, "configuration saved", cfg, requestID)
}

func (h *Handler) handleTest(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	result, err := h.Service.Test(r.Context())
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.SuccessMessage(w, "connection ok", result, requestID)
}

func (h *Handler) handleReports(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	scope, ok := shared.Caller(w, r, h.Scopes)
	if !ok {
		return
	}
	v := shared.NewValidator()
	filter := feishu.ReportFilter{UserID: shared.QueryInt64(r, "user_id")}
	if raw := r.URL.Query().Get("start_date"); raw != "" {
		if start, ok := v.Date("start_date", raw); ok {
			filter.StartDate = null.TimeFrom(start)
		}
	}
	if raw := r.URL.Query().Get("end_date"); raw != "" {
		if end, ok := v.Date("end_date", raw); ok {
			filter.EndDate = null.TimeFrom(end)
		}
	}
	if v.Reject(w, requestID) {
		return
	}
	page := shared.ParsePagination(r, 20, 100)
	items, total, err := h.Service.Reports(r.Context(), scope, filter, page.Limit(), page.Offset())
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Paged(w, items, page.Meta(total), requestID)
}

func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload syncRequest
	// The body is optional; an empty one syncs today.
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	result, err := h.Service.Sync(r.Context(), strings.TrimSpace(payload.Date))
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.SuccessMessage(w, "sync completed", result, requestID)
}

func (h *Handler) handleBind(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	scope, ok := shared.Caller(w, r, h.Scopes)
	if !ok {
		return
	}
	var payload feishu.BindInput
	if !shared.DecodeValid(w, r, &payload, requestID) {
		return
	}
	result, err := h.Service.Bind(r.Context(), scope, payload)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	audit.Log(r.Context(), h.Audit, audit.Entry{
		ActorUserID: scope.UserID,
		Action:      audit.ActionReportBind,
		EntityType:  "user",
		EntityID:    strconv.FormatInt(result.UserID, 10),
		RequestID:   requestID,
		IP:          shared.ClientIP(r),
		After:       result,
	})
	api.Success(w, result, requestID)
}
