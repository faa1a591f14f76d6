package corehandler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/aarondl/null/v8"
	"github.com/go-chi/chi/v5"

	"perfhub/internal/domain/audit"
	"perfhub/internal/domain/auth"
	"perfhub/internal/domain/core"
	"perfhub/internal/transport/http/api"
	"perfhub/internal/transport/http/middleware"
	"perfhub/internal/transport/http/shared"
)

type Service interface {
	ListUsers(ctx context.Context, scope auth.Scope, filter core.UserFilter, limit, offset uint64) ([]core.User, int, error)
	GetUser(ctx context.Context, scope auth.Scope, id int64) (core.User, error)
	UpdateUser(ctx context.Context, scope auth.Scope, id int64, update core.UserUpdate) (core.User, error)
	DeleteUser(ctx context.Context, scope auth.Scope, id int64) (core.User, error)
	SetRole(ctx context.Context, id int64, role string) (before, after core.User, err error)

	ListDepartments(ctx context.Context) ([]core.Department, error)
	GetDepartment(ctx context.Context, id int64) (core.Department, error)
	CreateDepartment(ctx context.Context, input core.DepartmentInput) (core.Department, error)
	UpdateDepartment(ctx context.Context, id int64, input core.DepartmentInput) (core.Department, error)
	DeleteDepartment(ctx context.Context, id int64) error
	DepartmentUsers(ctx context.Context, scope auth.Scope, id int64) ([]core.User, error)

	ListPositions(ctx context.Context, departmentID null.Int64) ([]core.Position, error)
	GetPosition(ctx context.Context, id int64) (core.Position, error)
	CreatePosition(ctx context.Context, input core.PositionInput) (core.Position, error)
	UpdatePosition(ctx context.Context, id int64, input core.PositionInput) (core.Position, error)
	DeletePosition(ctx context.Context, id int64) error

	ListResponsibilities(ctx context.Context, positionID null.Int64) ([]core.Responsibility, error)
	GetResponsibility(ctx context.Context, id int64) (core.Responsibility, error)
	CreateResponsibility(ctx context.Context, input core.ResponsibilityInput) (core.Responsibility, error)
	UpdateResponsibility(ctx context.Context, id int64, input core.ResponsibilityInput) (core.Responsibility, error)
	DeleteResponsibility(ctx context.Context, id int64) error
	ResponsibilitiesForEmployee(ctx context.Context, scope auth.Scope, userID int64) ([]core.Responsibility, error)
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

type roleRequest struct {
	Role string `json:"role" validate:"required"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermDirectoryRead, h.Perms)
	write := middleware.RequirePermission(auth.PermDirectoryWrite, h.Perms)

	r.Route("/users", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermUsersRead, h.Perms)).Get("/", h.handleListUsers)
		r.Route("/{userID}", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermUsersRead, h.Perms)).Get("/", h.handleGetUser)
			r.Put("/", h.handleUpdateUser)
			r.With(middleware.RequirePermission(auth.PermUsersManage, h.Perms)).Delete("/", h.handleDeleteUser)
			r.With(middleware.RequirePermission(auth.PermUsersManage, h.Perms)).Put("/role", h.handleSetRole)
		})
	})
	r.Route("/departments", func(r chi.Router) {
		r.With(read).Get("/", h.handleListDepartments)
		r.With(write).Post("/", h.handleCreateDepartment)
		r.Route("/{departmentID}", func(r chi.Router) {
			r.With(read).Get("/", h.handleGetDepartment)
			r.With(read).Get("/users", h.handleDepartmentUsers)
			r.With(write).Put("/", h.handleUpdateDepartment)
			r.With(write).Delete("/", h.handleDeleteDepartment)
		})
	})
	r.Route("/positions", func(r chi.Router) {
		r.With(read).Get("/", h.handleListPositions)
		r.With(write).Post("/", h.handleCreatePosition)
		r.Route("/{positionID}", func(r chi.Router) {
			r.With(read).Get("/", h.handleGetPosition)
			r.With(write).Put("/", h.handleUpdatePosition)
			r.With(write).Delete("/", h.handleDeletePosition)
		})
	})
	r.Route("/responsibilities", func(r chi.Router) {
		r.With(read).Get("/", h.handleListResponsibilities)
		r.With(write).Post("/", h.handleCreateResponsibility)
		r.With(read).Get("/employee/{userID}", h.handleEmployeeResponsibilities)
		r.Route("/{responsibilityID}", func(r chi.Router) {
			r.With(read).Get("/", h.handleGetResponsibility)
			r.With(write).Put("/", h.handleUpdateResponsibility)
			r.With(write).Delete("/", h.handleDeleteResponsibility)
		})
	})
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	scope, ok := shared.Caller(w, r, h.Scopes)
	if !ok {
		return
	}
	page := shared.ParsePagination(r, 20, 100)
	filter := core.UserFilter{
		DepartmentID: shared.QueryInt64(r, "department_id"),
		PositionID:   shared.QueryInt64(r, "position_id"),
		Role:         shared.QueryString(r, "role"),
	}
	users, total, err := h.Service.ListUsers(r.Context(), scope, filter, page.Limit(), page.Offset())
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Paged(w, users, page.Meta(total), requestID)
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	scope, ok := shared.Caller(w, r, h.Scopes)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, r, "userID", requestID)
	if !ok {
		return
	}
	user, err := h.Service.GetUser(r.Context(), scope, id)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, user, requestID)
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	scope, ok := shared.Caller(w, r, h.Scopes)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, r, "userID", requestID)
	if !ok {
		return
	}
	var payload core.UserUpdate
	if !shared.DecodeValid(w, r, &payload, requestID) {
		return
	}
	user, err := h.Service.UpdateUser(r.Context(), scope, id, payload)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, user, requestID)
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	scope, ok := shared.Caller(w, r, h.Scopes)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, r, "userID", requestID)
	if !ok {
		return
	}
	before, err := h.Service.DeleteUser(r.Context(), scope, id)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	audit.Log(r.Context(), h.Audit, audit.Entry{
		ActorUserID: scope.UserID,
		Action:      audit.ActionUserDelete,
		EntityType:  "user",
		EntityID:    strconv.FormatInt(id, 10),
		RequestID:   requestID,
		IP:          shared.ClientIP(r),
		Before:      before,
	})
	api.SuccessMessage(w, "user deleted", nil, requestID)
}

func (h *Handler) handleSetRole(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	scope, ok := shared.Caller(w, r, h.Scopes)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, r, "userID", requestID)
	if !ok {
		return
	}
	var payload roleRequest
	if !shared.DecodeValid(w, r, &payload, requestID) {
		return
	}
	before, after, err := h.Service.SetRole(r.Context(), id, payload.Role)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	audit.Log(r.Context(), h.Audit, audit.Entry{
		ActorUserID: scope.UserID,
		Action:      audit.ActionUserRoleChange,
		EntityType:  "user",
		EntityID:    strconv.FormatInt(id, 10),
		RequestID:   requestID,
		IP:          shared.ClientIP(r),
		Before:      map[string]string{"role": before.Role},
		After:       map[string]string{"role": after.Role},
	})
	api.Success(w, after, requestID)
}

func (h *Handler) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	departments, err := h.Service.ListDepartments(r.Context())
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, departments, requestID)
}

func (h *Handler) handleGetDepartment(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id, ok := shared.PathID(w, r, "departmentID", requestID)
	if !ok {
		return
	}
	department, err := h.Service.GetDepartment(r.Context(), id)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, department, requestID)
}

func (h *Handler) handleDepartmentUsers(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	scope, ok := shared.Caller(w, r, h.Scopes)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, r, "departmentID", requestID)
	if !ok {
		return
	}
	users, err := h.Service.DepartmentUsers(r.Context(), scope, id)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, users, requestID)
}

func (h *Handler) handleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload core.DepartmentInput
	if !shared.DecodeValid(w, r, &payload, requestID) {
		return
	}
	department, err := h.Service.CreateDepartment(r.Context(), payload)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Created(w, department, requestID)
}

func (h *Handler) handleUpdateDepartment(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id, ok := shared.PathID(w, r, "departmentID", requestID)
	if !ok {
		return
	}
	var payload core.DepartmentInput
	if !shared.DecodeValid(w, r, &payload, requestID) {
		return
	}
	department, err := h.Service.UpdateDepartment(r.Context(), id, payload)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, department, requestID)
}

func (h *Handler) handleDeleteDepartment(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id, ok := shared.PathID(w, r, "departmentID", requestID)
	if !ok {
		return
	}
	if err := h.Service.DeleteDepartment(r.Context(), id); err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.SuccessMessage(w, "department deleted", nil, requestID)
}

func (h *Handler) handleListPositions(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	positions, err := h.Service.ListPositions(r.Context(), shared.QueryInt64(r, "department_id"))
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, positions, requestID)
}

func (h *Handler) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id, ok := shared.PathID(w, r, "positionID", requestID)
	if !ok {
		return
	}
	position, err := h.Service.GetPosition(r.Context(), id)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, position, requestID)
}

func (h *Handler) handleCreatePosition(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload core.PositionInput
	if !shared.DecodeValid(w, r, &payload, requestID) {
		return
	}
	position, err := h.Service.CreatePosition(r.Context(), payload)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Created(w, position, requestID)
}

func (h *Handler) handleUpdatePosition(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id, ok := shared.PathID(w, r, "positionID", requestID)
	if !ok {
		return
	}
	var payload core.PositionInput
	if !shared.DecodeValid(w, r, &payload, requestID) {
		return
	}
	position, err := h.Service.UpdatePosition(r.Context(), id, payload)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, position, requestID)
}

func (h *Handler) handleDeletePosition(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id, ok := shared.PathID(w, r, "positionID", requestID)
	if !ok {
		return
	}
	if err := h.Service.DeletePosition(r.Context(), id); err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.SuccessMessage(w, "position deleted", nil, requestID)
}

func (h *Handler) handleListResponsibilities(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	items, err := h.Service.ListResponsibilities(r.Context(), shared.QueryInt64(r, "position_id"))
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, items, requestID)
}

func (h *Handler) handleGetResponsibility(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id, ok := shared.PathID(w, r, "responsibilityID", requestID)
	if !ok {
		return
	}
	item, err := h.Service.GetResponsibility(r.Context(), id)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, item, requestID)
}

func (h *Handler) handleEmployeeResponsibilities(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	scope, ok := shared.Caller(w, r, h.Scopes)
	if !ok {
		return
	}
	userID, ok := shared.PathID(w, r, "userID", requestID)
	if !ok {
		return
	}
	items, err := h.Service.ResponsibilitiesForEmployee(r.Context(), scope, userID)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, items, requestID)
}

func (h *Handler) handleCreateResponsibility(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload core.ResponsibilityInput
	if !shared.DecodeValid(w, r, &payload, requestID) {
		return
	}
	item, err := h.Service.CreateResponsibility(r.Context(), payload)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Created(w, item, requestID)
}

func (h *Handler) handleUpdateResponsibility(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id, ok := shared.PathID(w, r, "responsibilityID", requestID)
	if !ok {
		return
	}
	var payload core.ResponsibilityInput
	if !shared.DecodeValid(w, r, &payload, requestID) {
		return
	}
	item, err := h.Service.UpdateResponsibility(r.Context(), id, payload)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, item, requestID)
}

func (h *Handler) handleDeleteResponsibility(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id, ok := shared.PathID(w, r, "responsibilityID", requestID)
	if !ok {
		return
	}
	if err := h.Service.DeleteResponsibility(r.Context(), id); err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.SuccessMessage(w, "responsibility deleted", nil, requestID)
}
