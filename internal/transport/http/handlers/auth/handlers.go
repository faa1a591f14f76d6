package authhandler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aarondl/null/v8"
	"github.com/go-chi/chi/v5"

	"perfhub/internal/domain/auth"
	"perfhub/internal/transport/http/api"
	"perfhub/internal/transport/http/middleware"
	"perfhub/internal/transport/http/shared"
)

type Service interface {
	Register(ctx context.Context, input auth.RegisterInput) (int64, error)
	Login(ctx context.Context, username, password string) (auth.LoginResult, error)
	Me(ctx context.Context, userID int64) (auth.Profile, error)
	ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error
}

type Handler struct {
	Service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{Service: service}
}

type registerRequest struct {
	Username     string      `json:"username" validate:"required,min=3,max=50"`
	Password     string      `json:"password" validate:"required,min=6,max=128"`
	Email        null.String `json:"email" validate:"omitempty,email,max=255"`
	Phone        null.String `json:"phone" validate:"omitempty,max=32"`
	DepartmentID null.Int64  `json:"department_id" validate:"omitempty,gt=0"`
	PositionID   null.Int64  `json:"position_id" validate:"omitempty,gt=0"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type passwordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=128"`
}

// RegisterPublicRoutes mounts the endpoints reachable without a token.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/auth/me", h.handleMe)
	r.Put("/auth/password", h.handleChangePassword)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload registerRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	payload.Username = strings.TrimSpace(payload.Username)
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, requestID) {
		return
	}

	id, err := h.Service.Register(r.Context(), auth.RegisterInput{
		Username:     payload.Username,
		Password:     payload.Password,
		Email:        payload.Email,
		Phone:        payload.Phone,
		DepartmentID: payload.DepartmentID,
		PositionID:   payload.PositionID,
	})
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	slog.Info("user registered", "userId", id, "username", payload.Username)
	api.Created(w, map[string]int64{"id": id}, requestID)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, requestID) {
		return
	}

	result, err := h.Service.Login(r.Context(), payload.Username, payload.Password)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, result, requestID)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	profile, err := h.Service.Me(r.Context(), user.UserID)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, profile, requestID)
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	var payload passwordRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, requestID) {
		return
	}

	if err := h.Service.ChangePassword(r.Context(), user.UserID, payload.OldPassword, payload.NewPassword); err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.SuccessMessage(w, "password updated", nil, requestID)
}
