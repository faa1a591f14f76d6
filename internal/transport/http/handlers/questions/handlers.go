package questionhandler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/aarondl/null/v8"
	"github.com/go-chi/chi/v5"

	"perfhub/internal/domain/auth"
	"perfhub/internal/domain/questions"
	"perfhub/internal/transport/http/api"
	"perfhub/internal/transport/http/middleware"
	"perfhub/internal/transport/http/shared"
)

type Service interface {
	List(ctx context.Context, filter questions.Filter, limit, offset uint64) ([]questions.Question, int, error)
	Get(ctx context.Context, id int64) (questions.Question, error)
	Create(ctx context.Context, input questions.Input, actorID int64) (questions.Question, error)
	Update(ctx context.Context, id int64, input questions.Input) (questions.Question, error)
	Delete(ctx context.Context, id int64) error
	Random(ctx context.Context, count int, category null.String) ([]questions.PublicQuestion, error)
}

type Handler struct {
	Service Service
	Scopes  shared.ScopeResolver
	Perms   middleware.PermissionStore
}

func NewHandler(service Service, scopes shared.ScopeResolver, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Scopes: scopes, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermQuestionsRead, h.Perms)
	write := middleware.RequirePermission(auth.PermQuestionsWrite, h.Perms)

	r.Route("/questions", func(r chi.Router) {
		r.With(read).Get("/", h.handleList)
		r.With(write).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermQuestionsSample, h.Perms)).Get("/random/{count}", h.handleRandom)
		r.Route("/{questionID}", func(r chi.Router) {
			r.With(read).Get("/", h.handleGet)
			r.With(write).Put("/", h.handleUpdate)
			r.With(write).Delete("/", h.handleDelete)
		})
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 20, 100)
	filter := questions.Filter{
		Category: shared.QueryString(r, "category"),
		Type:     shared.QueryString(r, "type"),
	}
	items, total, err := h.Service.List(r.Context(), filter, page.Limit(), page.Offset())
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Paged(w, items, page.Meta(total), requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id, ok := shared.PathID(w, r, "questionID", requestID)
	if !ok {
		return
	}
	item, err := h.Service.Get(r.Context(), id)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, item, requestID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	scope, ok := shared.Caller(w, r, h.Scopes)
	if !ok {
		return
	}
	var payload questions.Input
	if !shared.DecodeValid(w, r, &payload, requestID) {
		return
	}
	item, err := h.Service.Create(r.Context(), payload, scope.UserID)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Created(w, item, requestID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id, ok := shared.PathID(w, r, "questionID", requestID)
	if !ok {
		return
	}
	var payload questions.Input
	if !shared.DecodeValid(w, r, &payload, requestID) {
		return
	}
	item, err := h.Service.Update(r.Context(), id, payload)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, item, requestID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id, ok := shared.PathID(w, r, "questionID", requestID)
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.SuccessMessage(w, "question deleted", nil, requestID)
}

func (h *Handler) handleRandom(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	count, err := strconv.Atoi(chi.URLParam(r, "count"))
	if err != nil {
		api.FailErr(w, questions.ErrInvalidCount, requestID)
		return
	}
	items, err := h.Service.Random(r.Context(), count, shared.QueryString(r, "category"))
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, items, requestID)
}
