package examhandler

import (
	"context"
	"net/http"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/go-chi/chi/v5"

	"perfhub/internal/domain/auth"
	"perfhub/internal/domain/exams"
	"perfhub/internal/transport/http/api"
	"perfhub/internal/transport/http/middleware"
	"perfhub/internal/transport/http/shared"
)

type Service interface {
	List(ctx context.Context, filter exams.ExamFilter, limit, offset uint64) ([]exams.Exam, int, error)
	Get(ctx context.Context, id int64) (exams.Exam, error)
	Create(ctx context.Context, input exams.ExamInput, actorID int64) (exams.Exam, error)
	Update(ctx context.Context, id int64, input exams.ExamInput) (exams.Exam, error)
	Delete(ctx context.Context, id int64) error
	Available(ctx context.Context, scope auth.Scope) ([]exams.AvailableExam, error)
	FetchQuestions(ctx context.Context, examID, userID int64) (exams.Paper, error)
	Submit(ctx context.Context, examID, userID int64, answers exams.Answers) (exams.SubmitResult, error)
	ListRecords(ctx context.Context, scope auth.Scope, filter exams.RecordFilter, limit, offset uint64) ([]exams.Record, int, error)
	GetRecord(ctx context.Context, scope auth.Scope, id int64) (exams.RecordDetail, error)
	MyStats(ctx context.Context, userID int64) (exams.Stats, error)
}

type Handler struct {
	Service Service
	Scopes  shared.ScopeResolver
	Perms   middleware.PermissionStore
}

func NewHandler(service Service, scopes shared.ScopeResolver, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Scopes: scopes, Perms: perms}
}

type examRequest struct {
	Title            string       `json:"title" validate:"required,max=200"`
	Description      null.String  `json:"description" validate:"omitempty,max=2000"`
	StartTime        string       `json:"start_time" validate:"required"`
	EndTime          string       `json:"end_time" validate:"required"`
	DurationMinutes  null.Int64   `json:"duration_minutes" validate:"omitempty,gt=0,lte=1440"`
	TargetPositionID null.Int64   `json:"target_position_id" validate:"omitempty,gt=0"`
	QuestionCount    null.Int64   `json:"question_count" validate:"omitempty,gt=0,lte=100"`
	TotalScore       null.Float64 `json:"total_score" validate:"omitempty,gt=0"`
	Status           null.String  `json:"status" validate:"omitempty,oneof=pending active completed"`
}

type submitRequest struct {
	Answers exams.Answers `json:"answers"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermExamsRead, h.Perms)
	write := middleware.RequirePermission(auth.PermExamsWrite, h.Perms)
	take := middleware.RequirePermission(auth.PermExamsTake, h.Perms)
	records := middleware.RequirePermission(auth.PermExamRecordsRead, h.Perms)

	r.Route("/exams", func(r chi.Router) {
		r.With(read).Get("/", h.handleList)
		r.With(write).Post("/", h.handleCreate)
		r.With(take).Get("/available", h.handleAvailable)
		r.Route("/{examID}", func(r chi.Router) {
			r.With(read).Get("/", h.handleGet)
			r.With(write).Put("/", h.handleUpdate)
			r.With(write).Delete("/", h.handleDelete)
			r.With(take).Get("/questions", h.handleQuestions)
			r.With(take).Post("/submit", h.handleSubmit)
		})
	})
	r.Route("/exam-records", func(r chi.Router) {
		r.With(records).Get("/", h.handleListRecords)
		r.With(records).Get("/stats/my", h.handleMyStats)
		r.With(records).Get("/{recordID}", h.handleGetRecord)
	})
}

func (h *Handler) parseExam(w http.ResponseWriter, r *http.Request, requestID string) (exams.ExamInput, bool) {
	var payload examRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return exams.ExamInput{}, false
	}
	v := shared.NewValidator()
	v.Struct(payload)
	var start, end time.Time
	if payload.StartTime != "" {
		start, _ = v.Instant("start_time", payload.StartTime)
	}
	if payload.EndTime != "" {
		end, _ = v.Instant("end_time", payload.EndTime)
	}
	v.InstantOrder("start_time", start, "end_time", end)
	if v.Reject(w, requestID) {
		return exams.ExamInput{}, false
	}
	return exams.ExamInput{
		Title:            payload.Title,
		Description:      payload.Description,
		StartTime:        start,
		EndTime:          end,
		DurationMinutes:  payload.DurationMinutes,
		TargetPositionID: payload.TargetPositionID,
		QuestionCount:    payload.QuestionCount,
		TotalScore:       payload.TotalScore,
		Status:           payload.Status,
	}, true
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 20, 100)
	filter := exams.ExamFilter{
		Status:     shared.QueryString(r, "status"),
		PositionID: shared.QueryInt64(r, "position_id"),
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
	id, ok := shared.PathID(w, r, "examID", requestID)
	if !ok {
		return
	}
	exam, err := h.Service.Get(r.Context(), id)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, exam, requestID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	scope, ok := shared.Caller(w, r, h.Scopes)
	if !ok {
		return
	}
	input, ok := h.parseExam(w, r, requestID)
	if !ok {
		return
	}
	exam, err := h.Service.Create(r.Context(), input, scope.UserID)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Created(w, exam, requestID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id, ok := shared.PathID(w, r, "examID", requestID)
	if !ok {
		return
	}
	input, ok := h.parseExam(w, r, requestID)
	if !ok {
		return
	}
	exam, err := h.Service.Update(r.Context(), id, input)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, exam, requestID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id, ok := shared.PathID(w, r, "examID", requestID)
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.SuccessMessage(w, "exam deleted", nil, requestID)
}

func (h *Handler) handleAvailable(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	scope, ok := shared.Caller(w, r, h.Scopes)
	if !ok {
		return
	}
	items, err := h.Service.Available(r.Context(), scope)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, items, requestID)
}

func (h *Handler) handleQuestions(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	scope, ok := shared.Caller(w, r, h.Scopes)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, r, "examID", requestID)
	if !ok {
		return
	}
	paper, err := h.Service.FetchQuestions(r.Context(), id, scope.UserID)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, paper, requestID)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	scope, ok := shared.Caller(w, r, h.Scopes)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, r, "examID", requestID)
	if !ok {
		return
	}
	var payload submitRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	result, err := h.Service.Submit(r.Context(), id, scope.UserID, payload.Answers)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.SuccessMessage(w, "exam submitted", result, requestID)
}

func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	scope, ok := shared.Caller(w, r, h.Scopes)
	if !ok {
		return
	}
	page := shared.ParsePagination(r, 20, 100)
	filter := exams.RecordFilter{
		ExamID: shared.QueryInt64(r, "exam_id"),
		UserID: shared.QueryInt64(r, "user_id"),
		Status: shared.QueryString(r, "status"),
	}
	items, total, err := h.Service.ListRecords(r.Context(), scope, filter, page.Limit(), page.Offset())
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Paged(w, items, page.Meta(total), requestID)
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	scope, ok := shared.Caller(w, r, h.Scopes)
	if !ok {
		return
	}
	id, ok := shared.PathID(w, r, "recordID", requestID)
	if !ok {
		return
	}
	detail, err := h.Service.GetRecord(r.Context(), scope, id)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, detail, requestID)
}

func (h *Handler) handleMyStats(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	scope, ok := shared.Caller(w, r, h.Scopes)
	if !ok {
		return
	}
	stats, err := h.Service.MyStats(r.Context(), scope.UserID)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, stats, requestID)
}
