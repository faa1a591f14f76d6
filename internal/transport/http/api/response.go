package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"

	"perfhub/internal/platform/apperr"
)

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total"`
}

type Envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       any         `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Error      *Error      `json:"error,omitempty"`
	Details    any         `json:"details,omitempty"`
	RequestID  string      `json:"requestId,omitempty"`
}

var exposeErrorDetail atomic.Bool

// ExposeErrorDetail controls whether 500 responses carry the underlying error
// text. Only development deployments turn it on.
func ExposeErrorDetail(enabled bool) {
	exposeErrorDetail.Store(enabled)
}

func WriteJSON(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("write json failed", "err", err)
	}
}

func Success(w http.ResponseWriter, data any, requestID string) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data, RequestID: requestID})
}

func SuccessMessage(w http.ResponseWriter, message string, data any, requestID string) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data, RequestID: requestID})
}

func Paged(w http.ResponseWriter, data any, pagination Pagination, requestID string) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data, Pagination: &pagination, RequestID: requestID})
}

func Created(w http.ResponseWriter, data any, requestID string) {
	WriteJSON(w, http.StatusCreated, Envelope{Success: true, Data: data, RequestID: requestID})
}

func Fail(w http.ResponseWriter, status int, code, message, requestID string) {
	WriteJSON(w, status, Envelope{
		Success:   false,
		Message:   message,
		Error:     &Error{Code: code, Message: message},
		RequestID: requestID,
	})
}

func FailWithDetails(w http.ResponseWriter, status int, code, message string, details any, requestID string) {
	WriteJSON(w, status, Envelope{
		Success:   false,
		Message:   message,
		Error:     &Error{Code: code, Message: message},
		Details:   details,
		RequestID: requestID,
	})
}

// FailErr renders a service error. Expected failures keep their own status
// and message; anything else is logged and reported as a bare 500.
func FailErr(w http.ResponseWriter, err error, requestID string) {
	if appErr, ok := apperr.As(err); ok && appErr.Kind != apperr.KindInternal {
		Fail(w, appErr.Kind.HTTPStatus(), appErr.Code, appErr.Message, requestID)
		return
	}

	slog.Error("request failed", "requestId", requestID, "err", err)
	body := &Error{Code: "internal_error", Message: "internal server error"}
	if exposeErrorDetail.Load() {
		body.Detail = err.Error()
	}
	WriteJSON(w, http.StatusInternalServerError, Envelope{
		Success:   false,
		Message:   body.Message,
		Error:     body,
		RequestID: requestID,
	})
}
