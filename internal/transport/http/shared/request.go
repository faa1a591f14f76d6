package shared

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/aarondl/null/v8"
	"github.com/go-chi/chi/v5"

	"perfhub/internal/transport/http/api"
)

// DecodeJSON decodes the request body into dst, answering 400 (or 413 for an
// oversized body) itself when it cannot.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any, requestID string) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", requestID)
			return false
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return false
	}
	return true
}

// PathID parses a positive integer URL parameter, answering 400 when malformed.
func PathID(w http.ResponseWriter, r *http.Request, name, requestID string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		api.Fail(w, http.StatusBadRequest, "invalid_id", name+" must be a positive integer", requestID)
		return 0, false
	}
	return id, true
}

// QueryInt64 returns an invalid null.Int64 for absent or malformed values.
func QueryInt64(r *http.Request, name string) null.Int64 {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return null.Int64{}
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return null.Int64{}
	}
	return null.Int64From(v)
}

func QueryString(r *http.Request, name string) null.String {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return null.String{}
	}
	return null.StringFrom(raw)
}
