package shared

import (
	"context"
	"net/http"

	"perfhub/internal/domain/auth"
	"perfhub/internal/platform/requestctx"
	"perfhub/internal/transport/http/api"
	"perfhub/internal/transport/http/middleware"
)

// ScopeResolver turns a decoded token into the caller's current visibility.
type ScopeResolver interface {
	Resolve(ctx context.Context, user auth.UserContext) (auth.Scope, error)
}

func ClientIP(r *http.Request) string {
	return requestctx.GetClientIP(r.Context())
}

// Caller returns the authenticated user's scope, answering 401 itself when
// the request carries no identity or the user is gone.
func Caller(w http.ResponseWriter, r *http.Request, resolver ScopeResolver) (auth.Scope, bool) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return auth.Scope{}, false
	}
	scope, err := resolver.Resolve(r.Context(), user)
	if err != nil {
		api.FailErr(w, err, requestID)
		return auth.Scope{}, false
	}
	return scope, true
}

// OptionalCaller is Caller for routes open to anonymous reads. An anonymous
// request gets an unscoped read.
func OptionalCaller(w http.ResponseWriter, r *http.Request, resolver ScopeResolver) (auth.Scope, bool) {
	if _, ok := middleware.GetUser(r.Context()); !ok {
		return auth.UnscopedRead(), true
	}
	return Caller(w, r, resolver)
}
