package middleware

import (
	"context"
	"net/http"
	"strings"

	"perfhub/internal/domain/auth"
	"perfhub/internal/transport/http/api"
)

type ctxKey string

const (
	ctxKeyUser        ctxKey = "auth_user"
	ctxKeyTokenFailed ctxKey = "auth_token_failed"
)

// AuthRequirement states whether a route group rejects anonymous callers.
type AuthRequirement int

const (
	AuthRequired AuthRequirement = iota
	// AuthOptional lets requests with a missing or invalid token through as
	// anonymous. Handlers must treat the absence of a user explicitly.
	AuthOptional
)

func ParseAuthRequirement(value string) AuthRequirement {
	if strings.EqualFold(strings.TrimSpace(value), "optional") {
		return AuthOptional
	}
	return AuthRequired
}

// Authenticate decodes a bearer token onto the context. It never rejects;
// RequireAuth decides what an absent identity means for a route.
func Authenticate(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.Fields(authHeader)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyTokenFailed, true)))
				return
			}

			claims, err := auth.ParseToken(secret, parts[1])
			if err != nil {
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyTokenFailed, true)))
				return
			}

			ctx := WithUser(r.Context(), auth.UserContext{
				UserID:   claims.UserID,
				Username: claims.Username,
				Role:     claims.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireAuth(requirement AuthRequirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if requirement == AuthOptional {
				next.ServeHTTP(w, r)
				return
			}
			if _, ok := GetUser(r.Context()); !ok {
				message := "authentication required"
				if failed, _ := r.Context().Value(ctxKeyTokenFailed).(bool); failed {
					message = "invalid or expired token"
				}
				api.Fail(w, http.StatusUnauthorized, "unauthorized", message, GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithUser(ctx context.Context, user auth.UserContext) context.Context {
	return context.WithValue(ctx, ctxKeyUser, user)
}

func GetUser(ctx context.Context) (auth.UserContext, bool) {
	user, ok := ctx.Value(ctxKeyUser).(auth.UserContext)
	return user, ok
}
