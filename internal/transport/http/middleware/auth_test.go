package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"perfhub/internal/domain/auth"
)

func TestAuthenticateSetsUser(t *testing.T) {
	secret := "test-secret"
	token, err := auth.GenerateToken(secret, auth.Claims{UserID: 3, Username: "alice", Role: auth.RoleManager}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	called := false
	handler := Authenticate(secret)(RequireAuth(AuthRequired)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		user, ok := GetUser(r.Context())
		if !ok {
			t.Fatal("expected user in context")
		}
		if user.UserID != 3 || user.Username != "alice" || user.Role != auth.RoleManager {
			t.Fatalf("unexpected user: %+v", user)
		}
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if !called {
		t.Fatalf("expected handler to run, got %d", rec.Code)
	}
}

func TestRequireAuthRejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "missing", header: ""},
		{name: "malformed", header: "Token abc"},
		{name: "invalid", header: "Bearer not-a-jwt"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := Authenticate("secret")(RequireAuth(AuthRequired)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not run")
			})))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestOptionalAuthTreatsInvalidTokenAsAnonymous(t *testing.T) {
	called := false
	handler := Authenticate("secret")(RequireAuth(AuthOptional)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, ok := GetUser(r.Context()); ok {
			t.Fatal("did not expect user in context")
		}
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer expired-or-forged")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if !called {
		t.Fatal("expected optional route to run")
	}
}

func TestRequirePermission(t *testing.T) {
	handler := RequirePermission(auth.PermQuestionsWrite, auth.StaticPermissions{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		role string
		want int
	}{
		{auth.RoleAdmin, http.StatusNoContent},
		{auth.RoleManager, http.StatusForbidden},
		{auth.RoleEmployee, http.StatusForbidden},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = req.WithContext(WithUser(req.Context(), auth.UserContext{UserID: 1, Role: tc.role}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.role, tc.want, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without user, got %d", rec.Code)
	}
}

func TestRecovererAnswers500(t *testing.T) {
	handler := RequestID(Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
}

func TestBodyLimitRejectsDeclaredOversize(t *testing.T) {
	handler := BodyLimit(1024)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.ContentLength = 4096
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}
