package authhandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfhub/internal/domain/auth"
	"perfhub/internal/transport/http/middleware"
)

type fakeService struct {
	registered  []auth.RegisterInput
	registerErr error
	loginErr    error
	oldPassword string
}

func (f *fakeService) Register(_ context.Context, input auth.RegisterInput) (int64, error) {
	if f.registerErr != nil {
		return 0, f.registerErr
	}
	f.registered = append(f.registered, input)
	return int64(len(f.registered)), nil
}

func (f *fakeService) Login(_ context.Context, username, _ string) (auth.LoginResult, error) {
	if f.loginErr != nil {
		return auth.LoginResult{}, f.loginErr
	}
	return auth.LoginResult{Token: "tok", User: auth.UserSummary{ID: 1, Username: username, Role: auth.RoleEmployee}}, nil
}

func (f *fakeService) Me(_ context.Context, userID int64) (auth.Profile, error) {
	return auth.Profile{ID: userID, Username: "alice", Role: auth.RoleEmployee, Status: auth.UserStatusActive}, nil
}

func (f *fakeService) ChangePassword(_ context.Context, _ int64, oldPassword, _ string) error {
	if oldPassword != f.oldPassword {
		return auth.ErrWrongPassword
	}
	return nil
}

func newRouter(svc Service) http.Handler {
	h := NewHandler(svc)
	r := chi.NewRouter()
	h.RegisterPublicRoutes(r)
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				ctx := middleware.WithUser(req.Context(), auth.UserContext{UserID: 3, Username: "alice", Role: auth.RoleEmployee})
				next.ServeHTTP(w, req.WithContext(ctx))
			})
		})
		h.RegisterRoutes(r)
	})
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return rec, out
}

func TestRegister(t *testing.T) {
	svc := &fakeService{}
	rec, body := do(t, newRouter(svc), http.MethodPost, "/auth/register", `{"username":" alice ","password":"secret1","email":"a@example.com"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, float64(1), body["data"].(map[string]any)["id"])
	require.Len(t, svc.registered, 1)
	assert.Equal(t, "alice", svc.registered[0].Username)
	assert.Equal(t, "a@example.com", svc.registered[0].Email.String)
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "short username", body: `{"username":"ab","password":"secret1"}`},
		{name: "short password", body: `{"username":"alice","password":"12345"}`},
		{name: "bad email", body: `{"username":"alice","password":"secret1","email":"nope"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := do(t, newRouter(&fakeService{}), http.MethodPost, "/auth/register", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "validation_error", body["error"].(map[string]any)["code"])
		})
	}
}

func TestRegisterDuplicateIsConflict(t *testing.T) {
	rec, _ := do(t, newRouter(&fakeService{registerErr: auth.ErrUsernameTaken}), http.MethodPost, "/auth/register", `{"username":"alice","password":"secret1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginFailureIsSingleMessage(t *testing.T) {
	rec, body := do(t, newRouter(&fakeService{loginErr: auth.ErrInvalidCredentials}), http.MethodPost, "/auth/login", `{"username":"ghost","password":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid username or password", body["message"])
}

func TestLoginReturnsToken(t *testing.T) {
	rec, body := do(t, newRouter(&fakeService{}), http.MethodPost, "/auth/login", `{"username":"alice","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok", body["data"].(map[string]any)["token"])
}

func TestMe(t *testing.T) {
	rec, body := do(t, newRouter(&fakeService{}), http.MethodGet, "/auth/me", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), body["data"].(map[string]any)["id"])
}

func TestChangePasswordWrongOld(t *testing.T) {
	svc := &fakeService{oldPassword: "secret1"}
	rec, _ := do(t, newRouter(svc), http.MethodPut, "/auth/password", `{"old_password":"bad","new_password":"secret2"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, newRouter(svc), http.MethodPut, "/auth/password", `{"old_password":"secret1","new_password":"secret2"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}
