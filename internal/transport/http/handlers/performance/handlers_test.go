package performancehandler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aarondl/null/v8"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfhub/internal/domain/audit"
	"perfhub/internal/domain/auth"
	"perfhub/internal/domain/performance"
	"perfhub/internal/transport/http/middleware"
)

type fakeService struct {
	Service
	listScope auth.Scope
	review    performance.Review
	myUserID  int64
}

func (f *fakeService) My(_ context.Context, userID int64) ([]performance.Review, error) {
	f.myUserID = userID
	return []performance.Review{f.review}, nil
}

func (f *fakeService) List(_ context.Context, scope auth.Scope, _ performance.ReviewFilter, _, _ uint64) ([]performance.Review, int, error) {
	f.listScope = scope
	return []performance.Review{f.review}, 1, nil
}

func (f *fakeService) Calculate(_ context.Context, userID int64, cycle string) (performance.CalculateResult, error) {
	if _, _, err := performance.ParseCycle(cycle); err != nil {
		return performance.CalculateResult{}, err
	}
	if userID != 3 {
		return performance.CalculateResult{}, performance.ErrUserNotFound
	}
	return performance.CalculateResult{
		Scores:   performance.Scores{ExamScore: 80, KPIScore: 80, DailyLogScore: 0, FinalScore: 64},
		ReviewID: 7,
		Created:  true,
	}, nil
}

func (f *fakeService) Review(_ context.Context, id int64, update performance.ReviewUpdate, _ int64) (performance.Review, performance.Review, error) {
	if id != f.review.ID {
		return performance.Review{}, performance.Review{}, performance.ErrReviewNotFound
	}
	before := f.review
	if update.ManagerComment.Valid {
		f.review.ManagerComment = update.ManagerComment
	}
	if update.Status.Valid {
		f.review.Status = update.Status.String
	}
	return before, f.review, nil
}

func (f *fakeService) ExportXLSX(_ context.Context, _ auth.Scope, cycle string, w io.Writer) error {
	if _, _, err := performance.ParseCycle(cycle); err != nil {
		return err
	}
	_, err := w.Write([]byte("PK"))
	return err
}

type contextScopes struct{}

func (contextScopes) Resolve(_ context.Context, user auth.UserContext) (auth.Scope, error) {
	if user.UserID == deactivated.UserID {
		return auth.Scope{}, auth.ErrInactiveUser
	}
	return auth.Scope{UserID: user.UserID, Role: user.Role}, nil
}

type recorder struct {
	entries []audit.Entry
}

func (r *recorder) Record(_ context.Context, entry audit.Entry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func newRouter(svc Service, rec audit.Recorder) http.Handler {
	h := NewHandler(svc, contextScopes{}, rec, auth.StaticPermissions{})
	r := chi.NewRouter()
	h.RegisterListRoutes(r)
	h.RegisterRoutes(r)
	return r
}

func send(h http.Handler, user *auth.UserContext, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if user != nil {
		req = req.WithContext(middleware.WithUser(req.Context(), *user))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

var (
	manager  = &auth.UserContext{UserID: 2, Role: auth.RoleManager}
	employee = &auth.UserContext{UserID: 3, Role: auth.RoleEmployee}
	// A token that outlived its account.
	deactivated = &auth.UserContext{UserID: 9, Role: auth.RoleEmployee}
)

func newFake() *fakeService {
	return &fakeService{review: performance.Review{ID: 7, UserID: 3, Cycle: "2024-06", Status: performance.StatusDraft}}
}

func TestAnonymousListIsUnscoped(t *testing.T) {
	svc := newFake()
	rec := send(newRouter(svc, &recorder{}), nil, http.MethodGet, "/performance?cycle=2024-06", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.listScope.Unscoped)
}

func TestListUsesCallerScope(t *testing.T) {
	svc := newFake()
	rec := send(newRouter(svc, &recorder{}), employee, http.MethodGet, "/performance", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, svc.listScope.Unscoped)
	assert.Equal(t, int64(3), svc.listScope.UserID)
}

func TestCalculate(t *testing.T) {
	h := newRouter(newFake(), &recorder{})

	rec := send(h, manager, http.MethodPost, "/performance/calculate", `{"user_id":3,"cycle":"2024-06"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, float64(64), data["final_score"])
	assert.Equal(t, float64(7), data["review_id"])

	rec = send(h, manager, http.MethodPost, "/performance/calculate", `{"user_id":3,"cycle":"2024-13"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_cycle", decode(t, rec)["error"].(map[string]any)["code"])

	rec = send(h, manager, http.MethodPost, "/performance/calculate", `{"user_id":99,"cycle":"2024-06"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = send(h, employee, http.MethodPost, "/performance/calculate", `{"user_id":3,"cycle":"2024-06"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBatchIsAdminOnly(t *testing.T) {
	rec := send(newRouter(newFake(), &recorder{}), manager, http.MethodPost, "/performance/calculate-batch", `{"cycle":"2024-06"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestReviewRecordsAudit(t *testing.T) {
	audits := &recorder{}
	h := newRouter(newFake(), audits)

	rec := send(h, manager, http.MethodPut, "/performance/7", `{"status":"archived"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = send(h, manager, http.MethodPut, "/performance/7", `{"manager_comment":"solid quarter","status":"completed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, audits.entries, 1)
	entry := audits.entries[0]
	assert.Equal(t, audit.ActionReviewUpdate, entry.Action)
	assert.Equal(t, "7", entry.EntityID)
	assert.Equal(t, performance.StatusDraft, entry.Before.(map[string]any)["status"])
	assert.Equal(t, null.StringFrom("solid quarter"), entry.After.(map[string]any)["manager_comment"])

	rec = send(h, manager, http.MethodPut, "/performance/8", `{"status":"completed"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Len(t, audits.entries, 1)
}

func TestExportServesWorkbook(t *testing.T) {
	h := newRouter(newFake(), &recorder{})

	rec := send(h, manager, http.MethodGet, "/performance/export?cycle=2024-06", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "performance-2024-06.xlsx")
	assert.Equal(t, "PK", rec.Body.String())

	rec = send(h, manager, http.MethodGet, "/performance/export", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMyReviewsUseResolvedCaller(t *testing.T) {
	svc := newFake()
	rec := send(newRouter(svc, &recorder{}), employee, http.MethodGet, "/performance/my", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(3), svc.myUserID)
}

func TestMyReviewsRejectDeactivatedUser(t *testing.T) {
	svc := newFake()
	rec := send(newRouter(svc, &recorder{}), deactivated, http.MethodGet, "/performance/my", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, svc.myUserID)
}
