package audithandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aarondl/null/v8"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfhub/internal/domain/audit"
	"perfhub/internal/domain/auth"
	"perfhub/internal/platform/jobs"
	"perfhub/internal/transport/http/middleware"
)

type fakeLister struct {
	filter  audit.Filter
	details bool
	limit   uint64
	offset  uint64
}

func (f *fakeLister) List(_ context.Context, filter audit.Filter, includeDetails bool, limit, offset uint64) ([]audit.Event, int, error) {
	f.filter, f.details, f.limit, f.offset = filter, includeDetails, limit, offset
	return []audit.Event{{ID: 1, Action: audit.ActionUserDelete}}, 1, nil
}

type fakeJobs struct {
	filter jobs.RunFilter
	calls  int
}

func (f *fakeJobs) List(_ context.Context, filter jobs.RunFilter, _, _ uint64) ([]jobs.Run, int, error) {
	f.filter = filter
	f.calls++
	return []jobs.Run{{ID: 7, JobType: jobs.JobReportSync, Status: "completed"}}, 1, nil
}

func TestListEventsPassesFilter(t *testing.T) {
	lister := &fakeLister{}
	r := chi.NewRouter()
	NewHandler(lister, &fakeJobs{}, auth.StaticPermissions{}).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/audit/events?action=user.delete&actor_user_id=1&include_details=true&page=2&pageSize=10", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: 1, Role: auth.RoleAdmin}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, null.StringFrom(audit.ActionUserDelete), lister.filter.Action)
	assert.Equal(t, null.Int64From(1), lister.filter.ActorUserID)
	assert.False(t, lister.filter.EntityType.Valid)
	assert.True(t, lister.details)
	assert.Equal(t, uint64(10), lister.limit)
	assert.Equal(t, uint64(10), lister.offset)
}

func TestListEventsIsAdminOnly(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(&fakeLister{}, &fakeJobs{}, auth.StaticPermissions{}).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/audit/events", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: 2, Role: auth.RoleManager}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListJobsParsesFilter(t *testing.T) {
	jobRuns := &fakeJobs{}
	r := chi.NewRouter()
	NewHandler(&fakeLister{}, jobRuns, auth.StaticPermissions{}).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/audit/jobs?job_type=feishu_sync&started_from=2026-03-01T00:00:00Z", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: 1, Role: auth.RoleAdmin}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, null.StringFrom(jobs.JobReportSync), jobRuns.filter.JobType)
	require.True(t, jobRuns.filter.StartedFrom.Valid)
	assert.Equal(t, 2026, jobRuns.filter.StartedFrom.Time.Year())
	assert.False(t, jobRuns.filter.StartedTo.Valid)
}

func TestListJobsRejectsBadTimestamp(t *testing.T) {
	jobRuns := &fakeJobs{}
	r := chi.NewRouter()
	NewHandler(&fakeLister{}, jobRuns, auth.StaticPermissions{}).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/audit/jobs?started_to=yesterday", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: 1, Role: auth.RoleAdmin}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_started_to")
	assert.Zero(t, jobRuns.calls)
}
