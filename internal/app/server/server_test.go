package server

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfhub/internal/platform/config"
	"perfhub/internal/platform/crypto"
	"perfhub/internal/platform/metrics"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

// routerWithoutDB assembles the full router over a nil pool. Nothing below
// touches the pool until a handler reaches a store.
func routerWithoutDB(t *testing.T, listAuth string) http.Handler {
	t.Helper()
	sealer, err := crypto.New("")
	require.NoError(t, err)
	app := &App{
		Config: config.Config{
			JWTSecret:               "router-test-secret",
			MaxBodyBytes:            1 << 20,
			RateLimitPerMinute:      1000,
			MetricsEnabled:          true,
			PerformanceListAuth:     listAuth,
			FeishuRequestsPerSecond: 5,
		},
		Metrics: metrics.New(),
	}
	return app.routes(sealer)
}

func TestRoutesRegisterUnderBothPrefixes(t *testing.T) {
	router := routerWithoutDB(t, config.PerformanceListAuthRequired)
	routes, ok := router.(chi.Routes)
	require.True(t, ok)

	seen := map[string]bool{}
	err := chi.Walk(routes, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+strings.TrimSuffix(route, "/")] = true
		return nil
	})
	require.NoError(t, err)

	for _, prefix := range []string{"/api/v1", "/api"} {
		for _, want := range []string{
			"POST " + prefix + "/auth/login",
			"GET " + prefix + "/auth/me",
			"GET " + prefix + "/users",
			"PUT " + prefix + "/users/{userID}/role",
			"GET " + prefix + "/departments/{departmentID}/users",
			"GET " + prefix + "/responsibilities/employee/{userID}",
			"GET " + prefix + "/questions/random/{count}",
			"GET " + prefix + "/exams/available",
			"GET " + prefix + "/exams/{examID}/questions",
			"POST " + prefix + "/exams/{examID}/submit",
			"GET " + prefix + "/exam-records/stats/my",
			"GET " + prefix + "/performance",
			"POST " + prefix + "/performance/calculate-batch",
			"GET " + prefix + "/performance/{reviewID}/report.pdf",
			"POST " + prefix + "/feishu/sync",
			"GET " + prefix + "/audit/jobs",
		} {
			assert.True(t, seen[want], want)
		}
	}
	assert.True(t, seen["GET /healthz"])
	assert.True(t, seen["GET /metrics"])
}

func TestRouterAnswersWithoutDB(t *testing.T) {
	tests := []struct {
		name     string
		listAuth string
		method   string
		path     string
		want     int
	}{
		{"health", config.PerformanceListAuthRequired, http.MethodGet, "/healthz", http.StatusOK},
		{"protected route", config.PerformanceListAuthRequired, http.MethodGet, "/api/v1/exams", http.StatusUnauthorized},
		{"unversioned alias", config.PerformanceListAuthRequired, http.MethodGet, "/api/exams", http.StatusUnauthorized},
		{"list requires login", config.PerformanceListAuthRequired, http.MethodGet, "/api/v1/performance", http.StatusUnauthorized},
		{"metrics requires login", config.PerformanceListAuthRequired, http.MethodGet, "/metrics", http.StatusUnauthorized},
		{"unknown route", config.PerformanceListAuthRequired, http.MethodGet, "/api/v1/nope", http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			routerWithoutDB(t, tc.listAuth).ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
			assert.Equal(t, tc.want, rec.Code)
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}
