package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfhub/internal/app/server"
	"perfhub/internal/platform/config"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	return config.Config{
		DatabaseURL:             dbURL,
		JWTSecret:               "test-secret",
		JWTTTL:                  time.Hour,
		DataEncryptionKey:       "0123456789abcdef0123456789abcdef",
		Environment:             "test",
		SeedAdminUsername:       "admin",
		SeedAdminPassword:       "admin123",
		RunMigrations:           true,
		RunSeed:                 true,
		MaxBodyBytes:            1048576,
		RateLimitPerMinute:      1000,
		PerformanceListAuth:     config.PerformanceListAuthRequired,
		FeishuRequestsPerSecond: 5,
		FeishuTimeout:           5 * time.Second,
	}
}

func startApp(t *testing.T, cfg config.Config) *httptest.Server {
	t.Helper()
	app, err := server.New(context.Background(), cfg)
	require.NoError(t, err, "start app")
	t.Cleanup(app.Close)

	ts := httptest.NewServer(app.Router)
	t.Cleanup(ts.Close)
	return ts
}

func TestExamAndPerformanceJourney(t *testing.T) {
	cfg := testConfig(t)
	ts := startApp(t, cfg)
	client := ts.Client()

	adminToken := login(t, client, ts.URL, cfg.SeedAdminUsername, cfg.SeedAdminPassword)

	username := fmt.Sprintf("journey_%d", time.Now().UnixNano()%1_000_000_000)
	var registered struct {
		ID int64 `json:"id"`
	}
	status := doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/auth/register", "", map[string]any{
		"username": username,
		"password": "secret123",
		"email":    username + "@example.com",
	}, &registered)
	require.Equal(t, http.StatusCreated, status)
	require.NotZero(t, registered.ID)
	employeeToken := login(t, client, ts.URL, username, "secret123")

	var question struct {
		ID int64 `json:"id"`
	}
	status = doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/questions", adminToken, map[string]any{
		"type":           "judge",
		"content":        "Journey: the sky is blue",
		"correct_answer": []string{"true"},
		"category":       "journey",
	}, &question)
	require.Equal(t, http.StatusCreated, status)

	now := time.Now().UTC()
	var exam struct {
		ID int64 `json:"id"`
	}
	status = doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/exams", adminToken, map[string]any{
		"title":            "Journey exam",
		"start_time":       now.Add(-time.Hour).Format(time.RFC3339),
		"end_time":         now.Add(time.Hour).Format(time.RFC3339),
		"duration_minutes": 30,
		"question_count":   1,
		"total_score":      100,
		"status":           "active",
	}, &exam)
	require.Equal(t, http.StatusCreated, status)

	// Employees cannot author exams.
	status = doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/exams", employeeToken, map[string]any{
		"title":      "nope",
		"start_time": now.Format(time.RFC3339),
		"end_time":   now.Add(time.Hour).Format(time.RFC3339),
	}, nil)
	assert.Equal(t, http.StatusForbidden, status)

	examURL := ts.URL + "/api/v1/exams/" + strconv.FormatInt(exam.ID, 10)
	var paper struct {
		Questions []struct {
			ID   int64  `json:"id"`
			Type string `json:"type"`
		} `json:"questions"`
		RecordID int64 `json:"record_id"`
	}
	status = doJSON(t, client, http.MethodGet, examURL+"/questions", employeeToken, nil, &paper)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, paper.Questions, 1)

	// A second fetch returns the same pinned question set.
	var again struct {
		Questions []struct {
			ID int64 `json:"id"`
		} `json:"questions"`
		RecordID int64 `json:"record_id"`
	}
	status = doJSON(t, client, http.MethodGet, examURL+"/questions", employeeToken, nil, &again)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, paper.RecordID, again.RecordID)
	assert.Equal(t, paper.Questions[0].ID, again.Questions[0].ID)

	answers := map[string][]string{}
	if paper.Questions[0].ID == question.ID {
		answers[strconv.FormatInt(question.ID, 10)] = []string{"true"}
	}
	var result struct {
		Score      float64 `json:"score"`
		TotalCount int     `json:"total_count"`
	}
	status = doJSON(t, client, http.MethodPost, examURL+"/submit", employeeToken, map[string]any{"answers": answers}, &result)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, result.TotalCount)
	if paper.Questions[0].ID == question.ID {
		assert.InDelta(t, 100, result.Score, 0.001)
	}

	status = doJSON(t, client, http.MethodPost, examURL+"/submit", employeeToken, map[string]any{"answers": answers}, nil)
	assert.Equal(t, http.StatusConflict, status)

	cycle := now.Format("2006-01")
	status = doJSON(t, client, http.MethodPost, ts.URL+"/api/v1/performance/calculate", adminToken, map[string]any{
		"user_id": registered.ID,
		"cycle":   cycle,
	}, nil)
	require.Equal(t, http.StatusOK, status)

	var reviews []struct {
		UserID int64  `json:"user_id"`
		Cycle  string `json:"cycle"`
	}
	status = doJSON(t, client, http.MethodGet, ts.URL+"/api/v1/performance/my?cycle="+cycle, employeeToken, nil, &reviews)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, reviews)
	assert.Equal(t, registered.ID, reviews[0].UserID)

	// The list requires a caller under the default configuration.
	status = doJSON(t, client, http.MethodGet, ts.URL+"/api/v1/performance", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// Unversioned prefix serves the same routes.
	status = doJSON(t, client, http.MethodGet, ts.URL+"/api/auth/me", employeeToken, nil, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestValidationErrorsSurfaceFieldCodes(t *testing.T) {
	cfg := testConfig(t)
	ts := startApp(t, cfg)
	client := ts.Client()
	adminToken := login(t, client, ts.URL, cfg.SeedAdminUsername, cfg.SeedAdminPassword)

	tests := []struct {
		name string
		path string
		body any
		code string
	}{
		{"short username", "/api/v1/auth/register", map[string]any{"username": "ab", "password": "secret123"}, "validation_error"},
		{"unknown question type", "/api/v1/questions", map[string]any{"type": "essay", "content": "x", "correct_answer": []string{"A"}}, "validation_error"},
		{"bad cycle", "/api/v1/performance/calculate", map[string]any{"user_id": 1, "cycle": "2026-13"}, "invalid_cycle"},
		{"missing department name", "/api/v1/departments", map[string]any{"name": ""}, "validation_error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw, status := rawRequest(t, client, http.MethodPost, ts.URL+tc.path, adminToken, tc.body)
			assert.Equal(t, http.StatusBadRequest, status)
			var env envelope
			require.NoError(t, json.Unmarshal(raw, &env))
			require.NotNil(t, env.Error)
			assert.Equal(t, tc.code, env.Error.Code)
		})
	}
}

func login(t *testing.T, client *http.Client, baseURL, username, password string) string {
	t.Helper()
	var out struct {
		Token string `json:"token"`
	}
	status := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	}, &out)
	require.Equal(t, http.StatusOK, status, "login %s", username)
	require.NotEmpty(t, out.Token)
	return out.Token
}

// doJSON sends body as JSON and decodes the envelope's data into out when the
// call succeeded.
func doJSON(t *testing.T, client *http.Client, method, url, token string, body, out any) int {
	t.Helper()
	raw, status := rawRequest(t, client, method, url, token, body)
	if out == nil || status >= http.StatusBadRequest {
		return status
	}
	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env), "decode %s %s", method, url)
	require.NoError(t, json.Unmarshal(env.Data, out), "decode data %s %s", method, url)
	return status
}

func rawRequest(t *testing.T, client *http.Client, method, url, token string, body any) ([]byte, int) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return buf.Bytes(), resp.StatusCode
}
