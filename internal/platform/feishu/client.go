// Package feishu is a small client for the Feishu open platform endpoints
// used by daily-report sync: tenant token exchange and the contact directory.
package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://open.feishu.cn/open-apis"

// APIError is a response whose envelope carried a non-zero code.
type APIError struct {
	Status int
	Code   int
	Msg    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("feishu api error: status=%d code=%d msg=%s", e.Status, e.Code, e.Msg)
}

type Token struct {
	Value     string
	ExpiresIn time.Duration
}

type User struct {
	OpenID string `json:"open_id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

type UserPage struct {
	Items     []User
	HasMore   bool
	PageToken string
}

type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

func NewClient(baseURL string, timeout time.Duration, requestsPerSecond float64) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 5
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

func (c *Client) TenantAccessToken(ctx context.Context, appID, appSecret string) (Token, error) {
	var resp struct {
		Code              int    `json:"code"`
		Msg               string `json:"msg"`
		TenantAccessToken string `json:"tenant_access_token"`
		Expire            int    `json:"expire"`
	}
	body := map[string]string{"app_id": appID, "app_secret": appSecret}
	status, err := c.do(ctx, http.MethodPost, "/auth/v3/tenant_access_token/internal", "", body, &resp)
	if err != nil {
		return Token{}, err
	}
	if resp.Code != 0 || resp.TenantAccessToken == "" {
		return Token{}, &APIError{Status: status, Code: resp.Code, Msg: resp.Msg}
	}
	return Token{Value: resp.TenantAccessToken, ExpiresIn: time.Duration(resp.Expire) * time.Second}, nil
}

func (c *Client) ListUsers(ctx context.Context, token, pageToken string) (UserPage, error) {
	query := url.Values{}
	query.Set("page_size", "100")
	if pageToken != "" {
		query.Set("page_token", pageToken)
	}

	var resp struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
		Data struct {
			HasMore   bool   `json:"has_more"`
			PageToken string `json:"page_token"`
			Items     []User `json:"items"`
		} `json:"data"`
	}
	status, err := c.do(ctx, http.MethodGet, "/contact/v3/users?"+query.Encode(), token, nil, &resp)
	if err != nil {
		return UserPage{}, err
	}
	if resp.Code != 0 {
		return UserPage{}, &APIError{Status: status, Code: resp.Code, Msg: resp.Msg}
	}
	return UserPage{Items: resp.Data.Items, HasMore: resp.Data.HasMore, PageToken: resp.Data.PageToken}, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("feishu %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return res.StatusCode, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		if res.StatusCode >= 400 {
			return res.StatusCode, &APIError{Status: res.StatusCode, Code: -1, Msg: http.StatusText(res.StatusCode)}
		}
		return res.StatusCode, fmt.Errorf("decode feishu response: %w", err)
	}
	return res.StatusCode, nil
}
