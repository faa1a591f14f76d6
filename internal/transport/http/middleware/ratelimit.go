package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"perfhub/internal/platform/requestctx"
	"perfhub/internal/transport/http/api"
)

// KeyFunc picks the bucket a request draws from.
type KeyFunc func(r *http.Request) string

type RateLimitOption func(*buckets)

type bucket struct {
	limiter *rate.Limiter
	touched time.Time
}

// buckets holds one token bucket per key. Each bucket has burst capacity
// limit and refills at limit tokens per window.
type buckets struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	key    KeyFunc
	byKey  map[string]*bucket
}

// Idle buckets are only swept once the map grows past this.
const bucketSweepThreshold = 10000

func WithKeyFunc(fn KeyFunc) RateLimitOption {
	return func(b *buckets) {
		if fn != nil {
			b.key = fn
		}
	}
}

// RateLimit is the general per-caller budget: authenticated callers by user
// id, everyone else by client address.
func RateLimit(limit int, window time.Duration, opts ...RateLimitOption) func(http.Handler) http.Handler {
	b := newBuckets(limit, window, ByActor)
	for _, opt := range opts {
		opt(b)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if b.allow(w, r) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// SensitiveMutationRateLimit layers tighter budgets over credential routes
// (per address and per submitted username) and over expensive operations
// such as batch calculation, report sync and exam submission (per actor).
func SensitiveMutationRateLimit(baseLimit int, window time.Duration) func(http.Handler) http.Handler {
	credentialLimit := max(baseLimit/4, 1)
	credentialByIP := newBuckets(credentialLimit, window, ByClientIP)
	credentialByName := newBuckets(credentialLimit, window, ByJSONField("username"))
	expensive := newBuckets(max(baseLimit/2, 1), window, ByActor)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch classifyRoute(r) {
			case routeCredential:
				if !credentialByIP.allow(w, r) || !credentialByName.allow(w, r) {
					return
				}
			case routeExpensive:
				if !expensive.allow(w, r) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func ByActor(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.UserID > 0 {
		return "user:" + strconv.FormatInt(user.UserID, 10)
	}
	return ByClientIP(r)
}

func ByClientIP(r *http.Request) string {
	if ip := requestctx.GetClientIP(r.Context()); ip != "" {
		return "ip:" + ip
	}
	return "ip:" + remoteIP(r)
}

// ByJSONField keys on a top-level string field of a JSON body, falling back
// to the client address. The body is restored for the handler.
func ByJSONField(field string) KeyFunc {
	return func(r *http.Request) string {
		if value := peekJSONField(r, field); value != "" {
			return field + ":" + strings.ToLower(value)
		}
		return ByClientIP(r)
	}
}

func newBuckets(limit int, window time.Duration, key KeyFunc) *buckets {
	return &buckets{limit: limit, window: window, key: key, byKey: map[string]*bucket{}}
}

func (b *buckets) get(key string, now time.Time) *rate.Limiter {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.byKey) >= bucketSweepThreshold {
		for k, entry := range b.byKey {
			if now.Sub(entry.touched) > b.window {
				delete(b.byKey, k)
			}
		}
	}
	entry, ok := b.byKey[key]
	if !ok {
		entry = &bucket{limiter: rate.NewLimiter(rate.Every(b.window/time.Duration(b.limit)), b.limit)}
		b.byKey[key] = entry
	}
	entry.touched = now
	return entry.limiter
}

// allow takes one token for the request or answers 429 and reports false.
func (b *buckets) allow(w http.ResponseWriter, r *http.Request) bool {
	if b.limit <= 0 || b.window <= 0 {
		return true
	}
	key := b.key(r)
	now := time.Now()
	limiter := b.get(key, now)

	reservation := limiter.ReserveN(now, 1)
	wait := reservation.DelayFrom(now)
	if wait > 0 {
		reservation.CancelAt(now)
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(b.limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(int(math.Floor(limiter.TokensAt(now))), 0)))
	if wait <= 0 {
		return true
	}

	retryAfter := strconv.Itoa(max(int(math.Ceil(wait.Seconds())), 1))
	w.Header().Set("X-RateLimit-Reset", retryAfter)
	w.Header().Set("Retry-After", retryAfter)
	slog.Warn("rate limited", "key", key, "method", r.Method, "path", r.URL.Path, "limit", b.limit)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

func peekJSONField(r *http.Request, field string) string {
	if r.Body == nil || !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var fields map[string]json.RawMessage
	if json.Unmarshal(raw, &fields) != nil {
		return ""
	}
	var value string
	if json.Unmarshal(fields[field], &value) != nil {
		return ""
	}
	return strings.TrimSpace(value)
}

type routeClass int

const (
	routeGeneral routeClass = iota
	routeCredential
	routeExpensive
)

var sensitiveRoutes = map[string]routeClass{
	"/auth/login":                  routeCredential,
	"/auth/register":               routeCredential,
	"/auth/password":               routeCredential,
	"/performance/calculate-batch": routeExpensive,
	"/feishu/sync":                 routeExpensive,
	"/feishu/test":                 routeExpensive,
}

func classifyRoute(r *http.Request) routeClass {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return routeGeneral
	}
	path := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/api/v1"), "/api")
	if class, ok := sensitiveRoutes[path]; ok {
		return class
	}
	if strings.HasPrefix(path, "/exams/") && strings.HasSuffix(path, "/submit") {
		return routeExpensive
	}
	return routeGeneral
}
