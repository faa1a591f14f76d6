package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Domain event names counted alongside request metrics.
const (
	EventExamStarted           = "exam_started"
	EventExamSubmitted         = "exam_submitted"
	EventPerformanceCalculated = "performance_calculated"
	EventReportSyncRun         = "report_sync_run"
	EventReportTokenRefreshed  = "report_token_refreshed"
	EventLoginFailed           = "login_failed"
)

type routeStats struct {
	count      uint64
	errors     uint64
	durationMs uint64
}

type Collector struct {
	totalRequests   atomic.Uint64
	errorRequests   atomic.Uint64
	rateLimited     atomic.Uint64
	totalDurationMs atomic.Uint64

	mu     sync.Mutex
	routes map[string]*routeStats
	events map[string]uint64
}

func New() *Collector {
	return &Collector{
		routes: map[string]*routeStats{},
		events: map[string]uint64{},
	}
}

// Record counts one finished request. route is the matched pattern, e.g.
// "GET /api/v1/exams/{id}", so ids do not explode the key space.
func (c *Collector) Record(route string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	ms := uint64(duration.Milliseconds())
	c.totalRequests.Add(1)
	c.totalDurationMs.Add(ms)
	if status >= 500 {
		c.errorRequests.Add(1)
	}
	if status == 429 {
		c.rateLimited.Add(1)
	}
	if route == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	stats, ok := c.routes[route]
	if !ok {
		stats = &routeStats{}
		c.routes[route] = stats
	}
	stats.count++
	stats.durationMs += ms
	if status >= 500 {
		stats.errors++
	}
}

func (c *Collector) Inc(event string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.events[event]++
	c.mu.Unlock()
}

type RouteSnapshot struct {
	Route         string  `json:"route"`
	Count         uint64  `json:"count"`
	Errors        uint64  `json:"errors"`
	AvgDurationMs float64 `json:"avgDurationMs"`
}

func (c *Collector) Snapshot() map[string]any {
	total := c.totalRequests.Load()
	totalMs := c.totalDurationMs.Load()
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}

	c.mu.Lock()
	routes := make([]RouteSnapshot, 0, len(c.routes))
	for route, stats := range c.routes {
		routes = append(routes, RouteSnapshot{
			Route:         route,
			Count:         stats.count,
			Errors:        stats.errors,
			AvgDurationMs: float64(stats.durationMs) / float64(stats.count),
		})
	}
	events := make(map[string]uint64, len(c.events))
	for name, count := range c.events {
		events[name] = count
	}
	c.mu.Unlock()

	sort.Slice(routes, func(i, j int) bool { return routes[i].Route < routes[j].Route })
	return map[string]any{
		"requestsTotal":    total,
		"errorsTotal":      c.errorRequests.Load(),
		"rateLimitedTotal": c.rateLimited.Load(),
		"avgDurationMs":    avg,
		"routes":           routes,
		"events":           events,
	}
}
