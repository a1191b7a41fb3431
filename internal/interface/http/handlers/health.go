// Package handlers contains HTTP middleware, the JSON envelope and the
// health checker shared by the server's routes.
package handlers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH CHECKS
// ══════════════════════════════════════════════════════════════════════════════

// HealthCheckFunc performs a single check. A nil error means healthy.
type HealthCheckFunc func(ctx context.Context) error

// Pinger is anything that can be pinged: the Postgres pool, the Redis cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck adapts a Pinger to a HealthCheckFunc.
func PingCheck(p Pinger) HealthCheckFunc {
	return p.Ping
}

// CheckResult is the outcome of one named check.
type CheckResult struct {
	Healthy  bool   `json:"healthy"`
	Message  string `json:"message"`
	Duration string `json:"duration"`
}

// HealthReport aggregates all checks.
type HealthReport struct {
	Healthy   bool                   `json:"healthy"`
	Message   string                 `json:"message"`
	Checks    map[string]CheckResult `json:"checks"`
	Uptime    string                 `json:"uptime"`
	Version   string                 `json:"version,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// HealthChecker runs registered checks concurrently, each under its own
// timeout.
type HealthChecker struct {
	mu        sync.RWMutex
	checks    map[string]HealthCheckFunc
	startTime time.Time
	version   string
	timeout   time.Duration
}

// NewHealthChecker creates a checker with a 5s per-check timeout.
func NewHealthChecker(version string) *HealthChecker {
	return &HealthChecker{
		checks:    make(map[string]HealthCheckFunc),
		startTime: time.Now(),
		version:   version,
		timeout:   5 * time.Second,
	}
}

// SetTimeout sets the per-check timeout.
func (c *HealthChecker) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

// AddCheck registers a named check, replacing any previous one.
func (c *HealthChecker) AddCheck(name string, check HealthCheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Check runs every registered check and returns the report.
func (c *HealthChecker) Check(ctx context.Context) HealthReport {
	c.mu.RLock()
	checks := make(map[string]HealthCheckFunc, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	report := HealthReport{
		Healthy:   true,
		Checks:    make(map[string]CheckResult, len(checks)),
		Uptime:    time.Since(c.startTime).Round(time.Second).String(),
		Version:   c.version,
		Timestamp: time.Now().UTC(),
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for name, check := range checks {
		g.Go(func() error {
			checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			start := time.Now()
			err := check(checkCtx)
			result := CheckResult{
				Healthy:  err == nil,
				Message:  "OK",
				Duration: time.Since(start).Round(time.Millisecond).String(),
			}
			if err != nil {
				result.Message = err.Error()
			}

			mu.Lock()
			report.Checks[name] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	var failed []string
	for name, r := range report.Checks {
		if !r.Healthy {
			failed = append(failed, name)
		}
	}
	sort.Strings(failed)

	switch {
	case len(checks) == 0:
		report.Message = "No health checks registered"
	case len(failed) == 0:
		report.Message = "All checks passed"
	default:
		report.Healthy = false
		report.Message = "Some checks failed: " + strings.Join(failed, ", ")
	}
	return report
}
