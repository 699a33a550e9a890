package observability

import (
	"context"
	"log/slog"
	"time"
)

const healthCheckTimeout = 3 * time.Second

// HealthChecker aggregates readiness from registered dependency checks
// (gateway reachability, cache backend).
type HealthChecker struct {
	checks map[string]func(ctx context.Context) error
	logger *slog.Logger
}

// HealthStatus is the JSON response for health and readiness endpoints.
type HealthStatus struct {
	Status string            `json:"status"` // "ok" or "degraded"
	Checks map[string]string `json:"checks,omitempty"`
}

// NewHealthChecker creates a HealthChecker with no checks registered.
func NewHealthChecker(logger *slog.Logger) *HealthChecker {
	return &HealthChecker{checks: make(map[string]func(ctx context.Context) error), logger: logger}
}

// AddCheck registers a named readiness check.
func (h *HealthChecker) AddCheck(name string, check func(ctx context.Context) error) {
	h.checks[name] = check
}

// Liveness always reports ok while the process runs.
func (h *HealthChecker) Liveness() HealthStatus {
	return HealthStatus{Status: "ok"}
}

// Readiness runs every registered check. The status is "ok" only when all
// checks pass; individual results are reported by name.
func (h *HealthChecker) Readiness(ctx context.Context) HealthStatus {
	status := HealthStatus{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	if len(h.checks) == 0 {
		return status
	}

	checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	for name, check := range h.checks {
		if err := check(checkCtx); err != nil {
			status.Status = "degraded"
			status.Checks[name] = err.Error()
			if h.logger != nil {
				h.logger.Warn("readiness check failed",
					slog.String("check", name),
					slog.String("error", err.Error()),
				)
			}
		} else {
			status.Checks[name] = "ok"
		}
	}
	return status
}
