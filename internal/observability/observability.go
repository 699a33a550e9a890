// Package observability provides Prometheus metrics, OpenTelemetry tracing,
// and health checks for Clawboard. All components are optional and nil-safe:
// when disabled, callers pay a single nil check per operation.
package observability

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ayush-that/clawboard/internal/config"
)

// Observability is the top-level facade holding all observability components.
// Any field may be nil when that feature is disabled.
type Observability struct {
	Metrics *MetricsCollector
	Tracer  *TracerSetup
	Health  *HealthChecker
}

// New creates an Observability instance from config.
// Returns nil when the config is nil (all features disabled).
func New(cfg *config.ObservabilityConfig, logger *slog.Logger) (*Observability, error) {
	if cfg == nil {
		return nil, nil
	}

	obs := &Observability{}

	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		obs.Metrics = NewMetricsCollector()
	}

	if cfg.Tracing != nil && cfg.Tracing.Enabled {
		ts, err := NewTracerSetup(cfg.Tracing)
		if err != nil {
			return nil, fmt.Errorf("initializing tracing: %w", err)
		}
		obs.Tracer = ts
	}

	// Health checker is always created; checks are registered by the caller.
	obs.Health = NewHealthChecker(logger)

	return obs, nil
}

// Shutdown releases observability resources.
func (o *Observability) Shutdown(ctx context.Context) {
	if o == nil {
		return
	}
	if o.Tracer != nil {
		_ = o.Tracer.Shutdown(ctx)
	}
}

// MetricsOrNil returns the metrics collector or nil when disabled.
func (o *Observability) MetricsOrNil() *MetricsCollector {
	if o == nil {
		return nil
	}
	return o.Metrics
}

// TracerOrNil returns the OTel tracer setup or nil if tracing is disabled.
func (o *Observability) TracerOrNil() *TracerSetup {
	if o == nil {
		return nil
	}
	return o.Tracer
}

// HealthOrNil returns the health checker or nil.
func (o *Observability) HealthOrNil() *HealthChecker {
	if o == nil {
		return nil
	}
	return o.Health
}
