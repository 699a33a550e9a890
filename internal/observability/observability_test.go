package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ayush-that/clawboard/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMetricsCollector_Records(t *testing.T) {
	m := NewMetricsCollector()

	m.RecordAdapterFailure("cron_list")
	m.RecordAdapterFailure("cron_list")
	if got := testutil.ToFloat64(m.AdapterFailuresTotal.WithLabelValues("cron_list")); got != 2 {
		t.Errorf("adapter failures = %v, want 2", got)
	}

	m.RecordConfigCacheRead("hit")
	if got := testutil.ToFloat64(m.ConfigCacheReadsTotal.WithLabelValues("hit")); got != 1 {
		t.Errorf("cache reads = %v, want 1", got)
	}

	m.RecordGatewayCall("invoke", "ok", 0.2)
	if got := testutil.ToFloat64(m.GatewayCallsTotal.WithLabelValues("invoke", "ok")); got != 1 {
		t.Errorf("gateway calls = %v, want 1", got)
	}
}

func TestMetricsCollector_NilSafe(t *testing.T) {
	var m *MetricsCollector
	m.RecordAdapterFailure("x")
	m.RecordConfigCacheRead("hit")
	m.RecordGatewayCall("chat", "error", 1)
}

func TestHealthChecker_Readiness(t *testing.T) {
	h := NewHealthChecker(discardLogger())
	h.AddCheck("cache", func(context.Context) error { return nil })
	h.AddCheck("gateway", func(context.Context) error { return errors.New("connection refused") })

	status := h.Readiness(context.Background())
	if status.Status != "degraded" {
		t.Errorf("status = %q, want degraded", status.Status)
	}
	if status.Checks["cache"] != "ok" {
		t.Errorf("cache check = %q", status.Checks["cache"])
	}
	if status.Checks["gateway"] == "ok" {
		t.Error("gateway check should report the failure")
	}
}

func TestNew_Disabled(t *testing.T) {
	obs, err := New(nil, discardLogger())
	if err != nil || obs != nil {
		t.Fatalf("New(nil) = %v, %v; want nil, nil", obs, err)
	}
	if obs.MetricsOrNil() != nil || obs.TracerOrNil() != nil || obs.HealthOrNil() != nil {
		t.Error("accessors on nil Observability should return nil")
	}
	obs.Shutdown(context.Background())
}

func TestNew_MetricsEnabled(t *testing.T) {
	cfg := &config.ObservabilityConfig{Metrics: &config.MetricsConfig{Enabled: true}}
	obs, err := New(cfg, discardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if obs.MetricsOrNil() == nil {
		t.Error("metrics should be enabled")
	}
	if obs.TracerOrNil() != nil {
		t.Error("tracing should stay disabled")
	}
	if obs.HealthOrNil() == nil {
		t.Error("health checker should always exist")
	}
}
