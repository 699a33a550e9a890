package httpapi

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ayush-that/clawboard/internal/domain"
)

func testServer() *Server {
	cfg := Config{
		APIKeys:        map[string]string{"sk-live": "alice"},
		DefaultGateway: domain.GatewaySettings{URL: "https://gw.example.com", Token: "default-token"},
	}
	return NewServer(cfg, nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSettingsFrom(t *testing.T) {
	s := testServer()

	r := httptest.NewRequest("GET", "/v1/sessions", nil)
	if got := s.settingsFrom(r); got.URL != "https://gw.example.com" || got.Token != "default-token" {
		t.Errorf("defaults not applied: %+v", got)
	}

	r = httptest.NewRequest("GET", "/v1/sessions", nil)
	r.Header.Set("X-OpenClaw-Url", "https://other.example.com")
	r.Header.Set("X-OpenClaw-Token", "other-token")
	if got := s.settingsFrom(r); got.URL != "https://other.example.com" || got.Token != "other-token" {
		t.Errorf("header override not applied: %+v", got)
	}

	// A URL override without a token must not leak the default token to a
	// different gateway.
	r = httptest.NewRequest("GET", "/v1/sessions", nil)
	r.Header.Set("X-OpenClaw-Url", "https://other.example.com")
	if got := s.settingsFrom(r); got.Token != "" {
		t.Errorf("default token leaked to overridden gateway: %+v", got)
	}

	// A token-only override keeps the default URL.
	r = httptest.NewRequest("GET", "/v1/sessions", nil)
	r.Header.Set("X-OpenClaw-Token", "rotated")
	if got := s.settingsFrom(r); got.URL != "https://gw.example.com" || got.Token != "rotated" {
		t.Errorf("token override not applied: %+v", got)
	}
}

func TestCheckAPIKey(t *testing.T) {
	s := testServer()

	r := httptest.NewRequest("GET", "/v1/logs/stream", nil)
	if s.checkAPIKey(r) {
		t.Error("missing header should not authenticate")
	}

	r.Header.Set("Authorization", "Bearer wrong")
	if s.checkAPIKey(r) {
		t.Error("wrong key should not authenticate")
	}

	r.Header.Set("Authorization", "Bearer sk-live")
	if !s.checkAPIKey(r) {
		t.Error("valid key should authenticate")
	}
}

func TestNewCorrelationID(t *testing.T) {
	a, b := newCorrelationID(), newCorrelationID()
	if a == "" || a == b {
		t.Errorf("correlation IDs %q, %q", a, b)
	}
}

func TestOpFailureStatus(t *testing.T) {
	local := domain.OpResult{Error: "invalid schedule"}
	if got := opFailureStatus(local); got != http.StatusBadRequest {
		t.Errorf("validation failure = %d, want %d", got, http.StatusBadRequest)
	}

	upstream := domain.OpResult{Error: "gateway down", Upstream: true}
	if got := opFailureStatus(upstream); got != http.StatusBadGateway {
		t.Errorf("upstream failure = %d, want %d", got, http.StatusBadGateway)
	}
}

func TestFreshLogEntries(t *testing.T) {
	base := time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC)
	window := []domain.LogEntry{
		{Level: "info", Message: "boot"}, // no timestamp
		{Level: "info", Message: "one", Timestamp: base},
		{Level: "warn", Message: "two", Timestamp: base.Add(time.Second)},
	}

	fresh, watermark := freshLogEntries(window, time.Time{}, true)
	if len(fresh) != 3 {
		t.Fatalf("initial window = %d entries, want 3", len(fresh))
	}
	if !watermark.Equal(base.Add(time.Second)) {
		t.Errorf("watermark = %v", watermark)
	}

	// The same window polled again must yield nothing: timestamped entries
	// fall behind the watermark and untimestamped ones only ship once.
	fresh, watermark = freshLogEntries(window, watermark, false)
	if len(fresh) != 0 {
		t.Errorf("repeat window = %+v, want empty", fresh)
	}

	window = append(window, domain.LogEntry{Level: "info", Message: "three", Timestamp: base.Add(2 * time.Second)})
	fresh, _ = freshLogEntries(window, watermark, false)
	if len(fresh) != 1 || fresh[0].Message != "three" {
		t.Errorf("new entries = %+v, want only the unseen line", fresh)
	}
}
