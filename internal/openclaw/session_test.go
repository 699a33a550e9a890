package openclaw

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestPrimaryKey_DiscoverOnce(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		io.WriteString(w, `{"ok":true,"result":{"details":{"sessions":[{"key":"a","model":"claude","totalTokens":42}]}}}`)
	}))
	defer srv.Close()

	resolver := NewSessionResolver(NewClient(discardLogger(), WithPrivateTargets()), discardLogger())
	settings := testSettings(srv.URL)

	key, err := resolver.PrimaryKey(context.Background(), settings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "a" {
		t.Errorf("expected key a, got %q", key)
	}

	// A second call must not issue another sessions_list.
	key, err = resolver.PrimaryKey(context.Background(), settings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "a" {
		t.Errorf("expected cached key a, got %q", key)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 gateway call, got %d", got)
	}
}

func TestPrimaryKey_FallbackNotCached(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		io.WriteString(w, `{"ok":true,"result":{"details":{"sessions":[]}}}`)
	}))
	defer srv.Close()

	resolver := NewSessionResolver(NewClient(discardLogger(), WithPrivateTargets()), discardLogger())
	settings := testSettings(srv.URL)

	for i := 0; i < 2; i++ {
		key, err := resolver.PrimaryKey(context.Background(), settings)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if key != FallbackSessionKey {
			t.Errorf("expected fallback key, got %q", key)
		}
	}
	// The fallback is not cached, so discovery repeats.
	if got := calls.Load(); got != 2 {
		t.Errorf("expected 2 gateway calls, got %d", got)
	}
}

func TestPrimaryKey_Invalidate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"ok":true,"result":{"details":[{"key":"b"}]}}`)
	}))
	defer srv.Close()

	resolver := NewSessionResolver(NewClient(discardLogger(), WithPrivateTargets()), discardLogger())
	settings := testSettings(srv.URL)

	key, err := resolver.PrimaryKey(context.Background(), settings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "b" {
		t.Errorf("expected key b (bare-array shape), got %q", key)
	}

	resolver.Invalidate()
	if _, err := resolver.PrimaryKey(context.Background(), settings); err != nil {
		t.Fatalf("unexpected error after invalidate: %v", err)
	}
}

func TestListSessions_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(discardLogger(), WithPrivateTargets())
	if _, err := client.ListSessions(context.Background(), testSettings(srv.URL)); err == nil {
		t.Fatal("expected error")
	}
}
