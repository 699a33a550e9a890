// Package configcache fronts the expensive chat-based configuration read
// with a two-tier cache: a distributed store shared across replicas and an
// in-process fallback slot that serves reads when the distributed backend
// is unreachable. Any patch attempt invalidates both tiers.
package configcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ayush-that/clawboard/internal/cache"
	"github.com/ayush-that/clawboard/internal/domain"
)

const (
	// configKey is the fixed distributed-cache key. Tenant isolation is a
	// deployment concern (separate backends or the store's key prefix).
	configKey = "openclaw:config"

	// DefaultTTL bounds both tiers. The chat-based read behind a miss costs
	// a full model round trip, so this is deliberately generous.
	DefaultTTL = 120 * time.Second
)

// ConfigProtocol is the chat-based configuration surface of the gateway.
type ConfigProtocol interface {
	FetchConfig(ctx context.Context, settings domain.GatewaySettings) (map[string]any, error)
	ApplyConfigPatch(ctx context.Context, settings domain.GatewaySettings, patch map[string]any) error
}

// ReadRecorder counts cache reads by outcome: "hit", "fallback", "rebuild".
type ReadRecorder interface {
	RecordConfigCacheRead(outcome string)
}

// ConfigCache is the two-tier cache. Concurrent misses may each perform a
// redundant chat round trip and overwrite the tiers with an equivalent
// snapshot; that thundering herd is accepted, not prevented.
type ConfigCache struct {
	store    cache.Store
	proto    ConfigProtocol
	logger   *slog.Logger
	ttl      time.Duration
	recorder ReadRecorder

	mu         sync.Mutex
	fallback   *domain.OpenClawConfig
	fallbackAt time.Time
}

// New creates a ConfigCache. A ttl of zero selects DefaultTTL.
func New(store cache.Store, proto ConfigProtocol, logger *slog.Logger, ttl time.Duration) *ConfigCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ConfigCache{store: store, proto: proto, logger: logger, ttl: ttl}
}

// WithRecorder attaches a metrics recorder for read outcomes.
func (c *ConfigCache) WithRecorder(r ReadRecorder) *ConfigCache {
	c.recorder = r
	return c
}

// Get returns the configuration snapshot, in order of preference: the
// distributed tier, the in-process fallback (only when the distributed
// backend errored, and only within the TTL), or a fresh chat-based read.
func (c *ConfigCache) Get(ctx context.Context, settings domain.GatewaySettings) (*domain.OpenClawConfig, error) {
	value, err := c.store.Get(ctx, configKey)
	if err == nil {
		var cfg domain.OpenClawConfig
		if jsonErr := json.Unmarshal(value, &cfg); jsonErr == nil {
			c.setFallback(&cfg)
			c.recordRead("hit")
			return &cfg, nil
		}
		// Corrupt entry: treat as a miss and rebuild.
		c.logger.WarnContext(ctx, "discarding corrupt cached config")
	} else if !errors.Is(err, cache.ErrMiss) {
		// Backend failure, not a miss: the fallback slot may still serve.
		if cfg := c.freshFallback(); cfg != nil {
			c.logger.DebugContext(ctx, "serving config from in-process fallback",
				slog.String("cause", err.Error()))
			c.recordRead("fallback")
			return cfg, nil
		}
		c.logger.WarnContext(ctx, "distributed cache unavailable and no usable fallback",
			slog.String("error", err.Error()))
	}

	return c.rebuild(ctx, settings)
}

// Patch applies a configuration patch through the chat protocol and
// unconditionally invalidates both tiers — even when the patch call itself
// failed, since the gateway's state after a failed attempt is unknown.
// hash is the caller's optimistic-concurrency token; the chat-based
// protocol has no way to transmit it, so it is currently accepted and
// ignored (see DESIGN.md).
func (c *ConfigCache) Patch(ctx context.Context, settings domain.GatewaySettings, patch map[string]any, hash string) error {
	_ = hash

	patchErr := c.proto.ApplyConfigPatch(ctx, settings, patch)
	c.Invalidate(ctx)
	if patchErr != nil {
		return fmt.Errorf("applying config patch: %w", patchErr)
	}
	return nil
}

// Invalidate clears both tiers so the next read recomputes.
func (c *ConfigCache) Invalidate(ctx context.Context) {
	c.mu.Lock()
	c.fallback = nil
	c.fallbackAt = time.Time{}
	c.mu.Unlock()

	if err := c.store.Delete(ctx, configKey); err != nil {
		c.logger.WarnContext(ctx, "invalidating distributed config cache failed",
			slog.String("error", err.Error()))
	}
}

// rebuild performs the expensive chat-based read and writes through both
// tiers. The distributed write is best effort; its failure never fails the
// read.
func (c *ConfigCache) rebuild(ctx context.Context, settings domain.GatewaySettings) (*domain.OpenClawConfig, error) {
	c.recordRead("rebuild")
	raw, err := c.proto.FetchConfig(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("fetching config: %w", err)
	}

	cfg, err := buildConfig(raw)
	if err != nil {
		return nil, err
	}

	c.setFallback(cfg)

	if value, err := json.Marshal(cfg); err == nil {
		if err := c.store.Set(ctx, configKey, value, c.ttl); err != nil {
			c.logger.WarnContext(ctx, "distributed config cache write failed",
				slog.String("error", err.Error()))
		}
	}
	return cfg, nil
}

func (c *ConfigCache) recordRead(outcome string) {
	if c.recorder != nil {
		c.recorder.RecordConfigCacheRead(outcome)
	}
}

func (c *ConfigCache) setFallback(cfg *domain.OpenClawConfig) {
	c.mu.Lock()
	c.fallback = cfg
	c.fallbackAt = time.Now()
	c.mu.Unlock()
}

// freshFallback returns the in-process snapshot if it is younger than the
// TTL, else nil.
func (c *ConfigCache) freshFallback() *domain.OpenClawConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fallback == nil || time.Since(c.fallbackAt) > c.ttl {
		return nil
	}
	return c.fallback
}

// buildConfig assembles an internally consistent snapshot: the typed
// projections and Raw describe the same parsed object, and Hash versions it.
func buildConfig(raw map[string]any) (*domain.OpenClawConfig, error) {
	rawText, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("serializing config: %w", err)
	}

	cfg := &domain.OpenClawConfig{
		Agent:    section(raw, "agent", "agents"),
		Gateway:  section(raw, "gateway"),
		Channels: section(raw, "channels"),
		Raw:      string(rawText),
		Hash:     configHash(raw, rawText),
	}
	return cfg, nil
}

func section(raw map[string]any, names ...string) map[string]any {
	for _, name := range names {
		if m, ok := raw[name].(map[string]any); ok {
			return m
		}
	}
	return nil
}

// configHash derives the opaque version token: the gateway's own
// last-modified marker when present, else a digest of the raw text.
func configHash(raw map[string]any, rawText []byte) string {
	if v, ok := raw["lastModified"]; ok {
		return fmt.Sprintf("%v", v)
	}
	sum := sha256.Sum256(rawText)
	return hex.EncodeToString(sum[:16])
}
