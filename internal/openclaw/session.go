package openclaw

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ayush-that/clawboard/internal/domain"
)

// FallbackSessionKey is returned when the gateway reports no sessions.
// It is never cached, so a later call can still discover a real session.
const FallbackSessionKey = "main"

// SessionResolver discovers the gateway's primary session key once and
// reuses it for the rest of the process lifetime. The cached key is derived
// deterministically from gateway state, so concurrent first calls may each
// perform the discovery request; last writer wins with an equivalent value.
type SessionResolver struct {
	client *Client
	logger *slog.Logger

	mu  sync.Mutex
	key string
}

// NewSessionResolver creates a resolver around the given client.
func NewSessionResolver(client *Client, logger *slog.Logger) *SessionResolver {
	return &SessionResolver{client: client, logger: logger}
}

// PrimaryKey returns the cached primary session key, discovering it via
// sessions_list on first use. A cached key is returned unconditionally —
// it is never re-validated against current gateway state.
func (r *SessionResolver) PrimaryKey(ctx context.Context, settings domain.GatewaySettings) (string, error) {
	r.mu.Lock()
	if r.key != "" {
		key := r.key
		r.mu.Unlock()
		return key, nil
	}
	r.mu.Unlock()

	sessions, err := r.client.ListSessions(ctx, settings)
	if err != nil {
		return "", fmt.Errorf("resolving primary session: %w", err)
	}
	if len(sessions) == 0 {
		r.logger.DebugContext(ctx, "gateway reported no sessions, using fallback key",
			slog.String("key", FallbackSessionKey))
		return FallbackSessionKey, nil
	}

	key := sessions[0].Key
	r.mu.Lock()
	r.key = key
	r.mu.Unlock()

	r.logger.DebugContext(ctx, "primary session resolved", slog.String("key", key))
	return key, nil
}

// Invalidate clears the cached key so the next call re-discovers it.
func (r *SessionResolver) Invalidate() {
	r.mu.Lock()
	r.key = ""
	r.mu.Unlock()
}

// ListSessions invokes sessions_list and decodes the session records.
func (c *Client) ListSessions(ctx context.Context, settings domain.GatewaySettings) ([]domain.SessionInfo, error) {
	details, err := c.InvokeTool(ctx, settings, "sessions_list", nil, "")
	if err != nil {
		return nil, err
	}
	return decodeSessionList(details)
}

// decodeSessionList accepts either {"sessions": [...]} or a bare array —
// both shapes exist across gateway versions.
func decodeSessionList(details json.RawMessage) ([]domain.SessionInfo, error) {
	var wrapped struct {
		Sessions []sessionRecord `json:"sessions"`
	}
	if err := json.Unmarshal(details, &wrapped); err == nil && wrapped.Sessions != nil {
		return toSessionInfos(wrapped.Sessions), nil
	}

	var bare []sessionRecord
	if err := json.Unmarshal(details, &bare); err != nil {
		return nil, fmt.Errorf("decoding sessions_list details: %w", err)
	}
	return toSessionInfos(bare), nil
}

func toSessionInfos(records []sessionRecord) []domain.SessionInfo {
	sessions := make([]domain.SessionInfo, 0, len(records))
	for _, rec := range records {
		sessions = append(sessions, domain.SessionInfo{
			Key:           rec.Key,
			Channel:       rec.Channel,
			Model:         rec.Model,
			ContextTokens: rec.ContextTokens,
			TotalTokens:   rec.TotalTokens,
			UpdatedAt:     unixMillis(rec.UpdatedAt),
		})
	}
	return sessions
}

// unixMillis converts a gateway millisecond timestamp; zero stays zero.
func unixMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// sessionRecord is the gateway wire shape for one session.
type sessionRecord struct {
	Key           string `json:"key"`
	Channel       string `json:"channel,omitempty"`
	Model         string `json:"model,omitempty"`
	ContextTokens int    `json:"contextTokens"`
	TotalTokens   int    `json:"totalTokens"`
	UpdatedAt     int64  `json:"updatedAt,omitempty"`
}
