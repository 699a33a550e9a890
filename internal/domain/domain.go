// Package domain defines the record types exchanged between the OpenClaw
// gateway client and the dashboard layers above it.
package domain

import "time"

// GatewaySettings identifies one caller's OpenClaw gateway.
// Constructed per call from the caller's stored settings (or process
// defaults) and discarded afterwards; never persisted by this layer.
type GatewaySettings struct {
	URL   string
	Token string
}

// OpenClawConfig is a snapshot of the gateway's configuration.
// Raw is the source of truth; the typed fields are convenience projections
// of the same snapshot. Hash is an opaque version token intended for
// optimistic-concurrency patching — it must never be parsed.
type OpenClawConfig struct {
	Agent    map[string]any `json:"agent,omitempty"`
	Gateway  map[string]any `json:"gateway,omitempty"`
	Channels map[string]any `json:"channels,omitempty"`
	Raw      string         `json:"raw"`
	Hash     string         `json:"hash"`
}

// SessionInfo describes one gateway conversation session.
// Key is opaque and gateway-assigned.
type SessionInfo struct {
	Key           string    `json:"key"`
	Channel       string    `json:"channel,omitempty"`
	Model         string    `json:"model,omitempty"`
	ContextTokens int       `json:"contextTokens"`
	TotalTokens   int       `json:"totalTokens"`
	UpdatedAt     time.Time `json:"updatedAt,omitempty"`
}

// SessionMessage is one role-tagged turn of a session transcript.
type SessionMessage struct {
	Role        string        `json:"role"`
	Parts       []MessagePart `json:"parts,omitempty"`
	Model       string        `json:"model,omitempty"`
	InputTokens int           `json:"inputTokens"`
	OutputToken int           `json:"outputTokens"`
	TotalTokens int           `json:"totalTokens"`
	CostUSD     float64       `json:"costUsd"`
	Timestamp   time.Time     `json:"timestamp,omitempty"`
}

// MessagePart is a single content part of a message: plain text, model
// thinking, or a tool use.
type MessagePart struct {
	Type string `json:"type"` // "text", "thinking", "tool_use"
	Text string `json:"text,omitempty"`
	Tool string `json:"tool,omitempty"`
}

// TaskRecord is a display-oriented view of one completed agent turn.
// Status is always "success" and DurationMS is totalTokens × 2 — a
// documented placeholder proxy, not a measured duration.
type TaskRecord struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	DurationMS int       `json:"durationMs"`
	StartedAt  time.Time `json:"startedAt"`
}

// CronJobData describes a scheduled job managed on the gateway.
type CronJobData struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Schedule string `json:"schedule"`
	Message  string `json:"message,omitempty"`
	Enabled  bool   `json:"enabled"`
}

// MemoryData is one agent-memory search hit.
type MemoryData struct {
	Key       string  `json:"key"`
	Summary   string  `json:"summary"`
	Relevance float64 `json:"relevance"`
}

// ChannelConfig describes one configured communication channel.
type ChannelConfig struct {
	Name    string `json:"name"`
	Type    string `json:"type,omitempty"`
	Enabled bool   `json:"enabled"`
}

// SkillData describes one installed agent skill.
type SkillData struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Enabled     bool   `json:"enabled"`
}

// LogEntry is one line of the gateway's log tail.
type LogEntry struct {
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// WebhookData describes one registered gateway webhook.
type WebhookData struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Events string `json:"events,omitempty"`
}

// ExecApprovalRequest is a pending command-execution approval on the gateway.
type ExecApprovalRequest struct {
	ID        string    `json:"id"`
	Command   string    `json:"command"`
	Session   string    `json:"session,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// CostDataPoint aggregates token usage and cost for one UTC calendar date.
type CostDataPoint struct {
	Date   string  `json:"date"` // "2006-01-02"
	Tokens int     `json:"tokens"`
	Cost   float64 `json:"cost"`
	Model  string  `json:"model,omitempty"`
}

// UsageSummary is the cross-cutting usage report composed from the session
// list and the cost-by-date series.
type UsageSummary struct {
	TotalTokens int             `json:"totalTokens"`
	TotalCost   float64         `json:"totalCost"`
	ByModel     []ModelUsage    `json:"byModel"`
	BySession   []SessionUsage  `json:"bySession"`
	Daily       []CostDataPoint `json:"daily"`
}

// ModelUsage is the per-model slice of a UsageSummary.
type ModelUsage struct {
	Model  string  `json:"model"`
	Tokens int     `json:"tokens"`
	Cost   float64 `json:"cost"`
}

// SessionUsage is the per-session slice of a UsageSummary.
type SessionUsage struct {
	Key         string `json:"key"`
	Channel     string `json:"channel,omitempty"`
	Model       string `json:"model,omitempty"`
	TotalTokens int    `json:"totalTokens"`
}

// OpResult reports the outcome of a fire-and-acknowledge gateway operation
// (config patch, cron add/remove). Error carries the failure reason when
// Success is false; it is informational only and safe to show to callers.
type OpResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	// Upstream marks failures that came from the gateway call itself,
	// as opposed to local input validation. HTTP handlers map upstream
	// failures to 502 and validation failures to 400.
	Upstream bool `json:"-"`
}
