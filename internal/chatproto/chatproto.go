// Package chatproto layers a structured protocol over the gateway's
// natural-language chat channel. Configuration and scheduled-job management
// have no structured tool endpoint, so each operation crafts an instruction
// telling the agent to emit JSON (or a fixed acknowledgment), then parses
// the textual reply.
//
// This is an inherently best-effort protocol over an untrusted channel. A
// reply that is not valid data is a *ReplyError, which is deliberately
// distinct from a transport failure: callers apply different policies to
// "the gateway is down" and "the agent answered garbage".
package chatproto

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ayush-that/clawboard/internal/domain"
)

// ackToken is the confirmation string operations instruct the agent to
// reply with. Success is inferred from the exchange completing, not from
// verifying the agent actually applied the change.
const ackToken = "OK"

// ChatCaller is the transport dependency: one natural-language round trip
// on a session.
type ChatCaller interface {
	ChatCompletions(ctx context.Context, settings domain.GatewaySettings, sessionKey, message string) (string, error)
}

// SessionKeyer resolves the session the protocol speaks on.
type SessionKeyer interface {
	PrimaryKey(ctx context.Context, settings domain.GatewaySettings) (string, error)
}

// ReplyError reports a chat reply that could not be parsed as the expected
// JSON shape. The transport call itself succeeded.
type ReplyError struct {
	Op    string
	Cause error
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("agent reply for %s was not valid data: %v", e.Op, e.Cause)
}

func (e *ReplyError) Unwrap() error { return e.Cause }

// Protocol implements the chat-based operations.
type Protocol struct {
	chat     ChatCaller
	resolver SessionKeyer
	logger   *slog.Logger
}

// New creates a Protocol over the given chat transport and session resolver.
func New(chat ChatCaller, resolver SessionKeyer, logger *slog.Logger) *Protocol {
	return &Protocol{chat: chat, resolver: resolver, logger: logger}
}

// FetchConfig instructs the agent to emit its complete configuration as one
// raw JSON object and parses the reply.
func (p *Protocol) FetchConfig(ctx context.Context, settings domain.GatewaySettings) (map[string]any, error) {
	const instruction = "Print your complete current configuration as a single raw JSON object " +
		"with no commentary and no markdown. Include every top-level section: " +
		"agents, gateway, channels, skills, cron."

	reply, err := p.roundTrip(ctx, settings, instruction)
	if err != nil {
		return nil, err
	}

	var cfg map[string]any
	if err := json.Unmarshal([]byte(StripFences(reply)), &cfg); err != nil {
		return nil, &ReplyError{Op: "config read", Cause: err}
	}
	return cfg, nil
}

// ApplyConfigPatch instructs the agent to merge the given JSON patch into
// its live configuration. Success means the exchange completed; the patch
// is not verified against the resulting state.
func (p *Protocol) ApplyConfigPatch(ctx context.Context, settings domain.GatewaySettings, patch map[string]any) error {
	patchJSON, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("marshaling config patch: %w", err)
	}

	instruction := fmt.Sprintf(
		"Merge the following JSON patch into your live configuration, then reply with exactly %q and nothing else:\n%s",
		ackToken, patchJSON)

	_, err = p.roundTrip(ctx, settings, instruction)
	return err
}

// ListCronJobs instructs the agent to enumerate its scheduled jobs as a JSON
// array. No jobs must yield an empty array, not prose.
func (p *Protocol) ListCronJobs(ctx context.Context, settings domain.GatewaySettings) ([]domain.CronJobData, error) {
	const instruction = "List all of your scheduled cron jobs as a raw JSON array with no commentary " +
		"and no markdown. Each element must have the fields: id, name, schedule, message, enabled. " +
		"Reply with [] if there are none."

	reply, err := p.roundTrip(ctx, settings, instruction)
	if err != nil {
		return nil, err
	}

	var jobs []domain.CronJobData
	if err := json.Unmarshal([]byte(StripFences(reply)), &jobs); err != nil {
		return nil, &ReplyError{Op: "cron list", Cause: err}
	}
	return jobs, nil
}

// AddCronJob instructs the agent to register a scheduled job.
func (p *Protocol) AddCronJob(ctx context.Context, settings domain.GatewaySettings, name, schedule, message string) error {
	instruction := fmt.Sprintf(
		"Add a cron job named %q with schedule %q that sends the message %q. Reply with exactly %q and nothing else.",
		name, schedule, message, ackToken)

	_, err := p.roundTrip(ctx, settings, instruction)
	return err
}

// RemoveCronJob instructs the agent to delete a scheduled job by id.
func (p *Protocol) RemoveCronJob(ctx context.Context, settings domain.GatewaySettings, id string) error {
	instruction := fmt.Sprintf(
		"Remove the cron job with id %q. Reply with exactly %q and nothing else.",
		id, ackToken)

	_, err := p.roundTrip(ctx, settings, instruction)
	return err
}

func (p *Protocol) roundTrip(ctx context.Context, settings domain.GatewaySettings, instruction string) (string, error) {
	sessionKey, err := p.resolver.PrimaryKey(ctx, settings)
	if err != nil {
		return "", err
	}
	reply, err := p.chat.ChatCompletions(ctx, settings, sessionKey, instruction)
	if err != nil {
		return "", err
	}
	p.logger.DebugContext(ctx, "chat protocol round trip",
		slog.String("session", sessionKey),
		slog.Int("reply_bytes", len(reply)),
	)
	return reply, nil
}

// StripFences removes a wrapping markdown code fence (``` or ```json) from
// an agent reply. Agents frequently fence JSON despite instructions not to.
func StripFences(reply string) string {
	s := strings.TrimSpace(reply)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop a language tag on the opening fence.
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		first := strings.TrimSpace(s[:idx])
		if first == "" || !strings.ContainsAny(first, "{}[]") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
