package dashboard

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ayush-that/clawboard/internal/domain"
)

// Logs returns the last lines of the gateway's log, or an empty list on
// failure. lines caps the tail length; zero asks for the gateway default.
func (s *Service) Logs(ctx context.Context, settings domain.GatewaySettings, lines int) []domain.LogEntry {
	args := map[string]any{}
	if lines > 0 {
		args["lines"] = lines
	}
	details, err := s.gateway.InvokeTool(ctx, settings, "logs_tail", args, "")
	if err != nil {
		s.fail(ctx, "logs", err)
		return []domain.LogEntry{}
	}

	var wrapped struct {
		Logs []logRecord `json:"logs"`
	}
	if err := json.Unmarshal(details, &wrapped); err != nil || wrapped.Logs == nil {
		var bare []logRecord
		if err := json.Unmarshal(details, &bare); err != nil {
			s.fail(ctx, "logs", err)
			return []domain.LogEntry{}
		}
		wrapped.Logs = bare
	}

	entries := make([]domain.LogEntry, 0, len(wrapped.Logs))
	for _, rec := range wrapped.Logs {
		entry := domain.LogEntry{Level: rec.Level, Message: rec.Message}
		if entry.Level == "" {
			entry.Level = "info"
		}
		if rec.Timestamp != 0 {
			entry.Timestamp = time.UnixMilli(rec.Timestamp).UTC()
		}
		entries = append(entries, entry)
	}
	return entries
}

// Webhooks returns the gateway's registered webhooks, or an empty list on
// failure.
func (s *Service) Webhooks(ctx context.Context, settings domain.GatewaySettings) []domain.WebhookData {
	details, err := s.gateway.InvokeTool(ctx, settings, "webhooks_list", nil, "")
	if err != nil {
		s.fail(ctx, "webhooks", err)
		return []domain.WebhookData{}
	}

	var wrapped struct {
		Webhooks []domain.WebhookData `json:"webhooks"`
	}
	if err := json.Unmarshal(details, &wrapped); err != nil || wrapped.Webhooks == nil {
		var bare []domain.WebhookData
		if err := json.Unmarshal(details, &bare); err != nil {
			s.fail(ctx, "webhooks", err)
			return []domain.WebhookData{}
		}
		wrapped.Webhooks = bare
	}
	return wrapped.Webhooks
}

// Approvals returns pending command-execution approvals, or an empty list
// on failure.
func (s *Service) Approvals(ctx context.Context, settings domain.GatewaySettings) []domain.ExecApprovalRequest {
	details, err := s.gateway.InvokeTool(ctx, settings, "exec_approvals_list", nil, "")
	if err != nil {
		s.fail(ctx, "approvals", err)
		return []domain.ExecApprovalRequest{}
	}

	var wrapped struct {
		Approvals []approvalRecord `json:"approvals"`
	}
	if err := json.Unmarshal(details, &wrapped); err != nil || wrapped.Approvals == nil {
		var bare []approvalRecord
		if err := json.Unmarshal(details, &bare); err != nil {
			s.fail(ctx, "approvals", err)
			return []domain.ExecApprovalRequest{}
		}
		wrapped.Approvals = bare
	}

	approvals := make([]domain.ExecApprovalRequest, 0, len(wrapped.Approvals))
	for _, rec := range wrapped.Approvals {
		req := domain.ExecApprovalRequest{
			ID:      rec.ID,
			Command: rec.Command,
			Session: rec.Session,
		}
		if rec.CreatedAt != 0 {
			req.CreatedAt = time.UnixMilli(rec.CreatedAt).UTC()
		}
		approvals = append(approvals, req)
	}
	return approvals
}

// logRecord and approvalRecord are gateway wire shapes with millisecond
// timestamps.
type logRecord struct {
	Level     string `json:"level,omitempty"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

type approvalRecord struct {
	ID        string `json:"id"`
	Command   string `json:"command"`
	Session   string `json:"session,omitempty"`
	CreatedAt int64  `json:"createdAt,omitempty"`
}
