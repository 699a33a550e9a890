package dashboard

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ayush-that/clawboard/internal/domain"
)

// Sessions returns the gateway's session list, or an empty list on failure.
func (s *Service) Sessions(ctx context.Context, settings domain.GatewaySettings) []domain.SessionInfo {
	sessions, err := s.gateway.ListSessions(ctx, settings)
	if err != nil {
		s.fail(ctx, "sessions", err)
		return []domain.SessionInfo{}
	}
	return sessions
}

// SessionHistory returns the transcript of one session in chronological
// order, or an empty list on failure.
func (s *Service) SessionHistory(ctx context.Context, settings domain.GatewaySettings, key string) []domain.SessionMessage {
	details, err := s.gateway.InvokeTool(ctx, settings, "sessions_history", map[string]any{"sessionKey": key}, key)
	if err != nil {
		s.fail(ctx, "sessions_history", err)
		return []domain.SessionMessage{}
	}
	messages, err := decodeHistory(details)
	if err != nil {
		s.fail(ctx, "sessions_history", err)
		return []domain.SessionMessage{}
	}
	return messages
}

// primaryHistory fetches the primary session's transcript for the adapters
// derived from it. Resolution failures degrade to an empty transcript.
func (s *Service) primaryHistory(ctx context.Context, settings domain.GatewaySettings, op string) []domain.SessionMessage {
	key, err := s.resolver.PrimaryKey(ctx, settings)
	if err != nil {
		s.fail(ctx, op, err)
		return []domain.SessionMessage{}
	}
	return s.SessionHistory(ctx, settings, key)
}

// decodeHistory accepts {"messages": [...]} or a bare array.
func decodeHistory(details json.RawMessage) ([]domain.SessionMessage, error) {
	var wrapped struct {
		Messages []historyMessage `json:"messages"`
	}
	if err := json.Unmarshal(details, &wrapped); err == nil && wrapped.Messages != nil {
		return toSessionMessages(wrapped.Messages), nil
	}

	var bare []historyMessage
	if err := json.Unmarshal(details, &bare); err != nil {
		return nil, err
	}
	return toSessionMessages(bare), nil
}

func toSessionMessages(records []historyMessage) []domain.SessionMessage {
	messages := make([]domain.SessionMessage, 0, len(records))
	for _, rec := range records {
		msg := domain.SessionMessage{
			Role:        rec.Role,
			Model:       rec.Model,
			InputTokens: rec.Usage.Input,
			OutputToken: rec.Usage.Output,
			TotalTokens: rec.Usage.Total,
			CostUSD:     rec.CostUSD,
		}
		if rec.Timestamp != 0 {
			msg.Timestamp = time.UnixMilli(rec.Timestamp).UTC()
		}
		for _, part := range rec.Content {
			msg.Parts = append(msg.Parts, domain.MessagePart{
				Type: part.Type,
				Text: part.Text,
				Tool: part.Name,
			})
		}
		messages = append(messages, msg)
	}
	return messages
}

// historyMessage is the gateway wire shape for one transcript turn.
type historyMessage struct {
	Role      string        `json:"role"`
	Content   []historyPart `json:"content,omitempty"`
	Model     string        `json:"model,omitempty"`
	Usage     historyUsage  `json:"usage"`
	CostUSD   float64       `json:"costUsd"`
	Timestamp int64         `json:"timestamp,omitempty"`
}

type historyPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	Name string `json:"name,omitempty"`
}

type historyUsage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
	Total  int `json:"total"`
}
