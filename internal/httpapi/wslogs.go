package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/ayush-that/clawboard/internal/domain"
)

const (
	logStreamInterval = 5 * time.Second
	logStreamWindow   = 50
)

// handleLogStream upgrades to WebSocket and pushes new gateway log entries
// as they appear. The gateway only exposes a pull-based tail, so the stream
// polls it and forwards lines not seen in the previous window.
func (s *Server) handleLogStream(w http.ResponseWriter, r *http.Request) {
	if !s.checkAPIKey(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols: []string{"clawboard-logs-v1"},
	})
	if err != nil {
		s.logger.Error("websocket accept failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "connection closed")

	settings := s.settingsFrom(r)
	s.streamLogs(r.Context(), conn, settings)
}

func (s *Server) streamLogs(ctx context.Context, conn *websocket.Conn, settings domain.GatewaySettings) {
	ticker := time.NewTicker(logStreamInterval)
	defer ticker.Stop()

	var lastSent time.Time
	initial := true

	// Send the current window immediately, then follow the ticker.
	for {
		entries := s.dash.Logs(ctx, settings, logStreamWindow)
		fresh, next := freshLogEntries(entries, lastSent, initial)
		lastSent = next
		initial = false

		for _, entry := range fresh {
			data, err := json.Marshal(entry)
			if err != nil {
				continue
			}
			if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
				if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
					s.logger.Debug("log stream write failed", slog.String("error", err.Error()))
				}
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// freshLogEntries filters a polled window down to the entries not yet sent
// and advances the dedupe watermark. Entries without a timestamp cannot be
// checked against the watermark, so they are forwarded only with the
// initial window and dropped on later polls.
func freshLogEntries(entries []domain.LogEntry, lastSent time.Time, initial bool) ([]domain.LogEntry, time.Time) {
	var fresh []domain.LogEntry
	for _, entry := range entries {
		if entry.Timestamp.IsZero() {
			if !initial {
				continue
			}
		} else if !entry.Timestamp.After(lastSent) {
			continue
		}
		fresh = append(fresh, entry)
		if entry.Timestamp.After(lastSent) {
			lastSent = entry.Timestamp
		}
	}
	return fresh, lastSent
}
