package mcpserver

import (
	"io"
	"log/slog"
	"testing"

	"github.com/ayush-that/clawboard/internal/dashboard"
	"github.com/ayush-that/clawboard/internal/domain"
)

func TestNew_RegistersTools(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dash := dashboard.NewService(nil, nil, nil, nil, logger, nil)

	s := New(dash, domain.GatewaySettings{URL: "https://gw.example.com"}, "test", logger)
	if s == nil || s.mcp == nil {
		t.Fatal("server not constructed")
	}
}

func TestJSONResult(t *testing.T) {
	res, err := jsonResult([]domain.SessionInfo{{Key: "main", TotalTokens: 42}})
	if err != nil {
		t.Fatalf("jsonResult: %v", err)
	}
	if res == nil || res.IsError {
		t.Fatalf("result = %+v", res)
	}
}
