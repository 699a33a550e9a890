package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ayush-that/clawboard/internal/chatproto"
	"github.com/ayush-that/clawboard/internal/domain"
	"github.com/ayush-that/clawboard/internal/openclaw"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeGateway struct {
	details  map[string]json.RawMessage
	err      error
	sessions []domain.SessionInfo
	sessErr  error
	calls    []string
}

func (f *fakeGateway) InvokeTool(_ context.Context, _ domain.GatewaySettings, tool string, _ map[string]any, _ string) (json.RawMessage, error) {
	f.calls = append(f.calls, tool)
	if f.err != nil {
		return nil, f.err
	}
	details, ok := f.details[tool]
	if !ok {
		return nil, fmt.Errorf("unexpected tool %q", tool)
	}
	return details, nil
}

func (f *fakeGateway) ListSessions(context.Context, domain.GatewaySettings) ([]domain.SessionInfo, error) {
	if f.sessErr != nil {
		return nil, f.sessErr
	}
	return f.sessions, nil
}

type fakeCron struct {
	jobs     []domain.CronJobData
	listErr  error
	writeErr error
	added    []string
	removed  []string
}

func (f *fakeCron) ListCronJobs(context.Context, domain.GatewaySettings) ([]domain.CronJobData, error) {
	return f.jobs, f.listErr
}

func (f *fakeCron) AddCronJob(_ context.Context, _ domain.GatewaySettings, name, _, _ string) error {
	f.added = append(f.added, name)
	return f.writeErr
}

func (f *fakeCron) RemoveCronJob(_ context.Context, _ domain.GatewaySettings, id string) error {
	f.removed = append(f.removed, id)
	return f.writeErr
}

type fakeConfig struct {
	cfg *domain.OpenClawConfig
	err error
}

func (f *fakeConfig) Get(context.Context, domain.GatewaySettings) (*domain.OpenClawConfig, error) {
	return f.cfg, f.err
}

type fixedResolver struct{ key string }

func (r fixedResolver) PrimaryKey(context.Context, domain.GatewaySettings) (string, error) {
	return r.key, nil
}

func newService(gw *fakeGateway, cron *fakeCron, cfg *fakeConfig) *Service {
	return NewService(gw, cron, cfg, fixedResolver{key: "main"}, discardLogger(), nil)
}

func historyDetails(t *testing.T, messages []map[string]any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(map[string]any{"messages": messages})
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestTasks_LastTwentyAscending(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	var messages []map[string]any
	for i := 0; i < 25; i++ {
		messages = append(messages, map[string]any{
			"role":      "assistant",
			"timestamp": base.Add(time.Duration(i) * time.Minute).UnixMilli(),
			"usage":     map[string]any{"total": 100 + i},
			"content":   []map[string]any{{"type": "text", "text": fmt.Sprintf("turn %d", i)}},
		})
	}
	// A user turn and an untimestamped assistant turn must not count.
	messages = append(messages,
		map[string]any{"role": "user", "timestamp": base.UnixMilli()},
		map[string]any{"role": "assistant"},
	)

	gw := &fakeGateway{details: map[string]json.RawMessage{
		"sessions_history": historyDetails(t, messages),
	}}
	tasks := newService(gw, &fakeCron{}, &fakeConfig{}).Tasks(context.Background(), domain.GatewaySettings{})

	if len(tasks) != 20 {
		t.Fatalf("got %d tasks, want 20", len(tasks))
	}
	for i, task := range tasks {
		if task.Status != "success" {
			t.Errorf("task %d status = %q", i, task.Status)
		}
		if i > 0 && task.StartedAt.Before(tasks[i-1].StartedAt) {
			t.Errorf("tasks not in ascending order at index %d", i)
		}
	}
	// The five oldest assistant turns fall off; index 5's tokens were 105.
	if got, want := tasks[0].DurationMS, 105*2; got != want {
		t.Errorf("first task duration = %d, want %d", got, want)
	}
}

func TestCosts_GroupsByUTCDate(t *testing.T) {
	day := time.Date(2026, 8, 2, 0, 30, 0, 0, time.UTC)
	gw := &fakeGateway{details: map[string]json.RawMessage{
		"sessions_history": historyDetails(t, []map[string]any{
			{"role": "assistant", "timestamp": day.UnixMilli(), "model": "claude", "costUsd": 0.01, "usage": map[string]any{"total": 100}},
			{"role": "assistant", "timestamp": day.Add(4 * time.Hour).UnixMilli(), "model": "claude", "costUsd": 0.02, "usage": map[string]any{"total": 200}},
		}),
	}}
	points := newService(gw, &fakeCron{}, &fakeConfig{}).Costs(context.Background(), domain.GatewaySettings{})

	if len(points) != 1 {
		t.Fatalf("got %d points, want 1", len(points))
	}
	p := points[0]
	if p.Date != "2026-08-02" || p.Tokens != 300 || p.Cost != 0.03 || p.Model != "claude" {
		t.Errorf("point = %+v", p)
	}
}

func TestCosts_RoundsToFourDecimals(t *testing.T) {
	day := time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC)
	gw := &fakeGateway{details: map[string]json.RawMessage{
		"sessions_history": historyDetails(t, []map[string]any{
			{"role": "assistant", "timestamp": day.UnixMilli(), "costUsd": 0.00004, "usage": map[string]any{"total": 1}},
			{"role": "assistant", "timestamp": day.UnixMilli(), "costUsd": 0.00004, "usage": map[string]any{"total": 1}},
		}),
	}}
	points := newService(gw, &fakeCron{}, &fakeConfig{}).Costs(context.Background(), domain.GatewaySettings{})

	if len(points) != 1 || points[0].Cost != 0.0001 {
		t.Errorf("points = %+v, want one point with cost 0.0001", points)
	}
}

func TestCronJobs_GatewayUnreachable(t *testing.T) {
	srv := httptest.NewServer(nil)
	settings := domain.GatewaySettings{URL: srv.URL}
	srv.Close()

	client := openclaw.NewClient(discardLogger(), openclaw.WithPrivateTargets())
	proto := chatproto.New(client, fixedResolver{key: "main"}, discardLogger())
	svc := NewService(client, proto, &fakeConfig{}, fixedResolver{key: "main"}, discardLogger(), nil)

	jobs := svc.CronJobs(context.Background(), settings)
	if jobs == nil || len(jobs) != 0 {
		t.Errorf("CronJobs = %v, want empty non-nil list", jobs)
	}
}

func TestAddCronJob(t *testing.T) {
	cron := &fakeCron{}
	svc := newService(&fakeGateway{}, cron, &fakeConfig{})
	ctx := context.Background()

	if res := svc.AddCronJob(ctx, domain.GatewaySettings{}, "daily", "not a schedule", "hi"); res.Success || res.Upstream {
		t.Errorf("invalid schedule: result = %+v, want local validation failure", res)
	}
	if len(cron.added) != 0 {
		t.Error("invalid schedule must not reach the gateway")
	}

	if res := svc.AddCronJob(ctx, domain.GatewaySettings{}, "daily", "0 9 * * *", "hi"); !res.Success {
		t.Errorf("AddCronJob failed: %s", res.Error)
	}
	if res := svc.AddCronJob(ctx, domain.GatewaySettings{}, "often", "@every 90s", "hi"); !res.Success {
		t.Errorf("AddCronJob with descriptor failed: %s", res.Error)
	}

	cron.writeErr = errors.New("gateway down")
	res := svc.AddCronJob(ctx, domain.GatewaySettings{}, "daily", "0 9 * * *", "hi")
	if res.Success || res.Error == "" || !res.Upstream {
		t.Errorf("result = %+v, want upstream failure with reason", res)
	}
}

func TestRemoveCronJob(t *testing.T) {
	cron := &fakeCron{}
	svc := newService(&fakeGateway{}, cron, &fakeConfig{})

	if res := svc.RemoveCronJob(context.Background(), domain.GatewaySettings{}, "job-1"); !res.Success {
		t.Errorf("RemoveCronJob failed: %s", res.Error)
	}
	if len(cron.removed) != 1 || cron.removed[0] != "job-1" {
		t.Errorf("removed = %v", cron.removed)
	}
	if res := svc.RemoveCronJob(context.Background(), domain.GatewaySettings{}, ""); res.Success || res.Upstream {
		t.Errorf("empty id: result = %+v, want local validation failure", res)
	}

	cron.writeErr = errors.New("gateway down")
	if res := svc.RemoveCronJob(context.Background(), domain.GatewaySettings{}, "job-2"); res.Success || !res.Upstream {
		t.Errorf("result = %+v, want upstream failure", res)
	}
}

func TestSkillsAndChannels(t *testing.T) {
	raw := `{
		"skills": {
			"enabled": true,
			"defaults": {"timeout": 5},
			"web-search": {"description": "search the web", "enabled": false},
			"summarize": "builtin"
		},
		"channels": {
			"allowlist": ["x"],
			"telegram": {"type": "bot", "enabled": true},
			"irc": "legacy"
		}
	}`
	cfg := &fakeConfig{cfg: &domain.OpenClawConfig{Raw: raw}}
	svc := newService(&fakeGateway{}, &fakeCron{}, cfg)
	ctx := context.Background()

	skills := svc.Skills(ctx, domain.GatewaySettings{})
	if len(skills) != 2 {
		t.Fatalf("got %d skills, want 2: %+v", len(skills), skills)
	}
	if skills[0].Name != "summarize" || !skills[0].Enabled {
		t.Errorf("scalar skill = %+v", skills[0])
	}
	if skills[1].Name != "web-search" || skills[1].Enabled || skills[1].Description != "search the web" {
		t.Errorf("object skill = %+v", skills[1])
	}

	channels := svc.Channels(ctx, domain.GatewaySettings{})
	if len(channels) != 2 {
		t.Fatalf("got %d channels, want 2: %+v", len(channels), channels)
	}
	if channels[0].Name != "irc" || !channels[0].Enabled {
		t.Errorf("scalar channel = %+v", channels[0])
	}
	if channels[1].Name != "telegram" || channels[1].Type != "bot" {
		t.Errorf("object channel = %+v", channels[1])
	}
}

func TestSkills_ConfigUnavailable(t *testing.T) {
	cfg := &fakeConfig{err: errors.New("cache and gateway down")}
	svc := newService(&fakeGateway{}, &fakeCron{}, cfg)

	if skills := svc.Skills(context.Background(), domain.GatewaySettings{}); len(skills) != 0 {
		t.Errorf("Skills = %+v, want empty", skills)
	}
}

func TestSearchMemory_Defaults(t *testing.T) {
	zero := 0.0
	details, _ := json.Marshal(map[string]any{"results": []memoryHit{
		{Path: "notes/go.md", Text: "goroutines", Score: func() *float64 { v := 0.9; return &v }()},
		{},
		{Path: "notes/empty.md", Score: &zero},
	}})
	gw := &fakeGateway{details: map[string]json.RawMessage{"memory_search": details}}
	svc := newService(gw, &fakeCron{}, &fakeConfig{})

	results := svc.SearchMemory(context.Background(), domain.GatewaySettings{}, "go")
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].Relevance != 0.9 {
		t.Errorf("explicit score lost: %+v", results[0])
	}
	if results[1].Key != "memory" || results[1].Summary != "No content" || results[1].Relevance != 0.5 {
		t.Errorf("defaults not applied: %+v", results[1])
	}
	if results[2].Relevance != 0 {
		t.Errorf("explicit zero score lost: %+v", results[2])
	}
}

func TestSessionHistory_BareArrayShape(t *testing.T) {
	details := json.RawMessage(`[{"role":"user","timestamp":1756700000000}]`)
	gw := &fakeGateway{details: map[string]json.RawMessage{"sessions_history": details}}
	svc := newService(gw, &fakeCron{}, &fakeConfig{})

	history := svc.SessionHistory(context.Background(), domain.GatewaySettings{}, "main")
	if len(history) != 1 || history[0].Role != "user" || history[0].Timestamp.IsZero() {
		t.Errorf("history = %+v", history)
	}
}

func TestUsage_ComposesSessionsAndCosts(t *testing.T) {
	day := time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC)
	gw := &fakeGateway{
		sessions: []domain.SessionInfo{
			{Key: "a", Channel: "telegram", Model: "claude", TotalTokens: 500},
			{Key: "b", Model: "gpt", TotalTokens: 100},
		},
		details: map[string]json.RawMessage{
			"sessions_history": historyDetails(t, []map[string]any{
				{"role": "assistant", "timestamp": day.UnixMilli(), "model": "claude", "costUsd": 0.01, "usage": map[string]any{"total": 100}},
				{"role": "assistant", "timestamp": day.Add(25 * time.Hour).UnixMilli(), "model": "gpt", "costUsd": 0.02, "usage": map[string]any{"total": 200}},
			}),
		},
	}
	summary := newService(gw, &fakeCron{}, &fakeConfig{}).Usage(context.Background(), domain.GatewaySettings{})

	// Token total covers the whole session list, not just the primary
	// session's history; cost total sums the daily series.
	if summary.TotalTokens != 600 {
		t.Errorf("TotalTokens = %d, want 600", summary.TotalTokens)
	}
	if summary.TotalCost != 0.03 {
		t.Errorf("TotalCost = %v, want 0.03", summary.TotalCost)
	}
	if len(summary.Daily) != 2 {
		t.Errorf("daily = %+v", summary.Daily)
	}
	if len(summary.ByModel) != 2 || summary.ByModel[0].Model != "claude" || summary.ByModel[1].Model != "gpt" {
		t.Errorf("byModel = %+v", summary.ByModel)
	}
	if len(summary.BySession) != 2 || summary.BySession[0].TotalTokens != 500 {
		t.Errorf("bySession = %+v", summary.BySession)
	}
}

func TestReadAdapters_FailSoft(t *testing.T) {
	gw := &fakeGateway{err: errors.New("boom"), sessErr: errors.New("boom")}
	svc := newService(gw, &fakeCron{listErr: errors.New("boom")}, &fakeConfig{err: errors.New("boom")})
	ctx := context.Background()
	settings := domain.GatewaySettings{}

	if got := svc.Sessions(ctx, settings); len(got) != 0 {
		t.Errorf("Sessions = %v", got)
	}
	if got := svc.Logs(ctx, settings, 50); len(got) != 0 {
		t.Errorf("Logs = %v", got)
	}
	if got := svc.Webhooks(ctx, settings); len(got) != 0 {
		t.Errorf("Webhooks = %v", got)
	}
	if got := svc.Approvals(ctx, settings); len(got) != 0 {
		t.Errorf("Approvals = %v", got)
	}
	if got := svc.SearchMemory(ctx, settings, "q"); len(got) != 0 {
		t.Errorf("SearchMemory = %v", got)
	}
	if got := svc.Tasks(ctx, settings); len(got) != 0 {
		t.Errorf("Tasks = %v", got)
	}
}
