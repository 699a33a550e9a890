package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jkaninda/okapi"

	"github.com/ayush-that/clawboard/internal/domain"
)

const defaultLogLines = 100

func (s *Server) handleSessions(c *okapi.Context) error {
	settings := s.settingsFrom(c.Request())
	return c.OK(s.dash.Sessions(c.Context(), settings))
}

func (s *Server) handleSessionHistory(c *okapi.Context) error {
	key := c.Param("key")
	if key == "" {
		return c.AbortBadRequest("session key is required")
	}
	settings := s.settingsFrom(c.Request())
	return c.OK(s.dash.SessionHistory(c.Context(), settings, key))
}

func (s *Server) handleTasks(c *okapi.Context) error {
	settings := s.settingsFrom(c.Request())
	return c.OK(s.dash.Tasks(c.Context(), settings))
}

func (s *Server) handleCosts(c *okapi.Context) error {
	settings := s.settingsFrom(c.Request())
	return c.OK(s.dash.Costs(c.Context(), settings))
}

func (s *Server) handleUsage(c *okapi.Context) error {
	settings := s.settingsFrom(c.Request())
	return c.OK(s.dash.Usage(c.Context(), settings))
}

func (s *Server) handleMemorySearch(c *okapi.Context) error {
	query := c.Request().URL.Query().Get("q")
	if query == "" {
		return c.AbortBadRequest("query parameter q is required")
	}
	settings := s.settingsFrom(c.Request())
	return c.OK(s.dash.SearchMemory(c.Context(), settings, query))
}

// --- Cron ---

// CronJobRequest is the JSON body for POST /v1/cron.
type CronJobRequest struct {
	Name     string `json:"name"`
	Schedule string `json:"schedule"`
	Message  string `json:"message,omitempty"`
}

func (s *Server) handleCronList(c *okapi.Context) error {
	settings := s.settingsFrom(c.Request())
	return c.OK(s.dash.CronJobs(c.Context(), settings))
}

func (s *Server) handleCronAdd(c *okapi.Context) error {
	var req CronJobRequest
	if err := c.Bind(&req); err != nil {
		return c.AbortBadRequest("invalid request body")
	}
	if req.Name == "" || req.Schedule == "" {
		return c.AbortBadRequest("name and schedule are required")
	}

	correlationID := newCorrelationID()
	s.logger.Info("cron add",
		slog.String("user_id", c.GetString("userID")),
		slog.String("correlation_id", correlationID),
		slog.String("name", req.Name),
	)

	settings := s.settingsFrom(c.Request())
	result := s.dash.AddCronJob(c.Context(), settings, req.Name, req.Schedule, req.Message)
	if !result.Success {
		return c.JSON(opFailureStatus(result), result)
	}
	return c.JSON(http.StatusCreated, result)
}

func (s *Server) handleCronRemove(c *okapi.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.AbortBadRequest("job id is required")
	}

	s.logger.Info("cron remove",
		slog.String("user_id", c.GetString("userID")),
		slog.String("id", id),
	)

	settings := s.settingsFrom(c.Request())
	result := s.dash.RemoveCronJob(c.Context(), settings, id)
	if !result.Success {
		return c.JSON(opFailureStatus(result), result)
	}
	return c.OK(result)
}

// opFailureStatus maps a failed operation to its HTTP status: gateway-side
// failures are 502, local validation failures are 400.
func opFailureStatus(result domain.OpResult) int {
	if result.Upstream {
		return http.StatusBadGateway
	}
	return http.StatusBadRequest
}

// --- Config ---

// ConfigPatchRequest is the JSON body for PUT /v1/config. Hash is the
// version token from a previous read.
type ConfigPatchRequest struct {
	Patch map[string]any `json:"patch"`
	Hash  string         `json:"hash,omitempty"`
}

// handleConfigGet is the one read surface that propagates gateway errors:
// with both cache tiers empty and the gateway down there is no safe
// default configuration to serve.
func (s *Server) handleConfigGet(c *okapi.Context) error {
	settings := s.settingsFrom(c.Request())
	cfg, err := s.configs.Get(c.Context(), settings)
	if err != nil {
		s.logger.Error("config read failed", slog.String("error", err.Error()))
		return c.JSON(http.StatusBadGateway, ErrorBody{Error: "gateway configuration unavailable"})
	}
	return c.OK(cfg)
}

func (s *Server) handleConfigPatch(c *okapi.Context) error {
	var req ConfigPatchRequest
	if err := c.Bind(&req); err != nil {
		return c.AbortBadRequest("invalid request body")
	}
	if len(req.Patch) == 0 {
		return c.AbortBadRequest("patch is required")
	}

	correlationID := newCorrelationID()
	s.logger.Info("config patch",
		slog.String("user_id", c.GetString("userID")),
		slog.String("correlation_id", correlationID),
	)

	settings := s.settingsFrom(c.Request())
	if err := s.configs.Patch(c.Context(), settings, req.Patch, req.Hash); err != nil {
		return c.JSON(http.StatusBadGateway, okapi.M{"success": false, "error": err.Error()})
	}
	return c.OK(okapi.M{"success": true})
}

// --- Config-derived lists ---

func (s *Server) handleSkills(c *okapi.Context) error {
	settings := s.settingsFrom(c.Request())
	return c.OK(s.dash.Skills(c.Context(), settings))
}

func (s *Server) handleChannels(c *okapi.Context) error {
	settings := s.settingsFrom(c.Request())
	return c.OK(s.dash.Channels(c.Context(), settings))
}

// --- Operations ---

func (s *Server) handleLogs(c *okapi.Context) error {
	lines := defaultLogLines
	if raw := c.Request().URL.Query().Get("lines"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.AbortBadRequest("lines must be a positive integer")
		}
		lines = parsed
	}
	settings := s.settingsFrom(c.Request())
	return c.OK(s.dash.Logs(c.Context(), settings, lines))
}

func (s *Server) handleWebhooks(c *okapi.Context) error {
	settings := s.settingsFrom(c.Request())
	return c.OK(s.dash.Webhooks(c.Context(), settings))
}

func (s *Server) handleApprovals(c *okapi.Context) error {
	settings := s.settingsFrom(c.Request())
	return c.OK(s.dash.Approvals(c.Context(), settings))
}

// --- Health ---

// HealthResponse is the JSON response for GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleLiveness(c *okapi.Context) error {
	return c.OK(&HealthResponse{Status: "ok"})
}

// handleReadiness checks all registered dependencies and returns 200 or 503.
func (s *Server) handleReadiness(c *okapi.Context) error {
	if s.config.HealthChecker == nil {
		return c.OK(&HealthResponse{Status: "ok"})
	}

	status := s.config.HealthChecker.Readiness(c.Context())
	code := http.StatusOK
	if status.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}
