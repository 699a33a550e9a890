// Package httpapi exposes the dashboard over HTTP.
//
// Security:
//   - API key authentication on every /v1 request (constant-time comparison)
//   - Per-request gateway settings come from headers or process defaults;
//     the gateway client rejects private targets before dialing
//   - All requests logged with correlation IDs
//   - TLS expected via reverse proxy (not handled here)
package httpapi

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/ayush-that/clawboard/internal/configcache"
	"github.com/ayush-that/clawboard/internal/dashboard"
	"github.com/ayush-that/clawboard/internal/domain"
	"github.com/ayush-that/clawboard/internal/observability"
	"github.com/jkaninda/okapi"
)

// Per-caller gateway override headers. Callers without them use the
// process-default gateway from config.
const (
	headerGatewayURL   = "X-OpenClaw-Url"
	headerGatewayToken = "X-OpenClaw-Token"
)

// ErrorBody is the standard error response used in OpenAPI documentation.
type ErrorBody struct {
	Error string `json:"error"`
}

// Config configures the HTTP API server.
type Config struct {
	ListenAddr     string // e.g., ":8089"
	EnableDocs     bool
	APIKeys        map[string]string // API key → user ID mapping. Keys from env.
	DefaultGateway domain.GatewaySettings

	// Observability
	MetricsRegistry *prometheus.Registry            // Custom Prometheus registry for /metrics.
	MetricsPath     string                          // Path for metrics endpoint. Default: "/metrics".
	HealthChecker   *observability.HealthChecker    // Health checker for /readyz endpoint.
	Metrics         *observability.MetricsCollector // Metrics collector for HTTP middleware.
	Tracer          trace.Tracer                    // OTel tracer for HTTP middleware.
}

// Server is the dashboard HTTP API.
type Server struct {
	config  Config
	dash    *dashboard.Service
	configs *configcache.ConfigCache
	logger  *slog.Logger
	server  *http.Server
	okapi   *okapi.Okapi
	group   *okapi.Group
}

// NewServer creates the HTTP API around the adapter service and config cache.
func NewServer(cfg Config, dash *dashboard.Service, configs *configcache.ConfigCache, logger *slog.Logger) *Server {
	return &Server{
		config:  cfg,
		dash:    dash,
		configs: configs,
		logger:  logger,
		okapi:   okapi.New(),
	}
}

func (s *Server) WithOpenAPIDocs() *Server {
	s.okapi.WithOpenAPIDocs(
		okapi.OpenAPI{
			Title:   "Clawboard",
			Version: "v0.1.0",
		},
	)
	return s
}

// Start launches the HTTP server and blocks until it exits or ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	// Authenticated /v1 group; metrics and tracing wrap the whole group.
	if s.config.Metrics != nil || s.config.Tracer != nil {
		s.group = s.okapi.Group("/v1",
			observability.MetricsMiddleware(s.config.Metrics, s.config.Tracer),
			s.authenticate)
	} else {
		s.group = s.okapi.Group("/v1", s.authenticate)
	}

	s.group.Get("/sessions", s.handleSessions,
		okapi.DocSummary("List gateway sessions"),
		okapi.DocTags("Sessions"),
		okapi.DocResponse([]domain.SessionInfo{}),
		okapi.DocResponse(http.StatusUnauthorized, ErrorBody{}),
	)
	s.group.Get("/sessions/{key}/history", s.handleSessionHistory,
		okapi.DocSummary("Get one session's transcript"),
		okapi.DocTags("Sessions"),
		okapi.DocPathParam("key", "string", "Session key"),
		okapi.DocResponse([]domain.SessionMessage{}),
	)
	s.group.Get("/tasks", s.handleTasks,
		okapi.DocSummary("List recent agent tasks"),
		okapi.DocTags("Activity"),
		okapi.DocResponse([]domain.TaskRecord{}),
	)
	s.group.Get("/costs", s.handleCosts,
		okapi.DocSummary("Token usage and cost per day"),
		okapi.DocTags("Activity"),
		okapi.DocResponse([]domain.CostDataPoint{}),
	)
	s.group.Get("/usage", s.handleUsage,
		okapi.DocSummary("Aggregated usage summary"),
		okapi.DocTags("Activity"),
		okapi.DocResponse(domain.UsageSummary{}),
	)
	s.group.Get("/memory/search", s.handleMemorySearch,
		okapi.DocSummary("Search agent memory"),
		okapi.DocTags("Memory"),
		okapi.DocQueryParam("q", "string", "Search query", true),
		okapi.DocResponse([]domain.MemoryData{}),
		okapi.DocResponse(http.StatusBadRequest, ErrorBody{}),
	)

	s.group.Get("/cron", s.handleCronList,
		okapi.DocSummary("List scheduled jobs"),
		okapi.DocTags("Cron"),
		okapi.DocResponse([]domain.CronJobData{}),
	)
	s.group.Post("/cron", s.handleCronAdd,
		okapi.DocSummary("Schedule a new job"),
		okapi.DocTags("Cron"),
		okapi.DocRequestBody(CronJobRequest{}),
		okapi.DocResponse(domain.OpResult{}),
		okapi.DocResponse(http.StatusBadRequest, ErrorBody{}),
	)
	s.group.Delete("/cron/{id}", s.handleCronRemove,
		okapi.DocSummary("Remove a scheduled job"),
		okapi.DocTags("Cron"),
		okapi.DocPathParam("id", "string", "Job ID"),
		okapi.DocResponse(domain.OpResult{}),
	)

	s.group.Get("/config", s.handleConfigGet,
		okapi.DocSummary("Get the gateway configuration snapshot"),
		okapi.DocTags("Config"),
		okapi.DocResponse(domain.OpenClawConfig{}),
		okapi.DocResponse(http.StatusBadGateway, ErrorBody{}),
	)
	s.group.Put("/config", s.handleConfigPatch,
		okapi.DocSummary("Merge a patch into the gateway configuration"),
		okapi.DocTags("Config"),
		okapi.DocRequestBody(ConfigPatchRequest{}),
		okapi.DocResponse(domain.OpResult{}),
		okapi.DocResponse(http.StatusBadRequest, ErrorBody{}),
	)

	s.group.Get("/skills", s.handleSkills,
		okapi.DocSummary("List configured skills"),
		okapi.DocTags("Config"),
		okapi.DocResponse([]domain.SkillData{}),
	)
	s.group.Get("/channels", s.handleChannels,
		okapi.DocSummary("List configured channels"),
		okapi.DocTags("Config"),
		okapi.DocResponse([]domain.ChannelConfig{}),
	)

	s.group.Get("/logs", s.handleLogs,
		okapi.DocSummary("Tail the gateway log"),
		okapi.DocTags("Operations"),
		okapi.DocQueryParam("lines", "int", "Number of lines to return", false),
		okapi.DocResponse([]domain.LogEntry{}),
	)
	s.group.Get("/webhooks", s.handleWebhooks,
		okapi.DocSummary("List registered webhooks"),
		okapi.DocTags("Operations"),
		okapi.DocResponse([]domain.WebhookData{}),
	)
	s.group.Get("/approvals", s.handleApprovals,
		okapi.DocSummary("List pending exec approvals"),
		okapi.DocTags("Operations"),
		okapi.DocResponse([]domain.ExecApprovalRequest{}),
	)

	// WebSocket log stream; authenticates inside the handler because the
	// middleware chain does not apply to HandleStd routes.
	s.okapi.HandleStd("GET", "/v1/logs/stream", s.handleLogStream)

	// Observability endpoints (unauthenticated).
	s.okapi.Get("/healthz", s.handleLiveness)
	s.okapi.Get("/readyz", s.handleReadiness)

	if s.config.MetricsRegistry != nil {
		path := s.config.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.okapi.HandleStd("GET", path, promhttp.HandlerFor(s.config.MetricsRegistry, promhttp.HandlerOpts{}).ServeHTTP)
	}
	if s.config.EnableDocs {
		s.WithOpenAPIDocs()
	}

	s.server = &http.Server{
		Addr:              s.config.ListenAddr,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	s.logger.Info("http api starting", slog.String("addr", s.config.ListenAddr))
	return s.okapi.StartServer(s.server)
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("http api stopping")
	return s.okapi.Shutdown(s.server)
}

// --- Authentication ---

// authenticate validates the API key and stores the mapped user ID.
func (s *Server) authenticate(next okapi.HandlerFunc) okapi.HandlerFunc {
	return func(c *okapi.Context) error {
		authHeader := c.Header("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.AbortUnauthorized("missing or invalid Authorization header")
		}
		apiKey := strings.TrimPrefix(authHeader, "Bearer ")

		userID := ""
		for key, mapped := range s.config.APIKeys {
			if subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) == 1 {
				userID = mapped
			}
		}
		if userID == "" {
			return c.AbortUnauthorized("invalid API key")
		}
		c.Set("userID", userID)
		return next(c)
	}
}

// checkAPIKey is the stdlib-handler variant of authenticate, used by routes
// mounted outside the okapi middleware chain.
func (s *Server) checkAPIKey(r *http.Request) bool {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return false
	}
	apiKey := strings.TrimPrefix(authHeader, "Bearer ")
	for key := range s.config.APIKeys {
		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) == 1 {
			return true
		}
	}
	return false
}

// --- Helpers ---

// settingsFrom resolves the gateway settings for one request: header
// overrides first, process defaults otherwise.
func (s *Server) settingsFrom(r *http.Request) domain.GatewaySettings {
	settings := s.config.DefaultGateway
	if url := r.Header.Get(headerGatewayURL); url != "" {
		settings.URL = url
		settings.Token = r.Header.Get(headerGatewayToken)
	} else if token := r.Header.Get(headerGatewayToken); token != "" {
		settings.Token = token
	}
	return settings
}

func newCorrelationID() string {
	return uuid.NewString()
}
