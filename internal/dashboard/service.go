// Package dashboard adapts raw gateway responses into the display-oriented
// records served to dashboard clients. Every read adapter is a terminal
// error boundary: gateway failures are logged, counted, and replaced with a
// documented safe default, so callers above never see a transport or parse
// error from this layer. Write operations report their outcome through
// domain.OpResult instead of throwing.
package dashboard

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ayush-that/clawboard/internal/domain"
	"github.com/ayush-that/clawboard/internal/observability"
)

// GatewayAPI is the structured tool-invocation surface of the gateway client.
type GatewayAPI interface {
	InvokeTool(ctx context.Context, settings domain.GatewaySettings, tool string, args map[string]any, sessionKey string) (json.RawMessage, error)
	ListSessions(ctx context.Context, settings domain.GatewaySettings) ([]domain.SessionInfo, error)
}

// CronProtocol is the chat-based cron surface.
type CronProtocol interface {
	ListCronJobs(ctx context.Context, settings domain.GatewaySettings) ([]domain.CronJobData, error)
	AddCronJob(ctx context.Context, settings domain.GatewaySettings, name, schedule, message string) error
	RemoveCronJob(ctx context.Context, settings domain.GatewaySettings, id string) error
}

// ConfigSource supplies the cached gateway configuration snapshot.
type ConfigSource interface {
	Get(ctx context.Context, settings domain.GatewaySettings) (*domain.OpenClawConfig, error)
}

// SessionKeyer resolves the primary session key for chat-scoped reads.
type SessionKeyer interface {
	PrimaryKey(ctx context.Context, settings domain.GatewaySettings) (string, error)
}

// Service bundles the domain adapters behind one constructor.
type Service struct {
	gateway  GatewayAPI
	cron     CronProtocol
	config   ConfigSource
	resolver SessionKeyer
	logger   *slog.Logger
	metrics  *observability.MetricsCollector
}

// NewService creates the adapter service. metrics may be nil.
func NewService(gateway GatewayAPI, cron CronProtocol, config ConfigSource, resolver SessionKeyer, logger *slog.Logger, metrics *observability.MetricsCollector) *Service {
	return &Service{
		gateway:  gateway,
		cron:     cron,
		config:   config,
		resolver: resolver,
		logger:   logger,
		metrics:  metrics,
	}
}

// fail records one adapter failure before the caller substitutes its default.
func (s *Service) fail(ctx context.Context, op string, err error) {
	s.logger.WarnContext(ctx, "gateway adapter degraded to default",
		slog.String("op", op), slog.Any("error", err))
	s.metrics.RecordAdapterFailure(op)
}
