package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/ayush-that/clawboard/internal/cache"
	"github.com/ayush-that/clawboard/internal/chatproto"
	"github.com/ayush-that/clawboard/internal/config"
	"github.com/ayush-that/clawboard/internal/configcache"
	"github.com/ayush-that/clawboard/internal/dashboard"
	"github.com/ayush-that/clawboard/internal/domain"
	"github.com/ayush-that/clawboard/internal/httpapi"
	"github.com/ayush-that/clawboard/internal/observability"
	"github.com/ayush-that/clawboard/internal/openclaw"
	goutils "github.com/jkaninda/go-utils"
)

var (
	serveConfigPath string
	serveListenAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard HTTP API",
	RunE:  runServe,
}

func init() {
	// Register flags on both root and serve so that
	// `clawboard --config path` and `clawboard serve --config path` both work.
	for _, cmd := range []*cobra.Command{rootCmd, serveCmd} {
		cmd.Flags().StringVar(&serveConfigPath, "config", config.DefaultConfigPath(), "path to config file")
		cmd.Flags().StringVar(&serveListenAddr, "listen", "", "override HTTP listen address (e.g. :8089)")
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(goutils.Env("CLAWBOARD_CONFIG", serveConfigPath))
	if err != nil {
		return err
	}
	if serveListenAddr != "" {
		cfg.Server.ListenAddr = serveListenAddr
	}

	logger := newLogger(cfg.Logging)
	logger.Info("starting clawboard", slog.String("addr", cfg.Server.ListenAddr))

	obs, err := observability.New(cfg.Observability, logger)
	if err != nil {
		return err
	}

	// Signal-aware context.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(cfg.Cache, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	defaults := domain.GatewaySettings{URL: cfg.Gateway.URL, Token: cfg.Gateway.Token}
	dash, configs, client := buildServices(cfg, store, logger, obs)

	if health := obs.HealthOrNil(); health != nil {
		health.AddCheck("cache", func(ctx context.Context) error {
			_, err := store.Get(ctx, "probe")
			if errors.Is(err, cache.ErrMiss) {
				return nil
			}
			return err
		})
		if defaults.URL != "" {
			health.AddCheck("gateway", func(ctx context.Context) error {
				_, err := client.ListSessions(ctx, defaults)
				return err
			})
		}
	}

	// Background config warmer: refreshes the cache inside its TTL so
	// dashboard reads rarely pay the chat round trip.
	if cfg.Warmer != nil && cfg.Warmer.Enabled && defaults.URL != "" {
		warmer := cron.New()
		_, err := warmer.AddFunc(cfg.Warmer.CronSchedule(), func() {
			warmCtx, cancel := context.WithTimeout(ctx, 90*time.Second)
			defer cancel()
			if _, err := configs.Get(warmCtx, defaults); err != nil {
				logger.Warn("config warm failed", slog.String("error", err.Error()))
			}
		})
		if err != nil {
			return fmt.Errorf("starting config warmer: %w", err)
		}
		warmer.Start()
		defer warmer.Stop()
		logger.Info("config warmer started", slog.String("schedule", cfg.Warmer.CronSchedule()))
	}

	apiCfg := httpapi.Config{
		ListenAddr:     cfg.Server.ListenAddr,
		EnableDocs:     cfg.Server.EnableDocs,
		APIKeys:        cfg.Server.APIKeys,
		DefaultGateway: defaults,
		HealthChecker:  obs.HealthOrNil(),
		Metrics:        obs.MetricsOrNil(),
	}
	if m := obs.MetricsOrNil(); m != nil {
		apiCfg.MetricsRegistry = m.Registry
	}
	if ts := obs.TracerOrNil(); ts != nil {
		apiCfg.Tracer = ts.Tracer()
	}

	api := httpapi.NewServer(apiCfg, dash, configs, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- api.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := api.Stop(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", slog.String("error", err.Error()))
	}
	obs.Shutdown(shutdownCtx)
	return nil
}

// buildServices wires the gateway client stack shared by serve and mcp.
func buildServices(cfg *config.Config, store cache.Store, logger *slog.Logger, obs *observability.Observability) (*dashboard.Service, *configcache.ConfigCache, *openclaw.Client) {
	var opts []openclaw.Option
	if cfg.Gateway.AllowPrivate {
		opts = append(opts, openclaw.WithPrivateTargets())
	}
	metrics := obs.MetricsOrNil()
	if metrics != nil {
		opts = append(opts, openclaw.WithCallRecorder(metrics))
	}
	client := openclaw.NewClient(logger, opts...)
	resolver := openclaw.NewSessionResolver(client, logger)
	proto := chatproto.New(client, resolver, logger)
	configs := configcache.New(store, proto, logger, cfg.Cache.TTL())
	if metrics != nil {
		configs.WithRecorder(metrics)
	}
	dash := dashboard.NewService(client, proto, configs, resolver, logger, metrics)
	return dash, configs, client
}

// openStore opens the configured distributed cache tier. The returned
// closer is a no-op for the memory store.
func openStore(cfg *config.CacheConfig, logger *slog.Logger) (cache.Store, func(), error) {
	switch driver := cfg.CacheDriver(); driver {
	case "memory":
		return cache.NewMemoryStore(), func() {}, nil
	case "sqlite":
		store, err := cache.OpenSQLite(cfg.Path, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite cache: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	case "postgres":
		store, err := cache.OpenPostgres(cfg.DSN, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("opening postgres cache: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache driver %q", driver)
	}
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
