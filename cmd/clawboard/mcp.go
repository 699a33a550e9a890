package main

import (
	"github.com/spf13/cobra"

	"github.com/ayush-that/clawboard/internal/config"
	"github.com/ayush-that/clawboard/internal/domain"
	"github.com/ayush-that/clawboard/internal/mcpserver"
	"github.com/ayush-that/clawboard/internal/observability"
	goutils "github.com/jkaninda/go-utils"
)

var mcpConfigPath string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve dashboard reads as MCP tools over stdio",
	RunE:  runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpConfigPath, "config", config.DefaultConfigPath(), "path to config file")
}

func runMCP(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(goutils.Env("CLAWBOARD_CONFIG", mcpConfigPath))
	if err != nil {
		return err
	}

	// Logs go to stderr; stdout carries the MCP protocol.
	logger := newLogger(cfg.Logging)

	obs, err := observability.New(cfg.Observability, logger)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(cfg.Cache, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	dash, _, _ := buildServices(cfg, store, logger, obs)
	defaults := domain.GatewaySettings{URL: cfg.Gateway.URL, Token: cfg.Gateway.Token}

	return mcpserver.New(dash, defaults, version, logger).ServeStdio()
}
