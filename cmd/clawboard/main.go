// Clawboard — web dashboard backend for the OpenClaw gateway.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "clawboard",
	Short: "Clawboard — dashboard backend for the OpenClaw agent gateway.",
	Long: `Clawboard serves a web dashboard over an OpenClaw agent gateway:
sessions, usage and cost reporting, scheduled jobs, configuration, and
operational views, backed by a two-tier configuration cache.`,
	RunE:          runServe, // Default to serve mode.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, mcpCmd, versionCmd)
	_ = godotenv.Load()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}
