package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "mercury",
	Short: "Mercury - runtime-reconfigurable backend gateway for Meridian",
	Long: `Mercury is the backend gateway for the Meridian mail client.

It forwards the frontend's /api and /health traffic to the currently
configured backend origin, re-resolving the origin on every request so a
backend switch takes effect immediately without a restart.

It provides:
  - Runtime backend reconfiguration via POST /config/backend
  - Streaming relay of request and response bodies
  - Traffic history recording with query and export
  - Static frontend serving with SPA fallback

For more information, visit: https://github.com/mercator-hq/mercury`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
