package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	perrors "parler/pkg/errors"
	"parler/pkg/ui"
)

var (
	// Version information
	version   = "0.1.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile    string
	logLevel      string
	debug         bool
	accountName   string
	jstToken      string
	mstToken      string
	baseURL       string
	retryDelay    float64
	maxReconnects int
	metricsAddr   string

	console = ui.NewTerminal()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "parler",
	Short: "Command-line client for the private Parler REST API",
	Long: `parler talks to the private Parler REST API with a browser session.

A session is identified by the jst and mst cookies. Store them once with
'parler auth login', or pass them through PARLER_JST/PARLER_MST, a config
file or the --jst/--mst flags.

Every command prints the JSON returned by the API on stdout. Transient
failures (429, 502) are retried; after too many in a row the command aborts.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		console.Error("Command failed", err)
		switch {
		case perrors.IsUnauthorized(err):
			console.Hint("The session tokens were rejected. Refresh them with 'parler auth login'.")
		case perrors.IsFatalAbort(err) || perrors.IsRetryable(perrors.TypeOf(err)):
			console.Hint("The API kept failing. Wait a while or raise --max-reconnects.")
		}
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.parler.yaml or ~/.config/parler/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "", "stored account to use (default is the most recent one)")
	rootCmd.PersistentFlags().StringVar(&jstToken, "jst", "", "jst session token")
	rootCmd.PersistentFlags().StringVar(&mstToken, "mst", "", "mst session token")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "API base URL")
	rootCmd.PersistentFlags().Float64Var(&retryDelay, "retry-delay", 0, "seconds to wait before retrying a 429/502")
	rootCmd.PersistentFlags().IntVar(&maxReconnects, "max-reconnects", 0, "consecutive transient failures tolerated before aborting")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while the command runs")
}
