package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"parler/pkg/auth"
	"parler/pkg/checkpoint"
	"parler/pkg/config"
	"parler/pkg/logger"
	"parler/pkg/parler"
)

// commandLineFlags collects the persistent flags the user actually set.
func commandLineFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	set := cmd.Flags().Changed

	if set("jst") {
		flags["jst"] = jstToken
	}
	if set("mst") {
		flags["mst"] = mstToken
	}
	if set("base-url") {
		flags["base-url"] = baseURL
	}
	if set("debug") {
		flags["debug"] = debug
	}
	if set("log-level") {
		flags["log-level"] = logLevel
	}
	if set("retry-delay") {
		flags["retry-delay"] = retryDelay
	}
	if set("max-reconnects") {
		flags["max-reconnects"] = maxReconnects
	}
	return flags
}

// loadConfig resolves the configuration and fills missing tokens from the
// credential store. An explicit --account always wins over file and env
// tokens, but not over --jst/--mst.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Resolve(configFile, commandLineFlags(cmd))
	if err != nil {
		return nil, err
	}

	needTokens := cfg.Parler.JST == "" || cfg.Parler.MST == ""
	if needTokens || accountName != "" {
		if err := applyStoredAccount(cmd, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		if cfg.Parler.JST == "" || cfg.Parler.MST == "" {
			console.Hint("No session found. Run 'parler auth login' or set PARLER_JST and PARLER_MST.")
		}
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func applyStoredAccount(cmd *cobra.Command, cfg *config.Config) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	var account *auth.Account
	if accountName != "" {
		account, err = manager.Retrieve(accountName)
	} else {
		account, err = manager.RetrieveDefault()
	}
	if err != nil {
		if accountName == "" && errors.Is(err, auth.ErrCredentialsNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load account: %w", err)
	}

	if !cmd.Flags().Changed("jst") {
		cfg.Parler.JST = account.JST
	}
	if !cmd.Flags().Changed("mst") {
		cfg.Parler.MST = account.MST
	}
	if cfg.Parler.UserAgent == "" {
		cfg.Parler.UserAgent = account.UserAgent
	}

	logger.GetLogger().DebugWithFields("Using stored account", map[string]interface{}{
		"account": account.Name,
	})
	return nil
}

// initLogging installs the global logger for the loaded configuration.
func initLogging(cfg *config.Config) error {
	logging := cfg.Logging
	if cfg.Parler.Debug {
		logging.Level = "debug"
	}
	if err := logger.Initialize(&logging, &cfg.LogToFile); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// newAPIClient builds a Client for the command's configuration.
func newAPIClient(cmd *cobra.Command) (*parler.Client, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if err := initLogging(cfg); err != nil {
		return nil, nil, err
	}

	client, err := parler.NewClientWithConfig(cfg, parler.WithLogger(logger.GetLogger()))
	if err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}

// openCheckpoints opens the cursor store. A store that cannot be opened
// only disables resuming.
func openCheckpoints(cfg *config.Config) *checkpoint.Store {
	if cfg.Checkpoint.Path == "" {
		return nil
	}
	store, err := checkpoint.Open(cfg.Checkpoint.Path)
	if err != nil {
		logger.GetLogger().WithError(err).Warn("Checkpoints disabled")
		return nil
	}
	return store
}

// startMetrics serves /metrics on addr until ctx is done. An empty addr
// does nothing.
func startMetrics(ctx context.Context, addr string) {
	if addr == "" {
		return
	}
	log := logger.GetLogger()

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Metrics server failed")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.InfoWithFields("Serving metrics", map[string]interface{}{"addr": addr})
}
