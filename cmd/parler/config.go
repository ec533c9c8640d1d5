package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"parler/pkg/auth"
	"parler/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage parler configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (PARLER_*)
  - .env and ~/.parler.env files
  - Configuration file (YAML or TOML)
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file with default values",
	Long: `Create a configuration file with every option set to its default.

The file is written to .parler.yaml unless --config names another path.
A .toml extension selects TOML.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration merged from all sources.

Session tokens are masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".parler.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		console.Hint(fmt.Sprintf("To overwrite, remove it first: rm %s", configPath))
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if err := config.DefaultConfig().Save(configPath); err != nil {
		return err
	}

	console.Success("Configuration file created: " + configPath)
	console.Hint("Next: add jst and mst under 'parler', or run 'parler auth login'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Resolve(configFile, commandLineFlags(cmd))
	if err != nil {
		return err
	}

	display := *cfg
	if display.Parler.JST != "" || display.Parler.MST != "" {
		masked := auth.SanitizeAccount(&auth.Account{JST: cfg.Parler.JST, MST: cfg.Parler.MST})
		display.Parler.JST = masked.JST
		display.Parler.MST = masked.MST
	}

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	console.Highlight("Current Configuration")
	fmt.Fprint(console.Out, string(data))

	source := "(none found)"
	if configFile != "" {
		source = configFile
	}
	console.Info("Configuration file", source)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var warnings []string
	if cfg.LogToFile.Enabled {
		if err := os.MkdirAll(filepath.Dir(cfg.LogToFile.LogFile), 0755); err != nil {
			warnings = append(warnings, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}
	if cfg.Checkpoint.Path == "" {
		warnings = append(warnings, "checkpoint path is empty, --resume will not work")
	}
	if cfg.RateLimit.RequestsPerMinute == 0 {
		warnings = append(warnings, "client-side rate limiting is disabled")
	}

	for _, w := range warnings {
		console.Warning(w)
	}
	console.Success("Configuration is valid")
	return nil
}
