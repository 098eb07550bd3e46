package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tracelink/internal/config"
	"tracelink/internal/version"
)

var configJSONOutput bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the effective configuration after defaults, the config file
and environment overrides are merged.

Examples:
  tracelink config
  tracelink config --json
  tracelink config env`,
	RunE: runConfigShow,
}

var configEnvCmd = &cobra.Command{
	Use:   "env",
	Short: "List supported environment variables",
	RunE:  runConfigEnv,
}

func init() {
	configCmd.Flags().BoolVar(&configJSONOutput, "json", false, "Output as JSON")
	configCmd.AddCommand(configEnvCmd)
	rootCmd.AddCommand(configCmd)
}

// ConfigShowResponse is the JSON shape of the config command.
type ConfigShowResponse struct {
	ConfigPath   string               `json:"configPath,omitempty"`
	UsedDefaults bool                 `json:"usedDefaults"`
	EnvOverrides []config.EnvOverride `json:"envOverrides,omitempty"`
	Config       *config.Config       `json:"config"`
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	root := mustGetRoot()

	result, err := config.LoadConfigWithDetails(root)
	if err != nil {
		return err
	}

	if configJSONOutput {
		resp := ConfigShowResponse{
			ConfigPath:   result.ConfigPath,
			UsedDefaults: result.UsedDefaults,
			EnvOverrides: result.EnvOverrides,
			Config:       result.Config,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	fmt.Println(version.Full())
	fmt.Println()
	if result.UsedDefaults {
		fmt.Println("Configuration: built-in defaults (no config file)")
	} else {
		fmt.Printf("Configuration: %s\n", result.ConfigPath)
	}

	if len(result.EnvOverrides) > 0 {
		fmt.Println("\nEnvironment overrides:")
		for _, o := range result.EnvOverrides {
			fmt.Printf("  %s=%s (%s)\n", o.EnvVar, o.Value, o.Path)
		}
	}

	cfg := result.Config
	fmt.Println("\nScan:")
	fmt.Printf("  workers:          %d\n", cfg.Scan.Workers)
	fmt.Printf("  fileTimeoutMs:    %d\n", cfg.Scan.FileTimeoutMs)
	fmt.Printf("  maxFileSizeBytes: %d\n", cfg.Scan.MaxFileSizeBytes)
	fmt.Printf("  maxFiles:         %d\n", cfg.Scan.MaxFiles)
	fmt.Printf("  ignoreDirs:       %s\n", strings.Join(cfg.Scan.IgnoreDirs, ", "))

	fmt.Println("\nScope:")
	fmt.Printf("  docsExtensions: %s\n", strings.Join(cfg.Scope.DocsExtensions, ", "))
	fmt.Printf("  docsDirs:       %s\n", strings.Join(cfg.Scope.DocsDirs, ", "))

	fmt.Println("\nHistory:")
	fmt.Printf("  enabled:       %v\n", cfg.History.Enabled)
	fmt.Printf("  retentionDays: %d\n", cfg.History.RetentionDays)

	fmt.Println("\nLogging:")
	fmt.Printf("  format: %s\n", cfg.Logging.Format)
	fmt.Printf("  level:  %s\n", cfg.Logging.Level)

	return nil
}

func runConfigEnv(cmd *cobra.Command, args []string) error {
	fmt.Println("Supported environment variables:")
	for _, name := range config.GetSupportedEnvVars() {
		if value, ok := os.LookupEnv(name); ok && value != "" {
			fmt.Printf("  %s=%s\n", name, value)
		} else {
			fmt.Printf("  %s (unset)\n", name)
		}
	}
	fmt.Println("\nSpecial variables:")
	fmt.Println("  TRACELINK_CONFIG_PATH (explicit config file, bypasses discovery)")
	return nil
}
