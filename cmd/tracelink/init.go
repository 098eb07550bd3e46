package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tracelink/internal/config"
	terrors "tracelink/internal/errors"
	"tracelink/internal/manifest"
	"tracelink/internal/paths"
)

var (
	initForce    bool
	initManifest bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize tracelink configuration",
	Long:  "Creates a .tracelink/ directory with default configuration under the root",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Force reinitialization (overwrites existing configuration)")
	initCmd.Flags().BoolVar(&initManifest, "manifest", false, "Also write an example TRACE.toml manifest")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	root := mustGetRoot()

	configPath := paths.ConfigPath(root)
	if _, statErr := os.Stat(configPath); statErr == nil && !initForce {
		// Idempotent behavior: already initialized is success (CI-friendly)
		fmt.Println("tracelink already initialized.")
		fmt.Printf("Configuration at: %s\n", configPath)
		fmt.Println("\nRun 'tracelink init --force' to reinitialize.")
		return nil
	}

	if _, err := paths.EnsureAppDir(root); err != nil {
		return terrors.Wrap(terrors.InternalError, "failed to create state directory", err)
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(root); err != nil {
		return terrors.Wrap(terrors.InternalError, "failed to write config file", err)
	}

	fmt.Println("tracelink initialized successfully!")
	fmt.Printf("Configuration written to: %s\n", configPath)

	if initManifest {
		manifestPath := paths.ManifestPath(root)
		if _, statErr := os.Stat(manifestPath); statErr == nil && !initForce {
			fmt.Printf("Manifest already exists: %s\n", manifestPath)
		} else {
			if err := manifest.CreateExample(manifestPath); err != nil {
				return err
			}
			fmt.Printf("Example manifest written to: %s\n", manifestPath)
		}
	}

	fmt.Println("\nNext steps:")
	fmt.Println("  1. Annotate a spec file with @Spec:<ID> and its code with @Code:<ID>")
	fmt.Println("  2. Run 'tracelink scan' to see the traceability report")

	return nil
}
