package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"tracelink/internal/config"
	terrors "tracelink/internal/errors"
	"tracelink/internal/logging"
	"tracelink/internal/version"
)

var (
	// rootFlag is the CLI --root flag value
	rootFlag string
)

var rootCmd = &cobra.Command{
	Use:   "tracelink",
	Short: "Tracelink - traceability graph analysis",
	Long: `Tracelink scans a source tree for traceability markers (@Spec, @Code,
@Test, @Doc), links them into chains per identifier, validates chain
completeness and reports a weighted health score with diagnostics.`,
	Version: version.Info(),
}

func init() {
	rootCmd.SetVersionTemplate("tracelink version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", ".",
		"Root directory to operate on (default: current directory)")
}

// mustGetRoot resolves the --root flag to an absolute path. Existence
// is checked by the commands themselves so read-only commands can still
// report a helpful error.
func mustGetRoot() string {
	abs, err := filepath.Abs(rootFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid root path %q: %v\n", rootFlag, err)
		os.Exit(1)
	}
	return abs
}

// newCommandLogger builds the logger from the effective configuration.
// Log output goes to stderr so stdout stays parseable in json mode.
func newCommandLogger(cfg *config.Config) *logging.Logger {
	return logging.NewLogger(logging.Config{
		Format: logging.ParseFormat(cfg.Logging.Format),
		Level:  logging.ParseLevel(cfg.Logging.Level),
	})
}

// fail prints the error plus its suggested fixes and exits nonzero.
// Commands that map results to exit codes use this instead of RunE.
func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	printSuggestedFixes(os.Stderr, err)
	os.Exit(1)
}

// printSuggestedFixes renders the fix-action table for coded errors.
func printSuggestedFixes(w *os.File, err error) {
	te, ok := err.(*terrors.TraceError)
	if !ok || len(te.SuggestedFixes) == 0 {
		return
	}
	fmt.Fprintln(w, "\nSuggested fixes:")
	for _, fix := range te.SuggestedFixes {
		switch fix.Type {
		case terrors.RunCommand:
			fmt.Fprintf(w, "  run:  %s\n", fix.Command)
		case terrors.EditConfig:
			fmt.Fprintf(w, "  edit: %s\n", fix.File)
		case terrors.OpenDocs:
			fmt.Fprintf(w, "  see:  %s\n", fix.URL)
		}
		if fix.Description != "" {
			fmt.Fprintf(w, "        %s\n", fix.Description)
		}
	}
}
