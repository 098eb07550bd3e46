package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tracelink/internal/config"
	"tracelink/internal/storage"
)

var (
	reportRun    string
	reportFormat string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a stored run",
	Long: `Render the record of a stored run without re-scanning.

Defaults to the most recent run. Use --run with an id from
'tracelink history' to render an older one.

Examples:
  tracelink report
  tracelink report --format yaml
  tracelink report --run 4f6b2c1a-... --format json`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportRun, "run", "", "Run id to render (default: latest)")
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", FormatHuman, "Output format: human, json, yaml")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	root := mustGetRoot()

	if !validFormat(reportFormat) {
		return fmt.Errorf("unknown output format %q (use: human, json, yaml)", reportFormat)
	}

	cfg, err := config.LoadConfig(root)
	if err != nil {
		return err
	}

	db, err := storage.Open(root, newCommandLogger(cfg))
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	rec, _, err := loadStoredRecord(db, reportRun)
	if err != nil {
		return err
	}

	out, err := renderRecord(rec, reportFormat)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}
