package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tracelink/internal/config"
	"tracelink/internal/storage"
)

var (
	sarifRun string
	sarifOut string
)

var sarifCmd = &cobra.Command{
	Use:   "sarif",
	Short: "Export diagnostics as SARIF 2.1.0",
	Long: `Export the diagnostics of a stored run as a SARIF 2.1.0 document
for code scanning integrations.

Defaults to the most recent run and writes to stdout.

Examples:
  tracelink sarif > results.sarif
  tracelink sarif --run 4f6b2c1a-... --out results.sarif`,
	RunE: runSarif,
}

func init() {
	sarifCmd.Flags().StringVar(&sarifRun, "run", "", "Run id to export (default: latest)")
	sarifCmd.Flags().StringVar(&sarifOut, "out", "", "Output file path (default: stdout)")

	rootCmd.AddCommand(sarifCmd)
}

func runSarif(cmd *cobra.Command, args []string) error {
	root := mustGetRoot()

	cfg, err := config.LoadConfig(root)
	if err != nil {
		return err
	}

	db, err := storage.Open(root, newCommandLogger(cfg))
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	rec, _, err := loadStoredRecord(db, sarifRun)
	if err != nil {
		return err
	}

	out, err := FormatRecordAsSARIF(rec)
	if err != nil {
		return err
	}

	if sarifOut == "" {
		fmt.Println(out)
		return nil
	}
	if err := os.WriteFile(sarifOut, []byte(out), 0644); err != nil {
		return fmt.Errorf("failed to write SARIF file: %w", err)
	}
	fmt.Printf("SARIF written: %s\n", sarifOut)
	return nil
}
