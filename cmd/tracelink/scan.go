package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"tracelink/internal/config"
	"tracelink/internal/engine"
	"tracelink/internal/health"
	"tracelink/internal/scanner"
)

var (
	scanScope       string
	scanFormat      string
	scanFailBelow   string
	scanMaxOrphan   float64
	scanSkipHistory bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a tree and report traceability health",
	Long: `Scan the root directory for traceability markers, validate the
reference chains and print the health report.

Scopes:
  production  - Source files only, documentation excluded
  docs        - Documentation files only
  all         - Every scannable file (default)

When a workspace is configured, every workspace root is scanned and
merged into one report. The run is recorded in the history database
unless recording is disabled.

Exit codes:
  0 - Scan succeeded and all gates passed
  1 - Scan failed
  2 - A gate was violated (--fail-below or --max-orphan-ratio)

Examples:
  # Scan the current directory
  tracelink scan

  # Scan production files only, fail CI below a B
  tracelink scan --scope production --fail-below B

  # Cap the orphan ratio for a pre-merge check
  tracelink scan --max-orphan-ratio 0.1 --format json`,
	Run: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanScope, "scope", scanner.ScopeAll, "Scan scope: production, docs, all")
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", FormatHuman, "Output format: human, json, yaml")
	scanCmd.Flags().StringVar(&scanFailBelow, "fail-below", "", "Exit nonzero when the grade is below this (A+, A, B, C, D)")
	scanCmd.Flags().Float64Var(&scanMaxOrphan, "max-orphan-ratio", -1, "Exit nonzero when the orphan ratio exceeds this")
	scanCmd.Flags().BoolVar(&scanSkipHistory, "no-history", false, "Do not record this run in the history database")

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) {
	start := time.Now()
	root := mustGetRoot()

	if !validFormat(scanFormat) {
		fmt.Fprintf(os.Stderr, "Invalid format: %s (use: human, json, yaml)\n", scanFormat)
		os.Exit(1)
	}

	// Parse the gate flags up front so a typo fails before the scan.
	var minGrade health.Grade
	if scanFailBelow != "" {
		parsed, err := health.ParseGrade(scanFailBelow)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid --fail-below: %v\n", err)
			os.Exit(1)
		}
		minGrade = parsed
	}

	cfg, err := config.LoadConfig(root)
	if err != nil {
		fail(err)
	}
	logger := newCommandLogger(cfg)

	res, err := engine.Run(context.Background(), engine.Options{
		Root:        root,
		Scope:       scanScope,
		Config:      cfg,
		Logger:      logger,
		SkipHistory: scanSkipHistory,
	})
	if err != nil {
		fail(err)
	}
	rec := res.Record

	printWarnings(os.Stderr, res.Warnings)

	out, err := renderRecord(rec, scanFormat)
	if err != nil {
		fail(err)
	}
	fmt.Print(out)

	if res.Saved != nil {
		if scanFormat == FormatHuman {
			fmt.Printf("\nRun recorded: %s\n", res.Saved.RunID)
		} else {
			logger.Debug("Run recorded", map[string]interface{}{
				"runId": res.Saved.RunID,
			})
		}
	}

	logger.Debug("Scan completed", map[string]interface{}{
		"score":      rec.Health.Score,
		"grade":      string(rec.Health.Grade),
		"markers":    rec.Tally.TotalOccurrences,
		"durationMs": time.Since(start).Milliseconds(),
	})

	// Gates run after the report prints so CI logs keep the evidence.
	if minGrade != "" && !rec.Health.Grade.Meets(minGrade) {
		fmt.Fprintf(os.Stderr, "\nGate violated: grade %s is below required %s\n", rec.Health.Grade, minGrade)
		os.Exit(2)
	}
	if scanMaxOrphan >= 0 && rec.Health.Ratios.OrphanRatio > scanMaxOrphan {
		fmt.Fprintf(os.Stderr, "\nGate violated: orphan ratio %.3f exceeds maximum %.3f\n",
			rec.Health.Ratios.OrphanRatio, scanMaxOrphan)
		os.Exit(2)
	}
}
