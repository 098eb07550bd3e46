package main

import (
	"fmt"
	"io"

	"tracelink/internal/report"
	"tracelink/internal/scanner"
	"tracelink/internal/storage"
)

// Output formats accepted by scan and report.
const (
	FormatHuman = "human"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// validFormat reports whether f names a known output format.
func validFormat(f string) bool {
	switch f {
	case FormatHuman, FormatJSON, FormatYAML:
		return true
	}
	return false
}

// renderRecord renders a record in the requested format. JSON and YAML
// use the deterministic encoders so output is stable across runs.
func renderRecord(rec *report.Record, format string) (string, error) {
	switch format {
	case FormatJSON:
		data, err := report.EncodeJSON(rec)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case FormatYAML:
		data, err := report.EncodeYAML(rec)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case FormatHuman:
		return report.RenderText(rec), nil
	default:
		return "", fmt.Errorf("unknown output format %q (use: human, json, yaml)", format)
	}
}

// printWarnings writes scan warnings to w, one line per warning.
// Warnings stay out of the record, so this is the only place they
// surface.
func printWarnings(w io.Writer, warnings []scanner.Warning) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintf(w, "Warnings (%d):\n", len(warnings))
	for _, warning := range warnings {
		if warning.Root != "" {
			fmt.Fprintf(w, "  [%s] %s: %s (%s)\n", warning.Root, warning.File, warning.Message, warning.Code)
		} else {
			fmt.Fprintf(w, "  %s: %s (%s)\n", warning.File, warning.Message, warning.Code)
		}
	}
	fmt.Fprintln(w)
}

// formatTrend renders a score delta for the history listing. The
// oldest visible run has nothing to compare against.
func formatTrend(delta float64, hasPrevious bool) string {
	if !hasPrevious {
		return "-"
	}
	return fmt.Sprintf("%+.1f", delta)
}

// loadStoredRecord fetches a run summary and its record, defaulting to
// the latest run when runID is empty.
func loadStoredRecord(db *storage.DB, runID string) (*report.Record, *storage.RunSummary, error) {
	var sum *storage.RunSummary
	var err error
	if runID == "" {
		sum, err = db.LatestRun()
	} else {
		sum, err = db.GetRun(runID)
	}
	if err != nil {
		return nil, nil, err
	}
	rec, err := db.GetRecord(sum.RunID)
	if err != nil {
		return nil, nil, err
	}
	return rec, sum, nil
}
