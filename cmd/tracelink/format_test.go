package main

import (
	"strings"
	"testing"

	"tracelink/internal/chain"
	"tracelink/internal/health"
	"tracelink/internal/report"
)

func formatTestRecord() *report.Record {
	return &report.Record{
		Tool: report.ToolInfo{
			Name:          "tracelink",
			Version:       "1.2.0",
			SchemaVersion: report.SchemaVersion,
		},
		Scan: report.ScanInfo{
			Roots:        []string{"."},
			Scope:        "all",
			FilesScanned: 2,
		},
		Health: &health.Report{
			Score: 86.7,
			Grade: health.GradeA,
			Ratios: health.Ratios{
				OrphanRatio:       0.1,
				ChainCompleteness: 0.8,
				FormatCompliance:  1,
			},
		},
		Tally: chain.Tally{TotalOccurrences: 5, NonSpec: 3, SpecRoots: 2, CompleteRoots: 1, Orphaned: 1},
	}
}

func TestValidFormat(t *testing.T) {
	testCases := []struct {
		format string
		want   bool
	}{
		{"human", true},
		{"json", true},
		{"yaml", true},
		{"xml", false},
		{"", false},
		{"JSON", false},
	}

	for _, tc := range testCases {
		t.Run(tc.format, func(t *testing.T) {
			if got := validFormat(tc.format); got != tc.want {
				t.Errorf("validFormat(%q) = %v, want %v", tc.format, got, tc.want)
			}
		})
	}
}

func TestRenderRecordJSON(t *testing.T) {
	out, err := renderRecord(formatTestRecord(), FormatJSON)
	if err != nil {
		t.Fatalf("renderRecord failed: %v", err)
	}
	if !strings.Contains(out, `"score": 86.7`) {
		t.Errorf("JSON output should contain the score, got:\n%s", out)
	}
	if !strings.Contains(out, `"grade": "A"`) {
		t.Errorf("JSON output should contain the grade, got:\n%s", out)
	}
}

func TestRenderRecordYAML(t *testing.T) {
	out, err := renderRecord(formatTestRecord(), FormatYAML)
	if err != nil {
		t.Fatalf("renderRecord failed: %v", err)
	}
	if !strings.Contains(out, "score: 86.7") {
		t.Errorf("YAML output should contain the score, got:\n%s", out)
	}
}

func TestRenderRecordHuman(t *testing.T) {
	out, err := renderRecord(formatTestRecord(), FormatHuman)
	if err != nil {
		t.Fatalf("renderRecord failed: %v", err)
	}
	if !strings.Contains(out, "Traceability Report") {
		t.Errorf("Human output should contain the report header, got:\n%s", out)
	}
	if !strings.Contains(out, "86.7 / 100 (A)") {
		t.Errorf("Human output should contain the score line, got:\n%s", out)
	}
}

func TestRenderRecordUnknownFormat(t *testing.T) {
	if _, err := renderRecord(formatTestRecord(), "xml"); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestFormatTrend(t *testing.T) {
	testCases := []struct {
		name        string
		delta       float64
		hasPrevious bool
		want        string
	}{
		{"improvement", 2.5, true, "+2.5"},
		{"regression", -1.3, true, "-1.3"},
		{"flat", 0, true, "+0.0"},
		{"no previous run", 0, false, "-"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := formatTrend(tc.delta, tc.hasPrevious); got != tc.want {
				t.Errorf("formatTrend(%v, %v) = %q, want %q", tc.delta, tc.hasPrevious, got, tc.want)
			}
		})
	}
}

func TestShortRunID(t *testing.T) {
	testCases := []struct {
		id   string
		want string
	}{
		{"4f6b2c1a-9d3e-4b7f-8a21-0c5d6e7f8a9b", "4f6b2c1a"},
		{"short", "short"},
		{"", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.id, func(t *testing.T) {
			if got := shortRunID(tc.id); got != tc.want {
				t.Errorf("shortRunID(%q) = %q, want %q", tc.id, got, tc.want)
			}
		})
	}
}
