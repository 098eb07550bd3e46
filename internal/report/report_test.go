package report

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"tracelink/internal/chain"
	"tracelink/internal/graph"
	"tracelink/internal/health"
	"tracelink/internal/marker"
	"tracelink/internal/testutil"
)

func sampleRecord(t *testing.T) *Record {
	t.Helper()
	occs := []marker.Occurrence{
		{Kind: marker.KindSpec, Identifier: "AUTH-001", File: "specs/auth.spec", Line: 1, Column: 1},
		{Kind: marker.KindCode, Identifier: "AUTH-001", File: "src/auth.go", Line: 10, Column: 1},
		{Kind: marker.KindTest, Identifier: "AUTH-001", File: "src/auth_test.go", Line: 5, Column: 1},
		{Kind: marker.KindCode, Identifier: "STRAY-001", File: "src/stray.go", Line: 22, Column: 1},
	}
	res := chain.Validate(graph.Build(occs), occs, chain.Options{})
	scan := ScanInfo{Roots: []string{"."}, Scope: "production", FilesScanned: 4}
	return Build(scan, res, health.Score(res))
}

func TestBuild(t *testing.T) {
	rec := sampleRecord(t)

	if rec.Tool.Name != "tracelink" || rec.Tool.Version == "" {
		t.Errorf("tool info = %+v", rec.Tool)
	}
	if rec.Tool.SchemaVersion != SchemaVersion {
		t.Errorf("schema version = %s, want %s", rec.Tool.SchemaVersion, SchemaVersion)
	}
	if rec.Tally.TotalOccurrences != 4 {
		t.Errorf("total occurrences = %d, want 4", rec.Tally.TotalOccurrences)
	}
	if rec.Health == nil || rec.Health.Grade != health.GradeA {
		t.Errorf("health = %+v, want grade A", rec.Health)
	}
	if len(rec.Nodes) != 2 {
		t.Errorf("nodes = %d, want 2", len(rec.Nodes))
	}
}

func TestEncodeJSONDeterministic(t *testing.T) {
	first, err := EncodeJSON(sampleRecord(t))
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	for i := 0; i < 10; i++ {
		next, err := EncodeJSON(sampleRecord(t))
		if err != nil {
			t.Fatalf("EncodeJSON run %d: %v", i, err)
		}
		if !bytes.Equal(first, next) {
			t.Fatalf("encoding differs on run %d:\n%s\nvs\n%s", i, first, next)
		}
	}
}

func TestEncodeJSONOmitsEmptySections(t *testing.T) {
	occs := []marker.Occurrence{
		{Kind: marker.KindSpec, Identifier: "OK-001", File: "specs/ok.spec", Line: 1, Column: 1},
		{Kind: marker.KindCode, Identifier: "OK-001", File: "src/ok.go", Line: 2, Column: 1},
		{Kind: marker.KindTest, Identifier: "OK-001", File: "src/ok_test.go", Line: 3, Column: 1},
	}
	res := chain.Validate(graph.Build(occs), occs, chain.Options{})
	rec := Build(ScanInfo{Roots: []string{"."}, Scope: "all"}, res, health.Score(res))

	data, err := EncodeJSON(rec)
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	if strings.Contains(string(data), `"diagnostics"`) {
		t.Errorf("clean record should omit diagnostics:\n%s", data)
	}
	if !strings.Contains(string(data), `"nodes"`) {
		t.Errorf("record should keep nodes:\n%s", data)
	}
}

func TestEncodeYAMLMirrorsJSON(t *testing.T) {
	rec := sampleRecord(t)
	data, err := EncodeYAML(rec)
	if err != nil {
		t.Fatalf("EncodeYAML: %v", err)
	}

	var tree map[string]interface{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		t.Fatalf("yaml.Unmarshal: %v", err)
	}
	healthTree, ok := tree["health"].(map[string]interface{})
	if !ok {
		t.Fatalf("yaml missing health section:\n%s", data)
	}
	if _, ok := healthTree["grade"]; !ok {
		t.Errorf("yaml health missing grade:\n%s", data)
	}
	ratios, ok := healthTree["ratios"].(map[string]interface{})
	if !ok || ratios["orphanRatio"] == nil {
		t.Errorf("yaml should keep the JSON key spelling, got:\n%s", data)
	}
}

func TestEncodeYAMLDeterministic(t *testing.T) {
	first, err := EncodeYAML(sampleRecord(t))
	if err != nil {
		t.Fatalf("EncodeYAML: %v", err)
	}
	second, err := EncodeYAML(sampleRecord(t))
	if err != nil {
		t.Fatalf("EncodeYAML: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("yaml encoding differs:\n%s\nvs\n%s", first, second)
	}
}

func TestRenderText(t *testing.T) {
	out := RenderText(sampleRecord(t))

	for _, want := range []string{
		"Traceability Report - tracelink",
		strings.Repeat("=", 60),
		"Orphan Ratio:",
		"Chain Completeness:",
		"Format Compliance:",
		"Scope: production",
		"AUTH",
		"✓ AUTH-001 (complete)",
		"✗ STRAY-001 (orphan)",
		"Recommendations:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestRenderTextNoData(t *testing.T) {
	res := chain.Validate(nil, nil, chain.Options{})
	rec := Build(ScanInfo{Roots: []string{"."}, Scope: "all"}, res, health.Score(res))
	out := RenderText(rec)

	if !strings.Contains(out, "no markers found") {
		t.Errorf("summary missing no-data line:\n%s", out)
	}
	if strings.Contains(out, "Chains:") {
		t.Errorf("empty record should not list chains:\n%s", out)
	}
}

func TestRenderTextTruncatesDiagnostics(t *testing.T) {
	rec := sampleRecord(t)
	rec.Diagnostics = nil
	for i := 0; i < maxDiagnosticLines+5; i++ {
		rec.Diagnostics = append(rec.Diagnostics, chain.Diagnostic{
			Kind:     chain.KindOrphan,
			Severity: chain.SeverityWarning,
			File:     fmt.Sprintf("src/f%02d.go", i),
			Line:     i + 1,
			Message:  "no Spec marker found",
		})
	}
	out := RenderText(rec)

	if !strings.Contains(out, "... and 5 more") {
		t.Errorf("summary should truncate diagnostics:\n%s", out)
	}
}

// goldenRecord is a fixed record with every section populated, so the
// golden files pin the exact rendering independent of the pipeline and
// the tool version.
func goldenRecord() *Record {
	return &Record{
		Tool: ToolInfo{Name: "tracelink", Version: "1.2.0", SchemaVersion: "1"},
		Scan: ScanInfo{Roots: []string{"app", "docs"}, Scope: "all", FilesScanned: 6, FilesSkipped: 1},
		Health: &health.Report{
			Score: 57.5,
			Grade: health.GradeC,
			Ratios: health.Ratios{
				OrphanRatio:       0.5,
				ChainCompleteness: 0.5,
				FormatCompliance:  0.8,
			},
			Classes: map[chain.Classification]int{
				chain.Complete: 1,
				chain.Partial:  1,
				chain.Orphan:   1,
			},
			Recommendations: []string{
				"3 orphaned occurrence(s) have no Spec anchor. Add @Spec markers or remove stale annotations.",
				"1 of 2 spec chain(s) are incomplete. Add the missing @Code or @Test markers.",
				"2 malformed marker(s) reduce format compliance. Fix the reported format violations.",
			},
		},
		Tally: chain.Tally{
			TotalOccurrences: 10,
			Malformed:        2,
			NonSpec:          6,
			Orphaned:         3,
			RootCount:        3,
			SpecRoots:        2,
			CompleteRoots:    1,
		},
		Nodes: []chain.NodeResult{
			{Identifier: "AUTH-001", Classification: chain.Complete, Started: true,
				Kinds: map[string]int{"Spec": 1, "Code": 1, "Test": 1}},
			{Identifier: "PAY-001", Classification: chain.Orphan, Started: true,
				Kinds: map[string]int{"Code": 2, "Doc": 1}},
			{Identifier: "SESSION-001", Classification: chain.Partial, Started: true,
				Kinds: map[string]int{"Spec": 1, "Code": 1}},
		},
		Diagnostics: []chain.Diagnostic{
			{Kind: chain.KindFormatViolation, Severity: chain.SeverityError, Identifier: "auth_main",
				File: "src/auth.go", Line: 30,
				Message: `malformed marker "@Code:auth_main": identifier violates grammar`},
			{Kind: chain.KindFormatViolation, Severity: chain.SeverityError, Identifier: "pay1",
				File: "src/pay.go", Line: 7,
				Message: `malformed marker "@Test:pay1": identifier violates grammar`},
			{Kind: chain.KindOrphan, Severity: chain.SeverityWarning, Identifier: "PAY-001",
				File: "src/pay.go", Line: 12,
				Message: "no Spec marker found for PAY-001 in the scanned tree"},
		},
	}
}

// Refresh the golden files with: go test ./internal/report -update
func TestRenderTextGolden(t *testing.T) {
	out := RenderText(goldenRecord())
	testutil.AssertGolden(t, filepath.Join("testdata", "record.txt"), []byte(out))
}

func TestEncodeJSONGolden(t *testing.T) {
	data, err := EncodeJSON(goldenRecord())
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	testutil.AssertGolden(t, filepath.Join("testdata", "record.json"), data)
}

func TestDisplayPrefix(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"AUTH-001", "AUTH"},
		{"AGENT-CARD-001", "AGENT-CARD"},
		{"X-001:SUB-002", "X"},
		{"API", "API"},
		{"001", "001"},
		{"A-B", "A-B"},
	}

	for _, tt := range tests {
		if got := displayPrefix(tt.id); got != tt.want {
			t.Errorf("displayPrefix(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}
