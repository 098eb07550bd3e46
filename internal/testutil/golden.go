// Package testutil provides golden-file helpers for comparing rendered
// report output against checked-in expectations.
package testutil

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// updateGolden controls whether golden files are rewritten in place.
// Use: go test ./... -update
var updateGolden = flag.Bool("update", false, "update golden files")

// AssertGolden compares got against the golden file at path, failing
// with a pointer to the first divergence. With -update the golden file
// is rewritten from got instead of compared.
func AssertGolden(t *testing.T, path string, got []byte) {
	t.Helper()

	if *updateGolden {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("create golden dir: %v", err)
		}
		if err := os.WriteFile(path, got, 0o644); err != nil {
			t.Fatalf("write golden file: %v", err)
		}
		t.Logf("updated golden: %s", path)
		return
	}

	want, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("golden file missing: %s\n\ngot:\n%s\n\nrun with -update to create it",
				path, string(got))
		}
		t.Fatalf("read golden file: %v", err)
	}

	if !bytes.Equal(got, want) {
		t.Fatalf("golden mismatch for %s:\n%s\nrun with -update to refresh",
			path, diffSummary(want, got))
	}
}

// diffSummary points at the first line where output and golden
// diverge, with a little leading context.
func diffSummary(want, got []byte) string {
	wantLines := strings.Split(string(want), "\n")
	gotLines := strings.Split(string(got), "\n")

	line := 0
	for line < len(wantLines) && line < len(gotLines) && wantLines[line] == gotLines[line] {
		line++
	}

	var b strings.Builder
	fmt.Fprintf(&b, "first divergence at line %d\n", line+1)
	from := line - 2
	if from < 0 {
		from = 0
	}
	for i := from; i < line; i++ {
		fmt.Fprintf(&b, "  %4d   %s\n", i+1, wantLines[i])
	}
	if line < len(wantLines) {
		fmt.Fprintf(&b, "  %4d - %s\n", line+1, wantLines[line])
	} else {
		fmt.Fprintf(&b, "  %4d - <end of golden>\n", line+1)
	}
	if line < len(gotLines) {
		fmt.Fprintf(&b, "  %4d + %s\n", line+1, gotLines[line])
	} else {
		fmt.Fprintf(&b, "  %4d + <end of output>\n", line+1)
	}
	if len(wantLines) != len(gotLines) {
		fmt.Fprintf(&b, "golden has %d lines, output has %d\n", len(wantLines), len(gotLines))
	}
	return b.String()
}
