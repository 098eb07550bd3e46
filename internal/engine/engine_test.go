package engine

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"tracelink/internal/chain"
	"tracelink/internal/config"
	terrors "tracelink/internal/errors"
	"tracelink/internal/health"
	"tracelink/internal/logging"
	"tracelink/internal/manifest"
	"tracelink/internal/paths"
	"tracelink/internal/report"
	"tracelink/internal/scanner"
	"tracelink/internal/storage"
	"tracelink/internal/workspace"
)

func quietLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{
		Format: logging.HumanFormat,
		Level:  logging.ErrorLevel,
		Output: io.Discard,
	})
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(abs, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.History.Enabled = false
	return cfg
}

func run(t *testing.T, opts Options) *RunResult {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	if opts.Config == nil {
		opts.Config = testConfig()
	}
	out, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return out
}

func TestRunSingleRoot(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"spec/auth.md":     "# Auth\n@Spec:AUTH-001 | title:Login\n",
		"src/auth.go":      "// @Code:AUTH-001\npackage auth\n",
		"src/auth_test.go": "// @Test:AUTH-001\npackage auth\n",
		"src/stray.go":     "// @Code:STRAY-001\npackage auth\n",
	})

	out := run(t, Options{Root: root})
	rec := out.Record

	if rec.Tally.TotalOccurrences != 4 {
		t.Errorf("TotalOccurrences = %d, want 4", rec.Tally.TotalOccurrences)
	}
	if rec.Tally.RootCount != 2 || rec.Tally.SpecRoots != 1 || rec.Tally.CompleteRoots != 1 {
		t.Errorf("roots = %d/%d/%d, want 2 total, 1 spec, 1 complete",
			rec.Tally.RootCount, rec.Tally.SpecRoots, rec.Tally.CompleteRoots)
	}
	if rec.Tally.Orphaned != 1 {
		t.Errorf("Orphaned = %d, want 1", rec.Tally.Orphaned)
	}
	// One orphaned occurrence out of three non-Spec occurrences.
	if rec.Health.Ratios.OrphanRatio != 0.333333 {
		t.Errorf("OrphanRatio = %v, want 0.333333", rec.Health.Ratios.OrphanRatio)
	}
	if rec.Health.Grade != health.GradeA {
		t.Errorf("Grade = %s, want %s (score %v)", rec.Health.Grade, health.GradeA, rec.Health.Score)
	}

	classes := make(map[string]chain.Classification, len(rec.Nodes))
	for _, n := range rec.Nodes {
		classes[n.Identifier] = n.Classification
	}
	if classes["AUTH-001"] != chain.Complete {
		t.Errorf("AUTH-001 = %s, want %s", classes["AUTH-001"], chain.Complete)
	}
	if classes["STRAY-001"] != chain.Orphan {
		t.Errorf("STRAY-001 = %s, want %s", classes["STRAY-001"], chain.Orphan)
	}

	if len(rec.Scan.Roots) != 1 || rec.Scan.Roots[0] != "." {
		t.Errorf("Scan.Roots = %v, want [.]", rec.Scan.Roots)
	}
	if rec.Scan.FilesScanned != 4 {
		t.Errorf("FilesScanned = %d, want 4", rec.Scan.FilesScanned)
	}
	if out.Saved != nil {
		t.Errorf("Saved = %+v, want nil with history disabled", out.Saved)
	}
}

func TestRunReclassifiesWhenSpecArrives(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/x.go": "// @Code:X-001\n",
	})

	before := run(t, Options{Root: root})
	if len(before.Record.Nodes) != 1 {
		t.Fatalf("nodes = %d, want 1", len(before.Record.Nodes))
	}
	if got := before.Record.Nodes[0].Classification; got != chain.Orphan {
		t.Fatalf("before = %s, want %s", got, chain.Orphan)
	}

	writeTree(t, root, map[string]string{
		"spec/x.md": "@Spec:X-001\n",
	})

	after := run(t, Options{Root: root})
	if len(after.Record.Nodes) != 1 {
		t.Fatalf("nodes = %d, want 1", len(after.Record.Nodes))
	}
	if got := after.Record.Nodes[0].Classification; got != chain.Partial {
		t.Errorf("after = %s, want %s", got, chain.Partial)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"spec/pay.md":    "@Spec:PAY-001\n@Spec:PAY-001:REFUND-001\n",
		"src/pay.go":     "// @Code:PAY-001:REFUND-001 | impl:partial\n",
		"docs/pay.md":    "@Doc:PAY-001\n",
		"src/broken.txt": "@Code:pay-001\n",
	})

	first := run(t, Options{Root: root})
	second := run(t, Options{Root: root})

	a, err := report.EncodeJSON(first.Record)
	if err != nil {
		t.Fatal(err)
	}
	b, err := report.EncodeJSON(second.Record)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Errorf("repeated runs differ:\nfirst:\n%s\nsecond:\n%s", a, b)
	}
}

func TestRunRecordsHistory(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/auth.go": "// @Spec:AUTH-001\n// @Code:AUTH-001\n",
	})

	cfg := config.DefaultConfig()
	out := run(t, Options{Root: root, Config: cfg})
	if out.HistoryErr != nil {
		t.Fatalf("HistoryErr = %v", out.HistoryErr)
	}
	if out.Saved == nil {
		t.Fatal("Saved = nil, want recorded run")
	}

	db, err := storage.Open(root, quietLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	stored, err := db.GetRecord(out.Saved.RunID)
	if err != nil {
		t.Fatalf("GetRecord() error = %v", err)
	}

	want, err := report.EncodeJSON(out.Record)
	if err != nil {
		t.Fatal(err)
	}
	got, err := report.EncodeJSON(stored)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Error("stored record differs from the run record")
	}

	run(t, Options{Root: root, Config: cfg})
	runs, err := db.ListRuns(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Errorf("len(runs) = %d, want 2", len(runs))
	}
}

func TestRunSkipHistory(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/auth.go": "// @Spec:AUTH-001\n",
	})

	out := run(t, Options{Root: root, Config: config.DefaultConfig(), SkipHistory: true})
	if out.Saved != nil || out.HistoryErr != nil {
		t.Errorf("Saved = %+v, HistoryErr = %v, want neither with SkipHistory", out.Saved, out.HistoryErr)
	}
	if _, err := os.Stat(paths.DatabasePath(root)); !os.IsNotExist(err) {
		t.Error("history database was created despite SkipHistory")
	}
}

func TestRunWorkspaceMergesRoots(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base, map[string]string{
		"repo-a/spec/auth.md": "@Spec:AUTH-001\n",
		"repo-a/src/auth.go":  "// @Code:AUTH-001\n",
		"repo-b/src/auth.go":  "// @Code:AUTH-001\n// @Test:AUTH-001\n",
	})

	ws := workspace.New()
	if _, err := ws.AddRoot("beta", "repo-b"); err != nil {
		t.Fatal(err)
	}
	if _, err := ws.AddRoot("alpha", "repo-a"); err != nil {
		t.Fatal(err)
	}
	if err := ws.Save(base); err != nil {
		t.Fatal(err)
	}

	out := run(t, Options{Root: base})
	rec := out.Record

	// Labels sorted regardless of add order.
	if len(rec.Scan.Roots) != 2 || rec.Scan.Roots[0] != "alpha" || rec.Scan.Roots[1] != "beta" {
		t.Errorf("Scan.Roots = %v, want [alpha beta]", rec.Scan.Roots)
	}
	if rec.Tally.RootCount != 1 || rec.Tally.CompleteRoots != 1 {
		t.Errorf("RootCount/CompleteRoots = %d/%d, want 1/1", rec.Tally.RootCount, rec.Tally.CompleteRoots)
	}

	var dup []chain.Diagnostic
	for _, d := range rec.Diagnostics {
		if d.Kind == chain.KindDuplicateAcrossRoots {
			dup = append(dup, d)
		}
	}
	if len(dup) != 1 {
		t.Fatalf("duplicate diagnostics = %d, want 1", len(dup))
	}
	if dup[0].Identifier != "AUTH-001" {
		t.Errorf("duplicate identifier = %s, want AUTH-001", dup[0].Identifier)
	}
}

func TestRunManifestCrossChecks(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/auth.go": "// @Spec:AUTH-001\n// @Code:AUTH-001\n",
	})
	err := manifest.Write(paths.ManifestPath(root), &manifest.File{
		Version: 1,
		Entries: []manifest.Entry{{ID: "PAY-001", Title: "Payments"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	out := run(t, Options{Root: root})

	kinds := make(map[chain.DiagnosticKind][]string)
	for _, d := range out.Record.Diagnostics {
		kinds[d.Kind] = append(kinds[d.Kind], d.Identifier)
	}
	if got := kinds[chain.KindUnregisteredIdentifier]; len(got) != 1 || got[0] != "AUTH-001" {
		t.Errorf("unregistered = %v, want [AUTH-001]", got)
	}
	if got := kinds[chain.KindUnreferencedManifestEntry]; len(got) != 1 || got[0] != "PAY-001" {
		t.Errorf("unreferenced = %v, want [PAY-001]", got)
	}
}

func TestRunScopeFiltering(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/auth.go":   "// @Spec:AUTH-001\n// @Code:AUTH-001\n",
		"docs/guide.md": "@Doc:AUTH-001\n",
	})

	production := run(t, Options{Root: root, Scope: scanner.ScopeProduction})
	if production.Record.Tally.TotalOccurrences != 2 {
		t.Errorf("production occurrences = %d, want 2", production.Record.Tally.TotalOccurrences)
	}

	docs := run(t, Options{Root: root, Scope: scanner.ScopeDocs})
	if docs.Record.Tally.TotalOccurrences != 1 {
		t.Errorf("docs occurrences = %d, want 1", docs.Record.Tally.TotalOccurrences)
	}

	all := run(t, Options{Root: root, Scope: scanner.ScopeAll})
	if all.Record.Tally.TotalOccurrences != 3 {
		t.Errorf("all occurrences = %d, want 3", all.Record.Tally.TotalOccurrences)
	}
}

func TestRunUnknownScope(t *testing.T) {
	_, err := Run(context.Background(), Options{
		Root:   t.TempDir(),
		Scope:  "sideways",
		Config: testConfig(),
		Logger: quietLogger(),
	})
	if err == nil {
		t.Fatal("Run() error = nil, want SCOPE_UNKNOWN")
	}
	if code := terrors.CodeOf(err); code != terrors.ScopeUnknown {
		t.Errorf("CodeOf(err) = %v, want %v", code, terrors.ScopeUnknown)
	}
}

func TestRunMissingRoot(t *testing.T) {
	_, err := Run(context.Background(), Options{
		Root:   filepath.Join(t.TempDir(), "nope"),
		Config: testConfig(),
		Logger: quietLogger(),
	})
	if err == nil {
		t.Fatal("Run() error = nil, want ROOT_NOT_FOUND")
	}
	if code := terrors.CodeOf(err); code != terrors.RootNotFound {
		t.Errorf("CodeOf(err) = %v, want %v", code, terrors.RootNotFound)
	}
}

func TestRunEmptyTree(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"README.md": "nothing to see\n",
	})

	out := run(t, Options{Root: root})
	if !out.Record.Health.NoData {
		t.Error("NoData = false, want true for a tree without markers")
	}
	if out.Record.Health.Score != 0 || out.Record.Health.Grade != health.GradeF {
		t.Errorf("Score/Grade = %v/%s, want 0/F", out.Record.Health.Score, out.Record.Health.Grade)
	}
}
