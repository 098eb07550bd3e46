// Package engine wires the pipeline stages together: scan the tree,
// fold occurrences into the reference graph, validate chains, score
// health and assemble the report record.
package engine

import (
	"context"
	"sort"

	"tracelink/internal/chain"
	"tracelink/internal/config"
	terrors "tracelink/internal/errors"
	"tracelink/internal/graph"
	"tracelink/internal/health"
	"tracelink/internal/logging"
	"tracelink/internal/manifest"
	"tracelink/internal/marker"
	"tracelink/internal/report"
	"tracelink/internal/scanner"
	"tracelink/internal/storage"
	"tracelink/internal/workspace"
)

// Options configures one pipeline run.
type Options struct {
	// Root is the primary scan root. Configuration, manifest, workspace
	// file and history database all live under it.
	Root string

	// Scope filters files: production, docs or all. Empty means all.
	Scope string

	// Config overrides the configuration loaded from Root when non-nil.
	Config *config.Config

	// Logger receives progress and warnings. Nil falls back to stderr
	// at warn level.
	Logger *logging.Logger

	// SkipHistory disables run recording regardless of configuration.
	SkipHistory bool
}

// RunResult bundles the outcome of one pipeline run.
type RunResult struct {
	// Record is the deterministic scan record.
	Record *report.Record

	// Warnings are the per-file scan warnings. They stay out of the
	// record so repeated scans of an unchanged tree encode identically;
	// callers print them alongside the report instead.
	Warnings []scanner.Warning

	// Saved is the history row for this run, nil when recording was
	// disabled or failed.
	Saved *storage.RunSummary

	// HistoryErr is the recording failure, if any. A failed save does
	// not fail the run.
	HistoryErr error
}

// Run executes the full pipeline on a root. When a workspace file with
// roots exists under the root, those roots are scanned and merged;
// otherwise the root itself is scanned.
func Run(ctx context.Context, opts Options) (*RunResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewLogger(logging.Config{Format: logging.HumanFormat, Level: logging.WarnLevel})
	}

	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.LoadConfig(opts.Root)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return nil, terrors.Wrap(terrors.ConfigInvalid, "invalid configuration", err)
	}

	scope := opts.Scope
	if scope == "" {
		scope = scanner.ScopeAll
	}
	if !scanner.ValidScope(scope) {
		return nil, terrors.New(terrors.ScopeUnknown, "unknown scope: "+scope)
	}

	ws, err := workspace.Load(opts.Root)
	if err != nil {
		return nil, err
	}

	var occs []marker.Occurrence
	var warnings []scanner.Warning
	scanInfo := report.ScanInfo{Scope: scope}

	if ws != nil && len(ws.Roots) > 0 {
		for _, root := range ws.SortedRoots() {
			res, err := scanner.Scan(ctx, scanner.Options{
				Root:   root.ResolvePath(opts.Root),
				Label:  root.Label,
				Scope:  scope,
				Config: cfg,
				Logger: logger,
			})
			if err != nil {
				return nil, err
			}
			occs = append(occs, res.Occurrences...)
			warnings = append(warnings, res.Warnings...)
			scanInfo.FilesScanned += res.FilesScanned
			scanInfo.FilesSkipped += res.FilesSkipped
			scanInfo.Roots = append(scanInfo.Roots, root.Label)
		}
		marker.SortOccurrences(occs)
		sortWarnings(warnings)
	} else {
		res, err := scanner.Scan(ctx, scanner.Options{
			Root:   opts.Root,
			Scope:  scope,
			Config: cfg,
			Logger: logger,
		})
		if err != nil {
			return nil, err
		}
		occs = res.Occurrences
		warnings = res.Warnings
		scanInfo.FilesScanned = res.FilesScanned
		scanInfo.FilesSkipped = res.FilesSkipped
		// The record must not embed machine paths; a single-root scan
		// is identified by "." just like workspace scans use labels.
		scanInfo.Roots = []string{"."}
	}

	man, err := manifest.Load(opts.Root)
	if err != nil {
		return nil, err
	}

	nodes := graph.Build(occs)
	res := chain.Validate(nodes, occs, chain.Options{ManifestRoots: man.Roots()})
	rep := health.Score(res)
	rec := report.Build(scanInfo, res, rep)

	out := &RunResult{Record: rec, Warnings: warnings}

	if cfg.History.Enabled && !opts.SkipHistory {
		out.Saved, out.HistoryErr = record(rec, opts.Root, cfg, logger)
	}

	return out, nil
}

// record saves the run and applies the retention window.
func record(rec *report.Record, root string, cfg *config.Config, logger *logging.Logger) (*storage.RunSummary, error) {
	db, err := storage.Open(root, logger)
	if err != nil {
		logger.Warn("History unavailable, run not recorded", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}
	defer db.Close()

	saved, err := db.SaveRun(rec)
	if err != nil {
		logger.Warn("Failed to record run", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	if cfg.History.RetentionDays > 0 {
		removed, err := db.PruneOlderThan(cfg.History.RetentionDays)
		if err != nil {
			logger.Warn("Failed to prune old runs", map[string]interface{}{
				"error": err.Error(),
			})
		} else if removed > 0 {
			logger.Debug("Pruned old runs", map[string]interface{}{
				"removed":        removed,
				"retention_days": cfg.History.RetentionDays,
			})
		}
	}

	return saved, nil
}

func sortWarnings(warnings []scanner.Warning) {
	sort.Slice(warnings, func(i, j int) bool {
		if warnings[i].Root != warnings[j].Root {
			return warnings[i].Root < warnings[j].Root
		}
		if warnings[i].File != warnings[j].File {
			return warnings[i].File < warnings[j].File
		}
		return warnings[i].Code < warnings[j].Code
	})
}
