// Package scanner walks a source tree and extracts marker occurrences
// from every text file in scope, using a fixed worker pool with a
// per-file timeout.
package scanner

import (
	"bufio"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"tracelink/internal/config"
	terrors "tracelink/internal/errors"
	"tracelink/internal/logging"
	"tracelink/internal/marker"
	"tracelink/internal/paths"
)

// Scope names. Production excludes documentation files, docs includes
// only them, all scans everything.
const (
	ScopeProduction = "production"
	ScopeDocs       = "docs"
	ScopeAll        = "all"
)

// ValidScope reports whether s names a known scope.
func ValidScope(s string) bool {
	switch s {
	case ScopeProduction, ScopeDocs, ScopeAll:
		return true
	}
	return false
}

// Warning codes.
const (
	WarnTimeout    = "timeout"
	WarnUnreadable = "unreadable"
	WarnFileLimit  = "file_limit"
)

// Warning records a non-fatal problem with a single file. The scan
// continues past it.
type Warning struct {
	File    string `json:"file"`
	Code    string `json:"code"`
	Message string `json:"message"`
	// Root is the workspace root label, matching Occurrence.Root.
	Root string `json:"root,omitempty"`
}

// Options configures a scan of one root.
type Options struct {
	// Root is the directory to scan.
	Root string
	// Label is stamped on every occurrence as its workspace root
	// label. Empty for single-root scans.
	Label string
	// Scope filters files; empty means all.
	Scope  string
	Config *config.Config
	Logger *logging.Logger
}

// Result is the outcome of scanning one root.
type Result struct {
	Occurrences  []marker.Occurrence
	FilesScanned int
	FilesSkipped int
	Warnings     []Warning
}

type fileJob struct {
	abs string
	rel string
}

// Scan extracts marker occurrences from every file in scope under the
// root. Unreadable files, oversized files and per-file timeouts are
// reported as warnings; only a missing or unreadable root, an unknown
// scope or context cancellation abort the scan. Occurrences come back
// fully sorted regardless of worker scheduling.
func Scan(ctx context.Context, opts Options) (*Result, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewLogger(logging.Config{Format: logging.HumanFormat, Level: logging.WarnLevel})
	}
	scope := opts.Scope
	if scope == "" {
		scope = ScopeAll
	}
	if !ValidScope(scope) {
		return nil, terrors.New(terrors.ScopeUnknown, "unknown scope: "+scope)
	}

	info, err := os.Stat(opts.Root)
	if os.IsNotExist(err) {
		return nil, terrors.New(terrors.RootNotFound, "root directory not found: "+opts.Root)
	}
	if err != nil {
		return nil, terrors.Wrap(terrors.RootNotReadable, "cannot access root: "+opts.Root, err)
	}
	if !info.IsDir() {
		return nil, terrors.New(terrors.RootNotFound, "root is not a directory: "+opts.Root)
	}

	res := &Result{}
	files, err := collectFiles(ctx, opts.Root, scope, cfg, res, logger)
	if err != nil {
		return nil, err
	}

	workers := cfg.Scan.Workers
	if workers <= 0 {
		workers = 4
	}
	timeout := time.Duration(cfg.Scan.FileTimeoutMs) * time.Millisecond

	jobs := make(chan fileJob)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for job := range jobs {
				if ctx.Err() != nil {
					continue
				}
				occs, ferr := scanFile(ctx, job, timeout)

				mu.Lock()
				switch {
				case ferr == nil:
					res.FilesScanned++
					res.Occurrences = append(res.Occurrences, occs...)
				case ctx.Err() != nil:
					// Outer cancellation, reported after the drain.
				case ferr == context.DeadlineExceeded:
					res.FilesSkipped++
					res.Warnings = append(res.Warnings, Warning{
						File:    job.rel,
						Code:    WarnTimeout,
						Message: "file scan exceeded " + timeout.String(),
					})
				default:
					res.FilesSkipped++
					res.Warnings = append(res.Warnings, Warning{
						File:    job.rel,
						Code:    WarnUnreadable,
						Message: ferr.Error(),
					})
				}
				mu.Unlock()
			}
		}(i)
	}

feed:
	for _, job := range files {
		select {
		case jobs <- job:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if opts.Label != "" {
		for i := range res.Occurrences {
			res.Occurrences[i].Root = opts.Label
		}
		for i := range res.Warnings {
			res.Warnings[i].Root = opts.Label
		}
	}
	marker.SortOccurrences(res.Occurrences)
	sort.Slice(res.Warnings, func(i, j int) bool {
		if res.Warnings[i].File != res.Warnings[j].File {
			return res.Warnings[i].File < res.Warnings[j].File
		}
		return res.Warnings[i].Code < res.Warnings[j].Code
	})

	logger.Debug("Scan finished", map[string]interface{}{
		"root":        opts.Root,
		"scope":       scope,
		"scanned":     res.FilesScanned,
		"skipped":     res.FilesSkipped,
		"occurrences": len(res.Occurrences),
	})
	return res, nil
}

// collectFiles walks the root and gathers the files to scan. Skips are
// counted on the result; unreadable subtrees produce warnings rather
// than aborting.
func collectFiles(ctx context.Context, root, scope string, cfg *config.Config, res *Result, logger *logging.Logger) ([]fileJob, error) {
	ignore := make(map[string]bool, len(cfg.Scan.IgnoreDirs))
	for _, dir := range cfg.Scan.IgnoreDirs {
		ignore[dir] = true
	}
	maxFiles := cfg.Scan.MaxFiles
	if maxFiles <= 0 {
		maxFiles = 10000
	}
	maxSize := int64(cfg.Scan.MaxFileSizeBytes)

	var files []fileJob
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return terrors.Wrap(terrors.RootNotReadable, "cannot read root: "+root, err)
			}
			rel := relPath(root, path)
			res.Warnings = append(res.Warnings, Warning{File: rel, Code: WarnUnreadable, Message: err.Error()})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && ignore[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel := relPath(root, path)
		if isBinaryFile(path) {
			res.FilesSkipped++
			return nil
		}
		if !scopeAllows(scope, rel, cfg.Scope) {
			res.FilesSkipped++
			return nil
		}
		if info, ierr := d.Info(); ierr == nil && info.Size() > maxSize {
			res.FilesSkipped++
			logger.Debug("Skipping large file", map[string]interface{}{
				"file": rel,
				"size": info.Size(),
			})
			return nil
		}

		if len(files) >= maxFiles {
			res.Warnings = append(res.Warnings, Warning{
				Code:    WarnFileLimit,
				Message: "file limit reached, remaining files not scanned",
			})
			return filepath.SkipAll
		}
		files = append(files, fileJob{abs: path, rel: rel})
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return files, nil
}

// scanFile extracts occurrences from a single file, honoring the
// per-file deadline.
func scanFile(ctx context.Context, job fileJob, timeout time.Duration) ([]marker.Occurrence, error) {
	fctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	f, err := os.Open(job.abs)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var occs []marker.Occurrence
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), marker.MaxLineBytes)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		// The deadline check is amortized across lines.
		if lineNum%128 == 0 {
			if err := fctx.Err(); err != nil {
				return nil, context.DeadlineExceeded
			}
		}
		occs = append(occs, marker.ExtractLine(job.rel, lineNum, sc.Text())...)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if err := fctx.Err(); err != nil {
		return nil, context.DeadlineExceeded
	}
	return occs, nil
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return paths.NormalizePath(path)
	}
	return paths.NormalizePath(rel)
}

// scopeAllows applies the docs partition to a relative path.
func scopeAllows(scope, rel string, rule config.ScopeConfig) bool {
	switch scope {
	case ScopeProduction:
		return !isDocsFile(rel, rule)
	case ScopeDocs:
		return isDocsFile(rel, rule)
	default:
		return true
	}
}

func isDocsFile(rel string, rule config.ScopeConfig) bool {
	ext := strings.ToLower(filepath.Ext(rel))
	for _, e := range rule.DocsExtensions {
		if ext == e {
			return true
		}
	}
	segs := strings.Split(rel, "/")
	for _, seg := range segs[:len(segs)-1] {
		for _, d := range rule.DocsDirs {
			if seg == d {
				return true
			}
		}
	}
	return false
}

// binaryExtensions lists file extensions that never contain markers.
var binaryExtensions = map[string]bool{
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".a": true, ".o": true,
	".zip": true, ".tar": true, ".gz": true, ".bz2": true, ".xz": true, ".zst": true, ".7z": true,
	".jar": true, ".war": true, ".class": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".ico": true, ".webp": true,
	".mp3": true, ".mp4": true, ".avi": true, ".mov": true, ".wav": true,
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".bin": true, ".dat": true, ".db": true, ".sqlite": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true,
	".pyc": true, ".pyo": true, ".wasm": true,
}

func isBinaryFile(path string) bool {
	return binaryExtensions[strings.ToLower(filepath.Ext(path))]
}
