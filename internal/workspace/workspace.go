// Package workspace manages the multi-root workspace file. A workspace
// groups several scan roots under short labels so a single run can
// cover sibling repositories and attribute every occurrence to the
// root it came from.
package workspace

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	terrors "tracelink/internal/errors"
	"tracelink/internal/paths"
)

// labelPattern restricts labels to filesystem- and report-safe names.
var labelPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Root is one scan root in a workspace.
type Root struct {
	// UID is the immutable UUID for this root (never changes)
	UID string `toml:"uid"`

	// Label is the human-friendly name stamped on occurrences
	Label string `toml:"label"`

	// Path is the root directory, absolute or relative to the
	// directory holding the workspace file
	Path string `toml:"path"`

	// AddedAt is when the root was added to the workspace
	AddedAt time.Time `toml:"added_at"`
}

// ResolvePath returns the root directory as an absolute path, resolving
// relative entries against base.
func (r Root) ResolvePath(base string) string {
	if filepath.IsAbs(r.Path) {
		return r.Path
	}
	return filepath.Join(base, r.Path)
}

// Workspace represents the root structure of workspace.toml.
type Workspace struct {
	// Version is the schema version
	Version int `toml:"version"`

	// Roots is the list of scan roots
	Roots []Root `toml:"roots"`
}

// New creates an empty workspace.
func New() *Workspace {
	return &Workspace{Version: 1, Roots: []Root{}}
}

// Load reads the workspace file under a root directory. A missing file
// is not an error; it returns nil so callers fall back to single-root
// scanning.
func Load(rootDir string) (*Workspace, error) {
	path := paths.WorkspacePath(rootDir)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	var w Workspace
	if _, err := toml.DecodeFile(path, &w); err != nil {
		return nil, terrors.Wrap(terrors.WorkspaceInvalid, "failed to parse "+paths.WorkspaceFileName, err)
	}
	if w.Version < 1 {
		w.Version = 1
	}

	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &w, nil
}

// Save writes the workspace file under a root directory, creating the
// state directory if needed.
func (w *Workspace) Save(rootDir string) error {
	if _, err := paths.EnsureAppDir(rootDir); err != nil {
		return terrors.Wrap(terrors.WorkspaceInvalid, "failed to create state directory", err)
	}

	f, err := os.Create(paths.WorkspacePath(rootDir))
	if err != nil {
		return terrors.Wrap(terrors.WorkspaceInvalid, "failed to create "+paths.WorkspaceFileName, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(w); err != nil {
		return terrors.Wrap(terrors.WorkspaceInvalid, "failed to encode "+paths.WorkspaceFileName, err)
	}
	return nil
}

// AddRoot adds a scan root to the workspace.
func (w *Workspace) AddRoot(label, path string) (*Root, error) {
	if !labelPattern.MatchString(label) {
		return nil, terrors.New(terrors.WorkspaceInvalid, "invalid root label: "+label)
	}
	if path == "" {
		return nil, terrors.New(terrors.WorkspaceInvalid, "root path must not be empty")
	}
	for _, r := range w.Roots {
		if r.Label == label {
			return nil, terrors.New(terrors.WorkspaceInvalid, "root with label "+label+" already exists")
		}
		if r.Path == path {
			return nil, terrors.New(terrors.WorkspaceInvalid, "root at path "+path+" already exists (as "+r.Label+")")
		}
	}

	root := Root{
		UID:     uuid.New().String(),
		Label:   label,
		Path:    path,
		AddedAt: time.Now().UTC(),
	}
	w.Roots = append(w.Roots, root)
	return &root, nil
}

// RemoveRoot removes a scan root from the workspace by label.
func (w *Workspace) RemoveRoot(label string) error {
	for i, r := range w.Roots {
		if r.Label == label {
			w.Roots = append(w.Roots[:i], w.Roots[i+1:]...)
			return nil
		}
	}
	return terrors.New(terrors.WorkspaceInvalid, "root "+label+" not found in workspace")
}

// GetRoot returns a scan root by label, or nil.
func (w *Workspace) GetRoot(label string) *Root {
	for i := range w.Roots {
		if w.Roots[i].Label == label {
			return &w.Roots[i]
		}
	}
	return nil
}

// SortedRoots returns the roots ordered by label. Scans iterate this
// order so run output does not depend on the order roots were added.
func (w *Workspace) SortedRoots() []Root {
	roots := make([]Root, len(w.Roots))
	copy(roots, w.Roots)
	sort.Slice(roots, func(i, j int) bool {
		return roots[i].Label < roots[j].Label
	})
	return roots
}

// Validate checks the workspace structure.
func (w *Workspace) Validate() error {
	labels := make(map[string]bool, len(w.Roots))
	dirs := make(map[string]string, len(w.Roots))
	for _, r := range w.Roots {
		if !labelPattern.MatchString(r.Label) {
			return terrors.New(terrors.WorkspaceInvalid, "invalid root label: "+r.Label)
		}
		if r.Path == "" {
			return terrors.New(terrors.WorkspaceInvalid, "root "+r.Label+" has an empty path")
		}
		if labels[r.Label] {
			return terrors.New(terrors.WorkspaceInvalid, "duplicate root label: "+r.Label)
		}
		labels[r.Label] = true
		if prev, dup := dirs[r.Path]; dup {
			return terrors.New(terrors.WorkspaceInvalid, "roots "+prev+" and "+r.Label+" share the path "+r.Path)
		}
		dirs[r.Path] = r.Label
	}
	return nil
}
