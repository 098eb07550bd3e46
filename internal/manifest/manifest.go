// Package manifest reads and writes TRACE.toml, the optional registry
// of traceability identifiers a tree is expected to carry.
package manifest

import (
	"os"
	"path/filepath"
	"sort"

	toml "github.com/pelletier/go-toml/v2"

	terrors "tracelink/internal/errors"
	"tracelink/internal/identifier"
	"tracelink/internal/paths"
)

// Entry declares one registered root identifier.
type Entry struct {
	// ID is the root identifier, e.g. AUTH-001.
	ID string `toml:"id"`

	// Title is a human-readable summary of the requirement.
	Title string `toml:"title,omitempty"`

	// Owner is the owner reference (e.g. @team-name or user@email.com).
	Owner string `toml:"owner,omitempty"`

	// Tags are classification tags for the identifier.
	Tags []string `toml:"tags,omitempty"`
}

// File represents the root structure of TRACE.toml.
type File struct {
	// Version is the schema version.
	Version int `toml:"version"`

	// Entries is the list of registered identifiers.
	Entries []Entry `toml:"identifier"`
}

// Load reads the manifest under a root. A missing manifest is not an
// error; it returns nil and disables manifest cross-checks.
func Load(root string) (*File, error) {
	path := paths.ManifestPath(root)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	return Parse(path)
}

// Parse parses a manifest file from the given path.
func Parse(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, terrors.Wrap(terrors.ManifestInvalid, "failed to read "+paths.ManifestFileName, err)
	}

	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, terrors.Wrap(terrors.ManifestInvalid, "failed to parse "+paths.ManifestFileName, err)
	}
	if f.Version < 1 {
		f.Version = 1
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks entry identifiers. Registered identifiers must be
// root-form: no child path segments.
func (f *File) Validate() error {
	seen := make(map[string]string, len(f.Entries))
	for _, e := range f.Entries {
		if e.ID == "" {
			return terrors.New(terrors.ManifestInvalid, "manifest entry missing required 'id' field")
		}
		canon := identifier.Normalize(e.ID)
		if canon.IsZero() {
			return terrors.New(terrors.ManifestInvalid, "manifest entry has invalid id: "+e.ID)
		}
		if len(canon.Path) > 0 {
			return terrors.New(terrors.ManifestInvalid, "manifest entry must be a root identifier, got: "+e.ID)
		}
		if prev, dup := seen[canon.Root]; dup {
			return terrors.New(terrors.ManifestInvalid, "duplicate manifest entries: "+prev+" and "+e.ID)
		}
		seen[canon.Root] = e.ID
	}
	return nil
}

// Roots returns the registered identifiers in canonical form, sorted.
func (f *File) Roots() []string {
	if f == nil {
		return nil
	}
	roots := make([]string, 0, len(f.Entries))
	for _, e := range f.Entries {
		roots = append(roots, identifier.Normalize(e.ID).Root)
	}
	sort.Strings(roots)
	return roots
}

// Write writes a manifest to the given path.
func Write(path string, f *File) error {
	data, err := toml.Marshal(f)
	if err != nil {
		return terrors.Wrap(terrors.ManifestInvalid, "failed to marshal "+paths.ManifestFileName, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// CreateExample writes an example manifest to the given path.
func CreateExample(path string) error {
	example := &File{
		Version: 1,
		Entries: []Entry{
			{
				ID:    "AUTH-001",
				Title: "User authentication",
				Owner: "@platform-team",
				Tags:  []string{"core", "security"},
			},
			{
				ID:    "PAY-001",
				Title: "Payment processing",
				Owner: "@billing-team",
				Tags:  []string{"core"},
			},
		},
	}
	return Write(path, example)
}
