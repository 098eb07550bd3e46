// Package identifier normalizes raw marker identifiers into canonical
// form: an uppercase root plus zero or more child path segments. A
// second resolution pass folds hyphen-joined spellings under roots that
// are actually backed by Spec markers, so @Code:AGENT-CARD-001-UI-002
// and @Code:AGENT-CARD-001:UI-002 land on the same node.
package identifier

import (
	"sort"
	"strings"
)

// Canonical is a normalized identifier.
type Canonical struct {
	Root string
	Path []string
}

// Normalize case-folds a raw identifier and splits it on colons. The
// first segment becomes the root, the rest the child path. Empty
// segments are dropped so the normalizer is total even on malformed
// input.
func Normalize(raw string) Canonical {
	up := strings.ToUpper(strings.TrimSpace(raw))

	var segs []string
	for _, s := range strings.Split(up, ":") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	if len(segs) == 0 {
		return Canonical{}
	}
	return Canonical{Root: segs[0], Path: segs[1:]}
}

// Key returns the canonical string form, root and path joined by colons.
func (c Canonical) Key() string {
	if len(c.Path) == 0 {
		return c.Root
	}
	return c.Root + ":" + strings.Join(c.Path, ":")
}

func (c Canonical) String() string {
	return c.Key()
}

// IsZero reports whether the canonical form is empty.
func (c Canonical) IsZero() bool {
	return c.Root == ""
}

// Resolver folds hyphen-joined identifiers under known roots. Only
// roots backed by a Spec marker participate; an identifier with no
// matching known root keeps itself as its own root.
type Resolver struct {
	known map[string]bool
	// longest-first so AGENT-CARD-001 wins over AGENT-001 style overlaps
	ordered []string
}

// NewResolver builds a resolver from the set of Spec-backed roots.
func NewResolver(roots []string) *Resolver {
	r := &Resolver{known: make(map[string]bool, len(roots))}
	for _, root := range roots {
		if root == "" || r.known[root] {
			continue
		}
		r.known[root] = true
		r.ordered = append(r.ordered, root)
	}
	sort.Slice(r.ordered, func(i, j int) bool {
		if len(r.ordered[i]) != len(r.ordered[j]) {
			return len(r.ordered[i]) > len(r.ordered[j])
		}
		return r.ordered[i] < r.ordered[j]
	})
	return r
}

// Resolve re-roots c when its root is a hyphen-joined child of a known
// root. A root that is itself known, or matches no known prefix, is
// returned unchanged.
func (r *Resolver) Resolve(c Canonical) Canonical {
	if c.IsZero() || r.known[c.Root] {
		return c
	}
	for _, root := range r.ordered {
		if !strings.HasPrefix(c.Root, root+"-") {
			continue
		}
		rest := c.Root[len(root)+1:]
		if rest == "" {
			continue
		}
		path := make([]string, 0, len(c.Path)+1)
		path = append(path, rest)
		path = append(path, c.Path...)
		return Canonical{Root: root, Path: path}
	}
	return c
}
