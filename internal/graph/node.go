// Package graph folds marker occurrences into a reference graph: one
// node per canonical root identifier, with child path segments nested
// as entries. The fold is order-insensitive so graphs built from the
// same occurrence set are always identical.
package graph

import (
	"sort"

	"tracelink/internal/marker"
)

// Entry holds the occurrences recorded at one point in an identifier
// hierarchy plus any child entries keyed by their next path segment.
type Entry struct {
	ByKind   map[marker.Kind][]marker.Occurrence
	Children map[string]*Entry
}

// Node is a top-level identifier root with its nested entries.
type Node struct {
	Root string
	Entry
}

func newEntry() *Entry {
	return &Entry{
		ByKind:   make(map[marker.Kind][]marker.Occurrence),
		Children: make(map[string]*Entry),
	}
}

// child returns the entry for a path segment, creating it if needed.
func (e *Entry) child(segment string) *Entry {
	c, ok := e.Children[segment]
	if !ok {
		c = newEntry()
		e.Children[segment] = c
	}
	return c
}

// Has reports whether the entry itself records at least one occurrence
// of the kind.
func (e *Entry) Has(kind marker.Kind) bool {
	return len(e.ByKind[kind]) > 0
}

// SubtreeHas reports whether the entry or any descendant records at
// least one occurrence of the kind.
func (e *Entry) SubtreeHas(kind marker.Kind) bool {
	if e.Has(kind) {
		return true
	}
	for _, c := range e.Children {
		if c.SubtreeHas(kind) {
			return true
		}
	}
	return false
}

// KindCounts returns the entry's own occurrence counts per kind,
// including extension kinds.
func (e *Entry) KindCounts() map[string]int {
	if len(e.ByKind) == 0 {
		return nil
	}
	counts := make(map[string]int, len(e.ByKind))
	for kind, occs := range e.ByKind {
		counts[string(kind)] = len(occs)
	}
	return counts
}

// ChildSegments returns the child keys in sorted order.
func (e *Entry) ChildSegments() []string {
	if len(e.Children) == 0 {
		return nil
	}
	segs := make([]string, 0, len(e.Children))
	for s := range e.Children {
		segs = append(segs, s)
	}
	sort.Strings(segs)
	return segs
}

// Occurrences returns the entry's own occurrences across all kinds,
// sorted for deterministic iteration.
func (e *Entry) Occurrences() []marker.Occurrence {
	var occs []marker.Occurrence
	for _, list := range e.ByKind {
		occs = append(occs, list...)
	}
	marker.SortOccurrences(occs)
	return occs
}

// SubtreeOccurrences returns the occurrences of the entry and all
// descendants, sorted.
func (e *Entry) SubtreeOccurrences() []marker.Occurrence {
	occs := e.collect(nil)
	marker.SortOccurrences(occs)
	return occs
}

func (e *Entry) collect(occs []marker.Occurrence) []marker.Occurrence {
	for _, list := range e.ByKind {
		occs = append(occs, list...)
	}
	for _, c := range e.Children {
		occs = c.collect(occs)
	}
	return occs
}

// Walk visits the entry and every descendant depth-first in sorted
// segment order. The path argument holds the segments below the node
// root; it is empty for the root entry itself. Callbacks may retain the
// path slice.
func (e *Entry) Walk(path []string, fn func(path []string, e *Entry)) {
	fn(path, e)
	for _, seg := range e.ChildSegments() {
		next := make([]string, len(path)+1)
		copy(next, path)
		next[len(path)] = seg
		e.Children[seg].Walk(next, fn)
	}
}
