package graph

import (
	"sort"

	"tracelink/internal/identifier"
	"tracelink/internal/marker"
)

// Build folds occurrences into root nodes in two passes. Pass one
// collects the roots backed by well-formed Spec markers; pass two
// resolves every occurrence against those roots and files it under its
// node and path entry. Malformed occurrences never enter the graph;
// they surface through diagnostics and the format compliance ratio.
func Build(occs []marker.Occurrence) []*Node {
	resolver := identifier.NewResolver(specRoots(occs))

	type dedupKey struct {
		kind marker.Kind
		id   string
		root string
		file string
		line int
	}
	seen := make(map[dedupKey]bool)

	nodes := make(map[string]*Node)
	for _, occ := range occs {
		if occ.Malformed {
			continue
		}
		canon := resolver.Resolve(identifier.Normalize(occ.Identifier))
		if canon.IsZero() {
			continue
		}

		key := dedupKey{occ.Kind, canon.Key(), occ.Root, occ.File, occ.Line}
		if seen[key] {
			continue
		}
		seen[key] = true

		node, ok := nodes[canon.Root]
		if !ok {
			node = &Node{Root: canon.Root, Entry: *newEntry()}
			nodes[canon.Root] = node
		}

		entry := &node.Entry
		for _, seg := range canon.Path {
			entry = entry.child(seg)
		}
		entry.ByKind[occ.Kind] = append(entry.ByKind[occ.Kind], occ)
	}

	result := make([]*Node, 0, len(nodes))
	for _, node := range nodes {
		sortEntry(&node.Entry)
		result = append(result, node)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Root < result[j].Root
	})
	return result
}

// specRoots returns the normalized roots of all well-formed Spec
// occurrences.
func specRoots(occs []marker.Occurrence) []string {
	var roots []string
	for _, occ := range occs {
		if occ.Malformed || occ.Kind != marker.KindSpec {
			continue
		}
		canon := identifier.Normalize(occ.Identifier)
		if !canon.IsZero() {
			roots = append(roots, canon.Root)
		}
	}
	return roots
}

// sortEntry orders every occurrence list so the fold result does not
// depend on input order.
func sortEntry(e *Entry) {
	for _, list := range e.ByKind {
		marker.SortOccurrences(list)
	}
	for _, c := range e.Children {
		sortEntry(c)
	}
}
