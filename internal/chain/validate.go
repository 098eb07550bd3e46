package chain

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"tracelink/internal/graph"
	"tracelink/internal/marker"
)

// Options tunes a validation pass.
type Options struct {
	// ManifestRoots lists registered root identifiers in canonical
	// form. Nil disables the manifest cross-checks entirely; an empty
	// non-nil slice means a manifest exists but registers nothing.
	ManifestRoots []string
}

// Validate classifies every entry in the graph, collects diagnostics
// and tallies the counts the scorer consumes. Both inputs are read
// only; occurrences must be the full extractor output including
// malformed and extension-kind entries.
func Validate(nodes []*graph.Node, occs []marker.Occurrence, opts Options) *Result {
	v := &validator{
		res: &Result{Classes: make(map[Classification]int)},
	}

	for _, occ := range occs {
		v.res.Tally.TotalOccurrences++
		if occ.Malformed {
			v.res.Tally.Malformed++
			v.res.Diagnostics = append(v.res.Diagnostics, formatViolation(occ))
			continue
		}
		if occ.Kind.IsCore() && occ.Kind != marker.KindSpec {
			v.res.Tally.NonSpec++
		}
	}

	v.res.Tally.RootCount = len(nodes)
	for _, node := range nodes {
		v.walk(node.Root, &node.Entry, false, nil)
		if node.SubtreeHas(marker.KindSpec) {
			v.res.Tally.SpecRoots++
		}
		if classify(&node.Entry, false) == Complete {
			v.res.Tally.CompleteRoots++
		}
		v.checkDuplicateRoots(node)
	}

	if opts.ManifestRoots != nil {
		v.checkManifest(nodes, opts.ManifestRoots)
	}

	SortDiagnostics(v.res.Diagnostics)
	return v.res
}

type validator struct {
	res *Result
}

// walk classifies one entry and recurses into its children. specAbove
// reports whether any ancestor entry holds its own Spec occurrence;
// ancestorSpec carries those ancestors' Spec file paths for reference
// checks. Sibling subtrees contribute to neither.
func (v *validator) walk(id string, e *graph.Entry, specAbove bool, ancestorSpec []string) {
	class := classify(e, specAbove)
	v.res.Classes[class]++
	v.res.Nodes = append(v.res.Nodes, NodeResult{
		Identifier:     id,
		Classification: class,
		Started:        e.SubtreeHas(marker.KindCode) || e.SubtreeHas(marker.KindTest) || e.SubtreeHas(marker.KindDoc),
		Kinds:          e.KindCounts(),
	})

	own := e.Occurrences()
	if class == Orphan {
		v.res.Tally.Orphaned += countCoreNonSpec(own)
		// Entries holding only descendants get no diagnostic of
		// their own; the descendants carry the locations.
		if len(own) > 0 {
			v.res.Diagnostics = append(v.res.Diagnostics, Diagnostic{
				Kind:       KindOrphan,
				Severity:   SeverityWarning,
				Identifier: id,
				File:       own[0].File,
				Line:       own[0].Line,
				Message:    fmt.Sprintf("no Spec marker found for %s in the scanned tree", id),
			})
		}
	} else {
		visible := append(append([]string{}, ancestorSpec...), subtreeSpecFiles(e)...)
		v.checkReferences(id, own, visible)
	}

	childAncestor := append(append([]string{}, ancestorSpec...), ownSpecFiles(e)...)
	childSpecAbove := specAbove || len(e.ByKind[marker.KindSpec]) > 0
	for _, seg := range e.ChildSegments() {
		v.walk(id+":"+seg, e.Children[seg], childSpecAbove, childAncestor)
	}
}

// checkReferences verifies Spec metadata on the entry's own Code and
// Test occurrences against the Spec files visible to the entry.
func (v *validator) checkReferences(id string, own []marker.Occurrence, visible []string) {
	for _, occ := range own {
		if occ.Kind != marker.KindCode && occ.Kind != marker.KindTest {
			continue
		}
		ref, ok := occ.MetaValue("spec")
		if !ok || strings.TrimSpace(ref) == "" {
			continue
		}
		if specFileMatches(ref, visible) {
			continue
		}
		v.res.Diagnostics = append(v.res.Diagnostics, Diagnostic{
			Kind:       KindBrokenReference,
			Severity:   SeverityError,
			Identifier: id,
			File:       occ.File,
			Line:       occ.Line,
			Message:    fmt.Sprintf("marker references spec file %q but %s specs live in %s", ref, id, strings.Join(visible, ", ")),
		})
	}
}

// checkDuplicateRoots flags a node whose occurrences span two or more
// workspace roots. Single-root scans leave the label empty and are
// never flagged.
func (v *validator) checkDuplicateRoots(node *graph.Node) {
	labels := make(map[string]struct{})
	for _, occ := range node.SubtreeOccurrences() {
		if occ.Root != "" {
			labels[occ.Root] = struct{}{}
		}
	}
	if len(labels) < 2 {
		return
	}
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}
	sort.Strings(names)
	v.res.Diagnostics = append(v.res.Diagnostics, Diagnostic{
		Kind:       KindDuplicateAcrossRoots,
		Severity:   SeverityWarning,
		Identifier: node.Root,
		Message:    fmt.Sprintf("identifier %s appears in multiple workspace roots: %s", node.Root, strings.Join(names, ", ")),
	})
}

// checkManifest cross-checks scanned roots against the registered set.
func (v *validator) checkManifest(nodes []*graph.Node, registered []string) {
	known := make(map[string]struct{}, len(registered))
	for _, id := range registered {
		known[id] = struct{}{}
	}
	seen := make(map[string]struct{}, len(nodes))
	for _, node := range nodes {
		seen[node.Root] = struct{}{}
		if _, ok := known[node.Root]; !ok {
			v.res.Diagnostics = append(v.res.Diagnostics, Diagnostic{
				Kind:       KindUnregisteredIdentifier,
				Severity:   SeverityWarning,
				Identifier: node.Root,
				Message:    fmt.Sprintf("identifier %s is not registered in the manifest", node.Root),
			})
		}
	}
	for _, id := range registered {
		if _, ok := seen[id]; !ok {
			v.res.Diagnostics = append(v.res.Diagnostics, Diagnostic{
				Kind:       KindUnreferencedManifestEntry,
				Severity:   SeverityInfo,
				Identifier: id,
				Message:    fmt.Sprintf("manifest entry %s has no occurrences in the scanned tree", id),
			})
		}
	}
}

func formatViolation(occ marker.Occurrence) Diagnostic {
	return Diagnostic{
		Kind:       KindFormatViolation,
		Severity:   SeverityError,
		Identifier: occ.Identifier,
		File:       occ.File,
		Line:       occ.Line,
		Message:    fmt.Sprintf("malformed marker %q: %s", "@"+string(occ.Kind)+":"+occ.Identifier, occ.Reason),
	}
}

func countCoreNonSpec(occs []marker.Occurrence) int {
	n := 0
	for _, occ := range occs {
		if occ.Kind.IsCore() && occ.Kind != marker.KindSpec {
			n++
		}
	}
	return n
}

func ownSpecFiles(e *graph.Entry) []string {
	var files []string
	seen := make(map[string]struct{})
	for _, occ := range e.ByKind[marker.KindSpec] {
		if _, ok := seen[occ.File]; ok {
			continue
		}
		seen[occ.File] = struct{}{}
		files = append(files, occ.File)
	}
	return files
}

func subtreeSpecFiles(e *graph.Entry) []string {
	files := ownSpecFiles(e)
	for _, seg := range e.ChildSegments() {
		files = append(files, subtreeSpecFiles(e.Children[seg])...)
	}
	seen := make(map[string]struct{}, len(files))
	out := files[:0]
	for _, f := range files {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// specFileMatches reports whether a metadata reference resolves to one
// of the visible Spec files. References match exactly, as a trailing
// path suffix, or by bare file name when the reference carries no
// directory component.
func specFileMatches(ref string, files []string) bool {
	ref = strings.ReplaceAll(strings.TrimSpace(ref), "\\", "/")
	if ref == "" {
		return false
	}
	bare := !strings.Contains(ref, "/")
	for _, f := range files {
		if f == ref || strings.HasSuffix(f, "/"+ref) {
			return true
		}
		if bare && path.Base(f) == ref {
			return true
		}
	}
	return false
}
