// Package chain validates traceability chains: it assigns exactly one
// classification to every graph entry, emits diagnostics for orphans,
// broken references, format violations and duplicate identifiers, and
// tallies the counts the health scorer consumes.
package chain

import (
	"tracelink/internal/graph"
	"tracelink/internal/marker"
)

// Classification describes the completeness state of one graph entry.
type Classification string

const (
	// Complete entries have Spec, Code and Test coverage.
	Complete Classification = "complete"
	// Partial entries have Spec plus one of Code or Test, not both.
	Partial Classification = "partial"
	// SpecOnly entries have Spec and Doc but neither Code nor Test.
	SpecOnly Classification = "spec_only"
	// PlannedOnly entries have a Spec and nothing else at all.
	PlannedOnly Classification = "planned_only"
	// Orphan entries have no Spec anywhere in their subtree or ancestry.
	Orphan Classification = "orphan"
)

// classify derives the classification for an entry. Spec presence is
// inherited from the ancestor path; Code, Test and Doc roll up from the
// entry's own subtree. Doc tracks as a bonus and never gates
// completeness. Extension kinds are ignored entirely.
func classify(e *graph.Entry, specAbove bool) Classification {
	spec := specAbove || e.SubtreeHas(marker.KindSpec)
	code := e.SubtreeHas(marker.KindCode)
	test := e.SubtreeHas(marker.KindTest)
	doc := e.SubtreeHas(marker.KindDoc)

	switch {
	case !spec:
		return Orphan
	case code && test:
		return Complete
	case code || test:
		return Partial
	case doc:
		return SpecOnly
	default:
		return PlannedOnly
	}
}

// NodeResult is the classification of one entry, root or child.
type NodeResult struct {
	Identifier     string         `json:"identifier"`
	Classification Classification `json:"classification"`
	// Started is false only while nothing beyond the Spec exists.
	Started bool `json:"started"`
	// Kinds holds the entry's own occurrence counts per kind,
	// extension kinds included.
	Kinds map[string]int `json:"kinds,omitempty"`
}

// Tally carries the counts the health scorer needs.
type Tally struct {
	// TotalOccurrences counts every recorded occurrence: core,
	// extension and malformed.
	TotalOccurrences int `json:"totalOccurrences"`
	// Malformed counts occurrences flagged by the extractor.
	Malformed int `json:"malformed"`
	// NonSpec counts well-formed Code, Test and Doc occurrences.
	NonSpec int `json:"nonSpec"`
	// Orphaned counts NonSpec occurrences living in Orphan entries.
	Orphaned int `json:"orphaned"`
	// RootCount is the number of top-level nodes.
	RootCount int `json:"rootCount"`
	// SpecRoots counts roots with a Spec anywhere in their subtree.
	SpecRoots int `json:"specRoots"`
	// CompleteRoots counts roots classified Complete.
	CompleteRoots int `json:"completeRoots"`
}

// Result is the validator output.
type Result struct {
	Nodes       []NodeResult           `json:"nodes,omitempty"`
	Diagnostics []Diagnostic           `json:"diagnostics,omitempty"`
	Tally       Tally                  `json:"tally"`
	Classes     map[Classification]int `json:"classes,omitempty"`
}
