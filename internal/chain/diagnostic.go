package chain

import "sort"

// Severity ranks a diagnostic. Errors are actionable defects, warnings
// are gaps worth closing, info entries are observations.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// DiagnosticKind names the condition a diagnostic reports.
type DiagnosticKind string

const (
	// KindOrphan flags an entry with no Spec in subtree or ancestry.
	KindOrphan DiagnosticKind = "orphan"
	// KindBrokenReference flags a Code or Test marker whose Spec
	// metadata names a file no Spec occurrence lives in.
	KindBrokenReference DiagnosticKind = "broken_reference"
	// KindFormatViolation flags a malformed marker.
	KindFormatViolation DiagnosticKind = "format_violation"
	// KindDuplicateAcrossRoots flags an identifier that appears under
	// two or more workspace roots.
	KindDuplicateAcrossRoots DiagnosticKind = "duplicate_across_roots"
	// KindUnregisteredIdentifier flags a root identifier missing from
	// the manifest.
	KindUnregisteredIdentifier DiagnosticKind = "unregistered_identifier"
	// KindUnreferencedManifestEntry flags a manifest identifier with
	// no occurrences in the tree.
	KindUnreferencedManifestEntry DiagnosticKind = "unreferenced_manifest_entry"
)

// Diagnostic is a single finding tied to a location where one exists.
type Diagnostic struct {
	Kind       DiagnosticKind `json:"kind"`
	Severity   Severity       `json:"severity"`
	Identifier string         `json:"identifier,omitempty"`
	File       string         `json:"file,omitempty"`
	Line       int            `json:"line,omitempty"`
	Message    string         `json:"message"`
}

var severityRank = map[Severity]int{
	SeverityError:   0,
	SeverityWarning: 1,
	SeverityInfo:    2,
}

// SortDiagnostics orders diagnostics by severity, kind, identifier,
// file, line and message so output is stable across runs.
func SortDiagnostics(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if severityRank[a.Severity] != severityRank[b.Severity] {
			return severityRank[a.Severity] < severityRank[b.Severity]
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Identifier != b.Identifier {
			return a.Identifier < b.Identifier
		}
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Message < b.Message
	})
}
