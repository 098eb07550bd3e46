// Package report assembles the archival report record and renders it
// as deterministic JSON, YAML or a human-readable summary.
package report

import (
	"tracelink/internal/chain"
	"tracelink/internal/health"
	"tracelink/internal/version"
)

// SchemaVersion identifies the record layout. Bump on breaking changes
// so stored history stays readable.
const SchemaVersion = "1"

// ToolInfo names the producer of a record.
type ToolInfo struct {
	Name          string `json:"name"`
	Version       string `json:"version"`
	SchemaVersion string `json:"schemaVersion"`
}

// ScanInfo describes the scanned input. Everything here is a pure
// function of the tree and the configuration, never of the wall clock.
type ScanInfo struct {
	// Roots lists the scanned root labels, or the single root path.
	Roots        []string `json:"roots"`
	Scope        string   `json:"scope"`
	FilesScanned int      `json:"filesScanned"`
	FilesSkipped int      `json:"filesSkipped"`
}

// Record is the complete result of one analysis run. It carries no
// timestamps or run identifiers so that identical input yields a
// byte-identical encoding; run metadata lives alongside the record in
// storage.
type Record struct {
	Tool        ToolInfo           `json:"tool"`
	Scan        ScanInfo           `json:"scan"`
	Health      *health.Report     `json:"health"`
	Tally       chain.Tally        `json:"tally"`
	Nodes       []chain.NodeResult `json:"nodes,omitempty"`
	Diagnostics []chain.Diagnostic `json:"diagnostics,omitempty"`
}

// Build assembles a record from the validation result and its score.
func Build(scan ScanInfo, res *chain.Result, rep *health.Report) *Record {
	return &Record{
		Tool: ToolInfo{
			Name:          "tracelink",
			Version:       version.Version,
			SchemaVersion: SchemaVersion,
		},
		Scan:        scan,
		Health:      rep,
		Tally:       res.Tally,
		Nodes:       res.Nodes,
		Diagnostics: res.Diagnostics,
	}
}
