package report

import (
	"fmt"
	"strings"

	"tracelink/internal/chain"
	"tracelink/internal/health"
)

// maxDiagnosticLines bounds the human summary; the full list stays in
// the JSON and YAML encodings.
const maxDiagnosticLines = 20

// RenderText renders the record as a human-readable summary.
func RenderText(rec *Record) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Traceability Report - %s v%s\n", rec.Tool.Name, rec.Tool.Version))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	if rec.Health.NoData {
		b.WriteString("✗ Health: 0.0 / 100 (F) - no markers found\n\n")
	} else {
		b.WriteString(fmt.Sprintf("%s Health: %.1f / 100 (%s)\n\n",
			gradeIcon(rec.Health.Grade), rec.Health.Score, rec.Health.Grade))
		b.WriteString(fmt.Sprintf("  Orphan Ratio:       %.1f%%\n", rec.Health.Ratios.OrphanRatio*100))
		b.WriteString(fmt.Sprintf("  Chain Completeness: %.1f%%\n", rec.Health.Ratios.ChainCompleteness*100))
		b.WriteString(fmt.Sprintf("  Format Compliance:  %.1f%%\n\n", rec.Health.Ratios.FormatCompliance*100))
	}

	b.WriteString("Scan:\n")
	b.WriteString(fmt.Sprintf("  Roots: %s\n", strings.Join(rec.Scan.Roots, ", ")))
	b.WriteString(fmt.Sprintf("  Scope: %s\n", rec.Scan.Scope))
	b.WriteString(fmt.Sprintf("  Files: %d scanned, %d skipped\n", rec.Scan.FilesScanned, rec.Scan.FilesSkipped))
	b.WriteString(fmt.Sprintf("  Markers: %d total, %d malformed\n\n", rec.Tally.TotalOccurrences, rec.Tally.Malformed))

	if len(rec.Nodes) > 0 {
		b.WriteString("Chains:\n")
		group := ""
		for _, node := range rec.Nodes {
			if g := displayPrefix(node.Identifier); g != group {
				group = g
				b.WriteString(fmt.Sprintf("  %s\n", group))
			}
			b.WriteString(fmt.Sprintf("    %s %s (%s)\n",
				classIcon(node.Classification), node.Identifier, node.Classification))
		}
		b.WriteString("\n")
	}

	if len(rec.Diagnostics) > 0 {
		b.WriteString("Diagnostics:\n")
		for i, d := range rec.Diagnostics {
			if i == maxDiagnosticLines {
				b.WriteString(fmt.Sprintf("  ... and %d more\n", len(rec.Diagnostics)-maxDiagnosticLines))
				break
			}
			loc := ""
			if d.File != "" {
				loc = fmt.Sprintf("%s:%d ", d.File, d.Line)
			}
			b.WriteString(fmt.Sprintf("  %s %s%s\n", severityIcon(d.Severity), loc, d.Message))
		}
		b.WriteString("\n")
	}

	if len(rec.Health.Recommendations) > 0 {
		b.WriteString("Recommendations:\n")
		for i, r := range rec.Health.Recommendations {
			b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, r))
		}
	}

	return b.String()
}

func gradeIcon(g health.Grade) string {
	switch g {
	case health.GradeAPlus, health.GradeA:
		return "✓"
	case health.GradeB, health.GradeC:
		return "⚠"
	default:
		return "✗"
	}
}

func classIcon(c chain.Classification) string {
	switch c {
	case chain.Complete:
		return "✓"
	case chain.Partial, chain.SpecOnly:
		return "⚠"
	case chain.PlannedOnly:
		return "?"
	case chain.Orphan:
		return "✗"
	default:
		return "?"
	}
}

func severityIcon(s chain.Severity) string {
	switch s {
	case chain.SeverityError:
		return "✗"
	case chain.SeverityWarning:
		return "⚠"
	default:
		return "-"
	}
}

// displayPrefix derives the grouping heading for an identifier: the
// root's leading segments up to its first all-numeric segment, so
// AUTH-001 and AUTH-002 group under AUTH. Roots with no numeric
// segment group under themselves.
func displayPrefix(id string) string {
	root := id
	if i := strings.Index(id, ":"); i >= 0 {
		root = id[:i]
	}
	segs := strings.Split(root, "-")
	for i, seg := range segs {
		if i > 0 && allDigits(seg) {
			return strings.Join(segs[:i], "-")
		}
	}
	return root
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
