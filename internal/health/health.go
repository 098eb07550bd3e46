// Package health turns validation tallies into the weighted
// traceability score, a letter grade and recommendations.
package health

import (
	"fmt"
	"strings"

	"tracelink/internal/chain"
	"tracelink/internal/output"
)

// Grade is the letter grade derived from the score.
type Grade string

const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeB     Grade = "B"
	GradeC     Grade = "C"
	GradeD     Grade = "D"
	GradeF     Grade = "F"
)

// Component weights. They sum to 1 so a perfect tree scores 100.
const (
	weightOrphan       = 0.40
	weightCompleteness = 0.35
	weightFormat       = 0.25
)

// Ratios holds the three component ratios, each in [0, 1].
type Ratios struct {
	// OrphanRatio is the share of non-Spec occurrences that live in
	// orphan entries. Zero when there are no non-Spec occurrences.
	OrphanRatio float64 `json:"orphanRatio"`
	// ChainCompleteness is the share of spec-bearing roots that are
	// fully complete. Zero when no root carries a Spec.
	ChainCompleteness float64 `json:"chainCompleteness"`
	// FormatCompliance is the share of well-formed occurrences among
	// all recorded ones.
	FormatCompliance float64 `json:"formatCompliance"`
}

// Report is the scored health summary for one validation result.
type Report struct {
	Score  float64 `json:"score"`
	Grade  Grade   `json:"grade"`
	Ratios Ratios  `json:"ratios"`
	// NoData is set when the scan recorded no occurrences at all.
	NoData          bool                         `json:"noData,omitempty"`
	Classes         map[chain.Classification]int `json:"classes,omitempty"`
	Recommendations []string                     `json:"recommendations,omitempty"`
}

// Score computes the weighted health report from a validation result.
func Score(res *chain.Result) *Report {
	tally := res.Tally
	rep := &Report{Classes: res.Classes}

	if tally.TotalOccurrences == 0 {
		rep.Grade = GradeF
		rep.NoData = true
		rep.Recommendations = []string{
			"No traceability markers found. Annotate specifications with @Spec:<ID> to start tracking.",
		}
		return rep
	}

	rep.Ratios = Ratios{
		OrphanRatio:       ratio(tally.Orphaned, tally.NonSpec),
		ChainCompleteness: ratio(tally.CompleteRoots, tally.SpecRoots),
		FormatCompliance:  1 - ratio(tally.Malformed, tally.TotalOccurrences),
	}

	raw := 100 * ((1-rep.Ratios.OrphanRatio)*weightOrphan +
		rep.Ratios.ChainCompleteness*weightCompleteness +
		rep.Ratios.FormatCompliance*weightFormat)
	rep.Score = output.RoundFloat(raw)
	rep.Grade = GradeFor(rep.Score)
	rep.Recommendations = recommendations(tally, res.Classes)
	return rep
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return output.RoundFloat(float64(num) / float64(den))
}

// GradeFor maps a score to its letter grade.
func GradeFor(score float64) Grade {
	switch {
	case score >= 95:
		return GradeAPlus
	case score >= 85:
		return GradeA
	case score >= 70:
		return GradeB
	case score >= 55:
		return GradeC
	case score >= 40:
		return GradeD
	default:
		return GradeF
	}
}

var gradeRank = map[Grade]int{
	GradeAPlus: 5,
	GradeA:     4,
	GradeB:     3,
	GradeC:     2,
	GradeD:     1,
	GradeF:     0,
}

// Meets reports whether the grade is at least as good as min.
func (g Grade) Meets(min Grade) bool {
	return gradeRank[g] >= gradeRank[min]
}

// ParseGrade parses a letter grade from user input.
func ParseGrade(s string) (Grade, error) {
	g := Grade(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := gradeRank[g]; !ok {
		return "", fmt.Errorf("unknown grade %q (valid: A+, A, B, C, D, F)", s)
	}
	return g, nil
}

// recommendations derives concrete follow-ups from the tallies. A
// perfect tree gets none.
func recommendations(tally chain.Tally, classes map[chain.Classification]int) []string {
	var recs []string

	if tally.Orphaned > 0 {
		recs = append(recs, fmt.Sprintf(
			"%d orphaned occurrence(s) have no Spec anchor. Add @Spec markers or remove stale annotations.",
			tally.Orphaned))
	}
	if incomplete := tally.SpecRoots - tally.CompleteRoots; incomplete > 0 {
		recs = append(recs, fmt.Sprintf(
			"%d of %d spec chain(s) are incomplete. Add the missing @Code or @Test markers.",
			incomplete, tally.SpecRoots))
	}
	if tally.Malformed > 0 {
		recs = append(recs, fmt.Sprintf(
			"%d malformed marker(s) reduce format compliance. Fix the reported format violations.",
			tally.Malformed))
	}
	if planned := classes[chain.PlannedOnly]; planned > 0 {
		recs = append(recs, fmt.Sprintf(
			"%d identifier(s) are specified but not started yet.", planned))
	}

	return recs
}
