package marker

import (
	"bufio"
	"io"
	"regexp"
	"strings"
)

// candidateRe finds anything shaped like a marker. The kind token must
// start with a letter; the identifier part is permissive so that
// near-misses (lowercase identifiers, underscores) are caught and
// reported as malformed instead of silently ignored. The identifier
// group only consumes a colon when more identifier characters follow,
// so prose like "see @Spec:AUTH-001: the login flow" keeps its sentence
// colon.
var candidateRe = regexp.MustCompile(`@([A-Za-z][A-Za-z0-9]*):((?:[A-Za-z0-9_-]+(?::[A-Za-z0-9_-]+)*)?)`)

// identifierRe is the strict identifier grammar: colon-separated
// segments of uppercase alphanumerics with single hyphens.
var identifierRe = regexp.MustCompile(`^[A-Z0-9]+(?:-[A-Z0-9]+)*(?::[A-Z0-9]+(?:-[A-Z0-9]+)*)*$`)

// Malformation reasons recorded on occurrences.
const (
	ReasonKindCase          = "kind token case mismatch"
	ReasonMissingIdentifier = "missing identifier"
	ReasonIdentifierSyntax  = "identifier violates grammar"
)

// ExtractLine returns every marker occurrence on one line. Multiple
// markers on a line are all emitted; each marker's metadata tail runs to
// the next marker or end of line. A candidate whose kind token is
// lowercase and not a case variant of a core kind is not a marker at all
// (this keeps emails and host:port strings out of the results).
func ExtractLine(file string, lineNum int, line string) []Occurrence {
	matches := candidateRe.FindAllStringSubmatchIndex(line, -1)
	if len(matches) == 0 {
		return nil
	}

	var occs []Occurrence
	for i, m := range matches {
		kindTok := line[m[2]:m[3]]
		identTok := line[m[4]:m[5]]

		tailEnd := len(line)
		if i+1 < len(matches) {
			tailEnd = matches[i+1][0]
		}
		tail := line[m[1]:tailEnd]

		occ, ok := buildOccurrence(kindTok, identTok, tail)
		if !ok {
			continue
		}
		occ.File = file
		occ.Line = lineNum
		occ.Column = m[0] + 1
		occs = append(occs, occ)
	}
	return occs
}

func buildOccurrence(kindTok, identTok, tail string) (Occurrence, bool) {
	occ := Occurrence{
		Kind:       Kind(kindTok),
		Identifier: identTok,
		Metadata:   parseMetadata(tail),
	}

	switch {
	case coreKinds[Kind(kindTok)]:
		// exact core kind
	case isCoreCaseVariant(kindTok):
		occ.Malformed = true
		occ.Reason = ReasonKindCase
	case kindTok[0] >= 'A' && kindTok[0] <= 'Z':
		// extension kind, accepted as-is
	default:
		// lowercase token with no core counterpart: not a marker
		return Occurrence{}, false
	}

	if occ.Malformed {
		return occ, true
	}

	switch {
	case identTok == "":
		occ.Malformed = true
		occ.Reason = ReasonMissingIdentifier
	case !identifierRe.MatchString(identTok):
		occ.Malformed = true
		occ.Reason = ReasonIdentifierSyntax
	}

	return occ, true
}

// isCoreCaseVariant reports whether the token is a wrong-case spelling
// of a core kind, e.g. "code" or "SPEC".
func isCoreCaseVariant(tok string) bool {
	for k := range coreKinds {
		if strings.EqualFold(tok, string(k)) {
			return true
		}
	}
	return false
}

// parseMetadata parses a pipe-delimited metadata tail such as
// "| Spec: auth.spec | Test: login_test". Anything that does not start
// with a pipe is trailing prose and ignored.
func parseMetadata(tail string) []MetaPair {
	trimmed := strings.TrimSpace(tail)
	if !strings.HasPrefix(trimmed, "|") {
		return nil
	}

	var pairs []MetaPair
	for _, seg := range strings.Split(trimmed[1:], "|") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		key, val, found := strings.Cut(seg, ":")
		if !found {
			pairs = append(pairs, MetaPair{Value: seg})
			continue
		}
		pairs = append(pairs, MetaPair{
			Key:   strings.TrimSpace(key),
			Value: strings.TrimSpace(val),
		})
	}
	return pairs
}

// MaxLineBytes bounds bufio token size for generated or minified files.
const MaxLineBytes = 1024 * 1024

// Extract scans reader content line by line and returns all occurrences.
// The file argument is recorded on each occurrence verbatim.
func Extract(r io.Reader, file string) ([]Occurrence, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), MaxLineBytes)

	var occs []Occurrence
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		occs = append(occs, ExtractLine(file, lineNum, scanner.Text())...)
	}
	if err := scanner.Err(); err != nil {
		return occs, err
	}
	return occs, nil
}
