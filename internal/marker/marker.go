// Package marker defines the traceability marker model and extracts
// marker occurrences from file content. Markers are @Kind:IDENTIFIER
// tokens with an optional pipe-delimited metadata tail; they are
// recognized anywhere on a line regardless of the surrounding comment
// syntax.
package marker

import (
	"sort"
	"strings"
)

// Kind identifies the traceability role a marker claims.
type Kind string

const (
	// KindSpec marks a requirement or specification point
	KindSpec Kind = "Spec"
	// KindCode marks an implementation site
	KindCode Kind = "Code"
	// KindTest marks a verifying test
	KindTest Kind = "Test"
	// KindDoc marks user-facing documentation
	KindDoc Kind = "Doc"
)

// coreKinds is the closed set that participates in chain and orphan math.
// Matching is case-sensitive: @code: is a format violation, not a kind.
var coreKinds = map[Kind]bool{
	KindSpec: true,
	KindCode: true,
	KindTest: true,
	KindDoc:  true,
}

// IsCore reports whether the kind belongs to the closed set. Any other
// capitalized token is an extension kind: extracted and reported but
// excluded from completeness and orphan calculations.
func (k Kind) IsCore() bool {
	return coreKinds[k]
}

// MetaPair is one key/value hint from a marker's metadata tail, in the
// order written. A segment without a colon is kept as a value with an
// empty key.
type MetaPair struct {
	Key   string `json:"key,omitempty"`
	Value string `json:"value"`
}

// Occurrence is a single marker hit at a specific location.
type Occurrence struct {
	Kind       Kind       `json:"kind"`
	Identifier string     `json:"identifier,omitempty"`
	File       string     `json:"file"`
	Line       int        `json:"line"`
	Column     int        `json:"column"`
	Metadata   []MetaPair `json:"metadata,omitempty"`
	Malformed  bool       `json:"malformed,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	// Root is the workspace root label the occurrence came from.
	// Empty for single-root scans.
	Root string `json:"root,omitempty"`
}

// MetaValue returns the first metadata value whose key matches
// (case-insensitive), and whether one was found.
func (o Occurrence) MetaValue(key string) (string, bool) {
	for _, p := range o.Metadata {
		if strings.EqualFold(p.Key, key) {
			return p.Value, true
		}
	}
	return "", false
}

// SortOccurrences sorts by root ASC, file ASC, line ASC, column ASC,
// kind ASC, identifier ASC. Downstream stages rely on this ordering for
// byte-identical output regardless of scan order.
func SortOccurrences(occs []Occurrence) {
	sort.SliceStable(occs, func(i, j int) bool {
		if occs[i].Root != occs[j].Root {
			return occs[i].Root < occs[j].Root
		}
		if occs[i].File != occs[j].File {
			return occs[i].File < occs[j].File
		}
		if occs[i].Line != occs[j].Line {
			return occs[i].Line < occs[j].Line
		}
		if occs[i].Column != occs[j].Column {
			return occs[i].Column < occs[j].Column
		}
		if occs[i].Kind != occs[j].Kind {
			return occs[i].Kind < occs[j].Kind
		}
		return occs[i].Identifier < occs[j].Identifier
	})
}
