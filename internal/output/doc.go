// Package output provides deterministic JSON encoding for report records.
//
// Identical scan results must encode to byte-identical JSON so that records
// can be diffed across runs, cached by content, and compared in golden tests
// without false positives.
//
// # Encoding Rules
//
// DeterministicEncode and DeterministicEncodeIndented produce byte-identical
// outputs by:
//
//  1. Stable key ordering: object keys are sorted alphabetically
//  2. Float formatting: rounded to max 6 decimal places, no trailing zeros
//  3. Null handling: nil and empty fields are omitted entirely
//
// Struct fields follow their json tags, including omitempty. Empty maps,
// slices, and structs are dropped rather than encoded as {} or [].
//
// # Usage
//
//	rec := map[string]interface{}{
//	    "score": output.RoundFloat(86.66666666),
//	    "roots": []string{"app", "docs"},
//	}
//
//	data, err := output.DeterministicEncode(rec)
//
//	// Same input always produces identical bytes.
//	data2, _ := output.DeterministicEncode(rec)
//	// bytes.Equal(data, data2) == true
package output
