package report

import (
	"encoding/json"

	"gopkg.in/yaml.v3"

	"tracelink/internal/output"
)

// EncodeJSON renders the record as indented JSON with sorted keys and
// rounded floats, so equal records encode byte-identically.
func EncodeJSON(rec *Record) ([]byte, error) {
	return output.DeterministicEncodeIndented(rec, "  ")
}

// EncodeYAML renders the record as YAML. The record passes through the
// deterministic JSON normalization first so both encodings expose the
// same keys, the same omissions and the same float rounding.
func EncodeYAML(rec *Record) ([]byte, error) {
	data, err := output.DeterministicEncode(rec)
	if err != nil {
		return nil, err
	}
	var tree map[string]interface{}
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return yaml.Marshal(tree)
}
