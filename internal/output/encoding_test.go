package output

import (
	"bytes"
	"testing"
)

func TestDeterministicEncode(t *testing.T) {
	// Output is stable, so expectations compare bytes directly.
	tests := []struct {
		name  string
		input interface{}
		want  string
	}{
		{
			name: "struct fields sort and floats round",
			input: struct {
				Grade string  `json:"grade"`
				Score float64 `json:"score"`
				Nodes int     `json:"nodes"`
			}{Grade: "A", Score: 87.123456789, Nodes: 42},
			want: `{"grade":"A","nodes":42,"score":87.123457}`,
		},
		{
			name: "nil pointer field dropped",
			input: struct {
				Grade string   `json:"grade"`
				Score *float64 `json:"score,omitempty"`
			}{Grade: "B"},
			want: `{"grade":"B"}`,
		},
		{
			name: "zero int honors omitempty",
			input: struct {
				Grade  string `json:"grade"`
				Orphan int    `json:"orphan,omitempty"`
			}{Grade: "A+"},
			want: `{"grade":"A+"}`,
		},
		{
			name: "map keys sorted",
			input: map[string]interface{}{
				"zebra": "last",
				"alpha": "first",
				"beta":  "second",
			},
			want: `{"alpha":"first","beta":"second","zebra":"last"}`,
		},
		{
			name: "slice keeps element order",
			input: []struct {
				ID    string  `json:"id"`
				Ratio float64 `json:"ratio"`
			}{
				{ID: "a", Ratio: 1.123456789},
				{ID: "b", Ratio: 2.987654321},
			},
			want: `[{"id":"a","ratio":1.123457},{"id":"b","ratio":2.987654}]`,
		},
		{
			name:  "nil input",
			input: nil,
			want:  `null`,
		},
		{
			name:  "empty slice collapses to null",
			input: []string{},
			want:  `null`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeterministicEncode(tt.input)
			if err != nil {
				t.Fatalf("DeterministicEncode() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("DeterministicEncode() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDeterministicEncodeConsistency(t *testing.T) {
	// Encoding the same data repeatedly must produce identical bytes
	type detail struct {
		Identifier     string         `json:"identifier"`
		Classification string         `json:"classification"`
		Kinds          map[string]int `json:"kinds,omitempty"`
	}
	data := map[string]interface{}{
		"nodes": []detail{
			{Identifier: "AUTH-001", Classification: "complete", Kinds: map[string]int{"Spec": 1, "Code": 2, "Test": 1}},
			{Identifier: "PAY-001", Classification: "partial", Kinds: map[string]int{"Code": 1, "Spec": 1}},
		},
		"score": 87.25,
		"ratios": map[string]float64{
			"orphan":     0.33333333333,
			"compliance": 1.0,
		},
	}

	first, err := DeterministicEncode(data)
	if err != nil {
		t.Fatalf("DeterministicEncode() error = %v", err)
	}

	for i := 0; i < 10; i++ {
		again, err := DeterministicEncode(data)
		if err != nil {
			t.Fatalf("DeterministicEncode() error = %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("run %d produced different bytes:\n%s\nvs\n%s", i, first, again)
		}
	}
}

func TestDeterministicEncodeIndented(t *testing.T) {
	input := struct {
		Grade string `json:"grade"`
	}{Grade: "C"}

	got, err := DeterministicEncodeIndented(input, "  ")
	if err != nil {
		t.Fatalf("DeterministicEncodeIndented() error = %v", err)
	}
	want := "{\n  \"grade\": \"C\"\n}"
	if string(got) != want {
		t.Errorf("DeterministicEncodeIndented() = %q, want %q", got, want)
	}
}

func TestParseJSONTag(t *testing.T) {
	tests := []struct {
		tag           string
		wantName      string
		wantOmitEmpty bool
	}{
		{"", "", false},
		{"name", "name", false},
		{"name,omitempty", "name", true},
		{",omitempty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			name, omitEmpty := parseJSONTag(tt.tag)
			if name != tt.wantName || omitEmpty != tt.wantOmitEmpty {
				t.Errorf("parseJSONTag(%q) = (%q, %v), want (%q, %v)",
					tt.tag, name, omitEmpty, tt.wantName, tt.wantOmitEmpty)
			}
		})
	}
}
