package output

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
)

// DeterministicEncode encodes v as compact JSON with sorted object keys,
// floats rounded via RoundFloat, and empty fields omitted. Identical
// inputs always produce identical bytes.
func DeterministicEncode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(normalizeValue(v)); err != nil {
		return nil, err
	}

	// Encode appends a newline that Marshal would not.
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// DeterministicEncodeIndented is DeterministicEncode with indentation.
func DeterministicEncodeIndented(v interface{}, indent string) ([]byte, error) {
	return json.MarshalIndent(normalizeValue(v), "", indent)
}

// normalizeValue rewrites v into plain maps, slices, and scalars.
// encoding/json sorts map keys on marshal, which is what makes the
// output stable; structs become maps so their fields sort the same
// way.
func normalizeValue(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	return normalize(reflect.ValueOf(v))
}

func normalize(rv reflect.Value) interface{} {
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		return normalizeMap(rv)
	case reflect.Slice, reflect.Array:
		return normalizeSlice(rv)
	case reflect.Struct:
		return normalizeStruct(rv)
	case reflect.Float32, reflect.Float64:
		return RoundFloat(rv.Float())
	default:
		return rv.Interface()
	}
}

func normalizeMap(rv reflect.Value) map[string]interface{} {
	if rv.IsNil() || rv.Len() == 0 {
		// Empty collections encode as omitted, not as {}.
		return nil
	}

	out := make(map[string]interface{}, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		if value := normalize(iter.Value()); value != nil {
			out[iter.Key().String()] = value
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func normalizeSlice(rv reflect.Value) interface{} {
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return nil
	}
	n := rv.Len()
	if n == 0 {
		return nil
	}

	out := make([]interface{}, n)
	for i := 0; i < n; i++ {
		out[i] = normalize(rv.Index(i))
	}
	return out
}

// normalizeStruct converts a struct to a map, honoring json tags and
// omitempty.
func normalizeStruct(rv reflect.Value) map[string]interface{} {
	rt := rv.Type()
	out := make(map[string]interface{}, rt.NumField())

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, omitEmpty := parseJSONTag(tag)
		if name == "" {
			name = field.Name
		}

		value := normalize(rv.Field(i))
		if omitEmpty && isZeroValue(value) {
			continue
		}
		if value != nil {
			out[name] = value
		}
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

func parseJSONTag(tag string) (name string, omitEmpty bool) {
	if tag == "" {
		return "", false
	}

	name, rest, _ := strings.Cut(tag, ",")
	for _, opt := range strings.Split(rest, ",") {
		if opt == "omitempty" {
			omitEmpty = true
		}
	}

	return name, omitEmpty
}

// isZeroValue reports whether a normalized value counts as empty for
// omitempty purposes.
func isZeroValue(v interface{}) bool {
	if v == nil {
		return true
	}

	switch val := v.(type) {
	case bool:
		return !val
	case int:
		return val == 0
	case int64:
		return val == 0
	case float64:
		return val == 0
	case string:
		return val == ""
	case []interface{}:
		return len(val) == 0
	case map[string]interface{}:
		return len(val) == 0
	default:
		return false
	}
}
