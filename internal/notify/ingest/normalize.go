// internal/notify/ingest/normalize.go
package ingest

import (
	"encoding/json"
	"unicode"
	"unicode/utf8"
)

// NormalizeKeys rewrites a JSON document so the first letter of every object
// key is lowercased, recursively through nested objects and arrays. The
// backend publishes PascalCase field names; the rest of the pipeline speaks
// camelCase. Values are never touched.
func NormalizeKeys(raw []byte) ([]byte, error) {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(normalizeValue(doc))
}

func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, nested := range val {
			out[lowerFirst(k)] = normalizeValue(nested)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, nested := range val {
			out[i] = normalizeValue(nested)
		}
		return out
	default:
		return v
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	if !unicode.IsUpper(r) {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
