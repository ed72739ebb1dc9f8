package llm

import (
	"encoding/json"
	"strings"
)

// DecodeLines parses a model reply as newline-delimited JSON objects. Lines
// that are blank, fail to parse, or do not hold a JSON object are skipped;
// the skipped count is returned for observability. Decoding is best-effort
// and never fails the batch.
func DecodeLines(raw string) ([]map[string]any, int) {
	var objects []map[string]any
	skipped := 0

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		// Models occasionally fence the JSONL in markdown; those lines just
		// count as skipped like any other noise.
		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			skipped++
			continue
		}
		objects = append(objects, obj)
	}

	return objects, skipped
}

// IntField extracts an integer-valued field from a decoded object. JSON
// numbers arrive as float64; anything non-integral is rejected.
func IntField(obj map[string]any, key string) (int, bool) {
	v, ok := obj[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// StringField extracts a string-valued field from a decoded object.
func StringField(obj map[string]any, key string) (string, bool) {
	v, ok := obj[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
