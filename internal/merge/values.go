package merge

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/sahanw/valuerpro/internal/validation"
)

// hasValue is the single source of truth for "was this already filled in by
// a human": false for nil, blank strings, empty arrays and empty objects;
// true for everything else including 0 and false.
func hasValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case []any:
		return len(t) > 0
	case []map[string]any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

// numericFieldHints mark fields coerced to a non-negative float before any
// write; a value that fails to parse is dropped rather than written.
var numericFieldHints = []string{"area", "distance", "width", "extent", "year"}

// processFieldValue normalizes an incoming value for the named field. The
// second return is false when the value must not be written.
func processFieldValue(field string, v any) (any, bool) {
	if v == nil {
		return nil, false
	}

	lower := strings.ToLower(field)
	if strings.Contains(lower, "date") {
		s, ok := v.(string)
		if !ok {
			log.Printf("merge: dropping non-string date field %s (%T)", field, v)
			return nil, false
		}
		if _, err := validation.ParseDate(s); err != nil {
			log.Printf("merge: unparseable date for %s: %q", field, s)
			return nil, false
		}
		return strings.TrimSpace(s), true
	}

	for _, hint := range numericFieldHints {
		if strings.Contains(lower, hint) {
			f, ok := validation.ToFloat(v)
			if !ok || f < 0 {
				log.Printf("merge: dropping non-numeric value for %s: %v", field, v)
				return nil, false
			}
			return f, true
		}
	}

	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case []any:
		out := make([]any, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				if strings.TrimSpace(s) == "" {
					continue
				}
				out = append(out, strings.TrimSpace(s))
				continue
			}
			if item == nil {
				continue
			}
			out = append(out, item)
		}
		return out, true
	default:
		return v, true
	}
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "<empty>"
	case string:
		if strings.TrimSpace(t) == "" {
			return "<empty>"
		}
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
