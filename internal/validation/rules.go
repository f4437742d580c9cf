package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule is a declarative constraint over one field's value. Custom rules may
// inspect the full sibling data for cross-field checks (e.g. date not in the
// future relative of an inspection date).
type Rule struct {
	Field     string
	Required  bool
	MinLength int
	MaxLength int
	Pattern   *regexp.Regexp
	Custom    func(value any, allData map[string]any) string
	Message   string
}

// ValidateField applies rules in order and returns the first failing rule's
// message, or "" when the value passes. The required check short-circuits: an
// empty value on a non-required field skips all remaining rules. Length and
// pattern rules only apply to string values. User input never causes a panic;
// absence of a message means valid.
func ValidateField(value any, rules []Rule, allData map[string]any) string {
	for _, rule := range rules {
		if isEmpty(value) {
			if rule.Required {
				return message(rule, fmt.Sprintf("%s is required", fieldLabel(rule)))
			}
			// Not required and empty: nothing else can fail.
			return ""
		}

		if s, ok := value.(string); ok {
			if rule.MinLength > 0 && len(s) < rule.MinLength {
				return message(rule, fmt.Sprintf("%s must be at least %d characters", fieldLabel(rule), rule.MinLength))
			}
			if rule.MaxLength > 0 && len(s) > rule.MaxLength {
				return message(rule, fmt.Sprintf("%s must be at most %d characters", fieldLabel(rule), rule.MaxLength))
			}
			if rule.Pattern != nil && !rule.Pattern.MatchString(s) {
				return message(rule, fmt.Sprintf("%s has an invalid format", fieldLabel(rule)))
			}
		}

		if rule.Custom != nil {
			if msg := rule.Custom(value, allData); msg != "" {
				return msg
			}
		}
	}
	return ""
}

func message(rule Rule, fallback string) string {
	if strings.TrimSpace(rule.Message) != "" {
		return rule.Message
	}
	return fallback
}

func fieldLabel(rule Rule) string {
	if rule.Field == "" {
		return "field"
	}
	return rule.Field
}

// isEmpty reports whether a value counts as "not yet provided". Zero and
// false are provided values; nil, blank strings, empty slices and empty maps
// are not.
func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}
