package validation

import (
	"regexp"
	"testing"
)

func TestValidateFieldPassesAllRules(t *testing.T) {
	rules := []Rule{
		{Field: "reference", Required: true},
		{Field: "reference", MinLength: 3, MaxLength: 10},
		{Field: "reference", Pattern: regexp.MustCompile(`^[A-Z]+$`)},
	}
	if msg := ValidateField("ABCDE", rules, nil); msg != "" {
		t.Fatalf("expected valid, got %q", msg)
	}
}

func TestValidateFieldRequiredShortCircuits(t *testing.T) {
	// Empty and not required: length/pattern rules must be skipped entirely.
	rules := []Rule{
		{Field: "surveyor_name", MinLength: 5, Message: "too short"},
	}
	for _, v := range []any{nil, "", "   ", []any{}, map[string]any{}} {
		if msg := ValidateField(v, rules, nil); msg != "" {
			t.Fatalf("empty value %#v should skip rules, got %q", v, msg)
		}
	}

	required := []Rule{{Field: "lot_number", Required: true, Message: "lot number is required"}}
	if msg := ValidateField("", required, nil); msg != "lot number is required" {
		t.Fatalf("expected required message, got %q", msg)
	}
}

func TestValidateFieldFirstFailureWins(t *testing.T) {
	rules := []Rule{
		{Field: "f", MinLength: 10, Message: "min"},
		{Field: "f", Pattern: regexp.MustCompile(`^\d+$`), Message: "pattern"},
	}
	// Both rules fail for "abc"; order determines which message wins.
	if msg := ValidateField("abc", rules, nil); msg != "min" {
		t.Fatalf("expected first rule's message, got %q", msg)
	}

	reversed := []Rule{rules[1], rules[0]}
	if msg := ValidateField("abc", reversed, nil); msg != "pattern" {
		t.Fatalf("expected first rule's message after reorder, got %q", msg)
	}
}

func TestValidateFieldStringRulesSkipNonStrings(t *testing.T) {
	rules := []Rule{{Field: "extent", MinLength: 5, Pattern: regexp.MustCompile(`x`)}}
	if msg := ValidateField(42.0, rules, nil); msg != "" {
		t.Fatalf("string rules must not apply to numbers, got %q", msg)
	}
}

func TestValidateFieldCustomSeesSiblingData(t *testing.T) {
	rules := []Rule{{
		Field: "inspection_date",
		Custom: func(value any, allData map[string]any) string {
			if allData["report_date"] == nil {
				return "report date must be set first"
			}
			return ""
		},
	}}
	if msg := ValidateField("2024-01-05", rules, map[string]any{}); msg != "report date must be set first" {
		t.Fatalf("custom rule should see sibling data, got %q", msg)
	}
	if msg := ValidateField("2024-01-05", rules, map[string]any{"report_date": "2024-01-10"}); msg != "" {
		t.Fatalf("expected valid, got %q", msg)
	}
}

func TestValidateFieldZeroAndFalseAreProvidedValues(t *testing.T) {
	rules := []Rule{{Field: "f", Required: true}}
	if msg := ValidateField(0, rules, nil); msg != "" {
		t.Fatalf("zero should satisfy required, got %q", msg)
	}
	if msg := ValidateField(false, rules, nil); msg != "" {
		t.Fatalf("false should satisfy required, got %q", msg)
	}
}

func TestValidateFieldDefaultMessages(t *testing.T) {
	rules := []Rule{{Field: "plan_number", Required: true}}
	if msg := ValidateField(nil, rules, nil); msg != "plan_number is required" {
		t.Fatalf("unexpected default message %q", msg)
	}
}
