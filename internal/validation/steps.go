package validation

import (
	"regexp"

	"github.com/sahanw/valuerpro/internal/wizard"
)

// Result is the outcome of validating one step or the whole form. It is
// recomputed on every relevant change and never persisted.
type Result struct {
	IsValid  bool              `json:"is_valid"`
	Errors   map[string]string `json:"errors"`
	Warnings map[string]string `json:"warnings,omitempty"`
}

var referencePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9/_-]*$`)

// stepRules is the static table mapping wizard step name to field rules.
// A step with no entry has an empty rule set and always validates.
var stepRules = map[string][]Rule{
	wizard.GroupReportInfo: {
		{Field: "reference", Required: true, MinLength: 3, MaxLength: 40, Pattern: referencePattern,
			Message: "report reference is required (letters, digits, / _ -)"},
		{Field: "purpose", Required: true, Message: "purpose of valuation is required"},
		{Field: "report_date", Required: true, Custom: dateNotFuture, Message: "report date is required"},
		{Field: "inspection_date", Custom: dateNotFuture},
	},
	wizard.GroupIdentification: {
		{Field: "lot_number", Required: true, Message: "lot number is required"},
		{Field: "plan_number", Required: true, Message: "survey plan number is required"},
		{Field: "plan_date", Custom: dateNotFuture},
		{Field: "surveyor_name", MaxLength: 120},
		{Field: "extent_perches", Custom: nonNegativeNumber},
		{Field: "extent_sqm", Custom: nonNegativeNumber},
		{Field: "extent_acres", Custom: nonNegativeNumber},
	},
	wizard.GroupLocation: {
		{Field: "district", Required: true, Message: "district is required"},
		{Field: "province", Required: true, Message: "province is required"},
		{Field: "latitude", Custom: coordinatePair},
		{Field: "longitude", Custom: coordinatePair},
	},
	wizard.GroupSite: {
		{Field: "frontage", Custom: nonNegativeNumber},
		{Field: "access_road_width", Custom: nonNegativeNumber},
	},
	wizard.GroupLegal: {
		{Field: "title_owner", Required: true, Message: "current owner is required"},
		{Field: "deed_number", MaxLength: 60},
		{Field: "deed_date", Custom: dateNotFuture},
	},
	wizard.GroupValuation: {
		{Field: "fsv_percentage", Custom: fsvInRange},
		{Field: "market_value", Custom: nonNegativeNumber},
	},
	wizard.GroupCertificate: {
		{Field: "valuer_name", Required: true, Message: "valuer name is required"},
		{Field: "valuer_qualifications", Required: true, Message: "valuer qualifications are required"},
	},
}

// ValidateStep runs the rule table for a single step over its data. Pure:
// callers store or display the result themselves.
func ValidateStep(stepID string, data map[string]any) Result {
	rules, ok := stepRules[stepID]
	if !ok {
		return Result{IsValid: true, Errors: map[string]string{}}
	}
	errs := map[string]string{}
	for _, rule := range rules {
		if msg := ValidateField(data[rule.Field], []Rule{rule}, data); msg != "" {
			if _, taken := errs[rule.Field]; !taken {
				errs[rule.Field] = msg
			}
		}
	}
	return Result{IsValid: len(errs) == 0, Errors: errs}
}

// ValidateForm aggregates per-step results over the whole document.
func ValidateForm(data wizard.WizardData) map[string]Result {
	out := map[string]Result{}
	for step := range stepRules {
		out[step] = ValidateStep(step, data.View(step))
	}
	return out
}

func dateNotFuture(value any, _ map[string]any) string {
	s, ok := value.(string)
	if !ok {
		return "enter a valid date"
	}
	return CheckDateNotFuture(s)
}

func nonNegativeNumber(value any, _ map[string]any) string {
	return CheckNumber(value, false)
}

func coordinatePair(_ any, allData map[string]any) string {
	lat, latOK := ToFloat(allData["latitude"])
	lng, lngOK := ToFloat(allData["longitude"])
	if !latOK || !lngOK {
		// The pair is checked once both halves are present.
		return ""
	}
	return CheckCoordinates(lat, lng)
}

func fsvInRange(value any, _ map[string]any) string {
	f, ok := ToFloat(value)
	if !ok {
		return "enter a valid percentage"
	}
	if f < 50 || f > 90 {
		return "forced sale percentage must be between 50 and 90"
	}
	return ""
}
