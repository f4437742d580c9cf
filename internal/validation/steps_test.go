package validation

import (
	"testing"

	"github.com/sahanw/valuerpro/internal/wizard"
)

func TestValidateStepUnknownStepAlwaysValid(t *testing.T) {
	res := ValidateStep("no-such-step", map[string]any{"anything": "at all"})
	if !res.IsValid || len(res.Errors) != 0 {
		t.Fatalf("unknown step should be valid, got %+v", res)
	}
}

func TestValidateStepReportInfo(t *testing.T) {
	res := ValidateStep(wizard.GroupReportInfo, map[string]any{
		"reference":   "VR/2024/0042",
		"purpose":     "Bank facility",
		"report_date": "2024-02-01",
	})
	if !res.IsValid {
		t.Fatalf("expected valid, got %+v", res.Errors)
	}

	res = ValidateStep(wizard.GroupReportInfo, map[string]any{})
	if res.IsValid {
		t.Fatal("missing required fields should fail")
	}
	if res.Errors["reference"] == "" || res.Errors["purpose"] == "" || res.Errors["report_date"] == "" {
		t.Fatalf("expected errors for all required fields, got %+v", res.Errors)
	}
}

func TestValidateStepCoordinatesCrossField(t *testing.T) {
	res := ValidateStep(wizard.GroupLocation, map[string]any{
		"district":  "Galle",
		"province":  "Southern",
		"latitude":  51.5,
		"longitude": -0.12,
	})
	if res.IsValid {
		t.Fatal("out-of-bounds coordinates should fail")
	}

	// One half of the pair present: the check waits for both.
	res = ValidateStep(wizard.GroupLocation, map[string]any{
		"district": "Galle",
		"province": "Southern",
		"latitude": 6.03,
	})
	if !res.IsValid {
		t.Fatalf("incomplete coordinate pair should not fail, got %+v", res.Errors)
	}
}

func TestValidateStepFSVRange(t *testing.T) {
	res := ValidateStep(wizard.GroupValuation, map[string]any{"fsv_percentage": 95.0})
	if res.IsValid {
		t.Fatal("fsv above 90 should fail")
	}
	res = ValidateStep(wizard.GroupValuation, map[string]any{"fsv_percentage": 75.0})
	if !res.IsValid {
		t.Fatalf("expected valid, got %+v", res.Errors)
	}
}

func TestValidateFormAggregates(t *testing.T) {
	data := wizard.WizardData{
		wizard.GroupReportInfo: {
			"reference":   "VR/2024/0042",
			"purpose":     "Mortgage",
			"report_date": "2024-02-01",
		},
	}
	results := ValidateForm(data)
	if !results[wizard.GroupReportInfo].IsValid {
		t.Fatalf("reportInfo should be valid, got %+v", results[wizard.GroupReportInfo].Errors)
	}
	if results[wizard.GroupLegal].IsValid {
		t.Fatal("legal step with no owner should be invalid")
	}
}

func TestValidateFormLeavesDataUntouched(t *testing.T) {
	data := wizard.WizardData{}
	ValidateForm(data)
	if len(data) != 0 {
		t.Fatalf("validation inserted groups: %v", data)
	}
}
