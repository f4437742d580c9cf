package render

import (
	"strings"
	"testing"

	"github.com/sahanw/valuerpro/internal/store"
	"github.com/sahanw/valuerpro/internal/wizard"
)

func sampleReport() *store.Report {
	return &store.Report{
		ID:        "r1",
		Reference: "VAL-2026-042",
		Status:    store.StatusDraft,
		Data: wizard.WizardData{
			wizard.GroupReportInfo: {
				"purpose":     "Mortgage",
				"report_date": "2026-08-20",
			},
			wizard.GroupIdentification: {
				"lot_number":     "12",
				"plan_number":    "4567/2010",
				"extent_perches": 20.0,
				"extent_sqm":     505.86,
			},
			wizard.GroupLocation: {
				"address":  "No. 45, Beach Road",
				"district": "Matara",
				"province": "Southern",
			},
			wizard.GroupBuildings: {
				"buildings": []any{
					map[string]any{
						"type":         "Single storey house",
						"floor_area":   1500.0,
						"construction": "Brick",
						"condition":    "Good",
						"age":          12.0,
					},
				},
			},
			wizard.GroupMarket: {
				"comparable_sales": []any{
					map[string]any{
						"address":         "Lot 8, Beach Road",
						"sale_price":      3200000.0,
						"land_extent":     16.0,
						"price_per_perch": 200000.0,
					},
				},
			},
			wizard.GroupValuation: {
				"fsv_percentage": 75.0,
				"lines": []any{
					map[string]any{"id": "l1", "line_type": "land", "description": "Land", "quantity": 20.0, "rate": 150000.0},
					map[string]any{"id": "b1", "line_type": "building", "description": "House", "quantity": 1500.0, "rate": 1000.0},
				},
			},
			wizard.GroupCertificate: {
				"valuer_name":           "K. Perera",
				"valuer_qualifications": "AIVSL",
			},
		},
	}
}

func TestBuildMarkdownSections(t *testing.T) {
	md := BuildMarkdown(sampleReport())

	for _, want := range []string{
		"# Valuation Report",
		"- Reference: VAL-2026-042",
		"## Property Identification",
		"| Lot Number | 12 |",
		"| Extent (Perches) | 20 |",
		"## Location",
		"| District | Matara |",
		"## Buildings and Improvements",
		"Single storey house",
		"## Market Evidence",
		"Lot 8, Beach Road",
		"## Valuation",
		"**Market Value: Rs. 4,500,000**",
		"**Forced Sale Value (75%): Rs. 3,375,000**",
		"Four Million Five Hundred Thousand Rupees Only",
		"## Disclaimers",
		"## Valuer's Certificate",
		"- Valuer: K. Perera",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestBuildMarkdownEmptyReport(t *testing.T) {
	report := &store.Report{ID: "r2", Status: store.StatusDraft, Data: wizard.WizardData{}}
	md := BuildMarkdown(report)
	if len(report.Data) != 0 {
		t.Fatalf("rendering inserted groups: %v", report.Data)
	}

	if !strings.Contains(md, "No buildings recorded.") {
		t.Errorf("empty report should note missing buildings")
	}
	if !strings.Contains(md, "No comparable sales recorded.") {
		t.Errorf("empty report should note missing comparables")
	}
	if !strings.Contains(md, "No valuation lines recorded.") {
		t.Errorf("empty report should note missing valuation lines")
	}
	if !strings.Contains(md, dash) {
		t.Errorf("missing fields should render as placeholders")
	}
}

func TestBuildHTMLConvertsTables(t *testing.T) {
	doc, err := buildHTML(sampleReport())
	if err != nil {
		t.Fatalf("build html: %v", err)
	}
	if !strings.Contains(doc, "<table>") {
		t.Errorf("html missing rendered tables")
	}
	if !strings.Contains(doc, "VAL-2026-042") {
		t.Errorf("html missing reference")
	}
	if !strings.Contains(doc, `data-page-break-before="true"`) {
		t.Errorf("certificate page break hook not applied")
	}
}
