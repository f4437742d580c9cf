package render

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sahanw/valuerpro/internal/store"
	"github.com/sahanw/valuerpro/internal/valuation"
	"github.com/sahanw/valuerpro/internal/wizard"
)

// Disclaimer is printed on every report regardless of what the valuer enters
// in the disclaimers step.
const Disclaimer = "This valuation is prepared for the stated purpose only and reflects market " +
	"conditions as at the date of inspection. It should not be relied upon for any other purpose " +
	"or by any party other than the addressee."

// BuildMarkdown renders a report's wizard document as the markdown body of a
// valuation report. Missing fields render as em-dashes rather than being
// dropped, so a draft printout shows the valuer what is still incomplete.
func BuildMarkdown(r *store.Report) string {
	data := r.Data
	var b strings.Builder

	fmt.Fprintf(&b, "# Valuation Report\n\n")
	fmt.Fprintf(&b, "- Reference: %s\n", orDash(r.Reference))
	fmt.Fprintf(&b, "- Purpose: %s\n", fieldString(data, wizard.GroupReportInfo, "purpose"))
	fmt.Fprintf(&b, "- Report Date: %s\n", fieldString(data, wizard.GroupReportInfo, "report_date"))
	fmt.Fprintf(&b, "- Inspection Date: %s\n", fieldString(data, wizard.GroupReportInfo, "inspection_date"))
	fmt.Fprintf(&b, "- Status: %s\n\n", r.Status)

	writeIdentification(&b, data)
	writeLocation(&b, data)
	writeSite(&b, data)
	writeBuildings(&b, data)
	writeUtilitiesAndLocality(&b, data)
	writePlanningAndLegal(&b, data)
	writeMarket(&b, data)
	writeValuation(&b, data)
	writeDisclaimers(&b, data)
	writeCertificate(&b, data)

	return b.String()
}

func writeIdentification(b *strings.Builder, data wizard.WizardData) {
	fmt.Fprintf(b, "## Property Identification\n\n")
	fmt.Fprintf(b, "| Field | Value |\n|-------|-------|\n")
	writeRow(b, "Lot Number", fieldString(data, wizard.GroupIdentification, "lot_number"))
	writeRow(b, "Plan Number", fieldString(data, wizard.GroupIdentification, "plan_number"))
	writeRow(b, "Plan Date", fieldString(data, wizard.GroupIdentification, "plan_date"))
	writeRow(b, "Surveyor", fieldString(data, wizard.GroupIdentification, "surveyor_name"))
	writeRow(b, "Land Name", fieldString(data, wizard.GroupIdentification, "land_name"))
	writeExtentRows(b, data)
	fmt.Fprintf(b, "\n")
}

func writeExtentRows(b *strings.Builder, data wizard.WizardData) {
	group := data.View(wizard.GroupIdentification)
	if v, ok := group["extent_perches"]; ok {
		writeRow(b, "Extent (Perches)", formatNumber(v))
	}
	if v, ok := group["extent_sqm"]; ok {
		writeRow(b, "Extent (Sq. Meters)", formatNumber(v))
	}
	if v, ok := group["extent_acres"]; ok {
		writeRow(b, "Extent (Acres)", formatNumber(v))
	}
}

func writeLocation(b *strings.Builder, data wizard.WizardData) {
	fmt.Fprintf(b, "## Location\n\n")
	fmt.Fprintf(b, "| Field | Value |\n|-------|-------|\n")
	writeRow(b, "Address", fieldString(data, wizard.GroupLocation, "address"))
	writeRow(b, "Village / Town", fieldString(data, wizard.GroupLocation, "village"))
	writeRow(b, "Grama Niladhari Division", fieldString(data, wizard.GroupLocation, "gn_division"))
	writeRow(b, "Divisional Secretariat", fieldString(data, wizard.GroupLocation, "ds_division"))
	writeRow(b, "District", fieldString(data, wizard.GroupLocation, "district"))
	writeRow(b, "Province", fieldString(data, wizard.GroupLocation, "province"))
	lat := fieldString(data, wizard.GroupLocation, "latitude")
	lng := fieldString(data, wizard.GroupLocation, "longitude")
	if lat != dash && lng != dash {
		writeRow(b, "Coordinates", lat+", "+lng)
	}
	fmt.Fprintf(b, "\n")
}

func writeSite(b *strings.Builder, data wizard.WizardData) {
	fmt.Fprintf(b, "## The Site\n\n")
	fmt.Fprintf(b, "| Field | Value |\n|-------|-------|\n")
	writeRow(b, "Shape", fieldString(data, wizard.GroupSite, "shape"))
	writeRow(b, "Topography", fieldString(data, wizard.GroupSite, "topography"))
	writeRow(b, "Soil", fieldString(data, wizard.GroupSite, "soil_type"))
	writeRow(b, "Frontage", fieldString(data, wizard.GroupSite, "frontage"))
	writeRow(b, "Access Road", fieldString(data, wizard.GroupSite, "access_road"))
	writeRow(b, "Boundaries", fieldString(data, wizard.GroupSite, "boundaries"))
	fmt.Fprintf(b, "\n")
}

func writeBuildings(b *strings.Builder, data wizard.WizardData) {
	fmt.Fprintf(b, "## Buildings and Improvements\n\n")
	buildings := recordsField(data, wizard.GroupBuildings, "buildings")
	if len(buildings) == 0 {
		fmt.Fprintf(b, "No buildings recorded.\n\n")
		return
	}
	fmt.Fprintf(b, "| # | Type | Floor Area | Construction | Condition | Age (Years) |\n")
	fmt.Fprintf(b, "|---|------|-----------|--------------|-----------|-------------|\n")
	for i, bd := range buildings {
		fmt.Fprintf(b, "| %d | %s | %s | %s | %s | %s |\n",
			i+1,
			cell(bd["type"]),
			cell(bd["floor_area"]),
			cell(bd["construction"]),
			cell(bd["condition"]),
			cell(bd["age"]))
	}
	fmt.Fprintf(b, "\n")
}

func writeUtilitiesAndLocality(b *strings.Builder, data wizard.WizardData) {
	fmt.Fprintf(b, "## Utilities and Locality\n\n")
	fmt.Fprintf(b, "| Field | Value |\n|-------|-------|\n")
	writeRow(b, "Electricity", fieldString(data, wizard.GroupUtilities, "electricity"))
	writeRow(b, "Water", fieldString(data, wizard.GroupUtilities, "water"))
	writeRow(b, "Telecom", fieldString(data, wizard.GroupUtilities, "telecom"))
	writeRow(b, "Drainage", fieldString(data, wizard.GroupUtilities, "drainage"))
	writeRow(b, "Neighbourhood", fieldString(data, wizard.GroupLocality, "neighbourhood"))
	writeRow(b, "Distance to Town", fieldString(data, wizard.GroupLocality, "distance_to_town"))
	fmt.Fprintf(b, "\n")
}

func writePlanningAndLegal(b *strings.Builder, data wizard.WizardData) {
	fmt.Fprintf(b, "## Planning and Legal\n\n")
	fmt.Fprintf(b, "| Field | Value |\n|-------|-------|\n")
	writeRow(b, "Zoning", fieldString(data, wizard.GroupPlanning, "zoning"))
	writeRow(b, "Street Line", fieldString(data, wizard.GroupPlanning, "street_line"))
	writeRow(b, "Title Owner", fieldString(data, wizard.GroupLegal, "title_owner"))
	writeRow(b, "Deed Number", fieldString(data, wizard.GroupLegal, "deed_number"))
	writeRow(b, "Notary", fieldString(data, wizard.GroupLegal, "notary"))
	writeRow(b, "Encumbrances", fieldString(data, wizard.GroupLegal, "encumbrances"))
	fmt.Fprintf(b, "\n")
}

func writeMarket(b *strings.Builder, data wizard.WizardData) {
	fmt.Fprintf(b, "## Market Evidence\n\n")
	comparables := recordsField(data, wizard.GroupMarket, "comparable_sales")
	if len(comparables) == 0 {
		fmt.Fprintf(b, "No comparable sales recorded.\n\n")
		return
	}
	fmt.Fprintf(b, "| # | Address | Sale Price (Rs.) | Extent (P) | Rate per Perch (Rs.) | Sale Date |\n")
	fmt.Fprintf(b, "|---|---------|-----------------|-----------|---------------------|----------|\n")
	for i, c := range comparables {
		fmt.Fprintf(b, "| %d | %s | %s | %s | %s | %s |\n",
			i+1,
			cell(c["address"]),
			cell(c["sale_price"]),
			cell(c["land_extent"]),
			cell(c["price_per_perch"]),
			cell(c["sale_date"]))
	}
	fmt.Fprintf(b, "\n")
}

func writeValuation(b *strings.Builder, data wizard.WizardData) {
	fmt.Fprintf(b, "## Valuation\n\n")
	lines := valuationLines(data)
	if len(lines) == 0 {
		fmt.Fprintf(b, "No valuation lines recorded.\n\n")
		return
	}

	group := data.View(wizard.GroupValuation)
	fsv, _ := toFloat(group["fsv_percentage"])
	var override *float64
	if v, ok := toFloat(group["market_value_override"]); ok && v > 0 {
		override = &v
	}
	summary := valuation.Summarize(lines, fsv, override)

	fmt.Fprintf(b, "| Description | Qty | Unit | Rate (Rs.) | Depreciation | Value (Rs.) |\n")
	fmt.Fprintf(b, "|-------------|-----|------|-----------|--------------|-------------|\n")
	for _, l := range lines {
		fmt.Fprintf(b, "| %s | %s | %s | %s | %.0f%% | %s |\n",
			orDash(l.Description), formatFloat(l.Quantity), orDash(l.Unit),
			formatFloat(l.Rate), l.DepreciationPct, formatFloat(l.Value))
	}
	fmt.Fprintf(b, "\n")
	fmt.Fprintf(b, "- Land Value: Rs. %s\n", formatFloat(summary.LandValue))
	fmt.Fprintf(b, "- Building Value: Rs. %s\n", formatFloat(summary.BuildingValue))
	if summary.ImprovementValue > 0 {
		fmt.Fprintf(b, "- Improvement Value: Rs. %s\n", formatFloat(summary.ImprovementValue))
	}
	fmt.Fprintf(b, "- **Market Value: Rs. %s**\n", formatFloat(summary.MarketValue))
	fmt.Fprintf(b, "- **Forced Sale Value (%.0f%%): Rs. %s**\n\n", summary.FSVPercentage, formatFloat(summary.ForcedSaleValue))
	fmt.Fprintf(b, "**%s**\n\n", summary.MarketValueWords)
}

func writeDisclaimers(b *strings.Builder, data wizard.WizardData) {
	fmt.Fprintf(b, "## Disclaimers\n\n")
	fmt.Fprintf(b, "%s\n\n", Disclaimer)
	if extra := fieldString(data, wizard.GroupDisclaimers, "additional"); extra != dash {
		fmt.Fprintf(b, "%s\n\n", extra)
	}
}

func writeCertificate(b *strings.Builder, data wizard.WizardData) {
	fmt.Fprintf(b, "## Valuer's Certificate\n\n")
	fmt.Fprintf(b, "I certify that I have personally inspected the property described in this report "+
		"and that the opinion of value expressed herein is my independent professional judgment.\n\n")
	fmt.Fprintf(b, "- Valuer: %s\n", fieldString(data, wizard.GroupCertificate, "valuer_name"))
	fmt.Fprintf(b, "- Qualifications: %s\n", fieldString(data, wizard.GroupCertificate, "valuer_qualifications"))
	fmt.Fprintf(b, "- Signed: %s\n", time.Now().Format("2 January 2006"))
}

// valuationLines decodes the lines stored in the valuation step. The wizard
// stores them as generic JSON records; re-marshalling is the cheap way to get
// them back into typed form.
func valuationLines(data wizard.WizardData) []valuation.Line {
	raw, ok := data.View(wizard.GroupValuation)["lines"]
	if !ok {
		return nil
	}
	blob, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var lines []valuation.Line
	if err := json.Unmarshal(blob, &lines); err != nil {
		return nil
	}
	return lines
}

const dash = "—"

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return dash
	}
	return strings.TrimSpace(s)
}

func fieldString(data wizard.WizardData, group, field string) string {
	return cell(data.View(group)[field])
}

func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return dash
	case string:
		return orDash(strings.ReplaceAll(t, "|", "\\|"))
	case float64, float32, int, int64:
		return formatNumber(v)
	default:
		return orDash(fmt.Sprintf("%v", v))
	}
}

func writeRow(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "| %s | %s |\n", label, value)
}

func recordsField(data wizard.WizardData, group, field string) []map[string]any {
	raw, ok := data.View(group)[field].([]any)
	if !ok {
		return nil
	}
	var out []map[string]any
	for _, item := range raw {
		if rec, ok := item.(map[string]any); ok {
			out = append(out, rec)
		}
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}

func formatNumber(v any) string {
	if f, ok := toFloat(v); ok {
		return formatFloat(f)
	}
	return cell(v)
}

// formatFloat prints whole rupee amounts without a fraction and everything
// else with the two decimals valuers expect on extents and rates.
func formatFloat(f float64) string {
	if f == float64(int64(f)) {
		return groupThousands(fmt.Sprintf("%d", int64(f)))
	}
	return fmt.Sprintf("%.2f", f)
}

func groupThousands(digits string) string {
	neg := strings.HasPrefix(digits, "-")
	if neg {
		digits = digits[1:]
	}
	var parts []string
	for len(digits) > 3 {
		parts = append([]string{digits[len(digits)-3:]}, parts...)
		digits = digits[:len(digits)-3]
	}
	parts = append([]string{digits}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}
