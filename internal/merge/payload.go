package merge

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ComprehensiveData is the structured payload produced by document analysis:
// named sections matching wizard groups. Sections are free-form key/value
// maps; the two sections carrying array entities keep their arrays under the
// keys the analysis service emits ("buildings", "comparable_sales").
type ComprehensiveData struct {
	PropertyIdentification map[string]any `json:"property_identification,omitempty"`
	LocationDetails        map[string]any `json:"location_details,omitempty"`
	SiteCharacteristics    map[string]any `json:"site_characteristics,omitempty"`
	BuildingsImprovements  map[string]any `json:"buildings_improvements,omitempty"`
	UtilitiesAssessment    map[string]any `json:"utilities_assessment,omitempty"`
	MarketAnalysis         map[string]any `json:"market_analysis,omitempty"`
	ReportInformation      map[string]any `json:"report_information,omitempty"`
	LegalInformation       map[string]any `json:"legal_information,omitempty"`
}

func (c *ComprehensiveData) empty() bool {
	return len(c.PropertyIdentification) == 0 &&
		len(c.LocationDetails) == 0 &&
		len(c.SiteCharacteristics) == 0 &&
		len(c.BuildingsImprovements) == 0 &&
		len(c.UtilitiesAssessment) == 0 &&
		len(c.MarketAnalysis) == 0 &&
		len(c.ReportInformation) == 0 &&
		len(c.LegalInformation) == 0
}

// LegacyData is the older flat format some extraction responses still use:
// a fixed set of root keys, or a general_data wrapper.
type LegacyData struct {
	LotNumber       string         `json:"lot_number,omitempty"`
	PlanNumber      string         `json:"plan_number,omitempty"`
	PlanDate        string         `json:"plan_date,omitempty"`
	SurveyorName    string         `json:"surveyor_name,omitempty"`
	LocationDetails map[string]any `json:"-"`
	BuildingDetails map[string]any `json:"-"`
}

func (l *LegacyData) empty() bool {
	return l.LotNumber == "" && l.PlanNumber == "" && l.PlanDate == "" &&
		l.SurveyorName == "" && len(l.LocationDetails) == 0 && len(l.BuildingDetails) == 0
}

// Payload is the parsed analysis result: exactly one variant is set.
type Payload struct {
	Comprehensive *ComprehensiveData
	Legacy        *LegacyData
}

var ErrUnrecognizedPayload = errors.New("unrecognized analysis payload shape")

// ParsePayload validates the raw analysis response at the boundary. The
// comprehensive shape may sit at the root or under document_analysis; if
// neither is present the legacy flat keys are tried. Anything else fails
// closed rather than guessing.
func ParsePayload(raw []byte) (Payload, error) {
	if !gjson.ValidBytes(raw) {
		return Payload{}, fmt.Errorf("analysis payload is not valid json")
	}

	comp := gjson.GetBytes(raw, "document_analysis.comprehensive_data")
	if !comp.Exists() {
		comp = gjson.GetBytes(raw, "comprehensive_data")
	}
	if comp.Exists() && comp.IsObject() {
		var c ComprehensiveData
		if err := json.Unmarshal([]byte(comp.Raw), &c); err != nil {
			return Payload{}, fmt.Errorf("parse comprehensive data: %w", err)
		}
		if c.empty() {
			return Payload{}, ErrUnrecognizedPayload
		}
		return Payload{Comprehensive: &c}, nil
	}

	legacy := parseLegacy(raw)
	if legacy.empty() {
		return Payload{}, ErrUnrecognizedPayload
	}
	return Payload{Legacy: &legacy}, nil
}

func parseLegacy(raw []byte) LegacyData {
	l := LegacyData{
		LotNumber:    gjson.GetBytes(raw, "lot_number").String(),
		PlanNumber:   gjson.GetBytes(raw, "plan_number").String(),
		PlanDate:     gjson.GetBytes(raw, "plan_date").String(),
		SurveyorName: gjson.GetBytes(raw, "surveyor_name").String(),
	}
	if loc := gjson.GetBytes(raw, "general_data.location_details"); loc.IsObject() {
		l.LocationDetails = toMap(loc)
	}
	if bld := gjson.GetBytes(raw, "general_data.building_details"); bld.IsObject() {
		l.BuildingDetails = toMap(bld)
	}
	return l
}

func toMap(res gjson.Result) map[string]any {
	var out map[string]any
	if err := json.Unmarshal([]byte(res.Raw), &out); err != nil {
		return nil
	}
	return out
}
