package merge

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/sahanw/valuerpro/internal/validation"
	"github.com/sahanw/valuerpro/internal/wizard"
)

func unixMilli() int64 { return time.Now().UnixMilli() }

// Land-extent unit conversions. 1 perch = 25.293 m²; 160 perches = 1 acre.
const (
	sqmPerPerch     = 25.293
	perchesPerAcre  = 160.0
	sqmPerAcre      = 4046.86
	aiCompIDPattern = "ai_comp_%d_%d"
)

// Options controls how extracted data reconciles with what the valuer has
// already entered.
type Options struct {
	// PreserveUserData keeps any field that already has a meaningful value.
	PreserveUserData bool
	// OverwriteEmptyFields lets extracted values fill fields that are empty.
	OverwriteEmptyFields bool
}

func DefaultOptions() Options {
	return Options{PreserveUserData: true, OverwriteEmptyFields: true}
}

// Result is the audit trail of a single merge. Callers fold MergedData into
// the report state and may surface the change log; the Result itself is not
// persisted.
type Result struct {
	MergedData       wizard.WizardData `json:"merged_data"`
	ChangesApplied   []string          `json:"changes_applied"`
	ValidationErrors []string          `json:"validation_errors"`
	FieldsUpdated    int               `json:"fields_updated"`
}

// Merger reconciles analysis payloads with user-entered wizard state without
// silently discarding user edits.
type Merger struct {
	opts Options

	// injectable for deterministic comparable IDs in tests
	now func() int64
}

func NewMerger(opts Options) *Merger {
	return &Merger{opts: opts, now: unixMilli}
}

// Merge never returns an error: failures inside section routines are
// captured into ValidationErrors so the caller's state update always
// proceeds, possibly with zero fields updated. The input document is not
// mutated; the top level is copied before any write.
func (m *Merger) Merge(existing wizard.WizardData, payload Payload) (res Result) {
	res = Result{
		MergedData:       existing.Clone(),
		ChangesApplied:   []string{},
		ValidationErrors: []string{},
	}
	defer func() {
		if r := recover(); r != nil {
			res.ValidationErrors = append(res.ValidationErrors, fmt.Sprintf("merge failed: %v", r))
		}
	}()

	switch {
	case payload.Comprehensive != nil:
		m.mergeComprehensive(&res, payload.Comprehensive)
	case payload.Legacy != nil:
		m.mergeLegacy(&res, payload.Legacy)
	default:
		res.ValidationErrors = append(res.ValidationErrors, "empty analysis payload")
	}
	return res
}

func (m *Merger) mergeComprehensive(res *Result, c *ComprehensiveData) {
	m.mergeIdentification(res, c.PropertyIdentification)
	m.mergeGroup(res, wizard.GroupLocation, c.LocationDetails)
	m.mergeGroup(res, wizard.GroupSite, c.SiteCharacteristics)
	m.mergeBuildings(res, c.BuildingsImprovements)
	m.mergeGroup(res, wizard.GroupUtilities, c.UtilitiesAssessment)
	m.mergeMarket(res, c.MarketAnalysis)
	m.mergeGroup(res, wizard.GroupReportInfo, c.ReportInformation)
	m.mergeGroup(res, wizard.GroupLegal, c.LegalInformation)
}

func (m *Merger) mergeLegacy(res *Result, l *LegacyData) {
	m.setField(res, wizard.GroupIdentification, "lot_number", l.LotNumber)
	m.setField(res, wizard.GroupIdentification, "plan_number", l.PlanNumber)
	m.setField(res, wizard.GroupIdentification, "plan_date", l.PlanDate)
	m.setField(res, wizard.GroupIdentification, "surveyor_name", l.SurveyorName)
	m.mergeGroup(res, wizard.GroupLocation, l.LocationDetails)
	m.mergeGroup(res, wizard.GroupBuildings, l.BuildingDetails)
}

// mergeGroup iterates a section's keys and applies the overwrite policy per
// key. Keys are visited in sorted order so the change log is deterministic.
func (m *Merger) mergeGroup(res *Result, group string, section map[string]any) {
	for _, key := range sortedKeys(section) {
		m.setField(res, group, key, section[key])
	}
}

// mergeIdentification handles property_identification, including the extent
// cross-calculation: perches are the ground truth when supplied; sqm-derived
// figures are only used when perches are absent and not already set.
func (m *Merger) mergeIdentification(res *Result, section map[string]any) {
	if len(section) == 0 {
		return
	}
	for _, key := range sortedKeys(section) {
		switch key {
		case "extent_perches", "extent_sqm", "extent_acres":
			continue
		}
		m.setField(res, wizard.GroupIdentification, key, section[key])
	}

	perchesRaw, perchesPresent := section["extent_perches"]
	sqmRaw, sqmPresent := section["extent_sqm"]

	if perchesPresent && hasValue(perchesRaw) {
		if m.setField(res, wizard.GroupIdentification, "extent_perches", perchesRaw) {
			if p, ok := validation.ToFloat(perchesRaw); ok {
				m.setField(res, wizard.GroupIdentification, "extent_sqm", round2(p*sqmPerPerch))
				m.setField(res, wizard.GroupIdentification, "extent_acres", round4(p/perchesPerAcre))
			}
		}
		return
	}

	if sqmPresent && hasValue(sqmRaw) {
		if m.setField(res, wizard.GroupIdentification, "extent_sqm", sqmRaw) {
			// Derive perches only if nothing has claimed that field yet.
			if !hasValue(res.MergedData.Field(wizard.GroupIdentification, "extent_perches")) {
				if s, ok := validation.ToFloat(sqmRaw); ok {
					m.setField(res, wizard.GroupIdentification, "extent_perches", round2(s/sqmPerPerch))
					m.setField(res, wizard.GroupIdentification, "extent_acres", round4(s/sqmPerAcre))
				}
			}
		}
		return
	}

	if acresRaw, ok := section["extent_acres"]; ok && hasValue(acresRaw) {
		m.setField(res, wizard.GroupIdentification, "extent_acres", acresRaw)
	}
}

// mergeBuildings adopts the extracted building list wholesale, but only when
// the valuer has not added any building rows; partial element merges are not
// attempted. Scalar keys merge like any other section.
func (m *Merger) mergeBuildings(res *Result, section map[string]any) {
	if len(section) == 0 {
		return
	}
	for _, key := range sortedKeys(section) {
		if key == "buildings" {
			continue
		}
		m.setField(res, wizard.GroupBuildings, key, section[key])
	}

	incoming := asRecords(section["buildings"])
	if len(incoming) == 0 {
		return
	}
	existing := asRecords(res.MergedData.Field(wizard.GroupBuildings, "buildings"))
	if len(existing) > 0 {
		log.Printf("merge: keeping %d existing buildings, ignoring %d extracted", len(existing), len(incoming))
		return
	}
	ts := m.now()
	for i := range incoming {
		if !hasValue(incoming[i]["id"]) {
			incoming[i]["id"] = fmt.Sprintf("ai_building_%d_%d", ts, i)
		}
	}
	m.writeField(res, wizard.GroupBuildings, "buildings", incoming)
}

// mergeMarket handles market_analysis: scalar fields follow the normal
// policy, comparable sales follow the array-adoption policy with record
// filtering and generated IDs.
func (m *Merger) mergeMarket(res *Result, section map[string]any) {
	if len(section) == 0 {
		return
	}
	for _, key := range sortedKeys(section) {
		if key == "comparable_sales" {
			continue
		}
		m.setField(res, wizard.GroupMarket, key, section[key])
	}

	incoming := asRecords(section["comparable_sales"])
	if len(incoming) == 0 {
		return
	}
	existing := asRecords(res.MergedData.Field(wizard.GroupMarket, "comparable_sales"))
	if len(existing) > 0 {
		log.Printf("merge: keeping %d existing comparables, ignoring %d extracted", len(existing), len(incoming))
		return
	}

	ts := m.now()
	adopted := make([]map[string]any, 0, len(incoming))
	for i, rec := range incoming {
		if !hasValue(rec["address"]) || !hasValue(rec["sale_price"]) {
			log.Printf("merge: dropping comparable %d: missing address or sale_price", i)
			continue
		}
		rec["id"] = fmt.Sprintf(aiCompIDPattern, ts, i)
		if !hasValue(rec["adjustments"]) {
			rec["adjustments"] = zeroAdjustments()
		}
		if price, ok := validation.ToFloat(rec["sale_price"]); ok {
			if extent, ok := validation.ToFloat(rec["land_extent"]); ok && extent > 0 {
				rec["price_per_perch"] = round2(price / extent)
			}
		}
		adopted = append(adopted, rec)
	}
	if len(adopted) == 0 {
		return
	}
	m.writeField(res, wizard.GroupMarket, "comparable_sales", adopted)
}

// setField applies the overwrite policy and normalization for one field and
// reports whether a write happened.
func (m *Merger) setField(res *Result, group, field string, value any) bool {
	if !hasValue(value) {
		return false
	}
	processed, ok := processFieldValue(field, value)
	if !ok {
		return false
	}

	old := res.MergedData.Field(group, field)
	if hasValue(old) {
		if m.opts.PreserveUserData {
			return false
		}
	} else if !m.opts.OverwriteEmptyFields {
		return false
	}

	m.write(res, group, field, old, processed)
	return true
}

// writeField bypasses normalization for values the merger constructed itself
// (adopted arrays), still applying the overwrite policy.
func (m *Merger) writeField(res *Result, group, field string, value any) {
	old := res.MergedData.Field(group, field)
	if hasValue(old) && m.opts.PreserveUserData {
		return
	}
	if !hasValue(old) && !m.opts.OverwriteEmptyFields {
		return
	}
	m.write(res, group, field, old, value)
}

func (m *Merger) write(res *Result, group, field string, old, value any) {
	res.MergedData.Group(group)[field] = value
	res.ChangesApplied = append(res.ChangesApplied,
		fmt.Sprintf("%s.%s: %s → %s", group, field, formatValue(old), formatValue(value)))
	res.FieldsUpdated++
}

func zeroAdjustments() map[string]any {
	return map[string]any{
		"location":  0.0,
		"size":      0.0,
		"condition": 0.0,
		"time":      0.0,
		"other":     0.0,
	}
}

// asRecords accepts the array shapes that survive JSON decoding and state
// round-trips.
func asRecords(v any) []map[string]any {
	switch t := v.(type) {
	case []map[string]any:
		out := make([]map[string]any, len(t))
		for i, rec := range t {
			out[i] = cloneRecord(rec)
		}
		return out
	case []any:
		out := make([]map[string]any, 0, len(t))
		for _, item := range t {
			if rec, ok := item.(map[string]any); ok {
				out = append(out, cloneRecord(rec))
			}
		}
		return out
	default:
		return nil
	}
}

func cloneRecord(rec map[string]any) map[string]any {
	cp := make(map[string]any, len(rec))
	for k, v := range rec {
		cp[k] = v
	}
	return cp
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
