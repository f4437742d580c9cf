package valuation

import "math"

// LineType partitions valuation lines for the summary rollups.
type LineType string

const (
	LineLand        LineType = "land"
	LineBuilding    LineType = "building"
	LineImprovement LineType = "improvement"
)

const (
	DefaultFSVPercentage = 75.0
	MinFSVPercentage     = 50.0
	MaxFSVPercentage     = 90.0
)

// Line is one row of the valuation table. Value is derived and recomputed
// whenever quantity, rate or depreciation changes.
type Line struct {
	ID              string   `json:"id"`
	Type            LineType `json:"line_type"`
	Description     string   `json:"description"`
	Quantity        float64  `json:"quantity"`
	Unit            string   `json:"unit,omitempty"`
	Rate            float64  `json:"rate"`
	DepreciationPct float64  `json:"depreciation_pct"`
	Value           float64  `json:"value"`
}

// Recompute refreshes the derived value: quantity × rate × (1 − depreciation%).
func (l *Line) Recompute() {
	l.Value = l.Quantity * l.Rate * (1 - l.DepreciationPct/100)
}

// Summary carries the rollups shown on the valuation step and in the report.
type Summary struct {
	LandValue        float64 `json:"land_value"`
	BuildingValue    float64 `json:"building_value"`
	ImprovementValue float64 `json:"improvement_value"`
	MarketValue      float64 `json:"market_value"`
	MarketOverridden bool    `json:"market_value_overridden"`
	FSVPercentage    float64 `json:"fsv_percentage"`
	ForcedSaleValue  float64 `json:"forced_sale_value"`
	MarketValueWords string  `json:"market_value_in_words"`
}

// Summarize recomputes every line and rolls the totals up. A non-nil
// marketOverride replaces the computed market value; the forced sale value is
// always derived from whichever market value stands.
func Summarize(lines []Line, fsvPct float64, marketOverride *float64) Summary {
	s := Summary{FSVPercentage: ClampFSV(fsvPct)}
	for i := range lines {
		lines[i].Recompute()
		switch lines[i].Type {
		case LineLand:
			s.LandValue += lines[i].Value
		case LineBuilding:
			s.BuildingValue += lines[i].Value
		case LineImprovement:
			s.ImprovementValue += lines[i].Value
		}
	}
	s.MarketValue = s.LandValue + s.BuildingValue + s.ImprovementValue
	if marketOverride != nil {
		s.MarketValue = *marketOverride
		s.MarketOverridden = true
	}
	s.ForcedSaleValue = s.MarketValue * s.FSVPercentage / 100
	s.MarketValueWords = AmountInWords(int64(math.Round(s.MarketValue)))
	return s
}

// ClampFSV applies the configured forced-sale band; zero means "use default".
func ClampFSV(pct float64) float64 {
	if pct == 0 {
		return DefaultFSVPercentage
	}
	if pct < MinFSVPercentage {
		return MinFSVPercentage
	}
	if pct > MaxFSVPercentage {
		return MaxFSVPercentage
	}
	return pct
}
