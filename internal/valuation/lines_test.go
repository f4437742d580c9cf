package valuation

import "testing"

func TestLineValueWithDepreciation(t *testing.T) {
	l := Line{Type: LineBuilding, Quantity: 100, Rate: 50000, DepreciationPct: 10}
	l.Recompute()
	if l.Value != 4500000 {
		t.Fatalf("value = %v, want 4500000", l.Value)
	}
}

func TestSummarizeRollups(t *testing.T) {
	lines := []Line{
		{Type: LineLand, Quantity: 20, Rate: 1000000},
		{Type: LineBuilding, Quantity: 100, Rate: 50000, DepreciationPct: 10},
		{Type: LineImprovement, Quantity: 1, Rate: 500000},
	}
	s := Summarize(lines, 75, nil)
	if s.LandValue != 20000000 {
		t.Fatalf("land = %v", s.LandValue)
	}
	if s.BuildingValue != 4500000 {
		t.Fatalf("building = %v", s.BuildingValue)
	}
	if s.ImprovementValue != 500000 {
		t.Fatalf("improvement = %v", s.ImprovementValue)
	}
	if s.MarketValue != 25000000 {
		t.Fatalf("market = %v", s.MarketValue)
	}
	if s.ForcedSaleValue != 18750000 {
		t.Fatalf("fsv = %v, want 18750000", s.ForcedSaleValue)
	}
	if s.MarketOverridden {
		t.Fatal("no override supplied")
	}
}

func TestSummarizeManualOverride(t *testing.T) {
	override := 30000000.0
	s := Summarize(nil, 80, &override)
	if !s.MarketOverridden || s.MarketValue != 30000000 {
		t.Fatalf("override not applied: %+v", s)
	}
	if s.ForcedSaleValue != 24000000 {
		t.Fatalf("fsv = %v", s.ForcedSaleValue)
	}
}

func TestClampFSV(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0, 75},
		{40, 50},
		{95, 90},
		{60, 60},
	}
	for _, c := range cases {
		if got := ClampFSV(c.in); got != c.want {
			t.Fatalf("ClampFSV(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestSummaryWords(t *testing.T) {
	lines := []Line{{Type: LineLand, Quantity: 25, Rate: 1000000}}
	s := Summarize(lines, 75, nil)
	if s.MarketValueWords != "Twenty Five Million Rupees Only" {
		t.Fatalf("words = %q", s.MarketValueWords)
	}
}
