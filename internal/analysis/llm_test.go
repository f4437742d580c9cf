package analysis

import (
	"context"
	"errors"
	"testing"
)

type fakeCaller struct {
	response string
	err      error
}

func (f *fakeCaller) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return f.response, f.err
}

func TestAnalyzeDocumentParsesResponse(t *testing.T) {
	a := NewAnalyzer(&fakeCaller{response: `{"comprehensive_data":{"property_identification":{"lot_number":"12"}}}`})
	p, err := a.AnalyzeDocument(context.Background(), "Lot 12 in Plan 1234")
	if err != nil {
		t.Fatal(err)
	}
	if p.Comprehensive == nil || p.Comprehensive.PropertyIdentification["lot_number"] != "12" {
		t.Fatalf("unexpected payload %+v", p)
	}
}

func TestAnalyzeDocumentStripsFences(t *testing.T) {
	a := NewAnalyzer(&fakeCaller{response: "```json\n{\"comprehensive_data\":{\"location_details\":{\"district\":\"Galle\"}}}\n```"})
	p, err := a.AnalyzeDocument(context.Background(), "some deed text")
	if err != nil {
		t.Fatal(err)
	}
	if p.Comprehensive.LocationDetails["district"] != "Galle" {
		t.Fatalf("unexpected payload %+v", p)
	}
}

func TestAnalyzeDocumentFailsClosedOnBadShape(t *testing.T) {
	a := NewAnalyzer(&fakeCaller{response: `{"surprise":true}`})
	if _, err := a.AnalyzeDocument(context.Background(), "text"); err == nil {
		t.Fatal("unrecognized shape should error")
	}
}

func TestAnalyzeDocumentPropagatesCallerError(t *testing.T) {
	want := errors.New("rate limited")
	a := NewAnalyzer(&fakeCaller{err: want})
	if _, err := a.AnalyzeDocument(context.Background(), "text"); !errors.Is(err, want) {
		t.Fatalf("expected caller error, got %v", err)
	}
}

func TestAnalyzeDocumentRejectsEmptyText(t *testing.T) {
	a := NewAnalyzer(&fakeCaller{response: "{}"})
	if _, err := a.AnalyzeDocument(context.Background(), "   "); err == nil {
		t.Fatal("empty text should error")
	}
}
