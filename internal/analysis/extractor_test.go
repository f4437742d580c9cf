package analysis

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExtractPrintableTextFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.jpg")
	content := []byte("\x00\x01\x02Lot 5 depicted in Plan No. 2231 made by W. A. Silva Licensed Surveyor\x00\xff")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := ExtractDocumentText(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if res.Method != "byte-fallback" {
		t.Fatalf("method = %q", res.Method)
	}
	if !strings.Contains(res.Text, "Plan No. 2231") {
		t.Fatalf("text = %q", res.Text)
	}
}

func TestExtractRejectsOversizedDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.pdf")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Truncate(maxDocumentBytes + 1); err != nil {
		t.Fatal(err)
	}
	f.Close()
	if _, err := ExtractDocumentText(context.Background(), path); err == nil {
		t.Fatal("oversized document accepted")
	}
}

func TestDetectPlanAndLotNumbers(t *testing.T) {
	text := "All that divided and defined allotment marked Lot 7A depicted in Plan No. 1234/2010 made by K. Fernando."
	if got := DetectPlanNumber(text); got != "1234/2010" {
		t.Fatalf("plan = %q", got)
	}
	if got := DetectLotNumber(text); got != "7A" {
		t.Fatalf("lot = %q", got)
	}
	if DetectPlanNumber("") != "" || DetectLotNumber("") != "" {
		t.Fatal("empty text should yield no matches")
	}
}

func TestTruncateExtraction(t *testing.T) {
	long := strings.Repeat("a", maxTextRun+100)
	res := truncateExtraction(long, "pdftotext")
	if !res.Truncated {
		t.Fatal("expected truncation")
	}
	if !strings.HasSuffix(res.Text, "[TRUNCATED]") {
		t.Fatal("missing truncation marker")
	}
}
