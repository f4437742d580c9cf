package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"unicode"
)

const (
	maxDocumentBytes = 10 * 1024 * 1024
	maxTextRun       = 24000
)

var (
	// Survey plan numbers as they appear on deeds and plans, e.g.
	// "Plan No. 1234/2010" or "Surveyor's Plan # 88A".
	planNumberPattern = regexp.MustCompile(`(?i)\bplan\s*(?:no\.?|number|#)?\s*[:#-]?\s*([A-Za-z0-9]{1,8}(?:/[A-Za-z0-9]{1,8})?)\b`)
	lotNumberPattern  = regexp.MustCompile(`(?i)\blot\s*(?:no\.?|number|#)?\s*[:#-]?\s*([A-Za-z0-9]{1,6})\b`)
)

// ExtractionResult holds the text pulled from an uploaded document, with the
// method that produced it for the audit trail.
type ExtractionResult struct {
	Text      string
	Method    string
	Truncated bool
}

// ExtractDocumentText pulls text from an uploaded deed, plan or report.
// pdftotext is tried first; scanned or image-heavy documents fall back to a
// printable-byte scan, which at least surfaces embedded text runs.
func ExtractDocumentText(ctx context.Context, path string) (ExtractionResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return ExtractionResult{}, err
	}
	if info.Size() > maxDocumentBytes {
		return ExtractionResult{}, fmt.Errorf("document too large: %d bytes", info.Size())
	}

	if strings.HasSuffix(strings.ToLower(path), ".pdf") {
		if text, err := runPdfToText(ctx, path); err == nil && strings.TrimSpace(text) != "" {
			return truncateExtraction(text, "pdftotext"), nil
		}
	}

	blob, err := os.ReadFile(path)
	if err != nil {
		return ExtractionResult{}, err
	}
	fallback := extractPrintableText(blob)
	if strings.TrimSpace(fallback) == "" {
		return ExtractionResult{}, errors.New("no extractable text found")
	}
	return truncateExtraction(fallback, "byte-fallback"), nil
}

func runPdfToText(ctx context.Context, path string) (string, error) {
	cmd := exec.CommandContext(ctx, "pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func extractPrintableText(blob []byte) string {
	var runs []string
	var b strings.Builder
	flush := func() {
		s := strings.TrimSpace(b.String())
		if len(s) >= 24 {
			runs = append(runs, s)
		}
		b.Reset()
	}
	for _, c := range blob {
		r := rune(c)
		if unicode.IsPrint(r) || r == '\n' || r == '\t' || r == '\r' {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	joined := strings.Join(runs, "\n")
	joined = strings.ReplaceAll(joined, "\x00", "")
	return strings.TrimSpace(joined)
}

func truncateExtraction(text, method string) ExtractionResult {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= maxTextRun {
		return ExtractionResult{Text: trimmed, Method: method}
	}
	prefix := trimmed[:maxTextRun]
	// Avoid cutting in the middle of a rune sequence.
	prefix = string(bytes.Runes([]byte(prefix)))
	return ExtractionResult{
		Text:      prefix + "\n\n[TRUNCATED]",
		Method:    method,
		Truncated: true,
	}
}

// DetectPlanNumber finds a likely survey plan number in extracted text.
func DetectPlanNumber(text string) string {
	s := strings.TrimSpace(text)
	if s == "" {
		return ""
	}
	if len(s) > 8000 {
		s = s[:8000]
	}
	if m := planNumberPattern.FindStringSubmatch(s); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// DetectLotNumber finds a likely lot number in extracted text.
func DetectLotNumber(text string) string {
	s := strings.TrimSpace(text)
	if s == "" {
		return ""
	}
	if len(s) > 8000 {
		s = s[:8000]
	}
	if m := lotNumberPattern.FindStringSubmatch(s); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	return ""
}
