//go:build integration

package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/sahanw/valuerpro/internal/httpapi"
	"github.com/sahanw/valuerpro/internal/merge"
	"github.com/sahanw/valuerpro/internal/store"
)

// stubAnalyzer stands in for the Anthropic-backed analyzer so the flow runs
// without network access or an API key.
type stubAnalyzer struct{}

func (stubAnalyzer) AnalyzeDocument(_ context.Context, _ string) (merge.Payload, error) {
	return merge.Payload{
		Comprehensive: &merge.ComprehensiveData{
			PropertyIdentification: map[string]any{
				"lot_number":     "12",
				"plan_number":    "4567/2010",
				"extent_perches": 20.0,
			},
			LocationDetails: map[string]any{
				"district": "Matara",
				"province": "Southern",
			},
		},
	}, nil
}

// TestFullReportFlow drives the whole surface in-process: register a valuer,
// create a report, upload a document, analyze it, fill the remaining steps,
// finalize and render.
func TestFullReportFlow(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "e2e.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	handler := httpapi.NewServer(httpapi.Config{
		Store:      st,
		Analyzer:   stubAnalyzer{},
		AuthSecret: "e2e-secret",
		UploadDir:  t.TempDir(),
		RenderPDF: func(_ context.Context, r *store.Report) ([]byte, error) {
			return []byte("%PDF-1.4 " + r.Reference), nil
		},
	})
	ts := httptest.NewServer(handler)
	defer ts.Close()

	// Register and capture a session token.
	var reg struct {
		Token string `json:"token"`
	}
	postJSON(t, ts.URL+"/api/v1/auth/register", "", map[string]any{
		"email":    "e2e@example.com",
		"password": "Str0ngPass",
		"name":     "K. Perera",
	}, &reg)
	if reg.Token == "" {
		t.Fatal("register returned no token")
	}

	// Create a report.
	var created struct {
		Report store.Report `json:"report"`
	}
	postJSON(t, ts.URL+"/api/v1/reports", reg.Token, map[string]any{
		"reference": "VAL-2026-E2E",
	}, &created)
	reportID := created.Report.ID
	if reportID == "" {
		t.Fatal("create report returned no id")
	}

	// Upload a survey plan.
	uploadID := uploadDocument(t, ts.URL, reg.Token, reportID,
		"plan.pdf", []byte("Survey Plan No. 4567/2010 of Lot 12, village of Weligama"))

	// Analyze: the stub payload should land in the wizard document.
	var analyzed struct {
		Result merge.Result `json:"result"`
	}
	postJSON(t, ts.URL+"/api/v1/ocr/analyze_document", reg.Token, map[string]any{
		"upload_id": uploadID,
	}, &analyzed)
	if analyzed.Result.FieldsUpdated < 5 {
		// 5 extracted fields plus the derived sqm/acre extents.
		t.Fatalf("fields_updated = %d, want >= 5 (%v)",
			analyzed.Result.FieldsUpdated, analyzed.Result.ChangesApplied)
	}

	// Fill the remaining required steps by hand.
	putJSON(t, ts.URL+"/api/v1/reports/"+reportID+"/data", reg.Token, map[string]any{
		"reportInfo": map[string]any{
			"reference":   "VAL-2026-E2E",
			"purpose":     "Mortgage",
			"report_date": "2026-08-29",
		},
		"legal":       map[string]any{"title_owner": "W. Silva"},
		"certificate": map[string]any{"valuer_name": "K. Perera", "valuer_qualifications": "AIVSL"},
	})

	// Whole-form validation should now pass for every populated step.
	var validated struct {
		Results map[string]struct {
			IsValid bool              `json:"is_valid"`
			Errors  map[string]string `json:"errors"`
		} `json:"results"`
	}
	getJSON(t, ts.URL+"/api/v1/reports/"+reportID+"/validate", reg.Token, &validated)
	for step, result := range validated.Results {
		if !result.IsValid {
			t.Errorf("step %s invalid: %v", step, result.Errors)
		}
	}

	// Render the PDF.
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/reports/"+reportID+"/generate-pdf", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+reg.Token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("generate-pdf: %v", err)
	}
	pdf, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != 200 || !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("generate-pdf status=%d body=%q", resp.StatusCode, pdf)
	}

	// Finalize, then confirm the report is locked.
	postJSON(t, ts.URL+"/api/v1/reports/"+reportID+"/finalize", reg.Token, nil, nil)
	code := putJSONStatus(t, ts.URL+"/api/v1/reports/"+reportID+"/data", reg.Token, map[string]any{
		"location": map[string]any{"district": "Galle"},
	})
	if code != 409 {
		t.Errorf("update after finalize status = %d, want 409", code)
	}
}

func postJSON(t *testing.T, url, token string, body, out any) {
	t.Helper()
	doJSON(t, http.MethodPost, url, token, body, out, 200)
}

func putJSON(t *testing.T, url, token string, body any) {
	t.Helper()
	doJSON(t, http.MethodPut, url, token, body, nil, 200)
}

func putJSONStatus(t *testing.T, url, token string, body any) int {
	t.Helper()
	return doJSON(t, http.MethodPut, url, token, body, nil, 0)
}

func getJSON(t *testing.T, url, token string, out any) {
	t.Helper()
	doJSON(t, http.MethodGet, url, token, nil, out, 200)
}

// doJSON issues a request; wantStatus 0 skips the status check and returns
// the observed code instead.
func doJSON(t *testing.T, method, url, token string, body, out any, wantStatus int) int {
	t.Helper()
	var rd io.Reader
	if body != nil {
		blob, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(blob)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	blob, _ := io.ReadAll(resp.Body)
	if wantStatus != 0 && resp.StatusCode != wantStatus {
		t.Fatalf("%s %s status = %d, want %d (body: %s)", method, url, resp.StatusCode, wantStatus, blob)
	}
	if out != nil {
		if err := json.Unmarshal(blob, out); err != nil {
			t.Fatalf("decode %s response: %v (body: %s)", url, err, blob)
		}
	}
	return resp.StatusCode
}

func uploadDocument(t *testing.T, baseURL, token, reportID, filename string, content []byte) string {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := mw.WriteField("report_id", reportID); err != nil {
		t.Fatal(err)
	}
	if err := mw.WriteField("category", "survey_plan"); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/v1/uploads", &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	blob, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 {
		t.Fatalf("upload status = %d body = %s", resp.StatusCode, blob)
	}
	var out struct {
		Upload struct {
			ID string `json:"upload_id"`
		} `json:"upload"`
	}
	if err := json.Unmarshal(blob, &out); err != nil {
		t.Fatal(err)
	}
	if out.Upload.ID == "" {
		t.Fatal("upload returned no id")
	}
	return out.Upload.ID
}
