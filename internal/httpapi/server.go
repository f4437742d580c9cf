package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/sahanw/valuerpro/internal/analysis"
	"github.com/sahanw/valuerpro/internal/merge"
	"github.com/sahanw/valuerpro/internal/store"
	"github.com/sahanw/valuerpro/internal/validation"
	"github.com/sahanw/valuerpro/internal/valuation"
)

// DocumentAnalyzer turns extracted document text into a structured payload.
type DocumentAnalyzer interface {
	AnalyzeDocument(ctx context.Context, text string) (merge.Payload, error)
}

// PDFRenderer turns a report into PDF bytes.
type PDFRenderer func(ctx context.Context, r *store.Report) ([]byte, error)

type Server struct {
	store      *store.Store
	analyzer   DocumentAnalyzer
	merger     *merge.Merger
	renderPDF  PDFRenderer
	authSecret []byte
	uploadDir  string
}

type Config struct {
	Store      *store.Store
	Analyzer   DocumentAnalyzer
	RenderPDF  PDFRenderer
	AuthSecret string
	UploadDir  string
}

func NewServer(cfg Config) http.Handler {
	s := &Server{
		store:      cfg.Store,
		analyzer:   cfg.Analyzer,
		merger:     merge.NewMerger(merge.DefaultOptions()),
		renderPDF:  cfg.RenderPDF,
		authSecret: []byte(cfg.AuthSecret),
		uploadDir:  cfg.UploadDir,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/register", s.handleRegister)
	mux.HandleFunc("/api/v1/auth/login", s.handleLogin)
	mux.HandleFunc("/api/v1/auth/me", s.handleMe)
	mux.HandleFunc("/api/v1/reports", s.handleReports)
	mux.HandleFunc("/api/v1/reports/", s.handleReportSub)
	mux.HandleFunc("/api/v1/uploads", s.handleUploadCreate)
	mux.HandleFunc("/api/v1/uploads/", s.handleUploadSub)
	mux.HandleFunc("/api/v1/clients", s.handleClients)
	mux.HandleFunc("/api/v1/valuation/summary", s.handleValuationSummary)
	mux.HandleFunc("/api/v1/ocr/extract_text", s.handleExtractText)
	mux.HandleFunc("/api/v1/ocr/analyze_document", s.handleAnalyzeDocument)
	mux.HandleFunc("/api/v1/health", s.handleHealth)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	var ae *Error
	if errors.As(err, &ae) {
		writeJSON(w, ae.Status, map[string]any{
			"ok": false,
			"error": map[string]any{
				"code":    ae.Code,
				"message": ae.Message,
			},
		})
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, NewNotFoundError())
		return
	}
	if errors.Is(err, store.ErrFinalized) {
		writeError(w, newError(CodeConflict, "This report has been finalized and can no longer be edited."))
		return
	}
	log.Printf("httpapi: internal error: %v", err)
	ie := NewInternalError().(*Error)
	writeJSON(w, ie.Status, map[string]any{
		"ok": false,
		"error": map[string]any{
			"code":    ie.Code,
			"message": ie.Message,
		},
	})
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return []byte("{}"), nil
	}
	blob, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(blob) == 0 {
		blob = []byte("{}")
	}
	return blob, nil
}

func decodeJSONBytes(blob []byte, dst any) error {
	return json.Unmarshal(blob, dst)
}

func methodOnly(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// --- auth ---

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	blob, err := readBody(r)
	if err != nil {
		writeError(w, NewValidationJSONError(err))
		return
	}
	var req struct {
		Email          string `json:"email"`
		Password       string `json:"password"`
		Name           string `json:"name"`
		Qualifications string `json:"qualifications"`
	}
	if err := decodeJSONBytes(blob, &req); err != nil {
		writeError(w, NewValidationJSONError(err))
		return
	}
	if msg := validation.CheckEmail(req.Email); msg != "" {
		writeError(w, NewValidationError(msg))
		return
	}
	if msg := validation.CheckPassword(req.Password); msg != "" {
		writeError(w, NewValidationError(msg))
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	v, err := s.store.CreateValuer(req.Email, req.Name, req.Qualifications, hash)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, newError(CodeConflict, "An account with this email already exists."))
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]any{
		"ok":     true,
		"token":  s.issueToken(v.ID),
		"valuer": v,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	blob, err := readBody(r)
	if err != nil {
		writeError(w, NewValidationJSONError(err))
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSONBytes(blob, &req); err != nil {
		writeError(w, NewValidationJSONError(err))
		return
	}
	v, err := s.store.GetValuerByEmail(req.Email)
	if err != nil || !passwordMatches(v.PasswordHash, req.Password) {
		writeError(w, newError(CodeUnauthorized, "Invalid email or password."))
		return
	}
	writeJSON(w, 200, map[string]any{
		"ok":     true,
		"token":  s.issueToken(v.ID),
		"valuer": v,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	valuerID, err := s.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}
	v, err := s.store.GetValuer(valuerID)
	if err != nil {
		writeError(w, NewUnauthorizedError())
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true, "valuer": v})
}

// --- reports ---

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	valuerID, err := s.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}
	switch r.Method {
	case http.MethodPost:
		blob, err := readBody(r)
		if err != nil {
			writeError(w, NewValidationJSONError(err))
			return
		}
		var req struct {
			Reference string `json:"reference"`
			ClientID  string `json:"client_id"`
		}
		if err := decodeJSONBytes(blob, &req); err != nil {
			writeError(w, NewValidationJSONError(err))
			return
		}
		report, err := s.store.CreateReport(req.Reference, req.ClientID, valuerID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, 200, map[string]any{"ok": true, "report": report})
	case http.MethodGet:
		reports, err := s.store.ListReports(valuerID)
		if err != nil {
			writeError(w, err)
			return
		}
		if reports == nil {
			reports = []store.Report{}
		}
		writeJSON(w, 200, map[string]any{"reports": reports})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// ownedReport loads a report and enforces that the caller owns it.
func (s *Server) ownedReport(valuerID, reportID string) (*store.Report, error) {
	report, err := s.store.GetReport(reportID)
	if err != nil {
		return nil, err
	}
	if report.ValuerID != "" && report.ValuerID != valuerID {
		return nil, NewForbiddenError()
	}
	return report, nil
}

func (s *Server) handleReportSub(w http.ResponseWriter, r *http.Request) {
	valuerID, err := s.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/reports/")
	reportID, action, _ := strings.Cut(path, "/")
	if reportID == "" {
		writeError(w, NewNotFoundError())
		return
	}

	switch action {
	case "":
		s.handleReportByID(w, r, valuerID, reportID)
	case "data":
		s.handleReportData(w, r, valuerID, reportID)
	case "finalize":
		s.handleReportFinalize(w, r, valuerID, reportID)
	case "validate":
		s.handleReportValidate(w, r, valuerID, reportID)
	case "generate-pdf":
		s.handleReportPDF(w, r, valuerID, reportID)
	case "uploads":
		s.handleReportUploads(w, r, valuerID, reportID)
	default:
		writeError(w, NewNotFoundError())
	}
}

func (s *Server) handleReportByID(w http.ResponseWriter, r *http.Request, valuerID, reportID string) {
	switch r.Method {
	case http.MethodGet:
		report, err := s.ownedReport(valuerID, reportID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, 200, map[string]any{"ok": true, "report": report})
	case http.MethodDelete:
		if _, err := s.ownedReport(valuerID, reportID); err != nil {
			writeError(w, err)
			return
		}
		uploads, err := s.store.ListUploads(reportID)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := s.store.DeleteReport(reportID); err != nil {
			writeError(w, err)
			return
		}
		for _, u := range uploads {
			_ = os.Remove(u.Path)
		}
		writeJSON(w, 200, map[string]any{"ok": true})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleReportData applies per-group field updates to the wizard document.
// A null field value deletes the field.
func (s *Server) handleReportData(w http.ResponseWriter, r *http.Request, valuerID, reportID string) {
	if r.Method != http.MethodPut && r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	report, err := s.ownedReport(valuerID, reportID)
	if err != nil {
		writeError(w, err)
		return
	}
	blob, err := readBody(r)
	if err != nil {
		writeError(w, NewValidationJSONError(err))
		return
	}
	var req map[string]map[string]any
	if err := decodeJSONBytes(blob, &req); err != nil {
		writeError(w, NewValidationJSONError(err))
		return
	}

	data := report.Data.Clone()
	for group, fields := range req {
		target := data.Group(group)
		for field, value := range fields {
			if value == nil {
				delete(target, field)
				continue
			}
			target[field] = value
		}
	}
	updated, err := s.store.UpdateReportData(reportID, data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true, "report": updated})
}

func (s *Server) handleReportFinalize(w http.ResponseWriter, r *http.Request, valuerID, reportID string) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	if _, err := s.ownedReport(valuerID, reportID); err != nil {
		writeError(w, err)
		return
	}
	report, err := s.store.FinalizeReport(reportID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true, "report": report})
}

// handleReportValidate runs step validation across the whole wizard document,
// or a single step when ?step= is given.
func (s *Server) handleReportValidate(w http.ResponseWriter, r *http.Request, valuerID, reportID string) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	report, err := s.ownedReport(valuerID, reportID)
	if err != nil {
		writeError(w, err)
		return
	}
	if step := strings.TrimSpace(r.URL.Query().Get("step")); step != "" {
		writeJSON(w, 200, map[string]any{"step": step, "result": validation.ValidateStep(step, report.Data.View(step))})
		return
	}
	writeJSON(w, 200, map[string]any{"results": validation.ValidateForm(report.Data)})
}

func (s *Server) handleReportPDF(w http.ResponseWriter, r *http.Request, valuerID, reportID string) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	report, err := s.ownedReport(valuerID, reportID)
	if err != nil {
		writeError(w, err)
		return
	}
	if s.renderPDF == nil {
		writeError(w, newError(CodeInternal, "PDF rendering is not configured."))
		return
	}
	pdf, err := s.renderPDF(r.Context(), report)
	if err != nil {
		writeError(w, fmt.Errorf("render pdf: %w", err))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "valuation-"+report.ID+".pdf"))
	w.WriteHeader(200)
	_, _ = w.Write(pdf)
}

func (s *Server) handleReportUploads(w http.ResponseWriter, r *http.Request, valuerID, reportID string) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	if _, err := s.ownedReport(valuerID, reportID); err != nil {
		writeError(w, err)
		return
	}
	uploads, err := s.store.ListUploads(reportID)
	if err != nil {
		writeError(w, err)
		return
	}
	if uploads == nil {
		uploads = []store.Upload{}
	}
	writeJSON(w, 200, map[string]any{"uploads": uploads})
}

// --- uploads ---

func (s *Server) handleUploadCreate(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	valuerID, err := s.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := r.ParseMultipartForm(validation.MaxUploadBytes); err != nil {
		writeError(w, NewValidationError("upload too large or malformed"))
		return
	}
	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		writeError(w, NewValidationError("file field is required"))
		return
	}

	reportID := strings.TrimSpace(r.FormValue("report_id"))
	if reportID == "" {
		writeError(w, NewValidationError("report_id is required"))
		return
	}
	if _, err := s.ownedReport(valuerID, reportID); err != nil {
		writeError(w, err)
		return
	}
	// Validate the whole batch before storing anything.
	for _, header := range headers {
		if msg := validation.CheckUploadFile(header.Filename, header.Size); msg != "" {
			writeError(w, NewValidationError(msg))
			return
		}
	}

	category := strings.TrimSpace(r.FormValue("category"))
	uploads := make([]*store.Upload, 0, len(headers))
	for _, header := range headers {
		upload, err := s.storeOneUpload(reportID, category, header)
		if err != nil {
			writeError(w, err)
			return
		}
		uploads = append(uploads, upload)
	}
	writeJSON(w, 200, map[string]any{"ok": true, "upload": uploads[0], "uploads": uploads})
}

func (s *Server) storeOneUpload(reportID, category string, header *multipart.FileHeader) (*store.Upload, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	// The upload ID in the path keeps two uploads of the same filename
	// from sharing bytes on disk.
	id := uuid.NewString()
	dst := filepath.Join(s.uploadDir, fmt.Sprintf("%s_%s", id, filepath.Base(header.Filename)))
	out, err := os.Create(dst)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}
	size, err := io.Copy(out, io.LimitReader(file, validation.MaxUploadBytes))
	out.Close()
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	return s.store.SaveUpload(store.Upload{
		ID:          id,
		ReportID:    reportID,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        size,
		Path:        dst,
		Category:    category,
	})
}

func (s *Server) handleUploadSub(w http.ResponseWriter, r *http.Request) {
	valuerID, err := s.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}
	uploadID := strings.TrimPrefix(r.URL.Path, "/api/v1/uploads/")
	if uploadID == "" || strings.Contains(uploadID, "/") {
		writeError(w, NewNotFoundError())
		return
	}
	upload, err := s.store.GetUpload(uploadID)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := s.ownedReport(valuerID, upload.ReportID); err != nil {
		writeError(w, err)
		return
	}

	switch r.Method {
	case http.MethodDelete:
		if err := s.store.DeleteUpload(uploadID); err != nil {
			writeError(w, err)
			return
		}
		_ = os.Remove(upload.Path)
		writeJSON(w, 200, map[string]any{"ok": true})
	case http.MethodPatch:
		blob, err := readBody(r)
		if err != nil {
			writeError(w, NewValidationJSONError(err))
			return
		}
		var req struct {
			Category string `json:"category"`
		}
		if err := decodeJSONBytes(blob, &req); err != nil {
			writeError(w, NewValidationJSONError(err))
			return
		}
		if err := s.store.UpdateUploadCategory(uploadID, req.Category); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, 200, map[string]any{"ok": true})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// --- clients ---

func (s *Server) handleClients(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authenticate(r); err != nil {
		writeError(w, err)
		return
	}
	switch r.Method {
	case http.MethodPost:
		blob, err := readBody(r)
		if err != nil {
			writeError(w, NewValidationJSONError(err))
			return
		}
		var req struct {
			Name    string `json:"name"`
			Address string `json:"address"`
			Contact string `json:"contact"`
		}
		if err := decodeJSONBytes(blob, &req); err != nil {
			writeError(w, NewValidationJSONError(err))
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			writeError(w, NewValidationError("name is required"))
			return
		}
		client, err := s.store.CreateClient(req.Name, req.Address, req.Contact)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, 200, map[string]any{"ok": true, "client": client})
	case http.MethodGet:
		clients, err := s.store.ListClients()
		if err != nil {
			writeError(w, err)
			return
		}
		if clients == nil {
			clients = []store.Client{}
		}
		writeJSON(w, 200, map[string]any{"clients": clients})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// --- valuation ---

func (s *Server) handleValuationSummary(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	if _, err := s.authenticate(r); err != nil {
		writeError(w, err)
		return
	}
	blob, err := readBody(r)
	if err != nil {
		writeError(w, NewValidationJSONError(err))
		return
	}
	var req struct {
		Lines          []valuation.Line `json:"lines"`
		FSVPercentage  float64          `json:"fsv_percentage"`
		MarketOverride *float64         `json:"market_value_override"`
	}
	if err := decodeJSONBytes(blob, &req); err != nil {
		writeError(w, NewValidationJSONError(err))
		return
	}
	summary := valuation.Summarize(req.Lines, req.FSVPercentage, req.MarketOverride)
	writeJSON(w, 200, map[string]any{"lines": req.Lines, "summary": summary})
}

// --- document analysis ---

func (s *Server) handleExtractText(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	valuerID, err := s.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}
	blob, err := readBody(r)
	if err != nil {
		writeError(w, NewValidationJSONError(err))
		return
	}
	var req struct {
		UploadID string `json:"upload_id"`
	}
	if err := decodeJSONBytes(blob, &req); err != nil {
		writeError(w, NewValidationJSONError(err))
		return
	}
	upload, err := s.store.GetUpload(req.UploadID)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := s.ownedReport(valuerID, upload.ReportID); err != nil {
		writeError(w, err)
		return
	}

	extracted, err := analysis.ExtractDocumentText(r.Context(), upload.Path)
	if err != nil {
		writeError(w, fmt.Errorf("extract text: %w", err))
		return
	}
	writeJSON(w, 200, map[string]any{
		"ok":          true,
		"text":        extracted.Text,
		"method":      extracted.Method,
		"truncated":   extracted.Truncated,
		"plan_number": analysis.DetectPlanNumber(extracted.Text),
		"lot_number":  analysis.DetectLotNumber(extracted.Text),
	})
}

// handleAnalyzeDocument runs the full pipeline: extract text from the upload,
// analyze it, merge the payload into the report's wizard document and persist
// the result. The merge outcome is returned so the caller can show what
// changed.
func (s *Server) handleAnalyzeDocument(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	valuerID, err := s.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if s.analyzer == nil {
		writeError(w, newError(CodeInternal, "Document analysis is not configured."))
		return
	}
	blob, err := readBody(r)
	if err != nil {
		writeError(w, NewValidationJSONError(err))
		return
	}
	var req struct {
		UploadID string `json:"upload_id"`
	}
	if err := decodeJSONBytes(blob, &req); err != nil {
		writeError(w, NewValidationJSONError(err))
		return
	}
	upload, err := s.store.GetUpload(req.UploadID)
	if err != nil {
		writeError(w, err)
		return
	}
	report, err := s.ownedReport(valuerID, upload.ReportID)
	if err != nil {
		writeError(w, err)
		return
	}
	if report.Status == store.StatusFinalized {
		writeError(w, store.ErrFinalized)
		return
	}

	extracted, err := analysis.ExtractDocumentText(r.Context(), upload.Path)
	if err != nil {
		writeError(w, fmt.Errorf("extract text: %w", err))
		return
	}
	payload, err := s.analyzer.AnalyzeDocument(r.Context(), extracted.Text)
	if err != nil {
		if errors.Is(err, merge.ErrUnrecognizedPayload) {
			writeError(w, NewValidationError("document analysis returned no extractable property data"))
			return
		}
		writeError(w, fmt.Errorf("analyze document: %w", err))
		return
	}

	result := s.merger.Merge(report.Data, payload)
	if _, err := s.store.UpdateReportData(report.ID, result.MergedData); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true, "result": result})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true})
}
