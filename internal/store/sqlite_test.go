package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/sahanw/valuerpro/internal/wizard"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "valuerpro.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestReportLifecycle(t *testing.T) {
	s := newTestStore(t)

	r, err := s.CreateReport("VAL-2026-001", "client-1", "valuer-1")
	if err != nil {
		t.Fatalf("create report: %v", err)
	}
	if r.Status != StatusDraft {
		t.Errorf("new report status = %q, want %q", r.Status, StatusDraft)
	}

	data := wizard.WizardData{
		wizard.GroupLocation: {"district": "Matara", "province": "Southern"},
	}
	updated, err := s.UpdateReportData(r.ID, data)
	if err != nil {
		t.Fatalf("update report data: %v", err)
	}
	if got := updated.Data.Field(wizard.GroupLocation, "district"); got != "Matara" {
		t.Errorf("district = %v, want Matara", got)
	}

	got, err := s.GetReport(r.ID)
	if err != nil {
		t.Fatalf("get report: %v", err)
	}
	if got.Data.Field(wizard.GroupLocation, "province") != "Southern" {
		t.Errorf("province not persisted: %+v", got.Data)
	}

	if _, err := s.FinalizeReport(r.ID); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if _, err := s.FinalizeReport(r.ID); !errors.Is(err, ErrFinalized) {
		t.Errorf("second finalize err = %v, want ErrFinalized", err)
	}
	if _, err := s.UpdateReportData(r.ID, data); !errors.Is(err, ErrFinalized) {
		t.Errorf("update after finalize err = %v, want ErrFinalized", err)
	}
}

func TestGetReportNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetReport("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListReportsByValuer(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.CreateReport("A", "", "valuer-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateReport("B", "", "valuer-2"); err != nil {
		t.Fatal(err)
	}

	all, err := s.ListReports("")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("len(all) = %d, want 2", len(all))
	}

	mine, err := s.ListReports("valuer-1")
	if err != nil {
		t.Fatalf("list by valuer: %v", err)
	}
	if len(mine) != 1 || mine[0].Reference != "A" {
		t.Errorf("list by valuer = %+v, want single report A", mine)
	}
}

func TestDeleteReportRemovesUploads(t *testing.T) {
	s := newTestStore(t)
	r, err := s.CreateReport("VAL-2026-002", "", "valuer-1")
	if err != nil {
		t.Fatal(err)
	}
	u, err := s.SaveUpload(Upload{ReportID: r.ID, Filename: "deed.pdf", Path: "/tmp/deed.pdf", Category: "deed"})
	if err != nil {
		t.Fatalf("save upload: %v", err)
	}
	if err := s.DeleteReport(r.ID); err != nil {
		t.Fatalf("delete report: %v", err)
	}
	if _, err := s.GetUpload(u.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("upload survived report deletion: err = %v", err)
	}
	if err := s.DeleteReport(r.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete err = %v, want ErrNotFound", err)
	}
}

func TestUploadCategoryUpdate(t *testing.T) {
	s := newTestStore(t)
	u, err := s.SaveUpload(Upload{ReportID: "r1", Filename: "plan.pdf", Path: "/tmp/plan.pdf"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateUploadCategory(u.ID, "survey_plan"); err != nil {
		t.Fatalf("update category: %v", err)
	}
	got, err := s.GetUpload(u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Category != "survey_plan" {
		t.Errorf("category = %q, want survey_plan", got.Category)
	}

	list, err := s.ListUploads("r1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("len(list) = %d, want 1", len(list))
	}
}

func TestValuerUniqueEmail(t *testing.T) {
	s := newTestStore(t)
	v, err := s.CreateValuer("Sahan@Example.com", "Sahan", "AIVSL", "hash1")
	if err != nil {
		t.Fatalf("create valuer: %v", err)
	}
	if v.Email != "sahan@example.com" {
		t.Errorf("email not normalized: %q", v.Email)
	}
	if _, err := s.CreateValuer("sahan@example.com", "Other", "", "hash2"); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate email err = %v, want ErrDuplicate", err)
	}

	got, err := s.GetValuerByEmail("SAHAN@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.ID != v.ID {
		t.Errorf("lookup returned wrong valuer")
	}
}

func TestClients(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.CreateClient("People's Bank", "Colombo 01", "011-2345678"); err != nil {
		t.Fatalf("create client: %v", err)
	}
	list, err := s.ListClients()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Name != "People's Bank" {
		t.Errorf("clients = %+v", list)
	}
}
