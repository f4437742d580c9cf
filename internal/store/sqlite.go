package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/sahanw/valuerpro/internal/wizard"
)

// Store persists reports, uploads, clients and valuer accounts to SQLite.
// The wizard document is stored as a JSON blob per report; it is always read
// and written whole, never queried field-by-field.
type Store struct {
	db *sqlx.DB
	mu sync.Mutex
}

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	report_id  TEXT PRIMARY KEY,
	reference  TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'draft',
	client_id  TEXT NOT NULL DEFAULT '',
	valuer_id  TEXT NOT NULL DEFAULT '',
	data       TEXT NOT NULL DEFAULT '{}',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS uploads (
	upload_id    TEXT PRIMARY KEY,
	report_id    TEXT NOT NULL,
	filename     TEXT NOT NULL,
	content_type TEXT NOT NULL DEFAULT '',
	size         INTEGER NOT NULL DEFAULT 0,
	path         TEXT NOT NULL,
	category     TEXT NOT NULL DEFAULT '',
	uploaded_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS clients (
	client_id  TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	address    TEXT NOT NULL DEFAULT '',
	contact    TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS valuers (
	valuer_id      TEXT PRIMARY KEY,
	email          TEXT NOT NULL UNIQUE,
	name           TEXT NOT NULL DEFAULT '',
	qualifications TEXT NOT NULL DEFAULT '',
	password_hash  TEXT NOT NULL,
	created_at     TEXT NOT NULL
);
`

func Open(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func timeToString(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func marshalData(data wizard.WizardData) string {
	if data == nil {
		return "{}"
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// --- reports ---

func (s *Store) CreateReport(reference, clientID, valuerID string) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	r := &Report{
		ID:        uuid.NewString(),
		Reference: strings.TrimSpace(reference),
		Status:    StatusDraft,
		ClientID:  strings.TrimSpace(clientID),
		ValuerID:  strings.TrimSpace(valuerID),
		Data:      wizard.WizardData{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.Exec(`INSERT INTO reports (report_id, reference, status, client_id, valuer_id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Reference, string(r.Status), r.ClientID, r.ValuerID, marshalData(r.Data),
		timeToString(r.CreatedAt), timeToString(r.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}
	return r, nil
}

func (s *Store) GetReport(id string) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getReportLocked(id)
}

func (s *Store) getReportLocked(id string) (*Report, error) {
	row := s.db.QueryRow(`SELECT report_id, reference, status, client_id, valuer_id, data, created_at, updated_at
		FROM reports WHERE report_id = ?`, id)
	var r Report
	var status, data, createdAt, updatedAt string
	if err := row.Scan(&r.ID, &r.Reference, &status, &r.ClientID, &r.ValuerID, &data, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	r.Status = ReportStatus(status)
	r.CreatedAt = parseTime(createdAt)
	r.UpdatedAt = parseTime(updatedAt)
	if err := json.Unmarshal([]byte(data), &r.Data); err != nil {
		return nil, fmt.Errorf("decode report data: %w", err)
	}
	if r.Data == nil {
		r.Data = wizard.WizardData{}
	}
	return &r, nil
}

func (s *Store) ListReports(valuerID string) ([]Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	query := `SELECT report_id, reference, status, client_id, valuer_id, data, created_at, updated_at
		FROM reports ORDER BY created_at DESC`
	args := []any{}
	if strings.TrimSpace(valuerID) != "" {
		query = `SELECT report_id, reference, status, client_id, valuer_id, data, created_at, updated_at
			FROM reports WHERE valuer_id = ? ORDER BY created_at DESC`
		args = append(args, valuerID)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Report
	for rows.Next() {
		var r Report
		var status, data, createdAt, updatedAt string
		if err := rows.Scan(&r.ID, &r.Reference, &status, &r.ClientID, &r.ValuerID, &data, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		r.Status = ReportStatus(status)
		r.CreatedAt = parseTime(createdAt)
		r.UpdatedAt = parseTime(updatedAt)
		_ = json.Unmarshal([]byte(data), &r.Data)
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateReportData replaces the wizard document of a draft report.
func (s *Store) UpdateReportData(id string, data wizard.WizardData) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.getReportLocked(id)
	if err != nil {
		return nil, err
	}
	if r.Status == StatusFinalized {
		return nil, ErrFinalized
	}
	r.Data = data.Clone()
	r.UpdatedAt = time.Now()
	_, err = s.db.Exec(`UPDATE reports SET data = ?, updated_at = ? WHERE report_id = ?`,
		marshalData(r.Data), timeToString(r.UpdatedAt), id)
	if err != nil {
		return nil, fmt.Errorf("update report: %w", err)
	}
	return r, nil
}

// FinalizeReport transitions draft → finalized. The transition is one-way;
// finalizing an already-finalized report is rejected.
func (s *Store) FinalizeReport(id string) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.getReportLocked(id)
	if err != nil {
		return nil, err
	}
	if r.Status == StatusFinalized {
		return nil, ErrFinalized
	}
	r.Status = StatusFinalized
	r.UpdatedAt = time.Now()
	_, err = s.db.Exec(`UPDATE reports SET status = ?, updated_at = ? WHERE report_id = ?`,
		string(r.Status), timeToString(r.UpdatedAt), id)
	if err != nil {
		return nil, fmt.Errorf("finalize report: %w", err)
	}
	return r, nil
}

func (s *Store) DeleteReport(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec(`DELETE FROM reports WHERE report_id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	_, err = s.db.Exec(`DELETE FROM uploads WHERE report_id = ?`, id)
	return err
}

// --- uploads ---

func (s *Store) SaveUpload(u Upload) (*Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.UploadedAt.IsZero() {
		u.UploadedAt = time.Now()
	}
	_, err := s.db.Exec(`INSERT INTO uploads (upload_id, report_id, filename, content_type, size, path, category, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.ReportID, u.Filename, u.ContentType, u.Size, u.Path, u.Category, timeToString(u.UploadedAt))
	if err != nil {
		return nil, fmt.Errorf("insert upload: %w", err)
	}
	return &u, nil
}

func (s *Store) GetUpload(id string) (*Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.db.QueryRow(`SELECT upload_id, report_id, filename, content_type, size, path, category, uploaded_at
		FROM uploads WHERE upload_id = ?`, id)
	var u Upload
	var uploadedAt string
	if err := row.Scan(&u.ID, &u.ReportID, &u.Filename, &u.ContentType, &u.Size, &u.Path, &u.Category, &uploadedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.UploadedAt = parseTime(uploadedAt)
	return &u, nil
}

func (s *Store) ListUploads(reportID string) ([]Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query(`SELECT upload_id, report_id, filename, content_type, size, path, category, uploaded_at
		FROM uploads WHERE report_id = ? ORDER BY uploaded_at`, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Upload
	for rows.Next() {
		var u Upload
		var uploadedAt string
		if err := rows.Scan(&u.ID, &u.ReportID, &u.Filename, &u.ContentType, &u.Size, &u.Path, &u.Category, &uploadedAt); err != nil {
			return nil, err
		}
		u.UploadedAt = parseTime(uploadedAt)
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) UpdateUploadCategory(id, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec(`UPDATE uploads SET category = ? WHERE upload_id = ?`, category, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteUpload(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec(`DELETE FROM uploads WHERE upload_id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- clients ---

func (s *Store) CreateClient(name, address, contact string) (*Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &Client{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Address:   strings.TrimSpace(address),
		Contact:   strings.TrimSpace(contact),
		CreatedAt: time.Now(),
	}
	_, err := s.db.Exec(`INSERT INTO clients (client_id, name, address, contact, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Address, c.Contact, timeToString(c.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert client: %w", err)
	}
	return c, nil
}

func (s *Store) ListClients() ([]Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query(`SELECT client_id, name, address, contact, created_at FROM clients ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Client
	for rows.Next() {
		var c Client
		var createdAt string
		if err := rows.Scan(&c.ID, &c.Name, &c.Address, &c.Contact, &createdAt); err != nil {
			return nil, err
		}
		c.CreatedAt = parseTime(createdAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

// --- valuers ---

func (s *Store) CreateValuer(email, name, qualifications, passwordHash string) (*Valuer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := &Valuer{
		ID:             uuid.NewString(),
		Email:          strings.ToLower(strings.TrimSpace(email)),
		Name:           strings.TrimSpace(name),
		Qualifications: strings.TrimSpace(qualifications),
		PasswordHash:   passwordHash,
		CreatedAt:      time.Now(),
	}
	_, err := s.db.Exec(`INSERT INTO valuers (valuer_id, email, name, qualifications, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		v.ID, v.Email, v.Name, v.Qualifications, v.PasswordHash, timeToString(v.CreatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert valuer: %w", err)
	}
	return v, nil
}

func (s *Store) GetValuerByEmail(email string) (*Valuer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.db.QueryRow(`SELECT valuer_id, email, name, qualifications, password_hash, created_at
		FROM valuers WHERE email = ?`, strings.ToLower(strings.TrimSpace(email)))
	return scanValuer(row)
}

func (s *Store) GetValuer(id string) (*Valuer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.db.QueryRow(`SELECT valuer_id, email, name, qualifications, password_hash, created_at
		FROM valuers WHERE valuer_id = ?`, id)
	return scanValuer(row)
}

func scanValuer(row *sql.Row) (*Valuer, error) {
	var v Valuer
	var createdAt string
	if err := row.Scan(&v.ID, &v.Email, &v.Name, &v.Qualifications, &v.PasswordHash, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	v.CreatedAt = parseTime(createdAt)
	return &v, nil
}
