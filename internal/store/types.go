package store

import (
	"errors"
	"time"

	"github.com/sahanw/valuerpro/internal/wizard"
)

type ReportStatus string

const (
	StatusDraft     ReportStatus = "draft"
	StatusFinalized ReportStatus = "finalized"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrFinalized = errors.New("report is finalized")
	ErrDuplicate = errors.New("already exists")
)

// Report is one valuation report: metadata plus the full wizard document.
type Report struct {
	ID        string            `json:"report_id"`
	Reference string            `json:"reference"`
	Status    ReportStatus      `json:"status"`
	ClientID  string            `json:"client_id,omitempty"`
	ValuerID  string            `json:"valuer_id"`
	Data      wizard.WizardData `json:"data"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Upload records one document attached to a report. The bytes themselves live
// on disk under the upload directory; only metadata is stored.
type Upload struct {
	ID          string    `json:"upload_id"`
	ReportID    string    `json:"report_id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Path        string    `json:"-"`
	Category    string    `json:"category,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// Client is an instructing party (bank, individual, company).
type Client struct {
	ID        string    `json:"client_id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	Contact   string    `json:"contact,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Valuer is an account that can sign in and own reports.
type Valuer struct {
	ID             string    `json:"valuer_id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Qualifications string    `json:"qualifications,omitempty"`
	PasswordHash   string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}
