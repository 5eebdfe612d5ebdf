package model

import (
	"strings"
	"time"
)

// Source identifies which directory a record came from.
type Source string

const (
	SourceWeb    Source = "web"
	SourceMobile Source = "mobile"
	SourcePrint  Source = "print"
)

// KnownSources lists all accepted directory sources.
var KnownSources = []Source{SourceWeb, SourceMobile, SourcePrint}

// ParseSource validates a source label from user input.
func ParseSource(s string) (Source, bool) {
	src := Source(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range KnownSources {
		if src == known {
			return src, true
		}
	}
	return "", false
}

// RecordStatus represents a provider record's position in the review lifecycle.
type RecordStatus string

const (
	StatusPending   RecordStatus = "pending"
	StatusValidated RecordStatus = "validated"
	StatusFlagged   RecordStatus = "flagged"
	StatusApproved  RecordStatus = "approved"
	StatusRejected  RecordStatus = "rejected"
)

// Terminal reports whether no further transitions are allowed from s.
func (s RecordStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// CanTransition reports whether moving from s to next is a legal
// transition. The scorer moves pending to validated or flagged exactly
// once; a human review moves validated or flagged to approved or
// rejected. Statuses never regress.
func (s RecordStatus) CanTransition(next RecordStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusValidated || next == StatusFlagged
	case StatusValidated, StatusFlagged:
		return next == StatusApproved || next == StatusRejected
	default:
		return false
	}
}

// FieldStatus is the tri-state outcome of validating a single field.
// The zero value means the field was not evaluated, which is distinct
// from an explicit FieldInvalid.
type FieldStatus string

const (
	FieldValid         FieldStatus = "valid"
	FieldInvalid       FieldStatus = "invalid"
	FieldNotApplicable FieldStatus = "not_applicable"
)

// ValidationResults holds the per-field validation outcome with one
// explicit slot per validated field rather than an open map, so field
// coverage is checked at compile time.
type ValidationResults struct {
	Phone   FieldStatus `json:"phone,omitempty"`
	Email   FieldStatus `json:"email,omitempty"`
	Website FieldStatus `json:"website,omitempty"`
	Address FieldStatus `json:"address,omitempty"`
	Zip     FieldStatus `json:"zip,omitempty"`
	License FieldStatus `json:"license,omitempty"`
	NPI     FieldStatus `json:"npi,omitempty"`
}

// Provider is one directory entry from one source.
type Provider struct {
	ID            string `json:"id,omitempty"`
	NPI           string `json:"npi,omitempty"`
	Name          string `json:"name"`
	Specialty     string `json:"specialty,omitempty"`
	Organization  string `json:"organization,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty"`
	Website       string `json:"website,omitempty"`
	Address       string `json:"address,omitempty"`
	City          string `json:"city,omitempty"`
	State         string `json:"state,omitempty"`
	Zip           string `json:"zip,omitempty"`
	LicenseNumber string `json:"license_number,omitempty"`
	LicenseState  string `json:"license_state,omitempty"`

	Source  Source `json:"source"`
	BatchID string `json:"batch_id,omitempty"`

	Status            RecordStatus      `json:"status"`
	ConfidenceScore   int               `json:"confidence_score"`
	ValidationResults ValidationResults `json:"validation_results"`
	Suggestions       map[string]string `json:"suggestions,omitempty"`
	OriginalData      map[string]string `json:"original_data,omitempty"`
	ReviewNote        string            `json:"review_note,omitempty"`

	LastValidated *time.Time `json:"last_validated,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ComparisonFields is the fixed set of fields compared across sources
// during reconciliation.
var ComparisonFields = []string{"phone", "email", "address", "city", "state", "zip", "website"}

// Field returns the named contact/location field value. Unknown names
// return the empty string.
func (p *Provider) Field(name string) string {
	switch name {
	case "phone":
		return p.Phone
	case "email":
		return p.Email
	case "website":
		return p.Website
	case "address":
		return p.Address
	case "city":
		return p.City
	case "state":
		return p.State
	case "zip":
		return p.Zip
	default:
		return ""
	}
}

// SetField sets the named contact/location field value. Unknown names
// are ignored.
func (p *Provider) SetField(name, value string) {
	switch name {
	case "phone":
		p.Phone = value
	case "email":
		p.Email = value
	case "website":
		p.Website = value
	case "address":
		p.Address = value
	case "city":
		p.City = value
	case "state":
		p.State = value
	case "zip":
		p.Zip = value
	}
}

// Snapshot captures the originally submitted field values. Taken once
// at ingestion and never modified afterwards.
func (p *Provider) Snapshot() map[string]string {
	return map[string]string{
		"npi":            p.NPI,
		"name":           p.Name,
		"specialty":      p.Specialty,
		"organization":   p.Organization,
		"phone":          p.Phone,
		"email":          p.Email,
		"website":        p.Website,
		"address":        p.Address,
		"city":           p.City,
		"state":          p.State,
		"zip":            p.Zip,
		"license_number": p.LicenseNumber,
		"license_state":  p.LicenseState,
	}
}

// BatchStatus tracks a validation batch run.
type BatchStatus string

const (
	BatchValidating BatchStatus = "validating"
	BatchCompleted  BatchStatus = "completed"
)

// ValidationBatch groups the records ingested from one directory file.
type ValidationBatch struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	FileName       string      `json:"file_name,omitempty"`
	Source         Source      `json:"source"`
	Status         BatchStatus `json:"status"`
	TotalRecords   int         `json:"total_records"`
	ValidatedCount int         `json:"validated_count"`
	FlaggedCount   int         `json:"flagged_count"`
	ApprovedCount  int         `json:"approved_count"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// AuditAction categorizes audit log entries.
type AuditAction string

const (
	AuditUpload          AuditAction = "upload"
	AuditValidationRun   AuditAction = "validation_run"
	AuditApprove         AuditAction = "approve"
	AuditReject          AuditAction = "reject"
	AuditApplySuggestion AuditAction = "apply_suggestion"
	AuditExport          AuditAction = "export"
)

// AuditEntry records one user-attributable action.
type AuditEntry struct {
	ID          string      `json:"id"`
	Action      AuditAction `json:"action"`
	Description string      `json:"description"`
	BatchID     string      `json:"batch_id,omitempty"`
	RecordID    string      `json:"record_id,omitempty"`
	Actor       string      `json:"actor,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}
