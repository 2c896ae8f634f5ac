package report

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReportStatus is the report lifecycle: draft -> generated -> signed, with
// generated -> draft again on regeneration and signed -> generated only via
// signature revocation.
type ReportStatus string

const (
	StatusDraft     ReportStatus = "draft"
	StatusGenerated ReportStatus = "generated"
	StatusSigned    ReportStatus = "signed"
)

// Report is one generated artifact for a (project, standard, format)
// combination. Once signed, report data, files and standard are frozen;
// only revocation can move it back to generated.
type Report struct {
	ID        uuid.UUID    `json:"id"`
	ProjectID uuid.UUID    `json:"project_id"`
	Standard  Standard     `json:"standard"`
	Format    Format       `json:"format"`
	Status    ReportStatus `json:"status"`

	Data       *ReportData `json:"data,omitempty"`
	Validation *Validation `json:"validation,omitempty"`
	FilePaths  []string    `json:"file_paths,omitempty"`

	SignedBy    *uuid.UUID `json:"signed_by,omitempty"`
	SignedAt    *time.Time `json:"signed_at,omitempty"`
	SignatureID *uuid.UUID `json:"signature_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validation is the snapshot attached to each generated report so consumers
// know whether it is compliance-ready without re-validating.
type Validation struct {
	Valid           bool     `json:"valid"`
	Errors          []string `json:"errors"`
	Warnings        []string `json:"warnings"`
	MissingRequired []string `json:"missing_required"`
	Completeness    int      `json:"completeness"`
}

// NewReport creates a draft report shell for a project and standard
func NewReport(projectID uuid.UUID, standard Standard, format Format) (*Report, error) {
	if projectID == uuid.Nil {
		return nil, fmt.Errorf("project ID cannot be nil")
	}
	if !standard.Valid() {
		return nil, fmt.Errorf("invalid standard: %s", standard)
	}
	if !format.Valid() {
		return nil, fmt.Errorf("invalid format: %s", format)
	}

	now := time.Now().UTC()
	return &Report{
		ID:        uuid.New(),
		ProjectID: projectID,
		Standard:  standard,
		Format:    format,
		Status:    StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsSigned reports whether the report is in the immutable signed state
func (r *Report) IsSigned() bool {
	return r.Status == StatusSigned
}

// MarkGenerated attaches assembled data, its validation snapshot and
// rendered artifact paths. Not permitted on a signed report.
func (r *Report) MarkGenerated(data *ReportData, validation *Validation, files []string) error {
	if r.IsSigned() {
		return fmt.Errorf("cannot regenerate a signed report")
	}
	r.Data = data
	r.Validation = validation
	r.FilePaths = files
	r.Status = StatusGenerated
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkDraft reverts a failed generation to draft
func (r *Report) MarkDraft() error {
	if r.IsSigned() {
		return fmt.Errorf("cannot revert a signed report to draft")
	}
	r.Status = StatusDraft
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkSigned records the signing transition. Callers must have enforced the
// signing preconditions and performed the atomic status flip first.
func (r *Report) MarkSigned(signerID, signatureID uuid.UUID, at time.Time) {
	r.Status = StatusSigned
	r.SignedBy = &signerID
	r.SignedAt = &at
	r.SignatureID = &signatureID
	r.UpdatedAt = time.Now().UTC()
}

// ClearSignature reverts a signed report to generated after revocation,
// the only state transition permitted on a signed report.
func (r *Report) ClearSignature() {
	r.Status = StatusGenerated
	r.SignedBy = nil
	r.SignedAt = nil
	r.SignatureID = nil
	r.UpdatedAt = time.Now().UTC()
}
