package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainerrors "github.com/greenledger/carbon-compliance-backend/internal/domain/errors"
	"github.com/greenledger/carbon-compliance-backend/internal/domain/report"
)

// ReportRepository handles report persistence
type ReportRepository struct {
	db *pgxpool.Pool
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{db: db}
}

const reportColumns = `
	id, project_id, standard, format, status, report_data, validation,
	file_paths, signed_by, signed_at, signature_id, created_at, updated_at`

func (r *ReportRepository) Insert(ctx context.Context, rep *report.Report) error {
	data, validation, files, err := marshalReportBlobs(rep)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO reports (` + reportColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = r.db.Exec(ctx, query,
		rep.ID, rep.ProjectID, rep.Standard, rep.Format, rep.Status,
		data, validation, files, rep.SignedBy, rep.SignedAt, rep.SignatureID,
		rep.CreatedAt, rep.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting report: %w", err)
	}
	return nil
}

func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*report.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`

	rep, err := scanReport(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainerrors.ErrReportNotFound
		}
		return nil, fmt.Errorf("querying report: %w", err)
	}
	return rep, nil
}

func (r *ReportRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*report.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE project_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()

	var reports []*report.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

func (r *ReportRepository) Update(ctx context.Context, rep *report.Report) error {
	data, validation, files, err := marshalReportBlobs(rep)
	if err != nil {
		return err
	}

	// A signed report's data, files and standard are frozen at the database
	// level as well: the update is rejected unless the stored row is not
	// signed or this update is the signed -> generated revocation.
	query := `
		UPDATE reports
		SET status = $2, report_data = $3, validation = $4, file_paths = $5,
		    signed_by = $6, signed_at = $7, signature_id = $8, updated_at = $9
		WHERE id = $1 AND (status != 'signed' OR $2 = 'generated')`

	tag, err := r.db.Exec(ctx, query,
		rep.ID, rep.Status, data, validation, files,
		rep.SignedBy, rep.SignedAt, rep.SignatureID, rep.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainerrors.NewConflictError("report is signed or missing")
	}
	return nil
}

// MarkSignedIfUnsigned performs the atomic conditional signing transition.
// Returns false when another request signed the report first.
func (r *ReportRepository) MarkSignedIfUnsigned(ctx context.Context, rep *report.Report) (bool, error) {
	query := `
		UPDATE reports
		SET status = 'signed', signed_by = $2, signed_at = $3, signature_id = $4, updated_at = $5
		WHERE id = $1 AND status != 'signed'`

	tag, err := r.db.Exec(ctx, query,
		rep.ID, rep.SignedBy, rep.SignedAt, rep.SignatureID, rep.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("signing report: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func marshalReportBlobs(rep *report.Report) ([]byte, []byte, []byte, error) {
	var data, validation, files []byte
	var err error

	if rep.Data != nil {
		if data, err = json.Marshal(rep.Data); err != nil {
			return nil, nil, nil, fmt.Errorf("marshaling report data: %w", err)
		}
	}
	if rep.Validation != nil {
		if validation, err = json.Marshal(rep.Validation); err != nil {
			return nil, nil, nil, fmt.Errorf("marshaling validation: %w", err)
		}
	}
	if rep.FilePaths != nil {
		if files, err = json.Marshal(rep.FilePaths); err != nil {
			return nil, nil, nil, fmt.Errorf("marshaling file paths: %w", err)
		}
	}
	return data, validation, files, nil
}

func scanReport(row rowScanner) (*report.Report, error) {
	var rep report.Report
	var data, validation, files []byte

	err := row.Scan(
		&rep.ID, &rep.ProjectID, &rep.Standard, &rep.Format, &rep.Status,
		&data, &validation, &files,
		&rep.SignedBy, &rep.SignedAt, &rep.SignatureID,
		&rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if len(data) > 0 {
		rep.Data = &report.ReportData{}
		if err := json.Unmarshal(data, rep.Data); err != nil {
			return nil, fmt.Errorf("unmarshaling report data: %w", err)
		}
	}
	if len(validation) > 0 {
		rep.Validation = &report.Validation{}
		if err := json.Unmarshal(validation, rep.Validation); err != nil {
			return nil, fmt.Errorf("unmarshaling validation: %w", err)
		}
	}
	if len(files) > 0 {
		if err := json.Unmarshal(files, &rep.FilePaths); err != nil {
			return nil, fmt.Errorf("unmarshaling file paths: %w", err)
		}
	}
	return &rep, nil
}
