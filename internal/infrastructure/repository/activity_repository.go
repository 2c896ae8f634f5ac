package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greenledger/carbon-compliance-backend/internal/domain/emissions"
	domainerrors "github.com/greenledger/carbon-compliance-backend/internal/domain/errors"
)

// ActivityRepository handles activity persistence
type ActivityRepository struct {
	db *pgxpool.Pool
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{db: db}
}

const activityColumns = `
	id, project_id, scope, category, activity_type, material_type,
	quantity, unit, tier, status, total_emissions, factor, factor_source,
	created_at, updated_at`

func (r *ActivityRepository) GetByID(ctx context.Context, id uuid.UUID) (*emissions.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE id = $1`

	a, err := scanActivity(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainerrors.ErrActivityNotFound
		}
		return nil, fmt.Errorf("querying activity: %w", err)
	}
	return a, nil
}

func (r *ActivityRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*emissions.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE project_id = $1 ORDER BY created_at`
	return r.list(ctx, query, projectID)
}

func (r *ActivityRepository) ListPendingByProject(ctx context.Context, projectID uuid.UUID) ([]*emissions.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE project_id = $1 AND status = 'pending' ORDER BY created_at`
	return r.list(ctx, query, projectID)
}

func (r *ActivityRepository) ListCalculatedByProject(ctx context.Context, projectID uuid.UUID) ([]*emissions.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE project_id = $1 AND status = 'calculated' ORDER BY created_at`
	return r.list(ctx, query, projectID)
}

func (r *ActivityRepository) list(ctx context.Context, query string, args ...interface{}) ([]*emissions.Activity, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying activities: %w", err)
	}
	defer rows.Close()

	var activities []*emissions.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

func (r *ActivityRepository) Update(ctx context.Context, a *emissions.Activity) error {
	query := `
		UPDATE activities
		SET scope = $2, category = $3, activity_type = $4, material_type = $5,
		    quantity = $6, unit = $7, tier = $8, status = $9,
		    total_emissions = $10, factor = $11, factor_source = $12,
		    updated_at = $13
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		a.ID, a.Scope, a.Category, a.ActivityType, nullIfEmpty(a.MaterialType),
		a.Quantity, a.Unit, a.Tier, a.Status,
		a.TotalEmissions, a.Factor, nullIfEmpty(a.FactorSource),
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("updating activity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainerrors.ErrActivityNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanActivity(row rowScanner) (*emissions.Activity, error) {
	var a emissions.Activity
	var category, materialType, factorSource *string

	err := row.Scan(
		&a.ID, &a.ProjectID, &a.Scope, &category, &a.ActivityType, &materialType,
		&a.Quantity, &a.Unit, &a.Tier, &a.Status, &a.TotalEmissions, &a.Factor, &factorSource,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if category != nil {
		cat := emissions.Scope3Category(*category)
		a.Category = &cat
	}
	if materialType != nil {
		a.MaterialType = *materialType
	}
	if factorSource != nil {
		a.FactorSource = *factorSource
	}
	return &a, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
