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

// FactorRepository handles emission factor lookups of all kinds. Per-project
// override rows shadow global rows: queries order overrides first and take
// the first match.
type FactorRepository struct {
	db *pgxpool.Pool
}

// NewFactorRepository creates a new factor repository
func NewFactorRepository(db *pgxpool.Pool) *FactorRepository {
	return &FactorRepository{db: db}
}

func (r *FactorRepository) FindFactor(ctx context.Context, activityType, unit string) ([]*emissions.EmissionFactor, error) {
	query := `
		SELECT id, activity_type, unit, year, value, source, COALESCE(region, ''), COALESCE(standard, ''), created_at
		FROM emission_factors
		WHERE activity_type = $1 AND unit = $2
		ORDER BY year DESC`

	rows, err := r.db.Query(ctx, query, activityType, unit)
	if err != nil {
		return nil, fmt.Errorf("querying emission factors: %w", err)
	}
	defer rows.Close()

	var factors []*emissions.EmissionFactor
	for rows.Next() {
		var f emissions.EmissionFactor
		if err := rows.Scan(&f.ID, &f.ActivityType, &f.Unit, &f.Year, &f.Value, &f.Source, &f.Region, &f.Standard, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning emission factor: %w", err)
		}
		factors = append(factors, &f)
	}
	return factors, rows.Err()
}

func (r *FactorRepository) GetFactorByID(ctx context.Context, id uuid.UUID) (*emissions.EmissionFactor, error) {
	query := `
		SELECT id, activity_type, unit, year, value, source, COALESCE(region, ''), COALESCE(standard, ''), created_at
		FROM emission_factors WHERE id = $1`

	var f emissions.EmissionFactor
	err := r.db.QueryRow(ctx, query, id).Scan(
		&f.ID, &f.ActivityType, &f.Unit, &f.Year, &f.Value, &f.Source, &f.Region, &f.Standard, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainerrors.NewNotFoundError("emission factor")
		}
		return nil, fmt.Errorf("querying emission factor: %w", err)
	}
	return &f, nil
}

func (r *FactorRepository) FindGridFactor(ctx context.Context, region string, year int, projectID *uuid.UUID) (*emissions.GridEmissionFactor, error) {
	// Overrides first: rows with a matching project_id shadow global rows.
	query := `
		SELECT id, region, year, value, source, project_id, created_at
		FROM grid_emission_factors
		WHERE region = $1 AND year = $2 AND (project_id = $3 OR project_id IS NULL)
		ORDER BY project_id NULLS LAST
		LIMIT 1`

	var g emissions.GridEmissionFactor
	err := r.db.QueryRow(ctx, query, region, year, projectID).Scan(
		&g.ID, &g.Region, &g.Year, &g.Value, &g.Source, &g.ProjectID, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying grid factor: %w", err)
	}
	return &g, nil
}

func (r *FactorRepository) FindLatestGridFactorBefore(ctx context.Context, region string, year int, projectID *uuid.UUID) (*emissions.GridEmissionFactor, error) {
	query := `
		SELECT id, region, year, value, source, project_id, created_at
		FROM grid_emission_factors
		WHERE region = $1 AND year < $2 AND (project_id = $3 OR project_id IS NULL)
		ORDER BY year DESC, project_id NULLS LAST
		LIMIT 1`

	var g emissions.GridEmissionFactor
	err := r.db.QueryRow(ctx, query, region, year, projectID).Scan(
		&g.ID, &g.Region, &g.Year, &g.Value, &g.Source, &g.ProjectID, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying grid factor fallback: %w", err)
	}
	return &g, nil
}

func (r *FactorRepository) FindPrecursorFactors(ctx context.Context, materialType string, projectID *uuid.UUID) ([]*emissions.PrecursorFactor, error) {
	query := `
		SELECT id, material_type, production_route, value, source, project_id, created_at
		FROM precursor_factors
		WHERE material_type = $1 AND (project_id = $2 OR project_id IS NULL)
		ORDER BY production_route, project_id NULLS LAST`

	rows, err := r.db.Query(ctx, query, materialType, projectID)
	if err != nil {
		return nil, fmt.Errorf("querying precursor factors: %w", err)
	}
	defer rows.Close()

	var factors []*emissions.PrecursorFactor
	seenRoutes := make(map[string]bool)
	for rows.Next() {
		var p emissions.PrecursorFactor
		if err := rows.Scan(&p.ID, &p.MaterialType, &p.ProductionRoute, &p.Value, &p.Source, &p.ProjectID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning precursor factor: %w", err)
		}
		// An override row shadows the global row for the same route.
		if seenRoutes[p.ProductionRoute] {
			continue
		}
		seenRoutes[p.ProductionRoute] = true
		factors = append(factors, &p)
	}
	return factors, rows.Err()
}
