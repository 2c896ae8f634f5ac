package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/greenledger/carbon-compliance-backend/internal/domain/emissions"
)

// ResultRepository persists append-only CFP/CFO snapshots
type ResultRepository struct {
	db *pgxpool.Pool
}

// NewResultRepository creates a new result repository
func NewResultRepository(db *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{db: db}
}

func (r *ResultRepository) InsertCFP(ctx context.Context, result *emissions.CFPResult) error {
	stages, err := json.Marshal(result.Stages)
	if err != nil {
		return fmt.Errorf("marshaling stages: %w", err)
	}

	query := `
		INSERT INTO cfp_results (id, project_id, stages, total, per_unit, production_volume, allocation_method, include_biogenic, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = r.db.Exec(ctx, query,
		result.ID, result.ProjectID, stages, result.Total, result.PerUnit,
		result.ProductionVolume, result.AllocationMethod, result.IncludeBiogenic, result.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting cfp result: %w", err)
	}
	return nil
}

func (r *ResultRepository) InsertCFO(ctx context.Context, result *emissions.CFOResult) error {
	categories, err := json.Marshal(result.Scope3Categories)
	if err != nil {
		return fmt.Errorf("marshaling categories: %w", err)
	}

	query := `
		INSERT INTO cfo_results (id, project_id, scope1, scope2_location, scope3_upstream, scope3_downstream, scope3_categories, total, consolidation_method, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = r.db.Exec(ctx, query,
		result.ID, result.ProjectID, result.Scope1, result.Scope2Location,
		result.Scope3Upstream, result.Scope3Downstream, categories,
		result.Total, result.ConsolidationMethod, result.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting cfo result: %w", err)
	}
	return nil
}

func (r *ResultRepository) LatestCFP(ctx context.Context, projectID uuid.UUID) (*emissions.CFPResult, error) {
	query := `
		SELECT id, project_id, stages, total, per_unit, production_volume, allocation_method, include_biogenic, created_at
		FROM cfp_results
		WHERE project_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	var result emissions.CFPResult
	var stages []byte
	err := r.db.QueryRow(ctx, query, projectID).Scan(
		&result.ID, &result.ProjectID, &stages, &result.Total, &result.PerUnit,
		&result.ProductionVolume, &result.AllocationMethod, &result.IncludeBiogenic, &result.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying cfp result: %w", err)
	}

	result.Stages = make(map[emissions.LifecycleStage]decimal.Decimal)
	if err := json.Unmarshal(stages, &result.Stages); err != nil {
		return nil, fmt.Errorf("unmarshaling stages: %w", err)
	}
	return &result, nil
}

func (r *ResultRepository) LatestCFO(ctx context.Context, projectID uuid.UUID) (*emissions.CFOResult, error) {
	query := `
		SELECT id, project_id, scope1, scope2_location, scope3_upstream, scope3_downstream, scope3_categories, total, consolidation_method, created_at
		FROM cfo_results
		WHERE project_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	var result emissions.CFOResult
	var categories []byte
	err := r.db.QueryRow(ctx, query, projectID).Scan(
		&result.ID, &result.ProjectID, &result.Scope1, &result.Scope2Location,
		&result.Scope3Upstream, &result.Scope3Downstream, &categories,
		&result.Total, &result.ConsolidationMethod, &result.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying cfo result: %w", err)
	}

	result.Scope3Categories = make(map[emissions.Scope3Category]decimal.Decimal)
	if err := json.Unmarshal(categories, &result.Scope3Categories); err != nil {
		return nil, fmt.Errorf("unmarshaling categories: %w", err)
	}
	return &result, nil
}
