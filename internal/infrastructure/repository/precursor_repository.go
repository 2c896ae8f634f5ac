package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greenledger/carbon-compliance-backend/internal/domain/emissions"
)

// PrecursorCalculationRepository persists per-factor precursor contributions
type PrecursorCalculationRepository struct {
	db *pgxpool.Pool
}

// NewPrecursorCalculationRepository creates a new precursor calculation repository
func NewPrecursorCalculationRepository(db *pgxpool.Pool) *PrecursorCalculationRepository {
	return &PrecursorCalculationRepository{db: db}
}

func (r *PrecursorCalculationRepository) Insert(ctx context.Context, calc *emissions.PrecursorCalculation) error {
	query := `
		INSERT INTO precursor_calculations (id, activity_id, factor_id, quantity_kg, emissions, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		calc.ID, calc.ActivityID, calc.FactorID, calc.QuantityKg, calc.Emissions, calc.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting precursor calculation: %w", err)
	}
	return nil
}

// DeleteByActivity clears prior contributions before a recalculation so the
// stored rows always reflect the latest run.
func (r *PrecursorCalculationRepository) DeleteByActivity(ctx context.Context, activityID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM precursor_calculations WHERE activity_id = $1`, activityID)
	if err != nil {
		return fmt.Errorf("deleting precursor calculations: %w", err)
	}
	return nil
}
