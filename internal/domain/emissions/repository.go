package emissions

import (
	"context"

	"github.com/google/uuid"
)

// ActivityRepository persists activities
type ActivityRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Activity, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*Activity, error)
	ListPendingByProject(ctx context.Context, projectID uuid.UUID) ([]*Activity, error)
	ListCalculatedByProject(ctx context.Context, projectID uuid.UUID) ([]*Activity, error)
	Update(ctx context.Context, activity *Activity) error
}

// FactorRepository looks up emission factors of all kinds. Project-scoped
// override rows shadow global rows where both exist.
type FactorRepository interface {
	// FindFactor returns factors matching (activityType, unit), most recent
	// year first. An empty slice is not an error.
	FindFactor(ctx context.Context, activityType, unit string) ([]*EmissionFactor, error)

	// GetFactorByID looks up one factor row
	GetFactorByID(ctx context.Context, id uuid.UUID) (*EmissionFactor, error)

	// FindGridFactor returns the grid factor for (region, year), or nil if
	// no exact row exists. Project overrides take precedence when projectID
	// is non-nil.
	FindGridFactor(ctx context.Context, region string, year int, projectID *uuid.UUID) (*GridEmissionFactor, error)

	// FindLatestGridFactorBefore returns the most recent grid factor for the
	// region with year strictly less than the given year, or nil.
	FindLatestGridFactorBefore(ctx context.Context, region string, year int, projectID *uuid.UUID) (*GridEmissionFactor, error)

	// FindPrecursorFactors returns precursor factors matching the material
	// type, project overrides first.
	FindPrecursorFactors(ctx context.Context, materialType string, projectID *uuid.UUID) ([]*PrecursorFactor, error)
}

// PrecursorCalculationRepository persists per-factor precursor contributions
type PrecursorCalculationRepository interface {
	Insert(ctx context.Context, calc *PrecursorCalculation) error
	DeleteByActivity(ctx context.Context, activityID uuid.UUID) error
}

// ResultRepository persists CFP/CFO snapshots. Inserts only: snapshots are
// append-only by design.
type ResultRepository interface {
	InsertCFP(ctx context.Context, result *CFPResult) error
	InsertCFO(ctx context.Context, result *CFOResult) error
	LatestCFP(ctx context.Context, projectID uuid.UUID) (*CFPResult, error)
	LatestCFO(ctx context.Context, projectID uuid.UUID) (*CFOResult, error)
}
