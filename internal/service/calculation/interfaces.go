package calculation

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greenledger/carbon-compliance-backend/internal/domain/emissions"
	"github.com/greenledger/carbon-compliance-backend/internal/service/factorsearch"
)

// Resolver resolves emission factors with the documented fallback chain.
// Resolution never fails outright: a missing factor degrades to a
// conservative estimate and surfaces only through the source tag.
type Resolver interface {
	// Resolve returns the factor and its provenance for an activity type,
	// unit and scope.
	Resolve(ctx context.Context, activityType, unit string, scope emissions.Scope) (decimal.Decimal, string)

	// ResolveGridFactor returns the kg CO2e/kWh factor for a region and
	// year, falling back to the most recent earlier year and finally to a
	// global average.
	ResolveGridFactor(ctx context.Context, region string, year int, projectID *uuid.UUID) (decimal.Decimal, string)
}

// FactorSearcher finds external emission-factor candidates for activity
// types with no internal factor data, best trust tier first.
type FactorSearcher interface {
	Search(ctx context.Context, activityType, unit string) []factorsearch.Result
}

// CalculationResult is the outcome of calculating one activity
type CalculationResult struct {
	ActivityID         uuid.UUID           `json:"activity_id"`
	TotalEmissions     decimal.Decimal     `json:"total_emissions"`
	Factor             decimal.Decimal     `json:"factor"`
	FactorSource       string              `json:"factor_source"`
	TierApplied        emissions.TierLevel `json:"tier_applied"`
	PrecursorEmissions decimal.Decimal     `json:"precursor_emissions"`
	Warnings           []string            `json:"warnings,omitempty"`
}

// CalculateOptions tunes a single-activity calculation. CustomFactor takes
// precedence over FactorID, which takes precedence over the resolver.
type CalculateOptions struct {
	CustomFactor      *decimal.Decimal
	FactorID          *uuid.UUID
	TierOverride      *emissions.TierLevel
	IncludePrecursors bool
}

// BatchError records one failed item in a batch calculation
type BatchError struct {
	ActivityID uuid.UUID `json:"activity_id"`
	Message    string    `json:"message"`
}

// BatchCalculationResult reports per-item outcomes of a batch run. Prior
// successes are never rolled back by later failures.
type BatchCalculationResult struct {
	Calculated int                  `json:"calculated"`
	Failed     int                  `json:"failed"`
	Results    []*CalculationResult `json:"results"`
	Errors     []BatchError         `json:"errors"`
}
