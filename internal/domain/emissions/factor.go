package emissions

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EmissionFactor is an immutable-per-version conversion factor keyed by
// (activity type, unit, year). Rows are only ever superseded by newer years,
// never mutated in place.
type EmissionFactor struct {
	ID           uuid.UUID       `json:"id"`
	ActivityType string          `json:"activity_type"`
	Unit         string          `json:"unit"`
	Year         int             `json:"year"`
	Value        decimal.Decimal `json:"value"`
	Source       string          `json:"source"`
	Region       string          `json:"region,omitempty"`
	Standard     string          `json:"standard,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// GridEmissionFactor is a kg CO2e per kWh factor for a region and year.
// A per-project override shadows the global row without mutating it.
type GridEmissionFactor struct {
	ID        uuid.UUID       `json:"id"`
	Region    string          `json:"region"`
	Year      int             `json:"year"`
	Value     decimal.Decimal `json:"value"`
	Source    string          `json:"source"`
	ProjectID *uuid.UUID      `json:"project_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// IsOverride reports whether this row shadows a global factor for one project
func (g *GridEmissionFactor) IsOverride() bool {
	return g.ProjectID != nil
}

// PrecursorFactor is the embedded carbon of an input material, in kg CO2e
// per kg, keyed by (material type, production route). Same per-project
// override shadowing as grid factors.
type PrecursorFactor struct {
	ID              uuid.UUID       `json:"id"`
	MaterialType    string          `json:"material_type"`
	ProductionRoute string          `json:"production_route"`
	Value           decimal.Decimal `json:"value"`
	Source          string          `json:"source"`
	ProjectID       *uuid.UUID      `json:"project_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (p *PrecursorFactor) IsOverride() bool {
	return p.ProjectID != nil
}

// PrecursorCalculation is one persisted precursor contribution produced while
// calculating a scope3 activity, one row per matched factor.
type PrecursorCalculation struct {
	ID         uuid.UUID       `json:"id"`
	ActivityID uuid.UUID       `json:"activity_id"`
	FactorID   uuid.UUID       `json:"factor_id"`
	QuantityKg decimal.Decimal `json:"quantity_kg"`
	Emissions  decimal.Decimal `json:"emissions"`
	CreatedAt  time.Time       `json:"created_at"`
}
