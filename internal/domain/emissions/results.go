package emissions

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LifecycleStage is one of the five CFP product lifecycle stages
type LifecycleStage string

const (
	StageRawMaterials LifecycleStage = "raw_materials"
	StageProduction   LifecycleStage = "production"
	StageDistribution LifecycleStage = "distribution"
	StageUse          LifecycleStage = "use"
	StageEndOfLife    LifecycleStage = "end_of_life"
)

// AllLifecycleStages returns the five stages in lifecycle order
func AllLifecycleStages() []LifecycleStage {
	return []LifecycleStage{
		StageRawMaterials,
		StageProduction,
		StageDistribution,
		StageUse,
		StageEndOfLife,
	}
}

// CFPResult is an append-only carbon-footprint-of-product snapshot. A
// recalculation always inserts a new row; prior snapshots are never updated.
// Invariant: the five stage values sum to Total within 4 decimal places.
type CFPResult struct {
	ID               uuid.UUID                          `json:"id"`
	ProjectID        uuid.UUID                          `json:"project_id"`
	Stages           map[LifecycleStage]decimal.Decimal `json:"stages"`
	Total            decimal.Decimal                    `json:"total"`
	PerUnit          decimal.Decimal                    `json:"per_unit"`
	ProductionVolume decimal.Decimal                    `json:"production_volume"`
	AllocationMethod string                             `json:"allocation_method"`
	IncludeBiogenic  bool                               `json:"include_biogenic"`
	CreatedAt        time.Time                          `json:"created_at"`
}

// CFOResult is an append-only carbon-footprint-of-organization snapshot.
// Invariant: Scope1 + Scope2Location + Scope3Upstream + Scope3Downstream
// equals Total within 4 decimal places.
type CFOResult struct {
	ID                  uuid.UUID                          `json:"id"`
	ProjectID           uuid.UUID                          `json:"project_id"`
	Scope1              decimal.Decimal                    `json:"scope1"`
	Scope2Location      decimal.Decimal                    `json:"scope2_location"`
	Scope3Upstream      decimal.Decimal                    `json:"scope3_upstream"`
	Scope3Downstream    decimal.Decimal                    `json:"scope3_downstream"`
	Scope3Categories    map[Scope3Category]decimal.Decimal `json:"scope3_categories"`
	Total               decimal.Decimal                    `json:"total"`
	ConsolidationMethod string                             `json:"consolidation_method"`
	CreatedAt           time.Time                          `json:"created_at"`
}

// Summary is the canonical per-project emissions rollup used by dashboards
// and report assembly alike. All values rounded to 4 decimal places.
type Summary struct {
	ProjectID        uuid.UUID                          `json:"project_id"`
	Scope1           decimal.Decimal                    `json:"scope1"`
	Scope2           decimal.Decimal                    `json:"scope2"`
	Scope3           decimal.Decimal                    `json:"scope3"`
	Scope3Categories map[Scope3Category]decimal.Decimal `json:"scope3_categories"`
	Total            decimal.Decimal                    `json:"total"`
	ActivityCount    int                                `json:"activity_count"`
}
