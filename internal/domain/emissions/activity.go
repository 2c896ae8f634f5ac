package emissions

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Scope identifies the GHG Protocol emission scope of an activity
type Scope string

const (
	Scope1 Scope = "scope1"
	Scope2 Scope = "scope2"
	Scope3 Scope = "scope3"
)

func (s Scope) Valid() bool {
	switch s {
	case Scope1, Scope2, Scope3:
		return true
	}
	return false
}

// TierLevel is the data-quality tier of an activity's underlying data.
// Tier2Plus carries a configurable multiplier on the computed emissions.
type TierLevel string

const (
	Tier1     TierLevel = "tier1"
	Tier2     TierLevel = "tier2"
	Tier2Plus TierLevel = "tier2plus"
)

func (t TierLevel) Valid() bool {
	switch t {
	case Tier1, Tier2, Tier2Plus:
		return true
	}
	return false
}

// CalculationStatus tracks the lifecycle of an activity's emission figure
type CalculationStatus string

const (
	StatusPending    CalculationStatus = "pending"
	StatusCalculated CalculationStatus = "calculated"
	StatusError      CalculationStatus = "error"
)

// Activity is one emission-producing event owned by a project.
// TotalEmissions is nil until the calculator has run; any edit to quantity
// or unit resets the activity to pending so the stored figure can never be
// stale relative to its inputs.
type Activity struct {
	ID             uuid.UUID         `json:"id"`
	ProjectID      uuid.UUID         `json:"project_id"`
	Scope          Scope             `json:"scope"`
	Category       *Scope3Category   `json:"category,omitempty"`
	ActivityType   string            `json:"activity_type"`
	MaterialType   string            `json:"material_type,omitempty"`
	Quantity       decimal.Decimal   `json:"quantity"`
	Unit           string            `json:"unit"`
	Tier           TierLevel         `json:"tier"`
	Status         CalculationStatus `json:"status"`
	TotalEmissions *decimal.Decimal  `json:"total_emissions,omitempty"`
	Factor         *decimal.Decimal  `json:"factor,omitempty"`
	FactorSource   string            `json:"factor_source,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewActivity creates a pending activity after validating its enums
func NewActivity(projectID uuid.UUID, scope Scope, activityType string, quantity decimal.Decimal, unit string, tier TierLevel) (*Activity, error) {
	if projectID == uuid.Nil {
		return nil, fmt.Errorf("project ID cannot be nil")
	}
	if !scope.Valid() {
		return nil, fmt.Errorf("invalid scope: %s", scope)
	}
	if activityType == "" {
		return nil, fmt.Errorf("activity type cannot be empty")
	}
	if unit == "" {
		return nil, fmt.Errorf("unit cannot be empty")
	}
	if tier == "" {
		tier = Tier1
	}
	if !tier.Valid() {
		return nil, fmt.Errorf("invalid tier level: %s", tier)
	}

	now := time.Now().UTC()
	return &Activity{
		ID:           uuid.New(),
		ProjectID:    projectID,
		Scope:        scope,
		ActivityType: activityType,
		Quantity:     quantity,
		Unit:         unit,
		Tier:         tier,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// WithCategory assigns a Scope 3 category. Only valid for scope3 activities.
func (a *Activity) WithCategory(cat Scope3Category) (*Activity, error) {
	if a.Scope != Scope3 {
		return nil, fmt.Errorf("category only applies to scope3 activities")
	}
	if !cat.Valid() {
		return nil, fmt.Errorf("invalid scope3 category: %s", cat)
	}
	a.Category = &cat
	return a, nil
}

// UpdateQuantity changes the quantity and invalidates any prior calculation
func (a *Activity) UpdateQuantity(quantity decimal.Decimal) {
	a.Quantity = quantity
	a.resetCalculation()
}

// UpdateUnit changes the unit and invalidates any prior calculation
func (a *Activity) UpdateUnit(unit string) {
	a.Unit = unit
	a.resetCalculation()
}

func (a *Activity) resetCalculation() {
	a.Status = StatusPending
	a.TotalEmissions = nil
	a.Factor = nil
	a.FactorSource = ""
	a.UpdatedAt = time.Now().UTC()
}

// MarkCalculated records the calculation outcome and factor provenance
func (a *Activity) MarkCalculated(total, factor decimal.Decimal, source string) {
	a.TotalEmissions = &total
	a.Factor = &factor
	a.FactorSource = source
	a.Status = StatusCalculated
	a.UpdatedAt = time.Now().UTC()
}

// MarkError flags the activity as failed without touching inputs
func (a *Activity) MarkError() {
	a.Status = StatusError
	a.TotalEmissions = nil
	a.UpdatedAt = time.Now().UTC()
}

// IsCalculated reports whether the activity carries a current emission figure
func (a *Activity) IsCalculated() bool {
	return a.Status == StatusCalculated && a.TotalEmissions != nil
}
