package aggregation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/greenledger/carbon-compliance-backend/internal/domain/emissions"
	domainerrors "github.com/greenledger/carbon-compliance-backend/internal/domain/errors"
)

const emissionPrecision = 4

// Service rolls calculated activities into scope summaries and CFP/CFO
// snapshots. CFP/CFO computations are pure functions of the activity set at
// call time; a re-run always inserts a new snapshot row.
type Service struct {
	activities emissions.ActivityRepository
	results    emissions.ResultRepository
	logger     *zap.Logger
}

// NewService creates the aggregation service
func NewService(activities emissions.ActivityRepository, results emissions.ResultRepository, logger *zap.Logger) *Service {
	return &Service{
		activities: activities,
		results:    results,
		logger:     logger,
	}
}

// Aggregate produces the canonical per-project emissions summary: totals by
// scope and Scope 3 category over all calculated activities, every value
// rounded to 4 decimal places.
func (s *Service) Aggregate(ctx context.Context, projectID uuid.UUID) (*emissions.Summary, error) {
	activities, err := s.activities.ListCalculatedByProject(ctx, projectID)
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to list calculated activities").WithCause(err)
	}

	summary := Summarize(projectID, activities)
	return summary, nil
}

// Summarize rolls an activity slice into a summary. Exposed separately so
// report assembly can aggregate an already-loaded activity set without a
// second query.
func Summarize(projectID uuid.UUID, activities []*emissions.Activity) *emissions.Summary {
	summary := &emissions.Summary{
		ProjectID:        projectID,
		Scope3Categories: make(map[emissions.Scope3Category]decimal.Decimal),
	}

	for _, a := range activities {
		if !a.IsCalculated() {
			continue
		}
		value := *a.TotalEmissions
		summary.ActivityCount++

		switch a.Scope {
		case emissions.Scope1:
			summary.Scope1 = summary.Scope1.Add(value)
		case emissions.Scope2:
			summary.Scope2 = summary.Scope2.Add(value)
		case emissions.Scope3:
			summary.Scope3 = summary.Scope3.Add(value)
			if a.Category != nil {
				summary.Scope3Categories[*a.Category] = summary.Scope3Categories[*a.Category].Add(value)
			}
		}
	}

	summary.Scope1 = summary.Scope1.Round(emissionPrecision)
	summary.Scope2 = summary.Scope2.Round(emissionPrecision)
	summary.Scope3 = summary.Scope3.Round(emissionPrecision)
	for cat, v := range summary.Scope3Categories {
		summary.Scope3Categories[cat] = v.Round(emissionPrecision)
	}
	summary.Total = summary.Scope1.Add(summary.Scope2).Add(summary.Scope3).Round(emissionPrecision)

	return summary
}

// CFPOptions parameterizes a carbon-footprint-of-product computation
type CFPOptions struct {
	ProductionVolume decimal.Decimal
	AllocationMethod string
	IncludeBiogenic  bool
}

// ComputeCFP maps each calculated activity onto one of five lifecycle
// stages and snapshots the result. Fails only when the project has zero
// calculated activities.
func (s *Service) ComputeCFP(ctx context.Context, projectID uuid.UUID, opts CFPOptions) (*emissions.CFPResult, error) {
	activities, err := s.activities.ListCalculatedByProject(ctx, projectID)
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to list calculated activities").WithCause(err)
	}
	if len(activities) == 0 {
		return nil, domainerrors.ErrNoCalculatedData
	}

	stages := make(map[emissions.LifecycleStage]decimal.Decimal, 5)
	for _, stage := range emissions.AllLifecycleStages() {
		stages[stage] = decimal.Zero
	}

	for _, a := range activities {
		if !a.IsCalculated() {
			continue
		}
		stage := stageFor(a)
		stages[stage] = stages[stage].Add(*a.TotalEmissions)
	}

	total := decimal.Zero
	for stage, v := range stages {
		rounded := v.Round(emissionPrecision)
		stages[stage] = rounded
		total = total.Add(rounded)
	}
	total = total.Round(emissionPrecision)

	// Guard divide-by-zero: a non-positive volume yields per-unit == total.
	perUnit := total
	if opts.ProductionVolume.IsPositive() {
		perUnit = total.Div(opts.ProductionVolume).Round(emissionPrecision)
	}

	result := &emissions.CFPResult{
		ID:               uuid.New(),
		ProjectID:        projectID,
		Stages:           stages,
		Total:            total,
		PerUnit:          perUnit,
		ProductionVolume: opts.ProductionVolume,
		AllocationMethod: opts.AllocationMethod,
		IncludeBiogenic:  opts.IncludeBiogenic,
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.results.InsertCFP(ctx, result); err != nil {
		return nil, domainerrors.NewInternalError("failed to persist CFP result").WithCause(err)
	}

	s.logger.Info("CFP computed",
		zap.String("project_id", projectID.String()),
		zap.String("total", total.String()))
	return result, nil
}

// ComputeCFO sums Scope 1 and location-based Scope 2 directly and splits
// Scope 3 into upstream and downstream halves with a per-category
// breakdown, then snapshots the result.
func (s *Service) ComputeCFO(ctx context.Context, projectID uuid.UUID, consolidationMethod string) (*emissions.CFOResult, error) {
	activities, err := s.activities.ListCalculatedByProject(ctx, projectID)
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to list calculated activities").WithCause(err)
	}
	if len(activities) == 0 {
		return nil, domainerrors.ErrNoCalculatedData
	}

	result := &emissions.CFOResult{
		ID:                  uuid.New(),
		ProjectID:           projectID,
		Scope3Categories:    make(map[emissions.Scope3Category]decimal.Decimal),
		ConsolidationMethod: consolidationMethod,
		CreatedAt:           time.Now().UTC(),
	}

	for _, a := range activities {
		if !a.IsCalculated() {
			continue
		}
		value := *a.TotalEmissions

		switch a.Scope {
		case emissions.Scope1:
			result.Scope1 = result.Scope1.Add(value)
		case emissions.Scope2:
			result.Scope2Location = result.Scope2Location.Add(value)
		case emissions.Scope3:
			category := emissions.CategoryPurchasedGoods
			if a.Category != nil {
				category = *a.Category
			}
			result.Scope3Categories[category] = result.Scope3Categories[category].Add(value)

			if category.Direction() == emissions.DirectionDownstream {
				result.Scope3Downstream = result.Scope3Downstream.Add(value)
			} else {
				result.Scope3Upstream = result.Scope3Upstream.Add(value)
			}
		}
	}

	result.Scope1 = result.Scope1.Round(emissionPrecision)
	result.Scope2Location = result.Scope2Location.Round(emissionPrecision)
	result.Scope3Upstream = result.Scope3Upstream.Round(emissionPrecision)
	result.Scope3Downstream = result.Scope3Downstream.Round(emissionPrecision)
	for cat, v := range result.Scope3Categories {
		result.Scope3Categories[cat] = v.Round(emissionPrecision)
	}
	result.Total = result.Scope1.
		Add(result.Scope2Location).
		Add(result.Scope3Upstream).
		Add(result.Scope3Downstream).
		Round(emissionPrecision)

	if err := s.results.InsertCFO(ctx, result); err != nil {
		return nil, domainerrors.NewInternalError("failed to persist CFO result").WithCause(err)
	}

	s.logger.Info("CFO computed",
		zap.String("project_id", projectID.String()),
		zap.String("total", result.Total.String()))
	return result, nil
}
