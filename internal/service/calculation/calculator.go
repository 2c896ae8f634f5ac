package calculation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/greenledger/carbon-compliance-backend/internal/domain/emissions"
	domainerrors "github.com/greenledger/carbon-compliance-backend/internal/domain/errors"
	"github.com/greenledger/carbon-compliance-backend/internal/metrics"
)

// emissionPrecision is the decimal precision every stored emission figure
// is rounded to.
const emissionPrecision = 4

// Calculator computes kg CO2e for activities and persists the outcome
type Calculator struct {
	activities emissions.ActivityRepository
	factors    emissions.FactorRepository
	precursors emissions.PrecursorCalculationRepository
	resolver   Resolver
	multiplier decimal.Decimal
	metrics    *metrics.Registry
	logger     *zap.Logger
}

// NewCalculator creates a calculator. tier2PlusMultiplier applies to
// tier2plus activities and must be greater than 1.0 (validated by config).
func NewCalculator(
	activities emissions.ActivityRepository,
	factors emissions.FactorRepository,
	precursors emissions.PrecursorCalculationRepository,
	resolver Resolver,
	tier2PlusMultiplier float64,
	m *metrics.Registry,
	logger *zap.Logger,
) *Calculator {
	return &Calculator{
		activities: activities,
		factors:    factors,
		precursors: precursors,
		resolver:   resolver,
		multiplier: decimal.NewFromFloat(tier2PlusMultiplier),
		metrics:    m,
		logger:     logger,
	}
}

// Calculate computes and persists the emissions of one activity. A missing
// activity is the only hard failure; everything else degrades through the
// factor fallback chain rather than erroring.
func (c *Calculator) Calculate(ctx context.Context, activityID uuid.UUID, opts CalculateOptions) (*CalculationResult, error) {
	activity, err := c.activities.GetByID(ctx, activityID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result := &CalculationResult{ActivityID: activity.ID}

	factor, source := c.selectFactor(ctx, activity, opts, result)
	result.Factor = factor
	result.FactorSource = source

	tier := activity.Tier
	if opts.TierOverride != nil && opts.TierOverride.Valid() {
		tier = *opts.TierOverride
	}
	result.TierApplied = tier

	total := activity.Quantity.Mul(factor)
	if tier == emissions.Tier2Plus {
		total = total.Mul(c.multiplier)
	}

	if opts.IncludePrecursors && activity.Scope == emissions.Scope3 {
		precursorTotal := c.computePrecursors(ctx, activity, result)
		result.PrecursorEmissions = precursorTotal
		total = total.Add(precursorTotal)
	}

	total = total.Round(emissionPrecision)
	result.TotalEmissions = total

	activity.MarkCalculated(total, factor, source)
	if err := c.activities.Update(ctx, activity); err != nil {
		c.metrics.RecordCalculation(ctx, string(activity.Scope), float64(time.Since(start).Milliseconds()), true)
		return nil, domainerrors.NewInternalError("failed to persist calculation").WithCause(err)
	}

	c.metrics.RecordCalculation(ctx, string(activity.Scope), float64(time.Since(start).Milliseconds()), false)
	return result, nil
}

// CalculateAll runs every pending activity of a project, isolating each
// item's outcome: a failed activity is marked error and recorded, while
// the rest continue. Prior successes are never rolled back.
func (c *Calculator) CalculateAll(ctx context.Context, projectID uuid.UUID, includePrecursors bool) (*BatchCalculationResult, error) {
	pending, err := c.activities.ListPendingByProject(ctx, projectID)
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to list pending activities").WithCause(err)
	}

	batch := &BatchCalculationResult{}
	for _, activity := range pending {
		// Early termination between units leaves completed units intact.
		if err := ctx.Err(); err != nil {
			return batch, err
		}

		res, err := c.Calculate(ctx, activity.ID, CalculateOptions{IncludePrecursors: includePrecursors})
		if err != nil {
			batch.Failed++
			batch.Errors = append(batch.Errors, BatchError{
				ActivityID: activity.ID,
				Message:    err.Error(),
			})
			activity.MarkError()
			if uerr := c.activities.Update(ctx, activity); uerr != nil {
				c.logger.Error("failed to mark activity as errored",
					zap.String("activity_id", activity.ID.String()),
					zap.Error(uerr))
			}
			continue
		}

		batch.Calculated++
		batch.Results = append(batch.Results, res)
	}

	return batch, nil
}

// selectFactor applies the precedence chain: explicit custom value, explicit
// factor id, resolver. Lookup failures degrade down the chain instead of
// failing the calculation.
func (c *Calculator) selectFactor(ctx context.Context, activity *emissions.Activity, opts CalculateOptions, result *CalculationResult) (decimal.Decimal, string) {
	if opts.CustomFactor != nil {
		return *opts.CustomFactor, "custom"
	}

	if opts.FactorID != nil {
		f, err := c.factors.GetFactorByID(ctx, *opts.FactorID)
		if err == nil {
			return f.Value, f.Source
		}
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("factor %s not found, falling back to resolution", opts.FactorID))
		c.logger.Warn("explicit factor lookup failed",
			zap.String("factor_id", opts.FactorID.String()),
			zap.Error(err))
	}

	factor, source := c.resolver.Resolve(ctx, activity.ActivityType, activity.Unit, activity.Scope)
	if source == SourceEstimate {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("no factor data for %s/%s, using conservative estimate", activity.ActivityType, activity.Unit))
	}
	return factor, source
}

// computePrecursors adds embedded-carbon contributions for scope3
// activities, persisting one calculation row per matched factor.
func (c *Calculator) computePrecursors(ctx context.Context, activity *emissions.Activity, result *CalculationResult) decimal.Decimal {
	material := activity.MaterialType
	if material == "" {
		material = activity.ActivityType
	}

	factors, err := c.factors.FindPrecursorFactors(ctx, material, &activity.ProjectID)
	if err != nil {
		result.Warnings = append(result.Warnings, "precursor factor lookup failed, contribution skipped")
		c.logger.Warn("precursor factor lookup failed",
			zap.String("material", material), zap.Error(err))
		return decimal.Zero
	}
	if len(factors) == 0 {
		return decimal.Zero
	}

	if err := c.precursors.DeleteByActivity(ctx, activity.ID); err != nil {
		c.logger.Warn("failed to clear prior precursor rows",
			zap.String("activity_id", activity.ID.String()), zap.Error(err))
	}

	quantityKg := normalizeToKilograms(activity.Quantity, activity.Unit)

	total := decimal.Zero
	for _, f := range factors {
		contribution := quantityKg.Mul(f.Value)
		total = total.Add(contribution)

		calc := &emissions.PrecursorCalculation{
			ID:         uuid.New(),
			ActivityID: activity.ID,
			FactorID:   f.ID,
			QuantityKg: quantityKg,
			Emissions:  contribution.Round(emissionPrecision),
			CreatedAt:  time.Now().UTC(),
		}
		if err := c.precursors.Insert(ctx, calc); err != nil {
			c.logger.Warn("failed to persist precursor calculation",
				zap.String("activity_id", activity.ID.String()),
				zap.String("factor_id", f.ID.String()),
				zap.Error(err))
		}
	}
	return total
}

// normalizeToKilograms converts a quantity to kilograms for precursor
// matching: tonnes scale up by 1000, grams down by 1000, kilograms pass
// through, anything else is taken as-is.
func normalizeToKilograms(quantity decimal.Decimal, unit string) decimal.Decimal {
	thousand := decimal.NewFromInt(1000)
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "t", "ton", "tonne", "tonnes":
		return quantity.Mul(thousand)
	case "g", "gram", "grams":
		return quantity.Div(thousand)
	default:
		return quantity
	}
}
