package reporting

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greenledger/carbon-compliance-backend/internal/domain/emissions"
	domainerrors "github.com/greenledger/carbon-compliance-backend/internal/domain/errors"
	"github.com/greenledger/carbon-compliance-backend/internal/domain/report"
	"github.com/greenledger/carbon-compliance-backend/internal/service/aggregation"
)

// GenerateOptions carries caller-supplied inputs to report assembly.
// StandardFields values override the defaults derived from aggregates.
type GenerateOptions struct {
	PeriodStart    time.Time
	PeriodEnd      time.Time
	Format         report.Format
	StandardFields map[string]interface{}
}

// Assembler builds the standard-agnostic report document from project state
// and aggregates. Assembly is deterministic for a given (project state,
// standard, options) triple: activities are emitted in a fixed order and all
// numeric values are serialized as fixed-precision strings.
type Assembler struct {
	projects   report.ProjectRepository
	activities emissions.ActivityRepository
	results    emissions.ResultRepository
}

// NewAssembler creates a report assembler
func NewAssembler(projects report.ProjectRepository, activities emissions.ActivityRepository, results emissions.ResultRepository) *Assembler {
	return &Assembler{
		projects:   projects,
		activities: activities,
		results:    results,
	}
}

// Assemble builds the report document for one project and standard
func (a *Assembler) Assemble(ctx context.Context, projectID uuid.UUID, standard report.Standard, opts GenerateOptions) (*report.ReportData, error) {
	project, err := a.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	activities, err := a.activities.ListCalculatedByProject(ctx, projectID)
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to list calculated activities").WithCause(err)
	}

	summary := aggregation.Summarize(projectID, activities)

	sort.Slice(activities, func(i, j int) bool {
		return activities[i].ID.String() < activities[j].ID.String()
	})

	lines := make([]report.ActivityLine, 0, len(activities))
	for _, act := range activities {
		line := report.ActivityLine{
			ID:             act.ID,
			Scope:          string(act.Scope),
			ActivityType:   act.ActivityType,
			Quantity:       act.Quantity.String(),
			Unit:           act.Unit,
			TotalEmissions: act.TotalEmissions.StringFixed(4),
			FactorSource:   act.FactorSource,
		}
		if act.Category != nil {
			line.Category = string(*act.Category)
		}
		lines = append(lines, line)
	}

	data := &report.ReportData{
		Project: report.ProjectInfo{
			ID:           project.ID,
			Name:         project.Name,
			Organization: project.Organization,
			Country:      project.Country,
		},
		Period: report.ReportingPeriod{
			Start: opts.PeriodStart,
			End:   opts.PeriodEnd,
		},
		Standard:    standard,
		Emissions:   emissionsBlock(summary),
		Activities:  lines,
		GeneratedAt: time.Now().UTC(),
	}

	if cfp, err := a.results.LatestCFP(ctx, projectID); err == nil && cfp != nil {
		data.CFP = cfpBlock(cfp)
	}
	if cfo, err := a.results.LatestCFO(ctx, projectID); err == nil && cfo != nil {
		data.CFO = cfoBlock(cfo)
	}

	data.StandardFields = standardFieldDefaults(standard, summary)
	for k, v := range opts.StandardFields {
		data.StandardFields[k] = v
	}

	return data, nil
}

func emissionsBlock(s *emissions.Summary) report.EmissionsBlock {
	block := report.EmissionsBlock{
		Scope1: s.Scope1.StringFixed(4),
		Scope2: s.Scope2.StringFixed(4),
		Total:  s.Total.StringFixed(4),
	}
	if s.Scope3.IsPositive() {
		block.Scope3 = s.Scope3.StringFixed(4)
		block.Scope3Categories = make(map[string]string, len(s.Scope3Categories))
		for cat, v := range s.Scope3Categories {
			block.Scope3Categories[string(cat)] = v.StringFixed(4)
		}
	}
	return block
}

func cfpBlock(cfp *emissions.CFPResult) map[string]interface{} {
	stages := make(map[string]interface{}, len(cfp.Stages))
	for stage, v := range cfp.Stages {
		stages[string(stage)] = v.StringFixed(4)
	}
	return map[string]interface{}{
		"stages":            stages,
		"total":             cfp.Total.StringFixed(4),
		"per_unit":          cfp.PerUnit.StringFixed(4),
		"production_volume": cfp.ProductionVolume.String(),
		"allocation_method": cfp.AllocationMethod,
		"include_biogenic":  cfp.IncludeBiogenic,
	}
}

func cfoBlock(cfo *emissions.CFOResult) map[string]interface{} {
	categories := make(map[string]interface{}, len(cfo.Scope3Categories))
	for cat, v := range cfo.Scope3Categories {
		categories[string(cat)] = v.StringFixed(4)
	}
	return map[string]interface{}{
		"scope1":               cfo.Scope1.StringFixed(4),
		"scope2_location":      cfo.Scope2Location.StringFixed(4),
		"scope3_upstream":      cfo.Scope3Upstream.StringFixed(4),
		"scope3_downstream":    cfo.Scope3Downstream.StringFixed(4),
		"scope3_categories":    categories,
		"total":                cfo.Total.StringFixed(4),
		"consolidation_method": cfo.ConsolidationMethod,
	}
}

// standardFieldDefaults derives the supplemental values that can be defaulted
// from aggregates. Fields with no sensible default (commodity codes,
// registration numbers, targets) stay absent until the caller supplies them.
func standardFieldDefaults(standard report.Standard, summary *emissions.Summary) map[string]interface{} {
	fields := make(map[string]interface{})

	switch standard {
	case report.StandardEUCBAM, report.StandardUKCBAM:
		fields["direct_emissions"] = summary.Scope1.StringFixed(4)
		fields["indirect_emissions"] = summary.Scope2.StringFixed(4)
		fields["precursor_emissions"] = precursorShare(summary).StringFixed(4)
	}

	return fields
}

// precursorShare approximates embedded precursor emissions as the purchased
// goods share of Scope 3.
func precursorShare(summary *emissions.Summary) decimal.Decimal {
	return summary.Scope3Categories[emissions.CategoryPurchasedGoods]
}
