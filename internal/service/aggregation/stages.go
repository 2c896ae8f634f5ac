package aggregation

import (
	"github.com/greenledger/carbon-compliance-backend/internal/domain/emissions"
)

// categoryStages maps Scope 3 categories onto product lifecycle stages for
// CFP computation. Scope 1 and 2 activities always land in production;
// categories not listed here default to production as well.
var categoryStages = map[emissions.Scope3Category]emissions.LifecycleStage{
	emissions.CategoryPurchasedGoods:      emissions.StageRawMaterials,
	emissions.CategoryCapitalGoods:        emissions.StageRawMaterials,
	emissions.CategoryFuelEnergy:          emissions.StageRawMaterials,
	emissions.CategoryUpstreamTransport:   emissions.StageDistribution,
	emissions.CategoryDownstreamTransport: emissions.StageDistribution,
	emissions.CategoryWaste:               emissions.StageEndOfLife,
	emissions.CategoryEndOfLife:           emissions.StageEndOfLife,
	emissions.CategoryProcessing:          emissions.StageUse,
	emissions.CategoryUseOfProducts:       emissions.StageUse,
}

// stageFor maps one activity onto its lifecycle stage
func stageFor(a *emissions.Activity) emissions.LifecycleStage {
	if a.Scope == emissions.Scope1 || a.Scope == emissions.Scope2 {
		return emissions.StageProduction
	}
	if a.Category != nil {
		if stage, ok := categoryStages[*a.Category]; ok {
			return stage
		}
	}
	return emissions.StageProduction
}
