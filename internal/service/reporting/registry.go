package reporting

import (
	"github.com/greenledger/carbon-compliance-backend/internal/domain/report"
)

// Requirements declares what a compliance standard demands of a report
// document. Field names are dotted paths into the serialized document.
type Requirements struct {
	RequiredFields    []string
	OptionalFields    []string
	Sections          []string
	SignatureRequired bool
}

// baselineRequired is common to every standard: project identity, reporting
// period, Scope 1/2 and the overall total.
var baselineRequired = []string{
	"project.name",
	"project.organization",
	"period.start",
	"period.end",
	"emissions.scope1",
	"emissions.scope2",
	"emissions.total",
}

// standardRequirements is the closed registry over the six supported
// standards. Adding a standard means adding an enum value, a row here and,
// where needed, an extra validator in standardValidators.
var standardRequirements = map[report.Standard]Requirements{
	report.StandardEUCBAM: {
		RequiredFields: append(baselineRequired,
			"standard_fields.commodity_code",
			"standard_fields.direct_emissions",
			"standard_fields.indirect_emissions",
			"standard_fields.precursor_emissions",
		),
		OptionalFields: []string{
			"standard_fields.installation_id",
			"standard_fields.carbon_price_due",
			"cfp",
		},
		Sections:          []string{"summary", "activities", "embedded_emissions", "precursors"},
		SignatureRequired: true,
	},
	report.StandardUKCBAM: {
		RequiredFields: append(baselineRequired,
			"standard_fields.commodity_code",
			"standard_fields.direct_emissions",
			"standard_fields.indirect_emissions",
			"standard_fields.precursor_emissions",
		),
		OptionalFields: []string{
			"standard_fields.uk_registration_number",
			"cfp",
		},
		Sections:          []string{"summary", "activities", "embedded_emissions", "precursors"},
		SignatureRequired: true,
	},
	report.StandardChinaCarbon: {
		RequiredFields: append(baselineRequired,
			"standard_fields.unified_credit_code",
		),
		OptionalFields: []string{
			"standard_fields.industry_classification",
			"standard_fields.verification_agency",
			"emissions.scope3",
		},
		Sections:          []string{"summary", "activities", "enterprise_info"},
		SignatureRequired: false,
	},
	report.StandardKESG: {
		RequiredFields: append(baselineRequired,
			"emissions.scope3",
			"standard_fields.reduction_target",
		),
		OptionalFields: []string{
			"standard_fields.esg_committee",
			"standard_fields.renewable_energy_ratio",
			"cfo",
		},
		Sections:          []string{"summary", "activities", "scope3_breakdown", "governance"},
		SignatureRequired: true,
	},
	report.StandardMAFFESG: {
		RequiredFields: append(baselineRequired,
			"emissions.scope3",
		),
		OptionalFields: []string{
			"standard_fields.agricultural_category",
			"standard_fields.supply_chain_coverage",
			"cfo",
		},
		Sections:          []string{"summary", "activities", "scope3_breakdown", "supply_chain"},
		SignatureRequired: true,
	},
	report.StandardThailandESG: {
		RequiredFields: baselineRequired,
		OptionalFields: []string{
			"standard_fields.tgo_registration",
			"emissions.scope3",
			"cfo",
		},
		Sections:          []string{"summary", "activities"},
		SignatureRequired: false,
	},
}

// RequirementsFor returns the requirement set for a standard. The bool is
// false for unknown standards.
func RequirementsFor(standard report.Standard) (Requirements, bool) {
	req, ok := standardRequirements[standard]
	return req, ok
}

// SignatureRequired reports whether the standard mandates a signature before
// submission.
func SignatureRequired(standard report.Standard) bool {
	return standardRequirements[standard].SignatureRequired
}
