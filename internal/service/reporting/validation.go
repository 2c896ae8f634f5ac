package reporting

import (
	"fmt"
	"math"
	"strings"

	"github.com/greenledger/carbon-compliance-backend/internal/domain/report"
)

// standardValidators holds the extra per-standard rules applied after the
// generic field-presence pass. Each validator appends to the result in place.
var standardValidators = map[report.Standard]func(doc map[string]interface{}, v *report.Validation){
	report.StandardChinaCarbon: validateChinaCarbon,
	report.StandardKESG:        validateKESG,
	report.StandardMAFFESG:     validateMAFFESG,
}

// Validate checks a report document against its standard's requirements.
// Missing required fields are errors; completeness is the integer percentage
// of required plus optional fields present.
func Validate(data *report.ReportData, standard report.Standard) (*report.Validation, error) {
	req, ok := RequirementsFor(standard)
	if !ok {
		return nil, fmt.Errorf("unknown standard: %s", standard)
	}

	doc, err := data.Document()
	if err != nil {
		return nil, fmt.Errorf("projecting report document: %w", err)
	}

	v := &report.Validation{
		Valid:           true,
		Errors:          []string{},
		Warnings:        []string{},
		MissingRequired: []string{},
	}

	filled := 0
	for _, field := range req.RequiredFields {
		if _, present := report.LookupPath(doc, field); present {
			filled++
			continue
		}
		v.MissingRequired = append(v.MissingRequired, field)
		v.Errors = append(v.Errors, fmt.Sprintf("missing required field: %s", field))
		v.Valid = false
	}
	for _, field := range req.OptionalFields {
		if _, present := report.LookupPath(doc, field); present {
			filled++
		}
	}

	if extra, ok := standardValidators[standard]; ok {
		extra(doc, v)
	}
	if len(v.Errors) > 0 {
		v.Valid = false
	}

	total := len(req.RequiredFields) + len(req.OptionalFields)
	if total > 0 {
		v.Completeness = int(math.Round(float64(filled) / float64(total) * 100))
	}

	return v, nil
}

// validateChinaCarbon demands a non-empty unified social credit code
func validateChinaCarbon(doc map[string]interface{}, v *report.Validation) {
	value, present := report.LookupPath(doc, "standard_fields.unified_credit_code")
	if !present {
		return // already an error via the required-field pass
	}
	code, _ := value.(string)
	if strings.TrimSpace(code) == "" {
		v.Errors = append(v.Errors, "unified enterprise credit code must not be empty")
	}
}

// validateKESG demands a reduction target and flags absent Scope 3 data as a
// warning on top of the required-field error.
func validateKESG(doc map[string]interface{}, v *report.Validation) {
	value, present := report.LookupPath(doc, "standard_fields.reduction_target")
	if present {
		target, _ := value.(string)
		if strings.TrimSpace(target) == "" {
			v.Errors = append(v.Errors, "emission reduction target must not be empty")
		}
	}

	if _, present := report.LookupPath(doc, "emissions.scope3"); !present {
		v.Warnings = append(v.Warnings, "scope 3 emissions are not reported")
	}
}

// validateMAFFESG flags absent supply chain coverage as a warning
func validateMAFFESG(doc map[string]interface{}, v *report.Validation) {
	if _, present := report.LookupPath(doc, "standard_fields.supply_chain_coverage"); !present {
		v.Warnings = append(v.Warnings, "supply chain coverage is not reported")
	}
}
