package rest

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// decodeAndValidate decodes a JSON request body and runs struct validation.
// An empty body is allowed for requests whose fields are all optional.
func decodeAndValidate(r *http.Request, dest interface{}) error {
	if r.Body != nil && r.ContentLength != 0 {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(dest); err != nil {
			return err
		}
	}
	return validate.Struct(dest)
}

type calculateActivityRequest struct {
	CustomFactor      *string `json:"custom_factor,omitempty" validate:"omitempty"`
	FactorID          *string `json:"factor_id,omitempty" validate:"omitempty,uuid"`
	TierOverride      *string `json:"tier_override,omitempty" validate:"omitempty,oneof=tier1 tier2 tier2plus"`
	IncludePrecursors bool    `json:"include_precursors,omitempty"`
}

type calculateAllRequest struct {
	IncludePrecursors bool `json:"include_precursors,omitempty"`
}

type computeCFPRequest struct {
	ProductionVolume string `json:"production_volume" validate:"required"`
	AllocationMethod string `json:"allocation_method,omitempty" validate:"omitempty,oneof=mass economic volume"`
	IncludeBiogenic  bool   `json:"include_biogenic,omitempty"`
}

type computeCFORequest struct {
	ConsolidationMethod string `json:"consolidation_method" validate:"required,oneof=operational_control financial_control equity_share"`
}

type generateReportRequest struct {
	Standard       string                 `json:"standard" validate:"required"`
	Format         string                 `json:"format,omitempty" validate:"omitempty,oneof=pdf xlsx both"`
	PeriodStart    string                 `json:"period_start" validate:"required,datetime=2006-01-02"`
	PeriodEnd      string                 `json:"period_end" validate:"required,datetime=2006-01-02"`
	StandardFields map[string]interface{} `json:"standard_fields,omitempty"`
}

type batchGenerateRequest struct {
	Standards      []string               `json:"standards" validate:"required,min=1,dive,required"`
	Format         string                 `json:"format,omitempty" validate:"omitempty,oneof=pdf xlsx both"`
	PeriodStart    string                 `json:"period_start" validate:"required,datetime=2006-01-02"`
	PeriodEnd      string                 `json:"period_end" validate:"required,datetime=2006-01-02"`
	StandardFields map[string]interface{} `json:"standard_fields,omitempty"`
}

type signReportRequest struct {
	SignatureType string `json:"signature_type" validate:"required,oneof=electronic digital"`
}

type revokeSignatureRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}
