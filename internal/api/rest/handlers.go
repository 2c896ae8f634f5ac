package rest

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greenledger/carbon-compliance-backend/internal/domain/audit"
	"github.com/greenledger/carbon-compliance-backend/internal/domain/emissions"
	"github.com/greenledger/carbon-compliance-backend/internal/domain/report"
	"github.com/greenledger/carbon-compliance-backend/internal/domain/signature"
	"github.com/greenledger/carbon-compliance-backend/internal/service/aggregation"
	"github.com/greenledger/carbon-compliance-backend/internal/service/calculation"
	"github.com/greenledger/carbon-compliance-backend/internal/service/reporting"
)

func pathUUID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	return id, err == nil
}

func (h *Handler) handleCalculateActivity(w http.ResponseWriter, r *http.Request) {
	activityID, ok := pathUUID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid activity id")
		return
	}

	var req calculateActivityRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	opts := calculation.CalculateOptions{IncludePrecursors: req.IncludePrecursors}
	if req.CustomFactor != nil {
		factor, err := decimal.NewFromString(*req.CustomFactor)
		if err != nil {
			writeBadRequest(w, "invalid custom factor")
			return
		}
		opts.CustomFactor = &factor
	}
	if req.FactorID != nil {
		factorID, _ := uuid.Parse(*req.FactorID)
		opts.FactorID = &factorID
	}
	if req.TierOverride != nil {
		tier := emissions.TierLevel(*req.TierOverride)
		opts.TierOverride = &tier
	}

	result, err := h.calculator.Calculate(r.Context(), activityID, opts)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.recordAudit(r, audit.ActionCalculate, "activity", activityID.String(), nil, map[string]interface{}{
		"total_emissions": result.TotalEmissions.String(),
		"factor_source":   result.FactorSource,
	})
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleCalculateAllPending(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathUUID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid project id")
		return
	}

	var req calculateAllRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	batch, err := h.calculator.CalculateAll(r.Context(), projectID, req.IncludePrecursors)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.recordAudit(r, audit.ActionCalculateAll, "project", projectID.String(), &projectID, map[string]interface{}{
		"calculated": batch.Calculated,
		"failed":     batch.Failed,
	})
	writeJSON(w, http.StatusOK, batch)
}

func (h *Handler) handleComputeCFP(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathUUID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid project id")
		return
	}

	var req computeCFPRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	volume, err := decimal.NewFromString(req.ProductionVolume)
	if err != nil {
		writeBadRequest(w, "invalid production volume")
		return
	}

	result, err := h.aggregation.ComputeCFP(r.Context(), projectID, aggregation.CFPOptions{
		ProductionVolume: volume,
		AllocationMethod: req.AllocationMethod,
		IncludeBiogenic:  req.IncludeBiogenic,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.recordAudit(r, audit.ActionComputeCFP, "project", projectID.String(), &projectID, map[string]interface{}{
		"total": result.Total.String(),
	})
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleComputeCFO(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathUUID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid project id")
		return
	}

	var req computeCFORequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	result, err := h.aggregation.ComputeCFO(r.Context(), projectID, req.ConsolidationMethod)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.recordAudit(r, audit.ActionComputeCFO, "project", projectID.String(), &projectID, map[string]interface{}{
		"total": result.Total.String(),
	})
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathUUID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid project id")
		return
	}

	summary, err := h.aggregation.Aggregate(r.Context(), projectID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathUUID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid project id")
		return
	}

	var req generateReportRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	std := report.Standard(req.Standard)
	if !std.Valid() {
		writeBadRequest(w, "unknown standard: "+req.Standard)
		return
	}
	opts, ok := reportOptions(w, req.Format, req.PeriodStart, req.PeriodEnd, req.StandardFields)
	if !ok {
		return
	}

	rpt, err := h.reporting.Generate(r.Context(), projectID, std, opts)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.recordAudit(r, audit.ActionGenerateReport, "report", rpt.ID.String(), &projectID, map[string]interface{}{
		"standard": string(rpt.Standard),
		"valid":    rpt.Validation.Valid,
	})
	writeJSON(w, http.StatusCreated, rpt)
}

func (h *Handler) handleBatchGenerate(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathUUID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid project id")
		return
	}

	var req batchGenerateRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	opts, ok := reportOptions(w, req.Format, req.PeriodStart, req.PeriodEnd, req.StandardFields)
	if !ok {
		return
	}

	standards := make([]report.Standard, 0, len(req.Standards))
	for _, s := range req.Standards {
		std := report.Standard(s)
		if !std.Valid() {
			writeBadRequest(w, "unknown standard: "+s)
			return
		}
		standards = append(standards, std)
	}

	progress, err := h.reporting.GenerateBatch(r.Context(), projectID, standards, opts)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.recordAudit(r, audit.ActionBatchGenerate, "project", projectID.String(), &projectID, map[string]interface{}{
		"batch_id":  progress.BatchID.String(),
		"standards": req.Standards,
	})
	writeJSON(w, http.StatusOK, progress)
}

func (h *Handler) handleGetBatchStatus(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathUUID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid project id")
		return
	}
	batchID, ok := pathUUID(r, "batchId")
	if !ok {
		writeBadRequest(w, "invalid batch id")
		return
	}

	progress, err := h.reporting.GetBatchStatus(r.Context(), projectID, batchID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (h *Handler) handleSignReport(w http.ResponseWriter, r *http.Request) {
	reportID, ok := pathUUID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid report id")
		return
	}

	var req signReportRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	claims, ok := claimsFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: errorBody{
			Type: "unauthorized", Code: "MISSING_TOKEN", Message: "missing caller identity",
		}})
		return
	}

	sig, err := h.signing.Sign(r.Context(), reportID, claims.UserID, claims.Role, signature.Type(req.SignatureType))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.recordAudit(r, audit.ActionSignReport, "report", reportID.String(), nil, map[string]interface{}{
		"signature_id": sig.ID.String(),
	})
	writeJSON(w, http.StatusCreated, sig)
}

func (h *Handler) handleVerifySignature(w http.ResponseWriter, r *http.Request) {
	signatureID, ok := pathUUID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid signature id")
		return
	}

	result, err := h.signing.Verify(r.Context(), signatureID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleRevokeSignature(w http.ResponseWriter, r *http.Request) {
	signatureID, ok := pathUUID(r, "id")
	if !ok {
		writeBadRequest(w, "invalid signature id")
		return
	}

	var req revokeSignatureRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	claims, ok := claimsFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: errorBody{
			Type: "unauthorized", Code: "MISSING_TOKEN", Message: "missing caller identity",
		}})
		return
	}

	if err := h.signing.Revoke(r.Context(), signatureID, claims.UserID, claims.Role, req.Reason); err != nil {
		h.writeError(w, err)
		return
	}

	h.recordAudit(r, audit.ActionRevokeSignature, "signature", signatureID.String(), nil, map[string]interface{}{
		"reason": req.Reason,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"revoked": true})
}

func (h *Handler) handleAuditSummary(w http.ResponseWriter, r *http.Request) {
	from, to, err := parsePeriod(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	summary, err := h.audit.Summary(r.Context(), from, to)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// recordAudit appends one trail entry for the authenticated caller. Failures
// are already swallowed inside the audit service.
func (h *Handler) recordAudit(r *http.Request, action audit.Action, entityType, entityID string, projectID *uuid.UUID, details map[string]interface{}) {
	claims, ok := claimsFrom(r.Context())
	if !ok {
		return
	}
	h.audit.Record(r.Context(), action, entityType, entityID, claims.UserID, projectID, details)
}

func reportOptions(w http.ResponseWriter, format, periodStart, periodEnd string, fields map[string]interface{}) (reporting.GenerateOptions, bool) {
	start, err := time.Parse("2006-01-02", periodStart)
	if err != nil {
		writeBadRequest(w, "invalid period start")
		return reporting.GenerateOptions{}, false
	}
	end, err := time.Parse("2006-01-02", periodEnd)
	if err != nil {
		writeBadRequest(w, "invalid period end")
		return reporting.GenerateOptions{}, false
	}
	if end.Before(start) {
		writeBadRequest(w, "period end precedes period start")
		return reporting.GenerateOptions{}, false
	}

	f := report.Format(format)
	if format == "" {
		f = report.FormatBoth
	}

	return reporting.GenerateOptions{
		PeriodStart:    start,
		PeriodEnd:      end,
		Format:         f,
		StandardFields: fields,
	}, true
}

func parsePeriod(fromStr, toStr string) (time.Time, time.Time, error) {
	to := time.Now().UTC()
	from := to.AddDate(0, -1, 0)

	var err error
	if fromStr != "" {
		if from, err = time.Parse("2006-01-02", fromStr); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if toStr != "" {
		if to, err = time.Parse("2006-01-02", toStr); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return from, to, nil
}
