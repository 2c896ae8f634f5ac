package rest

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/greenledger/carbon-compliance-backend/internal/infrastructure/auth"
	"github.com/greenledger/carbon-compliance-backend/internal/service/aggregation"
	"github.com/greenledger/carbon-compliance-backend/internal/service/audittrail"
	"github.com/greenledger/carbon-compliance-backend/internal/service/calculation"
	"github.com/greenledger/carbon-compliance-backend/internal/service/reporting"
	"github.com/greenledger/carbon-compliance-backend/internal/service/signing"
)

// Handler holds the services behind the REST API
type Handler struct {
	calculator  *calculation.Calculator
	aggregation *aggregation.Service
	reporting   *reporting.Service
	signing     *signing.Service
	audit       *audittrail.Service
	auth        auth.Service
	logger      *zap.Logger
}

// NewHandler creates the REST handler
func NewHandler(
	calculator *calculation.Calculator,
	aggregationSvc *aggregation.Service,
	reportingSvc *reporting.Service,
	signingSvc *signing.Service,
	auditSvc *audittrail.Service,
	authSvc auth.Service,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		calculator:  calculator,
		aggregation: aggregationSvc,
		reporting:   reportingSvc,
		signing:     signingSvc,
		audit:       auditSvc,
		auth:        authSvc,
		logger:      logger,
	}
}

// Routes builds the route table. Everything under /api/v1 requires a valid
// bearer token; health and metrics stay open for probes and scraping.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	api := http.NewServeMux()
	api.HandleFunc("POST /api/v1/activities/{id}/calculate", h.handleCalculateActivity)
	api.HandleFunc("POST /api/v1/projects/{id}/calculate", h.handleCalculateAllPending)
	api.HandleFunc("POST /api/v1/projects/{id}/cfp", h.handleComputeCFP)
	api.HandleFunc("POST /api/v1/projects/{id}/cfo", h.handleComputeCFO)
	api.HandleFunc("GET /api/v1/projects/{id}/summary", h.handleGetSummary)
	api.HandleFunc("POST /api/v1/projects/{id}/reports", h.handleGenerateReport)
	api.HandleFunc("POST /api/v1/projects/{id}/reports/batch", h.handleBatchGenerate)
	api.HandleFunc("GET /api/v1/projects/{id}/reports/batch/{batchId}", h.handleGetBatchStatus)
	api.HandleFunc("POST /api/v1/reports/{id}/sign", h.handleSignReport)
	api.HandleFunc("GET /api/v1/signatures/{id}/verify", h.handleVerifySignature)
	api.HandleFunc("POST /api/v1/signatures/{id}/revoke", h.handleRevokeSignature)
	api.HandleFunc("GET /api/v1/audit/summary", h.handleAuditSummary)

	mux.Handle("/api/v1/", h.authMiddleware(api))

	return h.loggingMiddleware(mux)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
