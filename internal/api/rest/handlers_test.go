package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/greenledger/carbon-compliance-backend/internal/domain/audit"
	domainerrors "github.com/greenledger/carbon-compliance-backend/internal/domain/errors"
	"github.com/greenledger/carbon-compliance-backend/internal/domain/report"
	"github.com/greenledger/carbon-compliance-backend/internal/domain/signature"
	"github.com/greenledger/carbon-compliance-backend/internal/infrastructure/auth"
	"github.com/greenledger/carbon-compliance-backend/internal/metrics"
	"github.com/greenledger/carbon-compliance-backend/internal/service/audittrail"
	"github.com/greenledger/carbon-compliance-backend/internal/service/signing"
)

const testSecret = "test-secret"

type memReportRepo struct {
	reports map[uuid.UUID]*report.Report
}

func (m *memReportRepo) Insert(ctx context.Context, r *report.Report) error {
	m.reports[r.ID] = r
	return nil
}

func (m *memReportRepo) GetByID(ctx context.Context, id uuid.UUID) (*report.Report, error) {
	r, ok := m.reports[id]
	if !ok {
		return nil, domainerrors.ErrReportNotFound
	}
	return r, nil
}

func (m *memReportRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*report.Report, error) {
	return nil, nil
}

func (m *memReportRepo) Update(ctx context.Context, r *report.Report) error {
	m.reports[r.ID] = r
	return nil
}

func (m *memReportRepo) MarkSignedIfUnsigned(ctx context.Context, r *report.Report) (bool, error) {
	stored, ok := m.reports[r.ID]
	if !ok {
		return false, domainerrors.ErrReportNotFound
	}
	if stored.Status == report.StatusSigned && stored != r {
		return false, nil
	}
	m.reports[r.ID] = r
	return true, nil
}

type memSignatureRepo struct {
	signatures map[uuid.UUID]*signature.Signature
}

func (m *memSignatureRepo) Insert(ctx context.Context, sig *signature.Signature) error {
	m.signatures[sig.ID] = sig
	return nil
}

func (m *memSignatureRepo) GetByID(ctx context.Context, id uuid.UUID) (*signature.Signature, error) {
	sig, ok := m.signatures[id]
	if !ok {
		return nil, domainerrors.ErrSignatureNotFound
	}
	return sig, nil
}

func (m *memSignatureRepo) GetByReport(ctx context.Context, reportID uuid.UUID) (*signature.Signature, error) {
	return nil, domainerrors.ErrSignatureNotFound
}

func (m *memSignatureRepo) Update(ctx context.Context, sig *signature.Signature) error {
	m.signatures[sig.ID] = sig
	return nil
}

type memAuditRepo struct {
	entries []*audit.Entry
}

func (m *memAuditRepo) Insert(ctx context.Context, e *audit.Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

func (m *memAuditRepo) Summarize(ctx context.Context, from, to time.Time) (*audit.Summary, error) {
	return &audit.Summary{
		From:         from,
		To:           to,
		TotalEntries: int64(len(m.entries)),
		ByAction:     map[string]int64{},
		ByEntityType: map[string]int64{},
	}, nil
}

func (m *memAuditRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	return 0, nil
}

func bearerToken(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID.String(),
		"role": role,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func testAPI(t *testing.T) (http.Handler, *memReportRepo, *memAuditRepo) {
	t.Helper()
	m, err := metrics.NewRegistry("rest_test")
	require.NoError(t, err)
	logger := zap.NewNop()

	reports := &memReportRepo{reports: make(map[uuid.UUID]*report.Report)}
	sigs := &memSignatureRepo{signatures: make(map[uuid.UUID]*signature.Signature)}
	auditRepo := &memAuditRepo{}

	signingSvc := signing.NewService(reports, sigs, signing.Roles{
		Authorized: []string{"owner", "admin", "auditor"},
		Elevated:   []string{"owner", "auditor"},
		Owner:      []string{"owner"},
	}, m, logger)
	auditSvc := audittrail.NewService(auditRepo, 100, m, logger)

	h := NewHandler(nil, nil, nil, signingSvc, auditSvc, auth.NewJWTService(testSecret), logger)
	return h.Routes(), reports, auditRepo
}

func generatedTestReport(t *testing.T) *report.Report {
	t.Helper()
	rpt, err := report.NewReport(uuid.New(), report.StandardThailandESG, report.FormatPDF)
	require.NoError(t, err)
	data := &report.ReportData{
		Project:   report.ProjectInfo{ID: rpt.ProjectID, Name: "Plant A", Organization: "Acme"},
		Standard:  report.StandardThailandESG,
		Emissions: report.EmissionsBlock{Scope1: "10.0000", Scope2: "5.0000", Total: "15.0000"},
	}
	require.NoError(t, rpt.MarkGenerated(data, &report.Validation{Valid: true, Errors: []string{}}, nil))
	return rpt
}

func TestAuthBoundary(t *testing.T) {
	api, _, _ := testAPI(t)

	t.Run("health is open", func(t *testing.T) {
		rec := httptest.NewRecorder()
		api.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing token is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		api.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/audit/summary", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/audit/summary", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		api.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/audit/summary", nil)
		req.Header.Set("Authorization", bearerToken(t, uuid.New(), "admin"))
		rec := httptest.NewRecorder()
		api.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestSignEndpoints(t *testing.T) {
	api, reports, auditRepo := testAPI(t)

	rpt := generatedTestReport(t)
	reports.reports[rpt.ID] = rpt
	signer := uuid.New()

	sign := func(t *testing.T, reportID string, role string) *httptest.ResponseRecorder {
		t.Helper()
		body, _ := json.Marshal(map[string]string{"signature_type": "electronic"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/"+reportID+"/sign", bytes.NewReader(body))
		req.Header.Set("Authorization", bearerToken(t, signer, role))
		rec := httptest.NewRecorder()
		api.ServeHTTP(rec, req)
		return rec
	}

	t.Run("sign succeeds and writes audit entry", func(t *testing.T) {
		rec := sign(t, rpt.ID.String(), "admin")
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var sig signature.Signature
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sig))
		assert.Equal(t, rpt.ID, sig.ReportID)
		assert.Equal(t, signer, sig.SignerID)

		require.NotEmpty(t, auditRepo.entries)
		assert.Equal(t, audit.ActionSignReport, auditRepo.entries[len(auditRepo.entries)-1].Action)

		t.Run("verify round-trips", func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/signatures/"+sig.ID.String()+"/verify", nil)
			req.Header.Set("Authorization", bearerToken(t, uuid.New(), "viewer"))
			rec := httptest.NewRecorder()
			api.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code)

			var res signing.VerificationResult
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
			assert.True(t, res.Valid)
		})

		t.Run("double sign conflicts", func(t *testing.T) {
			rec := sign(t, rpt.ID.String(), "admin")
			assert.Equal(t, http.StatusConflict, rec.Code)
		})

		t.Run("revoke by signer reverts report", func(t *testing.T) {
			body, _ := json.Marshal(map[string]string{"reason": "reporting period was wrong"})
			req := httptest.NewRequest(http.MethodPost, "/api/v1/signatures/"+sig.ID.String()+"/revoke", bytes.NewReader(body))
			req.Header.Set("Authorization", bearerToken(t, signer, "admin"))
			rec := httptest.NewRecorder()
			api.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, report.StatusGenerated, rpt.Status)
		})
	})

	t.Run("unknown report maps to 404", func(t *testing.T) {
		rec := sign(t, uuid.NewString(), "admin")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid id maps to 400", func(t *testing.T) {
		rec := sign(t, "not-a-uuid", "admin")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing signature type maps to 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/"+rpt.ID.String()+"/sign", bytes.NewReader([]byte(`{}`)))
		req.Header.Set("Authorization", bearerToken(t, signer, "admin"))
		rec := httptest.NewRecorder()
		api.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
