package signing

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainerrors "github.com/greenledger/carbon-compliance-backend/internal/domain/errors"
	"github.com/greenledger/carbon-compliance-backend/internal/domain/report"
	"github.com/greenledger/carbon-compliance-backend/internal/domain/signature"
	"github.com/greenledger/carbon-compliance-backend/internal/metrics"
)

// Roles configures which user roles may sign and revoke. ElevatedRoles is
// the stricter subset CBAM standards demand.
type Roles struct {
	Authorized []string
	Elevated   []string
	Owner      []string
}

// elevatedStandards require a signer from the elevated role set
var elevatedStandards = map[report.Standard]bool{
	report.StandardEUCBAM: true,
	report.StandardUKCBAM: true,
}

// VerificationResult is the outcome of a signature verification
type VerificationResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// Service signs reports, verifies signatures against current report content
// and handles revocation, the only way back out of the signed state.
type Service struct {
	reports    report.Repository
	signatures signature.Repository
	roles      Roles
	metrics    *metrics.Registry
	logger     *zap.Logger
}

// NewService creates the signing service
func NewService(reports report.Repository, signatures signature.Repository, roles Roles, m *metrics.Registry, logger *zap.Logger) *Service {
	return &Service{
		reports:    reports,
		signatures: signatures,
		roles:      roles,
		metrics:    m,
		logger:     logger,
	}
}

// Sign creates a signature binding the signer to the report's current data
// snapshot and flips the report to signed. The flip is an atomic conditional
// update, so two concurrent signers cannot both succeed.
func (s *Service) Sign(ctx context.Context, reportID, signerID uuid.UUID, signerRole string, sigType signature.Type) (*signature.Signature, error) {
	rpt, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}

	if rpt.IsSigned() {
		return nil, domainerrors.ErrAlreadySigned
	}
	if rpt.Data == nil || rpt.Validation == nil {
		return nil, domainerrors.NewValidationError("REPORT_NOT_GENERATED", "report has not been generated")
	}
	if len(rpt.Validation.Errors) > 0 {
		return nil, domainerrors.NewValidationError("REPORT_HAS_VALIDATION_ERRORS",
			"report has validation errors and cannot be signed")
	}

	if !containsRole(s.roles.Authorized, signerRole) {
		return nil, domainerrors.NewForbiddenError("role is not authorized to sign reports")
	}
	if elevatedStandards[rpt.Standard] && !containsRole(s.roles.Elevated, signerRole) {
		return nil, domainerrors.NewForbiddenError("standard " + string(rpt.Standard) + " requires an elevated signing role")
	}

	sig, err := signature.New(rpt.ID, signerID, rpt.Data, sigType)
	if err != nil {
		return nil, domainerrors.NewValidationError("INVALID_SIGNATURE", err.Error())
	}

	rpt.MarkSigned(signerID, sig.ID, sig.SignedAt)
	flipped, err := s.reports.MarkSignedIfUnsigned(ctx, rpt)
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to mark report signed").WithCause(err)
	}
	if !flipped {
		return nil, domainerrors.ErrAlreadySigned
	}

	if err := s.signatures.Insert(ctx, sig); err != nil {
		return nil, domainerrors.NewInternalError("failed to persist signature").WithCause(err)
	}

	s.metrics.SignaturesCreated.Add(ctx, 1)
	s.logger.Info("report signed",
		zap.String("report_id", rpt.ID.String()),
		zap.String("signer_id", signerID.String()),
		zap.String("signature_id", sig.ID.String()))
	return sig, nil
}

// Verify recomputes the content hash from the report's current stored data.
// A mismatch against the hash captured at signing time means the data
// changed after signing; that is the tamper-detection guarantee.
func (s *Service) Verify(ctx context.Context, signatureID uuid.UUID) (*VerificationResult, error) {
	sig, err := s.signatures.GetByID(ctx, signatureID)
	if err != nil {
		return nil, err
	}

	if sig.IsRevoked {
		s.metrics.VerificationFailed.Add(ctx, 1)
		return &VerificationResult{Valid: false, Message: "signature has been revoked"}, nil
	}

	rpt, err := s.reports.GetByID(ctx, sig.ReportID)
	if err != nil {
		return nil, err
	}

	currentHash, err := signature.HashContent(rpt.Data)
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to hash report content").WithCause(err)
	}
	if currentHash != sig.ContentHash {
		s.metrics.VerificationFailed.Add(ctx, 1)
		return &VerificationResult{Valid: false, Message: "data modified since signing"}, nil
	}

	payloadHash, err := signature.HashPayload(sig.Payload())
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to hash signature payload").WithCause(err)
	}
	if payloadHash != sig.SignatureHash {
		s.metrics.VerificationFailed.Add(ctx, 1)
		return &VerificationResult{Valid: false, Message: "signature verification failed"}, nil
	}

	return &VerificationResult{Valid: true, Message: "signature is valid"}, nil
}

// Revoke marks the signature revoked and reverts the report to generated.
// Only the original signer or an owner role may revoke.
func (s *Service) Revoke(ctx context.Context, signatureID, actorID uuid.UUID, actorRole, reason string) error {
	sig, err := s.signatures.GetByID(ctx, signatureID)
	if err != nil {
		return err
	}

	if sig.IsRevoked {
		return domainerrors.ErrAlreadyRevoked
	}
	if actorID != sig.SignerID && !containsRole(s.roles.Owner, actorRole) {
		return domainerrors.NewForbiddenError("only the original signer or an owner may revoke a signature")
	}

	sig.Revoke(actorID, reason)
	if err := s.signatures.Update(ctx, sig); err != nil {
		return domainerrors.NewInternalError("failed to persist revocation").WithCause(err)
	}

	rpt, err := s.reports.GetByID(ctx, sig.ReportID)
	if err != nil {
		return err
	}
	rpt.ClearSignature()
	if err := s.reports.Update(ctx, rpt); err != nil {
		return domainerrors.NewInternalError("failed to revert report state").WithCause(err)
	}

	s.metrics.SignaturesRevoked.Add(ctx, 1)
	s.logger.Info("signature revoked",
		zap.String("signature_id", sig.ID.String()),
		zap.String("report_id", sig.ReportID.String()),
		zap.String("revoked_by", actorID.String()),
		zap.String("reason", reason))
	return nil
}

func containsRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
