package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainerrors "github.com/greenledger/carbon-compliance-backend/internal/domain/errors"
	"github.com/greenledger/carbon-compliance-backend/internal/domain/signature"
)

// SignatureRepository handles signature persistence
type SignatureRepository struct {
	db *pgxpool.Pool
}

// NewSignatureRepository creates a new signature repository
func NewSignatureRepository(db *pgxpool.Pool) *SignatureRepository {
	return &SignatureRepository{db: db}
}

const signatureColumns = `
	id, report_id, signer_id, signature_type, content_hash, signature_hash,
	nonce, signed_at, is_revoked, revoked_at, revoked_by, revoked_reason`

func (r *SignatureRepository) Insert(ctx context.Context, sig *signature.Signature) error {
	query := `
		INSERT INTO signatures (` + signatureColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.Exec(ctx, query,
		sig.ID, sig.ReportID, sig.SignerID, sig.SignatureType,
		sig.ContentHash, sig.SignatureHash, sig.Nonce, sig.SignedAt,
		sig.IsRevoked, sig.RevokedAt, sig.RevokedBy, nullIfEmpty(sig.RevokedReason))
	if err != nil {
		return fmt.Errorf("inserting signature: %w", err)
	}
	return nil
}

func (r *SignatureRepository) GetByID(ctx context.Context, id uuid.UUID) (*signature.Signature, error) {
	query := `SELECT ` + signatureColumns + ` FROM signatures WHERE id = $1`
	return r.get(ctx, query, id)
}

func (r *SignatureRepository) GetByReport(ctx context.Context, reportID uuid.UUID) (*signature.Signature, error) {
	query := `
		SELECT ` + signatureColumns + `
		FROM signatures
		WHERE report_id = $1 AND is_revoked = FALSE
		ORDER BY signed_at DESC
		LIMIT 1`
	return r.get(ctx, query, reportID)
}

func (r *SignatureRepository) get(ctx context.Context, query string, arg interface{}) (*signature.Signature, error) {
	var sig signature.Signature
	var revokedReason *string

	err := r.db.QueryRow(ctx, query, arg).Scan(
		&sig.ID, &sig.ReportID, &sig.SignerID, &sig.SignatureType,
		&sig.ContentHash, &sig.SignatureHash, &sig.Nonce, &sig.SignedAt,
		&sig.IsRevoked, &sig.RevokedAt, &sig.RevokedBy, &revokedReason)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainerrors.ErrSignatureNotFound
		}
		return nil, fmt.Errorf("querying signature: %w", err)
	}

	if revokedReason != nil {
		sig.RevokedReason = *revokedReason
	}
	return &sig, nil
}

func (r *SignatureRepository) Update(ctx context.Context, sig *signature.Signature) error {
	query := `
		UPDATE signatures
		SET is_revoked = $2, revoked_at = $3, revoked_by = $4, revoked_reason = $5
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		sig.ID, sig.IsRevoked, sig.RevokedAt, sig.RevokedBy, nullIfEmpty(sig.RevokedReason))
	if err != nil {
		return fmt.Errorf("updating signature: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainerrors.ErrSignatureNotFound
	}
	return nil
}
