package signature

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type distinguishes how a signature was produced
type Type string

const (
	TypeElectronic Type = "electronic"
	TypeDigital    Type = "digital"
)

func (t Type) Valid() bool {
	return t == TypeElectronic || t == TypeDigital
}

// Payload is the exact structure that is canonically serialized and hashed
// to produce the signature hash. ContentHash binds the payload to the report
// data snapshot at signing time.
type Payload struct {
	ReportID      uuid.UUID `json:"report_id"`
	SignerID      uuid.UUID `json:"signer_id"`
	ContentHash   string    `json:"content_hash"`
	SignatureType Type      `json:"signature_type"`
	Timestamp     time.Time `json:"timestamp"`
	Nonce         string    `json:"nonce"`
}

// Signature binds a signer to an exact snapshot of report content
type Signature struct {
	ID            uuid.UUID `json:"id"`
	ReportID      uuid.UUID `json:"report_id"`
	SignerID      uuid.UUID `json:"signer_id"`
	SignatureType Type      `json:"signature_type"`
	ContentHash   string    `json:"content_hash"`
	SignatureHash string    `json:"signature_hash"`
	Nonce         string    `json:"nonce"`
	SignedAt      time.Time `json:"signed_at"`

	IsRevoked     bool       `json:"is_revoked"`
	RevokedAt     *time.Time `json:"revoked_at,omitempty"`
	RevokedBy     *uuid.UUID `json:"revoked_by,omitempty"`
	RevokedReason string     `json:"revoked_reason,omitempty"`
}

// HashContent computes the tamper-detection hash over the canonical
// serialization of report data.
func HashContent(reportData interface{}) (string, error) {
	canonical, err := Canonicalize(reportData)
	if err != nil {
		return "", fmt.Errorf("canonicalize report data: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// HashPayload computes the signature hash over the canonical payload
func HashPayload(p *Payload) (string, error) {
	canonical, err := Canonicalize(p)
	if err != nil {
		return "", fmt.Errorf("canonicalize payload: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// NewNonce returns a random 128-bit hex nonce
func NewNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// New builds a signature over the given report data snapshot
func New(reportID, signerID uuid.UUID, reportData interface{}, sigType Type) (*Signature, error) {
	if !sigType.Valid() {
		return nil, fmt.Errorf("invalid signature type: %s", sigType)
	}

	contentHash, err := HashContent(reportData)
	if err != nil {
		return nil, err
	}

	nonce, err := NewNonce()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	payload := &Payload{
		ReportID:      reportID,
		SignerID:      signerID,
		ContentHash:   contentHash,
		SignatureType: sigType,
		Timestamp:     now,
		Nonce:         nonce,
	}

	sigHash, err := HashPayload(payload)
	if err != nil {
		return nil, err
	}

	return &Signature{
		ID:            uuid.New(),
		ReportID:      reportID,
		SignerID:      signerID,
		SignatureType: sigType,
		ContentHash:   contentHash,
		SignatureHash: sigHash,
		Nonce:         nonce,
		SignedAt:      now,
	}, nil
}

// Payload reconstructs the signed payload from the stored fields
func (s *Signature) Payload() *Payload {
	return &Payload{
		ReportID:      s.ReportID,
		SignerID:      s.SignerID,
		ContentHash:   s.ContentHash,
		SignatureType: s.SignatureType,
		Timestamp:     s.SignedAt,
		Nonce:         s.Nonce,
	}
}

// Revoke marks the signature revoked with an actor and reason
func (s *Signature) Revoke(by uuid.UUID, reason string) {
	now := time.Now().UTC()
	s.IsRevoked = true
	s.RevokedAt = &now
	s.RevokedBy = &by
	s.RevokedReason = reason
}
