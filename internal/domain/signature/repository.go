package signature

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists signatures
type Repository interface {
	Insert(ctx context.Context, sig *Signature) error
	GetByID(ctx context.Context, id uuid.UUID) (*Signature, error)
	GetByReport(ctx context.Context, reportID uuid.UUID) (*Signature, error)
	Update(ctx context.Context, sig *Signature) error
}
