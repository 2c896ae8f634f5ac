package report

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists reports
type Repository interface {
	Insert(ctx context.Context, r *Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*Report, error)
	Update(ctx context.Context, r *Report) error

	// MarkSignedIfUnsigned performs the atomic signing transition
	// (status = signed WHERE status != signed). It returns false when the
	// report was already signed by a concurrent request.
	MarkSignedIfUnsigned(ctx context.Context, r *Report) (bool, error)
}

// ProjectRepository supplies the project state report assembly needs. Project
// CRUD itself lives outside this core.
type ProjectRepository interface {
	GetProject(ctx context.Context, id uuid.UUID) (*Project, error)
}

// Project is the slice of project state the reporting pipeline consumes
type Project struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Organization string    `json:"organization"`
	Country      string    `json:"country"`

	// Standards configured for the project; batch generation warns on and
	// skips standards outside this list.
	Standards []Standard `json:"standards"`
}

// HasStandard reports whether the standard is configured for the project
func (p *Project) HasStandard(s Standard) bool {
	for _, std := range p.Standards {
		if std == s {
			return true
		}
	}
	return false
}
