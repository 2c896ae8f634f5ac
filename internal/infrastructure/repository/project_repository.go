package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainerrors "github.com/greenledger/carbon-compliance-backend/internal/domain/errors"
	"github.com/greenledger/carbon-compliance-backend/internal/domain/report"
)

// ProjectRepository reads the slice of project state the reporting pipeline
// needs. Full project CRUD lives outside this core.
type ProjectRepository struct {
	db *pgxpool.Pool
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) GetProject(ctx context.Context, id uuid.UUID) (*report.Project, error) {
	query := `
		SELECT id, name, organization, COALESCE(country, ''), standards
		FROM projects WHERE id = $1`

	var p report.Project
	var standards []string
	err := r.db.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Organization, &p.Country, &standards)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainerrors.ErrProjectNotFound
		}
		return nil, fmt.Errorf("querying project: %w", err)
	}

	for _, s := range standards {
		p.Standards = append(p.Standards, report.Standard(s))
	}
	return &p, nil
}
