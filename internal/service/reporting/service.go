package reporting

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainerrors "github.com/greenledger/carbon-compliance-backend/internal/domain/errors"
	"github.com/greenledger/carbon-compliance-backend/internal/domain/report"
	"github.com/greenledger/carbon-compliance-backend/internal/infrastructure/cache"
	"github.com/greenledger/carbon-compliance-backend/internal/metrics"
)

// Service orchestrates the assemble, validate, render pipeline and owns the
// report lifecycle up to the signed state.
type Service struct {
	reports   report.Repository
	projects  report.ProjectRepository
	assembler *Assembler
	renderer  *Renderer
	cache     cache.Cache
	metrics   *metrics.Registry
	logger    *zap.Logger
}

// NewService creates the reporting service
func NewService(
	reports report.Repository,
	projects report.ProjectRepository,
	assembler *Assembler,
	renderer *Renderer,
	c cache.Cache,
	m *metrics.Registry,
	logger *zap.Logger,
) *Service {
	return &Service{
		reports:   reports,
		projects:  projects,
		assembler: assembler,
		renderer:  renderer,
		cache:     c,
		metrics:   m,
		logger:    logger,
	}
}

// Generate runs the full pipeline for one project and standard. The report
// row is inserted as draft first; it only becomes generated once assembly,
// validation and rendering all succeed, so a rendering failure leaves a
// draft rather than a half-generated report.
func (s *Service) Generate(ctx context.Context, projectID uuid.UUID, standard report.Standard, opts GenerateOptions) (*report.Report, error) {
	start := time.Now()

	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.HasStandard(standard) {
		return nil, domainerrors.NewValidationError("STANDARD_NOT_CONFIGURED",
			"standard "+string(standard)+" is not configured for this project")
	}

	format := opts.Format
	if format == "" {
		format = report.FormatBoth
	}

	rpt, err := report.NewReport(projectID, standard, format)
	if err != nil {
		return nil, domainerrors.NewValidationError("INVALID_REPORT", err.Error())
	}
	if err := s.reports.Insert(ctx, rpt); err != nil {
		return nil, domainerrors.NewInternalError("failed to create report").WithCause(err)
	}

	generated, err := s.runPipeline(ctx, rpt, standard, format, opts)
	s.metrics.RecordReport(ctx, string(standard), float64(time.Since(start).Milliseconds()), err != nil)
	if err != nil {
		return nil, err
	}
	return generated, nil
}

func (s *Service) runPipeline(ctx context.Context, rpt *report.Report, standard report.Standard, format report.Format, opts GenerateOptions) (*report.Report, error) {
	data, err := s.assembler.Assemble(ctx, rpt.ProjectID, standard, opts)
	if err != nil {
		return nil, err
	}

	validation, err := Validate(data, standard)
	if err != nil {
		return nil, domainerrors.NewInternalError("report validation failed").WithCause(err)
	}
	if n := len(validation.Errors); n > 0 {
		s.metrics.ValidationErrors.Add(ctx, int64(n))
	}

	files, err := s.renderer.Render(data, format)
	if err != nil {
		// The report stays draft; regeneration can be retried.
		s.logger.Error("report rendering failed",
			zap.String("report_id", rpt.ID.String()),
			zap.String("standard", string(standard)),
			zap.Error(err))
		return nil, err
	}

	if err := rpt.MarkGenerated(data, validation, files); err != nil {
		return nil, domainerrors.NewConflictError(err.Error())
	}
	if err := s.reports.Update(ctx, rpt); err != nil {
		return nil, domainerrors.NewInternalError("failed to persist generated report").WithCause(err)
	}

	s.logger.Info("report generated",
		zap.String("report_id", rpt.ID.String()),
		zap.String("standard", string(standard)),
		zap.Bool("valid", validation.Valid),
		zap.Int("completeness", validation.Completeness))
	return rpt, nil
}

// GetReport loads one report
func (s *Service) GetReport(ctx context.Context, id uuid.UUID) (*report.Report, error) {
	return s.reports.GetByID(ctx, id)
}
