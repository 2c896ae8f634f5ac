package reporting

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainerrors "github.com/greenledger/carbon-compliance-backend/internal/domain/errors"
	"github.com/greenledger/carbon-compliance-backend/internal/domain/report"
	"github.com/greenledger/carbon-compliance-backend/internal/infrastructure/cache"
)

// BatchProgress is the polling record updated after every standard in a
// batch run. It lives in the cache under a short TTL; GetBatchStatus
// reconstructs an equivalent view from persisted report rows when the cache
// entry has expired.
type BatchProgress struct {
	BatchID       uuid.UUID   `json:"batch_id"`
	ProjectID     uuid.UUID   `json:"project_id"`
	Total         int         `json:"total"`
	Processed     int         `json:"processed"`
	Percentage    int         `json:"percentage"`
	Succeeded     []string    `json:"succeeded"`
	Errors        []string    `json:"errors"`
	Warnings      []string    `json:"warnings"`
	ReportIDs     []uuid.UUID `json:"report_ids"`
	Completed     bool        `json:"completed"`
	Reconstructed bool        `json:"reconstructed,omitempty"`
}

// GenerateBatch independently runs the pipeline per standard. Standards not
// configured for the project become warnings and are skipped; a failing
// standard is recorded and the rest continue. The returned progress is the
// final state; intermediate states are observable via GetBatchStatus.
func (s *Service) GenerateBatch(ctx context.Context, projectID uuid.UUID, standards []report.Standard, opts GenerateOptions) (*BatchProgress, error) {
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	progress := &BatchProgress{
		BatchID:   uuid.New(),
		ProjectID: projectID,
		Total:     len(standards),
	}
	s.saveProgress(ctx, progress)

	for _, standard := range standards {
		if err := ctx.Err(); err != nil {
			return progress, err
		}

		if !project.HasStandard(standard) {
			progress.Warnings = append(progress.Warnings,
				fmt.Sprintf("standard %s is not configured for this project, skipped", standard))
			progress.Processed++
			s.updateProgress(ctx, progress)
			continue
		}

		rpt, err := s.Generate(ctx, projectID, standard, opts)
		if err != nil {
			progress.Errors = append(progress.Errors,
				fmt.Sprintf("%s: %s", standard, err.Error()))
			s.logger.Warn("batch report generation failed for standard",
				zap.String("project_id", projectID.String()),
				zap.String("standard", string(standard)),
				zap.Error(err))
		} else {
			progress.Succeeded = append(progress.Succeeded, string(standard))
			progress.ReportIDs = append(progress.ReportIDs, rpt.ID)
		}

		progress.Processed++
		s.updateProgress(ctx, progress)
	}

	progress.Completed = true
	s.saveProgress(ctx, progress)
	return progress, nil
}

// GetBatchStatus returns the current progress of a batch. When the cache
// entry has expired it reconstructs a terminal view from report rows: every
// persisted report of the project, grouped by standard, latest row wins.
func (s *Service) GetBatchStatus(ctx context.Context, projectID, batchID uuid.UUID) (*BatchProgress, error) {
	var progress BatchProgress
	if err := s.cache.GetJSON(ctx, progressKey(batchID), &progress); err == nil {
		return &progress, nil
	}

	reports, err := s.reports.ListByProject(ctx, projectID)
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to list reports").WithCause(err)
	}

	latest := make(map[report.Standard]*report.Report)
	for _, r := range reports {
		prev, ok := latest[r.Standard]
		if !ok || r.CreatedAt.After(prev.CreatedAt) {
			latest[r.Standard] = r
		}
	}

	rebuilt := &BatchProgress{
		BatchID:       batchID,
		ProjectID:     projectID,
		Total:         len(latest),
		Completed:     true,
		Reconstructed: true,
	}
	for standard, r := range latest {
		rebuilt.Processed++
		if r.Status == report.StatusGenerated || r.Status == report.StatusSigned {
			rebuilt.Succeeded = append(rebuilt.Succeeded, string(standard))
			rebuilt.ReportIDs = append(rebuilt.ReportIDs, r.ID)
		} else {
			rebuilt.Errors = append(rebuilt.Errors,
				fmt.Sprintf("%s: report %s is still draft", standard, r.ID))
		}
	}
	rebuilt.Percentage = percentage(rebuilt.Processed, rebuilt.Total)
	return rebuilt, nil
}

func (s *Service) updateProgress(ctx context.Context, p *BatchProgress) {
	p.Percentage = percentage(p.Processed, p.Total)
	s.saveProgress(ctx, p)
}

// saveProgress never fails the batch: losing the progress record only costs
// polling convenience.
func (s *Service) saveProgress(ctx context.Context, p *BatchProgress) {
	if err := s.cache.SetJSON(ctx, progressKey(p.BatchID), p, cache.ProgressTTL); err != nil {
		s.logger.Warn("failed to store batch progress",
			zap.String("batch_id", p.BatchID.String()), zap.Error(err))
	}
}

func progressKey(batchID uuid.UUID) string {
	return cache.ProgressPrefix + batchID.String()
}

func percentage(processed, total int) int {
	if total == 0 {
		return 100
	}
	return int(math.Round(float64(processed) / float64(total) * 100))
}
