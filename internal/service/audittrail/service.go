package audittrail

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/greenledger/carbon-compliance-backend/internal/domain/audit"
	domainerrors "github.com/greenledger/carbon-compliance-backend/internal/domain/errors"
	"github.com/greenledger/carbon-compliance-backend/internal/metrics"
)

// Service writes the append-only audit trail and enforces its retention
// policy.
type Service struct {
	entries   audit.Repository
	batchSize int
	metrics   *metrics.Registry
	logger    *zap.Logger
}

// NewService creates the audit trail service. batchSize bounds how many
// entries one cleanup pass deletes at a time.
func NewService(entries audit.Repository, batchSize int, m *metrics.Registry, logger *zap.Logger) *Service {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &Service{
		entries:   entries,
		batchSize: batchSize,
		metrics:   m,
		logger:    logger,
	}
}

// Record appends one audit entry. It never returns an error: audit-log
// unavailability must not block the operation being described, so failures
// are reported only to logs and telemetry.
func (s *Service) Record(ctx context.Context, action audit.Action, entityType, entityID string, actorID uuid.UUID, projectID *uuid.UUID, details map[string]interface{}) {
	entry, err := audit.NewEntry(action, entityType, entityID, actorID, details)
	if err != nil {
		s.metrics.AuditWriteFailures.Add(ctx, 1)
		s.logger.Error("invalid audit entry",
			zap.String("action", string(action)),
			zap.String("entity_type", entityType),
			zap.Error(err))
		return
	}
	if projectID != nil {
		entry.WithProject(*projectID)
	}

	if err := s.entries.Insert(ctx, entry); err != nil {
		s.metrics.AuditWriteFailures.Add(ctx, 1)
		s.logger.Error("failed to persist audit entry",
			zap.String("action", string(action)),
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID),
			zap.Error(err))
	}
}

// Summary aggregates the trail over a period
func (s *Service) Summary(ctx context.Context, from, to time.Time) (*audit.Summary, error) {
	summary, err := s.entries.Summarize(ctx, from, to)
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to summarize audit trail").WithCause(err)
	}
	return summary, nil
}

// Cleanup deletes entries older than the retention window in bounded batches
// and returns the total deleted count. Zero matches is a success.
func (s *Service) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = audit.DefaultRetentionDays
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)

	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		deleted, err := s.entries.DeleteOlderThan(ctx, cutoff, s.batchSize)
		if err != nil {
			return total, domainerrors.NewInternalError("audit cleanup failed").WithCause(err)
		}
		total += deleted
		if deleted < int64(s.batchSize) {
			break
		}
	}

	if total > 0 {
		s.metrics.AuditEntriesPurged.Add(ctx, total)
		s.Record(ctx, audit.ActionCleanup, "audit_log", "", audit.SystemActor, nil,
			map[string]interface{}{"retention_days": retentionDays, "deleted": total})
	}
	s.logger.Info("audit cleanup completed",
		zap.Int("retention_days", retentionDays),
		zap.Int64("deleted", total))
	return total, nil
}

// RunRetentionLoop invokes Cleanup on every tick until the context ends.
// Meant to run in its own goroutine; failures are logged and the next tick
// retries.
func (s *Service) RunRetentionLoop(ctx context.Context, interval time.Duration, retentionDays int) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Cleanup(ctx, retentionDays); err != nil {
				s.logger.Error("scheduled audit cleanup failed", zap.Error(err))
			}
		}
	}
}
