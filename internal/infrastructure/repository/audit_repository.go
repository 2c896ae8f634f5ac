package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greenledger/carbon-compliance-backend/internal/domain/audit"
)

// AuditRepository handles audit log persistence. Entries are insert-only;
// the only delete path is retention cleanup in bounded batches.
type AuditRepository struct {
	db *pgxpool.Pool
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Insert(ctx context.Context, entry *audit.Entry) error {
	var details []byte
	if entry.Details != nil {
		var err error
		if details, err = json.Marshal(entry.Details); err != nil {
			return fmt.Errorf("marshaling audit details: %w", err)
		}
	}

	query := `
		INSERT INTO audit_logs (id, action, entity_type, entity_id, actor_id, project_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		entry.ID, entry.Action, entry.EntityType, nullIfEmpty(entry.EntityID),
		entry.ActorID, entry.ProjectID, details, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

func (r *AuditRepository) Summarize(ctx context.Context, from, to time.Time) (*audit.Summary, error) {
	summary := &audit.Summary{
		From:         from,
		To:           to,
		ByAction:     make(map[string]int64),
		ByEntityType: make(map[string]int64),
	}

	query := `
		SELECT action, entity_type, COUNT(*)
		FROM audit_logs
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY action, entity_type`

	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying audit summary: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var action, entityType string
		var count int64
		if err := rows.Scan(&action, &entityType, &count); err != nil {
			return nil, fmt.Errorf("scanning audit summary: %w", err)
		}
		summary.ByAction[action] += count
		summary.ByEntityType[entityType] += count
		summary.TotalEntries += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(DISTINCT actor_id) FROM audit_logs WHERE created_at >= $1 AND created_at < $2`,
		from, to,
	).Scan(&summary.DistinctUsers); err != nil {
		return nil, fmt.Errorf("counting distinct actors: %w", err)
	}

	return summary, nil
}

// DeleteOlderThan removes at most `limit` entries older than the cutoff.
// Deleting through a keyed subquery keeps each statement's lock footprint
// bounded regardless of table size.
func (r *AuditRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	query := `
		DELETE FROM audit_logs
		WHERE id IN (
			SELECT id FROM audit_logs
			WHERE created_at < $1
			ORDER BY created_at
			LIMIT $2
		)`

	tag, err := r.db.Exec(ctx, query, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("deleting expired audit entries: %w", err)
	}
	return tag.RowsAffected(), nil
}
