package audit

import (
	"context"
	"time"
)

// Repository persists audit entries. DeleteOlderThan removes at most `limit`
// entries per call so retention cleanup never holds long row locks.
type Repository interface {
	Insert(ctx context.Context, entry *Entry) error
	Summarize(ctx context.Context, from, to time.Time) (*Summary, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error)
}
