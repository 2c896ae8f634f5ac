package audit

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Action identifies the state-changing operation an entry records
type Action string

const (
	ActionCalculate       Action = "activity.calculate"
	ActionCalculateAll    Action = "activity.calculate_all"
	ActionComputeCFP      Action = "aggregation.compute_cfp"
	ActionComputeCFO      Action = "aggregation.compute_cfo"
	ActionGenerateReport  Action = "report.generate"
	ActionBatchGenerate   Action = "report.batch_generate"
	ActionSignReport      Action = "report.sign"
	ActionRevokeSignature Action = "signature.revoke"
	ActionCleanup         Action = "audit.cleanup"
)

// DefaultRetentionDays is the retention policy window: seven years
const DefaultRetentionDays = 2555

// SystemActor attributes entries produced by the service itself, such as
// scheduled retention cleanup, rather than by an authenticated request.
var SystemActor = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// Entry is one immutable audit fact: who did what to which entity, when,
// with what details. Entries are only ever inserted and, past the retention
// window, deleted whole; they are never partially updated.
type Entry struct {
	ID         uuid.UUID              `json:"id"`
	Action     Action                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   string                 `json:"entity_id"`
	ActorID    uuid.UUID              `json:"actor_id"`
	ProjectID  *uuid.UUID             `json:"project_id,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// NewEntry validates and builds an audit entry
func NewEntry(action Action, entityType, entityID string, actorID uuid.UUID, details map[string]interface{}) (*Entry, error) {
	if action == "" {
		return nil, fmt.Errorf("action cannot be empty")
	}
	if entityType == "" {
		return nil, fmt.Errorf("entity type cannot be empty")
	}
	if actorID == uuid.Nil {
		return nil, fmt.Errorf("actor ID cannot be nil")
	}

	return &Entry{
		ID:         uuid.New(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    actorID,
		Details:    details,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// WithProject scopes the entry to a project
func (e *Entry) WithProject(projectID uuid.UUID) *Entry {
	e.ProjectID = &projectID
	return e
}

// Summary aggregates entries by action and entity type over a period
type Summary struct {
	From          time.Time        `json:"from"`
	To            time.Time        `json:"to"`
	TotalEntries  int64            `json:"total_entries"`
	ByAction      map[string]int64 `json:"by_action"`
	ByEntityType  map[string]int64 `json:"by_entity_type"`
	DistinctUsers int64            `json:"distinct_users"`
}
