package domain

import (
	"time"

	"github.com/google/uuid"
)

// StageResolvedEvent is published after a stage receives its outcome. It is
// always the first event emitted for a resolution.
type StageResolvedEvent struct {
	InstanceID uuid.UUID `json:"instance_id"`
	RequestRef string    `json:"request_ref"`
	Stage      string    `json:"stage"`
	Outcome    Outcome   `json:"outcome"`
	Actor      string    `json:"actor"`
	Comment    string    `json:"comment,omitempty"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// StageActivatedEvent is published when a stage becomes IN_PROGRESS, so the
// next assignee can be notified.
type StageActivatedEvent struct {
	InstanceID        uuid.UUID `json:"instance_id"`
	RequestRef        string    `json:"request_ref"`
	Stage             string    `json:"stage"`
	AssigneeRole      string    `json:"assignee_role"`
	RequiredDocuments []string  `json:"required_documents,omitempty"`
	ActivatedAt       time.Time `json:"activated_at"`
}

// WorkflowCompletedEvent is published once per instance, when it reaches
// SUCCEEDED or FAILED.
type WorkflowCompletedEvent struct {
	InstanceID  uuid.UUID      `json:"instance_id"`
	RequestRef  string         `json:"request_ref"`
	Status      InstanceStatus `json:"status"`
	CompletedAt time.Time      `json:"completed_at"`
}

// StageOverdueEvent is a reminder that a stage has been waiting on its
// assignee for too long. It never changes workflow state.
type StageOverdueEvent struct {
	InstanceID   uuid.UUID `json:"instance_id"`
	RequestRef   string    `json:"request_ref"`
	Stage        string    `json:"stage"`
	AssigneeRole string    `json:"assignee_role"`
	Since        time.Time `json:"since"`
}

// OverdueStage is a read-model row produced by the repository's overdue scan.
type OverdueStage struct {
	InstanceID   uuid.UUID
	RequestRef   string
	Stage        string
	AssigneeRole string
	Since        time.Time
}
