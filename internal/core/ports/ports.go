package ports

import (
	"context"
	"errors"
	"time"

	"approvalflow/internal/domain"

	"github.com/google/uuid"
)

// ErrVersionConflict is returned by SaveResolution when the instance was
// mutated by someone else between the read and the write. Callers re-read and
// re-validate; the stale resolution then fails its precondition check.
var ErrVersionConflict = errors.New("workflow instance version conflict")

// InstanceRepository is the durable store for workflow instances and their
// stage rows.
type InstanceRepository interface {
	// Create the instance with all its stage rows in one transaction.
	// Returns domain.ErrDuplicateActiveWorkflow if a RUNNING instance
	// already exists for the same request reference.
	CreateInstance(ctx context.Context, instance *domain.WorkflowInstance) error

	// Load an instance with its stages ordered by position.
	// Returns domain.ErrInstanceNotFound for unknown IDs.
	FindByID(ctx context.Context, id uuid.UUID) (*domain.WorkflowInstance, error)

	// Report whether a non-terminal instance exists for the request.
	HasActiveForRequest(ctx context.Context, requestRef string) (bool, error)

	// Persist a stage resolution: the instance status plus the changed
	// stage rows, guarded by "WHERE version = ?" on the instance row.
	// Returns ErrVersionConflict when the guard misses.
	SaveResolution(ctx context.Context, instance *domain.WorkflowInstance, result *domain.ResolutionResult, expectedVersion int) error

	// List IN_PROGRESS stages that have been waiting since before the cutoff.
	FindOverdueStages(ctx context.Context, cutoff time.Time) ([]domain.OverdueStage, error)
}

// EventBus carries stage lifecycle events to whoever delivers notifications.
// Publishing is fire-and-forget from the engine's point of view: a lost event
// never rolls back a committed transition.
type EventBus interface {
	PublishStageResolved(ctx context.Context, event domain.StageResolvedEvent) error
	PublishStageActivated(ctx context.Context, event domain.StageActivatedEvent) error
	PublishWorkflowCompleted(ctx context.Context, event domain.WorkflowCompletedEvent) error
	PublishStageOverdue(ctx context.Context, event domain.StageOverdueEvent) error

	// Subscriptions stream events until the context is cancelled.
	SubscribeStageResolved(ctx context.Context) (<-chan domain.StageResolvedEvent, error)
	SubscribeStageActivated(ctx context.Context) (<-chan domain.StageActivatedEvent, error)
	SubscribeWorkflowCompleted(ctx context.Context) (<-chan domain.WorkflowCompletedEvent, error)
	SubscribeStageOverdue(ctx context.Context) (<-chan domain.StageOverdueEvent, error)
}
