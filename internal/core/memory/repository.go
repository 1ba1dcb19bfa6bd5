package memory

import (
	"context"
	"sync"
	"time"

	"approvalflow/internal/core/ports"
	"approvalflow/internal/domain"

	"github.com/google/uuid"
)

// InstanceRepository is a mutex-guarded in-memory implementation of the
// repository port. It backs the unit tests and is handy for local runs
// without Postgres.
type InstanceRepository struct {
	mu        sync.Mutex
	instances map[uuid.UUID]*domain.WorkflowInstance
}

func NewInstanceRepository() *InstanceRepository {
	return &InstanceRepository{
		instances: make(map[uuid.UUID]*domain.WorkflowInstance),
	}
}

// clone deep-copies an instance so callers never share stage slices with the
// stored record.
func clone(instance *domain.WorkflowInstance) *domain.WorkflowInstance {
	out := *instance
	out.Stages = make([]domain.StageState, len(instance.Stages))
	copy(out.Stages, instance.Stages)
	for i := range out.Stages {
		if by := out.Stages[i].CompletedBy; by != nil {
			v := *by
			out.Stages[i].CompletedBy = &v
		}
		if at := out.Stages[i].CompletedAt; at != nil {
			v := *at
			out.Stages[i].CompletedAt = &v
		}
	}
	return &out
}

func (r *InstanceRepository) CreateInstance(ctx context.Context, instance *domain.WorkflowInstance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.instances {
		if existing.RequestRef == instance.RequestRef && !existing.IsFinished() {
			return domain.ErrDuplicateActiveWorkflow
		}
	}

	r.instances[instance.ID] = clone(instance)
	return nil
}

func (r *InstanceRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.WorkflowInstance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	instance, ok := r.instances[id]
	if !ok {
		return nil, domain.ErrInstanceNotFound
	}
	return clone(instance), nil
}

func (r *InstanceRepository) HasActiveForRequest(ctx context.Context, requestRef string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, instance := range r.instances {
		if instance.RequestRef == requestRef && !instance.IsFinished() {
			return true, nil
		}
	}
	return false, nil
}

func (r *InstanceRepository) SaveResolution(ctx context.Context, instance *domain.WorkflowInstance, result *domain.ResolutionResult, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.instances[instance.ID]
	if !ok {
		return domain.ErrInstanceNotFound
	}
	if stored.Version != expectedVersion {
		return ports.ErrVersionConflict
	}

	saved := clone(instance)
	saved.Version = expectedVersion + 1
	now := time.Now()
	for i := range saved.Stages {
		stage := &saved.Stages[i]
		if stage.ID == result.Resolved.ID || (result.Activated != nil && stage.ID == result.Activated.ID) {
			stage.UpdatedAt = now
		}
	}
	r.instances[instance.ID] = saved
	return nil
}

func (r *InstanceRepository) FindOverdueStages(ctx context.Context, cutoff time.Time) ([]domain.OverdueStage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var overdue []domain.OverdueStage
	for _, instance := range r.instances {
		for i := range instance.Stages {
			stage := &instance.Stages[i]
			if stage.Status != domain.StageInProgress {
				continue
			}
			since := stage.UpdatedAt
			if since.IsZero() {
				since = stage.CreatedAt
			}
			if since.Before(cutoff) {
				overdue = append(overdue, domain.OverdueStage{
					InstanceID:   instance.ID,
					RequestRef:   instance.RequestRef,
					Stage:        stage.Name,
					AssigneeRole: stage.AssigneeRole,
					Since:        since,
				})
			}
		}
	}
	return overdue, nil
}
