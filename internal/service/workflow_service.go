package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"approvalflow/internal/api/dto"
	"approvalflow/internal/core/ports"
	"approvalflow/internal/domain"
	"approvalflow/internal/metrics"

	"github.com/google/uuid"
)

// WorkflowService owns every workflow state transition. All writes go through
// here; the HTTP layer is a pure trigger.
type WorkflowService interface {
	CreateWorkflow(ctx context.Context, req dto.CreateWorkflowRequest) (*domain.WorkflowInstance, error)
	ResolveStage(ctx context.Context, instanceID uuid.UUID, stageName string, outcome domain.Outcome, actor, comment string) (*domain.WorkflowInstance, error)
	GetInstance(ctx context.Context, instanceID uuid.UUID) (*domain.WorkflowInstance, error)
	GetProgress(ctx context.Context, instanceID uuid.UUID) (domain.Progress, error)
}

// How many times a resolution re-reads after losing the version race. One
// retry is normally enough: the re-read observes the winner's write and the
// precondition check reports the real error.
const resolveAttempts = 3

type workflowService struct {
	repo ports.InstanceRepository
	bus  ports.EventBus
}

func NewWorkflowService(repo ports.InstanceRepository, bus ports.EventBus) WorkflowService {
	return &workflowService{repo: repo, bus: bus}
}

func (s *workflowService) CreateWorkflow(ctx context.Context, req dto.CreateWorkflowRequest) (*domain.WorkflowInstance, error) {
	def, err := definitionFromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}

	// Pre-check for a friendlier error; the repository's unique guard is
	// what actually closes the race.
	active, err := s.repo.HasActiveForRequest(ctx, req.RequestRef)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, domain.ErrDuplicateActiveWorkflow
	}

	instance := def.NewInstance(req.RequestRef)
	if err := s.repo.CreateInstance(ctx, instance); err != nil {
		return nil, err
	}

	metrics.InstancesCreated.WithLabelValues(instance.WorkflowType).Inc()

	first := &instance.Stages[0]
	s.publishStageActivated(ctx, instance, first)

	return instance, nil
}

// ResolveStage applies an approve/reject to the instance's active stage.
// The read-validate-write cycle runs under an optimistic version lock: a
// concurrent resolution makes the save miss, and the retry re-reads the new
// state so the loser fails its precondition instead of double-applying.
func (s *workflowService) ResolveStage(ctx context.Context, instanceID uuid.UUID, stageName string, outcome domain.Outcome, actor, comment string) (*domain.WorkflowInstance, error) {
	var lastErr error

	for attempt := 0; attempt < resolveAttempts; attempt++ {
		instance, err := s.repo.FindByID(ctx, instanceID)
		if err != nil {
			return nil, err
		}

		result, err := instance.ResolveStage(stageName, outcome, actor, comment, time.Now())
		if err != nil {
			return nil, err
		}

		err = s.repo.SaveResolution(ctx, instance, result, instance.Version)
		if errors.Is(err, ports.ErrVersionConflict) {
			metrics.ResolveConflicts.Inc()
			lastErr = err
			continue
		}
		if err != nil {
			return nil, err
		}
		instance.Version++

		metrics.StageResolutions.WithLabelValues(string(outcome)).Inc()
		if result.Finished {
			metrics.WorkflowsFinished.WithLabelValues(string(instance.Status)).Inc()
		}

		s.publishResolution(ctx, instance, result)
		return instance, nil
	}

	return nil, fmt.Errorf("resolving stage %q: %w", stageName, lastErr)
}

func (s *workflowService) GetInstance(ctx context.Context, instanceID uuid.UUID) (*domain.WorkflowInstance, error) {
	return s.repo.FindByID(ctx, instanceID)
}

func (s *workflowService) GetProgress(ctx context.Context, instanceID uuid.UUID) (domain.Progress, error) {
	instance, err := s.repo.FindByID(ctx, instanceID)
	if err != nil {
		return domain.Progress{}, err
	}
	return instance.Progress(), nil
}

// publishResolution emits the resolution event first, then at most one
// follow-on event (next stage activated, or workflow finished). Event loss is
// logged, never propagated: the transition is already committed.
func (s *workflowService) publishResolution(ctx context.Context, instance *domain.WorkflowInstance, result *domain.ResolutionResult) {
	resolved := result.Resolved
	outcome := domain.OutcomeApprove
	if resolved.Status == domain.StageRejected {
		outcome = domain.OutcomeReject
	}

	event := domain.StageResolvedEvent{
		InstanceID: instance.ID,
		RequestRef: instance.RequestRef,
		Stage:      resolved.Name,
		Outcome:    outcome,
		Actor:      derefString(resolved.CompletedBy),
		Comment:    resolved.Comment,
		ResolvedAt: derefTime(resolved.CompletedAt),
	}
	if err := s.bus.PublishStageResolved(ctx, event); err != nil {
		log.Printf("Service: failed to publish stage resolved event for %s: %v", instance.ID, err)
	}

	switch {
	case result.Activated != nil:
		s.publishStageActivated(ctx, instance, result.Activated)
	case result.Finished:
		completed := domain.WorkflowCompletedEvent{
			InstanceID:  instance.ID,
			RequestRef:  instance.RequestRef,
			Status:      instance.Status,
			CompletedAt: derefTime(resolved.CompletedAt),
		}
		if err := s.bus.PublishWorkflowCompleted(ctx, completed); err != nil {
			log.Printf("Service: failed to publish workflow completed event for %s: %v", instance.ID, err)
		}
	}
}

func (s *workflowService) publishStageActivated(ctx context.Context, instance *domain.WorkflowInstance, stage *domain.StageState) {
	event := domain.StageActivatedEvent{
		InstanceID:        instance.ID,
		RequestRef:        instance.RequestRef,
		Stage:             stage.Name,
		AssigneeRole:      stage.AssigneeRole,
		RequiredDocuments: stage.Documents(),
		ActivatedAt:       time.Now(),
	}
	if err := s.bus.PublishStageActivated(ctx, event); err != nil {
		log.Printf("Service: failed to publish stage activated event for %s: %v", instance.ID, err)
	}
}

// definitionFromRequest resolves the request to a workflow definition: a
// caller-supplied stage list wins, otherwise the built-in pipeline for the
// request type.
func definitionFromRequest(req dto.CreateWorkflowRequest) (domain.WorkflowDefinition, error) {
	if len(req.Stages) > 0 {
		def := domain.WorkflowDefinition{Type: req.Type}
		for _, st := range req.Stages {
			def.Stages = append(def.Stages, domain.StageTemplate{
				Name:              st.Name,
				AssigneeRole:      st.AssigneeRole,
				RequiredDocuments: st.RequiredDocuments,
				ActionLabel:       st.ActionLabel,
			})
		}
		return def, nil
	}

	def, ok := domain.BuiltinDefinition(req.Type)
	if !ok {
		return domain.WorkflowDefinition{}, fmt.Errorf("%w: unknown workflow type %q", domain.ErrInvalidDefinition, req.Type)
	}
	return def, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
