package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type InstanceStatus string

const (
	InstanceRunning   InstanceStatus = "RUNNING"
	InstanceSucceeded InstanceStatus = "SUCCEEDED"
	InstanceFailed    InstanceStatus = "FAILED"
)

type Outcome string

const (
	OutcomeApprove Outcome = "approve"
	OutcomeReject  Outcome = "reject"
)

// WorkflowInstance is one concrete run of a workflow definition against one
// external request (an employee transfer, a purchase requisition, ...).
// It is the only shared mutable record in the system; Version backs the
// optimistic lock that serializes mutations per instance.
type WorkflowInstance struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;"`
	RequestRef   string    `gorm:"type:varchar(100);not null;uniqueIndex:uniq_running_request,where:status = 'RUNNING'"`
	WorkflowType string    `gorm:"type:varchar(50);not null"`

	Status  InstanceStatus `gorm:"type:varchar(20);index;default:'RUNNING'"`
	Version int            `gorm:"default:1"`

	// Ordered by Position; length and order are fixed at creation.
	Stages []StageState `gorm:"foreignKey:InstanceID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ResolutionResult describes what a successful ResolveStage changed.
type ResolutionResult struct {
	Resolved  *StageState
	Activated *StageState // next stage now IN_PROGRESS, nil if none
	Finished  bool        // instance reached SUCCEEDED or FAILED
}

// Progress is the completed/total counter shown next to an approval pipeline.
type Progress struct {
	CompletedCount int
	TotalCount     int
	Status         InstanceStatus
}

// IsFinished reports whether the instance is terminal. Terminal instances are
// retained for audit and reject every further mutation.
func (w *WorkflowInstance) IsFinished() bool {
	return w.Status == InstanceSucceeded || w.Status == InstanceFailed
}

// ActiveStage returns the single IN_PROGRESS stage, or nil when terminal.
func (w *WorkflowInstance) ActiveStage() *StageState {
	for i := range w.Stages {
		if w.Stages[i].Status == StageInProgress {
			return &w.Stages[i]
		}
	}
	return nil
}

// StageByName returns the stage with the given name, or nil.
func (w *WorkflowInstance) StageByName(name string) *StageState {
	for i := range w.Stages {
		if w.Stages[i].Name == name {
			return &w.Stages[i]
		}
	}
	return nil
}

func (w *WorkflowInstance) stageAt(position int) *StageState {
	for i := range w.Stages {
		if w.Stages[i].Position == position {
			return &w.Stages[i]
		}
	}
	return nil
}

// ResolveStage applies an approve/reject outcome to the named stage. The named
// stage must be the current IN_PROGRESS stage and the instance must not be
// terminal; anything else fails without touching state.
//
// Approve completes the stage and activates the next one, or finishes the
// instance as SUCCEEDED when it was the last. Reject finishes the instance as
// FAILED and leaves every later stage PENDING forever, preserving the exact
// point of failure for audit.
func (w *WorkflowInstance) ResolveStage(stageName string, outcome Outcome, actor, comment string, now time.Time) (*ResolutionResult, error) {
	if w.IsFinished() {
		return nil, ErrInstanceTerminal
	}

	stage := w.StageByName(stageName)
	if stage == nil {
		return nil, fmt.Errorf("%w: %q", ErrStageNotFound, stageName)
	}
	if stage.Status != StageInProgress {
		return nil, fmt.Errorf("%w: %q is %s", ErrStageNotActive, stageName, stage.Status)
	}

	result := &ResolutionResult{Resolved: stage}

	switch outcome {
	case OutcomeApprove:
		stage.resolve(StageCompleted, actor, comment, now)
		if next := w.stageAt(stage.Position + 1); next != nil {
			next.Status = StageInProgress
			result.Activated = next
		} else {
			w.Status = InstanceSucceeded
			result.Finished = true
		}
	case OutcomeReject:
		stage.resolve(StageRejected, actor, comment, now)
		w.Status = InstanceFailed
		result.Finished = true
	default:
		return nil, fmt.Errorf("unknown outcome %q", outcome)
	}

	return result, nil
}

// Progress counts COMPLETED stages only; a rejected stage does not count.
func (w *WorkflowInstance) Progress() Progress {
	completed := 0
	for i := range w.Stages {
		if w.Stages[i].Status == StageCompleted {
			completed++
		}
	}
	return Progress{
		CompletedCount: completed,
		TotalCount:     len(w.Stages),
		Status:         w.Status,
	}
}
