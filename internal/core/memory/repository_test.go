package memory

import (
	"context"
	"testing"
	"time"

	"approvalflow/internal/core/ports"
	"approvalflow/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInstance(ref string) *domain.WorkflowInstance {
	def := domain.WorkflowDefinition{
		Type: "test",
		Stages: []domain.StageTemplate{
			{Name: "S1", AssigneeRole: "A"},
			{Name: "S2", AssigneeRole: "B"},
		},
	}
	return def.NewInstance(ref)
}

func TestFindByIDReturnsCopy(t *testing.T) {
	repo := NewInstanceRepository()
	ctx := context.Background()

	instance := testInstance("REQ-1")
	require.NoError(t, repo.CreateInstance(ctx, instance))

	loaded, err := repo.FindByID(ctx, instance.ID)
	require.NoError(t, err)

	// Mutating the loaded copy must not leak into the store
	loaded.Stages[0].Status = domain.StageRejected
	loaded.Status = domain.InstanceFailed

	reloaded, err := repo.FindByID(ctx, instance.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StageInProgress, reloaded.Stages[0].Status)
	assert.Equal(t, domain.InstanceRunning, reloaded.Status)
}

func TestFindByIDUnknown(t *testing.T) {
	repo := NewInstanceRepository()

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrInstanceNotFound)
}

func TestCreateInstanceRejectsSecondActive(t *testing.T) {
	repo := NewInstanceRepository()
	ctx := context.Background()

	require.NoError(t, repo.CreateInstance(ctx, testInstance("REQ-2")))
	err := repo.CreateInstance(ctx, testInstance("REQ-2"))
	assert.ErrorIs(t, err, domain.ErrDuplicateActiveWorkflow)

	active, err := repo.HasActiveForRequest(ctx, "REQ-2")
	require.NoError(t, err)
	assert.True(t, active)
}

func TestSaveResolutionChecksVersion(t *testing.T) {
	repo := NewInstanceRepository()
	ctx := context.Background()

	instance := testInstance("REQ-3")
	require.NoError(t, repo.CreateInstance(ctx, instance))

	loaded, err := repo.FindByID(ctx, instance.ID)
	require.NoError(t, err)
	result, err := loaded.ResolveStage("S1", domain.OutcomeApprove, "alice", "", time.Now())
	require.NoError(t, err)

	require.NoError(t, repo.SaveResolution(ctx, loaded, result, loaded.Version))

	// Saving again with the stale version misses the guard
	err = repo.SaveResolution(ctx, loaded, result, loaded.Version)
	assert.ErrorIs(t, err, ports.ErrVersionConflict)

	reloaded, err := repo.FindByID(ctx, instance.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Version)
	assert.Equal(t, domain.StageCompleted, reloaded.StageByName("S1").Status)
	assert.Equal(t, domain.StageInProgress, reloaded.StageByName("S2").Status)
}

func TestFindOverdueStages(t *testing.T) {
	repo := NewInstanceRepository()
	ctx := context.Background()

	instance := testInstance("REQ-4")
	require.NoError(t, repo.CreateInstance(ctx, instance))

	// Everything is younger than a cutoff in the past
	overdue, err := repo.FindOverdueStages(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, overdue)

	// The active stage is older than a cutoff in the future
	overdue, err = repo.FindOverdueStages(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "S1", overdue[0].Stage)
	assert.Equal(t, "REQ-4", overdue[0].RequestRef)
	assert.Equal(t, "A", overdue[0].AssigneeRole)
}
