package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRejectsEmptyDefinition(t *testing.T) {
	def := WorkflowDefinition{Type: "empty"}
	assert.ErrorIs(t, def.Validate(), ErrInvalidDefinition)
}

func TestValidateRejectsDuplicateStageNames(t *testing.T) {
	def := WorkflowDefinition{
		Type: "dup",
		Stages: []StageTemplate{
			{Name: "Review", AssigneeRole: "A"},
			{Name: "Review", AssigneeRole: "B"},
		},
	}
	assert.ErrorIs(t, def.Validate(), ErrInvalidDefinition)
}

func TestValidateRejectsEmptyStageName(t *testing.T) {
	def := WorkflowDefinition{
		Type:   "anon",
		Stages: []StageTemplate{{AssigneeRole: "A"}},
	}
	assert.ErrorIs(t, def.Validate(), ErrInvalidDefinition)
}

func TestBuiltinDefinitionsAreValid(t *testing.T) {
	for _, workflowType := range []string{"employee_transfer", "employee_promotion", "procurement", "boq_approval"} {
		def, ok := BuiltinDefinition(workflowType)
		require.True(t, ok, workflowType)
		assert.Equal(t, workflowType, def.Type)
		assert.NoError(t, def.Validate())
	}

	_, ok := BuiltinDefinition("no_such_type")
	assert.False(t, ok)
}

func TestNewInstanceCopiesTemplates(t *testing.T) {
	def, ok := BuiltinDefinition("employee_promotion")
	require.True(t, ok)

	w := def.NewInstance("EMP-42")

	assert.Equal(t, "EMP-42", w.RequestRef)
	assert.Equal(t, "employee_promotion", w.WorkflowType)
	assert.Equal(t, 1, w.Version)
	require.Len(t, w.Stages, len(def.Stages))

	for i, st := range w.Stages {
		assert.Equal(t, i, st.Position)
		assert.Equal(t, def.Stages[i].Name, st.Name)
		assert.Equal(t, def.Stages[i].AssigneeRole, st.AssigneeRole)
		assert.Equal(t, def.Stages[i].ActionLabel, st.ActionLabel)
		assert.Equal(t, w.ID, st.InstanceID)
		assert.ElementsMatch(t, def.Stages[i].RequiredDocuments, st.Documents())
	}

	// Two instances of the same definition do not share stage rows
	w2 := def.NewInstance("EMP-43")
	assert.NotEqual(t, w.ID, w2.ID)
	assert.NotEqual(t, w.Stages[0].ID, w2.Stages[0].ID)
}
