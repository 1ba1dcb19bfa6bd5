package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StageTemplate describes one step of a workflow definition. Templates are
// immutable and shared read-only across every instance of the definition.
type StageTemplate struct {
	Name              string
	AssigneeRole      string
	RequiredDocuments []string
	ActionLabel       string
}

// WorkflowDefinition is the ordered stage list for one request type. Order is
// significant and frozen into each instance at creation time.
type WorkflowDefinition struct {
	Type   string
	Stages []StageTemplate
}

// Validate checks that the definition can be instantiated: at least one stage,
// no duplicate stage names.
func (d WorkflowDefinition) Validate() error {
	if len(d.Stages) == 0 {
		return fmt.Errorf("%w: no stages", ErrInvalidDefinition)
	}
	seen := make(map[string]bool, len(d.Stages))
	for _, st := range d.Stages {
		if st.Name == "" {
			return fmt.Errorf("%w: stage with empty name", ErrInvalidDefinition)
		}
		if seen[st.Name] {
			return fmt.Errorf("%w: duplicate stage name %q", ErrInvalidDefinition, st.Name)
		}
		seen[st.Name] = true
	}
	return nil
}

// NewInstance materializes one StageState per template. The first stage starts
// IN_PROGRESS: submission of the underlying request is what creates the
// instance, so the pipeline is immediately waiting on its first approver.
func (d WorkflowDefinition) NewInstance(requestRef string) *WorkflowInstance {
	instanceID := uuid.New()
	now := time.Now()

	stages := make([]StageState, 0, len(d.Stages))
	for i, tpl := range d.Stages {
		status := StagePending
		if i == 0 {
			status = StageInProgress
		}

		docsJSON, _ := json.Marshal(tpl.RequiredDocuments)
		stages = append(stages, StageState{
			ID:                uuid.New(),
			InstanceID:        instanceID,
			Position:          i,
			Name:              tpl.Name,
			AssigneeRole:      tpl.AssigneeRole,
			RequiredDocuments: docsJSON,
			ActionLabel:       tpl.ActionLabel,
			Status:            status,
			CreatedAt:         now,
		})
	}

	return &WorkflowInstance{
		ID:           instanceID,
		RequestRef:   requestRef,
		WorkflowType: d.Type,
		Status:       InstanceRunning,
		Version:      1,
		Stages:       stages,
		CreatedAt:    now,
	}
}

// Built-in pipelines for the ERP request types. Callers may also submit a
// custom stage list instead of one of these.
var builtins = map[string]WorkflowDefinition{
	"employee_transfer": {
		Type: "employee_transfer",
		Stages: []StageTemplate{
			{Name: "HR Review", AssigneeRole: "HR Department", RequiredDocuments: []string{"transfer_request_form", "employee_id_proof"}, ActionLabel: "Verify"},
			{Name: "Current Department Clearance", AssigneeRole: "Department Head", RequiredDocuments: []string{"handover_checklist"}, ActionLabel: "Approve"},
			{Name: "Receiving Department Acceptance", AssigneeRole: "Receiving Department Head", ActionLabel: "Accept"},
			{Name: "Final HR Confirmation", AssigneeRole: "HR Department", RequiredDocuments: []string{"transfer_order"}, ActionLabel: "Approve"},
		},
	},
	"employee_promotion": {
		Type: "employee_promotion",
		Stages: []StageTemplate{
			{Name: "Supervisor Recommendation", AssigneeRole: "Department Head", RequiredDocuments: []string{"appraisal_report"}, ActionLabel: "Approve"},
			{Name: "HR Verification", AssigneeRole: "HR Department", RequiredDocuments: []string{"appraisal_report", "promotion_letter_draft"}, ActionLabel: "Verify"},
			{Name: "Management Sign-off", AssigneeRole: "Managing Director", ActionLabel: "Approve"},
		},
	},
	"procurement": {
		Type: "procurement",
		Stages: []StageTemplate{
			{Name: "Requisition Review", AssigneeRole: "Procurement Department", RequiredDocuments: []string{"purchase_requisition"}, ActionLabel: "Verify"},
			{Name: "Budget Approval", AssigneeRole: "Finance Department", RequiredDocuments: []string{"budget_estimate"}, ActionLabel: "Approve"},
			{Name: "Final Authorization", AssigneeRole: "Managing Director", ActionLabel: "Approve"},
		},
	},
	"boq_approval": {
		Type: "boq_approval",
		Stages: []StageTemplate{
			{Name: "Engineering Review", AssigneeRole: "Project Engineer", RequiredDocuments: []string{"boq_sheet"}, ActionLabel: "Verify"},
			{Name: "Cost Verification", AssigneeRole: "Finance Department", RequiredDocuments: []string{"cost_breakdown"}, ActionLabel: "Verify"},
			{Name: "Client Sign-off", AssigneeRole: "Client Representative", ActionLabel: "Approve"},
		},
	},
}

// BuiltinDefinition looks up a predefined pipeline by request type.
func BuiltinDefinition(workflowType string) (WorkflowDefinition, bool) {
	def, ok := builtins[workflowType]
	return def, ok
}
