package dto

type StageTemplateDTO struct {
	Name              string   `json:"name" binding:"required"`
	AssigneeRole      string   `json:"assignee_role" binding:"required"`
	RequiredDocuments []string `json:"required_documents"`
	ActionLabel       string   `json:"action_label"`
}

// CreateWorkflowRequest starts an approval pipeline for one business request.
// Stages is optional: when empty, the built-in pipeline for Type is used.
type CreateWorkflowRequest struct {
	Type       string             `json:"type" binding:"required"`
	RequestRef string             `json:"request_ref" binding:"required"`
	Stages     []StageTemplateDTO `json:"stages" binding:"omitempty,dive"`
}

type ResolveStageRequest struct {
	Outcome string `json:"outcome" binding:"required,oneof=approve reject"`
	Actor   string `json:"actor" binding:"required"`
	Comment string `json:"comment"`
}
