package dto

import (
	"time"

	"approvalflow/internal/domain"

	"github.com/google/uuid"
)

type StageResponse struct {
	Position          int        `json:"position"`
	Name              string     `json:"name"`
	AssigneeRole      string     `json:"assignee_role"`
	RequiredDocuments []string   `json:"required_documents,omitempty"`
	ActionLabel       string     `json:"action_label,omitempty"`
	Status            string     `json:"status"`
	CompletedBy       *string    `json:"completed_by,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	Comment           string     `json:"comment,omitempty"`
}

type WorkflowResponse struct {
	ID         uuid.UUID       `json:"id"`
	RequestRef string          `json:"request_ref"`
	Type       string          `json:"type"`
	Status     string          `json:"status"`
	Stages     []StageResponse `json:"stages"`
	CreatedAt  time.Time       `json:"created_at"`
}

type ProgressResponse struct {
	CompletedCount int    `json:"completed_count"`
	TotalCount     int    `json:"total_count"`
	Status         string `json:"status"`
}

func NewWorkflowResponse(instance *domain.WorkflowInstance) WorkflowResponse {
	stages := make([]StageResponse, 0, len(instance.Stages))
	for i := range instance.Stages {
		st := &instance.Stages[i]
		stages = append(stages, StageResponse{
			Position:          st.Position,
			Name:              st.Name,
			AssigneeRole:      st.AssigneeRole,
			RequiredDocuments: st.Documents(),
			ActionLabel:       st.ActionLabel,
			Status:            string(st.Status),
			CompletedBy:       st.CompletedBy,
			CompletedAt:       st.CompletedAt,
			Comment:           st.Comment,
		})
	}
	return WorkflowResponse{
		ID:         instance.ID,
		RequestRef: instance.RequestRef,
		Type:       instance.WorkflowType,
		Status:     string(instance.Status),
		Stages:     stages,
		CreatedAt:  instance.CreatedAt,
	}
}

func NewProgressResponse(p domain.Progress) ProgressResponse {
	return ProgressResponse{
		CompletedCount: p.CompletedCount,
		TotalCount:     p.TotalCount,
		Status:         string(p.Status),
	}
}
