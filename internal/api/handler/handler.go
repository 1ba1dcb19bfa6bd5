package handler

import (
	"errors"
	"net/http"

	"approvalflow/internal/api/dto"
	"approvalflow/internal/domain"
	"approvalflow/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type WorkflowHandler struct {
	service service.WorkflowService
}

func NewWorkflowHandler(svc service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{service: svc}
}

// RegisterRoutes mounts the workflow endpoints on a router group.
func (h *WorkflowHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/workflows", h.CreateWorkflow)
	api.GET("/workflows/:id", h.GetWorkflow)
	api.GET("/workflows/:id/progress", h.GetProgress)
	api.POST("/workflows/:id/stages/:name/resolve", h.ResolveStage)
}

func (h *WorkflowHandler) CreateWorkflow(c *gin.Context) {
	var req dto.CreateWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	instance, err := h.service.CreateWorkflow(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewWorkflowResponse(instance))
}

func (h *WorkflowHandler) GetWorkflow(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid workflow id"})
		return
	}

	instance, err := h.service.GetInstance(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewWorkflowResponse(instance))
}

func (h *WorkflowHandler) GetProgress(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid workflow id"})
		return
	}

	progress, err := h.service.GetProgress(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewProgressResponse(progress))
}

func (h *WorkflowHandler) ResolveStage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid workflow id"})
		return
	}

	var req dto.ResolveStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	instance, err := h.service.ResolveStage(
		c.Request.Context(), id, c.Param("name"),
		domain.Outcome(req.Outcome), req.Actor, req.Comment,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewWorkflowResponse(instance))
}

// respondError maps the domain error taxonomy onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInstanceNotFound), errors.Is(err, domain.ErrStageNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateActiveWorkflow),
		errors.Is(err, domain.ErrStageNotActive),
		errors.Is(err, domain.ErrInstanceTerminal):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidDefinition):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
