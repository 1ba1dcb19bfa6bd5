package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"approvalflow/internal/api/dto"
	"approvalflow/internal/core/memory"
	"approvalflow/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := memory.NewInstanceRepository()
	bus := memory.NewEventBus()
	svc := service.NewWorkflowService(repo, bus)

	router := gin.New()
	NewWorkflowHandler(svc).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func resolvePath(id, stage string) string {
	return fmt.Sprintf("/api/v1/workflows/%s/stages/%s/resolve", id, url.PathEscape(stage))
}

func createWorkflow(t *testing.T, router *gin.Engine, ref string) dto.WorkflowResponse {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/v1/workflows", dto.CreateWorkflowRequest{
		Type:       "employee_transfer",
		RequestRef: ref,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp dto.WorkflowResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCreateWorkflowEndpoint(t *testing.T) {
	router := newTestRouter(t)

	resp := createWorkflow(t, router, "EMP-100")
	assert.Equal(t, "EMP-100", resp.RequestRef)
	assert.Equal(t, "RUNNING", resp.Status)
	require.Len(t, resp.Stages, 4)
	assert.Equal(t, "IN_PROGRESS", resp.Stages[0].Status)
}

func TestCreateWorkflowValidation(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/workflows", map[string]string{"type": "employee_transfer"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing request_ref")

	rec = doJSON(t, router, http.MethodPost, "/api/v1/workflows", dto.CreateWorkflowRequest{
		Type:       "no_such_type",
		RequestRef: "X-1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown workflow type")
}

func TestCreateWorkflowDuplicateConflict(t *testing.T) {
	router := newTestRouter(t)

	createWorkflow(t, router, "EMP-101")
	rec := doJSON(t, router, http.MethodPost, "/api/v1/workflows", dto.CreateWorkflowRequest{
		Type:       "employee_transfer",
		RequestRef: "EMP-101",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestResolveStageEndpoint(t *testing.T) {
	router := newTestRouter(t)
	resp := createWorkflow(t, router, "EMP-102")

	path := resolvePath(resp.ID.String(), "HR Review")
	rec := doJSON(t, router, http.MethodPost, path, dto.ResolveStageRequest{
		Outcome: "approve",
		Actor:   "alice",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated dto.WorkflowResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "COMPLETED", updated.Stages[0].Status)
	assert.Equal(t, "IN_PROGRESS", updated.Stages[1].Status)
}

func TestResolveStageConflicts(t *testing.T) {
	router := newTestRouter(t)
	resp := createWorkflow(t, router, "EMP-103")

	// Not the active stage
	path := resolvePath(resp.ID.String(), "Final HR Confirmation")
	rec := doJSON(t, router, http.MethodPost, path, dto.ResolveStageRequest{Outcome: "approve", Actor: "dave"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Reject the active stage, then any further resolution is terminal
	path = resolvePath(resp.ID.String(), "HR Review")
	rec = doJSON(t, router, http.MethodPost, path, dto.ResolveStageRequest{Outcome: "reject", Actor: "alice", Comment: "incomplete"})
	require.Equal(t, http.StatusOK, rec.Code)

	path = resolvePath(resp.ID.String(), "Current Department Clearance")
	rec = doJSON(t, router, http.MethodPost, path, dto.ResolveStageRequest{Outcome: "approve", Actor: "bob"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestResolveStageValidation(t *testing.T) {
	router := newTestRouter(t)
	resp := createWorkflow(t, router, "EMP-104")

	path := resolvePath(resp.ID.String(), "HR Review")
	rec := doJSON(t, router, http.MethodPost, path, map[string]string{"outcome": "maybe", "actor": "alice"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "outcome must be approve or reject")
}

func TestGetWorkflowNotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/workflows/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/workflows/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetProgressEndpoint(t *testing.T) {
	router := newTestRouter(t)
	resp := createWorkflow(t, router, "EMP-105")

	path := resolvePath(resp.ID.String(), "HR Review")
	rec := doJSON(t, router, http.MethodPost, path, dto.ResolveStageRequest{Outcome: "approve", Actor: "alice"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/workflows/%s/progress", resp.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var progress dto.ProgressResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &progress))
	assert.Equal(t, 1, progress.CompletedCount)
	assert.Equal(t, 4, progress.TotalCount)
	assert.Equal(t, "RUNNING", progress.Status)
}
