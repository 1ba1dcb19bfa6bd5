package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// InstancesCreated counts workflow instances by request type.
	InstancesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "approvalflow_instances_created_total",
		Help: "Workflow instances created, by workflow type.",
	}, []string{"type"})

	// StageResolutions counts stage approvals and rejections.
	StageResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "approvalflow_stage_resolutions_total",
		Help: "Stage resolutions applied, by outcome.",
	}, []string{"outcome"})

	// WorkflowsFinished counts instances reaching a terminal status.
	WorkflowsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "approvalflow_workflows_finished_total",
		Help: "Workflow instances finished, by final status.",
	}, []string{"status"})

	// ResolveConflicts counts optimistic-lock retries during stage resolution.
	ResolveConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "approvalflow_resolve_version_conflicts_total",
		Help: "Optimistic lock conflicts observed while resolving stages.",
	})
)
