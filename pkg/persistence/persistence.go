// Package persistence provides the storage abstraction for workflow
// definitions and execution logs.
package persistence

import (
	"context"
	"time"

	"github.com/accrediq/engine/pkg/models"
)

type Persistence interface {
	WorkflowRepository() WorkflowRepository
	ExecutionLogRepository() ExecutionLogRepository
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// ListWorkflowsOptions filters definition listings for the authoring UI.
type ListWorkflowsOptions struct {
	Status    *models.WorkflowStatus
	Category  *models.WorkflowCategory
	CreatedBy string
}

type WorkflowRepository interface {
	List(ctx context.Context, opts ListWorkflowsOptions) ([]*models.Workflow, error)
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	Save(ctx context.Context, workflow *models.Workflow) error
	Delete(ctx context.Context, id string) error

	// ListActiveByTrigger returns active definitions whose trigger equals the
	// given pair, ordered ascending by ID so matching is repeatable.
	ListActiveByTrigger(ctx context.Context, trigger models.Trigger) ([]*models.Workflow, error)

	// RecordExecution writes back the engine-owned summary counters after a
	// run reaches a terminal state.
	RecordExecution(ctx context.Context, id string, count int64, at time.Time) error
}

// ListExecutionsOptions filters execution-log queries. Results are always
// newest-first by StartedAt.
type ListExecutionsOptions struct {
	WorkflowID string
	Status     *models.RunStatus
	Since      *time.Time
	Until      *time.Time
	Limit      int
	Offset     int
}

type ExecutionLogRepository interface {
	// Create persists a new log in running state before the first action
	// executes.
	Create(ctx context.Context, log *models.ExecutionLog) error

	// AppendResult adds one action result to a running log so operational
	// tooling can watch a run live.
	AppendResult(ctx context.Context, logID string, result models.ActionResult) error

	// Finalize writes the terminal state of a run. Finalized logs are
	// write-once; any further mutation fails.
	Finalize(ctx context.Context, log *models.ExecutionLog) error

	GetByID(ctx context.Context, id string) (*models.ExecutionLog, error)
	List(ctx context.Context, opts ListExecutionsOptions) ([]*models.ExecutionLog, error)
	CountByWorkflow(ctx context.Context, workflowID string) (int64, error)
}
