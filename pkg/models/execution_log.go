package models

import "time"

// RunStatus is the aggregate outcome of one workflow run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// ActionResultStatus is the outcome of a single action within a run.
type ActionResultStatus string

const (
	ActionStatusCompleted ActionResultStatus = "completed"
	ActionStatusFailed    ActionResultStatus = "failed"
	ActionStatusRunning   ActionResultStatus = "running"
	ActionStatusSkipped   ActionResultStatus = "skipped"
)

// ActionResult records the outcome of one action within a run, in execution
// order.
type ActionResult struct {
	ActionID    string             `json:"action_id"`
	ActionType  ActionType         `json:"action_type"`
	Status      ActionResultStatus `json:"status"`
	Message     string             `json:"message"`
	StartedAt   time.Time          `json:"started_at"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
}

// ExecutionLog is the durable record of one workflow run. WorkflowName is a
// snapshot taken at run time so renaming a workflow does not rewrite history.
// The record is mutated in place while running and immutable once finalized.
type ExecutionLog struct {
	ID              string         `json:"id"`
	WorkflowID      string         `json:"workflow_id"`
	WorkflowName    string         `json:"workflow_name"`
	TriggeredBy     string         `json:"triggered_by"`
	TriggerEntityID string         `json:"trigger_entity_id"`
	StartedAt       time.Time      `json:"started_at"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
	Status          RunStatus      `json:"status"`
	ActionResults   []ActionResult `json:"action_results"`
	Error           string         `json:"error,omitempty"`
}

// Finalized reports whether the log has reached a terminal state and may no
// longer be modified.
func (l *ExecutionLog) Finalized() bool {
	return l.Status == RunStatusCompleted || l.Status == RunStatusFailed
}
