// Package models defines the core domain models for the accreditation
// workflow automation engine.
package models

import (
	"slices"
	"time"
)

// WorkflowStatus represents the lifecycle state of a workflow definition.
type WorkflowStatus string

const (
	WorkflowStatusDraft    WorkflowStatus = "draft"    // Editable, never matched
	WorkflowStatusActive   WorkflowStatus = "active"   // Eligible for trigger matching
	WorkflowStatusPaused   WorkflowStatus = "paused"   // Excluded from matching, state preserved
	WorkflowStatusArchived WorkflowStatus = "archived" // Excluded, retained for audit
)

// WorkflowCategory groups definitions in the authoring UI.
type WorkflowCategory string

const (
	CategoryCompliance WorkflowCategory = "compliance"
	CategoryQuality    WorkflowCategory = "quality"
	CategorySafety     WorkflowCategory = "safety"
	CategoryTraining   WorkflowCategory = "training"
	CategoryGeneral    WorkflowCategory = "general"
)

// Trigger is the (entity type, event kind) pair that makes a workflow
// eligible for matching.
type Trigger struct {
	EntityType EntityType `json:"entity_type" validate:"required"`
	EventKind  EventKind  `json:"event_kind"  validate:"required"`
}

// Workflow is a named automation rule: a trigger, a condition group and an
// ordered action list. ExecutionCount and LastExecutedAt are owned by the
// engine; the authoring UI is read-only on them.
type Workflow struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"        validate:"required,min=3"`
	Description    string           `json:"description"`
	Category       WorkflowCategory `json:"category"    validate:"required,oneof=compliance quality safety training general"`
	IsTemplate     bool             `json:"is_template"`
	Trigger        Trigger          `json:"trigger"`
	Conditions     ConditionGroup   `json:"conditions"`
	Actions        []Action         `json:"actions"     validate:"dive"`
	Status         WorkflowStatus   `json:"status"`
	ExecutionCount int64            `json:"execution_count"`
	LastExecutedAt *time.Time       `json:"last_executed_at,omitempty"`
	CreatedBy      string           `json:"created_by"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// SortedActions returns the workflow's actions in ascending execution order.
func (w *Workflow) SortedActions() []Action {
	actions := make([]Action, len(w.Actions))
	copy(actions, w.Actions)

	slices.SortStableFunc(actions, func(a, b Action) int {
		return a.Order - b.Order
	})

	return actions
}
