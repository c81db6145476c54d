// Package web provides the REST surface for workflow authoring, execution
// history and event ingestion.
package web

import (
	"github.com/accrediq/engine/pkg/entity"
	"github.com/accrediq/engine/pkg/models"
)

// CreateWorkflowRequest is the body for creating a new definition. The
// definition always starts as a draft; status is not accepted here.
type CreateWorkflowRequest struct {
	Name        string                  `json:"name"        validate:"required,min=3"`
	Description string                  `json:"description"`
	Category    models.WorkflowCategory `json:"category"    validate:"required"`
	CreatedBy   string                  `json:"created_by"  validate:"required"`
	Trigger     models.Trigger          `json:"trigger"`
	Conditions  models.ConditionGroup   `json:"conditions"`
	Actions     []models.Action         `json:"actions"`
}

// UpdateWorkflowRequest replaces the editable fields of a definition.
// Engine-owned counters and status are not editable through this body.
type UpdateWorkflowRequest struct {
	Name        string                  `json:"name"        validate:"required,min=3"`
	Description string                  `json:"description"`
	Category    models.WorkflowCategory `json:"category"    validate:"required"`
	Trigger     models.Trigger          `json:"trigger"`
	Conditions  models.ConditionGroup   `json:"conditions"`
	Actions     []models.Action         `json:"actions"`
}

// InstantiateTemplateRequest names the author of the copied definition.
type InstantiateTemplateRequest struct {
	CreatedBy string `json:"created_by" validate:"required"`
}

// PublishEventRequest injects one entity lifecycle event, for hosts that
// call the API directly instead of producing to the event bus.
type PublishEventRequest struct {
	EntityType models.EntityType `json:"entity_type" validate:"required"`
	EventKind  models.EventKind  `json:"event_kind"  validate:"required"`
	EntityID   string            `json:"entity_id"   validate:"required"`
	Snapshot   entity.Snapshot   `json:"snapshot"    validate:"required"`
	Source     string            `json:"source"`
}

// EntityTypeInfo describes one entity type for the authoring UI: which
// events it can emit and which fields conditions may reference.
type EntityTypeInfo struct {
	Type   models.EntityType `json:"type"`
	Fields []string          `json:"fields"`
}
