// Package services holds the application layer between the HTTP surface and
// persistence: definition lifecycle, execution history and the template
// catalog.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/accrediq/engine/pkg/entity"
	"github.com/accrediq/engine/pkg/models"
	"github.com/accrediq/engine/pkg/persistence"
	"github.com/accrediq/engine/pkg/registry"
)

// WorkflowService owns the definition lifecycle. Every write path funnels
// through validateWorkflow so invalid definitions never reach the matcher.
type WorkflowService struct {
	persist   persistence.Persistence
	workflows persistence.WorkflowRepository
	logs      persistence.ExecutionLogRepository
	registry  *registry.Registry
	validate  *validator.Validate
	logger    *slog.Logger
}

func NewWorkflowService(persist persistence.Persistence, reg *registry.Registry, logger *slog.Logger) *WorkflowService {
	return &WorkflowService{
		persist:   persist,
		workflows: persist.WorkflowRepository(),
		logs:      persist.ExecutionLogRepository(),
		registry:  reg,
		validate:  validator.New(),
		logger:    logger.With("module", "workflow_service"),
	}
}

// HealthCheck reports whether the backing store is reachable.
func (s *WorkflowService) HealthCheck(ctx context.Context) error {
	return s.persist.HealthCheck(ctx)
}

func (s *WorkflowService) List(ctx context.Context, opts persistence.ListWorkflowsOptions) ([]*models.Workflow, error) {
	return s.workflows.List(ctx, opts)
}

func (s *WorkflowService) Get(ctx context.Context, id string) (*models.Workflow, error) {
	return s.workflows.GetByID(ctx, id)
}

// Create persists a new definition. New definitions always start as drafts;
// the engine-owned counters start at zero regardless of what the caller sent.
func (s *WorkflowService) Create(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate workflow id: %w", err)
	}

	now := time.Now().UTC()

	workflow.ID = id.String()
	workflow.Status = models.WorkflowStatusDraft
	workflow.ExecutionCount = 0
	workflow.LastExecutedAt = nil
	workflow.CreatedAt = now
	workflow.UpdatedAt = now

	s.assignActionIDs(workflow)

	if err := s.validateWorkflow(workflow); err != nil {
		return nil, err
	}

	if err := s.workflows.Save(ctx, workflow); err != nil {
		return nil, err
	}

	s.logger.Info("Workflow created", "workflow_id", workflow.ID, "name", workflow.Name)

	return workflow, nil
}

// Update replaces the editable fields of an existing definition. Status and
// the engine-owned counters are not editable here; status moves only through
// the transition endpoints.
func (s *WorkflowService) Update(ctx context.Context, id string, incoming *models.Workflow) (*models.Workflow, error) {
	current, err := s.workflows.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if current.Status == models.WorkflowStatusArchived {
		return nil, NewConflictError("workflow %s is archived and can no longer be edited", id)
	}

	current.Name = incoming.Name
	current.Description = incoming.Description
	current.Category = incoming.Category
	current.Trigger = incoming.Trigger
	current.Conditions = incoming.Conditions
	current.Actions = incoming.Actions
	current.UpdatedAt = time.Now().UTC()

	s.assignActionIDs(current)

	if err := s.validateWorkflow(current); err != nil {
		return nil, err
	}

	if err := s.workflows.Save(ctx, current); err != nil {
		return nil, err
	}

	s.logger.Info("Workflow updated", "workflow_id", current.ID, "name", current.Name)

	return current, nil
}

// Delete removes a definition. A workflow with execution history is refused
// unless force is set, since deleting it orphans the audit trail.
func (s *WorkflowService) Delete(ctx context.Context, id string, force bool) error {
	if _, err := s.workflows.GetByID(ctx, id); err != nil {
		return err
	}

	count, err := s.logs.CountByWorkflow(ctx, id)
	if err != nil {
		return err
	}

	if count > 0 && !force {
		return NewConflictError("workflow %s has %d execution logs; pass force=true to delete anyway", id, count)
	}

	if err := s.workflows.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Workflow deleted", "workflow_id", id, "orphaned_executions", count)

	return nil
}

// Activate makes a draft or paused definition eligible for matching. The
// full validation runs again here: a draft may have been saved half-finished.
func (s *WorkflowService) Activate(ctx context.Context, id string) (*models.Workflow, error) {
	return s.transition(ctx, id, models.WorkflowStatusActive, func(w *models.Workflow) error {
		if w.Status != models.WorkflowStatusDraft && w.Status != models.WorkflowStatusPaused {
			return NewConflictError("cannot activate workflow in status %q", w.Status)
		}

		if len(w.Actions) == 0 {
			return NewValidationError("workflow needs at least one action before activation")
		}

		return s.validateWorkflow(w)
	})
}

func (s *WorkflowService) Pause(ctx context.Context, id string) (*models.Workflow, error) {
	return s.transition(ctx, id, models.WorkflowStatusPaused, func(w *models.Workflow) error {
		if w.Status != models.WorkflowStatusActive {
			return NewConflictError("cannot pause workflow in status %q", w.Status)
		}

		return nil
	})
}

// Archive retires a definition. Archival is terminal.
func (s *WorkflowService) Archive(ctx context.Context, id string) (*models.Workflow, error) {
	return s.transition(ctx, id, models.WorkflowStatusArchived, func(w *models.Workflow) error {
		if w.Status == models.WorkflowStatusArchived {
			return NewConflictError("workflow %s is already archived", id)
		}

		return nil
	})
}

func (s *WorkflowService) transition(
	ctx context.Context,
	id string,
	target models.WorkflowStatus,
	check func(*models.Workflow) error,
) (*models.Workflow, error) {
	workflow, err := s.workflows.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := check(workflow); err != nil {
		return nil, err
	}

	previous := workflow.Status
	workflow.Status = target
	workflow.UpdatedAt = time.Now().UTC()

	if err := s.workflows.Save(ctx, workflow); err != nil {
		return nil, err
	}

	s.logger.Info("Workflow status changed",
		"workflow_id", workflow.ID,
		"from", previous,
		"to", target)

	return workflow, nil
}

func (s *WorkflowService) assignActionIDs(workflow *models.Workflow) {
	for i := range workflow.Actions {
		if workflow.Actions[i].ID == "" {
			workflow.Actions[i].ID = uuid.New().String()
		}
	}
}

func (s *WorkflowService) validateWorkflow(workflow *models.Workflow) error {
	if err := s.validate.Struct(workflow); err != nil {
		return NewValidationError("invalid workflow: %v", err)
	}

	if !workflow.Trigger.EntityType.Valid() {
		return NewValidationError("unknown trigger entity type %q", workflow.Trigger.EntityType)
	}

	if !workflow.Trigger.EventKind.Valid() {
		return NewValidationError("unknown trigger event kind %q", workflow.Trigger.EventKind)
	}

	if err := s.validateConditions(workflow); err != nil {
		return err
	}

	return s.validateActions(workflow)
}

func (s *WorkflowService) validateConditions(workflow *models.Workflow) error {
	group := workflow.Conditions

	if group.Logic == "" && len(group.Conditions) > 0 {
		workflow.Conditions.Logic = models.LogicAnd
	}

	for i, condition := range group.Conditions {
		if !condition.Operator.Valid() {
			return NewValidationError("condition %d: unknown operator %q", i+1, condition.Operator)
		}

		if !entity.HasField(workflow.Trigger.EntityType, condition.Field) {
			return NewValidationError("condition %d: entity type %q has no field %q",
				i+1, workflow.Trigger.EntityType, condition.Field)
		}
	}

	return nil
}

func (s *WorkflowService) validateActions(workflow *models.Workflow) error {
	seenOrders := make(map[int]bool, len(workflow.Actions))

	for i, action := range workflow.Actions {
		if !action.Type.Valid() {
			return NewValidationError("action %d: unknown action type %q", i+1, action.Type)
		}

		if seenOrders[action.Order] {
			return NewValidationError("action %d: duplicate order %d", i+1, action.Order)
		}

		seenOrders[action.Order] = true

		if err := s.registry.ValidateConfig(action.Type, action.Config); err != nil {
			return NewValidationError("action %d: %v", i+1, err)
		}
	}

	return nil
}
