package web

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/accrediq/engine/pkg/entity"
	"github.com/accrediq/engine/pkg/eventbus"
	"github.com/accrediq/engine/pkg/events"
	"github.com/accrediq/engine/pkg/models"
	"github.com/accrediq/engine/pkg/persistence"
	"github.com/accrediq/engine/pkg/registry"
	"github.com/accrediq/engine/pkg/services"
)

type APIHandlers struct {
	workflows  *services.WorkflowService
	executions *services.ExecutionService
	templates  *services.TemplateService
	eventBus   eventbus.EventBus
	registry   *registry.Registry
	validator  *validator.Validate
	logger     *slog.Logger
}

func NewAPIHandlers(
	workflows *services.WorkflowService,
	executions *services.ExecutionService,
	templates *services.TemplateService,
	eventBus eventbus.EventBus,
	reg *registry.Registry,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		workflows:  workflows,
		executions: executions,
		templates:  templates,
		eventBus:   eventBus,
		registry:   reg,
		validator:  validator.New(validator.WithRequiredStructEnabled()),
		logger:     logger.With("module", "web"),
	}
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	opts := persistence.ListWorkflowsOptions{
		CreatedBy: c.Query("created_by"),
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.WorkflowStatus(statusStr)
		opts.Status = &status
	}

	if categoryStr := c.Query("category"); categoryStr != "" {
		category := models.WorkflowCategory(categoryStr)
		opts.Category = &category
	}

	workflows, err := h.workflows.List(c.Context(), opts)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflows":   workflows,
		"total_count": len(workflows),
	})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.workflows.Get(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	workflow := &models.Workflow{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		CreatedBy:   req.CreatedBy,
		Trigger:     req.Trigger,
		Conditions:  req.Conditions,
		Actions:     req.Actions,
	}

	created, err := h.workflows.Create(c.Context(), workflow)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.workflows.Update(c.Context(), id, &models.Workflow{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Trigger:     req.Trigger,
		Conditions:  req.Conditions,
		Actions:     req.Actions,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	force := false

	if forceStr := c.Query("force"); forceStr != "" {
		parsed, err := strconv.ParseBool(forceStr)
		if err != nil {
			return badRequest(c, "Invalid force parameter")
		}

		force = parsed
	}

	if err := h.workflows.Delete(c.Context(), id, force); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ActivateWorkflow(c fiber.Ctx) error {
	return h.transitionWorkflow(c, h.workflows.Activate)
}

func (h *APIHandlers) PauseWorkflow(c fiber.Ctx) error {
	return h.transitionWorkflow(c, h.workflows.Pause)
}

func (h *APIHandlers) ArchiveWorkflow(c fiber.Ctx) error {
	return h.transitionWorkflow(c, h.workflows.Archive)
}

func (h *APIHandlers) transitionWorkflow(
	c fiber.Ctx,
	transition func(ctx context.Context, id string) (*models.Workflow, error),
) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := transition(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) GetExecutions(c fiber.Ctx) error {
	opts, err := h.parseListExecutionsOptions(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	logs, err := h.executions.List(c.Context(), *opts)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"executions": logs,
		"count":      len(logs),
	})
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	log, err := h.executions.Get(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(log)
}

func (h *APIHandlers) GetWorkflowExecutions(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	if _, err := h.workflows.Get(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	opts, err := h.parseListExecutionsOptions(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	opts.WorkflowID = id

	logs, err := h.executions.List(c.Context(), *opts)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"executions": logs,
		"count":      len(logs),
	})
}

func (h *APIHandlers) parseListExecutionsOptions(c fiber.Ctx) (*persistence.ListExecutionsOptions, error) {
	opts := &persistence.ListExecutionsOptions{
		WorkflowID: c.Query("workflow_id"),
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.RunStatus(statusStr)
		opts.Status = &status
	}

	if sinceStr := c.Query("since"); sinceStr != "" {
		since, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			return nil, err
		}

		opts.Since = &since
	}

	if untilStr := c.Query("until"); untilStr != "" {
		until, err := time.Parse(time.RFC3339, untilStr)
		if err != nil {
			return nil, err
		}

		opts.Until = &until
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, err
		}

		opts.Limit = limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return nil, err
		}

		opts.Offset = offset
	}

	return opts, nil
}

func (h *APIHandlers) GetTemplates(c fiber.Ctx) error {
	templates := h.templates.List()

	return c.JSON(fiber.Map{
		"templates": templates,
		"count":     len(templates),
	})
}

func (h *APIHandlers) InstantiateTemplate(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Template ID is required")
	}

	var req InstantiateTemplateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.templates.Instantiate(c.Context(), id, req.CreatedBy)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// PublishEvent accepts one entity lifecycle event over HTTP and puts it on
// the bus, where the engine worker picks it up like any produced event.
func (h *APIHandlers) PublishEvent(c fiber.Ctx) error {
	var req PublishEventRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if !req.EntityType.Valid() {
		return badRequest(c, "Unknown entity type "+string(req.EntityType))
	}

	if !req.EventKind.Valid() {
		return badRequest(c, "Unknown event kind "+string(req.EventKind))
	}

	source := req.Source
	if source == "" {
		source = "api"
	}

	event := events.EntityEvent{
		BaseEvent: events.BaseEvent{
			ID:        h.eventBus.GenerateID(),
			Type:      events.EntityLifecycleEvent,
			Timestamp: time.Now().UTC(),
		},
		EntityType: req.EntityType,
		EventKind:  req.EventKind,
		EntityID:   req.EntityID,
		Snapshot:   req.Snapshot,
		Source:     source,
	}

	if err := h.eventBus.Publish(c.Context(), event.EntityID, event); err != nil {
		return internalError(c, err)
	}

	h.logger.Info("Entity event accepted",
		"entity_type", event.EntityType,
		"event_kind", event.EventKind,
		"entity_id", event.EntityID,
		"source", source)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"event_id": event.ID,
	})
}

// Reference endpoints for the authoring UI.

func (h *APIHandlers) GetEntityTypes(c fiber.Ctx) error {
	types := make([]EntityTypeInfo, 0, len(models.EntityTypes()))
	for _, entityType := range models.EntityTypes() {
		types = append(types, EntityTypeInfo{
			Type:   entityType,
			Fields: entity.Fields(entityType),
		})
	}

	return c.JSON(fiber.Map{"entity_types": types})
}

func (h *APIHandlers) GetEventKinds(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"event_kinds": models.EventKinds()})
}

func (h *APIHandlers) GetOperators(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"operators": models.Operators()})
}

func (h *APIHandlers) GetActionTypes(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"action_types": models.ActionTypes(),
		"registered":   h.registry.Registered(),
	})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOK := h.registry.HealthCheck()
	repositoryErr := h.workflows.HealthCheck(c.Context())

	repositoryCheck := "repository reachable"
	repOK := repositoryErr == nil

	if repositoryErr != nil {
		repositoryCheck = repositoryErr.Error()
	}

	status := "unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOK && repOK {
		status = "healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checkers": fiber.Map{
			"registry":   registryCheck,
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
