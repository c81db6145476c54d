// Package registry maps action types to their handlers and validates raw
// action configs against per-type schemas.
package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xeipuuv/gojsonschema"

	"github.com/accrediq/engine/pkg/entity"
	"github.com/accrediq/engine/pkg/models"
)

// HandlerResult is the uniform outcome of one action handler invocation.
type HandlerResult struct {
	Status  models.ActionResultStatus
	Message string
}

// Handler executes one action type. Config arrives with text templates
// already rendered; the snapshot is read-only. Handlers report failure either
// through the result status or an error, both are treated the same way by
// the runner.
type Handler interface {
	Execute(ctx context.Context, config map[string]any, snapshot entity.Snapshot) (HandlerResult, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, config map[string]any, snapshot entity.Snapshot) (HandlerResult, error)

func (f HandlerFunc) Execute(ctx context.Context, config map[string]any, snapshot entity.Snapshot) (HandlerResult, error) {
	return f(ctx, config, snapshot)
}

type Registry struct {
	logger   *slog.Logger
	handlers map[models.ActionType]Handler
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:   logger.With("module", "registry"),
		handlers: make(map[models.ActionType]Handler),
	}
}

// Register installs or replaces the handler for an action type. Hosts swap
// in their own handlers here; the engine only sees the Handler contract.
func (r *Registry) Register(actionType models.ActionType, handler Handler) {
	r.handlers[actionType] = handler
}

func (r *Registry) Handler(actionType models.ActionType) (Handler, error) {
	handler, ok := r.handlers[actionType]
	if !ok {
		return nil, fmt.Errorf("action type %q not registered", actionType)
	}

	return handler, nil
}

// Registered returns the action types that currently have a handler.
func (r *Registry) Registered() []models.ActionType {
	types := make([]models.ActionType, 0, len(r.handlers))
	for actionType := range r.handlers {
		types = append(types, actionType)
	}

	return types
}

// ValidateConfig checks a raw action config against the schema for its type.
// Called at save time so invalid definitions never reach the engine.
func (r *Registry) ValidateConfig(actionType models.ActionType, config map[string]any) error {
	schema, ok := configSchemas[actionType]
	if !ok {
		return fmt.Errorf("no config schema for action type %q", actionType)
	}

	if config == nil {
		config = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(config),
	)
	if err != nil {
		return fmt.Errorf("failed to validate config for %s: %w", actionType, err)
	}

	if !result.Valid() {
		first := result.Errors()[0]

		return fmt.Errorf("invalid config for %s: %s", actionType, first.String())
	}

	return nil
}

// HealthCheck reports whether every known action type has a handler.
func (r *Registry) HealthCheck() (string, bool) {
	for _, actionType := range models.ActionTypes() {
		if _, ok := r.handlers[actionType]; !ok {
			return "missing handler for action type " + string(actionType), false
		}
	}

	return "all action handlers registered", true
}
