// Package engine matches entity lifecycle events against workflow triggers
// and runs the matched workflows.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/accrediq/engine/pkg/eventbus"
	"github.com/accrediq/engine/pkg/events"
	"github.com/accrediq/engine/pkg/models"
	"github.com/accrediq/engine/pkg/persistence"
)

// Engine is the automation core: one Notify call per entity lifecycle event,
// each matched workflow running in its own goroutine so a slow or delayed
// run never holds back the others.
type Engine struct {
	matcher *Matcher
	runner  *Runner
	bus     eventbus.EventBus
	logger  *slog.Logger

	wg sync.WaitGroup
}

func New(
	persist persistence.Persistence,
	runner *Runner,
	bus eventbus.EventBus,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		matcher: NewMatcher(persist.WorkflowRepository(), logger),
		runner:  runner,
		bus:     bus,
		logger:  logger.With("module", "engine"),
	}
}

// Notify matches the event and starts one run per matched workflow. It
// returns once the runs are launched; Wait blocks until they finish.
func (e *Engine) Notify(ctx context.Context, event events.EntityEvent) error {
	matched, err := e.matcher.Match(ctx, event)
	if err != nil {
		return err
	}

	for _, workflow := range matched {
		e.wg.Add(1)

		go func(workflow *models.Workflow) {
			defer e.wg.Done()
			e.run(ctx, workflow, event)
		}(workflow)
	}

	return nil
}

// Wait blocks until every launched run has finished. Used on shutdown.
func (e *Engine) Wait() {
	e.wg.Wait()
}

func (e *Engine) run(ctx context.Context, workflow *models.Workflow, event events.EntityEvent) {
	executionID := uuid.New().String()

	// Announce before the first action so hosts see the run while its
	// delays are still pending.
	e.publishRunStarted(ctx, executionID, workflow.ID, event.EntityID)

	log := e.runner.RunWithID(ctx, executionID, workflow, event)

	e.publishRunResult(ctx, log)
}

func (e *Engine) publishRunStarted(ctx context.Context, executionID, workflowID, entityID string) {
	started := events.RunStarted{
		BaseEvent: events.BaseEvent{
			ID:        e.bus.GenerateID(),
			Type:      events.RunStartedEvent,
			Timestamp: time.Now().UTC(),
		},
		ExecutionID: executionID,
		WorkflowID:  workflowID,
		EntityID:    entityID,
	}
	if err := e.bus.Publish(ctx, workflowID, started); err != nil {
		e.logger.Warn("Failed to publish run started event", "execution_id", executionID, "error", err)
	}
}

func (e *Engine) publishRunResult(ctx context.Context, log *models.ExecutionLog) {
	completedAt := time.Now().UTC()
	if log.CompletedAt != nil {
		completedAt = *log.CompletedAt
	}

	if log.Status == models.RunStatusFailed && log.Error != "" {
		failed := events.RunFailed{
			BaseEvent: events.BaseEvent{
				ID:        e.bus.GenerateID(),
				Type:      events.RunFailedEvent,
				Timestamp: completedAt,
			},
			ExecutionID: log.ID,
			WorkflowID:  log.WorkflowID,
			Error:       log.Error,
		}
		if err := e.bus.Publish(ctx, log.WorkflowID, failed); err != nil {
			e.logger.Warn("Failed to publish run failed event", "execution_id", log.ID, "error", err)
		}

		return
	}

	finished := events.RunFinished{
		BaseEvent: events.BaseEvent{
			ID:        e.bus.GenerateID(),
			Type:      events.RunFinishedEvent,
			Timestamp: completedAt,
		},
		ExecutionID: log.ID,
		WorkflowID:  log.WorkflowID,
		Status:      log.Status,
		Duration:    completedAt.Sub(log.StartedAt),
	}
	if err := e.bus.Publish(ctx, log.WorkflowID, finished); err != nil {
		e.logger.Warn("Failed to publish run finished event", "execution_id", log.ID, "error", err)
	}
}
