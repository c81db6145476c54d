package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/accrediq/engine/pkg/entity"
	"github.com/accrediq/engine/pkg/events"
	"github.com/accrediq/engine/pkg/models"
	"github.com/accrediq/engine/pkg/otelhelper"
	"github.com/accrediq/engine/pkg/persistence"
	"github.com/accrediq/engine/pkg/registry"
)

const defaultActionTimeout = 30 * time.Second

// Runner executes one workflow run: the ordered action sequence with
// per-action delays, failure isolation and a live execution log.
type Runner struct {
	logs          persistence.ExecutionLogRepository
	workflows     persistence.WorkflowRepository
	registry      *registry.Registry
	counters      CounterStore
	logger        *slog.Logger
	tracer        trace.Tracer
	actionTimeout time.Duration
	delayUnit     time.Duration
}

// CounterStore is the subset of the counter store the runner needs.
type CounterStore interface {
	Record(ctx context.Context, workflowID string, at time.Time) (int64, error)
}

type RunnerOption func(*Runner)

// WithActionTimeout bounds each handler invocation.
func WithActionTimeout(timeout time.Duration) RunnerOption {
	return func(r *Runner) {
		r.actionTimeout = timeout
	}
}

// WithDelayUnit overrides the duration one delay unit represents.
// Production uses a minute; tests shrink it to keep delays observable
// without waiting.
func WithDelayUnit(unit time.Duration) RunnerOption {
	return func(r *Runner) {
		r.delayUnit = unit
	}
}

func WithTracer(tracer trace.Tracer) RunnerOption {
	return func(r *Runner) {
		r.tracer = tracer
	}
}

func NewRunner(
	logs persistence.ExecutionLogRepository,
	workflows persistence.WorkflowRepository,
	reg *registry.Registry,
	counters CounterStore,
	logger *slog.Logger,
	opts ...RunnerOption,
) *Runner {
	runner := &Runner{
		logs:          logs,
		workflows:     workflows,
		registry:      reg,
		counters:      counters,
		logger:        logger.With("module", "runner"),
		tracer:        otelhelper.NoopTracer(),
		actionTimeout: defaultActionTimeout,
		delayUnit:     time.Minute,
	}

	for _, opt := range opts {
		opt(runner)
	}

	return runner
}

// Run executes the workflow against the event's snapshot and returns the
// finalized execution log. It never returns an error: every failure mode
// ends up in the log, either as a failed action result or as a run-level
// error, so one misbehaving run cannot disturb its siblings.
func (r *Runner) Run(ctx context.Context, workflow *models.Workflow, event events.EntityEvent) *models.ExecutionLog {
	return r.RunWithID(ctx, uuid.New().String(), workflow, event)
}

// RunWithID is Run with a caller-assigned execution ID, so the caller can
// announce the run before it starts.
func (r *Runner) RunWithID(ctx context.Context, executionID string, workflow *models.Workflow, event events.EntityEvent) *models.ExecutionLog {
	log := &models.ExecutionLog{
		ID:              executionID,
		WorkflowID:      workflow.ID,
		WorkflowName:    workflow.Name,
		TriggeredBy:     event.Description(),
		TriggerEntityID: event.EntityID,
		StartedAt:       time.Now().UTC(),
		Status:          models.RunStatusRunning,
		ActionResults:   make([]models.ActionResult, 0, len(workflow.Actions)),
	}

	logger := r.logger.With(
		"workflow_id", workflow.ID,
		"workflow_name", workflow.Name,
		"execution_id", log.ID,
		"entity_id", event.EntityID,
	)

	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "workflow.run",
		attribute.String(otelhelper.WorkflowIDKey, workflow.ID),
		attribute.String(otelhelper.WorkflowNameKey, workflow.Name),
		attribute.String(otelhelper.ExecutionIDKey, log.ID),
		attribute.String(otelhelper.EntityTypeKey, string(event.EntityType)),
		attribute.String(otelhelper.EventKindKey, string(event.EventKind)),
	)
	defer span.End()

	logger.Info("Starting workflow run")

	if err := r.logs.Create(ctx, log); err != nil {
		// Run-level failure: the run never started, surface it as a failed
		// log so operators see it as a system alert.
		logger.Error("Failed to create execution log", "error", err)

		now := time.Now().UTC()
		log.Status = models.RunStatusFailed
		log.Error = fmt.Sprintf("failed to initialize run: %v", err)
		log.CompletedAt = &now

		return log
	}

	r.executeActions(ctx, workflow, event, log, logger)

	now := time.Now().UTC()
	log.CompletedAt = &now
	log.Status = models.RunStatusCompleted

	for _, result := range log.ActionResults {
		if result.Status == models.ActionStatusFailed {
			log.Status = models.RunStatusFailed

			break
		}
	}

	if err := r.logs.Finalize(ctx, log); err != nil {
		logger.Error("Failed to finalize execution log", "error", err)
	}

	r.recordExecution(ctx, workflow, now, logger)

	logger.Info("Workflow run finished",
		"status", log.Status,
		"actions", len(log.ActionResults),
		"duration", now.Sub(log.StartedAt))

	return log
}

func (r *Runner) executeActions(
	ctx context.Context,
	workflow *models.Workflow,
	event events.EntityEvent,
	log *models.ExecutionLog,
	logger *slog.Logger,
) {
	cancelled := false

	for _, action := range workflow.SortedActions() {
		if !cancelled && action.DelayMinutes > 0 {
			if err := r.wait(ctx, time.Duration(action.DelayMinutes)*r.delayUnit); err != nil {
				cancelled = true
			}
		}

		if cancelled {
			r.appendResult(ctx, log, models.ActionResult{
				ActionID:   action.ID,
				ActionType: action.Type,
				Status:     models.ActionStatusSkipped,
				Message:    "run cancelled before action started",
				StartedAt:  time.Now().UTC(),
			})

			continue
		}

		result := r.executeAction(ctx, action, event.Snapshot, logger)
		r.appendResult(ctx, log, result)

		if ctx.Err() != nil {
			cancelled = true
		}
	}
}

func (r *Runner) executeAction(
	ctx context.Context,
	action models.Action,
	snapshot entity.Snapshot,
	logger *slog.Logger,
) models.ActionResult {
	result := models.ActionResult{
		ActionID:   action.ID,
		ActionType: action.Type,
		StartedAt:  time.Now().UTC(),
	}

	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "workflow.action",
		attribute.String(otelhelper.ActionTypeKey, string(action.Type)),
		attribute.Int(otelhelper.ActionOrderKey, action.Order),
	)
	defer span.End()

	logger = logger.With("action_type", action.Type, "action_order", action.Order)
	logger.Info("Executing action")

	handler, err := r.registry.Handler(action.Type)
	if err != nil {
		return r.failResult(result, err, logger)
	}

	rendered := entity.RenderConfig(action.Config, snapshot)

	actionCtx, cancel := context.WithTimeout(ctx, r.actionTimeout)
	defer cancel()

	handlerResult, err := r.invoke(actionCtx, handler, rendered, snapshot)

	switch {
	case err != nil:
		if actionCtx.Err() == context.DeadlineExceeded {
			err = fmt.Errorf("action timed out after %s: %w", r.actionTimeout, err)
		}

		return r.failResult(result, err, logger)
	case handlerResult.Status == models.ActionStatusFailed:
		return r.failResult(result, fmt.Errorf("%s", handlerResult.Message), logger)
	default:
		now := time.Now().UTC()
		result.Status = models.ActionStatusCompleted
		result.Message = handlerResult.Message
		result.CompletedAt = &now

		logger.Info("Action completed", "message", result.Message)

		return result
	}
}

// invoke shields the runner from panicking handlers: a panic becomes an
// ordinary failed action result.
func (r *Runner) invoke(
	ctx context.Context,
	handler registry.Handler,
	config map[string]any,
	snapshot entity.Snapshot,
) (result registry.HandlerResult, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("action handler panicked: %v", recovered)
		}
	}()

	return handler.Execute(ctx, config, snapshot)
}

func (r *Runner) failResult(result models.ActionResult, err error, logger *slog.Logger) models.ActionResult {
	now := time.Now().UTC()
	result.Status = models.ActionStatusFailed
	result.Message = err.Error()
	result.CompletedAt = &now

	logger.Warn("Action failed", "error", err)

	return result
}

func (r *Runner) appendResult(ctx context.Context, log *models.ExecutionLog, result models.ActionResult) {
	log.ActionResults = append(log.ActionResults, result)

	if err := r.logs.AppendResult(ctx, log.ID, result); err != nil {
		r.logger.Error("Failed to append action result", "execution_id", log.ID, "error", err)
	}
}

func (r *Runner) wait(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// recordExecution updates the engine-owned summary counters exactly once per
// terminal run. The counter store is the atomic source of truth; the
// definition record only mirrors it for listings.
func (r *Runner) recordExecution(ctx context.Context, workflow *models.Workflow, at time.Time, logger *slog.Logger) {
	count, err := r.counters.Record(ctx, workflow.ID, at)
	if err != nil {
		logger.Error("Failed to record execution counter", "error", err)

		return
	}

	if err := r.workflows.RecordExecution(ctx, workflow.ID, count, at); err != nil {
		logger.Error("Failed to write back execution counters", "error", err)
	}
}
