// Package main provides the AccrediQ engine worker: it consumes entity
// lifecycle events from the bus and runs the matching workflows.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/accrediq/engine/pkg/counters"
	"github.com/accrediq/engine/pkg/engine"
	"github.com/accrediq/engine/pkg/eventbus"
	"github.com/accrediq/engine/pkg/events"
	"github.com/accrediq/engine/pkg/persistence"
	"github.com/accrediq/engine/pkg/registry"
	"github.com/accrediq/engine/pkg/scheduler"
)

type Worker struct {
	id          string
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	engine      *engine.Engine
	sweeper     *scheduler.Sweeper
	counters    counters.Store
	logger      *slog.Logger
}

func NewWorker(
	id string,
	persist persistence.Persistence,
	eventBus eventbus.EventBus,
	reg *registry.Registry,
	counterStore counters.Store,
	sweeper *scheduler.Sweeper,
	logger *slog.Logger,
	runnerOpts ...engine.RunnerOption,
) *Worker {
	runner := engine.NewRunner(
		persist.ExecutionLogRepository(),
		persist.WorkflowRepository(),
		reg,
		counterStore,
		logger,
		runnerOpts...,
	)

	return &Worker{
		id:          id,
		persistence: persist,
		eventBus:    eventBus,
		engine:      engine.New(persist, runner, eventBus, logger),
		sweeper:     sweeper,
		counters:    counterStore,
		logger:      logger,
	}
}

// Start consumes entity lifecycle events until the context is cancelled or a
// termination signal arrives, then drains in-flight runs.
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	err := w.eventBus.Handle(events.EntityLifecycleEvent, func(ctx context.Context, event any) error {
		entityEvent, ok := event.(*events.EntityEvent)
		if !ok {
			return fmt.Errorf("unexpected event payload %T", event)
		}

		return w.engine.Notify(ctx, *entityEvent)
	})
	if err != nil {
		return err
	}

	if err := w.eventBus.Subscribe(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to entity events: %w", err)
	}

	if w.sweeper != nil {
		if err := w.sweeper.Start(ctx); err != nil {
			return fmt.Errorf("failed to start overdue sweeper: %w", err)
		}
	}

	w.logger.Info("Engine worker started", "worker_id", w.id)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-signals:
		w.logger.Info("Received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
	}

	cancel()

	if w.sweeper != nil {
		w.sweeper.Stop()
	}

	w.engine.Wait()
	w.logger.Info("Engine worker stopped", "worker_id", w.id)

	return nil
}
