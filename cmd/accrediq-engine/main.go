package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/accrediq/engine/pkg/cmd"
	"github.com/accrediq/engine/pkg/engine"
	"github.com/accrediq/engine/pkg/log"
	"github.com/accrediq/engine/pkg/otelhelper"
	"github.com/accrediq/engine/pkg/scheduler"
)

func main() {
	command := &cli.Command{
		Name:                  "accrediq-engine",
		Usage:                 "Run accreditation workflows from entity lifecycle events",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL (postgres:// or file://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "counters-url",
				Usage:   "Redis URL for the shared execution counter store (in-memory if empty)",
				Sources: cli.EnvVars("COUNTERS_URL"),
			},
			&cli.StringFlag{
				Name:    "ai-service-url",
				Usage:   "Base URL of the text generation service",
				Sources: cli.EnvVars("AI_SERVICE_URL"),
			},
			&cli.StringFlag{
				Name:    "overdue-endpoint",
				Usage:   "Host endpoint that lists overdue entities (sweeper disabled if empty)",
				Sources: cli.EnvVars("OVERDUE_ENDPOINT"),
			},
			&cli.StringFlag{
				Name:    "overdue-schedule",
				Usage:   "Cron schedule for the overdue sweeper",
				Value:   scheduler.DefaultSchedule,
				Sources: cli.EnvVars("OVERDUE_SCHEDULE"),
			},
			&cli.DurationFlag{
				Name:    "action-timeout",
				Usage:   "Upper bound for a single action handler invocation",
				Value:   30 * time.Second,
				Sources: cli.EnvVars("ACTION_TIMEOUT"),
			},
			&cli.BoolFlag{
				Name:    "otel-enabled",
				Usage:   "Export run and action spans over OTLP-HTTP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "engine-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("accrediq-engine").With("worker_id", workerID)

			logger.InfoContext(ctx, "Initializing AccrediQ engine worker")

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), "accrediq-engine", logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			persist, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := persist.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			counterStore, err := cmd.NewCounterStore(command.String("counters-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := counterStore.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close counter store", "error", err)
				}
			}()

			registry := cmd.NewRegistry(logger, eventBus, command.String("ai-service-url"))

			runnerOpts := []engine.RunnerOption{
				engine.WithActionTimeout(command.Duration("action-timeout")),
			}

			if command.Bool("otel-enabled") {
				tracerProvider, err := otelhelper.NewTracerProvider(ctx, "accrediq-engine")
				if err != nil {
					return fmt.Errorf("failed to initialize tracer: %w", err)
				}

				defer func() {
					if err := tracerProvider.Shutdown(ctx); err != nil {
						logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
					}
				}()

				runnerOpts = append(runnerOpts, engine.WithTracer(tracerProvider.Tracer("accrediq-engine")))
			}

			var sweeper *scheduler.Sweeper
			if endpoint := command.String("overdue-endpoint"); endpoint != "" {
				sweeper = scheduler.NewSweeper(
					scheduler.NewHTTPOverdueSource(endpoint),
					eventBus,
					command.String("overdue-schedule"),
					logger,
				)
			}

			worker := NewWorker(workerID, persist, eventBus, registry, counterStore, sweeper, logger, runnerOpts...)

			if err := worker.Start(ctx); err != nil {
				logger.ErrorContext(ctx, "Engine worker exited with error", "error", err)

				return err
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
