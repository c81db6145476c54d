// Package main provides the AccrediQ API server.
package main

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/accrediq/engine/pkg/eventbus"
	"github.com/accrediq/engine/pkg/persistence"
	"github.com/accrediq/engine/pkg/registry"
	"github.com/accrediq/engine/pkg/services"
	"github.com/accrediq/engine/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
}

func NewAPI(
	logger *slog.Logger,
	persist persistence.Persistence,
	reg *registry.Registry,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:      logger,
		persistence: persist,
		registry:    reg,
		eventBus:    eventBus,
	}
}

func (a *API) App() *fiber.App {
	workflowService := services.NewWorkflowService(a.persistence, a.registry, a.logger)
	executionService := services.NewExecutionService(a.persistence, a.logger)
	templateService := services.NewTemplateService(workflowService, a.logger)

	handlers := web.NewAPIHandlers(
		workflowService,
		executionService,
		templateService,
		a.eventBus,
		a.registry,
		a.logger,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("AccrediQ API")
	})

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Put("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/activate", handlers.ActivateWorkflow)
	w.Post("/:id/pause", handlers.PauseWorkflow)
	w.Post("/:id/archive", handlers.ArchiveWorkflow)
	w.Get("/:id/executions", handlers.GetWorkflowExecutions)

	e := app.Group("/executions")
	e.Get("/", handlers.GetExecutions)
	e.Get("/:id", handlers.GetExecution)

	t := app.Group("/templates")
	t.Get("/", handlers.GetTemplates)
	t.Post("/:id/instantiate", handlers.InstantiateTemplate)

	app.Post("/events", handlers.PublishEvent)

	ref := app.Group("/reference")
	ref.Get("/entity-types", handlers.GetEntityTypes)
	ref.Get("/event-kinds", handlers.GetEventKinds)
	ref.Get("/operators", handlers.GetOperators)
	ref.Get("/action-types", handlers.GetActionTypes)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	return a.App().Listen(":" + strconv.Itoa(port))
}
