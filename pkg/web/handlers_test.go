package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accrediq/engine/pkg/actions"
	"github.com/accrediq/engine/pkg/ai"
	"github.com/accrediq/engine/pkg/channels/gochannel"
	"github.com/accrediq/engine/pkg/entity"
	"github.com/accrediq/engine/pkg/eventbus"
	"github.com/accrediq/engine/pkg/models"
	"github.com/accrediq/engine/pkg/persistence/file"
	"github.com/accrediq/engine/pkg/registry"
	"github.com/accrediq/engine/pkg/services"
	"github.com/accrediq/engine/pkg/web"
)

type testEnv struct {
	app       *fiber.App
	persist   *file.Persistence
	workflows *services.WorkflowService
}

func setupTestApp(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.Default()
	persist := file.NewPersistence(t.TempDir())

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() {
		_ = bus.Close()
	})

	reg := registry.NewRegistry(logger)
	actions.RegisterDefaults(reg, actions.NewBusDispatcher(bus), ai.Unavailable{})

	workflowService := services.NewWorkflowService(persist, reg, logger)
	executionService := services.NewExecutionService(persist, logger)
	templateService := services.NewTemplateService(workflowService, logger)

	handlers := web.NewAPIHandlers(workflowService, executionService, templateService, bus, reg, logger)

	app := fiber.New()

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

	tg := app.Group("/templates")
	tg.Get("/", handlers.GetTemplates)
	tg.Post("/:id/instantiate", handlers.InstantiateTemplate)

	app.Post("/events", handlers.PublishEvent)

	ref := app.Group("/reference")
	ref.Get("/entity-types", handlers.GetEntityTypes)
	ref.Get("/event-kinds", handlers.GetEventKinds)
	ref.Get("/operators", handlers.GetOperators)
	ref.Get("/action-types", handlers.GetActionTypes)

	app.Get("/health", handlers.HealthCheck)

	return &testEnv{app: app, persist: persist, workflows: workflowService}
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) *http.Response {
	t.Helper()

	var reader io.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	return resp
}

func decodeWorkflow(t *testing.T, resp *http.Response) models.Workflow {
	t.Helper()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var workflow models.Workflow
	require.NoError(t, json.Unmarshal(raw, &workflow))

	return workflow
}

func createRequest() web.CreateWorkflowRequest {
	return web.CreateWorkflowRequest{
		Name:        "Escalate stalled CAPAs",
		Description: "Escalates CAPAs that miss their due date",
		Category:    models.CategoryQuality,
		CreatedBy:   "qa-lead",
		Trigger: models.Trigger{
			EntityType: models.EntityCAPA,
			EventKind:  models.EventOverdue,
		},
		Actions: []models.Action{
			{
				Type:  models.ActionEscalate,
				Order: 1,
				Config: map[string]any{
					"message":           "{{entity.title}} is overdue",
					"escalate_to_roles": []any{"quality_manager"},
				},
			},
		},
	}
}

func TestCreateWorkflow(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	resp := doJSON(t, env.app, http.MethodPost, "/workflows/", createRequest())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decodeWorkflow(t, resp)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.WorkflowStatusDraft, created.Status)
	assert.Equal(t, "qa-lead", created.CreatedBy)
}

func TestCreateWorkflow_BadRequests(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	// Malformed JSON.
	req := httptest.NewRequest(http.MethodPost, "/workflows/", bytes.NewReader([]byte("{nope")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Body-level validation.
	body := createRequest()
	body.Name = "ab"
	resp = doJSON(t, env.app, http.MethodPost, "/workflows/", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Domain validation: unknown condition field.
	body = createRequest()
	body.Conditions = models.ConditionGroup{
		Logic: models.LogicAnd,
		Conditions: []models.Condition{
			{Field: "nonsense", Operator: models.OperatorEquals, Value: "x"},
		},
	}
	resp = doJSON(t, env.app, http.MethodPost, "/workflows/", body)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestGetWorkflow_NotFound(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	resp := doJSON(t, env.app, http.MethodGet, "/workflows/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWorkflowLifecycleOverHTTP(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	resp := doJSON(t, env.app, http.MethodPost, "/workflows/", createRequest())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeWorkflow(t, resp)

	resp = doJSON(t, env.app, http.MethodPost, "/workflows/"+created.ID+"/activate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.WorkflowStatusActive, decodeWorkflow(t, resp).Status)

	resp = doJSON(t, env.app, http.MethodPost, "/workflows/"+created.ID+"/pause", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.WorkflowStatusPaused, decodeWorkflow(t, resp).Status)

	resp = doJSON(t, env.app, http.MethodPost, "/workflows/"+created.ID+"/archive", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Archived definitions reject edits.
	resp = doJSON(t, env.app, http.MethodPut, "/workflows/"+created.ID, web.UpdateWorkflowRequest{
		Name:     "New name",
		Category: models.CategoryQuality,
		Trigger:  createRequest().Trigger,
		Actions:  createRequest().Actions,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestDeleteWorkflow_ForceGuard(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	resp := doJSON(t, env.app, http.MethodPost, "/workflows/", createRequest())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeWorkflow(t, resp)

	require.NoError(t, env.persist.ExecutionLogRepository().Create(t.Context(), &models.ExecutionLog{
		ID:         "run-1",
		WorkflowID: created.ID,
		Status:     models.RunStatusCompleted,
	}))

	resp = doJSON(t, env.app, http.MethodDelete, "/workflows/"+created.ID, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doJSON(t, env.app, http.MethodDelete, "/workflows/"+created.ID+"?force=true", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestTemplates(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	resp := doJSON(t, env.app, http.MethodGet, "/templates/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var listing struct {
		Templates []models.Workflow `json:"templates"`
		Count     int               `json:"count"`
	}
	require.NoError(t, json.Unmarshal(raw, &listing))
	assert.NotEmpty(t, listing.Templates)
	assert.Equal(t, len(listing.Templates), listing.Count)

	resp = doJSON(t, env.app, http.MethodPost,
		"/templates/"+listing.Templates[0].ID+"/instantiate",
		web.InstantiateTemplateRequest{CreatedBy: "qa-lead"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decodeWorkflow(t, resp)
	assert.False(t, created.IsTemplate)
	assert.Equal(t, models.WorkflowStatusDraft, created.Status)
}

func TestPublishEvent(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	resp := doJSON(t, env.app, http.MethodPost, "/events", web.PublishEventRequest{
		EntityType: models.EntityIncident,
		EventKind:  models.EventCreated,
		EntityID:   "inc-1",
		Snapshot:   entity.Snapshot{"id": "inc-1", "severity": "high"},
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp = doJSON(t, env.app, http.MethodPost, "/events", web.PublishEventRequest{
		EntityType: "starship",
		EventKind:  models.EventCreated,
		EntityID:   "x",
		Snapshot:   entity.Snapshot{"id": "x"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReferenceEndpoints(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	for _, path := range []string{
		"/reference/entity-types",
		"/reference/event-kinds",
		"/reference/operators",
		"/reference/action-types",
	} {
		resp := doJSON(t, env.app, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	resp := doJSON(t, env.app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
