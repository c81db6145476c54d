package engine

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accrediq/engine/pkg/channels/gochannel"
	"github.com/accrediq/engine/pkg/entity"
	"github.com/accrediq/engine/pkg/eventbus"
	"github.com/accrediq/engine/pkg/events"
	"github.com/accrediq/engine/pkg/models"
	"github.com/accrediq/engine/pkg/registry"
)

// Exercises the full path: an entity lifecycle event published on the bus is
// consumed, matched against an active workflow with a condition, and its
// actions run in order with the second one delayed.
func TestEngine_EndToEnd_BusDrivenRun(t *testing.T) {
	t.Parallel()

	f := newRunnerFixture(t)

	var (
		mu    sync.Mutex
		calls []string
	)

	record := func(name string) registry.Handler {
		return registry.HandlerFunc(func(_ context.Context, _ map[string]any, _ entity.Snapshot) (registry.HandlerResult, error) {
			mu.Lock()
			calls = append(calls, name)
			mu.Unlock()

			return registry.HandlerResult{Status: models.ActionStatusCompleted, Message: name}, nil
		})
	}

	f.registry.Register(models.ActionSendNotification, record("notify"))
	f.registry.Register(models.ActionChangeStatus, record("change_status"))

	saveWorkflow(t, f.persistence, &models.Workflow{
		ID:       "wf-approval-followup",
		Name:     "Approval follow-up",
		Category: models.CategoryCompliance,
		Status:   models.WorkflowStatusActive,
		Trigger: models.Trigger{
			EntityType: models.EntityDocument,
			EventKind:  models.EventStatusChanged,
		},
		Conditions: models.ConditionGroup{
			Logic: models.LogicAnd,
			Conditions: []models.Condition{
				{Field: "status", Operator: models.OperatorEquals, Value: "approved"},
			},
		},
		Actions: []models.Action{
			{ID: "a1", Type: models.ActionSendNotification, Order: 1, Config: map[string]any{
				"title":           "{{entity.title}} approved",
				"message":         "Distribute to staff",
				"recipient_roles": []any{"quality_manager"},
			}},
			{ID: "a2", Type: models.ActionChangeStatus, Order: 2, DelayMinutes: 5, Config: map[string]any{
				"target_status": "published",
			}},
		},
	})

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() {
		_ = bus.Close()
	})

	eng := New(f.persistence, f.runner, bus, slog.Default())

	require.NoError(t, bus.Handle(events.EntityLifecycleEvent, func(ctx context.Context, event any) error {
		entityEvent, ok := event.(*events.EntityEvent)
		require.True(t, ok)

		return eng.Notify(ctx, *entityEvent)
	}))
	require.NoError(t, bus.Subscribe(t.Context()))

	sent := events.EntityEvent{
		BaseEvent: events.BaseEvent{
			ID:        bus.GenerateID(),
			Type:      events.EntityLifecycleEvent,
			Timestamp: time.Now().UTC(),
		},
		EntityType: models.EntityDocument,
		EventKind:  models.EventStatusChanged,
		EntityID:   "doc-42",
		Snapshot: entity.Snapshot{
			"id":     "doc-42",
			"title":  "Hand hygiene SOP",
			"status": "approved",
		},
		Source: "test",
	}
	require.NoError(t, bus.Publish(t.Context(), sent.EntityID, sent))

	logs := f.persistence.ExecutionLogRepository()

	require.Eventually(t, func() bool {
		stored, listErr := logs.List(t.Context(), listAll())

		return listErr == nil && len(stored) == 1 && stored[0].Finalized()
	}, 5*time.Second, 10*time.Millisecond, "run never finished")

	stored, err := logs.List(t.Context(), listAll())
	require.NoError(t, err)
	require.Len(t, stored, 1)

	run := stored[0]
	assert.Equal(t, "wf-approval-followup", run.WorkflowID)
	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.Equal(t, "document status_changed", run.TriggeredBy)
	assert.Equal(t, "doc-42", run.TriggerEntityID)
	require.Len(t, run.ActionResults, 2)
	assert.Equal(t, models.ActionStatusCompleted, run.ActionResults[0].Status)
	assert.Equal(t, models.ActionStatusCompleted, run.ActionResults[1].Status)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"notify", "change_status"}, calls)
}

// A status change that misses the condition must not start a run.
func TestEngine_EndToEnd_ConditionFiltersBusEvent(t *testing.T) {
	t.Parallel()

	f := newRunnerFixture(t)
	f.registry.Register(models.ActionSendNotification, okHandler("sent"))

	saveWorkflow(t, f.persistence, &models.Workflow{
		ID:     "wf-approved-only",
		Name:   "Approved only",
		Status: models.WorkflowStatusActive,
		Trigger: models.Trigger{
			EntityType: models.EntityDocument,
			EventKind:  models.EventStatusChanged,
		},
		Conditions: models.ConditionGroup{
			Logic: models.LogicAnd,
			Conditions: []models.Condition{
				{Field: "status", Operator: models.OperatorEquals, Value: "approved"},
			},
		},
		Actions: []models.Action{
			{ID: "a1", Type: models.ActionSendNotification, Order: 1},
		},
	})

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() {
		_ = bus.Close()
	})

	eng := New(f.persistence, f.runner, bus, slog.Default())

	require.NoError(t, bus.Handle(events.EntityLifecycleEvent, func(ctx context.Context, event any) error {
		entityEvent, ok := event.(*events.EntityEvent)
		require.True(t, ok)

		return eng.Notify(ctx, *entityEvent)
	}))
	require.NoError(t, bus.Subscribe(t.Context()))

	require.NoError(t, bus.Publish(t.Context(), "doc-7", events.EntityEvent{
		BaseEvent: events.BaseEvent{
			ID:        bus.GenerateID(),
			Type:      events.EntityLifecycleEvent,
			Timestamp: time.Now().UTC(),
		},
		EntityType: models.EntityDocument,
		EventKind:  models.EventStatusChanged,
		EntityID:   "doc-7",
		Snapshot:   entity.Snapshot{"id": "doc-7", "status": "rejected"},
	}))

	time.Sleep(200 * time.Millisecond)
	eng.Wait()

	stored, err := f.persistence.ExecutionLogRepository().List(t.Context(), listAll())
	require.NoError(t, err)
	assert.Empty(t, stored)
}
