package engine

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accrediq/engine/pkg/entity"
	"github.com/accrediq/engine/pkg/events"
	"github.com/accrediq/engine/pkg/models"
	"github.com/accrediq/engine/pkg/persistence/file"
)

func saveWorkflow(t *testing.T, persist *file.Persistence, workflow *models.Workflow) {
	t.Helper()
	require.NoError(t, persist.WorkflowRepository().Save(t.Context(), workflow))
}

func TestMatcher_Match(t *testing.T) {
	t.Parallel()

	persist := file.NewPersistence(t.TempDir())
	matcher := NewMatcher(persist.WorkflowRepository(), slog.Default())

	trigger := models.Trigger{
		EntityType: models.EntityIncident,
		EventKind:  models.EventCreated,
	}

	saveWorkflow(t, persist, &models.Workflow{
		ID: "wf-b", Name: "High severity only", Status: models.WorkflowStatusActive,
		Trigger: trigger,
		Conditions: models.ConditionGroup{
			Logic: models.LogicAnd,
			Conditions: []models.Condition{
				{Field: "severity", Operator: models.OperatorEquals, Value: "high"},
			},
		},
	})
	saveWorkflow(t, persist, &models.Workflow{
		ID: "wf-a", Name: "All incidents", Status: models.WorkflowStatusActive,
		Trigger: trigger,
	})
	saveWorkflow(t, persist, &models.Workflow{
		ID: "wf-c", Name: "Paused", Status: models.WorkflowStatusPaused,
		Trigger: trigger,
	})
	saveWorkflow(t, persist, &models.Workflow{
		ID: "wf-d", Name: "Different kind", Status: models.WorkflowStatusActive,
		Trigger: models.Trigger{EntityType: models.EntityIncident, EventKind: models.EventStatusChanged},
	})

	t.Run("conditions pass", func(t *testing.T) {
		matched, err := matcher.Match(t.Context(), events.EntityEvent{
			EntityType: models.EntityIncident,
			EventKind:  models.EventCreated,
			EntityID:   "inc-1",
			Snapshot:   entity.Snapshot{"severity": "high"},
		})
		require.NoError(t, err)

		require.Len(t, matched, 2)
		assert.Equal(t, "wf-a", matched[0].ID)
		assert.Equal(t, "wf-b", matched[1].ID)
	})

	t.Run("conditions filter", func(t *testing.T) {
		matched, err := matcher.Match(t.Context(), events.EntityEvent{
			EntityType: models.EntityIncident,
			EventKind:  models.EventCreated,
			EntityID:   "inc-2",
			Snapshot:   entity.Snapshot{"severity": "low"},
		})
		require.NoError(t, err)

		require.Len(t, matched, 1)
		assert.Equal(t, "wf-a", matched[0].ID)
	})

	t.Run("no trigger match", func(t *testing.T) {
		matched, err := matcher.Match(t.Context(), events.EntityEvent{
			EntityType: models.EntityAudit,
			EventKind:  models.EventCreated,
			EntityID:   "aud-1",
			Snapshot:   entity.Snapshot{},
		})
		require.NoError(t, err)
		assert.Empty(t, matched)
	})
}
