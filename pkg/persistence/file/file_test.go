package file

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accrediq/engine/pkg/models"
	"github.com/accrediq/engine/pkg/persistence"
)

func TestWorkflowRepository_SaveAndGet(t *testing.T) {
	t.Parallel()

	persist := NewPersistence(t.TempDir())
	repo := persist.WorkflowRepository()

	workflow := &models.Workflow{
		ID:       "wf-1",
		Name:     "Test",
		Category: models.CategoryGeneral,
		Status:   models.WorkflowStatusDraft,
		Trigger: models.Trigger{
			EntityType: models.EntityDocument,
			EventKind:  models.EventCreated,
		},
	}

	require.NoError(t, repo.Save(t.Context(), workflow))

	fetched, err := repo.GetByID(t.Context(), "wf-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.Name, fetched.Name)
	assert.Equal(t, workflow.Trigger, fetched.Trigger)

	_, err = repo.GetByID(t.Context(), "wf-missing")
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestWorkflowRepository_ListFilters(t *testing.T) {
	t.Parallel()

	persist := NewPersistence(t.TempDir())
	repo := persist.WorkflowRepository()

	save := func(id string, status models.WorkflowStatus, category models.WorkflowCategory, createdBy string) {
		require.NoError(t, repo.Save(t.Context(), &models.Workflow{
			ID: id, Name: id, Status: status, Category: category, CreatedBy: createdBy,
		}))
	}

	save("wf-1", models.WorkflowStatusActive, models.CategoryQuality, "alice")
	save("wf-2", models.WorkflowStatusDraft, models.CategoryQuality, "bob")
	save("wf-3", models.WorkflowStatusActive, models.CategorySafety, "alice")

	active := models.WorkflowStatusActive
	listed, err := repo.List(t.Context(), persistence.ListWorkflowsOptions{Status: &active})
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	quality := models.CategoryQuality
	listed, err = repo.List(t.Context(), persistence.ListWorkflowsOptions{Category: &quality})
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	listed, err = repo.List(t.Context(), persistence.ListWorkflowsOptions{Status: &active, CreatedBy: "alice"})
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	listed, err = repo.List(t.Context(), persistence.ListWorkflowsOptions{CreatedBy: "carol"})
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestWorkflowRepository_ListActiveByTrigger_OrderedByID(t *testing.T) {
	t.Parallel()

	persist := NewPersistence(t.TempDir())
	repo := persist.WorkflowRepository()

	trigger := models.Trigger{EntityType: models.EntityTask, EventKind: models.EventOverdue}

	for _, id := range []string{"wf-c", "wf-a", "wf-b"} {
		require.NoError(t, repo.Save(t.Context(), &models.Workflow{
			ID: id, Name: id, Status: models.WorkflowStatusActive, Trigger: trigger,
		}))
	}

	require.NoError(t, repo.Save(t.Context(), &models.Workflow{
		ID: "wf-z", Name: "inactive", Status: models.WorkflowStatusDraft, Trigger: trigger,
	}))

	matched, err := repo.ListActiveByTrigger(t.Context(), trigger)
	require.NoError(t, err)

	ids := make([]string, 0, len(matched))
	for _, w := range matched {
		ids = append(ids, w.ID)
	}

	assert.Equal(t, []string{"wf-a", "wf-b", "wf-c"}, ids)
}

func TestWorkflowRepository_RecordExecution(t *testing.T) {
	t.Parallel()

	persist := NewPersistence(t.TempDir())
	repo := persist.WorkflowRepository()

	require.NoError(t, repo.Save(t.Context(), &models.Workflow{ID: "wf-1", Name: "Test"}))

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.RecordExecution(t.Context(), "wf-1", 7, at))

	fetched, err := repo.GetByID(t.Context(), "wf-1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), fetched.ExecutionCount)
	require.NotNil(t, fetched.LastExecutedAt)
	assert.True(t, fetched.LastExecutedAt.Equal(at))
}

// Concurrent runs can write their totals back out of order; a stale total
// must never shrink the persisted counters.
func TestWorkflowRepository_RecordExecution_OutOfOrderWriteBack(t *testing.T) {
	t.Parallel()

	persist := NewPersistence(t.TempDir())
	repo := persist.WorkflowRepository()

	require.NoError(t, repo.Save(t.Context(), &models.Workflow{ID: "wf-1", Name: "Test"}))

	later := time.Now().UTC().Truncate(time.Second)
	earlier := later.Add(-time.Minute)

	// The run that finished second writes back first.
	require.NoError(t, repo.RecordExecution(t.Context(), "wf-1", 2, later))
	require.NoError(t, repo.RecordExecution(t.Context(), "wf-1", 1, earlier))

	fetched, err := repo.GetByID(t.Context(), "wf-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), fetched.ExecutionCount)
	require.NotNil(t, fetched.LastExecutedAt)
	assert.True(t, fetched.LastExecutedAt.Equal(later))
}

func TestExecutionLogRepository_WriteOnceAfterFinalize(t *testing.T) {
	t.Parallel()

	persist := NewPersistence(t.TempDir())
	repo := persist.ExecutionLogRepository()

	log := &models.ExecutionLog{
		ID:         "run-1",
		WorkflowID: "wf-1",
		Status:     models.RunStatusRunning,
		StartedAt:  time.Now().UTC(),
	}

	require.NoError(t, repo.Create(t.Context(), log))

	result := models.ActionResult{
		ActionID:   "a1",
		ActionType: models.ActionSendNotification,
		Status:     models.ActionStatusCompleted,
		StartedAt:  time.Now().UTC(),
	}
	require.NoError(t, repo.AppendResult(t.Context(), "run-1", result))

	now := time.Now().UTC()
	log.Status = models.RunStatusCompleted
	log.CompletedAt = &now
	log.ActionResults = []models.ActionResult{result}
	require.NoError(t, repo.Finalize(t.Context(), log))

	stored, err := repo.GetByID(t.Context(), "run-1")
	require.NoError(t, err)
	assert.True(t, stored.Finalized())

	err = repo.AppendResult(t.Context(), "run-1", result)
	assert.True(t, persistence.IsExecutionLogFinalized(err))

	err = repo.Finalize(t.Context(), log)
	assert.True(t, persistence.IsExecutionLogFinalized(err))
}

func TestExecutionLogRepository_ListFiltersAndPagination(t *testing.T) {
	t.Parallel()

	persist := NewPersistence(t.TempDir())
	repo := persist.ExecutionLogRepository()

	base := time.Now().UTC().Add(-time.Hour)
	failed := models.RunStatusFailed

	for i := range 5 {
		status := models.RunStatusCompleted
		if i%2 == 1 {
			status = failed
		}

		require.NoError(t, repo.Create(t.Context(), &models.ExecutionLog{
			ID:         "run-" + string(rune('a'+i)),
			WorkflowID: "wf-1",
			Status:     status,
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}

	logs, err := repo.List(t.Context(), persistence.ListExecutionsOptions{Status: &failed})
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	since := base.Add(2 * time.Minute)
	logs, err = repo.List(t.Context(), persistence.ListExecutionsOptions{Since: &since})
	require.NoError(t, err)
	assert.Len(t, logs, 3)

	logs, err = repo.List(t.Context(), persistence.ListExecutionsOptions{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, logs, 2)

	// Newest first, offset skips the newest.
	assert.Equal(t, "run-d", logs[0].ID)
	assert.Equal(t, "run-c", logs[1].ID)
}
