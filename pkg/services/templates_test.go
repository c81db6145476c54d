package services

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accrediq/engine/pkg/models"
)

func newTemplateService(t *testing.T) (*TemplateService, *WorkflowService) {
	t.Helper()

	workflows, _ := newWorkflowService(t)

	return NewTemplateService(workflows, slog.Default()), workflows
}

func TestTemplateService_List(t *testing.T) {
	t.Parallel()

	service, _ := newTemplateService(t)

	templates := service.List()
	require.NotEmpty(t, templates)

	for _, template := range templates {
		assert.True(t, template.IsTemplate)
		assert.NotEmpty(t, template.ID)
		assert.NotEmpty(t, template.Name)
		assert.True(t, template.Trigger.EntityType.Valid())
		assert.True(t, template.Trigger.EventKind.Valid())
	}
}

// Every shipped template must pass the same validation as a hand-written
// definition, otherwise instantiation is broken out of the box.
func TestTemplateService_AllTemplatesInstantiate(t *testing.T) {
	t.Parallel()

	service, _ := newTemplateService(t)

	for _, template := range service.List() {
		t.Run(template.ID, func(t *testing.T) {
			created, err := service.Instantiate(t.Context(), template.ID, "qa-lead")
			require.NoError(t, err)

			assert.NotEqual(t, template.ID, created.ID)
			assert.False(t, created.IsTemplate)
			assert.Equal(t, models.WorkflowStatusDraft, created.Status)
			assert.Zero(t, created.ExecutionCount)
			assert.Equal(t, "qa-lead", created.CreatedBy)
			assert.Equal(t, template.Name, created.Name)
			assert.Len(t, created.Actions, len(template.Actions))

			for _, action := range created.Actions {
				assert.NotEmpty(t, action.ID)
			}
		})
	}
}

func TestTemplateService_Instantiate_Unknown(t *testing.T) {
	t.Parallel()

	service, _ := newTemplateService(t)

	_, err := service.Instantiate(t.Context(), "tpl-nope", "someone")
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestTemplateService_InstantiateTwiceGivesIndependentCopies(t *testing.T) {
	t.Parallel()

	service, workflows := newTemplateService(t)

	first, err := service.Instantiate(t.Context(), "tpl-incident-capa", "a")
	require.NoError(t, err)

	second, err := service.Instantiate(t.Context(), "tpl-incident-capa", "b")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)

	_, err = workflows.Get(t.Context(), first.ID)
	assert.NoError(t, err)
}
