package registry

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accrediq/engine/pkg/entity"
	"github.com/accrediq/engine/pkg/models"
)

func noopHandler() Handler {
	return HandlerFunc(func(_ context.Context, _ map[string]any, _ entity.Snapshot) (HandlerResult, error) {
		return HandlerResult{Status: models.ActionStatusCompleted}, nil
	})
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(slog.Default())

	_, err := reg.Handler(models.ActionSendNotification)
	require.Error(t, err)

	reg.Register(models.ActionSendNotification, noopHandler())

	handler, err := reg.Handler(models.ActionSendNotification)
	require.NoError(t, err)
	assert.NotNil(t, handler)

	assert.Contains(t, reg.Registered(), models.ActionSendNotification)
}

func TestRegistry_HealthCheck(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(slog.Default())

	message, ok := reg.HealthCheck()
	assert.False(t, ok)
	assert.Contains(t, message, "missing handler")

	for _, actionType := range models.ActionTypes() {
		reg.Register(actionType, noopHandler())
	}

	_, ok = reg.HealthCheck()
	assert.True(t, ok)
}

func TestRegistry_ValidateConfig(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(slog.Default())

	tests := []struct {
		name       string
		actionType models.ActionType
		config     map[string]any
		wantErr    bool
	}{
		{
			name:       "valid send_notification",
			actionType: models.ActionSendNotification,
			config: map[string]any{
				"title":           "Overdue",
				"message":         "{{entity.title}} is overdue",
				"recipient_roles": []any{"quality_manager"},
				"priority":        "high",
			},
		},
		{
			name:       "missing required field",
			actionType: models.ActionSendNotification,
			config: map[string]any{
				"title": "Overdue",
			},
			wantErr: true,
		},
		{
			name:       "unknown key rejected",
			actionType: models.ActionChangeStatus,
			config: map[string]any{
				"target_status": "approved",
				"reason":        "typo",
			},
			wantErr: true,
		},
		{
			name:       "invalid priority enum",
			actionType: models.ActionCreateTask,
			config: map[string]any{
				"title":           "Review",
				"assign_to_roles": []any{"auditor"},
				"priority":        "asap",
			},
			wantErr: true,
		},
		{
			name:       "assign_user accepts roles only",
			actionType: models.ActionAssignUser,
			config: map[string]any{
				"roles": []any{"document_owner"},
			},
		},
		{
			name:       "assign_user needs users or roles",
			actionType: models.ActionAssignUser,
			config:     map[string]any{},
			wantErr:    true,
		},
		{
			name:       "empty config fails required checks",
			actionType: models.ActionAIGenerate,
			config:     nil,
			wantErr:    true,
		},
		{
			name:       "unknown action type",
			actionType: "teleport",
			config:     map[string]any{},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := reg.ValidateConfig(tt.actionType, tt.config)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
