package engine

import (
	"context"
	"log/slog"

	"github.com/accrediq/engine/pkg/conditions"
	"github.com/accrediq/engine/pkg/events"
	"github.com/accrediq/engine/pkg/models"
	"github.com/accrediq/engine/pkg/persistence"
)

// Matcher selects the workflows a lifecycle event should fire.
type Matcher struct {
	workflows persistence.WorkflowRepository
	logger    *slog.Logger
}

func NewMatcher(workflows persistence.WorkflowRepository, logger *slog.Logger) *Matcher {
	return &Matcher{
		workflows: workflows,
		logger:    logger.With("module", "trigger_matcher"),
	}
}

// Match returns the active workflows whose trigger equals the event's
// (entity type, event kind) pair and whose condition group passes against
// the snapshot. The repository returns candidates ordered ascending by ID,
// so for a fixed definition set the result is deterministic.
func (m *Matcher) Match(ctx context.Context, event events.EntityEvent) ([]*models.Workflow, error) {
	candidates, err := m.workflows.ListActiveByTrigger(ctx, models.Trigger{
		EntityType: event.EntityType,
		EventKind:  event.EventKind,
	})
	if err != nil {
		return nil, err
	}

	m.logger.Debug("Matching event against workflows",
		"entity_type", event.EntityType,
		"event_kind", event.EventKind,
		"entity_id", event.EntityID,
		"candidates", len(candidates))

	matched := make([]*models.Workflow, 0, len(candidates))

	for _, workflow := range candidates {
		if !conditions.Evaluate(workflow.Conditions, event.Snapshot) {
			m.logger.Debug("Workflow conditions did not pass",
				"workflow_id", workflow.ID,
				"workflow_name", workflow.Name)

			continue
		}

		matched = append(matched, workflow)
	}

	m.logger.Info("Completed trigger matching",
		"entity_type", event.EntityType,
		"event_kind", event.EventKind,
		"matches", len(matched))

	return matched, nil
}
