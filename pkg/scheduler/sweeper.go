// Package scheduler periodically sweeps for overdue entities and publishes
// the overdue lifecycle events the host would otherwise miss, since
// "overdue" is a property of the clock, not of any user action.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/accrediq/engine/pkg/eventbus"
	"github.com/accrediq/engine/pkg/events"
)

// OverdueSource yields entities whose due date has passed without the
// corresponding lifecycle event having been emitted yet. Implementations are
// expected to mark returned entities so they are not yielded twice.
type OverdueSource interface {
	CollectOverdue(ctx context.Context, now time.Time) ([]events.EntityEvent, error)
}

// Sweeper runs the overdue scan on a cron schedule and publishes each hit
// as an ordinary entity lifecycle event, so overdue-triggered workflows go
// through exactly the same matching path as everything else.
type Sweeper struct {
	source   OverdueSource
	bus      eventbus.EventBus
	cron     *cron.Cron
	schedule string
	logger   *slog.Logger
}

const DefaultSchedule = "*/15 * * * *"

func NewSweeper(source OverdueSource, bus eventbus.EventBus, schedule string, logger *slog.Logger) *Sweeper {
	if schedule == "" {
		schedule = DefaultSchedule
	}

	return &Sweeper{
		source:   source,
		bus:      bus,
		cron:     cron.New(),
		schedule: schedule,
		logger:   logger.With("module", "sweeper"),
	}
}

func (s *Sweeper) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		s.Sweep(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("Overdue sweeper started", "schedule", s.schedule)

	return nil
}

// Stop halts the schedule and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Overdue sweeper stopped")
}

// Sweep performs one scan. Exposed so operators can trigger it on demand.
func (s *Sweeper) Sweep(ctx context.Context) {
	now := time.Now().UTC()

	overdue, err := s.source.CollectOverdue(ctx, now)
	if err != nil {
		s.logger.Error("Overdue scan failed", "error", err)

		return
	}

	published := 0

	for _, event := range overdue {
		if event.ID == "" {
			event.ID = s.bus.GenerateID()
		}

		event.Type = events.EntityLifecycleEvent

		if event.Timestamp.IsZero() {
			event.Timestamp = now
		}

		if event.Source == "" {
			event.Source = "sweeper"
		}

		if err := s.bus.Publish(ctx, event.EntityID, event); err != nil {
			s.logger.Error("Failed to publish overdue event",
				"entity_type", event.EntityType,
				"entity_id", event.EntityID,
				"error", err)

			continue
		}

		published++
	}

	if published > 0 || len(overdue) > 0 {
		s.logger.Info("Overdue sweep finished", "found", len(overdue), "published", published)
	}
}
