// Package actions provides the built-in reference handlers for every action
// type. Each handler validates its typed config and forwards a command for
// the host application to execute; hosts replace individual handlers through
// the registry when they want direct integration instead.
package actions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/accrediq/engine/pkg/entity"
	"github.com/accrediq/engine/pkg/eventbus"
	"github.com/accrediq/engine/pkg/events"
	"github.com/accrediq/engine/pkg/models"
)

// Dispatcher hands a side-effect command to the host application.
type Dispatcher interface {
	Dispatch(ctx context.Context, kind models.ActionType, snapshot entity.Snapshot, payload map[string]any) error
}

// BusDispatcher publishes commands on the event bus. The host's domain layer
// consumes the command topic and performs the actual delivery or mutation.
type BusDispatcher struct {
	bus eventbus.EventBus
}

func NewBusDispatcher(bus eventbus.EventBus) *BusDispatcher {
	return &BusDispatcher{bus: bus}
}

func (d *BusDispatcher) Dispatch(ctx context.Context, kind models.ActionType, snapshot entity.Snapshot, payload map[string]any) error {
	entityID, _ := snapshot.GetString("id")

	command := events.ActionCommand{
		BaseEvent: events.BaseEvent{
			ID:        d.bus.GenerateID(),
			Type:      events.ActionCommandEvent,
			Timestamp: time.Now().UTC(),
		},
		Kind:     kind,
		EntityID: entityID,
		Payload:  payload,
	}

	return d.bus.Publish(ctx, entityID, command)
}

// payloadFor serializes a typed config back to the map form commands carry.
func payloadFor(config any) (map[string]any, error) {
	raw, err := json.Marshal(config)
	if err != nil {
		return nil, err
	}

	payload := make(map[string]any)
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}

	return payload, nil
}
