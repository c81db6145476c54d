// Package eventbus provides publish/subscribe messaging between the host
// application and the engine.
package eventbus

import (
	"context"

	"github.com/accrediq/engine/pkg/events"
)

type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	GenerateID() string
	Publish(ctx context.Context, key string, event events.Event) error
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
	Close() error
}
