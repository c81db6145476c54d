// Package events defines the event types exchanged between the host
// application and the automation engine.
package events

import (
	"fmt"
	"time"

	"github.com/accrediq/engine/pkg/entity"
	"github.com/accrediq/engine/pkg/models"
)

type EventType string

// Kafka topics.
const EntityTopic = "accrediq.entity.events"   // Lifecycle events emitted by the host domain layer
const RunTopic = "accrediq.run.events"         // Run lifecycle events emitted by the engine
const CommandTopic = "accrediq.action.commands" // Side-effect commands emitted by action handlers

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Entity lifecycle.
	EntityLifecycleEvent EventType = "entity.lifecycle"

	// Workflow run lifecycle.
	RunStartedEvent  EventType = "run.started"
	RunFinishedEvent EventType = "run.finished"
	RunFailedEvent   EventType = "run.failed"

	// Host-executed side-effect commands.
	ActionCommandEvent EventType = "action.command"
)

// Event is anything the bus can carry.
type Event interface {
	GetType() EventType
}

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// EntityEvent is one lifecycle transition of a domain entity, together with
// the entity's field values at that moment.
type EntityEvent struct {
	BaseEvent

	EntityType models.EntityType `json:"entity_type"`
	EventKind  models.EventKind  `json:"event_kind"`
	EntityID   string            `json:"entity_id"`
	Snapshot   entity.Snapshot   `json:"snapshot"`
	Source     string            `json:"source,omitempty"`
}

func (e EntityEvent) GetType() EventType {
	return EntityLifecycleEvent
}

// Description renders the human-readable trigger description stored on
// execution logs.
func (e EntityEvent) Description() string {
	return fmt.Sprintf("%s %s", e.EntityType, e.EventKind)
}

type RunStarted struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	WorkflowID  string `json:"workflow_id"`
	EntityID    string `json:"entity_id"`
}

func (e RunStarted) GetType() EventType {
	return RunStartedEvent
}

type RunFinished struct {
	BaseEvent

	ExecutionID string           `json:"execution_id"`
	WorkflowID  string           `json:"workflow_id"`
	Status      models.RunStatus `json:"status"`
	Duration    time.Duration    `json:"duration"`
}

func (e RunFinished) GetType() EventType {
	return RunFinishedEvent
}

type RunFailed struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	WorkflowID  string `json:"workflow_id"`
	Error       string `json:"error"`
}

func (e RunFailed) GetType() EventType {
	return RunFailedEvent
}

// ActionCommand is the generic envelope built-in action handlers publish for
// the host application to execute (notification delivery, task creation,
// field mutation). Kind mirrors the action type; Payload is the rendered,
// typed config serialized back to a map.
type ActionCommand struct {
	BaseEvent

	Kind     models.ActionType `json:"kind"`
	EntityID string            `json:"entity_id"`
	Payload  map[string]any    `json:"payload"`
}

func (e ActionCommand) GetType() EventType {
	return ActionCommandEvent
}

// TopicFor routes an event to its Kafka topic.
func TopicFor(event Event) string {
	switch event.GetType() {
	case EntityLifecycleEvent:
		return EntityTopic
	case ActionCommandEvent:
		return CommandTopic
	default:
		return RunTopic
	}
}
