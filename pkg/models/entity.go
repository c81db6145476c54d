package models

// EntityType identifies a kind of domain record tracked by the accreditation
// platform. The engine never loads entities itself; it only sees snapshots.
type EntityType string

const (
	EntityDocument      EntityType = "document"
	EntityProject       EntityType = "project"
	EntityChecklistItem EntityType = "checklist_item"
	EntityCAPA          EntityType = "capa"
	EntityPDCACycle     EntityType = "pdca_cycle"
	EntityIncident      EntityType = "incident"
	EntityRisk          EntityType = "risk"
	EntityAudit         EntityType = "audit"
	EntityTraining      EntityType = "training"
	EntityTask          EntityType = "task"
)

// EntityTypes lists every entity type a workflow trigger may reference.
func EntityTypes() []EntityType {
	return []EntityType{
		EntityDocument,
		EntityProject,
		EntityChecklistItem,
		EntityCAPA,
		EntityPDCACycle,
		EntityIncident,
		EntityRisk,
		EntityAudit,
		EntityTraining,
		EntityTask,
	}
}

func (t EntityType) Valid() bool {
	for _, known := range EntityTypes() {
		if t == known {
			return true
		}
	}

	return false
}

// EventKind is the lifecycle transition an entity went through.
type EventKind string

const (
	EventCreated       EventKind = "created"
	EventUpdated       EventKind = "updated"
	EventStatusChanged EventKind = "status_changed"
	EventOverdue       EventKind = "overdue"
	EventAssigned      EventKind = "assigned"
	EventCompleted     EventKind = "completed"
	EventApproved      EventKind = "approved"
	EventRejected      EventKind = "rejected"
	EventEscalated     EventKind = "escalated"
	EventStageChanged  EventKind = "stage_changed"
)

func EventKinds() []EventKind {
	return []EventKind{
		EventCreated,
		EventUpdated,
		EventStatusChanged,
		EventOverdue,
		EventAssigned,
		EventCompleted,
		EventApproved,
		EventRejected,
		EventEscalated,
		EventStageChanged,
	}
}

func (k EventKind) Valid() bool {
	for _, known := range EventKinds() {
		if k == known {
			return true
		}
	}

	return false
}
