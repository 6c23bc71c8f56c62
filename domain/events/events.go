// Package events defines the mutation signals the platform emits after
// writes that affect externally cached or statically rendered content.
package events

import (
	"time"

	"lumina-backend/domain/entities"
)

// SourceName identifies this service as the event source on the bus.
const SourceName = "lumina.backend"

// ChangeAction describes what happened to the entity.
type ChangeAction string

const (
	ActionCreated ChangeAction = "created"
	ActionUpdated ChangeAction = "updated"
	ActionDeleted ChangeAction = "deleted"
)

// EntityChanged is the signal consumed by the revalidation notifier. The
// core does not know or care how revalidation is performed.
type EntityChanged struct {
	EntityType entities.EntityType `json:"entity_type"`
	EntityID   string              `json:"entity_id"`
	Action     ChangeAction        `json:"action"`
	Timestamp  time.Time           `json:"timestamp"`
}

// EventType returns the bus detail-type for the event.
func (e EntityChanged) EventType() string {
	return "entity." + string(e.Action)
}

// NewEntityChanged creates an EntityChanged signal stamped with the current time.
func NewEntityChanged(entityType entities.EntityType, entityID string, action ChangeAction) EntityChanged {
	return EntityChanged{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Timestamp:  time.Now(),
	}
}
