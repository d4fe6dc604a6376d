package kafka

import (
	"time"

	"github.com/google/uuid"
)

// EntityEvent describes a change to a single entity.
type EntityEvent struct {
	EventID   string      `json:"event_id"`
	EventType string      `json:"event_type"`
	Entity    string      `json:"entity"`
	EntityID  string      `json:"entity_id"`
	Source    string      `json:"source"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// NewEntityEvent stamps a fresh event id and timestamp.
func NewEntityEvent(eventType, entity, entityID string, data interface{}) *EntityEvent {
	return &EntityEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Entity:    entity,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// Headers returns the record headers for the event.
func (e *EntityEvent) Headers() map[string]string {
	return map[string]string{
		"source":     e.Source,
		"event_type": e.EventType,
	}
}
