package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/sweet-shop/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSweetCreated   EventType = "sweet_created"
	EventSweetUpdated   EventType = "sweet_updated"
	EventSweetDeleted   EventType = "sweet_deleted"
	EventSweetPurchased EventType = "sweet_purchased"
	EventSweetRestocked EventType = "sweet_restocked"
)

// AllEventTypes lists every catalog event.
var AllEventTypes = []EventType{
	EventSweetCreated,
	EventSweetUpdated,
	EventSweetDeleted,
	EventSweetPurchased,
	EventSweetRestocked,
}

// Actor identifies who triggered an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a catalog change emitted by the inventory service.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SweetID   string      `json:"sweet_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// NewEvent stamps a new event.
func NewEvent(eventType EventType, sweetID string, actor *domain.User, payload interface{}) Event {
	event := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SweetID:   sweetID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	if actor != nil {
		event.Actor = Actor{UserID: actor.ID, Role: actor.Role}
	}
	return event
}

// StockChangedPayload accompanies purchase and restock events.
type StockChangedPayload struct {
	Name     string `json:"name"`
	Delta    int    `json:"delta"`
	Quantity int    `json:"quantity"`
}

// SweetChangedPayload accompanies create, update and delete events.
type SweetChangedPayload struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}
