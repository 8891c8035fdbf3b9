package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/campus-assist/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestCreated      EventType = "request_created"
	EventRequestTransitioned EventType = "request_transitioned"
	EventRequestEscalated    EventType = "request_escalated"
)

// Actor identifies who triggered an event.
type Actor struct {
	ID   string      `json:"id"`
	Name string      `json:"name"`
	Role domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	RequestID string    `json:"request_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// RequestCreatedPayload payload.
type RequestCreatedPayload struct {
	Category    domain.Category `json:"category"`
	Priority    domain.Priority `json:"priority"`
	Location    string          `json:"location"`
	SLADeadline time.Time       `json:"sla_deadline"`
}

// RequestTransitionedPayload payload.
type RequestTransitionedPayload struct {
	OldStatus  domain.RequestStatus `json:"old_status"`
	NewStatus  domain.RequestStatus `json:"new_status"`
	AssignedTo string               `json:"assigned_to,omitempty"`
	Notes      string               `json:"notes,omitempty"`
}

// RequestEscalatedPayload payload.
type RequestEscalatedPayload struct {
	Reason      string          `json:"reason"`
	Priority    domain.Priority `json:"priority"`
	SLADeadline time.Time       `json:"sla_deadline"`
}

// New stamps an event with a fresh id.
func New(eventType EventType, requestID string, actor *domain.User, at time.Time, payload any) Event {
	event := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		RequestID: requestID,
		Timestamp: at,
		Payload:   payload,
	}
	if actor != nil {
		event.Actor = Actor{ID: actor.ID, Name: actor.Name, Role: actor.Role}
	}
	return event
}
