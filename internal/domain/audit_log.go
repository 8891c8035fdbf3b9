package domain

import (
	"strings"
	"time"
)

// Audit actions written by the lifecycle engine.
const (
	ActionCreated          = "CREATED"
	ActionTransitionPrefix = "TRANSITION: "
	ActionEscalatedSLA     = "ESCALATED: SLA breached"
	ActionEscalatedManual  = "ESCALATED: manual"
)

// AuditLogEntry is an immutable record of one lifecycle action.
type AuditLogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	ActorName string    `json:"actorName"`
	ActorRole Role      `json:"actorRole"`
	Action    string    `json:"action"`
	Notes     string    `json:"notes,omitempty"`
}

// TransitionAction renders the action text for a status change.
func TransitionAction(from, to RequestStatus) string {
	return ActionTransitionPrefix + string(from) + " -> " + string(to)
}

// IsTransitionTo reports whether the entry records a move into status.
func (e AuditLogEntry) IsTransitionTo(status RequestStatus) bool {
	return strings.HasPrefix(e.Action, ActionTransitionPrefix) &&
		strings.HasSuffix(e.Action, "-> "+string(status))
}
