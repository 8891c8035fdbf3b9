package domain

import "time"

// RequestStatus enumerates lifecycle states for help requests.
type RequestStatus string

const (
	StatusCreated      RequestStatus = "Created"
	StatusAcknowledged RequestStatus = "Acknowledged"
	StatusInProgress   RequestStatus = "In Progress"
	StatusResolved     RequestStatus = "Resolved"
	StatusClosed       RequestStatus = "Closed"
)

// Valid reports whether s is a known lifecycle state.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusCreated, StatusAcknowledged, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// Active reports whether the request still counts against its SLA.
func (s RequestStatus) Active() bool {
	return s != StatusResolved && s != StatusClosed
}

// Priority drives the SLA duration.
type Priority string

const (
	PriorityEmergency Priority = "Emergency"
	PriorityHigh      Priority = "High"
	PriorityNormal    Priority = "Normal"
)

func (p Priority) Valid() bool {
	return p == PriorityEmergency || p == PriorityHigh || p == PriorityNormal
}

// Category classifies the kind of help needed.
type Category string

const (
	CategoryMedical    Category = "Medical"
	CategorySafety     Category = "Safety"
	CategoryAssistance Category = "Assistance"
	CategoryFacilities Category = "Facilities"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryMedical, CategorySafety, CategoryAssistance, CategoryFacilities:
		return true
	}
	return false
}

// HelpRequest is the aggregate tracked through the lifecycle.
type HelpRequest struct {
	ID          string   `json:"id"`
	StudentID   string   `json:"studentId"`
	StudentName string   `json:"studentName"`
	Category    Category `json:"category"`
	Priority    Priority `json:"priority"`
	Description string   `json:"description"`
	Location    string   `json:"location"`

	Status     RequestStatus `json:"status"`
	AssignedTo string        `json:"assignedTo,omitempty"`
	Escalated  bool          `json:"escalated"`

	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	SLADeadline time.Time `json:"slaDeadline"`

	History         []AuditLogEntry `json:"history"`
	ResolutionNotes string          `json:"resolutionNotes,omitempty"`
}

// Clone returns a copy that shares no mutable state with r.
func (r *HelpRequest) Clone() *HelpRequest {
	if r == nil {
		return nil
	}
	cp := *r
	cp.History = append([]AuditLogEntry(nil), r.History...)
	return &cp
}

// Record prepends an audit entry, keeping history newest-first.
func (r *HelpRequest) Record(entry AuditLogEntry) {
	r.History = append([]AuditLogEntry{entry}, r.History...)
}
