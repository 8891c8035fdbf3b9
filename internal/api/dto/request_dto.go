package dto

import (
	"time"

	"github.com/spec-kit/campus-assist/internal/domain"
	"github.com/spec-kit/campus-assist/internal/lifecycle"
)

// CreateHelpRequestRequest payload.
type CreateHelpRequestRequest struct {
	Category    string `json:"category" validate:"required,oneof=Medical Safety Assistance Facilities"`
	Priority    string `json:"priority" validate:"omitempty,oneof=Emergency High Normal"`
	Location    string `json:"location" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// TransitionRequest payload.
type TransitionRequest struct {
	Status string `json:"status" validate:"required,request_status"`
	Notes  string `json:"notes" validate:"max=2000"`
}

// EscalateRequest payload.
type EscalateRequest struct {
	Notes string `json:"notes" validate:"max=2000"`
}

// SLAView is the derived SLA clock for a request.
type SLAView struct {
	RemainingMs int64              `json:"remainingMs"`
	Breached    bool               `json:"breached"`
	Escalated   bool               `json:"escalated"`
	Severity    lifecycle.Severity `json:"severity"`
	Display     string             `json:"display"`
}

// HelpRequestResponse is a stored request plus its projection at response time.
type HelpRequestResponse struct {
	*domain.HelpRequest
	SLA SLAView `json:"sla"`
}

// DashboardResponse is the staff overview.
type DashboardResponse struct {
	GeneratedAt            time.Time             `json:"generatedAt"`
	Total                  int                   `json:"total"`
	ActiveBreaches         int                   `json:"activeBreaches"`
	AverageResponseMinutes int                   `json:"averageResponseMinutes"`
	AcknowledgeRate        int                   `json:"acknowledgeRate"`
	EmergencyQueue         []HelpRequestResponse `json:"emergencyQueue"`
	WorkQueue              []HelpRequestResponse `json:"workQueue"`
}

// NewSLAView converts a projection for the wire.
func NewSLAView(status lifecycle.SLAStatus) SLAView {
	return SLAView{
		RemainingMs: status.Remaining.Milliseconds(),
		Breached:    status.Breached,
		Escalated:   status.Escalated,
		Severity:    status.Severity,
		Display:     status.Display,
	}
}
