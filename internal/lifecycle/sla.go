package lifecycle

import (
	"fmt"
	"time"

	"github.com/spec-kit/campus-assist/internal/domain"
)

// Severity ranks how urgently a request needs attention.
type Severity string

const (
	SeverityBreached     Severity = "breached"
	SeverityNearDeadline Severity = "near_deadline"
	SeverityNominal      Severity = "nominal"
)

// SLAStatus is a derived, read-only view of a request's SLA clock.
type SLAStatus struct {
	Remaining time.Duration
	Breached  bool
	Escalated bool
	Severity  Severity
	Display   string
}

// Project computes the SLA view of req at now.
func (e *Engine) Project(req *domain.HelpRequest, now time.Time) SLAStatus {
	return ProjectSLA(req.SLADeadline, req.Escalated, now, e.policy.NearDeadline)
}

// ProjectSLA is the pure projection used by Engine.Project.
func ProjectSLA(deadline time.Time, escalated bool, now time.Time, nearDeadline time.Duration) SLAStatus {
	remaining := deadline.Sub(now)
	status := SLAStatus{
		Remaining: remaining,
		Breached:  remaining < 0,
		Escalated: escalated,
		Display:   formatCountdown(remaining),
	}
	switch {
	case status.Breached || escalated:
		status.Severity = SeverityBreached
	case remaining < nearDeadline:
		status.Severity = SeverityNearDeadline
	default:
		status.Severity = SeverityNominal
	}
	return status
}

// formatCountdown renders d as [-]H:MM:SS.
func formatCountdown(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	total := int64(d / time.Second)
	hours := total / 3600
	mins := (total % 3600) / 60
	secs := total % 60
	return fmt.Sprintf("%s%d:%02d:%02d", sign, hours, mins, secs)
}
