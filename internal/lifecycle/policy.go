package lifecycle

import (
	"time"

	"github.com/spec-kit/campus-assist/internal/domain"
)

// Default policy values.
const (
	DefaultEmergencySLA      = time.Hour
	DefaultHighSLA           = 4 * time.Hour
	DefaultNormalSLA         = 24 * time.Hour
	DefaultEmergencyCooldown = 5 * time.Minute
	DefaultNearDeadline      = 30 * time.Minute
)

// Policy holds the tunable constants the engine enforces.
type Policy struct {
	SLA               map[domain.Priority]time.Duration
	EmergencyCooldown time.Duration
	NearDeadline      time.Duration
	// StampAllSubmissions records lastRequestTime on every successful
	// creation instead of on Emergency submissions only.
	StampAllSubmissions bool
}

// DefaultPolicy returns the campus defaults.
func DefaultPolicy() Policy {
	return Policy{
		SLA: map[domain.Priority]time.Duration{
			domain.PriorityEmergency: DefaultEmergencySLA,
			domain.PriorityHigh:      DefaultHighSLA,
			domain.PriorityNormal:    DefaultNormalSLA,
		},
		EmergencyCooldown: DefaultEmergencyCooldown,
		NearDeadline:      DefaultNearDeadline,
	}
}

// SLAFor returns the SLA duration for a priority, falling back to Normal.
func (p Policy) SLAFor(priority domain.Priority) time.Duration {
	if d, ok := p.SLA[priority]; ok && d > 0 {
		return d
	}
	if d, ok := p.SLA[domain.PriorityNormal]; ok && d > 0 {
		return d
	}
	return DefaultNormalSLA
}
