package lifecycle

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/spec-kit/campus-assist/internal/domain"
	apperrors "github.com/spec-kit/campus-assist/pkg/util/errorutil"
)

// MonitorActor is recorded on audit entries written by the SLA monitor.
var MonitorActor = domain.User{ID: "system-sla-monitor", Name: "SLA Monitor", Role: domain.RoleSystem}

const initialSubmissionNote = "Initial submission"

// CreateInput carries the student-supplied fields of a new request.
type CreateInput struct {
	Category    domain.Category
	Priority    domain.Priority
	Location    string
	Description string
}

// Engine holds the lifecycle rules. It never touches storage: callers pass
// entities in and persist what comes out.
type Engine struct {
	policy Policy
	clock  clockwork.Clock
	newID  func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator overrides request id generation.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// NewEngine constructs the engine.
func NewEngine(policy Policy, clk clockwork.Clock, opts ...Option) *Engine {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	e := &Engine{policy: policy, clock: clk, newID: generateRequestID}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewRequestID draws a fresh request id from the configured generator.
func (e *Engine) NewRequestID() string {
	return e.newID()
}

// Policy exposes the active policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Create validates a submission and builds a new request. On success the
// requester's rate-limit stamp is updated; on failure nothing is touched.
func (e *Engine) Create(requester *domain.User, input CreateInput) (*domain.HelpRequest, error) {
	if err := Authorize(OpCreate, requester, nil, ""); err != nil {
		return nil, err
	}

	location := strings.TrimSpace(input.Location)
	if location == "" {
		return nil, apperrors.NewValidationError("location is required", map[string]any{"field": "location"})
	}
	if input.Category == "" {
		return nil, apperrors.NewValidationError("category is required", map[string]any{"field": "category"})
	}
	if !input.Category.Valid() {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"field": "category", "value": input.Category})
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.PriorityNormal
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"field": "priority", "value": input.Priority})
	}

	now := e.now()
	if priority == domain.PriorityEmergency && requester.LastRequestTime != nil {
		elapsed := now.Sub(*requester.LastRequestTime)
		if elapsed < e.policy.EmergencyCooldown {
			return nil, apperrors.NewRateLimited(
				"emergency cooldown active; contact dispatch by phone if this is critical",
				e.policy.EmergencyCooldown-elapsed,
			)
		}
	}

	req := &domain.HelpRequest{
		ID:          e.newID(),
		StudentID:   requester.ID,
		StudentName: requester.Name,
		Category:    input.Category,
		Priority:    priority,
		Description: strings.TrimSpace(input.Description),
		Location:    location,
		Status:      domain.StatusCreated,
		CreatedAt:   now,
		UpdatedAt:   now,
		SLADeadline: now.Add(e.policy.SLAFor(priority)),
		History: []domain.AuditLogEntry{{
			Timestamp: now,
			ActorName: requester.Name,
			ActorRole: requester.Role,
			Action:    domain.ActionCreated,
			Notes:     initialSubmissionNote,
		}},
	}

	if priority == domain.PriorityEmergency || e.policy.StampAllSubmissions {
		stamp := now
		requester.LastRequestTime = &stamp
	}
	return req, nil
}

// Transition moves req to newStatus on behalf of actor. Every check runs
// before the first write, so a rejected call leaves req exactly as it was.
// Adjacency of states is the caller's concern.
func (e *Engine) Transition(req *domain.HelpRequest, actor *domain.User, newStatus domain.RequestStatus, notes string) error {
	if err := Authorize(OpTransition, actor, req, newStatus); err != nil {
		return err
	}
	if req == nil {
		return apperrors.NewNotFound("request", nil)
	}
	if !newStatus.Valid() {
		return apperrors.NewValidationError("unknown status", map[string]any{"field": "status", "value": newStatus})
	}
	notes = strings.TrimSpace(notes)
	if (newStatus == domain.StatusResolved || newStatus == domain.StatusClosed) && notes == "" {
		return apperrors.NewComplianceError("resolution notes are mandatory for this transition", map[string]any{
			"request_id": req.ID,
			"status":     newStatus,
		})
	}

	now := e.now()
	req.Record(domain.AuditLogEntry{
		Timestamp: now,
		ActorName: actor.Name,
		ActorRole: actor.Role,
		Action:    domain.TransitionAction(req.Status, newStatus),
		Notes:     notes,
	})
	req.Status = newStatus
	req.UpdatedAt = now
	if newStatus == domain.StatusAcknowledged && req.AssignedTo == "" {
		req.AssignedTo = actor.Name
	}
	if newStatus == domain.StatusResolved {
		req.ResolutionNotes = notes
	}
	return nil
}

// Escalate flags req on explicit supervisor action.
func (e *Engine) Escalate(req *domain.HelpRequest, actor *domain.User, notes string) error {
	if err := Authorize(OpEscalate, actor, req, ""); err != nil {
		return err
	}
	if req == nil {
		return apperrors.NewNotFound("request", nil)
	}
	if req.Escalated {
		return apperrors.NewConflict("request already escalated", map[string]any{"request_id": req.ID})
	}
	if req.Status == domain.StatusClosed {
		return apperrors.NewConflict("closed requests cannot be escalated", map[string]any{"request_id": req.ID})
	}
	e.flag(req, actor, domain.ActionEscalatedManual, strings.TrimSpace(notes), e.now())
	return nil
}

// Breached reports whether the monitor should escalate req at now.
func (e *Engine) Breached(req *domain.HelpRequest, now time.Time) bool {
	return req != nil && req.Status.Active() && !req.Escalated && now.After(req.SLADeadline)
}

// EscalateBreached flags req if it has breached its SLA at now and reports
// whether it did. Status is never touched.
func (e *Engine) EscalateBreached(req *domain.HelpRequest, now time.Time) bool {
	if !e.Breached(req, now) {
		return false
	}
	actor := MonitorActor
	e.flag(req, &actor, domain.ActionEscalatedSLA, "", now)
	return true
}

func (e *Engine) flag(req *domain.HelpRequest, actor *domain.User, action, notes string, now time.Time) {
	req.Record(domain.AuditLogEntry{
		Timestamp: now,
		ActorName: actor.Name,
		ActorRole: actor.Role,
		Action:    action,
		Notes:     notes,
	})
	req.Escalated = true
}

// now reads the clock in UTC.
func (e *Engine) now() time.Time {
	return e.clock.Now().UTC()
}

func generateRequestID() string {
	return "REQ-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
