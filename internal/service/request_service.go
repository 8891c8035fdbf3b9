package service

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/moby/locker"
	"go.uber.org/zap"

	"github.com/spec-kit/campus-assist/internal/domain"
	"github.com/spec-kit/campus-assist/internal/events"
	"github.com/spec-kit/campus-assist/internal/lifecycle"
	"github.com/spec-kit/campus-assist/internal/observability"
	"github.com/spec-kit/campus-assist/internal/repository"
	apperrors "github.com/spec-kit/campus-assist/pkg/util/errorutil"
)

const (
	escalationSourceMonitor = "sla_monitor"
	escalationSourceManual  = "manual"

	maxInsertAttempts = 3
)

// allowedTransitions is the forward-only path a request follows. Closed has
// no exits.
var allowedTransitions = map[domain.RequestStatus][]domain.RequestStatus{
	domain.StatusCreated:      {domain.StatusAcknowledged},
	domain.StatusAcknowledged: {domain.StatusInProgress},
	domain.StatusInProgress:   {domain.StatusResolved},
	domain.StatusResolved:     {domain.StatusClosed},
	domain.StatusClosed:       {},
}

func isValidTransition(from, to domain.RequestStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// errNoLongerBreached aborts a monitor update whose request changed between
// the scan and the locked re-check.
var errNoLongerBreached = errors.New("request no longer eligible for escalation")

// RequestService coordinates help request workflows.
type RequestService struct {
	engine     *lifecycle.Engine
	requests   repository.HelpRequestRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	clock      clockwork.Clock
	userLocks  *locker.Locker
}

// RequestDependencies bundles collaborators for the request service.
type RequestDependencies struct {
	Engine      *lifecycle.Engine
	RequestRepo repository.HelpRequestRepository
	UserRepo    repository.UserRepository
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	Clock       clockwork.Clock
}

// NewRequestService constructs the service.
func NewRequestService(deps RequestDependencies) *RequestService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clk := deps.Clock
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &RequestService{
		engine:     deps.Engine,
		requests:   deps.RequestRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		clock:      clk,
		userLocks:  locker.New(),
	}
}

// CreateRequest submits a new help request on behalf of actor. The user
// directory holds the authoritative rate-limit stamp; actor is refreshed
// from it and receives the new stamp on success.
func (s *RequestService) CreateRequest(ctx context.Context, actor *domain.User, input lifecycle.CreateInput) (*domain.HelpRequest, error) {
	if actor == nil {
		return nil, s.reject("create", "", apperrors.NewUnauthorized("authenticated actor required"))
	}

	s.userLocks.Lock(actor.ID)
	defer func() { _ = s.userLocks.Unlock(actor.ID) }()

	requester, err := s.users.Get(ctx, actor.ID)
	if err != nil {
		if !apperrors.HasCode(err, apperrors.CodeNotFound) {
			return nil, err
		}
		requester = &domain.User{ID: actor.ID, Email: actor.Email, Name: actor.Name, Role: actor.Role, LastRequestTime: actor.LastRequestTime}
	}
	previousStamp := requester.LastRequestTime

	req, err := s.engine.Create(requester, input)
	if err != nil {
		return nil, s.reject("create", "", err)
	}
	if err := s.insert(ctx, req); err != nil {
		return nil, s.reject("create", req.ID, err)
	}

	if requester.LastRequestTime != previousStamp {
		if err := s.users.Save(ctx, requester); err != nil {
			s.logger.Error("persist rate-limit stamp failed",
				zap.String("user_id", requester.ID),
				zap.String("request_id", req.ID),
				zap.Error(err))
		}
		actor.LastRequestTime = requester.LastRequestTime
	}

	s.metrics.RequestCreated(string(req.Priority))
	s.logger.Info("help request created",
		zap.String("request_id", req.ID),
		zap.String("priority", string(req.Priority)),
		zap.String("category", string(req.Category)),
		zap.Time("sla_deadline", req.SLADeadline))
	s.publishEvent(ctx, events.New(events.EventRequestCreated, req.ID, requester, req.CreatedAt, events.RequestCreatedPayload{
		Category:    req.Category,
		Priority:    req.Priority,
		Location:    req.Location,
		SLADeadline: req.SLADeadline,
	}))
	return req, nil
}

// insert stores req, drawing a new id when the generated one is taken.
func (s *RequestService) insert(ctx context.Context, req *domain.HelpRequest) error {
	for attempt := 1; ; attempt++ {
		err := s.requests.Insert(ctx, req)
		if !apperrors.HasCode(err, apperrors.CodeConflict) || attempt == maxInsertAttempts {
			return err
		}
		s.logger.Warn("request id collision",
			zap.String("request_id", req.ID),
			zap.Int("attempt", attempt))
		req.ID = s.engine.NewRequestID()
	}
}

// TransitionRequest applies a status change atomically. Requests move one
// step at a time along allowedTransitions; the check runs against the stored
// status inside the same update.
func (s *RequestService) TransitionRequest(ctx context.Context, id string, actor *domain.User, newStatus domain.RequestStatus, notes string) (*domain.HelpRequest, error) {
	if actor == nil {
		return nil, s.reject("transition", id, apperrors.NewUnauthorized("authenticated actor required"))
	}

	var oldStatus domain.RequestStatus
	updated, err := s.requests.Update(ctx, id, func(req *domain.HelpRequest) error {
		oldStatus = req.Status
		if newStatus.Valid() && !isValidTransition(req.Status, newStatus) {
			return apperrors.NewConflict("transition not allowed from current status", map[string]any{
				"request_id": req.ID,
				"from":       req.Status,
				"to":         newStatus,
				"allowed":    allowedTransitions[req.Status],
			})
		}
		return s.engine.Transition(req, actor, newStatus, notes)
	})
	if err != nil {
		return nil, s.reject("transition", id, err)
	}

	s.metrics.Transitioned(string(newStatus))
	s.logger.Info("help request transitioned",
		zap.String("request_id", updated.ID),
		zap.String("from", string(oldStatus)),
		zap.String("to", string(newStatus)),
		zap.String("actor", actor.Name))
	s.publishEvent(ctx, events.New(events.EventRequestTransitioned, updated.ID, actor, updated.UpdatedAt, events.RequestTransitionedPayload{
		OldStatus:  oldStatus,
		NewStatus:  newStatus,
		AssignedTo: updated.AssignedTo,
		Notes:      updated.History[0].Notes,
	}))
	return updated, nil
}

// EscalateRequest flags a request on explicit supervisor action.
func (s *RequestService) EscalateRequest(ctx context.Context, id string, actor *domain.User, notes string) (*domain.HelpRequest, error) {
	if actor == nil {
		return nil, s.reject("escalate", id, apperrors.NewUnauthorized("authenticated actor required"))
	}

	updated, err := s.requests.Update(ctx, id, func(req *domain.HelpRequest) error {
		return s.engine.Escalate(req, actor, notes)
	})
	if err != nil {
		return nil, s.reject("escalate", id, err)
	}

	s.metrics.Escalated(escalationSourceManual)
	s.logger.Warn("help request escalated",
		zap.String("request_id", updated.ID),
		zap.String("source", escalationSourceManual),
		zap.String("actor", actor.Name))
	s.publishEvent(ctx, events.New(events.EventRequestEscalated, updated.ID, actor, updated.History[0].Timestamp, events.RequestEscalatedPayload{
		Reason:      domain.ActionEscalatedManual,
		Priority:    updated.Priority,
		SLADeadline: updated.SLADeadline,
	}))
	return updated, nil
}

// GetRequest returns one request by id.
func (s *RequestService) GetRequest(ctx context.Context, id string) (*domain.HelpRequest, error) {
	return s.requests.Get(ctx, id)
}

// ListRequests returns requests most-recent-created first.
func (s *RequestService) ListRequests(ctx context.Context, filter repository.RequestFilter) ([]*domain.HelpRequest, error) {
	return s.requests.List(ctx, filter)
}

// Project returns the SLA view of req at the service clock.
func (s *RequestService) Project(req *domain.HelpRequest) lifecycle.SLAStatus {
	return s.engine.Project(req, s.Now())
}

// Now exposes the service clock.
func (s *RequestService) Now() time.Time {
	return s.clock.Now().UTC()
}

// TickSLAMonitor escalates every active, unescalated request whose deadline
// has passed at now and returns how many were flagged. Each flip is its own
// atomic update; a failure on one request does not stop the scan.
func (s *RequestService) TickSLAMonitor(ctx context.Context, now time.Time) (int, error) {
	started := time.Now()
	active, err := s.requests.List(ctx, repository.RequestFilter{Statuses: repository.ActiveStatuses()})
	if err != nil {
		return 0, err
	}

	var (
		escalated    int
		openBreaches int
		errs         []error
	)
	for _, candidate := range active {
		if now.After(candidate.SLADeadline) {
			openBreaches++
		}
		if !s.engine.Breached(candidate, now) {
			continue
		}

		updated, err := s.requests.Update(ctx, candidate.ID, func(req *domain.HelpRequest) error {
			if !s.engine.EscalateBreached(req, now) {
				return errNoLongerBreached
			}
			return nil
		})
		if errors.Is(err, errNoLongerBreached) || apperrors.HasCode(err, apperrors.CodeNotFound) {
			continue
		}
		if err != nil {
			s.logger.Error("sla escalation failed", zap.String("request_id", candidate.ID), zap.Error(err))
			errs = append(errs, err)
			continue
		}

		escalated++
		s.metrics.Escalated(escalationSourceMonitor)
		s.logger.Warn("help request escalated",
			zap.String("request_id", updated.ID),
			zap.String("source", escalationSourceMonitor),
			zap.String("priority", string(updated.Priority)),
			zap.Time("sla_deadline", updated.SLADeadline))
		monitor := lifecycle.MonitorActor
		s.publishEvent(ctx, events.New(events.EventRequestEscalated, updated.ID, &monitor, now, events.RequestEscalatedPayload{
			Reason:      domain.ActionEscalatedSLA,
			Priority:    updated.Priority,
			SLADeadline: updated.SLADeadline,
		}))
	}

	s.metrics.ObserveMonitorScan(time.Since(started), openBreaches)
	return escalated, errors.Join(errs...)
}

// reject records a refused operation and passes err through.
func (s *RequestService) reject(operation, requestID string, err error) error {
	domainErr := apperrors.ToDomainError(err)
	s.metrics.Rejected(operation, domainErr.Code)
	fields := []zap.Field{
		zap.String("operation", operation),
		zap.String("code", domainErr.Code),
		zap.String("reason", domainErr.Message),
	}
	if requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if domainErr.HTTPStatus >= 500 {
		s.logger.Error("lifecycle operation failed", append(fields, zap.Error(err))...)
	} else {
		s.logger.Info("lifecycle operation rejected", fields...)
	}
	return err
}

func (s *RequestService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("request_id", event.RequestID),
			zap.Error(err))
	}
}
