package service

import (
	"context"
	"math"
	"time"

	"github.com/spec-kit/campus-assist/internal/domain"
	"github.com/spec-kit/campus-assist/internal/lifecycle"
	"github.com/spec-kit/campus-assist/internal/repository"
)

// DefaultAckTarget is the acknowledgment window used by the dashboard.
const DefaultAckTarget = 15 * time.Minute

// QueueItem pairs a request with its SLA projection.
type QueueItem struct {
	Request *domain.HelpRequest
	SLA     lifecycle.SLAStatus
}

// Overview is the operational snapshot shown to staff.
type Overview struct {
	GeneratedAt            time.Time
	Total                  int
	ActiveBreaches         int
	AverageResponseMinutes int
	AcknowledgeRate        int
	EmergencyQueue         []QueueItem
	WorkQueue              []QueueItem
}

// DashboardService computes operational metrics over the request store.
type DashboardService struct {
	requests  repository.HelpRequestRepository
	engine    *lifecycle.Engine
	ackTarget time.Duration
}

// NewDashboardService constructs the service.
func NewDashboardService(requests repository.HelpRequestRepository, engine *lifecycle.Engine, ackTarget time.Duration) *DashboardService {
	if ackTarget <= 0 {
		ackTarget = DefaultAckTarget
	}
	return &DashboardService{requests: requests, engine: engine, ackTarget: ackTarget}
}

// Overview builds the snapshot at now.
func (s *DashboardService) Overview(ctx context.Context, now time.Time) (*Overview, error) {
	all, err := s.requests.List(ctx, repository.RequestFilter{})
	if err != nil {
		return nil, err
	}

	overview := &Overview{
		GeneratedAt:    now,
		Total:          len(all),
		EmergencyQueue: []QueueItem{},
		WorkQueue:      []QueueItem{},
	}

	var (
		resolved      int
		responseTotal time.Duration
		handled       int
		onTime        int
	)
	for _, req := range all {
		if req.Status.Active() && now.After(req.SLADeadline) {
			overview.ActiveBreaches++
		}
		if req.Status == domain.StatusResolved {
			resolved++
			responseTotal += req.UpdatedAt.Sub(req.CreatedAt)
		}
		if req.Status != domain.StatusCreated {
			handled++
			if s.acknowledgedOnTime(req) {
				onTime++
			}
		}
		if req.Status == domain.StatusClosed {
			continue
		}
		item := QueueItem{Request: req, SLA: s.engine.Project(req, now)}
		if req.Priority == domain.PriorityEmergency {
			overview.EmergencyQueue = append(overview.EmergencyQueue, item)
		} else {
			overview.WorkQueue = append(overview.WorkQueue, item)
		}
	}

	if resolved > 0 {
		overview.AverageResponseMinutes = int(math.Round(responseTotal.Minutes() / float64(resolved)))
	}
	overview.AcknowledgeRate = 100
	if handled > 0 {
		overview.AcknowledgeRate = int(math.Round(float64(onTime) / float64(handled) * 100))
	}
	return overview, nil
}

// acknowledgedOnTime checks the first acknowledgment against the target.
// Requests that skipped acknowledgment count as on time.
func (s *DashboardService) acknowledgedOnTime(req *domain.HelpRequest) bool {
	for i := len(req.History) - 1; i >= 0; i-- {
		entry := req.History[i]
		if entry.IsTransitionTo(domain.StatusAcknowledged) {
			return entry.Timestamp.Sub(req.CreatedAt) < s.ackTarget
		}
	}
	return true
}
