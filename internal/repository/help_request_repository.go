package repository

import (
	"context"

	"github.com/spec-kit/campus-assist/internal/domain"
)

// RequestFilter narrows List results. Zero values match everything.
type RequestFilter struct {
	StudentID *string
	Statuses  []domain.RequestStatus
	Priority  *domain.Priority
	Escalated *bool
}

// UpdateFunc mutates a request inside an atomic read-modify-write. Returning
// an error aborts the update and nothing is stored.
type UpdateFunc func(req *domain.HelpRequest) error

// HelpRequestRepository encapsulates help request persistence.
type HelpRequestRepository interface {
	Insert(ctx context.Context, req *domain.HelpRequest) error
	Get(ctx context.Context, id string) (*domain.HelpRequest, error)
	// List returns matches most-recent-created first.
	List(ctx context.Context, filter RequestFilter) ([]*domain.HelpRequest, error)
	Update(ctx context.Context, id string, fn UpdateFunc) (*domain.HelpRequest, error)
}

func (f RequestFilter) matches(req *domain.HelpRequest) bool {
	if f.StudentID != nil && req.StudentID != *f.StudentID {
		return false
	}
	if f.Priority != nil && req.Priority != *f.Priority {
		return false
	}
	if f.Escalated != nil && req.Escalated != *f.Escalated {
		return false
	}
	if len(f.Statuses) > 0 {
		for _, status := range f.Statuses {
			if req.Status == status {
				return true
			}
		}
		return false
	}
	return true
}

// ActiveStatuses lists the states still counting against an SLA.
func ActiveStatuses() []domain.RequestStatus {
	return []domain.RequestStatus{domain.StatusCreated, domain.StatusAcknowledged, domain.StatusInProgress}
}
