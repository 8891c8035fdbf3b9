package repository

import (
	"context"
	"sync"

	"github.com/spec-kit/campus-assist/internal/domain"
	apperrors "github.com/spec-kit/campus-assist/pkg/util/errorutil"
)

type memoryHelpRequestRepository struct {
	mu sync.RWMutex
	// items is kept newest-first.
	items []*domain.HelpRequest
	index map[string]int
}

// NewMemoryHelpRequestRepository returns the default in-process store.
func NewMemoryHelpRequestRepository() HelpRequestRepository {
	return &memoryHelpRequestRepository{index: map[string]int{}}
}

func (r *memoryHelpRequestRepository) Insert(_ context.Context, req *domain.HelpRequest) error {
	if req == nil || req.ID == "" {
		return apperrors.NewValidationError("request id is required", nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.index[req.ID]; exists {
		return apperrors.NewConflict("request already exists", map[string]any{"id": req.ID})
	}
	r.items = append([]*domain.HelpRequest{req.Clone()}, r.items...)
	r.reindex()
	return nil
}

func (r *memoryHelpRequestRepository) Get(_ context.Context, id string) (*domain.HelpRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pos, ok := r.index[id]
	if !ok {
		return nil, apperrors.NewNotFound("help request", map[string]any{"id": id})
	}
	return r.items[pos].Clone(), nil
}

func (r *memoryHelpRequestRepository) List(_ context.Context, filter RequestFilter) ([]*domain.HelpRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.HelpRequest, 0, len(r.items))
	for _, item := range r.items {
		if filter.matches(item) {
			result = append(result, item.Clone())
		}
	}
	return result, nil
}

func (r *memoryHelpRequestRepository) Update(_ context.Context, id string, fn UpdateFunc) (*domain.HelpRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pos, ok := r.index[id]
	if !ok {
		return nil, apperrors.NewNotFound("help request", map[string]any{"id": id})
	}
	working := r.items[pos].Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	r.items[pos] = working
	return working.Clone(), nil
}

func (r *memoryHelpRequestRepository) reindex() {
	for i, item := range r.items {
		r.index[item.ID] = i
	}
}
