package repository

import (
	"context"
	"sync"

	"github.com/spec-kit/campus-assist/internal/domain"
	apperrors "github.com/spec-kit/campus-assist/pkg/util/errorutil"
)

// UserRepository holds known users and their rate-limit stamps.
type UserRepository interface {
	Get(ctx context.Context, id string) (*domain.User, error)
	Save(ctx context.Context, user *domain.User) error
}

type memoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewMemoryUserRepository returns an in-process user directory.
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{users: map[string]domain.User{}}
}

func (r *memoryUserRepository) Get(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
	}
	return copyUser(user), nil
}

func (r *memoryUserRepository) Save(_ context.Context, user *domain.User) error {
	if user == nil || user.ID == "" {
		return apperrors.NewValidationError("user id is required", nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = *copyUser(*user)
	return nil
}

func copyUser(user domain.User) *domain.User {
	if user.LastRequestTime != nil {
		stamp := *user.LastRequestTime
		user.LastRequestTime = &stamp
	}
	return &user
}
