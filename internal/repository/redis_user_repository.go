package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/campus-assist/internal/domain"
	apperrors "github.com/spec-kit/campus-assist/pkg/util/errorutil"
)

const userKeyPrefix = "campus-assist:user:"

type redisUserRepository struct {
	client *redis.Client
}

// NewRedisUserRepository stores users as JSON documents keyed by id.
func NewRedisUserRepository(client *redis.Client) UserRepository {
	return &redisUserRepository{client: client}
}

func (r *redisUserRepository) Get(ctx context.Context, id string) (*domain.User, error) {
	key := userKeyPrefix + id
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("unmarshal user %s: %w", id, err)
	}
	return &user, nil
}

func (r *redisUserRepository) Save(ctx context.Context, user *domain.User) error {
	if user == nil || user.ID == "" {
		return apperrors.NewValidationError("user id is required", nil)
	}
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user %s: %w", user.ID, err)
	}
	key := userKeyPrefix + user.ID
	if err := r.client.Set(ctx, key, payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
