package dto

import (
	"time"

	"github.com/spec-kit/campus-assist/internal/domain"
)

// LoginRequest payload for the demo login.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required,max=254"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *domain.User `json:"user"`
}
