package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-assist/internal/api/dto"
	"github.com/spec-kit/campus-assist/internal/service"
	apperrors "github.com/spec-kit/campus-assist/pkg/util/errorutil"
)

// AuthHandler exposes the demo login.
type AuthHandler struct {
	service  *service.AuthService
	validate *validator.Validate
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, validate *validator.Validate) *AuthHandler {
	if validate == nil {
		validate = dto.NewValidator()
	}
	return &AuthHandler{service: authService, validate: validate}
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(h.validate, req); err != nil {
		return err
	}
	result, err := h.service.Login(c.UserContext(), req.Identifier)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AuthResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      result.User,
	}})
}
