package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/campus-assist/internal/auth"
	"github.com/spec-kit/campus-assist/internal/domain"
	"github.com/spec-kit/campus-assist/internal/repository"
	apperrors "github.com/spec-kit/campus-assist/pkg/util/errorutil"
)

var userNamespace = uuid.MustParse("6f1c7e8a-3d5b-4c52-9a0e-2b7f4d9c1e30")

// LoginResult is returned by a successful demo login.
type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// AuthService implements the demo identity flow. There is no credential
// check: the identifier alone decides the role.
type AuthService struct {
	users    repository.UserRepository
	tokenMgr *auth.TokenManager
	logger   *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(users repository.UserRepository, tokenMgr *auth.TokenManager, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{users: users, tokenMgr: tokenMgr, logger: logger}
}

// Login resolves identifier to a user, persists it in the directory and
// issues a token. An existing rate-limit stamp survives re-login.
func (s *AuthService) Login(ctx context.Context, identifier string) (*LoginResult, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" {
		return nil, apperrors.NewValidationError("identifier is required", map[string]any{"field": "identifier"})
	}

	user := resolveDemoUser(identifier)
	existing, err := s.users.Get(ctx, user.ID)
	switch {
	case err == nil:
		user.LastRequestTime = existing.LastRequestTime
	case !apperrors.HasCode(err, apperrors.CodeNotFound):
		return nil, err
	}

	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}

	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.logger.Info("user logged in", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return &LoginResult{User: user, Token: token, ExpiresAt: exp}, nil
}

func resolveDemoUser(identifier string) *domain.User {
	user := &domain.User{
		ID:    "u_" + strings.ReplaceAll(uuid.NewSHA1(userNamespace, []byte(identifier)).String(), "-", "")[:12],
		Email: identifier,
	}
	switch {
	case strings.Contains(identifier, "admin"):
		user.Name = "Response Officer 1"
		user.Role = domain.RoleResponseOfficer
	case strings.Contains(identifier, "super"):
		user.Name = "Escalation Supervisor"
		user.Role = domain.RoleSupervisor
	default:
		user.Name = "Student User"
		user.Role = domain.RoleStudent
	}
	return user
}
