package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-assist/internal/domain"
	apperrors "github.com/spec-kit/campus-assist/pkg/util/errorutil"
)

// RequireRole ensures the principal holds one of the allowed roles. With no
// roles given it only requires authentication.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.User.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireStaff admits response officers and supervisors.
func RequireStaff() fiber.Handler {
	return RequireRole(domain.RoleResponseOfficer, domain.RoleSupervisor)
}
