package lifecycle

import (
	"github.com/spec-kit/campus-assist/internal/domain"
	apperrors "github.com/spec-kit/campus-assist/pkg/util/errorutil"
)

// Operation names a lifecycle action subject to role checks.
type Operation string

const (
	OpCreate     Operation = "create"
	OpTransition Operation = "transition"
	OpEscalate   Operation = "escalate"
)

// Authorize is the single role check for every lifecycle operation.
// req and target are ignored where the operation has no entity yet.
func Authorize(op Operation, actor *domain.User, req *domain.HelpRequest, target domain.RequestStatus) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authenticated actor required")
	}
	switch op {
	case OpCreate:
		return nil
	case OpTransition:
		if req == nil || target != domain.StatusClosed {
			return nil
		}
		if (req.Priority == domain.PriorityEmergency || req.Escalated) && actor.Role != domain.RoleSupervisor {
			return apperrors.NewGovernanceViolation("only supervisors can close emergency or escalated requests", map[string]any{
				"request_id": req.ID,
				"priority":   req.Priority,
				"escalated":  req.Escalated,
				"role":       actor.Role,
			})
		}
		return nil
	case OpEscalate:
		if actor.Role != domain.RoleSupervisor && actor.Role != domain.RoleSystem {
			return apperrors.NewGovernanceViolation("only supervisors can escalate requests", map[string]any{
				"role": actor.Role,
			})
		}
		return nil
	default:
		return apperrors.NewForbidden("unknown operation")
	}
}
