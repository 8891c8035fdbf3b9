package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-assist/internal/api/dto"
	"github.com/spec-kit/campus-assist/internal/auth"
	"github.com/spec-kit/campus-assist/internal/domain"
	"github.com/spec-kit/campus-assist/internal/lifecycle"
	"github.com/spec-kit/campus-assist/internal/repository"
	"github.com/spec-kit/campus-assist/internal/service"
	apperrors "github.com/spec-kit/campus-assist/pkg/util/errorutil"
)

// RequestsHandler manages help request endpoints.
type RequestsHandler struct {
	service  *service.RequestService
	validate *validator.Validate
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(requestService *service.RequestService, validate *validator.Validate) *RequestsHandler {
	if validate == nil {
		validate = dto.NewValidator()
	}
	return &RequestsHandler{service: requestService, validate: validate}
}

// Create POST /requests.
func (h *RequestsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateHelpRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(h.validate, req); err != nil {
		return err
	}

	created, err := h.service.CreateRequest(c.UserContext(), principal.User, lifecycle.CreateInput{
		Category:    domain.Category(req.Category),
		Priority:    domain.Priority(req.Priority),
		Location:    req.Location,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": h.response(created)})
}

// List GET /requests. Students only see their own submissions.
func (h *RequestsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	filter, err := parseRequestFilter(c)
	if err != nil {
		return err
	}
	if !principal.User.Role.Staff() {
		filter.StudentID = &principal.User.ID
	}

	items, err := h.service.ListRequests(c.UserContext(), filter)
	if err != nil {
		return err
	}
	data := make([]dto.HelpRequestResponse, 0, len(items))
	for _, item := range items {
		data = append(data, h.response(item))
	}
	return c.JSON(fiber.Map{"data": data})
}

// Get GET /requests/:id.
func (h *RequestsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	id := c.Params("id")
	req, err := h.service.GetRequest(c.UserContext(), id)
	if err != nil {
		return err
	}
	if !principal.User.Role.Staff() && req.StudentID != principal.User.ID {
		return apperrors.NewNotFound("help request", map[string]any{"id": id})
	}
	return c.JSON(fiber.Map{"data": h.response(req)})
}

// Transition POST /requests/:id/transitions.
func (h *RequestsHandler) Transition(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(h.validate, req); err != nil {
		return err
	}

	updated, err := h.service.TransitionRequest(c.UserContext(), c.Params("id"), principal.User, domain.RequestStatus(req.Status), req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.response(updated)})
}

// Escalate POST /requests/:id/escalate.
func (h *RequestsHandler) Escalate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.EscalateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
		if err := dto.Validate(h.validate, req); err != nil {
			return err
		}
	}

	updated, err := h.service.EscalateRequest(c.UserContext(), c.Params("id"), principal.User, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.response(updated)})
}

func (h *RequestsHandler) response(req *domain.HelpRequest) dto.HelpRequestResponse {
	return dto.HelpRequestResponse{HelpRequest: req, SLA: dto.NewSLAView(h.service.Project(req))}
}

func parseRequestFilter(c *fiber.Ctx) (repository.RequestFilter, error) {
	filter := repository.RequestFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			status := domain.RequestStatus(strings.TrimSpace(part))
			if !status.Valid() {
				return filter, apperrors.NewValidationError("unknown status filter", map[string]any{"status": part})
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		priority := domain.Priority(priorityStr)
		if !priority.Valid() {
			return filter, apperrors.NewValidationError("unknown priority filter", map[string]any{"priority": priorityStr})
		}
		filter.Priority = &priority
	}
	if escalatedStr := c.Query("escalated"); escalatedStr != "" {
		escalated, err := strconv.ParseBool(escalatedStr)
		if err != nil {
			return filter, apperrors.NewValidationError("escalated must be a boolean", nil)
		}
		filter.Escalated = &escalated
	}
	return filter, nil
}
