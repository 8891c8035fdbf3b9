package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-assist/internal/api/dto"
	"github.com/spec-kit/campus-assist/internal/service"
)

// DashboardHandler serves the staff overview.
type DashboardHandler struct {
	dashboard *service.DashboardService
	requests  *service.RequestService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboard *service.DashboardService, requests *service.RequestService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, requests: requests}
}

// Overview GET /dashboard.
func (h *DashboardHandler) Overview(c *fiber.Ctx) error {
	overview, err := h.dashboard.Overview(c.UserContext(), h.requests.Now())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DashboardResponse{
		GeneratedAt:            overview.GeneratedAt,
		Total:                  overview.Total,
		ActiveBreaches:         overview.ActiveBreaches,
		AverageResponseMinutes: overview.AverageResponseMinutes,
		AcknowledgeRate:        overview.AcknowledgeRate,
		EmergencyQueue:         queueResponse(overview.EmergencyQueue),
		WorkQueue:              queueResponse(overview.WorkQueue),
	}})
}

func queueResponse(items []service.QueueItem) []dto.HelpRequestResponse {
	out := make([]dto.HelpRequestResponse, 0, len(items))
	for _, item := range items {
		out = append(out, dto.HelpRequestResponse{HelpRequest: item.Request, SLA: dto.NewSLAView(item.SLA)})
	}
	return out
}
