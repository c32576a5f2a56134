package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/peermarking/peermark-api/internal/service"
	"github.com/peermarking/peermark-api/internal/utils"
)

// DashboardHandler serves the role-specific landing page aggregates.
type DashboardHandler struct {
	service service.DashboardService
	logger  zerolog.Logger
}

// NewDashboardHandler builds a dashboard handler instance.
func NewDashboardHandler(service service.DashboardService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// Student serves the student dashboard.
func (h *DashboardHandler) Student(c *fiber.Ctx) error {
	dashboard, err := h.service.StudentDashboard(requestContext(c), callerFromContext(c))
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "student dashboard retrieved", dashboard)
}

// Marker serves the marker dashboard.
func (h *DashboardHandler) Marker(c *fiber.Ctx) error {
	dashboard, err := h.service.MarkerDashboard(requestContext(c), callerFromContext(c))
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "marker dashboard retrieved", dashboard)
}
