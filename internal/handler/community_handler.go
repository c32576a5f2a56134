package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/peermarking/peermark-api/internal/service"
	"github.com/peermarking/peermark-api/internal/utils"
)

// CommunityHandler exposes the anonymized feed of reviewed submissions.
type CommunityHandler struct {
	service service.CommunityService
	logger  zerolog.Logger
}

// NewCommunityHandler builds a community handler instance.
func NewCommunityHandler(service service.CommunityService, logger zerolog.Logger) *CommunityHandler {
	return &CommunityHandler{
		service: service,
		logger:  logger.With().Str("component", "community_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *CommunityHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Get("/:id/download", h.download)
}

func (h *CommunityHandler) list(c *fiber.Ctx) error {
	feed, err := h.service.List(requestContext(c))
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "community feed retrieved", feed)
}

func (h *CommunityHandler) get(c *fiber.Ctx) error {
	submission, err := h.service.Get(requestContext(c), c.Params("id"))
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *CommunityHandler) download(c *fiber.Ctx) error {
	path := c.Query("path")
	if path == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "path is required")
	}

	download, err := h.service.DownloadURL(requestContext(c), c.Params("id"), path)
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "download url issued", download)
}
