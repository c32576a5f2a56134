package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/peermarking/peermark-api/internal/dto"
	"github.com/peermarking/peermark-api/internal/service"
	"github.com/peermarking/peermark-api/internal/utils"
)

// ReviewHandler manages the marker-facing endpoints: the pending queue,
// claiming, and submitting reviews.
type ReviewHandler struct {
	service service.ReviewService
	logger  zerolog.Logger
}

// NewReviewHandler builds a review handler instance.
func NewReviewHandler(service service.ReviewService, logger zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		logger:  logger.With().Str("component", "review_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ReviewHandler) Register(router fiber.Router) {
	router.Get("/queue", h.queue)
	router.Get("/assigned", h.assigned)
	router.Post("/:id/claim", h.claim)
	router.Get("/:id", h.get)
	router.Post("/:id", h.submit)
	router.Get("/:id/download", h.download)
}

func (h *ReviewHandler) queue(c *fiber.Ctx) error {
	items, err := h.service.Queue(requestContext(c), callerFromContext(c))
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "review queue retrieved", items)
}

func (h *ReviewHandler) assigned(c *fiber.Ctx) error {
	submissions, err := h.service.Assigned(requestContext(c), callerFromContext(c))
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "assigned reviews retrieved", submissions)
}

func (h *ReviewHandler) claim(c *fiber.Ctx) error {
	submission, err := h.service.Claim(requestContext(c), callerFromContext(c), c.Params("id"))
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submission claimed", submission)
}

func (h *ReviewHandler) get(c *fiber.Ctx) error {
	submission, err := h.service.GetForReview(requestContext(c), callerFromContext(c), c.Params("id"))
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *ReviewHandler) submit(c *fiber.Ctx) error {
	var payload dto.ReviewSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	files, err := formFiles(c, "marked_files")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid multipart form")
	}

	submission, err := h.service.Submit(requestContext(c), callerFromContext(c), c.Params("id"), payload, files)
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	message := "review saved"
	if !payload.Draft {
		message = "review completed"
	}

	return utils.SendSuccess(c, message, submission)
}

func (h *ReviewHandler) download(c *fiber.Ctx) error {
	path := c.Query("path")
	if path == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "path is required")
	}

	download, err := h.service.DownloadURL(requestContext(c), callerFromContext(c), c.Params("id"), path)
	if err != nil {
		return handleServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "download url issued", download)
}
