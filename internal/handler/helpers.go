package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/peermarking/peermark-api/internal/middleware"
	"github.com/peermarking/peermark-api/internal/models"
	"github.com/peermarking/peermark-api/internal/service"
	"github.com/peermarking/peermark-api/internal/utils"
)

func userIDFromContext(c *fiber.Ctx) string {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(string); ok {
			return strings.TrimSpace(id)
		}
	}
	return ""
}

func userEmailFromContext(c *fiber.Ctx) string {
	if v := c.Locals("user_email"); v != nil {
		if email, ok := v.(string); ok {
			return strings.TrimSpace(email)
		}
	}
	return ""
}

func userRoleFromContext(c *fiber.Ctx) string {
	if v := c.Locals("user_role"); v != nil {
		if role, ok := v.(string); ok {
			return role
		}
	}
	return ""
}

func callerFromContext(c *fiber.Ctx) service.Caller {
	role, _ := models.ParseRole(userRoleFromContext(c))
	return service.Caller{
		ID:    userIDFromContext(c),
		Email: userEmailFromContext(c),
		Role:  role,
	}
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// handleServiceError maps the service sentinel errors onto HTTP responses.
// Unknown errors are logged and reported as opaque 500s.
func handleServiceError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	var validationErrors validator.ValidationErrors
	var fileErr *service.FileValidationError

	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, service.ErrSubmissionNotFound.Error())
	case errors.Is(err, service.ErrNoLongerAvailable):
		return utils.SendError(c, fiber.StatusConflict, service.ErrNoLongerAvailable.Error())
	case errors.Is(err, service.ErrOwnSubmission):
		return utils.SendError(c, fiber.StatusForbidden, service.ErrOwnSubmission.Error())
	case errors.Is(err, service.ErrNotAssignedMarker):
		return utils.SendError(c, fiber.StatusForbidden, service.ErrNotAssignedMarker.Error())
	case errors.Is(err, service.ErrAlreadyReviewed):
		return utils.SendError(c, fiber.StatusConflict, service.ErrAlreadyReviewed.Error())
	case errors.Is(err, service.ErrFileRequired):
		return utils.SendError(c, fiber.StatusBadRequest, service.ErrFileRequired.Error())
	case errors.Is(err, service.ErrMarkedFileRequired):
		return utils.SendError(c, fiber.StatusBadRequest, service.ErrMarkedFileRequired.Error())
	case errors.Is(err, service.ErrInvalidFilePath):
		return utils.SendError(c, fiber.StatusBadRequest, service.ErrInvalidFilePath.Error())
	case errors.Is(err, service.ErrProfileNotFound):
		return utils.SendError(c, fiber.StatusNotFound, service.ErrProfileNotFound.Error())
	case errors.Is(err, service.ErrNotificationNotFound):
		return utils.SendError(c, fiber.StatusNotFound, service.ErrNotificationNotFound.Error())
	case errors.Is(err, service.ErrRoleAlreadySet):
		return utils.SendError(c, fiber.StatusConflict, service.ErrRoleAlreadySet.Error())
	case errors.As(err, &fileErr):
		return utils.SendError(c, fiber.StatusBadRequest, fileErr.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	case errors.Is(err, service.ErrStorageFailure):
		requestLogger(logger, c).Error().Err(err).Msg("storage backend failure")
		return utils.SendError(c, fiber.StatusBadGateway, "file storage is temporarily unavailable")
	default:
		requestLogger(logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
