package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/peermarking/peermark-api/internal/dto"
	"github.com/peermarking/peermark-api/internal/models"
	"github.com/peermarking/peermark-api/internal/repository"
)

const maxAvatarBytes = 5 * 1024 * 1024

// AvatarStore uploads profile images and returns their public URL.
type AvatarStore interface {
	UploadAvatar(ctx context.Context, userID string, reader io.Reader) (string, error)
}

// ProfileService manages account profiles. The role picked during profile
// completion is permanent.
type ProfileService interface {
	Get(ctx context.Context, caller Caller) (dto.ProfileResponse, error)
	Complete(ctx context.Context, caller Caller, payload dto.CompleteProfileRequest) (dto.ProfileResponse, error)
	UploadAvatar(ctx context.Context, caller Caller, reader io.Reader) (dto.AvatarResponse, error)
}

type profileService struct {
	repo      repository.ProfileRepository
	avatars   AvatarStore
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewProfileService constructs a ProfileService instance.
func NewProfileService(repo repository.ProfileRepository, avatars AvatarStore, validate *validator.Validate, logger zerolog.Logger) ProfileService {
	return &profileService{
		repo:      repo,
		avatars:   avatars,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "profile_service").Logger(),
		tracer:    otel.Tracer("github.com/peermarking/peermark-api/internal/service/profile"),
	}
}

func (s *profileService) Get(ctx context.Context, caller Caller) (dto.ProfileResponse, error) {
	profile, err := s.repo.GetByID(ctx, caller.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProfileResponse{}, ErrProfileNotFound
		}
		return dto.ProfileResponse{}, err
	}

	return dto.NewProfileResponse(profile), nil
}

func (s *profileService) Complete(ctx context.Context, caller Caller, payload dto.CompleteProfileRequest) (dto.ProfileResponse, error) {
	payload.FullName = strings.TrimSpace(s.sanitizer.Sanitize(payload.FullName))

	if err := s.validator.Struct(payload); err != nil {
		return dto.ProfileResponse{}, err
	}

	role, err := models.ParseRole(payload.Role)
	if err != nil {
		return dto.ProfileResponse{}, err
	}

	attrs := []attribute.KeyValue{
		attribute.String("profile.user_id", caller.ID),
		attribute.String("profile.role", role.String()),
	}
	spanCtx, span := s.tracer.Start(ctx, "profiles.complete", trace.WithAttributes(attrs...))
	defer span.End()

	profile, err := s.repo.GetByID(spanCtx, caller.ID)
	switch {
	case err == nil:
		if profile.HasRole() {
			return dto.ProfileResponse{}, ErrRoleAlreadySet
		}
		profile.FullName = payload.FullName
		profile.Role = role
		if err := s.repo.Update(spanCtx, &profile); err != nil {
			span.RecordError(err)
			return dto.ProfileResponse{}, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		profile = models.UserProfile{
			ID:       caller.ID,
			Email:    caller.Email,
			FullName: payload.FullName,
			Role:     role,
		}
		if err := s.repo.Create(spanCtx, &profile); err != nil {
			span.RecordError(err)
			return dto.ProfileResponse{}, err
		}
	default:
		span.RecordError(err)
		return dto.ProfileResponse{}, err
	}

	s.logger.Info().Str("user_id", caller.ID).Str("role", role.String()).Msg("profile completed")

	return dto.NewProfileResponse(profile), nil
}

func (s *profileService) UploadAvatar(ctx context.Context, caller Caller, reader io.Reader) (dto.AvatarResponse, error) {
	profile, err := s.repo.GetByID(ctx, caller.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AvatarResponse{}, ErrProfileNotFound
		}
		return dto.AvatarResponse{}, err
	}

	data, err := io.ReadAll(io.LimitReader(reader, maxAvatarBytes+1))
	if err != nil {
		return dto.AvatarResponse{}, fmt.Errorf("failed to read avatar: %w", err)
	}
	if len(data) == 0 {
		return dto.AvatarResponse{}, &FileValidationError{File: "avatar", Reason: "file is empty"}
	}
	if len(data) > maxAvatarBytes {
		return dto.AvatarResponse{}, &FileValidationError{File: "avatar", Reason: "file exceeds the 5 MiB limit"}
	}

	if detected := mimetype.Detect(data); !strings.HasPrefix(detected.String(), "image/") {
		return dto.AvatarResponse{}, &FileValidationError{File: "avatar", Reason: "file is not an image"}
	}

	url, err := s.avatars.UploadAvatar(ctx, caller.ID, bytes.NewReader(data))
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", caller.ID).Msg("avatar upload failed")
		return dto.AvatarResponse{}, fmt.Errorf("%w: avatar upload", ErrStorageFailure)
	}

	profile.AvatarURL = url
	if err := s.repo.Update(ctx, &profile); err != nil {
		return dto.AvatarResponse{}, err
	}

	return dto.AvatarResponse{AvatarURL: url}, nil
}
