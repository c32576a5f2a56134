package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/peermarking/peermark-api/internal/dto"
	"github.com/peermarking/peermark-api/internal/models"
	"github.com/peermarking/peermark-api/internal/observability"
	"github.com/peermarking/peermark-api/internal/repository"
)

// ReviewService covers the marker side of the lifecycle: browsing the queue,
// claiming submissions and submitting draft or final reviews.
type ReviewService interface {
	Queue(ctx context.Context, caller Caller) ([]dto.QueueItemResponse, error)
	Claim(ctx context.Context, caller Caller, id string) (dto.SubmissionResponse, error)
	Assigned(ctx context.Context, caller Caller) ([]dto.SubmissionResponse, error)
	GetForReview(ctx context.Context, caller Caller, id string) (dto.SubmissionResponse, error)
	Submit(ctx context.Context, caller Caller, id string, payload dto.ReviewSubmitRequest, files []*multipart.FileHeader) (dto.SubmissionResponse, error)
	DownloadURL(ctx context.Context, caller Caller, id, path string) (dto.DownloadResponse, error)
}

type reviewService struct {
	submissions repository.SubmissionRepository
	store       BlobStore
	cleanup     CleanupQueue
	notifier    Notifier
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	urlTTL      time.Duration
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewReviewService constructs a ReviewService instance.
func NewReviewService(repo repository.SubmissionRepository, store BlobStore, cleanup CleanupQueue, notifier Notifier, validate *validator.Validate, urlTTL time.Duration, logger zerolog.Logger) ReviewService {
	if urlTTL <= 0 {
		urlTTL = 5 * time.Minute
	}
	return &reviewService{
		submissions: repo,
		store:       store,
		cleanup:     cleanup,
		notifier:    notifier,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		urlTTL:      urlTTL,
		logger:      logger.With().Str("component", "review_service").Logger(),
		tracer:      otel.Tracer("github.com/peermarking/peermark-api/internal/service/review"),
		now:         time.Now,
	}
}

func (s *reviewService) Queue(ctx context.Context, caller Caller) ([]dto.QueueItemResponse, error) {
	pending := models.SubmissionStatusPending
	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{
		Status:       &pending,
		Unassigned:   true,
		ExcludeOwner: &caller.ID,
	})
	if err != nil {
		return nil, err
	}

	return dto.NewQueueItemResponseSlice(submissions), nil
}

func (s *reviewService) Claim(ctx context.Context, caller Caller, id string) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "review.claim")
	defer span.End()
	span.SetAttributes(
		attribute.String("claim.submission_id", id),
		attribute.String("claim.marker_id", caller.ID),
	)

	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "not found")
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	if submission.OwnerID == caller.ID {
		span.SetStatus(codes.Error, "own submission")
		return dto.SubmissionResponse{}, ErrOwnSubmission
	}

	if !submission.IsPending() {
		observability.ClaimAttempts().WithLabelValues("lost").Inc()
		span.SetStatus(codes.Error, "not pending")
		return dto.SubmissionResponse{}, ErrNoLongerAvailable
	}

	// The conditional update is the only concurrency guard: when two markers
	// race, the store lets exactly one write through.
	claimed, err := s.submissions.Claim(ctx, id, caller.ID, s.now())
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}
	if !claimed {
		observability.ClaimAttempts().WithLabelValues("lost").Inc()
		span.SetStatus(codes.Error, "claim race lost")
		return dto.SubmissionResponse{}, ErrNoLongerAvailable
	}

	observability.ClaimAttempts().WithLabelValues("won").Inc()
	span.SetStatus(codes.Ok, "claimed")
	s.logger.Info().Str("submission_id", id).Str("marker_id", caller.ID).Msg("submission claimed")

	s.notify(ctx, dto.NotificationCreateRequest{
		UserID:       submission.OwnerID,
		Type:         models.NotificationSubmissionClaimed,
		Message:      fmt.Sprintf("A marker has started reviewing %q.", submission.Title),
		SubmissionID: submission.ID,
	})

	updated, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(updated), nil
}

func (s *reviewService) Assigned(ctx context.Context, caller Caller) ([]dto.SubmissionResponse, error) {
	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{
		MarkerID: &caller.ID,
		Statuses: []string{models.SubmissionStatusUnderReview, models.SubmissionStatusReviewed},
	})
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *reviewService) GetForReview(ctx context.Context, caller Caller, id string) (dto.SubmissionResponse, error) {
	submission, err := s.assignedSubmission(ctx, caller, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *reviewService) Submit(ctx context.Context, caller Caller, id string, payload dto.ReviewSubmitRequest, files []*multipart.FileHeader) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "review.submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("review.submission_id", id),
		attribute.Bool("review.draft", payload.Draft),
		attribute.Int("review.new_files", len(files)),
	)

	if err := s.validator.Struct(payload); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.assignedSubmission(ctx, caller, id)
	if err != nil {
		span.SetStatus(codes.Error, "not assigned")
		return dto.SubmissionResponse{}, err
	}

	if submission.IsReviewed() {
		span.SetStatus(codes.Error, "already reviewed")
		return dto.SubmissionResponse{}, ErrAlreadyReviewed
	}

	if len(files) > 0 {
		refs, err := s.replaceMarkedFiles(ctx, &submission, files)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "marked file upload failed")
			return dto.SubmissionResponse{}, err
		}
		submission.MarkedFiles = datatypes.NewJSONSlice(refs)
	}

	submission.MarkerNotes = strings.TrimSpace(s.sanitizer.Sanitize(payload.MarkerNotes))
	if payload.Score != nil {
		submission.Score = payload.Score
	}

	if !payload.Draft {
		if len(submission.MarkedFiles) == 0 {
			span.SetStatus(codes.Error, "no marked file")
			return dto.SubmissionResponse{}, ErrMarkedFileRequired
		}
		reviewedAt := s.now()
		submission.Status = models.SubmissionStatusReviewed
		submission.ReviewedAt = &reviewedAt
	}

	if err := s.submissions.Update(ctx, &submission); err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}

	if payload.Draft {
		span.SetStatus(codes.Ok, "draft saved")
		s.logger.Info().Str("submission_id", id).Msg("review draft saved")
	} else {
		observability.ReviewsFinalized().Inc()
		span.SetStatus(codes.Ok, "finalized")
		s.logger.Info().Str("submission_id", id).Msg("review finalized")

		s.notify(ctx, dto.NotificationCreateRequest{
			UserID:       submission.OwnerID,
			Type:         models.NotificationReviewCompleted,
			Message:      fmt.Sprintf("Your submission %q has been reviewed.", submission.Title),
			SubmissionID: submission.ID,
		})
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *reviewService) DownloadURL(ctx context.Context, caller Caller, id, path string) (dto.DownloadResponse, error) {
	submission, err := s.assignedSubmission(ctx, caller, id)
	if err != nil {
		return dto.DownloadResponse{}, err
	}

	if !submission.HasFile(path) {
		return dto.DownloadResponse{}, ErrInvalidFilePath
	}

	url, err := s.store.SignedURL(path, s.urlTTL)
	if err != nil {
		return dto.DownloadResponse{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	observability.SignedURLsIssued().WithLabelValues("marker").Inc()

	return dto.DownloadResponse{URL: url, ExpiresAt: s.now().Add(s.urlTTL)}, nil
}

// replaceMarkedFiles validates and uploads the new batch, then removes the
// previous marked files. Upload-before-delete keeps the prior review
// recoverable when an upload fails.
func (s *reviewService) replaceMarkedFiles(ctx context.Context, submission *models.Submission, files []*multipart.FileHeader) ([]models.FileRef, error) {
	uploads, err := validateUploadBatch(files, markedMIMETypes)
	if err != nil {
		observability.UploadsRejected().WithLabelValues("marked").Inc()
		return nil, err
	}

	base := sanitizeFileName(submission.Title)
	refs := make([]models.FileRef, 0, len(uploads))
	stored := make([]string, 0, len(uploads))

	for i, upload := range uploads {
		ext := strings.ToLower(filepath.Ext(upload.originalName))
		suffix := ""
		if len(uploads) > 1 {
			suffix = fmt.Sprintf("-%d", i+1)
		}
		path := fmt.Sprintf("marked/%s/%s-marked%s%s", submission.ID, base, suffix, ext)

		if err := s.store.Upload(ctx, path, bytes.NewReader(upload.data), upload.contentType); err != nil {
			s.removeBlobs(ctx, stored, "marked upload failed mid-batch")
			return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
		}

		stored = append(stored, path)
		refs = append(refs, models.FileRef{
			Path:         path,
			DisplayName:  fmt.Sprintf("%s-marked%s%s", base, suffix, ext),
			Size:         upload.size(),
			OriginalName: upload.originalName,
		})
	}

	// All new files are in place; delete the replaced set best-effort.
	previous := make([]string, 0, len(submission.MarkedFiles))
	for _, old := range submission.MarkedFiles {
		previous = append(previous, old.Path)
	}
	s.removeBlobs(ctx, previous, "replaced marked files")

	return refs, nil
}

// assignedSubmission resolves a submission for its assigned marker. Unlike
// the owner path, a mismatch reads as a permission error: the marker already
// saw the submission in the queue, so existence is not a secret.
func (s *reviewService) assignedSubmission(ctx context.Context, caller Caller, id string) (models.Submission, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, ErrSubmissionNotFound
		}
		return models.Submission{}, err
	}

	if submission.MarkerID == nil || *submission.MarkerID != caller.ID {
		return models.Submission{}, ErrNotAssignedMarker
	}

	return submission, nil
}

func (s *reviewService) removeBlobs(ctx context.Context, paths []string, reason string) {
	failed := make([]string, 0, len(paths))
	for _, path := range paths {
		if err := s.store.Delete(ctx, path); err != nil {
			s.logger.Warn().Err(err).Str("path", path).Msg("blob delete failed")
			failed = append(failed, path)
		}
	}
	if len(failed) > 0 && s.cleanup != nil {
		s.cleanup.Enqueue(ctx, failed, reason)
	}
}

func (s *reviewService) notify(ctx context.Context, payload dto.NotificationCreateRequest) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Publish(ctx, payload); err != nil {
		s.logger.Warn().Err(err).Str("user_id", payload.UserID).Msg("failed to publish notification")
	}
}
