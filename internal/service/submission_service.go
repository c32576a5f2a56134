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
	"github.com/google/uuid"
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

// SubmissionService covers the student side of the lifecycle: creating
// submissions and reading back their own work and feedback.
type SubmissionService interface {
	Create(ctx context.Context, caller Caller, payload dto.SubmissionCreateRequest, files []*multipart.FileHeader) (dto.SubmissionResponse, error)
	ListMine(ctx context.Context, caller Caller) ([]dto.SubmissionResponse, error)
	GetMine(ctx context.Context, caller Caller, id string) (dto.SubmissionResponse, error)
	DownloadURL(ctx context.Context, caller Caller, id, path string) (dto.DownloadResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	store       BlobStore
	cleanup     CleanupQueue
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	urlTTL      time.Duration
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(repo repository.SubmissionRepository, store BlobStore, cleanup CleanupQueue, validate *validator.Validate, urlTTL time.Duration, logger zerolog.Logger) SubmissionService {
	if urlTTL <= 0 {
		urlTTL = 5 * time.Minute
	}
	return &submissionService{
		submissions: repo,
		store:       store,
		cleanup:     cleanup,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		urlTTL:      urlTTL,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		tracer:      otel.Tracer("github.com/peermarking/peermark-api/internal/service/submission"),
		now:         time.Now,
	}
}

func (s *submissionService) Create(ctx context.Context, caller Caller, payload dto.SubmissionCreateRequest, files []*multipart.FileHeader) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.create")
	defer span.End()
	span.SetAttributes(
		attribute.String("submission.owner_id", caller.ID),
		attribute.Int("submission.file_count", len(files)),
	)

	payload.Title = strings.TrimSpace(s.sanitizer.Sanitize(payload.Title))
	payload.Question = strings.TrimSpace(s.sanitizer.Sanitize(payload.Question))
	payload.Notes = strings.TrimSpace(s.sanitizer.Sanitize(payload.Notes))

	if err := s.validator.Struct(payload); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return dto.SubmissionResponse{}, err
	}

	if len(files) == 0 {
		span.SetStatus(codes.Error, "no files")
		return dto.SubmissionResponse{}, ErrFileRequired
	}

	// Whole-batch validation happens before the first blob write.
	uploads, err := validateUploadBatch(files, submissionMIMETypes)
	if err != nil {
		observability.UploadsRejected().WithLabelValues("submission").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "file validation failed")
		return dto.SubmissionResponse{}, err
	}

	id := uuid.NewString()
	refs := make([]models.FileRef, 0, len(uploads))
	stored := make([]string, 0, len(uploads))

	for i, upload := range uploads {
		ext := strings.ToLower(filepath.Ext(upload.originalName))
		path := fmt.Sprintf("submissions/%s/%s-%d%s", caller.ID, id, i+1, ext)

		if err := s.store.Upload(ctx, path, bytes.NewReader(upload.data), upload.contentType); err != nil {
			s.removeBlobs(ctx, stored, "submission upload failed mid-batch")
			span.RecordError(err)
			span.SetStatus(codes.Error, "upload failed")
			return dto.SubmissionResponse{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
		}

		stored = append(stored, path)
		refs = append(refs, models.FileRef{
			Path:         path,
			DisplayName:  upload.originalName,
			Size:         upload.size(),
			OriginalName: upload.originalName,
		})
	}

	submission := models.Submission{
		ID:       id,
		OwnerID:  caller.ID,
		Paper:    payload.Paper,
		Title:    payload.Title,
		Question: payload.Question,
		Notes:    payload.Notes,
		Files:    datatypes.NewJSONSlice(refs),
		Status:   models.SubmissionStatusPending,
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		// No cross-store transaction exists; compensate by removing the
		// blobs this batch stored before surfacing the error.
		s.removeBlobs(ctx, stored, "submission insert failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return dto.SubmissionResponse{}, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}

	observability.SubmissionsCreated().Inc()
	span.SetStatus(codes.Ok, "created")
	s.logger.Info().Str("submission_id", submission.ID).Str("paper", submission.Paper).Msg("submission created")

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) ListMine(ctx context.Context, caller Caller) ([]dto.SubmissionResponse, error) {
	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{OwnerID: &caller.ID})
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) GetMine(ctx context.Context, caller Caller, id string) (dto.SubmissionResponse, error) {
	submission, err := s.ownedSubmission(ctx, caller, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) DownloadURL(ctx context.Context, caller Caller, id, path string) (dto.DownloadResponse, error) {
	submission, err := s.ownedSubmission(ctx, caller, id)
	if err != nil {
		return dto.DownloadResponse{}, err
	}

	// The requested path must come from the submission's own file set;
	// arbitrary paths never get signed.
	if !submission.HasFile(path) {
		return dto.DownloadResponse{}, ErrInvalidFilePath
	}

	url, err := s.store.SignedURL(path, s.urlTTL)
	if err != nil {
		return dto.DownloadResponse{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	observability.SignedURLsIssued().WithLabelValues("student").Inc()

	return dto.DownloadResponse{URL: url, ExpiresAt: s.now().Add(s.urlTTL)}, nil
}

// ownedSubmission resolves a submission for its owner. Ownership failures
// read as not-found so the endpoint does not confirm foreign submission ids.
func (s *submissionService) ownedSubmission(ctx context.Context, caller Caller, id string) (models.Submission, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, ErrSubmissionNotFound
		}
		return models.Submission{}, err
	}

	if submission.OwnerID != caller.ID {
		return models.Submission{}, ErrSubmissionNotFound
	}

	return submission, nil
}

func (s *submissionService) removeBlobs(ctx context.Context, paths []string, reason string) {
	failed := make([]string, 0, len(paths))
	for _, path := range paths {
		if err := s.store.Delete(ctx, path); err != nil {
			s.logger.Warn().Err(err).Str("path", path).Msg("compensating delete failed")
			failed = append(failed, path)
		}
	}
	if len(failed) > 0 && s.cleanup != nil {
		s.cleanup.Enqueue(ctx, failed, reason)
	}
}
