package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/peermarking/peermark-api/internal/dto"
	"github.com/peermarking/peermark-api/internal/models"
	"github.com/peermarking/peermark-api/internal/observability"
	"github.com/peermarking/peermark-api/internal/repository"
)

const communityFeedLimit = 50

const communityFeedCacheKey = "community:feed"

// CommunityService exposes reviewed submissions to every authenticated user,
// with the owner identity scrubbed.
type CommunityService interface {
	List(ctx context.Context) ([]dto.CommunityItemResponse, error)
	Get(ctx context.Context, id string) (dto.CommunityDetailResponse, error)
	DownloadURL(ctx context.Context, id, path string) (dto.DownloadResponse, error)
}

type communityService struct {
	submissions repository.SubmissionRepository
	store       BlobStore
	cache       *redis.Client
	cacheTTL    time.Duration
	urlTTL      time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewCommunityService constructs a CommunityService instance.
func NewCommunityService(repo repository.SubmissionRepository, store BlobStore, cache *redis.Client, cacheTTL, urlTTL time.Duration, logger zerolog.Logger) CommunityService {
	if urlTTL <= 0 {
		urlTTL = 5 * time.Minute
	}
	return &communityService{
		submissions: repo,
		store:       store,
		cache:       cache,
		cacheTTL:    cacheTTL,
		urlTTL:      urlTTL,
		logger:      logger.With().Str("component", "community_service").Logger(),
		now:         time.Now,
	}
}

func (s *communityService) List(ctx context.Context) ([]dto.CommunityItemResponse, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, communityFeedCacheKey).Result(); err == nil {
			var feed []dto.CommunityItemResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &feed); unmarshalErr == nil {
				s.logger.Debug().Msg("community feed cache hit")
				return feed, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read community feed cache")
		}
	}

	reviewed := models.SubmissionStatusReviewed
	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{
		Status:              &reviewed,
		Limit:               communityFeedLimit,
		NewestReviewedFirst: true,
	})
	if err != nil {
		return nil, err
	}

	feed := dto.NewCommunityItemResponseSlice(submissions)

	if s.cache != nil {
		if payload, err := json.Marshal(feed); err == nil {
			if err := s.cache.Set(ctx, communityFeedCacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store community feed cache")
			}
		}
	}

	return feed, nil
}

func (s *communityService) Get(ctx context.Context, id string) (dto.CommunityDetailResponse, error) {
	submission, err := s.reviewedSubmission(ctx, id)
	if err != nil {
		return dto.CommunityDetailResponse{}, err
	}

	return dto.NewCommunityDetailResponse(submission), nil
}

func (s *communityService) DownloadURL(ctx context.Context, id, path string) (dto.DownloadResponse, error) {
	submission, err := s.reviewedSubmission(ctx, id)
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

	observability.SignedURLsIssued().WithLabelValues("community").Inc()

	return dto.DownloadResponse{URL: url, ExpiresAt: s.now().Add(s.urlTTL)}, nil
}

// reviewedSubmission resolves a submission for the community path. Anything
// not yet reviewed reads as not-found; the feed never confirms work in
// progress.
func (s *communityService) reviewedSubmission(ctx context.Context, id string) (models.Submission, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, ErrSubmissionNotFound
		}
		return models.Submission{}, err
	}

	if !submission.IsReviewed() {
		return models.Submission{}, ErrSubmissionNotFound
	}

	return submission, nil
}
