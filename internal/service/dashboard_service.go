package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/peermarking/peermark-api/internal/dto"
	"github.com/peermarking/peermark-api/internal/models"
	"github.com/peermarking/peermark-api/internal/repository"
)

const dashboardRecentLimit = 5

// DashboardService aggregates per-user statistics for the two landing pages.
type DashboardService interface {
	StudentDashboard(ctx context.Context, caller Caller) (dto.StudentDashboardResponse, error)
	MarkerDashboard(ctx context.Context, caller Caller) (dto.MarkerDashboardResponse, error)
}

type dashboardService struct {
	submissions repository.SubmissionRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
}

// NewDashboardService constructs a DashboardService instance.
func NewDashboardService(repo repository.SubmissionRepository, cache *redis.Client, cacheTTL time.Duration, logger zerolog.Logger) DashboardService {
	return &dashboardService{
		submissions: repo,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger.With().Str("component", "dashboard_service").Logger(),
	}
}

func (s *dashboardService) StudentDashboard(ctx context.Context, caller Caller) (dto.StudentDashboardResponse, error) {
	cacheKey := fmt.Sprintf("dashboard:student:%s", caller.ID)

	var cached dto.StudentDashboardResponse
	if s.readCache(ctx, cacheKey, &cached) {
		return cached, nil
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{OwnerID: &caller.ID})
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	stats := dto.StudentStats{Total: len(submissions)}
	scoreSum := 0
	scored := 0
	for _, submission := range submissions {
		switch submission.Status {
		case models.SubmissionStatusPending:
			stats.Pending++
		case models.SubmissionStatusUnderReview:
			stats.UnderReview++
		case models.SubmissionStatusReviewed:
			stats.Reviewed++
			// Draft reviews may carry a provisional score; only completed
			// reviews count toward the average.
			if submission.Score != nil {
				scoreSum += *submission.Score
				scored++
			}
		}
	}
	if scored > 0 {
		average := scoreSum / scored
		stats.AverageScore = &average
	}

	response := dto.StudentDashboardResponse{
		Stats:  stats,
		Recent: dto.NewSubmissionResponseSlice(recentSubmissions(submissions)),
	}

	s.writeCache(ctx, cacheKey, response)

	return response, nil
}

func (s *dashboardService) MarkerDashboard(ctx context.Context, caller Caller) (dto.MarkerDashboardResponse, error) {
	cacheKey := fmt.Sprintf("dashboard:marker:%s", caller.ID)

	var cached dto.MarkerDashboardResponse
	if s.readCache(ctx, cacheKey, &cached) {
		return cached, nil
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{
		MarkerID: &caller.ID,
		Statuses: []string{models.SubmissionStatusUnderReview, models.SubmissionStatusReviewed},
	})
	if err != nil {
		return dto.MarkerDashboardResponse{}, err
	}

	stats := dto.MarkerStats{}
	scoreSum := 0
	scored := 0
	for _, submission := range submissions {
		switch submission.Status {
		case models.SubmissionStatusUnderReview:
			stats.AssignedReviews++
		case models.SubmissionStatusReviewed:
			stats.CompletedReviews++
			if submission.Score != nil {
				scoreSum += *submission.Score
				scored++
			}
		}
	}
	if scored > 0 {
		average := scoreSum / scored
		stats.AverageScoreGiven = &average
	}

	response := dto.MarkerDashboardResponse{
		Stats:  stats,
		Recent: dto.NewSubmissionResponseSlice(recentSubmissions(submissions)),
	}

	s.writeCache(ctx, cacheKey, response)

	return response, nil
}

func (s *dashboardService) readCache(ctx context.Context, key string, out any) bool {
	if s.cache == nil {
		return false
	}

	cached, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to read dashboard cache")
		}
		return false
	}

	if err := json.Unmarshal([]byte(cached), out); err != nil {
		return false
	}

	s.logger.Debug().Str("key", key).Msg("dashboard cache hit")
	return true
}

func (s *dashboardService) writeCache(ctx context.Context, key string, value any) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to write dashboard cache")
	}
}

// recentSubmissions relies on the repository's newest-first ordering.
func recentSubmissions(submissions []models.Submission) []models.Submission {
	if len(submissions) <= dashboardRecentLimit {
		return submissions
	}
	return submissions[:dashboardRecentLimit]
}
