package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/peermarking/peermark-api/internal/models"
)

func TestStudentDashboardAggregatesLifecycleCounters(t *testing.T) {
	repo := newMemorySubmissionRepo()
	repo.seed(pendingSubmission("sub-1", "student-1"))
	claimedSubmission(repo, t, "sub-2", "student-1", "marker-1")
	repo.seed(reviewedSubmissionFixture("sub-3", "student-1", "marker-1", 60, time.Now()))
	repo.seed(reviewedSubmissionFixture("sub-4", "student-1", "marker-2", 45, time.Now()))
	repo.seed(pendingSubmission("sub-5", "student-2"))

	svc := NewDashboardService(repo, nil, time.Minute, testLogger())

	dashboard, err := svc.StudentDashboard(context.Background(), Caller{ID: "student-1"})
	require.NoError(t, err)

	require.Equal(t, 4, dashboard.Stats.Total)
	require.Equal(t, 1, dashboard.Stats.Pending)
	require.Equal(t, 1, dashboard.Stats.UnderReview)
	require.Equal(t, 2, dashboard.Stats.Reviewed)
	require.NotNil(t, dashboard.Stats.AverageScore)
	require.Equal(t, 52, *dashboard.Stats.AverageScore)
	require.Len(t, dashboard.Recent, 4)
}

func draftScoredSubmission(id, ownerID, markerID string, score int) models.Submission {
	submission := reviewedSubmissionFixture(id, ownerID, markerID, score, time.Now())
	submission.Status = models.SubmissionStatusUnderReview
	submission.ReviewedAt = nil
	submission.MarkedFiles = nil
	return submission
}

func TestStudentDashboardIgnoresDraftScores(t *testing.T) {
	repo := newMemorySubmissionRepo()
	repo.seed(reviewedSubmissionFixture("sub-1", "student-1", "marker-1", 80, time.Now()))
	repo.seed(draftScoredSubmission("sub-2", "student-1", "marker-2", 10))

	svc := NewDashboardService(repo, nil, time.Minute, testLogger())

	dashboard, err := svc.StudentDashboard(context.Background(), Caller{ID: "student-1"})
	require.NoError(t, err)

	require.Equal(t, 1, dashboard.Stats.Reviewed)
	require.Equal(t, 1, dashboard.Stats.UnderReview)
	require.NotNil(t, dashboard.Stats.AverageScore)
	require.Equal(t, 80, *dashboard.Stats.AverageScore)
}

func TestMarkerDashboardIgnoresDraftScores(t *testing.T) {
	repo := newMemorySubmissionRepo()
	repo.seed(reviewedSubmissionFixture("sub-1", "student-1", "marker-1", 90, time.Now()))
	repo.seed(draftScoredSubmission("sub-2", "student-2", "marker-1", 20))

	svc := NewDashboardService(repo, nil, time.Minute, testLogger())

	dashboard, err := svc.MarkerDashboard(context.Background(), Caller{ID: "marker-1"})
	require.NoError(t, err)

	require.Equal(t, 1, dashboard.Stats.AssignedReviews)
	require.Equal(t, 1, dashboard.Stats.CompletedReviews)
	require.NotNil(t, dashboard.Stats.AverageScoreGiven)
	require.Equal(t, 90, *dashboard.Stats.AverageScoreGiven)
}

func TestStudentDashboardOmitsAverageWithoutScores(t *testing.T) {
	repo := newMemorySubmissionRepo()
	repo.seed(pendingSubmission("sub-1", "student-1"))

	svc := NewDashboardService(repo, nil, time.Minute, testLogger())

	dashboard, err := svc.StudentDashboard(context.Background(), Caller{ID: "student-1"})
	require.NoError(t, err)
	require.Nil(t, dashboard.Stats.AverageScore)
}

func TestStudentDashboardLimitsRecentSubmissions(t *testing.T) {
	repo := newMemorySubmissionRepo()
	for i := 0; i < dashboardRecentLimit+3; i++ {
		repo.seed(pendingSubmission(fmt.Sprintf("sub-%d", i), "student-1"))
	}

	svc := NewDashboardService(repo, nil, time.Minute, testLogger())

	dashboard, err := svc.StudentDashboard(context.Background(), Caller{ID: "student-1"})
	require.NoError(t, err)
	require.Equal(t, dashboardRecentLimit+3, dashboard.Stats.Total)
	require.Len(t, dashboard.Recent, dashboardRecentLimit)
}

func TestMarkerDashboardSplitsActiveAndCompleted(t *testing.T) {
	repo := newMemorySubmissionRepo()
	claimedSubmission(repo, t, "sub-1", "student-1", "marker-1")
	claimedSubmission(repo, t, "sub-2", "student-2", "marker-1")
	repo.seed(reviewedSubmissionFixture("sub-3", "student-3", "marker-1", 70, time.Now()))
	repo.seed(reviewedSubmissionFixture("sub-4", "student-4", "marker-2", 30, time.Now()))

	svc := NewDashboardService(repo, nil, time.Minute, testLogger())

	dashboard, err := svc.MarkerDashboard(context.Background(), Caller{ID: "marker-1"})
	require.NoError(t, err)

	require.Equal(t, 2, dashboard.Stats.AssignedReviews)
	require.Equal(t, 1, dashboard.Stats.CompletedReviews)
	require.NotNil(t, dashboard.Stats.AverageScoreGiven)
	require.Equal(t, 70, *dashboard.Stats.AverageScoreGiven)
}

func TestStudentDashboardServesFromCache(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	repo := newMemorySubmissionRepo()
	repo.seed(pendingSubmission("sub-1", "student-1"))

	svc := NewDashboardService(repo, redisClient, time.Minute, testLogger())

	first, err := svc.StudentDashboard(context.Background(), Caller{ID: "student-1"})
	require.NoError(t, err)
	require.Equal(t, 1, first.Stats.Total)

	repo.seed(pendingSubmission("sub-2", "student-1"))

	second, err := svc.StudentDashboard(context.Background(), Caller{ID: "student-1"})
	require.NoError(t, err)
	require.Equal(t, 1, second.Stats.Total)

	server.FastForward(2 * time.Minute)

	third, err := svc.StudentDashboard(context.Background(), Caller{ID: "student-1"})
	require.NoError(t, err)
	require.Equal(t, 2, third.Stats.Total)
}
