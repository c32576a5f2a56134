package handler_test

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/peermarking/peermark-api/internal/dto"
)

func completeReview(t *testing.T, app *fiber.App, markerID, submissionID, score string) {
	t.Helper()

	body, contentType := submissionForm(t, map[string]string{
		"marker_notes": "reviewed",
		"score":        score,
	}, "marked_files", "feedback.pdf")

	req := httptest.NewRequest("POST", "/api/v1/reviews/"+submissionID, body)
	req.Header.Set("Content-Type", contentType)
	authHeaders(req, markerID, "marker")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestCommunityFeedShowsOnlyReviewedWork(t *testing.T) {
	app, _, _ := setupApp(t)

	reviewedID := createSubmission(t, app, "student-1")
	claimSubmission(t, app, "marker-1", reviewedID)
	completeReview(t, app, "marker-1", reviewedID, "72")

	createSubmission(t, app, "student-2")

	req := httptest.NewRequest("GET", "/api/v1/community", nil)
	authHeaders(req, "student-2", "student")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var feed struct {
		Success bool                        `json:"success"`
		Data    []dto.CommunityItemResponse `json:"data"`
	}
	decodeResponse(t, resp, &feed)
	require.Len(t, feed.Data, 1)
	require.Equal(t, reviewedID, feed.Data[0].ID)
	require.NotNil(t, feed.Data[0].Passed)
	require.True(t, *feed.Data[0].Passed)
}

func TestCommunityDetailIsAnonymized(t *testing.T) {
	app, _, _ := setupApp(t)

	id := createSubmission(t, app, "student-1")
	claimSubmission(t, app, "marker-1", id)
	completeReview(t, app, "marker-1", id, "41")

	req := httptest.NewRequest("GET", "/api/v1/community/"+id, nil)
	authHeaders(req, "marker-2", "marker")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var detail struct {
		Data dto.CommunityDetailResponse `json:"data"`
	}
	decodeResponse(t, resp, &detail)
	require.Equal(t, dto.AnonymousOwner, detail.Data.OwnerID)
	require.NotNil(t, detail.Data.Passed)
	require.False(t, *detail.Data.Passed)
	require.NotEmpty(t, detail.Data.MarkedFiles)
}

func TestCommunityHidesPendingSubmissions(t *testing.T) {
	app, _, _ := setupApp(t)

	id := createSubmission(t, app, "student-1")

	req := httptest.NewRequest("GET", "/api/v1/community/"+id, nil)
	authHeaders(req, "student-1", "student")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCommunityRejectsUnknownRole(t *testing.T) {
	app, _, _ := setupApp(t)

	req := httptest.NewRequest("GET", "/api/v1/community", nil)
	authHeaders(req, "user-1", "")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
