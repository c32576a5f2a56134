package handler_test

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/peermarking/peermark-api/internal/dto"
)

func TestStudentDashboardEndpoint(t *testing.T) {
	app, _, _ := setupApp(t)

	createSubmission(t, app, "student-1")
	id := createSubmission(t, app, "student-1")
	claimSubmission(t, app, "marker-1", id)

	req := httptest.NewRequest("GET", "/api/v1/student/dashboard", nil)
	authHeaders(req, "student-1", "student")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var dashboard struct {
		Success bool                         `json:"success"`
		Data    dto.StudentDashboardResponse `json:"data"`
	}
	decodeResponse(t, resp, &dashboard)
	require.Equal(t, 2, dashboard.Data.Stats.Total)
	require.Equal(t, 1, dashboard.Data.Stats.Pending)
	require.Equal(t, 1, dashboard.Data.Stats.UnderReview)
	require.Len(t, dashboard.Data.Recent, 2)
}

func TestMarkerDashboardEndpoint(t *testing.T) {
	app, _, _ := setupApp(t)

	id := createSubmission(t, app, "student-1")
	claimSubmission(t, app, "marker-1", id)

	req := httptest.NewRequest("GET", "/api/v1/marker/dashboard", nil)
	authHeaders(req, "marker-1", "marker")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var dashboard struct {
		Data dto.MarkerDashboardResponse `json:"data"`
	}
	decodeResponse(t, resp, &dashboard)
	require.Equal(t, 1, dashboard.Data.Stats.AssignedReviews)
	require.Zero(t, dashboard.Data.Stats.CompletedReviews)
}

func TestDashboardRoleSeparation(t *testing.T) {
	app, _, _ := setupApp(t)

	req := httptest.NewRequest("GET", "/api/v1/marker/dashboard", nil)
	authHeaders(req, "student-1", "student")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
