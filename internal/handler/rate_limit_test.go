package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/peermarking/peermark-api/internal/config"
)

func TestAuthenticatedRoutesAreRateLimited(t *testing.T) {
	app, _, _ := setupAppWithConfig(t, config.Config{
		AppName:         "peermark-test",
		RateLimitMax:    2,
		RateLimitWindow: time.Minute,
	})

	dashboard := func(userID string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/student/dashboard", nil)
		authHeaders(req, userID, "student")
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	require.Equal(t, fiber.StatusOK, dashboard("student-1"))
	require.Equal(t, fiber.StatusOK, dashboard("student-1"))
	require.Equal(t, fiber.StatusTooManyRequests, dashboard("student-1"))

	// Another user's bucket is untouched.
	require.Equal(t, fiber.StatusOK, dashboard("student-2"))
}

func TestRateLimitDisabledWhenUnconfigured(t *testing.T) {
	app, _, _ := setupApp(t)

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/student/dashboard", nil)
		authHeaders(req, "student-1", "student")
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}
