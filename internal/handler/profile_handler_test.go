package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/peermarking/peermark-api/internal/dto"
)

func completeProfile(t *testing.T, app *fiber.App, userID, role string) dto.ProfileResponse {
	t.Helper()

	payload, err := json.Marshal(dto.CompleteProfileRequest{FullName: "Ada Lovelace", Role: role})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/v1/profile/complete", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	authHeaders(req, userID, role)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var completed struct {
		Success bool                `json:"success"`
		Data    dto.ProfileResponse `json:"data"`
	}
	decodeResponse(t, resp, &completed)
	require.True(t, completed.Success)
	return completed.Data
}

func TestProfileGetBeforeCompletionReturnsNotFound(t *testing.T) {
	app, _, _ := setupApp(t)

	req := httptest.NewRequest("GET", "/api/v1/profile", nil)
	authHeaders(req, "user-1", "")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestProfileCompleteThenGet(t *testing.T) {
	app, _, _ := setupApp(t)

	created := completeProfile(t, app, "user-1", "student")
	require.Equal(t, "user-1", created.ID)
	require.Equal(t, "student", created.Role)

	req := httptest.NewRequest("GET", "/api/v1/profile", nil)
	authHeaders(req, "user-1", "student")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var fetched struct {
		Data dto.ProfileResponse `json:"data"`
	}
	decodeResponse(t, resp, &fetched)
	require.Equal(t, "Ada Lovelace", fetched.Data.FullName)
	require.Equal(t, "user-1@example.com", fetched.Data.Email)
}

func TestProfileRoleChangeRejected(t *testing.T) {
	app, _, _ := setupApp(t)

	completeProfile(t, app, "user-1", "student")

	payload, err := json.Marshal(dto.CompleteProfileRequest{FullName: "Ada Lovelace", Role: "marker"})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/v1/profile/complete", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	authHeaders(req, "user-1", "student")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestProfileAvatarUpload(t *testing.T) {
	app, _, _ := setupApp(t)

	completeProfile(t, app, "user-1", "student")

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := map[string][]string{
		"Content-Disposition": {fmt.Sprintf(`form-data; name="avatar"; filename="%s"`, "avatar.png")},
		"Content-Type":        {"image/png"},
	}
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	png := append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, make([]byte, 64)...)
	_, err = part.Write(png)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/api/v1/profile/avatar", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	authHeaders(req, "user-1", "student")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var uploaded struct {
		Data dto.AvatarResponse `json:"data"`
	}
	decodeResponse(t, resp, &uploaded)
	require.Contains(t, uploaded.Data.AvatarURL, "user-1")
}
