package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/peermarking/peermark-api/internal/config"
	"github.com/peermarking/peermark-api/internal/handler"
	"github.com/peermarking/peermark-api/internal/models"
	"github.com/peermarking/peermark-api/internal/repository"
	"github.com/peermarking/peermark-api/internal/router"
	"github.com/peermarking/peermark-api/internal/service"
)

type testBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newTestBlobStore() *testBlobStore {
	return &testBlobStore{objects: make(map[string][]byte)}
}

func (s *testBlobStore) Upload(_ context.Context, path string, reader io.Reader, _ string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = data
	return nil
}

func (s *testBlobStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, path)
	return nil
}

func (s *testBlobStore) SignedURL(path string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://storage.test/%s?ttl=%d", path, int(ttl.Seconds())), nil
}

func (s *testBlobStore) paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	paths := make([]string, 0, len(s.objects))
	for path := range s.objects {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

type testCleanupQueue struct{}

func (testCleanupQueue) Enqueue(context.Context, []string, string) {}

type testAvatarStore struct{}

func (testAvatarStore) UploadAvatar(_ context.Context, userID string, _ io.Reader) (string, error) {
	return "https://avatars.test/" + userID + ".png", nil
}

// testJWTMiddleware trusts the X-Test-* headers instead of a real token so a
// single app instance can serve requests from several identities.
func testJWTMiddleware(c *fiber.Ctx) error {
	c.Locals("user_id", c.Get("X-Test-User"))
	c.Locals("user_email", c.Get("X-Test-Email"))
	c.Locals("user_role", c.Get("X-Test-Role"))
	return c.Next()
}

func setupApp(t *testing.T) (*fiber.App, *gorm.DB, *testBlobStore) {
	t.Helper()
	return setupAppWithConfig(t, config.Config{AppName: "peermark-test"})
}

func setupAppWithConfig(t *testing.T, cfg config.Config) (*fiber.App, *gorm.DB, *testBlobStore) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Submission{}, &models.UserProfile{}, &models.Notification{}))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.Nop()
	store := newTestBlobStore()
	cleanup := testCleanupQueue{}

	submissionRepo := repository.NewSubmissionRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	notificationService := service.NewNotificationService(notificationRepo, nil, "", nil, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, store, cleanup, validate, 5*time.Minute, logger)
	reviewService := service.NewReviewService(submissionRepo, store, cleanup, notificationService, validate, 5*time.Minute, logger)
	communityService := service.NewCommunityService(submissionRepo, store, nil, time.Minute, 5*time.Minute, logger)
	dashboardService := service.NewDashboardService(submissionRepo, nil, time.Minute, logger)
	profileService := service.NewProfileService(profileRepo, testAvatarStore{}, validate, logger)

	app := fiber.New()
	router.Register(app, cfg, router.Dependencies{
		SubmissionHandler:   handler.NewSubmissionHandler(submissionService, logger),
		ReviewHandler:       handler.NewReviewHandler(reviewService, logger),
		CommunityHandler:    handler.NewCommunityHandler(communityService, logger),
		DashboardHandler:    handler.NewDashboardHandler(dashboardService, logger),
		ProfileHandler:      handler.NewProfileHandler(profileService, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger),
		JWTMiddleware:       testJWTMiddleware,
	})

	return app, db, store
}

func authHeaders(req *http.Request, userID, role string) {
	req.Header.Set("X-Test-User", userID)
	req.Header.Set("X-Test-Email", userID+"@example.com")
	req.Header.Set("X-Test-Role", role)
}

func decodeResponse(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// submissionForm builds a multipart body carrying the submission fields plus
// one docx answer file per given name.
func submissionForm(t *testing.T, fields map[string]string, fileKey string, names ...string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	for _, name := range names {
		header := make(map[string][]string)
		header["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="%s"; filename="%s"`, fileKey, name)}
		header["Content-Type"] = []string{"application/vnd.openxmlformats-officedocument.wordprocessingml.document"}
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write([]byte("answer body"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func createSubmission(t *testing.T, app *fiber.App, ownerID string) string {
	t.Helper()

	body, contentType := submissionForm(t, map[string]string{
		"title": "FR consolidation attempt",
		"paper": "FR",
	}, "files", "answers.docx")

	req := httptest.NewRequest("POST", "/api/v1/submissions", body)
	req.Header.Set("Content-Type", contentType)
	authHeaders(req, ownerID, "student")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created struct {
		Success bool `json:"success"`
		Data    struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	decodeResponse(t, resp, &created)
	require.True(t, created.Success)
	require.NotEmpty(t, created.Data.ID)
	return created.Data.ID
}
