package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/peermarking/peermark-api/internal/dto"
	"github.com/peermarking/peermark-api/internal/models"
	"github.com/peermarking/peermark-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type memorySubmissionRepo struct {
	mu          sync.Mutex
	submissions map[string]models.Submission
	failCreate  error
	failUpdate  error
}

func newMemorySubmissionRepo() *memorySubmissionRepo {
	return &memorySubmissionRepo{submissions: make(map[string]models.Submission)}
}

func (m *memorySubmissionRepo) List(_ context.Context, filter repository.SubmissionFilter) ([]models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	results := make([]models.Submission, 0, len(m.submissions))
	for _, submission := range m.submissions {
		if filter.OwnerID != nil && submission.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.MarkerID != nil && (submission.MarkerID == nil || *submission.MarkerID != *filter.MarkerID) {
			continue
		}
		if filter.Status != nil && submission.Status != *filter.Status {
			continue
		}
		if len(filter.Statuses) > 0 {
			matched := false
			for _, status := range filter.Statuses {
				if submission.Status == status {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		if filter.ExcludeOwner != nil && submission.OwnerID == *filter.ExcludeOwner {
			continue
		}
		if filter.Unassigned && submission.MarkerID != nil {
			continue
		}
		results = append(results, submission)
	}

	sort.Slice(results, func(i, j int) bool {
		if filter.NewestReviewedFirst {
			left, right := results[i].ReviewedAt, results[j].ReviewedAt
			if left != nil && right != nil {
				return left.After(*right)
			}
			return left != nil
		}
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})

	if filter.Limit > 0 && len(results) > filter.Limit {
		results = results[:filter.Limit]
	}

	return results, nil
}

func (m *memorySubmissionRepo) GetByID(_ context.Context, id string) (models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	submission, ok := m.submissions[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return submission, nil
}

func (m *memorySubmissionRepo) Create(_ context.Context, submission *models.Submission) error {
	if m.failCreate != nil {
		return m.failCreate
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	submission.CreatedAt = time.Now()
	submission.UpdatedAt = submission.CreatedAt
	m.submissions[submission.ID] = *submission
	return nil
}

func (m *memorySubmissionRepo) Update(_ context.Context, submission *models.Submission) error {
	if m.failUpdate != nil {
		return m.failUpdate
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.submissions[submission.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	submission.UpdatedAt = time.Now()
	m.submissions[submission.ID] = *submission
	return nil
}

func (m *memorySubmissionRepo) Claim(_ context.Context, id, markerID string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	submission, ok := m.submissions[id]
	if !ok || submission.Status != models.SubmissionStatusPending || submission.MarkerID != nil {
		return false, nil
	}

	submission.MarkerID = &markerID
	submission.Status = models.SubmissionStatusUnderReview
	submission.UpdatedAt = at
	m.submissions[id] = submission
	return true, nil
}

func (m *memorySubmissionRepo) seed(submission models.Submission) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submissions[submission.ID] = submission
}

type stubBlobStore struct {
	mu          sync.Mutex
	objects     map[string][]byte
	uploadCalls int
	deleteCalls int
	failUploads map[int]error
	failDelete  bool
}

func newStubBlobStore() *stubBlobStore {
	return &stubBlobStore{objects: make(map[string][]byte)}
}

func (s *stubBlobStore) Upload(_ context.Context, path string, reader io.Reader, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.uploadCalls++
	if err, ok := s.failUploads[s.uploadCalls]; ok {
		return err
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.objects[path] = data
	return nil
}

func (s *stubBlobStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteCalls++
	if s.failDelete {
		return fmt.Errorf("delete refused")
	}
	delete(s.objects, path)
	return nil
}

func (s *stubBlobStore) SignedURL(path string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://storage.example.com/%s?ttl=%d", path, int(ttl.Seconds())), nil
}

func (s *stubBlobStore) paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths := make([]string, 0, len(s.objects))
	for path := range s.objects {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

type stubCleanupQueue struct {
	mu       sync.Mutex
	enqueued [][]string
}

func (s *stubCleanupQueue) Enqueue(_ context.Context, paths []string, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enqueued = append(s.enqueued, paths)
}

type stubNotifier struct {
	mu        sync.Mutex
	published []dto.NotificationCreateRequest
}

func (s *stubNotifier) Publish(_ context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = append(s.published, payload)
	return dto.NotificationResponse{UserID: payload.UserID, Type: payload.Type}, nil
}

// makeUpload builds a multipart file header carrying the given bytes and
// declared content type, the way fiber hands them to the service layer.
func makeUpload(t *testing.T, name, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, name))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	files := form.File["files"]
	require.Len(t, files, 1)
	return files[0]
}

func docxBytes(size int) []byte {
	return bytes.Repeat([]byte("a"), size)
}

func strPtr(s string) *string {
	return &s
}

func intPtr(i int) *int {
	return &i
}
