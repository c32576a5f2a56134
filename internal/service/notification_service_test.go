package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/peermarking/peermark-api/internal/dto"
	"github.com/peermarking/peermark-api/internal/models"
)

type stubNotificationRepo struct {
	markReadErr error
}

func (s *stubNotificationRepo) Create(_ context.Context, notification *models.Notification) error {
	notification.ID = 1
	return nil
}

func (s *stubNotificationRepo) ListByUser(context.Context, string, int, int) ([]models.Notification, error) {
	return nil, nil
}

func (s *stubNotificationRepo) MarkRead(_ context.Context, id uint, userID string) (models.Notification, error) {
	if s.markReadErr != nil {
		return models.Notification{}, s.markReadErr
	}
	return models.Notification{ID: id, UserID: userID, Read: true}, nil
}

func newTestNotificationService(repo *stubNotificationRepo) *notificationService {
	svc := NewNotificationService(repo, nil, "", nil, validator.New(), testLogger())
	return svc.(*notificationService)
}

func TestMarkReadMapsMissingRecordToSentinel(t *testing.T) {
	svc := newTestNotificationService(&stubNotificationRepo{markReadErr: gorm.ErrRecordNotFound})

	_, err := svc.MarkRead(context.Background(), 42, "student-1")
	require.ErrorIs(t, err, ErrNotificationNotFound)
}

func TestMarkReadPassesThroughPersistenceErrors(t *testing.T) {
	dbDown := errors.New("database connection lost")
	svc := newTestNotificationService(&stubNotificationRepo{markReadErr: dbDown})

	_, err := svc.MarkRead(context.Background(), 42, "student-1")
	require.ErrorIs(t, err, dbDown)
	require.NotErrorIs(t, err, ErrNotificationNotFound)
}

func TestRemoteEventDeliveredOncePerTransport(t *testing.T) {
	svc := newTestNotificationService(&stubNotificationRepo{})

	stream, cleanup := svc.Subscribe("student-1")
	defer cleanup()

	event := notificationEvent{
		ID:     "evt-1",
		Source: "remote-node",
		Notification: dto.NotificationResponse{
			ID:      7,
			UserID:  "student-1",
			Type:    models.NotificationSubmissionClaimed,
			Message: "your submission has been claimed",
		},
		SentAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	// The same event arrives via the redis stream and the NATS subject.
	svc.handleEvent(payload)
	svc.handleEvent(payload)

	require.Len(t, stream, 1)
	delivered := <-stream
	require.Equal(t, uint(7), delivered.ID)
}

func TestLocalEventsNotEchoedBack(t *testing.T) {
	svc := newTestNotificationService(&stubNotificationRepo{})

	stream, cleanup := svc.Subscribe("student-1")
	defer cleanup()

	event := notificationEvent{
		ID:     "evt-2",
		Source: svc.nodeID,
		Notification: dto.NotificationResponse{
			UserID: "student-1",
		},
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	svc.handleEvent(payload)
	require.Empty(t, stream)
}
