package dto

import (
	"time"

	"github.com/peermarking/peermark-api/internal/models"
)

// NotificationCreateRequest is the internal payload for publishing a
// lifecycle notification.
type NotificationCreateRequest struct {
	UserID       string `json:"user_id" validate:"required"`
	Type         string `json:"type" validate:"required,oneof=submission.claimed review.completed"`
	Message      string `json:"message" validate:"required,min=1"`
	SubmissionID string `json:"submission_id" validate:"required"`
}

// NotificationResponse serializes one notification.
type NotificationResponse struct {
	ID           uint      `json:"id"`
	UserID       string    `json:"user_id"`
	Type         string    `json:"type"`
	Message      string    `json:"message"`
	SubmissionID string    `json:"submission_id"`
	Read         bool      `json:"read"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewNotificationResponse converts a Notification model into a DTO.
func NewNotificationResponse(model models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:           model.ID,
		UserID:       model.UserID,
		Type:         model.Type,
		Message:      model.Message,
		SubmissionID: model.SubmissionID,
		Read:         model.Read,
		CreatedAt:    model.CreatedAt,
	}
}

// NewNotificationResponseSlice converts notification models into DTOs.
func NewNotificationResponseSlice(notifications []models.Notification) []NotificationResponse {
	responses := make([]NotificationResponse, 0, len(notifications))
	for _, notification := range notifications {
		responses = append(responses, NewNotificationResponse(notification))
	}
	return responses
}
