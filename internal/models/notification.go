package models

import "time"

// Notification types emitted by the submission lifecycle.
const (
	// NotificationSubmissionClaimed tells a student a marker picked up their work.
	NotificationSubmissionClaimed = "submission.claimed"
	// NotificationReviewCompleted tells a student their feedback is ready.
	NotificationReviewCompleted = "review.completed"
)

// Notification represents a push notification targeted to a specific user.
type Notification struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       string    `gorm:"size:36;index" json:"user_id"`
	Type         string    `gorm:"size:64" json:"type"`
	Message      string    `gorm:"type:text" json:"message"`
	SubmissionID string    `gorm:"size:36;index" json:"submission_id"`
	Read         bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
