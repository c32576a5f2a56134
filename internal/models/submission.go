package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission statuses. A submission moves pending -> under_review -> reviewed
// and never leaves reviewed.
const (
	// SubmissionStatusPending indicates the submission is waiting for a marker.
	SubmissionStatusPending = "pending"
	// SubmissionStatusUnderReview indicates a marker has claimed the submission.
	SubmissionStatusUnderReview = "under_review"
	// SubmissionStatusReviewed indicates the review is complete. Terminal.
	SubmissionStatusReviewed = "reviewed"
)

// PassMark is the score at or above which a reviewed answer counts as a pass.
const PassMark = 50

// FileRef points at a stored blob belonging to a submission.
type FileRef struct {
	Path         string `json:"path"`
	DisplayName  string `json:"display_name"`
	Size         int64  `json:"size"`
	OriginalName string `json:"original_name"`
}

// Submission represents a student's uploaded practice answer and its review
// lifecycle state.
type Submission struct {
	ID       string `gorm:"primaryKey;size:36" json:"id"`
	OwnerID  string `gorm:"size:36;not null;index" json:"owner_id"`
	Paper    string `gorm:"size:8;not null;index" json:"paper"`
	Title    string `gorm:"size:255;not null" json:"title"`
	Question string `gorm:"size:255" json:"question"`
	Notes    string `gorm:"type:text" json:"notes"`

	// Files is the canonical ordered set of uploaded answer files.
	Files datatypes.JSONSlice[FileRef] `json:"files"`

	// Legacy single-file columns from the first schema revision. The
	// repository folds them into Files on read; nothing else touches them.
	LegacyFilePath string `gorm:"column:file_path;size:512" json:"-"`
	LegacyFileName string `gorm:"column:file_name;size:255" json:"-"`
	LegacyFileSize int64  `gorm:"column:file_size" json:"-"`

	MarkerNotes string                       `gorm:"type:text" json:"marker_notes"`
	Score       *int                         `json:"score"`
	MarkedFiles datatypes.JSONSlice[FileRef] `json:"marked_files"`
	MarkerID    *string                      `gorm:"size:36;index" json:"marker_id"`
	Status      string                       `gorm:"size:32;not null;index" json:"status"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ReviewedAt *time.Time `json:"reviewed_at"`
}

// IsPending reports whether the submission is still waiting for a marker.
func (s Submission) IsPending() bool {
	return s.Status == SubmissionStatusPending
}

// IsReviewed reports whether the submission has reached its terminal state.
func (s Submission) IsReviewed() bool {
	return s.Status == SubmissionStatusReviewed
}

// HasFile reports whether path belongs to the submission's own file set,
// original or marked. Download requests for any other path are rejected.
func (s Submission) HasFile(path string) bool {
	for _, f := range s.Files {
		if f.Path == path {
			return true
		}
	}
	for _, f := range s.MarkedFiles {
		if f.Path == path {
			return true
		}
	}
	return false
}

// Passed reports whether a reviewed submission scored at or above the pass
// mark. Returns nil when no score was given.
func (s Submission) Passed() *bool {
	if s.Score == nil {
		return nil
	}
	passed := *s.Score >= PassMark
	return &passed
}
