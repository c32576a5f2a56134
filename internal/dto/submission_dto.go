package dto

import (
	"time"

	"github.com/peermarking/peermark-api/internal/models"
)

// SubmissionCreateRequest describes the multipart payload for a new submission.
type SubmissionCreateRequest struct {
	Title    string `form:"title" validate:"required,min=3,max=255"`
	Paper    string `form:"paper" validate:"required,oneof=PM FM FR AA TX SBL SBR AFM APM ATX AAA"`
	Question string `form:"question" validate:"omitempty,max=255"`
	Notes    string `form:"notes" validate:"omitempty,max=4000"`
}

// FileRefResponse serializes a stored file reference.
type FileRefResponse struct {
	Path         string `json:"path"`
	DisplayName  string `json:"display_name"`
	Size         int64  `json:"size"`
	OriginalName string `json:"original_name"`
}

// SubmissionResponse is returned to the submission's owner and its marker.
type SubmissionResponse struct {
	ID          string            `json:"id"`
	OwnerID     string            `json:"owner_id"`
	Paper       string            `json:"paper"`
	PaperLabel  string            `json:"paper_label"`
	Title       string            `json:"title"`
	Question    string            `json:"question,omitempty"`
	Notes       string            `json:"notes,omitempty"`
	Files       []FileRefResponse `json:"files"`
	MarkerNotes string            `json:"marker_notes,omitempty"`
	Score       *int              `json:"score"`
	Passed      *bool             `json:"passed"`
	MarkedFiles []FileRefResponse `json:"marked_files"`
	MarkerID    *string           `json:"marker_id"`
	Status      string            `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	ReviewedAt  *time.Time        `json:"reviewed_at"`
}

// DownloadResponse carries a short-lived signed URL for one stored file.
type DownloadResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewFileRefResponses converts stored file references for serialization.
func NewFileRefResponses(refs []models.FileRef) []FileRefResponse {
	out := make([]FileRefResponse, 0, len(refs))
	for _, ref := range refs {
		out = append(out, FileRefResponse{
			Path:         ref.Path,
			DisplayName:  ref.DisplayName,
			Size:         ref.Size,
			OriginalName: ref.OriginalName,
		})
	}
	return out
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:          model.ID,
		OwnerID:     model.OwnerID,
		Paper:       model.Paper,
		PaperLabel:  models.PaperLabel(model.Paper),
		Title:       model.Title,
		Question:    model.Question,
		Notes:       model.Notes,
		Files:       NewFileRefResponses(model.Files),
		MarkerNotes: model.MarkerNotes,
		Score:       model.Score,
		Passed:      model.Passed(),
		MarkedFiles: NewFileRefResponses(model.MarkedFiles),
		MarkerID:    model.MarkerID,
		Status:      model.Status,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
		ReviewedAt:  model.ReviewedAt,
	}
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}
	return responses
}
