package dto

import (
	"time"

	"github.com/peermarking/peermark-api/internal/models"
)

// ReviewSubmitRequest is the multipart payload for a draft or final review.
type ReviewSubmitRequest struct {
	MarkerNotes string `form:"marker_notes" validate:"omitempty,max=8000"`
	Score       *int   `form:"score" validate:"omitempty,gte=0,lte=100"`
	Draft       bool   `form:"draft"`
}

// QueueItemResponse summarizes a pending submission for the marker queue.
// Owner details stay hidden; markers only need the work itself.
type QueueItemResponse struct {
	ID         string            `json:"id"`
	Paper      string            `json:"paper"`
	PaperLabel string            `json:"paper_label"`
	Title      string            `json:"title"`
	Question   string            `json:"question,omitempty"`
	Files      []FileRefResponse `json:"files"`
	CreatedAt  time.Time         `json:"created_at"`
}

// NewQueueItemResponse converts a pending submission into a queue entry.
func NewQueueItemResponse(model models.Submission) QueueItemResponse {
	return QueueItemResponse{
		ID:         model.ID,
		Paper:      model.Paper,
		PaperLabel: models.PaperLabel(model.Paper),
		Title:      model.Title,
		Question:   model.Question,
		Files:      NewFileRefResponses(model.Files),
		CreatedAt:  model.CreatedAt,
	}
}

// NewQueueItemResponseSlice converts pending submissions into queue entries.
func NewQueueItemResponseSlice(submissions []models.Submission) []QueueItemResponse {
	responses := make([]QueueItemResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewQueueItemResponse(submission))
	}
	return responses
}
