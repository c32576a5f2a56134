package dto

import (
	"time"

	"github.com/peermarking/peermark-api/internal/models"
)

// AnonymousOwner replaces the owner identity on every community response.
const AnonymousOwner = "anonymous"

// CommunityItemResponse summarizes a reviewed submission for the public feed.
type CommunityItemResponse struct {
	ID         string     `json:"id"`
	Paper      string     `json:"paper"`
	PaperLabel string     `json:"paper_label"`
	Title      string     `json:"title"`
	Question   string     `json:"question,omitempty"`
	Score      *int       `json:"score"`
	Passed     *bool      `json:"passed"`
	ReviewedAt *time.Time `json:"reviewed_at"`
}

// CommunityDetailResponse is the anonymized full view of a reviewed submission.
type CommunityDetailResponse struct {
	ID          string            `json:"id"`
	OwnerID     string            `json:"owner_id"`
	Paper       string            `json:"paper"`
	PaperLabel  string            `json:"paper_label"`
	Title       string            `json:"title"`
	Question    string            `json:"question,omitempty"`
	Files       []FileRefResponse `json:"files"`
	MarkerNotes string            `json:"marker_notes,omitempty"`
	Score       *int              `json:"score"`
	Passed      *bool             `json:"passed"`
	MarkedFiles []FileRefResponse `json:"marked_files"`
	CreatedAt   time.Time         `json:"created_at"`
	ReviewedAt  *time.Time        `json:"reviewed_at"`
}

// NewCommunityItemResponse converts a reviewed submission into a feed entry.
func NewCommunityItemResponse(model models.Submission) CommunityItemResponse {
	return CommunityItemResponse{
		ID:         model.ID,
		Paper:      model.Paper,
		PaperLabel: models.PaperLabel(model.Paper),
		Title:      model.Title,
		Question:   model.Question,
		Score:      model.Score,
		Passed:     model.Passed(),
		ReviewedAt: model.ReviewedAt,
	}
}

// NewCommunityItemResponseSlice converts reviewed submissions into feed entries.
func NewCommunityItemResponseSlice(submissions []models.Submission) []CommunityItemResponse {
	responses := make([]CommunityItemResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewCommunityItemResponse(submission))
	}
	return responses
}

// NewCommunityDetailResponse converts a reviewed submission into its
// anonymized detail view. The owner identity never leaves the service.
func NewCommunityDetailResponse(model models.Submission) CommunityDetailResponse {
	return CommunityDetailResponse{
		ID:          model.ID,
		OwnerID:     AnonymousOwner,
		Paper:       model.Paper,
		PaperLabel:  models.PaperLabel(model.Paper),
		Title:       model.Title,
		Question:    model.Question,
		Files:       NewFileRefResponses(model.Files),
		MarkerNotes: model.MarkerNotes,
		Score:       model.Score,
		Passed:      model.Passed(),
		MarkedFiles: NewFileRefResponses(model.MarkedFiles),
		CreatedAt:   model.CreatedAt,
		ReviewedAt:  model.ReviewedAt,
	}
}
