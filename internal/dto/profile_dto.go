package dto

import (
	"time"

	"github.com/peermarking/peermark-api/internal/models"
)

// CompleteProfileRequest sets the account's display name and role. The role
// choice is permanent.
type CompleteProfileRequest struct {
	FullName string `json:"full_name" validate:"required,min=2,max=255"`
	Role     string `json:"role" validate:"required,oneof=student marker"`
}

// ProfileResponse serializes an account profile.
type ProfileResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// AvatarResponse is returned after an avatar image upload.
type AvatarResponse struct {
	AvatarURL string `json:"avatar_url"`
}

// NewProfileResponse converts a UserProfile model into a DTO.
func NewProfileResponse(model models.UserProfile) ProfileResponse {
	return ProfileResponse{
		ID:        model.ID,
		Email:     model.Email,
		FullName:  model.FullName,
		AvatarURL: model.AvatarURL,
		Role:      model.Role.String(),
		CreatedAt: model.CreatedAt,
	}
}
