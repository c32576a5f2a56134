package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/peermarking/peermark-api/internal/models"
)

// SubmissionFilter narrows submission queries.
type SubmissionFilter struct {
	OwnerID      *string
	MarkerID     *string
	Status       *string
	Statuses     []string
	ExcludeOwner *string
	Unassigned   bool
	Limit        int

	// NewestReviewedFirst orders by reviewed_at instead of created_at.
	NewestReviewedFirst bool
}

// SubmissionRepository defines data operations for submissions. Claim is the
// single conditional write; every other mutation targets a record already
// owned by or assigned to the caller.
type SubmissionRepository interface {
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)
	GetByID(ctx context.Context, id string) (models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	Update(ctx context.Context, submission *models.Submission) error
	Claim(ctx context.Context, id, markerID string, at time.Time) (bool, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	query := r.db.WithContext(ctx).Model(&models.Submission{})

	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.MarkerID != nil {
		query = query.Where("marker_id = ?", *filter.MarkerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.ExcludeOwner != nil {
		query = query.Where("owner_id <> ?", *filter.ExcludeOwner)
	}
	if filter.Unassigned {
		query = query.Where("marker_id IS NULL")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	order := "created_at DESC"
	if filter.NewestReviewedFirst {
		order = "reviewed_at DESC"
	}

	var submissions []models.Submission
	if err := query.Order(order).Find(&submissions).Error; err != nil {
		return nil, err
	}

	for i := range submissions {
		normalizeFiles(&submissions[i])
	}

	return submissions, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id string) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).First(&submission, "id = ?", id).Error; err != nil {
		return models.Submission{}, err
	}

	normalizeFiles(&submission)

	return submission, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Save(submission).Error
}

// Claim assigns a pending submission to a marker. The status and marker_id
// preconditions ride in the WHERE clause of the same write, so when two
// markers race the store lets exactly one through. Returns false when the
// conditional update matched zero rows.
func (r *submissionRepository) Claim(ctx context.Context, id, markerID string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ? AND status = ? AND marker_id IS NULL", id, models.SubmissionStatusPending).
		Updates(map[string]interface{}{
			"marker_id":  markerID,
			"status":     models.SubmissionStatusUnderReview,
			"updated_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// normalizeFiles folds the legacy single-file columns into the canonical
// file array. Rows written before the multi-file schema carry only the
// legacy columns; everything above the repository sees one representation.
func normalizeFiles(s *models.Submission) {
	if len(s.Files) == 0 && s.LegacyFilePath != "" {
		s.Files = datatypes.NewJSONSlice([]models.FileRef{{
			Path:         s.LegacyFilePath,
			DisplayName:  s.LegacyFileName,
			Size:         s.LegacyFileSize,
			OriginalName: s.LegacyFileName,
		}})
	}
}
