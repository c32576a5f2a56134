package service

import (
	"errors"
	"fmt"

	"github.com/peermarking/peermark-api/internal/models"
)

// Caller identifies the authenticated actor performing an operation. It is
// threaded explicitly into every service call; nothing reads ambient session
// state.
type Caller struct {
	ID    string
	Email string
	Role  models.Role
}

// Sentinel errors returned across the service boundary. Handlers translate
// them into HTTP responses; services never panic or leak raw store errors
// for expected conditions.
var (
	// ErrSubmissionNotFound indicates the submission does not exist or the
	// caller has no relationship that would let them see it.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrNoLongerAvailable indicates a claim lost the race or arrived after
	// assignment. Phrased as availability, not failure.
	ErrNoLongerAvailable = errors.New("submission is no longer available for review")
	// ErrOwnSubmission indicates a marker tried to claim their own work.
	ErrOwnSubmission = errors.New("you cannot review your own submission")
	// ErrNotAssignedMarker indicates the caller is not the submission's marker.
	ErrNotAssignedMarker = errors.New("you do not have permission to review this submission")
	// ErrAlreadyReviewed indicates a write against the terminal state.
	ErrAlreadyReviewed = errors.New("this review has already been completed")
	// ErrFileRequired indicates a submission arrived without any file.
	ErrFileRequired = errors.New("at least one file is required")
	// ErrMarkedFileRequired indicates a final review without a marked file.
	ErrMarkedFileRequired = errors.New("a marked file is required to complete the review")
	// ErrInvalidFilePath indicates a download request for a path outside the
	// submission's own file set.
	ErrInvalidFilePath = errors.New("invalid file path")
	// ErrProfileNotFound indicates the caller has no profile record yet.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrNotificationNotFound indicates the notification does not exist or
	// belongs to another user.
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrRoleAlreadySet indicates an attempt to change a completed profile's role.
	ErrRoleAlreadySet = errors.New("role has already been chosen")
	// ErrStorageFailure wraps blob store upload/delete/sign failures.
	ErrStorageFailure = errors.New("storage failure")
	// ErrPersistenceFailure wraps database write failures.
	ErrPersistenceFailure = errors.New("persistence failure")
)

// FileValidationError names the offending file and the rule it violated.
type FileValidationError struct {
	File   string
	Reason string
}

func (e *FileValidationError) Error() string {
	return fmt.Sprintf("file %q rejected: %s", e.File, e.Reason)
}
