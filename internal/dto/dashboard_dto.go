package dto

// StudentStats aggregates the student's submission lifecycle counters.
type StudentStats struct {
	Total        int  `json:"total"`
	Pending      int  `json:"pending"`
	UnderReview  int  `json:"under_review"`
	Reviewed     int  `json:"reviewed"`
	AverageScore *int `json:"average_score"`
}

// StudentDashboardResponse is returned by the student dashboard endpoint.
type StudentDashboardResponse struct {
	Stats  StudentStats         `json:"stats"`
	Recent []SubmissionResponse `json:"recent"`
}

// MarkerStats aggregates the marker's reviewing workload.
type MarkerStats struct {
	AssignedReviews   int  `json:"assigned_reviews"`
	CompletedReviews  int  `json:"completed_reviews"`
	AverageScoreGiven *int `json:"average_score_given"`
}

// MarkerDashboardResponse is returned by the marker dashboard endpoint.
type MarkerDashboardResponse struct {
	Stats  MarkerStats          `json:"stats"`
	Recent []SubmissionResponse `json:"recent"`
}
