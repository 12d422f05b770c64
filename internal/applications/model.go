package applications

import "time"

// Application status values.
const (
	StatusDraft       = "DRAFT"
	StatusSubmitted   = "SUBMITTED"
	StatusUnderReview = "UNDER_REVIEW"
	StatusAccepted    = "ACCEPTED"
	StatusRejected    = "REJECTED"
	StatusCancelled   = "CANCELLED"
)

// ActiveStatuses are the statuses that block another submission by the
// same applicant against the same form. DRAFT, REJECTED and CANCELLED do
// not block resubmission.
var ActiveStatuses = []string{StatusSubmitted, StatusUnderReview, StatusAccepted}

// ValidStatus reports whether the given application status is known.
func ValidStatus(status string) bool {
	switch status {
	case StatusDraft, StatusSubmitted, StatusUnderReview,
		StatusAccepted, StatusRejected, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsActiveStatus reports whether the status blocks a new submission.
func IsActiveStatus(status string) bool {
	switch status {
	case StatusSubmitted, StatusUnderReview, StatusAccepted:
		return true
	default:
		return false
	}
}

// stampsReviewedAt reports whether entering the status records a review
// timestamp.
func stampsReviewedAt(status string) bool {
	switch status {
	case StatusUnderReview, StatusAccepted, StatusRejected:
		return true
	default:
		return false
	}
}

// Application is one applicant's response to a form. UserID is nil for
// guest submissions, which are identified by applicant email instead.
type Application struct {
	ID              int64      `json:"id"`
	FormID          int64      `json:"formId"`
	UserID          *int64     `json:"userId"`
	ApplicantName   string     `json:"applicantName"`
	ApplicantEmail  string     `json:"applicantEmail"`
	ApplicantPhone  string     `json:"applicantPhone"`
	Status          string     `json:"status"`
	SubmittedAt     *time.Time `json:"submittedAt"`
	ReviewedAt      *time.Time `json:"reviewedAt"`
	ReviewerComment string     `json:"reviewerComment"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Answer holds one application's response to one question. At most one
// answer exists per (application, question); updates overwrite in place.
type Answer struct {
	ID                int64     `json:"id"`
	ApplicationID     int64     `json:"applicationId"`
	QuestionID        int64     `json:"questionId"`
	TextValue         string    `json:"textValue"`
	SelectedOptionIDs []int64   `json:"selectedOptionIds"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}
