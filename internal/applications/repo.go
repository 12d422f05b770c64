package applications

import "context"

// ListFilter narrows application list queries. Zero values match all.
type ListFilter struct {
	FormID int64
	Status string
	UserID int64
	Email  string
}

// Repo defines persistence operations for applications and answers.
// CreateApplication and UpdateAnswer are atomic per call: the application
// (or answer) row and its selected-option links commit together.
type Repo interface {
	// CreateApplication inserts the application with all its answers and
	// their selected options in one transaction.
	CreateApplication(ctx context.Context, app Application, answers []Answer) (int64, error)
	Get(ctx context.Context, id int64) (Application, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]Application, error)
	Update(ctx context.Context, app Application) error
	Delete(ctx context.Context, id int64) error

	// HasActive reports whether the applicant already holds an application
	// against the form in an active status. userID takes precedence; when
	// nil the email identifies the applicant.
	HasActive(ctx context.Context, formID int64, userID *int64, email string) (bool, error)
	// CountByForm counts applications submitted against a form.
	CountByForm(ctx context.Context, formID int64) (int, error)

	ListAnswers(ctx context.Context, applicationID int64) ([]Answer, error)
	// GetAnswer looks up the answer for one question of one application;
	// ErrNotFound when absent.
	GetAnswer(ctx context.Context, applicationID, questionID int64) (Answer, error)
	CreateAnswer(ctx context.Context, answer Answer) (int64, error)
	// UpdateAnswer overwrites the text value and replaces the whole
	// selected-option set in one transaction.
	UpdateAnswer(ctx context.Context, answer Answer) error
}
