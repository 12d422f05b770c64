package forms

import "time"

// Form status values.
const (
	StatusDraft     = "DRAFT"
	StatusPublished = "PUBLISHED"
	StatusClosed    = "CLOSED"
)

// Question types.
const (
	TypeShortText      = "SHORT_TEXT"
	TypeLongText       = "LONG_TEXT"
	TypeSingleChoice   = "SINGLE_CHOICE"
	TypeMultipleChoice = "MULTIPLE_CHOICE"
	TypeDropdown       = "DROPDOWN"
	TypeDate           = "DATE"
	TypeEmail          = "EMAIL"
	TypePhone          = "PHONE"
	TypeNumber         = "NUMBER"
)

// IsChoiceType reports whether a question type carries selectable options.
func IsChoiceType(questionType string) bool {
	switch questionType {
	case TypeSingleChoice, TypeMultipleChoice, TypeDropdown:
		return true
	default:
		return false
	}
}

// ValidQuestionType reports whether the given type is known.
func ValidQuestionType(questionType string) bool {
	switch questionType {
	case TypeShortText, TypeLongText, TypeSingleChoice, TypeMultipleChoice,
		TypeDropdown, TypeDate, TypeEmail, TypePhone, TypeNumber:
		return true
	default:
		return false
	}
}

// ValidStatus reports whether the given form status is known.
func ValidStatus(status string) bool {
	switch status {
	case StatusDraft, StatusPublished, StatusClosed:
		return true
	default:
		return false
	}
}

// Form is an admin-authored application template containing ordered questions.
type Form struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Question is a single prompt within a form. Questions of one form keep a
// contiguous 1..N question order.
type Question struct {
	ID          int64     `json:"id"`
	FormID      int64     `json:"formId"`
	Type        string    `json:"questionType"`
	Content     string    `json:"content"`
	Required    bool      `json:"required"`
	Order       int       `json:"questionOrder"`
	Placeholder string    `json:"placeholder"`
	HelpText    string    `json:"helpText"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Option is a selectable choice belonging to a choice-type question. Options
// of one question keep a contiguous 1..N option order.
type Option struct {
	ID         int64     `json:"id"`
	QuestionID int64     `json:"questionId"`
	Content    string    `json:"content"`
	Order      int       `json:"optionOrder"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
