package forms

import (
	"context"
	"time"
)

// NewQuestion bundles a question with its inline options for atomic creation.
type NewQuestion struct {
	Question Question
	Options  []Option
}

// Repo defines persistence operations for forms, questions and options.
// Multi-row mutations (create with inline questions, delete with sibling
// resequencing) are atomic per call.
type Repo interface {
	CreateForm(ctx context.Context, form Form, questions []NewQuestion) (int64, error)
	GetForm(ctx context.Context, id int64) (Form, error)
	// ListForms returns forms filtered by status ("" matches all), newest first.
	ListForms(ctx context.Context, status string, limit, offset int) ([]Form, error)
	// ListActiveForms returns published forms whose date window contains now.
	ListActiveForms(ctx context.Context, now time.Time) ([]Form, error)
	UpdateForm(ctx context.Context, form Form) error
	DeleteForm(ctx context.Context, id int64) error

	AddQuestion(ctx context.Context, question Question, options []Option) (int64, error)
	GetQuestion(ctx context.Context, id int64) (Question, error)
	ListQuestions(ctx context.Context, formID int64) ([]Question, error)
	CountQuestions(ctx context.Context, formID int64) (int, error)
	UpdateQuestion(ctx context.Context, question Question) error
	// DeleteQuestion removes the question and rewrites surviving siblings'
	// order to a contiguous 1..N sequence in the same transaction.
	DeleteQuestion(ctx context.Context, id int64) error

	AddOption(ctx context.Context, option Option) (int64, error)
	GetOption(ctx context.Context, id int64) (Option, error)
	ListOptions(ctx context.Context, questionID int64) ([]Option, error)
	CountOptions(ctx context.Context, questionID int64) (int, error)
	UpdateOption(ctx context.Context, option Option) error
	// DeleteOption removes the option and resequences surviving siblings,
	// mirroring DeleteQuestion.
	DeleteOption(ctx context.Context, id int64) error

	// CountApplications counts applications submitted against a form, for
	// list projections.
	CountApplications(ctx context.Context, formID int64) (int, error)
}
