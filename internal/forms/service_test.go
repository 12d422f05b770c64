package forms

import (
	"context"
	"errors"
	"testing"
)

func newTestService() *Service {
	return NewService(NewMemoryRepo())
}

func strPtr(s string) *string { return &s }

func TestCreateFormDefaultsAndInlineQuestions(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	detail, err := svc.CreateForm(ctx, CreateFormRequest{
		Title: "2026 Spring Recruitment",
		Questions: []CreateQuestionRequest{
			{Type: "SHORT_TEXT", Content: "Name"},
			{Type: "SINGLE_CHOICE", Content: "Track", Options: []CreateOptionRequest{
				{Content: "Backend"},
				{Content: "Frontend"},
			}},
			{Type: "LONG_TEXT", Content: "Motivation"},
		},
	})
	if err != nil {
		t.Fatalf("CreateForm: %v", err)
	}

	if detail.Status != StatusDraft {
		t.Fatalf("expected default status DRAFT, got %s", detail.Status)
	}
	if len(detail.Questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(detail.Questions))
	}
	for i, q := range detail.Questions {
		if q.QuestionOrder != i+1 {
			t.Fatalf("question %d has order %d, want %d", i, q.QuestionOrder, i+1)
		}
	}
	if got := len(detail.Questions[1].Options); got != 2 {
		t.Fatalf("expected 2 options on choice question, got %d", got)
	}
	for i, opt := range detail.Questions[1].Options {
		if opt.OptionOrder != i+1 {
			t.Fatalf("option %d has order %d, want %d", i, opt.OptionOrder, i+1)
		}
	}
}

func TestCreateFormRejectsUnknownStatusAndType(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.CreateForm(ctx, CreateFormRequest{Title: "x", Status: "OPEN"})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for unknown status, got %v", err)
	}

	_, err = svc.CreateForm(ctx, CreateFormRequest{
		Title:     "x",
		Questions: []CreateQuestionRequest{{Type: "CHECKBOX", Content: "y"}},
	})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for unknown question type, got %v", err)
	}
}

func TestCreateFormRejectsOptionsOnTextQuestion(t *testing.T) {
	svc := newTestService()

	_, err := svc.CreateForm(context.Background(), CreateFormRequest{
		Title: "x",
		Questions: []CreateQuestionRequest{
			{Type: "SHORT_TEXT", Content: "Name", Options: []CreateOptionRequest{{Content: "nope"}}},
		},
	})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestAddQuestionAppendsAtEnd(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	detail, err := svc.CreateForm(ctx, CreateFormRequest{
		Title: "form",
		Questions: []CreateQuestionRequest{
			{Type: "SHORT_TEXT", Content: "one"},
			{Type: "SHORT_TEXT", Content: "two"},
		},
	})
	if err != nil {
		t.Fatalf("CreateForm: %v", err)
	}

	q, err := svc.AddQuestion(ctx, detail.ID, CreateQuestionRequest{Type: "EMAIL", Content: "Contact"})
	if err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}
	if q.QuestionOrder != 3 {
		t.Fatalf("expected appended question order 3, got %d", q.QuestionOrder)
	}
}

func TestAddOptionRequiresChoiceType(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	detail, err := svc.CreateForm(ctx, CreateFormRequest{
		Title: "form",
		Questions: []CreateQuestionRequest{
			{Type: "SHORT_TEXT", Content: "Name"},
			{Type: "DROPDOWN", Content: "Track"},
		},
	})
	if err != nil {
		t.Fatalf("CreateForm: %v", err)
	}

	_, err = svc.AddOption(ctx, detail.Questions[0].ID, CreateOptionRequest{Content: "nope"})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for text question, got %v", err)
	}

	opt, err := svc.AddOption(ctx, detail.Questions[1].ID, CreateOptionRequest{Content: "Backend"})
	if err != nil {
		t.Fatalf("AddOption: %v", err)
	}
	if opt.OptionOrder != 1 {
		t.Fatalf("expected first option order 1, got %d", opt.OptionOrder)
	}
}

func TestDeleteQuestionResequencesSurvivors(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	detail, err := svc.CreateForm(ctx, CreateFormRequest{
		Title: "form",
		Questions: []CreateQuestionRequest{
			{Type: "SHORT_TEXT", Content: "a"},
			{Type: "SHORT_TEXT", Content: "b"},
			{Type: "SHORT_TEXT", Content: "c"},
			{Type: "SHORT_TEXT", Content: "d"},
		},
	})
	if err != nil {
		t.Fatalf("CreateForm: %v", err)
	}

	// Remove the second question; survivors must renumber to 1..3.
	if err := svc.DeleteQuestion(ctx, detail.Questions[1].ID); err != nil {
		t.Fatalf("DeleteQuestion: %v", err)
	}

	after, err := svc.Detail(ctx, detail.ID)
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if len(after.Questions) != 3 {
		t.Fatalf("expected 3 questions after deletion, got %d", len(after.Questions))
	}
	wantContents := []string{"a", "c", "d"}
	for i, q := range after.Questions {
		if q.QuestionOrder != i+1 {
			t.Fatalf("question %q has order %d, want %d", q.Content, q.QuestionOrder, i+1)
		}
		if q.Content != wantContents[i] {
			t.Fatalf("question at position %d is %q, want %q", i, q.Content, wantContents[i])
		}
	}
}

func TestDeleteOptionResequencesSurvivors(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	detail, err := svc.CreateForm(ctx, CreateFormRequest{
		Title: "form",
		Questions: []CreateQuestionRequest{
			{Type: "MULTIPLE_CHOICE", Content: "Pick", Options: []CreateOptionRequest{
				{Content: "x"}, {Content: "y"}, {Content: "z"},
			}},
		},
	})
	if err != nil {
		t.Fatalf("CreateForm: %v", err)
	}

	question := detail.Questions[0]
	if err := svc.DeleteOption(ctx, question.Options[0].ID); err != nil {
		t.Fatalf("DeleteOption: %v", err)
	}

	after, err := svc.Detail(ctx, detail.ID)
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	options := after.Questions[0].Options
	if len(options) != 2 {
		t.Fatalf("expected 2 options, got %d", len(options))
	}
	for i, opt := range options {
		if opt.OptionOrder != i+1 {
			t.Fatalf("option %q has order %d, want %d", opt.Content, opt.OptionOrder, i+1)
		}
	}
}

func TestUpdateFormOverwritesAllFields(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	detail, err := svc.CreateForm(ctx, CreateFormRequest{Title: "old", Description: "desc"})
	if err != nil {
		t.Fatalf("CreateForm: %v", err)
	}

	updated, err := svc.UpdateForm(ctx, detail.ID, UpdateFormRequest{
		Title:  "new",
		Status: StatusPublished,
	})
	if err != nil {
		t.Fatalf("UpdateForm: %v", err)
	}
	if updated.Title != "new" || updated.Status != StatusPublished {
		t.Fatalf("unexpected form after update: %+v", updated)
	}
	// Overwrite semantics: the omitted description clears.
	if updated.Description != "" {
		t.Fatalf("expected description cleared, got %q", updated.Description)
	}
}

func TestUpdateQuestionPartial(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	detail, err := svc.CreateForm(ctx, CreateFormRequest{
		Title: "form",
		Questions: []CreateQuestionRequest{
			{Type: "SHORT_TEXT", Content: "old", Placeholder: "hint"},
		},
	})
	if err != nil {
		t.Fatalf("CreateForm: %v", err)
	}

	q, err := svc.UpdateQuestion(ctx, detail.Questions[0].ID, UpdateQuestionRequest{
		Content: strPtr("new"),
	})
	if err != nil {
		t.Fatalf("UpdateQuestion: %v", err)
	}
	if q.Content != "new" {
		t.Fatalf("content not updated: %q", q.Content)
	}
	if q.Placeholder != "hint" {
		t.Fatalf("placeholder should be untouched, got %q", q.Placeholder)
	}
}

func TestListActiveHonorsStatusAndWindow(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.CreateForm(ctx, CreateFormRequest{Title: "draft"}); err != nil {
		t.Fatalf("CreateForm: %v", err)
	}
	published, err := svc.CreateForm(ctx, CreateFormRequest{Title: "open", Status: StatusPublished})
	if err != nil {
		t.Fatalf("CreateForm: %v", err)
	}

	active, err := svc.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 1 || active[0].ID != published.ID {
		t.Fatalf("expected only the published form, got %+v", active)
	}
}
