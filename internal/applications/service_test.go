package applications

import (
	"context"
	"errors"
	"testing"
	"time"

	"bsslab-backend/internal/forms"
)

type fixture struct {
	svc   *Service
	forms *forms.Service
}

func newFixture() fixture {
	formsRepo := forms.NewMemoryRepo()
	appsRepo := NewMemoryRepo()
	formsRepo.SetApplicationCounter(func(formID int64) int {
		count, _ := appsRepo.CountByForm(context.Background(), formID)
		return count
	})
	return fixture{
		svc:   NewService(appsRepo, formsRepo, nil),
		forms: forms.NewService(formsRepo),
	}
}

// publishedForm creates a PUBLISHED form with one text question and one
// single-choice question carrying two options.
func (f fixture) publishedForm(t *testing.T) forms.FormDetail {
	t.Helper()
	detail, err := f.forms.CreateForm(context.Background(), forms.CreateFormRequest{
		Title:  "Recruitment",
		Status: forms.StatusPublished,
		Questions: []forms.CreateQuestionRequest{
			{Type: "SHORT_TEXT", Content: "Name", Required: true},
			{Type: "SINGLE_CHOICE", Content: "Track", Options: []forms.CreateOptionRequest{
				{Content: "Backend"},
				{Content: "Frontend"},
			}},
		},
	})
	if err != nil {
		t.Fatalf("CreateForm: %v", err)
	}
	return detail
}

func int64Ptr(v int64) *int64 { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func submitReq(email string) SubmitRequest {
	return SubmitRequest{
		ApplicantName:  "Kim",
		ApplicantEmail: email,
		Status:         StatusSubmitted,
	}
}

func TestSubmitRejectsUnpublishedForm(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	draft, err := f.forms.CreateForm(ctx, forms.CreateFormRequest{Title: "draft"})
	if err != nil {
		t.Fatalf("CreateForm: %v", err)
	}

	_, err = f.svc.Submit(ctx, draft.ID, Identity{}, submitReq("a@b.com"))
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for draft form, got %v", err)
	}
}

func TestSubmitRejectsMissingForm(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Submit(context.Background(), 9999, Identity{}, submitReq("a@b.com"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSubmitEnforcesDateWindow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	future := time.Now().UTC().Add(24 * time.Hour)
	notStarted, err := f.forms.CreateForm(ctx, forms.CreateFormRequest{
		Title: "future", Status: forms.StatusPublished, StartDate: timePtr(future),
	})
	if err != nil {
		t.Fatalf("CreateForm: %v", err)
	}
	if _, err := f.svc.Submit(ctx, notStarted.ID, Identity{}, submitReq("a@b.com")); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState before startDate, got %v", err)
	}

	past := time.Now().UTC().Add(-24 * time.Hour)
	ended, err := f.forms.CreateForm(ctx, forms.CreateFormRequest{
		Title: "past", Status: forms.StatusPublished, EndDate: timePtr(past),
	})
	if err != nil {
		t.Fatalf("CreateForm: %v", err)
	}
	if _, err := f.svc.Submit(ctx, ended.ID, Identity{}, submitReq("a@b.com")); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState after endDate, got %v", err)
	}
}

func TestSubmitBlocksDuplicateActiveApplication(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	form := f.publishedForm(t)
	user := Identity{UserID: int64Ptr(7)}

	first, err := f.svc.Submit(ctx, form.ID, user, submitReq("kim@bsslab.dev"))
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}

	if _, err := f.svc.Submit(ctx, form.ID, user, submitReq("kim@bsslab.dev")); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for duplicate submission, got %v", err)
	}

	// CANCELLED releases the slot.
	if _, err := f.svc.SetStatus(ctx, first.ID, StatusCancelled, nil); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	second, err := f.svc.Submit(ctx, form.ID, user, submitReq("kim@bsslab.dev"))
	if err != nil {
		t.Fatalf("resubmit after cancel: %v", err)
	}

	// REJECTED releases it too.
	if _, err := f.svc.SetStatus(ctx, second.ID, StatusRejected, nil); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if _, err := f.svc.Submit(ctx, form.ID, user, submitReq("kim@bsslab.dev")); err != nil {
		t.Fatalf("resubmit after reject: %v", err)
	}
}

func TestSubmitBlocksDuplicateGuestByEmail(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	form := f.publishedForm(t)

	if _, err := f.svc.Submit(ctx, form.ID, Identity{}, submitReq("guest@example.com")); err != nil {
		t.Fatalf("first guest submit: %v", err)
	}
	_, err := f.svc.Submit(ctx, form.ID, Identity{}, submitReq("guest@example.com"))
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for duplicate guest email, got %v", err)
	}

	// Email comparison ignores case.
	_, err = f.svc.Submit(ctx, form.ID, Identity{}, submitReq("GUEST@Example.com"))
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for case-variant duplicate, got %v", err)
	}

	// A different email is fine.
	if _, err := f.svc.Submit(ctx, form.ID, Identity{}, submitReq("other@example.com")); err != nil {
		t.Fatalf("second guest submit: %v", err)
	}
}

func TestSubmitDraftDoesNotBlockResubmission(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	form := f.publishedForm(t)
	user := Identity{UserID: int64Ptr(3)}

	draft := submitReq("d@e.com")
	draft.Status = StatusDraft
	if _, err := f.svc.Submit(ctx, form.ID, user, draft); err != nil {
		t.Fatalf("draft submit: %v", err)
	}
	if _, err := f.svc.Submit(ctx, form.ID, user, submitReq("d@e.com")); err != nil {
		t.Fatalf("submit alongside draft: %v", err)
	}
}

func TestSubmitValidatesAnswerOwnership(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	form := f.publishedForm(t)
	other := f.publishedForm(t)

	req := submitReq("x@y.com")
	req.Answers = []AnswerRequest{{QuestionID: other.Questions[0].ID, TextValue: "Kim"}}
	_, err := f.svc.Submit(ctx, form.ID, Identity{}, req)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for foreign question, got %v", err)
	}

	req = submitReq("x@y.com")
	req.Answers = []AnswerRequest{{
		QuestionID:        form.Questions[1].ID,
		SelectedOptionIDs: []int64{other.Questions[1].Options[0].ID},
	}}
	_, err = f.svc.Submit(ctx, form.ID, Identity{}, req)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for foreign option, got %v", err)
	}
}

func TestSubmitRoundTripDetail(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	form := f.publishedForm(t)

	req := submitReq("round@trip.dev")
	req.Answers = []AnswerRequest{
		{QuestionID: form.Questions[0].ID, TextValue: "Kim"},
		{QuestionID: form.Questions[1].ID, SelectedOptionIDs: []int64{form.Questions[1].Options[0].ID}},
	}
	detail, err := f.svc.Submit(ctx, form.ID, Identity{}, req)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if detail.Status != StatusSubmitted {
		t.Fatalf("expected SUBMITTED, got %s", detail.Status)
	}
	if detail.SubmittedAt == nil {
		t.Fatalf("submittedAt not stamped")
	}
	if len(detail.Answers) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(detail.Answers))
	}
	if detail.Answers[0].QuestionContent != "Name" || detail.Answers[0].TextValue != "Kim" {
		t.Fatalf("unexpected text answer: %+v", detail.Answers[0])
	}
	choice := detail.Answers[1]
	if len(choice.SelectedOptions) != 1 || choice.SelectedOptions[0].Content != "Backend" {
		t.Fatalf("unexpected selected options: %+v", choice.SelectedOptions)
	}
}

func TestUpdateRequiresOwnership(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	form := f.publishedForm(t)

	req := submitReq("owner@x.com")
	req.Status = StatusDraft
	detail, err := f.svc.Submit(ctx, form.ID, Identity{UserID: int64Ptr(1)}, req)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	_, err = f.svc.Update(ctx, detail.ID, Identity{UserID: int64Ptr(2)}, UpdateRequest{})
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied for other user, got %v", err)
	}

	_, err = f.svc.Update(ctx, detail.ID, Identity{Email: "someone@else.com"}, UpdateRequest{})
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied for guest on user application, got %v", err)
	}
}

func TestUpdateOnlyDraft(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	form := f.publishedForm(t)
	user := Identity{UserID: int64Ptr(5)}

	detail, err := f.svc.Submit(ctx, form.ID, user, submitReq("o@x.com"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	name := "New Name"
	_, err = f.svc.Update(ctx, detail.ID, user, UpdateRequest{ApplicantName: &name})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for submitted application, got %v", err)
	}
}

func TestDraftThenSubmitScenario(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	form := f.publishedForm(t)
	user := Identity{UserID: int64Ptr(9)}

	req := submitReq("draft@x.com")
	req.Status = StatusDraft
	req.Answers = []AnswerRequest{{QuestionID: form.Questions[0].ID, TextValue: "first"}}
	draft, err := f.svc.Submit(ctx, form.ID, user, req)
	if err != nil {
		t.Fatalf("draft submit: %v", err)
	}
	if draft.SubmittedAt != nil {
		t.Fatalf("draft must not stamp submittedAt")
	}

	// Rework the answer, add the choice answer, then finalize.
	submitted := StatusSubmitted
	updated, err := f.svc.Update(ctx, draft.ID, user, UpdateRequest{
		Status: &submitted,
		Answers: []AnswerRequest{
			{QuestionID: form.Questions[0].ID, TextValue: "final"},
			{QuestionID: form.Questions[1].ID, SelectedOptionIDs: []int64{form.Questions[1].Options[1].ID}},
		},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != StatusSubmitted || updated.SubmittedAt == nil {
		t.Fatalf("expected finalized submission, got %+v", updated)
	}
	if len(updated.Answers) != 2 {
		t.Fatalf("expected 2 answers after upsert, got %d", len(updated.Answers))
	}
	if updated.Answers[0].TextValue != "final" {
		t.Fatalf("answer not overwritten: %+v", updated.Answers[0])
	}
	if got := updated.Answers[1].SelectedOptions; len(got) != 1 || got[0].Content != "Frontend" {
		t.Fatalf("unexpected selected options: %+v", got)
	}

	// Once submitted, further edits are refused.
	if _, err := f.svc.Update(ctx, draft.ID, user, UpdateRequest{}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState after finalize, got %v", err)
	}
}

func TestUpdateRejectsNonSubmitStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	form := f.publishedForm(t)
	user := Identity{UserID: int64Ptr(4)}

	req := submitReq("s@x.com")
	req.Status = StatusDraft
	draft, err := f.svc.Submit(ctx, form.ID, user, req)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	accepted := StatusAccepted
	_, err = f.svc.Update(ctx, draft.ID, user, UpdateRequest{Status: &accepted})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for status ACCEPTED via update, got %v", err)
	}
}

func TestSetStatusStampsReviewedAt(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	form := f.publishedForm(t)

	detail, err := f.svc.Submit(ctx, form.ID, Identity{}, submitReq("r@x.com"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	comment := "looks strong"
	reviewed, err := f.svc.SetStatus(ctx, detail.ID, StatusUnderReview, &comment)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if reviewed.ReviewedAt == nil {
		t.Fatalf("UNDER_REVIEW must stamp reviewedAt")
	}
	if reviewed.ReviewerComment != comment {
		t.Fatalf("comment not stored: %q", reviewed.ReviewerComment)
	}

	accepted, err := f.svc.SetStatus(ctx, detail.ID, StatusAccepted, nil)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if accepted.ReviewedAt == nil {
		t.Fatalf("ACCEPTED must stamp reviewedAt")
	}
	// nil comment leaves the previous one in place.
	if accepted.ReviewerComment != comment {
		t.Fatalf("comment should persist, got %q", accepted.ReviewerComment)
	}
}

func TestSetStatusCancelledDoesNotStampReviewedAt(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	form := f.publishedForm(t)

	detail, err := f.svc.Submit(ctx, form.ID, Identity{}, submitReq("c@x.com"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	cancelled, err := f.svc.SetStatus(ctx, detail.ID, StatusCancelled, nil)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if cancelled.ReviewedAt != nil {
		t.Fatalf("CANCELLED must not stamp reviewedAt")
	}
}

func TestSetStatusRejectsUnknownStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	form := f.publishedForm(t)

	detail, err := f.svc.Submit(ctx, form.ID, Identity{}, submitReq("u@x.com"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := f.svc.SetStatus(ctx, detail.ID, "ARCHIVED", nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestDeleteOwnerOnlyDraft(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	form := f.publishedForm(t)
	user := Identity{UserID: int64Ptr(11)}

	detail, err := f.svc.Submit(ctx, form.ID, user, submitReq("del@x.com"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// Submitted: owner delete refused, admin delete allowed.
	if err := f.svc.Delete(ctx, detail.ID, user); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState deleting submitted application, got %v", err)
	}
	if err := f.svc.DeleteByAdmin(ctx, detail.ID); err != nil {
		t.Fatalf("DeleteByAdmin: %v", err)
	}

	req := submitReq("del@x.com")
	req.Status = StatusDraft
	draft, err := f.svc.Submit(ctx, form.ID, user, req)
	if err != nil {
		t.Fatalf("draft submit: %v", err)
	}
	if err := f.svc.Delete(ctx, draft.ID, user); err != nil {
		t.Fatalf("owner draft delete: %v", err)
	}
	if _, err := f.svc.Detail(ctx, draft.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestListFiltersByUserAndStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	form := f.publishedForm(t)

	if _, err := f.svc.Submit(ctx, form.ID, Identity{UserID: int64Ptr(21)}, submitReq("a@x.com")); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := f.svc.Submit(ctx, form.ID, Identity{UserID: int64Ptr(22)}, submitReq("b@x.com")); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	mine, err := f.svc.List(ctx, ListFilter{UserID: 21}, 20, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(mine) != 1 || mine[0].ApplicantEmail != "a@x.com" {
		t.Fatalf("unexpected user filter result: %+v", mine)
	}
	if mine[0].FormTitle != "Recruitment" {
		t.Fatalf("form title missing from projection: %+v", mine[0])
	}

	submitted, err := f.svc.List(ctx, ListFilter{FormID: form.ID, Status: StatusSubmitted}, 20, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(submitted) != 2 {
		t.Fatalf("expected 2 submitted, got %d", len(submitted))
	}
}
