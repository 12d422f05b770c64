package applications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bsslab-backend/internal/forms"
	"bsslab-backend/internal/queue"
	"bsslab-backend/internal/shared/metrics"
	"bsslab-backend/internal/shared/telemetry"
)

// Service implements the submission, update, review and deletion workflows.
type Service struct {
	Repo  Repo
	Forms forms.Repo
	// Queue receives application.submitted events; nil disables publishing.
	Queue queue.Client
}

// NewService constructs a Service. queueClient may be nil.
func NewService(repo Repo, formsRepo forms.Repo, queueClient queue.Client) *Service {
	return &Service{Repo: repo, Forms: formsRepo, Queue: queueClient}
}

// Submit creates an application against a form after the ordered
// precondition checks. Returns the new application's detail.
func (s *Service) Submit(ctx context.Context, formID int64, identity Identity, req SubmitRequest) (Detail, error) {
	metrics.IncSubmissionStarted()
	start := time.Now()

	detail, err := s.submit(ctx, formID, identity, req)
	metrics.ObserveSubmissionDurationMs(float64(time.Since(start)) / float64(time.Millisecond))
	if err != nil {
		metrics.IncSubmissionFailed()
		return Detail{}, err
	}
	metrics.IncSubmissionCompleted()
	return detail, nil
}

func (s *Service) submit(ctx context.Context, formID int64, identity Identity, req SubmitRequest) (Detail, error) {
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if status == "" {
		status = StatusDraft
	}
	if status != StatusDraft && status != StatusSubmitted {
		return Detail{}, fmt.Errorf("%w: submit accepts DRAFT or SUBMITTED, got %q", ErrInvalidArgument, req.Status)
	}

	form, err := s.Forms.GetForm(ctx, formID)
	if err != nil {
		return Detail{}, mapFormErr(err)
	}
	now := time.Now().UTC()
	if form.Status != forms.StatusPublished {
		return Detail{}, fmt.Errorf("%w: form not open", ErrInvalidState)
	}
	if form.StartDate != nil && now.Before(*form.StartDate) {
		return Detail{}, fmt.Errorf("%w: form not started", ErrInvalidState)
	}
	if form.EndDate != nil && now.After(*form.EndDate) {
		return Detail{}, fmt.Errorf("%w: form ended", ErrInvalidState)
	}

	email := strings.TrimSpace(req.ApplicantEmail)
	exists, err := s.Repo.HasActive(ctx, formID, identity.UserID, email)
	if err != nil {
		return Detail{}, fmt.Errorf("check active application: %w", err)
	}
	if exists {
		return Detail{}, fmt.Errorf("%w: already applied", ErrInvalidState)
	}

	answers, err := s.buildAnswers(ctx, formID, req.Answers)
	if err != nil {
		return Detail{}, err
	}

	app := Application{
		FormID:         formID,
		UserID:         identity.UserID,
		ApplicantName:  strings.TrimSpace(req.ApplicantName),
		ApplicantEmail: email,
		ApplicantPhone: strings.TrimSpace(req.ApplicantPhone),
		Status:         status,
	}
	if status == StatusSubmitted {
		app.SubmittedAt = &now
	}

	id, err := s.Repo.CreateApplication(ctx, app, answers)
	if err != nil {
		return Detail{}, fmt.Errorf("create application: %w", err)
	}

	if status == StatusSubmitted {
		s.publishSubmitted(ctx, id, formID)
	}
	return s.Detail(ctx, id)
}

// publishSubmitted enqueues the submitted event. Failures are logged and
// swallowed; the submission itself already committed.
func (s *Service) publishSubmitted(ctx context.Context, applicationID, formID int64) {
	if s.Queue == nil {
		return
	}
	msg := queue.Message{
		ApplicationID: applicationID,
		FormID:        formID,
		Event:         queue.EventApplicationSubmitted,
		EnqueuedAt:    time.Now().UTC().Format(time.RFC3339),
		Version:       1,
	}
	if err := s.Queue.Send(ctx, msg); err != nil {
		telemetry.Error("queue.publish_failed", map[string]any{
			"application_id": applicationID,
			"form_id":        formID,
			"error":          err.Error(),
		})
	}
}

func mapFormErr(err error) error {
	if errors.Is(err, forms.ErrNotFound) {
		return fmt.Errorf("%w: form", ErrNotFound)
	}
	return err
}

// buildAnswers validates each answer's question against the form and its
// selected options against the question.
func (s *Service) buildAnswers(ctx context.Context, formID int64, reqs []AnswerRequest) ([]Answer, error) {
	answers := make([]Answer, 0, len(reqs))
	for _, ar := range reqs {
		answer, err := s.buildAnswer(ctx, formID, ar)
		if err != nil {
			return nil, err
		}
		answers = append(answers, answer)
	}
	return answers, nil
}

func (s *Service) buildAnswer(ctx context.Context, formID int64, req AnswerRequest) (Answer, error) {
	question, err := s.Forms.GetQuestion(ctx, req.QuestionID)
	if err != nil {
		if errors.Is(err, forms.ErrNotFound) {
			return Answer{}, fmt.Errorf("%w: question %d not found", ErrInvalidArgument, req.QuestionID)
		}
		return Answer{}, err
	}
	if question.FormID != formID {
		return Answer{}, fmt.Errorf("%w: question %d does not belong to form %d", ErrInvalidArgument, req.QuestionID, formID)
	}

	answer := Answer{
		QuestionID: req.QuestionID,
		TextValue:  req.TextValue,
	}
	if forms.IsChoiceType(question.Type) && len(req.SelectedOptionIDs) > 0 {
		for _, optionID := range req.SelectedOptionIDs {
			option, err := s.Forms.GetOption(ctx, optionID)
			if err != nil {
				if errors.Is(err, forms.ErrNotFound) {
					return Answer{}, fmt.Errorf("%w: option %d not found", ErrInvalidArgument, optionID)
				}
				return Answer{}, err
			}
			if option.QuestionID != question.ID {
				return Answer{}, fmt.Errorf("%w: option %d does not belong to question %d", ErrInvalidArgument, optionID, question.ID)
			}
		}
		answer.SelectedOptionIDs = append([]int64(nil), req.SelectedOptionIDs...)
	}
	return answer, nil
}

// checkOwnership verifies the caller may act on the application: matching
// user id, or matching email for guest applications.
func checkOwnership(app Application, identity Identity) error {
	if identity.UserID != nil {
		if app.UserID != nil && *app.UserID == *identity.UserID {
			return nil
		}
		return fmt.Errorf("%w: not your application", ErrAccessDenied)
	}
	if identity.Email != "" && strings.EqualFold(app.ApplicantEmail, identity.Email) {
		return nil
	}
	return fmt.Errorf("%w: not your application", ErrAccessDenied)
}

// Update applies partial edits to a DRAFT application owned by the caller.
// Supplying status SUBMITTED finalizes the draft.
func (s *Service) Update(ctx context.Context, id int64, identity Identity, req UpdateRequest) (Detail, error) {
	app, err := s.Repo.Get(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	if err := checkOwnership(app, identity); err != nil {
		return Detail{}, err
	}
	if app.Status != StatusDraft {
		return Detail{}, fmt.Errorf("%w: only draft applications can be updated", ErrInvalidState)
	}

	if req.ApplicantName != nil {
		app.ApplicantName = strings.TrimSpace(*req.ApplicantName)
	}
	if req.ApplicantPhone != nil {
		app.ApplicantPhone = strings.TrimSpace(*req.ApplicantPhone)
	}
	if req.Status != nil {
		status := strings.ToUpper(strings.TrimSpace(*req.Status))
		if status != StatusSubmitted {
			return Detail{}, fmt.Errorf("%w: only SUBMITTED is accepted here, got %q", ErrInvalidArgument, *req.Status)
		}
		now := time.Now().UTC()
		app.Status = StatusSubmitted
		app.SubmittedAt = &now
	}

	if err := s.Repo.Update(ctx, app); err != nil {
		return Detail{}, fmt.Errorf("update application %d: %w", id, err)
	}

	for _, ar := range req.Answers {
		if err := s.upsertAnswer(ctx, app.FormID, id, ar); err != nil {
			return Detail{}, err
		}
	}

	if app.Status == StatusSubmitted {
		s.publishSubmitted(ctx, id, app.FormID)
	}
	return s.Detail(ctx, id)
}

// upsertAnswer overwrites the existing answer for the question or creates
// one; the selected-option set is replaced entirely.
func (s *Service) upsertAnswer(ctx context.Context, formID, applicationID int64, req AnswerRequest) error {
	answer, err := s.buildAnswer(ctx, formID, req)
	if err != nil {
		return err
	}
	answer.ApplicationID = applicationID

	existing, err := s.Repo.GetAnswer(ctx, applicationID, req.QuestionID)
	switch {
	case err == nil:
		answer.ID = existing.ID
		if err := s.Repo.UpdateAnswer(ctx, answer); err != nil {
			return fmt.Errorf("update answer %d: %w", existing.ID, err)
		}
	case errors.Is(err, ErrNotFound):
		if _, err := s.Repo.CreateAnswer(ctx, answer); err != nil {
			return fmt.Errorf("create answer for question %d: %w", req.QuestionID, err)
		}
	default:
		return err
	}
	return nil
}

// SetStatus applies an admin review decision. Any known status is accepted;
// UNDER_REVIEW, ACCEPTED and REJECTED stamp the review time.
func (s *Service) SetStatus(ctx context.Context, id int64, status string, reviewerComment *string) (Detail, error) {
	status = strings.ToUpper(strings.TrimSpace(status))
	if !ValidStatus(status) {
		return Detail{}, fmt.Errorf("%w: unknown application status %q", ErrInvalidArgument, status)
	}

	app, err := s.Repo.Get(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	app.Status = status
	if stampsReviewedAt(status) {
		now := time.Now().UTC()
		app.ReviewedAt = &now
	}
	if reviewerComment != nil {
		app.ReviewerComment = *reviewerComment
	}

	if err := s.Repo.Update(ctx, app); err != nil {
		return Detail{}, fmt.Errorf("set status of application %d: %w", id, err)
	}
	return s.Detail(ctx, id)
}

// Delete removes a DRAFT application owned by the caller.
func (s *Service) Delete(ctx context.Context, id int64, identity Identity) error {
	app, err := s.Repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := checkOwnership(app, identity); err != nil {
		return err
	}
	if app.Status != StatusDraft {
		return fmt.Errorf("%w: only draft applications can be deleted", ErrInvalidState)
	}
	return s.Repo.Delete(ctx, id)
}

// DeleteByAdmin removes any application regardless of owner or status.
func (s *Service) DeleteByAdmin(ctx context.Context, id int64) error {
	return s.Repo.Delete(ctx, id)
}

// List returns application summaries matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int) ([]ListItem, error) {
	if filter.Status != "" {
		filter.Status = strings.ToUpper(filter.Status)
		if !ValidStatus(filter.Status) {
			return nil, fmt.Errorf("%w: unknown application status %q", ErrInvalidArgument, filter.Status)
		}
	}
	apps, err := s.Repo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}

	titles := make(map[int64]string)
	items := make([]ListItem, 0, len(apps))
	for _, app := range apps {
		title, ok := titles[app.FormID]
		if !ok {
			form, err := s.Forms.GetForm(ctx, app.FormID)
			if err != nil && !errors.Is(err, forms.ErrNotFound) {
				return nil, err
			}
			title = form.Title
			titles[app.FormID] = title
		}
		items = append(items, ListItem{
			ID:             app.ID,
			FormID:         app.FormID,
			FormTitle:      title,
			UserID:         app.UserID,
			ApplicantName:  app.ApplicantName,
			ApplicantEmail: app.ApplicantEmail,
			Status:         app.Status,
			SubmittedAt:    app.SubmittedAt,
			CreatedAt:      app.CreatedAt,
		})
	}
	return items, nil
}

// DetailFor returns the application detail after verifying the caller owns
// it. Admin reads go through Detail directly.
func (s *Service) DetailFor(ctx context.Context, id int64, identity Identity) (Detail, error) {
	app, err := s.Repo.Get(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	if err := checkOwnership(app, identity); err != nil {
		return Detail{}, err
	}
	return s.Detail(ctx, id)
}

// Detail returns the application with its answers; each answer carries the
// question content and the contents of any selected options.
func (s *Service) Detail(ctx context.Context, id int64) (Detail, error) {
	app, err := s.Repo.Get(ctx, id)
	if err != nil {
		return Detail{}, err
	}

	var formTitle string
	if form, err := s.Forms.GetForm(ctx, app.FormID); err == nil {
		formTitle = form.Title
	} else if !errors.Is(err, forms.ErrNotFound) {
		return Detail{}, err
	}

	answers, err := s.Repo.ListAnswers(ctx, id)
	if err != nil {
		return Detail{}, fmt.Errorf("list answers for application %d: %w", id, err)
	}

	detail := Detail{
		ID:              app.ID,
		FormID:          app.FormID,
		FormTitle:       formTitle,
		UserID:          app.UserID,
		ApplicantName:   app.ApplicantName,
		ApplicantEmail:  app.ApplicantEmail,
		ApplicantPhone:  app.ApplicantPhone,
		Status:          app.Status,
		SubmittedAt:     app.SubmittedAt,
		ReviewedAt:      app.ReviewedAt,
		ReviewerComment: app.ReviewerComment,
		Answers:         make([]AnswerView, 0, len(answers)),
		CreatedAt:       app.CreatedAt,
		UpdatedAt:       app.UpdatedAt,
	}
	for _, answer := range answers {
		view := AnswerView{
			QuestionID: answer.QuestionID,
			TextValue:  answer.TextValue,
		}
		if question, err := s.Forms.GetQuestion(ctx, answer.QuestionID); err == nil {
			view.QuestionContent = question.Content
			view.QuestionType = question.Type
		} else if !errors.Is(err, forms.ErrNotFound) {
			return Detail{}, err
		}
		for _, optionID := range answer.SelectedOptionIDs {
			option, err := s.Forms.GetOption(ctx, optionID)
			if err != nil {
				if errors.Is(err, forms.ErrNotFound) {
					continue
				}
				return Detail{}, err
			}
			view.SelectedOptions = append(view.SelectedOptions, SelectedOptionView{
				ID:      option.ID,
				Content: option.Content,
			})
		}
		detail.Answers = append(detail.Answers, view)
	}
	return detail, nil
}
