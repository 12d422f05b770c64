package forms

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Service implements the form authoring workflow on top of Repo.
type Service struct {
	Repo Repo
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// CreateForm creates a form, defaulting status to DRAFT, with optional inline
// questions numbered 1..N by position.
func (s *Service) CreateForm(ctx context.Context, req CreateFormRequest) (FormDetail, error) {
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if status == "" {
		status = StatusDraft
	}
	if !ValidStatus(status) {
		return FormDetail{}, fmt.Errorf("%w: unknown form status %q", ErrInvalidArgument, req.Status)
	}
	if err := validateDateWindow(req.StartDate, req.EndDate); err != nil {
		return FormDetail{}, err
	}

	form := Form{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Status:      status,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}

	questions := make([]NewQuestion, 0, len(req.Questions))
	for i, qr := range req.Questions {
		nq, err := buildQuestion(qr, i+1)
		if err != nil {
			return FormDetail{}, err
		}
		questions = append(questions, nq)
	}

	id, err := s.Repo.CreateForm(ctx, form, questions)
	if err != nil {
		return FormDetail{}, fmt.Errorf("create form: %w", err)
	}
	return s.Detail(ctx, id)
}

func buildQuestion(req CreateQuestionRequest, order int) (NewQuestion, error) {
	qType := strings.ToUpper(strings.TrimSpace(req.Type))
	if !ValidQuestionType(qType) {
		return NewQuestion{}, fmt.Errorf("%w: unknown question type %q", ErrInvalidArgument, req.Type)
	}
	if len(req.Options) > 0 && !IsChoiceType(qType) {
		return NewQuestion{}, fmt.Errorf("%w: question type %s does not take options", ErrInvalidArgument, qType)
	}

	if req.Order != nil && *req.Order > 0 {
		order = *req.Order
	}
	nq := NewQuestion{
		Question: Question{
			Type:        qType,
			Content:     strings.TrimSpace(req.Content),
			Required:    req.Required,
			Order:       order,
			Placeholder: req.Placeholder,
			HelpText:    req.HelpText,
		},
	}
	for i, or := range req.Options {
		optOrder := i + 1
		if or.Order != nil && *or.Order > 0 {
			optOrder = *or.Order
		}
		nq.Options = append(nq.Options, Option{
			Content: strings.TrimSpace(or.Content),
			Order:   optOrder,
		})
	}
	return nq, nil
}

func validateDateWindow(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return fmt.Errorf("%w: endDate precedes startDate", ErrInvalidArgument)
	}
	return nil
}

// ListActive returns published forms currently open for submission.
func (s *Service) ListActive(ctx context.Context) ([]FormListItem, error) {
	forms, err := s.Repo.ListActiveForms(ctx, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("list active forms: %w", err)
	}
	return s.listItems(ctx, forms)
}

// List returns forms newest first, optionally filtered by status.
func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]FormListItem, error) {
	if status != "" {
		status = strings.ToUpper(status)
		if !ValidStatus(status) {
			return nil, fmt.Errorf("%w: unknown form status %q", ErrInvalidArgument, status)
		}
	}
	forms, err := s.Repo.ListForms(ctx, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	return s.listItems(ctx, forms)
}

func (s *Service) listItems(ctx context.Context, forms []Form) ([]FormListItem, error) {
	items := make([]FormListItem, 0, len(forms))
	for _, form := range forms {
		questionCount, err := s.Repo.CountQuestions(ctx, form.ID)
		if err != nil {
			return nil, fmt.Errorf("count questions for form %d: %w", form.ID, err)
		}
		applicationCount, err := s.Repo.CountApplications(ctx, form.ID)
		if err != nil {
			return nil, fmt.Errorf("count applications for form %d: %w", form.ID, err)
		}
		items = append(items, FormListItem{
			ID:               form.ID,
			Title:            form.Title,
			Description:      form.Description,
			Status:           form.Status,
			StartDate:        form.StartDate,
			EndDate:          form.EndDate,
			QuestionCount:    questionCount,
			ApplicationCount: applicationCount,
			CreatedAt:        form.CreatedAt,
		})
	}
	return items, nil
}

// Detail returns the form with its questions and options in display order.
func (s *Service) Detail(ctx context.Context, id int64) (FormDetail, error) {
	form, err := s.Repo.GetForm(ctx, id)
	if err != nil {
		return FormDetail{}, err
	}
	questions, err := s.Repo.ListQuestions(ctx, id)
	if err != nil {
		return FormDetail{}, fmt.Errorf("list questions for form %d: %w", id, err)
	}

	detail := FormDetail{
		ID:          form.ID,
		Title:       form.Title,
		Description: form.Description,
		Status:      form.Status,
		StartDate:   form.StartDate,
		EndDate:     form.EndDate,
		Questions:   make([]QuestionResponse, 0, len(questions)),
		CreatedAt:   form.CreatedAt,
		UpdatedAt:   form.UpdatedAt,
	}
	for _, q := range questions {
		options, err := s.Repo.ListOptions(ctx, q.ID)
		if err != nil {
			return FormDetail{}, fmt.Errorf("list options for question %d: %w", q.ID, err)
		}
		detail.Questions = append(detail.Questions, questionResponse(q, options))
	}
	return detail, nil
}

// UpdateForm overwrites all mutable fields of a form.
func (s *Service) UpdateForm(ctx context.Context, id int64, req UpdateFormRequest) (FormDetail, error) {
	form, err := s.Repo.GetForm(ctx, id)
	if err != nil {
		return FormDetail{}, err
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if !ValidStatus(status) {
		return FormDetail{}, fmt.Errorf("%w: unknown form status %q", ErrInvalidArgument, req.Status)
	}
	if err := validateDateWindow(req.StartDate, req.EndDate); err != nil {
		return FormDetail{}, err
	}

	form.Title = strings.TrimSpace(req.Title)
	form.Description = req.Description
	form.Status = status
	form.StartDate = req.StartDate
	form.EndDate = req.EndDate
	if err := s.Repo.UpdateForm(ctx, form); err != nil {
		return FormDetail{}, fmt.Errorf("update form %d: %w", id, err)
	}
	return s.Detail(ctx, id)
}

// DeleteForm removes a form with all its questions, options and applications.
func (s *Service) DeleteForm(ctx context.Context, id int64) error {
	return s.Repo.DeleteForm(ctx, id)
}

// AddQuestion appends a question at order questionCount+1.
func (s *Service) AddQuestion(ctx context.Context, formID int64, req CreateQuestionRequest) (QuestionResponse, error) {
	if _, err := s.Repo.GetForm(ctx, formID); err != nil {
		return QuestionResponse{}, err
	}
	count, err := s.Repo.CountQuestions(ctx, formID)
	if err != nil {
		return QuestionResponse{}, fmt.Errorf("count questions for form %d: %w", formID, err)
	}
	nq, err := buildQuestion(req, count+1)
	if err != nil {
		return QuestionResponse{}, err
	}
	nq.Question.FormID = formID

	id, err := s.Repo.AddQuestion(ctx, nq.Question, nq.Options)
	if err != nil {
		return QuestionResponse{}, fmt.Errorf("add question to form %d: %w", formID, err)
	}
	return s.questionDetail(ctx, id)
}

func (s *Service) questionDetail(ctx context.Context, id int64) (QuestionResponse, error) {
	question, err := s.Repo.GetQuestion(ctx, id)
	if err != nil {
		return QuestionResponse{}, err
	}
	options, err := s.Repo.ListOptions(ctx, id)
	if err != nil {
		return QuestionResponse{}, fmt.Errorf("list options for question %d: %w", id, err)
	}
	return questionResponse(question, options), nil
}

// UpdateQuestion applies a partial update; type and order are immutable.
func (s *Service) UpdateQuestion(ctx context.Context, id int64, req UpdateQuestionRequest) (QuestionResponse, error) {
	question, err := s.Repo.GetQuestion(ctx, id)
	if err != nil {
		return QuestionResponse{}, err
	}
	if req.Content != nil {
		question.Content = strings.TrimSpace(*req.Content)
	}
	if req.Required != nil {
		question.Required = *req.Required
	}
	if req.Placeholder != nil {
		question.Placeholder = *req.Placeholder
	}
	if req.HelpText != nil {
		question.HelpText = *req.HelpText
	}
	if err := s.Repo.UpdateQuestion(ctx, question); err != nil {
		return QuestionResponse{}, fmt.Errorf("update question %d: %w", id, err)
	}
	return s.questionDetail(ctx, id)
}

// DeleteQuestion removes a question; surviving siblings are renumbered 1..N.
func (s *Service) DeleteQuestion(ctx context.Context, id int64) error {
	return s.Repo.DeleteQuestion(ctx, id)
}

// AddOption appends an option to a choice-type question at order
// optionCount+1.
func (s *Service) AddOption(ctx context.Context, questionID int64, req CreateOptionRequest) (OptionResponse, error) {
	question, err := s.Repo.GetQuestion(ctx, questionID)
	if err != nil {
		return OptionResponse{}, err
	}
	if !IsChoiceType(question.Type) {
		return OptionResponse{}, fmt.Errorf("%w: question type %s does not take options", ErrInvalidArgument, question.Type)
	}
	count, err := s.Repo.CountOptions(ctx, questionID)
	if err != nil {
		return OptionResponse{}, fmt.Errorf("count options for question %d: %w", questionID, err)
	}
	order := count + 1
	if req.Order != nil && *req.Order > 0 {
		order = *req.Order
	}

	id, err := s.Repo.AddOption(ctx, Option{
		QuestionID: questionID,
		Content:    strings.TrimSpace(req.Content),
		Order:      order,
	})
	if err != nil {
		return OptionResponse{}, fmt.Errorf("add option to question %d: %w", questionID, err)
	}
	option, err := s.Repo.GetOption(ctx, id)
	if err != nil {
		return OptionResponse{}, err
	}
	return optionResponse(option), nil
}

// UpdateOption applies a partial update to an option.
func (s *Service) UpdateOption(ctx context.Context, id int64, req UpdateOptionRequest) (OptionResponse, error) {
	option, err := s.Repo.GetOption(ctx, id)
	if err != nil {
		return OptionResponse{}, err
	}
	if req.Content != nil {
		option.Content = strings.TrimSpace(*req.Content)
	}
	if err := s.Repo.UpdateOption(ctx, option); err != nil {
		return OptionResponse{}, fmt.Errorf("update option %d: %w", id, err)
	}
	option, err = s.Repo.GetOption(ctx, id)
	if err != nil {
		return OptionResponse{}, err
	}
	return optionResponse(option), nil
}

// DeleteOption removes an option; surviving siblings are renumbered 1..N.
func (s *Service) DeleteOption(ctx context.Context, id int64) error {
	return s.Repo.DeleteOption(ctx, id)
}
