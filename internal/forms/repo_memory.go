package forms

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo for dev and tests.
// Records are kept in id-indexed tables with explicit parent IDs.
type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int64

	forms     map[int64]Form
	questions map[int64]Question
	options   map[int64]Option

	// applicationCounter lets the applications store report per-form counts
	// for list projections; nil means zero.
	applicationCounter func(formID int64) int
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		forms:     make(map[int64]Form),
		questions: make(map[int64]Question),
		options:   make(map[int64]Option),
	}
}

// SetApplicationCounter wires the per-form application count source.
func (r *MemoryRepo) SetApplicationCounter(counter func(formID int64) int) {
	r.mu.Lock()
	r.applicationCounter = counter
	r.mu.Unlock()
}

func (r *MemoryRepo) id() int64 {
	r.nextID++
	return r.nextID
}

func (r *MemoryRepo) CreateForm(ctx context.Context, form Form, questions []NewQuestion) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	form.ID = r.id()
	form.CreatedAt = now
	form.UpdatedAt = now
	r.forms[form.ID] = form

	for _, nq := range questions {
		q := nq.Question
		q.ID = r.id()
		q.FormID = form.ID
		q.CreatedAt = now
		q.UpdatedAt = now
		r.questions[q.ID] = q

		for _, opt := range nq.Options {
			opt.ID = r.id()
			opt.QuestionID = q.ID
			opt.CreatedAt = now
			opt.UpdatedAt = now
			r.options[opt.ID] = opt
		}
	}
	return form.ID, nil
}

func (r *MemoryRepo) GetForm(ctx context.Context, id int64) (Form, error) {
	if err := ctx.Err(); err != nil {
		return Form{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	form, ok := r.forms[id]
	if !ok {
		return Form{}, ErrNotFound
	}
	return form, nil
}

func (r *MemoryRepo) ListForms(ctx context.Context, status string, limit, offset int) ([]Form, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Form
	for _, form := range r.forms {
		if status == "" || form.Status == status {
			out = append(out, form)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, limit, offset), nil
}

func (r *MemoryRepo) ListActiveForms(ctx context.Context, now time.Time) ([]Form, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Form
	for _, form := range r.forms {
		if form.Status != StatusPublished {
			continue
		}
		if form.StartDate != nil && now.Before(*form.StartDate) {
			continue
		}
		if form.EndDate != nil && now.After(*form.EndDate) {
			continue
		}
		out = append(out, form)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *MemoryRepo) UpdateForm(ctx context.Context, form Form) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.forms[form.ID]
	if !ok {
		return ErrNotFound
	}
	form.CreatedAt = existing.CreatedAt
	form.UpdatedAt = time.Now().UTC()
	r.forms[form.ID] = form
	return nil
}

func (r *MemoryRepo) DeleteForm(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.forms[id]; !ok {
		return ErrNotFound
	}
	delete(r.forms, id)
	for qid, q := range r.questions {
		if q.FormID != id {
			continue
		}
		delete(r.questions, qid)
		for oid, opt := range r.options {
			if opt.QuestionID == qid {
				delete(r.options, oid)
			}
		}
	}
	return nil
}

func (r *MemoryRepo) AddQuestion(ctx context.Context, question Question, options []Option) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	question.ID = r.id()
	question.CreatedAt = now
	question.UpdatedAt = now
	r.questions[question.ID] = question

	for _, opt := range options {
		opt.ID = r.id()
		opt.QuestionID = question.ID
		opt.CreatedAt = now
		opt.UpdatedAt = now
		r.options[opt.ID] = opt
	}
	return question.ID, nil
}

func (r *MemoryRepo) GetQuestion(ctx context.Context, id int64) (Question, error) {
	if err := ctx.Err(); err != nil {
		return Question{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	question, ok := r.questions[id]
	if !ok {
		return Question{}, ErrNotFound
	}
	return question, nil
}

func (r *MemoryRepo) ListQuestions(ctx context.Context, formID int64) ([]Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.questionsOf(formID), nil
}

func (r *MemoryRepo) questionsOf(formID int64) []Question {
	var out []Question
	for _, q := range r.questions {
		if q.FormID == formID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func (r *MemoryRepo) CountQuestions(ctx context.Context, formID int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.questionsOf(formID)), nil
}

func (r *MemoryRepo) UpdateQuestion(ctx context.Context, question Question) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.questions[question.ID]
	if !ok {
		return ErrNotFound
	}
	question.FormID = existing.FormID
	question.CreatedAt = existing.CreatedAt
	question.UpdatedAt = time.Now().UTC()
	r.questions[question.ID] = question
	return nil
}

func (r *MemoryRepo) DeleteQuestion(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	question, ok := r.questions[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.questions, id)
	for oid, opt := range r.options {
		if opt.QuestionID == id {
			delete(r.options, oid)
		}
	}

	for i, q := range r.questionsOf(question.FormID) {
		q.Order = i + 1
		q.UpdatedAt = time.Now().UTC()
		r.questions[q.ID] = q
	}
	return nil
}

func (r *MemoryRepo) AddOption(ctx context.Context, option Option) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	option.ID = r.id()
	option.CreatedAt = now
	option.UpdatedAt = now
	r.options[option.ID] = option
	return option.ID, nil
}

func (r *MemoryRepo) GetOption(ctx context.Context, id int64) (Option, error) {
	if err := ctx.Err(); err != nil {
		return Option{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	option, ok := r.options[id]
	if !ok {
		return Option{}, ErrNotFound
	}
	return option, nil
}

func (r *MemoryRepo) ListOptions(ctx context.Context, questionID int64) ([]Option, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.optionsOf(questionID), nil
}

func (r *MemoryRepo) optionsOf(questionID int64) []Option {
	var out []Option
	for _, opt := range r.options {
		if opt.QuestionID == questionID {
			out = append(out, opt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func (r *MemoryRepo) CountOptions(ctx context.Context, questionID int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.optionsOf(questionID)), nil
}

func (r *MemoryRepo) UpdateOption(ctx context.Context, option Option) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.options[option.ID]
	if !ok {
		return ErrNotFound
	}
	option.QuestionID = existing.QuestionID
	option.CreatedAt = existing.CreatedAt
	option.UpdatedAt = time.Now().UTC()
	r.options[option.ID] = option
	return nil
}

func (r *MemoryRepo) DeleteOption(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	option, ok := r.options[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.options, id)

	for i, opt := range r.optionsOf(option.QuestionID) {
		opt.Order = i + 1
		opt.UpdatedAt = time.Now().UTC()
		r.options[opt.ID] = opt
	}
	return nil
}

func (r *MemoryRepo) CountApplications(ctx context.Context, formID int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	counter := r.applicationCounter
	r.mu.RUnlock()
	if counter == nil {
		return 0, nil
	}
	return counter(formID), nil
}

func page(forms []Form, limit, offset int) []Form {
	if offset >= len(forms) {
		return nil
	}
	forms = forms[offset:]
	if limit > 0 && limit < len(forms) {
		forms = forms[:limit]
	}
	return forms
}
