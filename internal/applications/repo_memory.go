package applications

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo for dev and tests.
type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int64

	applications map[int64]Application
	answers      map[int64]Answer
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		applications: make(map[int64]Application),
		answers:      make(map[int64]Answer),
	}
}

func (r *MemoryRepo) id() int64 {
	r.nextID++
	return r.nextID
}

func (r *MemoryRepo) CreateApplication(ctx context.Context, app Application, answers []Answer) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	app.ID = r.id()
	app.CreatedAt = now
	app.UpdatedAt = now
	r.applications[app.ID] = app

	for _, answer := range answers {
		answer.ID = r.id()
		answer.ApplicationID = app.ID
		answer.CreatedAt = now
		answer.UpdatedAt = now
		answer.SelectedOptionIDs = append([]int64(nil), answer.SelectedOptionIDs...)
		r.answers[answer.ID] = answer
	}
	return app.ID, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id int64) (Application, error) {
	if err := ctx.Err(); err != nil {
		return Application{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	app, ok := r.applications[id]
	if !ok {
		return Application{}, ErrNotFound
	}
	return app, nil
}

func (r *MemoryRepo) List(ctx context.Context, filter ListFilter, limit, offset int) ([]Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Application
	for _, app := range r.applications {
		if filter.FormID != 0 && app.FormID != filter.FormID {
			continue
		}
		if filter.Status != "" && app.Status != filter.Status {
			continue
		}
		if filter.UserID != 0 && (app.UserID == nil || *app.UserID != filter.UserID) {
			continue
		}
		if filter.Email != "" && !strings.EqualFold(app.ApplicantEmail, filter.Email) {
			continue
		}
		out = append(out, app)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepo) Update(ctx context.Context, app Application) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.applications[app.ID]
	if !ok {
		return ErrNotFound
	}
	app.FormID = existing.FormID
	app.UserID = existing.UserID
	app.CreatedAt = existing.CreatedAt
	app.UpdatedAt = time.Now().UTC()
	r.applications[app.ID] = app
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.applications[id]; !ok {
		return ErrNotFound
	}
	delete(r.applications, id)
	for aid, answer := range r.answers {
		if answer.ApplicationID == id {
			delete(r.answers, aid)
		}
	}
	return nil
}

func (r *MemoryRepo) HasActive(ctx context.Context, formID int64, userID *int64, email string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, app := range r.applications {
		if app.FormID != formID || !IsActiveStatus(app.Status) {
			continue
		}
		if userID != nil {
			if app.UserID != nil && *app.UserID == *userID {
				return true, nil
			}
			continue
		}
		if app.UserID == nil && strings.EqualFold(app.ApplicantEmail, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepo) CountByForm(ctx context.Context, formID int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, app := range r.applications {
		if app.FormID == formID {
			count++
		}
	}
	return count, nil
}

func (r *MemoryRepo) ListAnswers(ctx context.Context, applicationID int64) ([]Answer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Answer
	for _, answer := range r.answers {
		if answer.ApplicationID == applicationID {
			answer.SelectedOptionIDs = append([]int64(nil), answer.SelectedOptionIDs...)
			out = append(out, answer)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepo) GetAnswer(ctx context.Context, applicationID, questionID int64) (Answer, error) {
	if err := ctx.Err(); err != nil {
		return Answer{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, answer := range r.answers {
		if answer.ApplicationID == applicationID && answer.QuestionID == questionID {
			answer.SelectedOptionIDs = append([]int64(nil), answer.SelectedOptionIDs...)
			return answer, nil
		}
	}
	return Answer{}, ErrNotFound
}

func (r *MemoryRepo) CreateAnswer(ctx context.Context, answer Answer) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	answer.ID = r.id()
	answer.CreatedAt = now
	answer.UpdatedAt = now
	answer.SelectedOptionIDs = append([]int64(nil), answer.SelectedOptionIDs...)
	r.answers[answer.ID] = answer
	return answer.ID, nil
}

func (r *MemoryRepo) UpdateAnswer(ctx context.Context, answer Answer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.answers[answer.ID]
	if !ok {
		return ErrNotFound
	}
	answer.ApplicationID = existing.ApplicationID
	answer.QuestionID = existing.QuestionID
	answer.CreatedAt = existing.CreatedAt
	answer.UpdatedAt = time.Now().UTC()
	answer.SelectedOptionIDs = append([]int64(nil), answer.SelectedOptionIDs...)
	r.answers[answer.ID] = answer
	return nil
}
