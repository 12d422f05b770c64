package users

import (
	"context"
	"errors"
)

// Service contains user account and profile logic.
type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// GetByID returns a user by ID.
func (s *Service) GetByID(ctx context.Context, id int64) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	return s.Repo.GetByID(ctx, id)
}

// Info returns a user together with their profile.
func (s *Service) Info(ctx context.Context, id int64) (User, Profile, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return User{}, Profile{}, err
	}
	profile, err := s.Repo.GetProfile(ctx, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return User{}, Profile{}, err
	}
	return user, profile, nil
}

// UpdateProfile applies a partial profile update. Nil fields are left unchanged.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, bio, imageURL *string) (Profile, error) {
	if err := s.Repo.UpdateProfile(ctx, userID, bio, imageURL); err != nil {
		return Profile{}, err
	}
	return s.Repo.GetProfile(ctx, userID)
}
