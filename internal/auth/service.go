package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	sharedauth "bsslab-backend/internal/shared/auth"
	"bsslab-backend/internal/users"
)

var (
	ErrDuplicate          = errors.New("duplicate user")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Service handles signup and login.
type Service struct {
	Users users.Repo
}

func NewService(userRepo users.Repo) *Service {
	return &Service{Users: userRepo}
}

// TokenResponse is returned to a successfully authenticated caller.
type TokenResponse struct {
	Token    string `json:"token"`
	Type     string `json:"type"`
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Register creates a new account with a bcrypt password hash and an empty
// profile. Username and email must be unused.
func (s *Service) Register(ctx context.Context, username, email, password string) (int64, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return 0, errors.New("username, email and password are required")
	}

	taken, err := s.Users.ExistsByUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	if taken {
		return 0, fmt.Errorf("%w: username is already taken", ErrDuplicate)
	}

	taken, err = s.Users.ExistsByEmail(ctx, email)
	if err != nil {
		return 0, err
	}
	if taken {
		return 0, fmt.Errorf("%w: email is already in use", ErrDuplicate)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}

	id, err := s.Users.Create(ctx, users.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         users.RoleUser,
		Status:       users.StatusActive,
	})
	if err != nil {
		if errors.Is(err, users.ErrDuplicate) {
			return 0, fmt.Errorf("%w: username or email is already in use", ErrDuplicate)
		}
		return 0, err
	}
	return id, nil
}

// Login verifies the password and issues a signed token.
func (s *Service) Login(ctx context.Context, username, password string) (TokenResponse, error) {
	user, err := s.Users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return TokenResponse{}, ErrInvalidCredentials
		}
		return TokenResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return TokenResponse{}, ErrInvalidCredentials
	}

	return s.issueToken(user)
}

func (s *Service) issueToken(user users.User) (TokenResponse, error) {
	token, err := sharedauth.SignJWT(sharedauth.Claims{
		Sub:      strconv.FormatInt(user.ID, 10),
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	})
	if err != nil {
		return TokenResponse{}, err
	}
	return TokenResponse{
		Token:    token,
		Type:     "Bearer",
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}, nil
}
