package auth

import (
	"context"
	"errors"
	"testing"

	"bsslab-backend/internal/users"
)

func TestRegisterAndLogin(t *testing.T) {
	svc := NewService(users.NewMemoryRepo())
	ctx := context.Background()

	id, err := svc.Register(ctx, "kim", "kim@bsslab.dev", "correct horse battery")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if id == 0 {
		t.Fatalf("expected non-zero user id")
	}

	resp, err := svc.Login(ctx, "kim", "correct horse battery")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Token == "" || resp.Type != "Bearer" {
		t.Fatalf("unexpected token response: %+v", resp)
	}
	if resp.Username != "kim" || resp.Role != users.RoleUser {
		t.Fatalf("unexpected identity in response: %+v", resp)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc := NewService(users.NewMemoryRepo())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "kim", "kim@bsslab.dev", "password-one"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.Register(ctx, "kim", "other@bsslab.dev", "password-two"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for username, got %v", err)
	}
	if _, err := svc.Register(ctx, "other", "kim@bsslab.dev", "password-two"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for email, got %v", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := NewService(users.NewMemoryRepo())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "kim", "kim@bsslab.dev", "right password"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.Login(ctx, "kim", "wrong password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}
