package users

import "time"

// Role values assigned to user accounts.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Account status values.
const (
	StatusActive    = "ACTIVE"
	StatusSuspended = "SUSPENDED"
	StatusDeleted   = "DELETED"
)

// User is a registered account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Profile carries the optional public profile attached to a user.
type Profile struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"userId"`
	Bio             string    `json:"bio"`
	ProfileImageURL string    `json:"profileImageUrl"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
