package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrNotPending     = errors.New("request already reviewed")
)

// Role is the closed set of dashboard roles. Every decision that depends on
// a role switches over all three values.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleDeveloper Role = "developer"
	RoleMarketer  Role = "marketer"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleDeveloper, RoleMarketer:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Status is the lifecycle of a sign-up request. An approved request is an
// active user account.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusApproved, StatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	DesiredRole  Role      `json:"desired_role"`
	Status       Status    `json:"status"`
	Message      string    `json:"message,omitempty"`
	RequestedAt  time.Time `json:"requested_at"`
	PasswordHash string    `json:"-"`
}

// Store persists users and sign-up requests. Emails are compared
// case-insensitively.
type Store interface {
	Create(ctx context.Context, u User) error
	ByID(ctx context.Context, id string) (User, error)
	ByEmail(ctx context.Context, email string) (User, error)
	// List returns users newest first; an empty status means all.
	List(ctx context.Context, status Status) ([]User, error)
	// SetStatus reviews a pending request. Users in any other status are
	// left untouched and ErrNotPending is returned.
	SetStatus(ctx context.Context, id string, status Status) (User, error)
	// CountApprovedAdmins counts approved admins other than exceptEmail.
	CountApprovedAdmins(ctx context.Context, exceptEmail string) (int, error)
	// UpsertApprovedAdmin creates or promotes u.Email to an approved admin.
	UpsertApprovedAdmin(ctx context.Context, u User) (User, error)
}
