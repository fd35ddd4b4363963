// Package user owns the canonical user records and their persistence.
// Repositories hand out copies; callers never mutate stored state directly.
package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"soscancer.org/internal/rbac"
)

var (
	ErrNotFound      = errors.New("user: not found")
	ErrEmailTaken    = errors.New("user: email already registered")
	ErrWrongPassword = errors.New("user: current password does not match")
	ErrInvalidInput  = errors.New("user: invalid input")
)

// User is the stored identity record. PasswordHash never leaves the package
// boundary except inside this struct for credential verification; API
// responses use Profile.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Role         rbac.Role `json:"role"`
	PasswordHash string    `json:"hashed_password"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile is the public view of a user with the password hash stripped.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Role      rbac.Role `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Profile returns the public view.
func (u *User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// CreateInput carries registration fields. Role is optional and defaults
// to "user".
type CreateInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Role     rbac.Role
}

// UpdateInput is a partial profile patch. There is deliberately no password
// field; password changes go through Repository.ChangePassword, which
// verifies the current password first.
type UpdateInput struct {
	Name  *string
	Email *string
	Phone *string
	Role  *rbac.Role
}

// Repository is the persistence boundary for user records. The file-backed
// implementation suits a single process; Postgres is the serialized backing
// store for anything beyond that.
type Repository interface {
	Create(ctx context.Context, u *User) error
	FindAll(ctx context.Context) ([]Profile, error)
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, id string, patch UpdateInput) (*User, error)
	Remove(ctx context.Context, id string) error
	ChangePassword(ctx context.Context, id, current, next string) error
}

// New validates registration input and builds a record with a fresh id,
// hashed password and timestamps.
func New(input CreateInput) (*User, error) {
	name := strings.TrimSpace(input.Name)
	email := NormalizeEmail(input.Email)
	if name == "" || email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidInput
	}
	if input.Password == "" {
		return nil, ErrInvalidInput
	}
	role := input.Role
	if role == "" {
		role = rbac.RoleUser
	}
	if !rbac.Known(role) {
		return nil, ErrInvalidInput
	}
	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(input.Phone),
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// NormalizeEmail lowercases and trims an address so lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// applyPatch merges a validated patch into a copy of the record and bumps
// the updated timestamp. Shared by both repository implementations.
func applyPatch(u User, patch UpdateInput) (User, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return User{}, ErrInvalidInput
		}
		u.Name = name
	}
	if patch.Email != nil {
		email := NormalizeEmail(*patch.Email)
		if email == "" || !strings.Contains(email, "@") {
			return User{}, ErrInvalidInput
		}
		u.Email = email
	}
	if patch.Phone != nil {
		u.Phone = strings.TrimSpace(*patch.Phone)
	}
	if patch.Role != nil {
		if !rbac.Known(*patch.Role) {
			return User{}, ErrInvalidInput
		}
		u.Role = *patch.Role
	}
	u.UpdatedAt = time.Now().UTC()
	return u, nil
}
