// Package user implements dashboard account management: listing, creation,
// edits, and deactivation of the admin users that sign in to the panel.
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/ecosan/sanitrack/internal/domain"
)

// Sentinel errors for the user service layer.
var (
	ErrNotFound     = errors.New("user not found")
	ErrDuplicate    = errors.New("a user with this email already exists")
	ErrLastAdmin    = errors.New("cannot deactivate the last active admin")
	ErrWeakPassword = errors.New("password must be at least 8 characters")
)

// RoleFilterAll is the sentinel role value that matches every user.
const RoleFilterAll = "all"

// Repository defines the data access contract for users.
// Implementations must be safe for concurrent use.
type Repository interface {
	// List returns users matching the filter, ordered by created_at DESC.
	List(ctx context.Context, f ListFilter) ([]domain.User, error)

	// GetByID returns a single user. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail returns the user with the given email, including the
	// password hash. Returns ErrNotFound if absent.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Create inserts a new user. Returns ErrDuplicate on an email clash.
	Create(ctx context.Context, u *domain.User) (*domain.User, error)

	// Update applies the non-nil fields and returns the updated user.
	Update(ctx context.Context, id string, u UpdateFields) (*domain.User, error)

	// CountActiveAdmins returns how many active admin accounts exist.
	CountActiveAdmins(ctx context.Context) (int, error)
}

// ListFilter controls search and role filtering for user lists.
type ListFilter struct {
	Search string
	Role   string
}

// UpdateFields holds the mutable fields for a user update. Nil fields are
// not applied.
type UpdateFields struct {
	Name         *string          `json:"name"`
	Email        *string          `json:"email"`
	Phone        *string          `json:"phone"`
	Role         *domain.UserRole `json:"role"`
	Active       *bool            `json:"active"`
	PasswordHash *string          `json:"-"`
}

// CreateInput holds the fields for creating a new user account.
type CreateInput struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Phone    string          `json:"phone"`
	Role     domain.UserRole `json:"role"`
	Password string          `json:"password"`
}

// Service implements user account business logic.
type Service struct {
	repo Repository
}

// NewService creates a user service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns users matching the filter. The role "all" (or empty) matches
// every role; the search term matches name or email, case-insensitively.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.User, error) {
	if strings.EqualFold(f.Role, RoleFilterAll) {
		f.Role = ""
	}
	return s.repo.List(ctx, f)
}

// Get returns a single user by id.
func (s *Service) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByEmail returns a user by email, including the password hash. Used by
// the auth layer to verify credentials.
func (s *Service) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// Create validates the input, hashes the password, and persists the user as
// active. New accounts default to the plain user role.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if input.Name == "" {
		// Mirror the panel's fallback: derive the display name from the email.
		input.Name = strings.SplitN(input.Email, "@", 2)[0]
	}
	if len(input.Password) < 8 {
		return nil, ErrWeakPassword
	}
	if input.Role == "" {
		input.Role = domain.RoleUser
	}
	if !input.Role.Valid() {
		return nil, fmt.Errorf("unknown role %q", input.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return s.repo.Create(ctx, &domain.User{
		Name:         input.Name,
		Email:        input.Email,
		Phone:        input.Phone,
		Role:         input.Role,
		Active:       true,
		PasswordHash: string(hash),
	})
}

// Update applies a partial change. A password change is accepted through
// the separate Password field on the request and re-hashed here.
func (s *Service) Update(ctx context.Context, id string, u UpdateFields, newPassword string) (*domain.User, error) {
	if u.Role != nil && !u.Role.Valid() {
		return nil, fmt.Errorf("unknown role %q", *u.Role)
	}
	if newPassword != "" {
		if len(newPassword) < 8 {
			return nil, ErrWeakPassword
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		h := string(hash)
		u.PasswordHash = &h
	}

	// Deactivating (or demoting) the last active admin would lock everyone out.
	if target, err := s.repo.GetByID(ctx, id); err == nil && target.Role == domain.RoleAdmin && target.Active {
		losesAdmin := (u.Active != nil && !*u.Active) || (u.Role != nil && *u.Role != domain.RoleAdmin)
		if losesAdmin {
			n, err := s.repo.CountActiveAdmins(ctx)
			if err != nil {
				return nil, err
			}
			if n <= 1 {
				return nil, ErrLastAdmin
			}
		}
	}

	return s.repo.Update(ctx, id, u)
}

// Deactivate soft-disables an account; the row is kept.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	inactive := false
	_, err := s.Update(ctx, id, UpdateFields{Active: &inactive}, "")
	return err
}
