// Package settings manages the single application-wide settings document:
// load with defaults, validated updates, and factory reset.
package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/ecosan/sanitrack/internal/domain"
)

// ErrNotFound is returned by repositories when no settings row exists yet.
var ErrNotFound = errors.New("settings not found")

var (
	validThemes    = map[string]bool{"light": true, "dark": true}
	validLanguages = map[string]bool{"es": true, "en": true}
)

// Repository defines the persistence contract for the settings document.
type Repository interface {
	// Get returns the stored settings. Returns ErrNotFound before first save.
	Get(ctx context.Context) (*domain.Settings, error)

	// Save persists the full document, overwriting any previous version.
	Save(ctx context.Context, s *domain.Settings) error
}

// Service implements settings business logic.
type Service struct {
	repo Repository
}

// NewService creates a settings service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the current settings, falling back to the factory defaults
// when nothing has been saved yet.
func (s *Service) Get(ctx context.Context) (domain.Settings, error) {
	stored, err := s.repo.Get(ctx)
	if errors.Is(err, ErrNotFound) {
		return domain.DefaultSettings(), nil
	}
	if err != nil {
		return domain.Settings{}, err
	}
	return *stored, nil
}

// Update validates and persists a full settings document.
func (s *Service) Update(ctx context.Context, in domain.Settings) (domain.Settings, error) {
	if in.SiteName == "" {
		return domain.Settings{}, fmt.Errorf("site name is required")
	}
	if !validThemes[in.Theme] {
		return domain.Settings{}, fmt.Errorf("unknown theme %q", in.Theme)
	}
	if !validLanguages[in.Language] {
		return domain.Settings{}, fmt.Errorf("unknown language %q", in.Language)
	}
	if in.Security.SessionTimeoutMinutes <= 0 {
		return domain.Settings{}, fmt.Errorf("session timeout must be positive")
	}
	if in.Security.PasswordExpiryDays < 0 {
		return domain.Settings{}, fmt.Errorf("password expiry cannot be negative")
	}

	if err := s.repo.Save(ctx, &in); err != nil {
		return domain.Settings{}, err
	}
	return in, nil
}

// Reset restores and persists the factory defaults.
func (s *Service) Reset(ctx context.Context) (domain.Settings, error) {
	def := domain.DefaultSettings()
	if err := s.repo.Save(ctx, &def); err != nil {
		return domain.Settings{}, err
	}
	return def, nil
}
