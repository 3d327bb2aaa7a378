package client

import (
	"context"

	"github.com/ecosan/sanitrack/internal/domain"
)

// Repository defines the data access contract for client records.
// Implementations must be safe for concurrent use.
type Repository interface {
	// ListActive returns every record with the active flag set, ordered by
	// created_at DESC (newest first).
	ListActive(ctx context.Context) ([]domain.Client, error)

	// Insert persists a new record and returns it with database-assigned
	// timestamps filled in.
	Insert(ctx context.Context, c *domain.Client) (*domain.Client, error)

	// Update applies the non-nil fields and returns the updated record.
	// Returns ErrNotFound if no active record matches the id.
	Update(ctx context.Context, id string, u UpdateFields) (*domain.Client, error)

	// SoftDelete clears the active flag. The record stays queryable by id
	// but disappears from listings. Returns ErrNotFound for unknown ids.
	SoftDelete(ctx context.Context, id string) error

	// CountActive returns the number of active records, for the dashboard
	// summary tile.
	CountActive(ctx context.Context) (int, error)
}

// ChangeFeed delivers notifications that the client table changed. The
// payload carries no detail: any event just triggers a full reload.
type ChangeFeed interface {
	// Subscribe starts delivering change notifications until ctx is
	// cancelled, at which point the returned channel is closed.
	Subscribe(ctx context.Context) (<-chan struct{}, error)
}

// CreateInput holds the fields for creating a new client record. StartDate
// and Progress are not accepted from callers; they are computed at creation
// time.
type CreateInput struct {
	Name         string              `json:"name"`
	Email        string              `json:"email"`
	Phone        string              `json:"phone"`
	Status       domain.ClientStatus `json:"status"`
	DurationDays int                 `json:"duration_days"`
}

// UpdateFields holds the mutable fields for a client update. Nil fields are
// not applied. StartDate is intentionally absent: it is fixed at creation.
type UpdateFields struct {
	Name         *string              `json:"name"`
	Email        *string              `json:"email"`
	Phone        *string              `json:"phone"`
	Status       *domain.ClientStatus `json:"status"`
	DurationDays *int                 `json:"duration_days"`
	Progress     *int                 `json:"progress"`
}
