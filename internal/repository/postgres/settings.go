package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ecosan/sanitrack/internal/domain"
	"github.com/ecosan/sanitrack/internal/service/settings"
)

// SettingsRepo implements settings.Repository against PostgreSQL. The
// document is a single jsonb row; the fixed id keeps it that way.
type SettingsRepo struct{ db *sql.DB }

// NewSettingsRepo creates a Postgres-backed settings repository.
func NewSettingsRepo(db *sql.DB) *SettingsRepo { return &SettingsRepo{db: db} }

const settingsRowID = 1

func (r *SettingsRepo) Get(ctx context.Context) (*domain.Settings, error) {
	var (
		raw       []byte
		updatedAt time.Time
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT data, updated_at FROM app_settings WHERE id = $1`, settingsRowID,
	).Scan(&raw, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, settings.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	var s domain.Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	s.UpdatedAt = updatedAt
	return &s, nil
}

func (r *SettingsRepo) Save(ctx context.Context, s *domain.Settings) error {
	s.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO app_settings (id, data, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`, settingsRowID, raw, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
