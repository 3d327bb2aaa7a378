// Package postgres provides the PostgreSQL-backed repository
// implementations and the LISTEN/NOTIFY change feed.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/ecosan/sanitrack/internal/domain"
	"github.com/ecosan/sanitrack/internal/service/client"
)

// ClientRepo implements client.Repository against PostgreSQL.
type ClientRepo struct{ db *sql.DB }

// NewClientRepo creates a Postgres-backed client repository.
func NewClientRepo(db *sql.DB) *ClientRepo { return &ClientRepo{db: db} }

const clientColumns = `id, name, email, phone, status, start_date, duration_days, progress, active, created_at, updated_at`

func scanClient(row interface{ Scan(...interface{}) error }) (*domain.Client, error) {
	c := &domain.Client{}
	err := row.Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.Status, &c.StartDate,
		&c.DurationDays, &c.Progress, &c.Active, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *ClientRepo) ListActive(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+clientColumns+`
		FROM clients
		WHERE active = true
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var out []domain.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return out, nil
}

func (r *ClientRepo) Insert(ctx context.Context, c *domain.Client) (*domain.Client, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	created, err := scanClient(r.db.QueryRowContext(ctx, `
		INSERT INTO clients
			(id, name, email, phone, status, start_date, duration_days, progress, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING `+clientColumns+`
	`, c.ID, c.Name, c.Email, c.Phone, c.Status, c.StartDate, c.DurationDays, c.Progress, c.Active))
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return created, nil
}

func (r *ClientRepo) Update(ctx context.Context, id string, u client.UpdateFields) (*domain.Client, error) {
	sets := []string{}
	args := []interface{}{}
	idx := 1
	add := func(col string, val interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, val)
		idx++
	}

	if u.Name != nil {
		add("name", *u.Name)
	}
	if u.Email != nil {
		add("email", *u.Email)
	}
	if u.Phone != nil {
		add("phone", *u.Phone)
	}
	if u.Status != nil {
		add("status", *u.Status)
	}
	if u.DurationDays != nil {
		add("duration_days", *u.DurationDays)
	}
	if u.Progress != nil {
		add("progress", *u.Progress)
	}

	if len(sets) == 0 {
		// Nothing to change: return the current row.
		c, err := scanClient(r.db.QueryRowContext(ctx,
			`SELECT `+clientColumns+` FROM clients WHERE id = $1 AND active = true`, id))
		if err == sql.ErrNoRows {
			return nil, client.ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("get client: %w", err)
		}
		return c, nil
	}

	q := fmt.Sprintf(
		"UPDATE clients SET %s, updated_at = NOW() WHERE id = $%d AND active = true RETURNING %s",
		joinComma(sets), idx, clientColumns)
	args = append(args, id)

	updated, err := scanClient(r.db.QueryRowContext(ctx, q, args...))
	if err == sql.ErrNoRows {
		return nil, client.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}
	return updated, nil
}

func (r *ClientRepo) SoftDelete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE clients SET active = false, updated_at = NOW()
		WHERE id = $1 AND active = true
	`, id)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return client.ErrNotFound
	}
	return nil
}

func (r *ClientRepo) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM clients WHERE active = true`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count clients: %w", err)
	}
	return n, nil
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
