package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"amia-console/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Directory loads accounts from the profiles table.
type Directory struct {
	pool *pgxpool.Pool
}

func NewDirectory(pool *pgxpool.Pool) *Directory {
	return &Directory{pool: pool}
}

const profileColumns = `id::text, email, full_name, role, password_hash`

func (d *Directory) FindByEmail(ctx context.Context, email string) (domain.Profile, error) {
	row := d.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE lower(email) = lower($1)`, strings.TrimSpace(email))
	return scanProfile(row)
}

func (d *Directory) LoadProfile(ctx context.Context, id string) (domain.Profile, error) {
	row := d.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	return scanProfile(row)
}

// Upsert creates or replaces the account with p's e-mail and returns its id.
func (d *Directory) Upsert(ctx context.Context, p domain.Profile) (string, error) {
	var id string
	err := d.pool.QueryRow(ctx, `
		INSERT INTO profiles (email, full_name, role, password_hash)
		VALUES (lower($1), $2, $3, $4)
		ON CONFLICT (email) DO UPDATE
		SET full_name = EXCLUDED.full_name, role = EXCLUDED.role, password_hash = EXCLUDED.password_hash
		RETURNING id::text`,
		strings.TrimSpace(p.Email), p.FullName, string(p.Role), p.PasswordHash,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upsert profile: %w", err)
	}
	return id, nil
}

func scanProfile(row pgx.Row) (domain.Profile, error) {
	var (
		p    domain.Profile
		role string
	)
	err := row.Scan(&p.ID, &p.Email, &p.FullName, &role, &p.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Profile{}, domain.NotFound("profile")
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	p.Role = domain.Role(role)
	return p, nil
}
