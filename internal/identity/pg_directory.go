package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgDirectory struct {
	pool *pgxpool.Pool
}

func NewPgDirectory(pool *pgxpool.Pool) *PgDirectory {
	return &PgDirectory{pool: pool}
}

func scanIdentity(row pgx.Row) (*Identity, error) {
	var u Identity

	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Role,
		&u.FullName,
		&u.Email,
		&u.Specialty,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &u, nil
}

func (d *PgDirectory) FindUserByUsername(ctx context.Context, username string) (*Identity, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT id, username, role, full_name, email, specialty, created_at, updated_at
		FROM users
		WHERE username = $1
	`, username)
	return scanIdentity(row)
}

func (d *PgDirectory) FindUserByID(ctx context.Context, id uuid.UUID) (*Identity, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT id, username, role, full_name, email, specialty, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id)
	return scanIdentity(row)
}

// CreateUser inserts a directory entry. Used by seeding and tests; the
// scheduling core never writes users.
func (d *PgDirectory) CreateUser(ctx context.Context, u *Identity) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return d.pool.QueryRow(ctx, `
		INSERT INTO users (id, username, role, full_name, email, specialty, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING created_at, updated_at
	`, u.ID, u.Username, u.Role, u.FullName, u.Email, u.Specialty).Scan(&u.CreatedAt, &u.UpdatedAt)
}
