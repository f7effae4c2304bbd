package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/civiclist/server/internal/domain/users"
)

var _ users.Repository = (*UserRepository)(nil)

const userColumns = `id, username, email, password_hash, is_admin, is_banned, verified_organizer, created_at`

func (r *UserRepository) Create(ctx context.Context, params users.CreateParams) (*users.User, error) {
	row := r.queryer().QueryRow(ctx, `
INSERT INTO users (username, email, password_hash)
VALUES ($1, $2, $3)
RETURNING `+userColumns,
		params.Username,
		params.Email,
		params.PasswordHash,
	)

	user, err := scanUser(row)
	if err != nil {
		if taken := uniqueViolation(err); taken != nil {
			return nil, taken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*users.User, error) {
	row := r.queryer().QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	row := r.queryer().QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	row := r.queryer().QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return user, nil
}

func (r *UserRepository) UpdateFlags(ctx context.Context, id int64, update users.FlagUpdate) (*users.User, error) {
	row := r.queryer().QueryRow(ctx, `
UPDATE users
   SET is_admin = COALESCE($2, is_admin),
       is_banned = COALESCE($3, is_banned),
       verified_organizer = COALESCE($4, verified_organizer)
 WHERE id = $1
RETURNING `+userColumns,
		id,
		update.IsAdmin,
		update.IsBanned,
		update.VerifiedOrganizer,
	)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("update user flags: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*users.User, error) {
	var (
		u         users.User
		createdAt pgtype.Timestamptz
	)
	if err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.IsAdmin,
		&u.IsBanned,
		&u.VerifiedOrganizer,
		&createdAt,
	); err != nil {
		return nil, err
	}
	if createdAt.Valid {
		u.CreatedAt = createdAt.Time
	}
	return &u, nil
}

// uniqueViolation maps a Postgres unique-constraint failure to the domain
// duplicate error, keyed on the constraint name. Covers the signup race the
// pre-insert checks cannot.
func uniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}
	switch pgErr.ConstraintName {
	case "users_email_key":
		return users.ErrEmailTaken
	case "users_username_key":
		return users.ErrUsernameTaken
	}
	return nil
}
