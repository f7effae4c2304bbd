package users

import (
	"context"
	"errors"
	"time"
)

// Domain errors surfaced to the HTTP layer.
var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email is already taken")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type User struct {
	ID                int64
	Username          string
	Email             string
	PasswordHash      string
	IsAdmin           bool
	IsBanned          bool
	VerifiedOrganizer bool
	CreatedAt         time.Time
}

type CreateParams struct {
	Username     string
	Email        string
	PasswordHash string
}

// FlagUpdate carries administrative flag changes. Nil fields are left as-is.
type FlagUpdate struct {
	IsAdmin           *bool
	IsBanned          *bool
	VerifiedOrganizer *bool
}

// Repository is the persistence contract for user records. Implementations
// must return ErrNotFound for missing rows and ErrEmailTaken/ErrUsernameTaken
// when a unique constraint rejects an insert.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	UpdateFlags(ctx context.Context, id int64, update FlagUpdate) (*User, error)
}

// TxRunner executes fn against a Repository bound to a single database
// transaction, committing when fn returns nil and rolling back otherwise.
type TxRunner func(ctx context.Context, fn func(Repository) error) error
