package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the cost factor for bcrypt password hashing
const BcryptCost = 12

// Service handles account registration, authentication, and the
// administrative flag mutations.
type Service struct {
	repo      Repository
	tx        TxRunner
	logger    zerolog.Logger
	validator *validator.Validate
}

func NewService(repo Repository, tx TxRunner, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		tx:        tx,
		logger:    logger.With().Str("component", "users").Logger(),
		validator: validator.New(),
	}
}

// inTx runs fn inside a transaction when a runner is configured, or against
// the plain repository otherwise.
func (s *Service) inTx(ctx context.Context, fn func(Repository) error) error {
	if s.tx == nil {
		return fn(s.repo)
	}
	return s.tx(ctx, fn)
}

type RegisterParams struct {
	Username string `validate:"required,min=3,max=32"`
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,min=8,max=72"`
}

// Register creates a new account with all flags defaulted false.
//
// The duplicate checks and the insert share one transaction; the narrow race
// that remains under concurrent signups is closed by the store's unique
// constraints, which the repository reports as ErrEmailTaken/ErrUsernameTaken.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*User, error) {
	if err := s.validator.Struct(params); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var user *User
	err = s.inTx(ctx, func(repo Repository) error {
		existing, err := repo.GetByEmail(ctx, params.Email)
		if err == nil && existing != nil {
			return ErrEmailTaken
		} else if err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("check email: %w", err)
		}

		existing, err = repo.GetByUsername(ctx, params.Username)
		if err == nil && existing != nil {
			return ErrUsernameTaken
		} else if err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("check username: %w", err)
		}

		user, err = repo.Create(ctx, CreateParams{
			Username:     params.Username,
			Email:        params.Email,
			PasswordHash: string(hash),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Msg("account registered")

	return user, nil
}

// Authenticate verifies an email/password pair. Failures never reveal
// whether the email exists.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Msg("user authenticated")

	return user, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateFlags applies an administrative flag change and returns the updated
// record.
func (s *Service) UpdateFlags(ctx context.Context, id int64, update FlagUpdate) (*User, error) {
	user, err := s.repo.UpdateFlags(ctx, id, update)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Bool("is_admin", user.IsAdmin).
		Bool("is_banned", user.IsBanned).
		Bool("verified_organizer", user.VerifiedOrganizer).
		Msg("user flags updated")

	return user, nil
}
