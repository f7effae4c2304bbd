package participants

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/civiclist/server/internal/sanitize"
)

type Service struct {
	repo      Repository
	logger    zerolog.Logger
	validator *validator.Validate
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		logger:    logger.With().Str("component", "participants").Logger(),
		validator: validator.New(),
	}
}

type RegisterParams struct {
	EventID int64  `validate:"required,gt=0"`
	Name    string `validate:"required,min=2,max=100"`
	Email   string `validate:"required,email,max=254"`
	Phone   string `validate:"max=32"`
	Guests  int    `validate:"gte=0"`
}

// Register records a signup against an existing event.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*Participant, error) {
	if err := s.validator.Struct(params); err != nil {
		return nil, err
	}

	participant, err := s.repo.Create(ctx, CreateParams{
		EventID: params.EventID,
		Name:    sanitize.Text(params.Name),
		Email:   params.Email,
		Phone:   sanitize.Text(params.Phone),
		Guests:  params.Guests,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("participant_id", participant.ID).
		Int64("event_id", participant.EventID).
		Int("guests", participant.Guests).
		Msg("participant registered")

	return participant, nil
}

func (s *Service) ListByEvent(ctx context.Context, eventID int64) ([]Participant, error) {
	items, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return items, nil
}
