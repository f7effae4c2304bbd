package events

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/civiclist/server/internal/domain/users"
	"github.com/civiclist/server/internal/sanitize"
)

// DefaultRecentLimit caps the landing-page listing.
const DefaultRecentLimit = 5

type Service struct {
	repo      Repository
	logger    zerolog.Logger
	validator *validator.Validate
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		logger:    logger.With().Str("component", "events").Logger(),
		validator: validator.New(),
	}
}

type SubmitParams struct {
	Title       string `validate:"required,min=3,max=140"`
	Description string `validate:"max=10000"`
	Category    string `validate:"required,min=2,max=64"`
	Location    string `validate:"required,min=2,max=200"`
	Date        string `validate:"required"`
}

// SubmitResult reports whether the event went straight to the public listing
// or is waiting on an administrator.
type SubmitResult struct {
	Event     *Event
	Published bool
}

// Submit creates an event on behalf of the actor. The approved flag is a
// snapshot of the actor's verified-organizer status at submission time; a
// later change to that flag does not touch existing events. Banned actors
// are refused before anything is written.
func (s *Service) Submit(ctx context.Context, actor *users.User, params SubmitParams) (SubmitResult, error) {
	if actor == nil {
		return SubmitResult{}, ErrNotAuthenticated
	}
	if actor.IsBanned {
		return SubmitResult{}, ErrForbidden
	}

	if err := s.validator.Struct(params); err != nil {
		return SubmitResult{}, err
	}

	startsAt, err := time.Parse(DateLayout, params.Date)
	if err != nil {
		return SubmitResult{}, ErrInvalidDate
	}

	event, err := s.repo.Create(ctx, CreateParams{
		Title:       sanitize.Text(params.Title),
		Description: sanitize.HTML(params.Description),
		Category:    sanitize.Text(params.Category),
		Location:    sanitize.Text(params.Location),
		StartsAt:    startsAt,
		CreatedBy:   actor.ID,
		Approved:    actor.VerifiedOrganizer,
	})
	if err != nil {
		return SubmitResult{}, fmt.Errorf("create event: %w", err)
	}

	s.logger.Info().
		Int64("event_id", event.ID).
		Int64("created_by", actor.ID).
		Bool("approved", event.Approved).
		Msg("event submitted")

	return SubmitResult{Event: event, Published: event.Approved}, nil
}

// ListRecent returns up to limit published events, newest date first.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return s.repo.ListRecent(ctx, limit)
}

// UpcomingResult pairs the filtered listing with the category set used to
// populate a filter control. Categories come from every event on record,
// not just listable ones.
type UpcomingResult struct {
	Events     []Event
	Categories []string
}

// ListUpcoming returns published events soonest first, optionally narrowed
// to one category.
func (s *Service) ListUpcoming(ctx context.Context, category string) (UpcomingResult, error) {
	items, err := s.repo.ListUpcoming(ctx, category)
	if err != nil {
		return UpcomingResult{}, err
	}
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return UpcomingResult{}, err
	}
	return UpcomingResult{Events: items, Categories: categories}, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Event, error) {
	return s.repo.GetByID(ctx, id)
}

// Approve moves a pending event into the public listing. Admin-only; the
// caller is expected to have verified the actor.
func (s *Service) Approve(ctx context.Context, id int64) (*Event, error) {
	event, err := s.repo.SetApproved(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("event_id", event.ID).Msg("event approved")
	return event, nil
}

// Cancel withdraws an event. Allowed for administrators and for the owning
// user. Cancellation is terminal: there is no un-cancel.
func (s *Service) Cancel(ctx context.Context, actor *users.User, id int64) (*Event, error) {
	if actor == nil {
		return nil, ErrNotAuthenticated
	}

	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin && event.CreatedBy != actor.ID {
		return nil, ErrForbidden
	}

	event, err = s.repo.SetCancelled(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("event_id", event.ID).
		Int64("cancelled_by", actor.ID).
		Msg("event cancelled")

	return event, nil
}
