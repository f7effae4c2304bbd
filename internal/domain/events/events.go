package events

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound         = errors.New("event not found")
	ErrForbidden        = errors.New("forbidden")
	ErrNotAuthenticated = errors.New("authentication required")

	// ErrInvalidDate is returned when a submitted date string does not match
	// DateLayout exactly.
	ErrInvalidDate = errors.New("invalid date")
)

// DateLayout is the only accepted format for submitted event dates.
const DateLayout = "2006-01-02 15:04"

// Event approval and cancellation are independent flags; only an event with
// Approved set and Cancelled unset is publicly listable.
type Event struct {
	ID          int64
	Title       string
	Description string
	Category    string
	Location    string
	StartsAt    time.Time
	CreatedAt   time.Time
	CreatedBy   int64
	Approved    bool
	Cancelled   bool
}

// Listable reports whether the event may appear in public listings.
func (e Event) Listable() bool {
	return e.Approved && !e.Cancelled
}

type CreateParams struct {
	Title       string
	Description string
	Category    string
	Location    string
	StartsAt    time.Time
	CreatedBy   int64
	Approved    bool
}

// Repository is the persistence contract for events. Implementations return
// ErrNotFound for missing rows. ListRecent and ListUpcoming must only return
// approved, non-cancelled events; Categories draws from every event row.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Event, error)
	GetByID(ctx context.Context, id int64) (*Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
	ListUpcoming(ctx context.Context, category string) ([]Event, error)
	Categories(ctx context.Context) ([]string, error)
	SetApproved(ctx context.Context, id int64) (*Event, error)
	SetCancelled(ctx context.Context, id int64) (*Event, error)
}
