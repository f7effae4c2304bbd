package participants

import (
	"context"
	"errors"
)

var ErrEventNotFound = errors.New("event not found")

// Participant is a registration against one event; it is not itself an
// account.
type Participant struct {
	ID      int64
	EventID int64
	Name    string
	Email   string
	Phone   string
	Guests  int
}

type CreateParams struct {
	EventID int64
	Name    string
	Email   string
	Phone   string
	Guests  int
}

// Repository implementations return ErrEventNotFound when the referenced
// event does not exist.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Participant, error)
	ListByEvent(ctx context.Context, eventID int64) ([]Participant, error)
}
