package storage

import (
	"context"

	"github.com/civiclist/server/internal/domain/events"
	"github.com/civiclist/server/internal/domain/participants"
	"github.com/civiclist/server/internal/domain/users"
)

// Repository groups data access by domain.
type Repository interface {
	Users() users.Repository
	Events() events.Repository
	Participants() participants.Repository

	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
}
