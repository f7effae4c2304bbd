package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/civiclist/server/internal/domain/participants"
)

var _ participants.Repository = (*ParticipantRepository)(nil)

func (r *ParticipantRepository) Create(ctx context.Context, params participants.CreateParams) (*participants.Participant, error) {
	row := r.queryer().QueryRow(ctx, `
INSERT INTO participants (event_id, name, email, phone, guests)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, event_id, name, email, phone, guests`,
		params.EventID,
		params.Name,
		params.Email,
		params.Phone,
		params.Guests,
	)

	var p participants.Participant
	if err := row.Scan(&p.ID, &p.EventID, &p.Name, &p.Email, &p.Phone, &p.Guests); err != nil {
		if missing := eventFKViolation(err); missing != nil {
			return nil, missing
		}
		return nil, fmt.Errorf("create participant: %w", err)
	}
	return &p, nil
}

// eventFKViolation maps a foreign-key failure on event_id to the domain
// missing-event error.
func eventFKViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23503" {
		return nil
	}
	if pgErr.ConstraintName == "participants_event_id_fkey" {
		return participants.ErrEventNotFound
	}
	return nil
}

func (r *ParticipantRepository) ListByEvent(ctx context.Context, eventID int64) ([]participants.Participant, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT id, event_id, name, email, phone, guests
  FROM participants
 WHERE event_id = $1
 ORDER BY id ASC
`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var items []participants.Participant
	for rows.Next() {
		var p participants.Participant
		if err := rows.Scan(&p.ID, &p.EventID, &p.Name, &p.Email, &p.Phone, &p.Guests); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}
	return items, nil
}
