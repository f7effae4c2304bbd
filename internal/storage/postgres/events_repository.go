package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/civiclist/server/internal/domain/events"
)

var _ events.Repository = (*EventRepository)(nil)

const eventColumns = `id, title, description, category, location, starts_at, created_at, created_by, approved, cancelled`

func (r *EventRepository) Create(ctx context.Context, params events.CreateParams) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx, `
INSERT INTO events (title, description, category, location, starts_at, created_by, approved)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING `+eventColumns,
		params.Title,
		params.Description,
		params.Category,
		params.Location,
		params.StartsAt,
		params.CreatedBy,
		params.Approved,
	)

	event, err := scanEvent(row)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) ListRecent(ctx context.Context, limit int) ([]events.Event, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT `+eventColumns+`
  FROM events
 WHERE approved AND NOT cancelled
 ORDER BY starts_at DESC
 LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent events: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

func (r *EventRepository) ListUpcoming(ctx context.Context, category string) ([]events.Event, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT `+eventColumns+`
  FROM events
 WHERE approved AND NOT cancelled
   AND ($1 = '' OR category = $1)
 ORDER BY starts_at ASC
`, category)
	if err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

// Categories returns the distinct category tags of every event on record,
// including pending and cancelled ones.
func (r *EventRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.queryer().Query(ctx, `SELECT DISTINCT category FROM events ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

func (r *EventRepository) SetApproved(ctx context.Context, id int64) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx, `
UPDATE events SET approved = true WHERE id = $1
RETURNING `+eventColumns, id)

	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("approve event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) SetCancelled(ctx context.Context, id int64) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx, `
UPDATE events SET cancelled = true WHERE id = $1
RETURNING `+eventColumns, id)

	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("cancel event: %w", err)
	}
	return event, nil
}

func scanEvent(row pgx.Row) (*events.Event, error) {
	var (
		e         events.Event
		startsAt  pgtype.Timestamptz
		createdAt pgtype.Timestamptz
	)
	if err := row.Scan(
		&e.ID,
		&e.Title,
		&e.Description,
		&e.Category,
		&e.Location,
		&startsAt,
		&createdAt,
		&e.CreatedBy,
		&e.Approved,
		&e.Cancelled,
	); err != nil {
		return nil, err
	}
	if startsAt.Valid {
		e.StartsAt = startsAt.Time
	}
	if createdAt.Valid {
		e.CreatedAt = createdAt.Time
	}
	return &e, nil
}

func collectEvents(rows pgx.Rows) ([]events.Event, error) {
	var items []events.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		items = append(items, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return items, nil
}
