package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fattura-app/fattura/internal/platform/httpx"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListEvents returns events overlapping [from, to). Zero bounds mean
// unbounded on that side.
func (r *Repository) ListEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	query := `
		SELECT id, title, starts_at, ends_at, client_id, notes, created_at
		FROM calendar_events
		WHERE ($1::timestamptz IS NULL OR ends_at >= $1)
		  AND ($2::timestamptz IS NULL OR starts_at < $2)
		ORDER BY starts_at`
	var fromArg, toArg *time.Time
	if !from.IsZero() {
		fromArg = &from
	}
	if !to.IsZero() {
		toArg = &to
	}
	rows, err := r.pool.Query(ctx, query, fromArg, toArg)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Title, &e.StartsAt, &e.EndsAt, &e.ClientID, &e.Notes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) GetEvent(ctx context.Context, id int64) (*Event, error) {
	var e Event
	err := r.pool.QueryRow(ctx, `
		SELECT id, title, starts_at, ends_at, client_id, notes, created_at
		FROM calendar_events
		WHERE id = $1`, id).
		Scan(&e.ID, &e.Title, &e.StartsAt, &e.EndsAt, &e.ClientID, &e.Notes, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("event %d: %w", id, httpx.ErrNotFound)
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &e, nil
}

func (r *Repository) InsertEvent(ctx context.Context, e *Event) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO calendar_events (title, starts_at, ends_at, client_id, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		e.Title, e.StartsAt, e.EndsAt, e.ClientID, e.Notes).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}
	return id, nil
}

func (r *Repository) UpdateEvent(ctx context.Context, e *Event) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE calendar_events
		SET title = $2, starts_at = $3, ends_at = $4, client_id = $5, notes = $6
		WHERE id = $1`,
		e.ID, e.Title, e.StartsAt, e.EndsAt, e.ClientID, e.Notes)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("event %d: %w", e.ID, httpx.ErrNotFound)
	}
	return nil
}

func (r *Repository) DeleteEvent(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM calendar_events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("event %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}
