package todos

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

func (r *Repository) ListTodos(ctx context.Context) ([]Todo, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, text, done, client_id, due_date, created_at
		FROM todos
		ORDER BY done, due_date NULLS LAST, id`)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	var out []Todo
	for rows.Next() {
		var t Todo
		if err := rows.Scan(&t.ID, &t.Text, &t.Done, &t.ClientID, &t.DueDate, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) GetTodo(ctx context.Context, id int64) (*Todo, error) {
	var t Todo
	err := r.pool.QueryRow(ctx, `
		SELECT id, text, done, client_id, due_date, created_at
		FROM todos
		WHERE id = $1`, id).
		Scan(&t.ID, &t.Text, &t.Done, &t.ClientID, &t.DueDate, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("todo %d: %w", id, httpx.ErrNotFound)
		}
		return nil, fmt.Errorf("get todo: %w", err)
	}
	return &t, nil
}

func (r *Repository) InsertTodo(ctx context.Context, text string, clientID *int64, due *time.Time) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO todos (text, client_id, due_date)
		VALUES ($1, $2, $3)
		RETURNING id`, text, clientID, due).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert todo: %w", err)
	}
	return id, nil
}

func (r *Repository) UpdateTodo(ctx context.Context, id int64, text string, clientID *int64, due *time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE todos SET text = $2, client_id = $3, due_date = $4 WHERE id = $1`,
		id, text, clientID, due)
	if err != nil {
		return fmt.Errorf("update todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("todo %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

func (r *Repository) ToggleTodo(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE todos SET done = NOT done WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("toggle todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("todo %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

func (r *Repository) DeleteTodo(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("todo %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}
