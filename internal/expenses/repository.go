package expenses

import (
	"context"
	"errors"
	"fmt"

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

func (r *Repository) ListExpenses(ctx context.Context) ([]Expense, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, description, amount, payer, split_partner1, date, created_at
		FROM expenses
		ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []Expense
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.Description, &e.Amount, &e.Payer, &e.SplitPartner1, &e.Date, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) GetExpense(ctx context.Context, id int64) (*Expense, error) {
	var e Expense
	err := r.pool.QueryRow(ctx, `
		SELECT id, description, amount, payer, split_partner1, date, created_at
		FROM expenses
		WHERE id = $1`, id).
		Scan(&e.ID, &e.Description, &e.Amount, &e.Payer, &e.SplitPartner1, &e.Date, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("expense %d: %w", id, httpx.ErrNotFound)
		}
		return nil, fmt.Errorf("get expense: %w", err)
	}
	return &e, nil
}

func (r *Repository) InsertExpense(ctx context.Context, e *Expense) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO expenses (description, amount, payer, split_partner1, date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		e.Description, e.Amount, e.Payer, e.SplitPartner1, e.Date).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	return id, nil
}

func (r *Repository) UpdateExpense(ctx context.Context, e *Expense) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE expenses
		SET description = $2, amount = $3, payer = $4, split_partner1 = $5, date = $6
		WHERE id = $1`,
		e.ID, e.Description, e.Amount, e.Payer, e.SplitPartner1, e.Date)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("expense %d: %w", e.ID, httpx.ErrNotFound)
	}
	return nil
}

func (r *Repository) DeleteExpense(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("expense %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}
