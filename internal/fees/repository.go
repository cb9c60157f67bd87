package fees

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

func (r *Repository) ListFees(ctx context.Context) ([]Fee, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, client_id, title, amount, cadence, start_date, active, created_at
		FROM fees
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list fees: %w", err)
	}
	defer rows.Close()

	var out []Fee
	for rows.Next() {
		var f Fee
		if err := rows.Scan(&f.ID, &f.ClientID, &f.Title, &f.Amount, &f.Cadence, &f.StartDate, &f.Active, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan fee: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *Repository) GetFee(ctx context.Context, id int64) (*Fee, error) {
	var f Fee
	err := r.pool.QueryRow(ctx, `
		SELECT id, client_id, title, amount, cadence, start_date, active, created_at
		FROM fees
		WHERE id = $1`, id).
		Scan(&f.ID, &f.ClientID, &f.Title, &f.Amount, &f.Cadence, &f.StartDate, &f.Active, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("fee %d: %w", id, httpx.ErrNotFound)
		}
		return nil, fmt.Errorf("get fee: %w", err)
	}
	return &f, nil
}

func (r *Repository) InsertFee(ctx context.Context, f *Fee) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO fees (client_id, title, amount, cadence, start_date, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		f.ClientID, f.Title, f.Amount, f.Cadence, f.StartDate, f.Active).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert fee: %w", err)
	}
	return id, nil
}

func (r *Repository) UpdateFee(ctx context.Context, f *Fee) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE fees
		SET client_id = $2, title = $3, amount = $4, cadence = $5, start_date = $6, active = $7
		WHERE id = $1`,
		f.ID, f.ClientID, f.Title, f.Amount, f.Cadence, f.StartDate, f.Active)
	if err != nil {
		return fmt.Errorf("update fee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("fee %d: %w", f.ID, httpx.ErrNotFound)
	}
	return nil
}

func (r *Repository) DeleteFee(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM fees WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete fee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("fee %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

func (r *Repository) ListPayments(ctx context.Context, feeID int64) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, fee_id, due_date, amount, settled
		FROM fee_payments
		WHERE fee_id = $1
		ORDER BY due_date`, feeID)
	if err != nil {
		return nil, fmt.Errorf("list fee payments: %w", err)
	}
	defer rows.Close()
	return scanPayments(rows)
}

// ListDuePayments returns unsettled payments due on or before the given
// day.
func (r *Repository) ListDuePayments(ctx context.Context, by time.Time) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, fee_id, due_date, amount, settled
		FROM fee_payments
		WHERE settled = false AND due_date <= $1
		ORDER BY due_date`, by)
	if err != nil {
		return nil, fmt.Errorf("list due payments: %w", err)
	}
	defer rows.Close()
	return scanPayments(rows)
}

func scanPayments(rows pgx.Rows) ([]Payment, error) {
	var out []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.FeeID, &p.DueDate, &p.Amount, &p.Settled); err != nil {
			return nil, fmt.Errorf("scan fee payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// LatestDueDate returns the most recent materialised due date for a fee,
// or the zero time when none exists yet.
func (r *Repository) LatestDueDate(ctx context.Context, feeID int64) (time.Time, error) {
	var due *time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT max(due_date) FROM fee_payments WHERE fee_id = $1`, feeID).Scan(&due)
	if err != nil {
		return time.Time{}, fmt.Errorf("latest due date: %w", err)
	}
	if due == nil {
		return time.Time{}, nil
	}
	return *due, nil
}

func (r *Repository) InsertPayment(ctx context.Context, p *Payment) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO fee_payments (fee_id, due_date, amount, settled)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		p.FeeID, p.DueDate, p.Amount, p.Settled).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert fee payment: %w", err)
	}
	return id, nil
}

func (r *Repository) SettlePayment(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE fee_payments SET settled = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("settle fee payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("fee payment %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}
