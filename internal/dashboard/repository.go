package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) StatusTotals(ctx context.Context) (map[string]StatusTotal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, count(*), coalesce(sum(total_amount), 0)
		FROM invoices
		GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("status totals: %w", err)
	}
	defer rows.Close()

	out := map[string]StatusTotal{}
	for rows.Next() {
		var status string
		var st StatusTotal
		if err := rows.Scan(&status, &st.Count, &st.Total); err != nil {
			return nil, fmt.Errorf("scan status total: %w", err)
		}
		out[status] = st
	}
	return out, rows.Err()
}

func (r *Repository) RevenueForYear(ctx context.Context, year int) (float64, error) {
	var total float64
	err := r.pool.QueryRow(ctx, `
		SELECT coalesce(sum(total_amount), 0)
		FROM invoices
		WHERE status = 'paid' AND extract(year FROM paid_date) = $1`, year).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("revenue for year: %w", err)
	}
	return total, nil
}

func (r *Repository) OpenTotal(ctx context.Context) (float64, error) {
	var total float64
	err := r.pool.QueryRow(ctx,
		`SELECT coalesce(sum(total_amount), 0) FROM invoices WHERE status = 'sent'`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("open total: %w", err)
	}
	return total, nil
}

func (r *Repository) DueFeePayments(ctx context.Context, by time.Time) (int, float64, error) {
	var count int
	var total float64
	err := r.pool.QueryRow(ctx, `
		SELECT count(*), coalesce(sum(amount), 0)
		FROM fee_payments
		WHERE settled = false AND due_date <= $1`, by).Scan(&count, &total)
	if err != nil {
		return 0, 0, fmt.Errorf("due fee payments: %w", err)
	}
	return count, total, nil
}

func (r *Repository) RecentInvoices(ctx context.Context, limit int) ([]RecentInvoice, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, number, client_id, status, total_amount
		FROM invoices
		ORDER BY id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent invoices: %w", err)
	}
	defer rows.Close()

	var out []RecentInvoice
	for rows.Next() {
		var inv RecentInvoice
		if err := rows.Scan(&inv.ID, &inv.Number, &inv.ClientID, &inv.Status, &inv.TotalAmount); err != nil {
			return nil, fmt.Errorf("scan recent invoice: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}
