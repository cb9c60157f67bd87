package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fattura-app/fattura/internal/platform/httpx"
)

// ErrNumberTaken signals that an insert lost the race on the invoice
// number unique constraint and the caller should redraw.
var ErrNumberTaken = errors.New("invoice number already taken")

const uniqueViolationCode = "23505"

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const invoiceColumns = `id, number, client_id, template_id, data, status, total_amount,
	title, description, share_partner1, share_partner2,
	sent_date, paid_date, fee_payment_id, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(
		&inv.ID, &inv.Number, &inv.ClientID, &inv.TemplateID, &inv.Data, &inv.Status, &inv.TotalAmount,
		&inv.Title, &inv.Description, &inv.SharePartner1, &inv.SharePartner2,
		&inv.SentDate, &inv.PaidDate, &inv.FeePaymentID, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("invoice: %w", httpx.ErrNotFound)
		}
		return nil, fmt.Errorf("scan invoice: %w", err)
	}
	return &inv, nil
}

func (r *Repository) ListInvoices(ctx context.Context) ([]Invoice, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

func (r *Repository) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE id = $1`, id)
	return scanInvoice(row)
}

func (r *Repository) NumberExists(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM invoices WHERE number = $1)`, number).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check invoice number: %w", err)
	}
	return exists, nil
}

// InsertInvoice stores a new draft invoice. A unique violation on the
// number column surfaces as ErrNumberTaken.
func (r *Repository) InsertInvoice(ctx context.Context, inv *Invoice) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO invoices (number, client_id, template_id, data, status, total_amount,
			title, description, share_partner1, share_partner2, fee_payment_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		inv.Number, inv.ClientID, inv.TemplateID, inv.Data, inv.Status, inv.TotalAmount,
		inv.Title, inv.Description, inv.SharePartner1, inv.SharePartner2, inv.FeePaymentID,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return 0, ErrNumberTaken
		}
		return 0, fmt.Errorf("insert invoice: %w", err)
	}
	return id, nil
}

// UpdateInvoice rewrites the regenerable fields of an existing invoice.
// Number and lifecycle state are deliberately untouched.
func (r *Repository) UpdateInvoice(ctx context.Context, inv *Invoice) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invoices
		SET client_id = $2, template_id = $3, data = $4, total_amount = $5,
			title = $6, description = $7, share_partner1 = $8, share_partner2 = $9,
			fee_payment_id = $10, updated_at = now()
		WHERE id = $1`,
		inv.ID, inv.ClientID, inv.TemplateID, inv.Data, inv.TotalAmount,
		inv.Title, inv.Description, inv.SharePartner1, inv.SharePartner2, inv.FeePaymentID)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invoice %d: %w", inv.ID, httpx.ErrNotFound)
	}
	return nil
}

// MarkSent records the sent transition with its effective date.
func (r *Repository) MarkSent(ctx context.Context, id int64, date time.Time) error {
	return r.setStatus(ctx, id, StatusSent, "sent_date", date)
}

// MarkPaid records the paid transition with its effective date.
func (r *Repository) MarkPaid(ctx context.Context, id int64, date time.Time) error {
	return r.setStatus(ctx, id, StatusPaid, "paid_date", date)
}

func (r *Repository) setStatus(ctx context.Context, id int64, status Status, dateColumn string, date time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE invoices SET status = $2, `+dateColumn+` = $3, updated_at = now() WHERE id = $1`,
		id, status, date)
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invoice %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

func (r *Repository) DeleteInvoice(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invoice %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}
