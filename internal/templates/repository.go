package templates

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fattura-app/fattura/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListTemplates returns all templates.
func (r *Repository) ListTemplates(ctx context.Context) ([]Template, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, template_dir, html_filename, css_filename, fields FROM templates ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Template
	for rows.Next() {
		var t Template
		if err := rows.Scan(&t.ID, &t.Name, &t.Dir, &t.MarkupFile, &t.StylesheetFile, &t.Fields); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetTemplate returns a template by id.
func (r *Repository) GetTemplate(ctx context.Context, id int64) (*Template, error) {
	var t Template
	err := r.pool.QueryRow(ctx, `SELECT id, name, template_dir, html_filename, css_filename, fields FROM templates WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Dir, &t.MarkupFile, &t.StylesheetFile, &t.Fields)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("templates: id %d: %w", id, httpx.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTemplate inserts a template row and returns its id.
func (r *Repository) CreateTemplate(ctx context.Context, t Template) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO templates (name, template_dir, html_filename, css_filename, fields)
VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		t.Name, t.Dir, t.MarkupFile, t.StylesheetFile, t.Fields).Scan(&id)
	return id, err
}

// UpdateTemplate overwrites a template row.
func (r *Repository) UpdateTemplate(ctx context.Context, t Template) error {
	tag, err := r.pool.Exec(ctx, `UPDATE templates SET name = $1, template_dir = $2, html_filename = $3, css_filename = $4, fields = $5 WHERE id = $6`,
		t.Name, t.Dir, t.MarkupFile, t.StylesheetFile, t.Fields, t.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("templates: id %d: %w", t.ID, httpx.ErrNotFound)
	}
	return nil
}

// DeleteTemplate removes a template row. Files on disk stay behind so
// previously generated invoices keep rendering.
func (r *Repository) DeleteTemplate(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM templates WHERE id = $1`, id)
	return err
}
