package clients

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

// ListClients returns all clients ordered by name.
func (r *Repository) ListClients(ctx context.Context) ([]Client, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, address, cap, city, nation, email FROM clients ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Address, &c.Cap, &c.City, &c.Nation, &c.Email); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetClient returns a single client by id.
func (r *Repository) GetClient(ctx context.Context, id int64) (*Client, error) {
	var c Client
	err := r.pool.QueryRow(ctx, `SELECT id, name, address, cap, city, nation, email FROM clients WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Address, &c.Cap, &c.City, &c.Nation, &c.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("clients: id %d: %w", id, httpx.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateClient inserts a client and returns its id.
func (r *Repository) CreateClient(ctx context.Context, input ClientInput) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO clients (name, address, cap, city, nation, email)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		input.Name, input.Address, input.Cap, input.City, input.Nation, input.Email).Scan(&id)
	return id, err
}

// UpdateClient overwrites a client record.
func (r *Repository) UpdateClient(ctx context.Context, id int64, input ClientInput) error {
	tag, err := r.pool.Exec(ctx, `UPDATE clients SET name = $1, address = $2, cap = $3, city = $4, nation = $5, email = $6 WHERE id = $7`,
		input.Name, input.Address, input.Cap, input.City, input.Nation, input.Email, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("clients: id %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

// DeleteClient removes a client. References from other records are weak and
// stay behind; read paths tolerate them.
func (r *Repository) DeleteClient(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	return err
}
