package bank

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fattura-app/fattura/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence for the singleton
// profile row.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetProfile returns the bank profile.
func (r *Repository) GetProfile(ctx context.Context) (*Profile, error) {
	var p Profile
	err := r.pool.QueryRow(ctx, `SELECT iban, bank_name, bank_address, bic, creditor_name, creditor_street, creditor_postalcode, creditor_city, creditor_country FROM bank_details LIMIT 1`).
		Scan(&p.IBAN, &p.BankName, &p.BankAddress, &p.BIC, &p.CreditorName, &p.CreditorStreet, &p.CreditorPostal, &p.CreditorCity, &p.CreditorCountry)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("bank: profile missing: %w", httpx.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile overwrites the singleton row.
func (r *Repository) UpdateProfile(ctx context.Context, p Profile) error {
	_, err := r.pool.Exec(ctx, `UPDATE bank_details SET iban = $1, bank_name = $2, bank_address = $3, bic = $4, creditor_name = $5, creditor_street = $6, creditor_postalcode = $7, creditor_city = $8, creditor_country = $9 WHERE id = 1`,
		p.IBAN, p.BankName, p.BankAddress, p.BIC, p.CreditorName, p.CreditorStreet, p.CreditorPostal, p.CreditorCity, p.CreditorCountry)
	return err
}

// EnsureSeeded inserts a starter profile when the table is empty, matching
// first-run behavior of the application.
func (r *Repository) EnsureSeeded(ctx context.Context) error {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM bank_details`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO bank_details (iban, bank_name, bank_address, bic, creditor_name, creditor_street, creditor_postalcode, creditor_city, creditor_country)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		"CH5800791123000889012", "My Bank", "Bankstrasse 1", "POFICHBEXXX",
		"My Company AG", "My Street 1", "8000", "Zurich", "CH")
	return err
}
