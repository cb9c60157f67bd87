// Package qrbill produces Swiss QR-bill payment slips: a scannable payment
// code plus the human-readable creditor, debtor and amount blocks, written
// as a single SVG file.
package qrbill

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/fattura-app/fattura/internal/platform/httpx"
)

// SlipFileName is the fixed artifact name inside the output directory.
const SlipFileName = "qr_bill.svg"

// Creditor describes the party receiving the payment.
type Creditor struct {
	Account    string
	Name       string
	Street     string
	PostalCode string
	City       string
	Country    string
}

// Debtor describes the party the slip bills.
type Debtor struct {
	Name       string
	Street     string
	PostalCode string
	City       string
	Country    string
}

// Request bundles the slip inputs. Amount is the decimal string the
// invoice pipeline computed, e.g. "200.00".
type Request struct {
	Creditor       Creditor
	Debtor         Debtor
	Amount         string
	AdditionalInfo string
}

// ValidationError names the input field or rule that blocked generation.
// It unwraps to httpx.ErrValidation so callers can treat it as recoverable.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("qrbill: %s: %s", e.Field, e.Reason)
}

// Unwrap marks the error as a validation failure.
func (e *ValidationError) Unwrap() error {
	return httpx.ErrValidation
}

// validate runs the fail-fast required-field and amount checks. Each check
// is independent and reports the first violation it finds.
func (r Request) validate() (decimal.Decimal, error) {
	creditorFields := []struct {
		name  string
		value string
	}{
		{"iban", r.Creditor.Account},
		{"creditor_name", r.Creditor.Name},
		{"creditor_street", r.Creditor.Street},
		{"creditor_postalcode", r.Creditor.PostalCode},
		{"creditor_city", r.Creditor.City},
		{"creditor_country", r.Creditor.Country},
	}
	for _, f := range creditorFields {
		if f.value == "" {
			return decimal.Zero, &ValidationError{Field: f.name, Reason: "missing or empty"}
		}
	}

	debtorFields := []struct {
		name  string
		value string
	}{
		{"name", r.Debtor.Name},
		{"street", r.Debtor.Street},
		{"pcode", r.Debtor.PostalCode},
		{"city", r.Debtor.City},
		{"country", r.Debtor.Country},
	}
	for _, f := range debtorFields {
		if f.value == "" {
			return decimal.Zero, &ValidationError{Field: f.name, Reason: "incomplete debtor information"}
		}
	}

	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: "must be a number"}
	}
	if !amount.IsPositive() {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	return amount, nil
}

// Generate validates the request, renders the slip and writes it to
// outputDir/qr_bill.svg, creating the directory when absent. It returns the
// written path.
func Generate(req Request, outputDir string) (string, error) {
	amount, err := req.validate()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("qrbill: mkdir %s: %w", outputDir, err)
	}

	svg, err := renderSlip(req, amount)
	if err != nil {
		return "", err
	}

	path := filepath.Join(outputDir, SlipFileName)
	if err := os.WriteFile(path, svg, 0o644); err != nil {
		return "", fmt.Errorf("qrbill: write slip: %w", err)
	}
	return path, nil
}
