package qrbill

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fattura-app/fattura/internal/platform/httpx"
)

func completeRequest() Request {
	return Request{
		Creditor: Creditor{
			Account:    "CH5800791123000889012",
			Name:       "My Company AG",
			Street:     "My Street 1",
			PostalCode: "8000",
			City:       "Zurich",
			Country:    "CH",
		},
		Debtor: Debtor{
			Name:       "Acme AG",
			Street:     "Musterstrasse 1",
			PostalCode: "3000",
			City:       "Bern",
			Country:    "CH",
		},
		Amount:         "10.00",
		AdditionalInfo: "Invoice ABCD1234",
	}
}

func TestGenerateWritesSlip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "invoice_1")

	path, err := Generate(completeRequest(), dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, SlipFileName), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "<svg")
	require.Contains(t, string(data), "Payable by")
}

func TestGenerateNamesMissingCreditorField(t *testing.T) {
	for _, tc := range []struct {
		field string
		mut   func(*Request)
	}{
		{"iban", func(r *Request) { r.Creditor.Account = "" }},
		{"creditor_name", func(r *Request) { r.Creditor.Name = "" }},
		{"creditor_street", func(r *Request) { r.Creditor.Street = "" }},
		{"creditor_postalcode", func(r *Request) { r.Creditor.PostalCode = "" }},
		{"creditor_city", func(r *Request) { r.Creditor.City = "" }},
		{"creditor_country", func(r *Request) { r.Creditor.Country = "" }},
	} {
		t.Run(tc.field, func(t *testing.T) {
			req := completeRequest()
			tc.mut(&req)

			_, err := Generate(req, t.TempDir())
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			require.Equal(t, tc.field, verr.Field)
			require.True(t, errors.Is(err, httpx.ErrValidation))
		})
	}
}

func TestGenerateNamesMissingDebtorField(t *testing.T) {
	for _, tc := range []struct {
		field string
		mut   func(*Request)
	}{
		{"name", func(r *Request) { r.Debtor.Name = "" }},
		{"street", func(r *Request) { r.Debtor.Street = "" }},
		{"pcode", func(r *Request) { r.Debtor.PostalCode = "" }},
		{"city", func(r *Request) { r.Debtor.City = "" }},
		{"country", func(r *Request) { r.Debtor.Country = "" }},
	} {
		t.Run(tc.field, func(t *testing.T) {
			req := completeRequest()
			tc.mut(&req)

			var verr *ValidationError
			_, err := Generate(req, t.TempDir())
			require.True(t, errors.As(err, &verr))
			require.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestGenerateRejectsBadAmounts(t *testing.T) {
	for _, amount := range []string{"", "abc", "0", "-5.00"} {
		req := completeRequest()
		req.Amount = amount

		var verr *ValidationError
		_, err := Generate(req, t.TempDir())
		require.True(t, errors.As(err, &verr), "amount %q", amount)
		require.Equal(t, "amount", verr.Field)
	}
}

func TestPayloadLayout(t *testing.T) {
	req := completeRequest()
	amount, err := req.validate()
	require.NoError(t, err)

	payload := buildPayload(req, amount)
	lines := strings.Split(payload, "\r\n")

	require.Equal(t, "SPC", lines[0])
	require.Equal(t, "0200", lines[1])
	require.Equal(t, "CH5800791123000889012", lines[3])
	require.Equal(t, "10.00", lines[18])
	require.Equal(t, "CHF", lines[19])
	require.Equal(t, "EPD", lines[len(lines)-1])
}
