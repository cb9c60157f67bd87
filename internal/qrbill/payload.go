package qrbill

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// buildPayload assembles the Swiss QR code data record (SIX v2.0 layout):
// header, creditor, empty ultimate creditor, amount, debtor and the EPD
// trailer, separated by CR+LF.
func buildPayload(req Request, amount decimal.Decimal) string {
	lines := []string{
		"SPC",  // QRType
		"0200", // Version
		"1",    // Coding: Latin-1 subset
		clean(req.Creditor.Account),
		"S", // structured creditor address
		clean(req.Creditor.Name),
		clean(req.Creditor.Street),
		"",
		clean(req.Creditor.PostalCode),
		clean(req.Creditor.City),
		clean(req.Creditor.Country),
		// ultimate creditor: reserved, always empty
		"", "", "", "", "", "", "",
		amount.StringFixed(2),
		"CHF",
		"S", // structured debtor address
		clean(req.Debtor.Name),
		clean(req.Debtor.Street),
		"",
		clean(req.Debtor.PostalCode),
		clean(req.Debtor.City),
		clean(req.Debtor.Country),
		"NON", // reference type
		"",    // reference
		clean(req.AdditionalInfo),
		"EPD", // trailer
	}
	return strings.Join(lines, "\r\n")
}

// clean normalises text to NFC and strips characters the payload format
// cannot carry.
func clean(s string) string {
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
