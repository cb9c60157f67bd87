// Package bank holds the single creditor profile used for payment slips.
package bank

// Profile is the singleton bank/creditor record. Every field except the
// bank name and address feeds payment-slip generation and must be filled
// before slips can be produced.
type Profile struct {
	IBAN            string `json:"iban"`
	BankName        string `json:"bank_name"`
	BankAddress     string `json:"bank_address"`
	BIC             string `json:"bic"`
	CreditorName    string `json:"creditor_name"`
	CreditorStreet  string `json:"creditor_street"`
	CreditorPostal  string `json:"creditor_postalcode"`
	CreditorCity    string `json:"creditor_city"`
	CreditorCountry string `json:"creditor_country"`
}
