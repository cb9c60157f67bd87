// Package clients manages the customer registry referenced by invoices,
// recurring fees, todos and calendar entries.
package clients

// Client is a billable customer. Cap is the postal code, Nation the
// ISO 3166-1 alpha-2 country code; both mirror the wire format used by the
// frontend.
type Client struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Cap     string `json:"cap"`
	City    string `json:"city"`
	Nation  string `json:"nation"`
	Email   string `json:"email"`
}

// ClientInput carries the mutable fields for create and update.
type ClientInput struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address"`
	Cap     string `json:"cap"`
	City    string `json:"city"`
	Nation  string `json:"nation"`
	Email   string `json:"email" validate:"omitempty,email"`
}
