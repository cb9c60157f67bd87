// Package fees manages recurring fees and the payment events they
// materialise into. A scheduler task walks the active fees and inserts
// one payment event per elapsed period.
package fees

import "time"

// Cadence is how often a fee recurs.
type Cadence string

const (
	CadenceMonthly   Cadence = "monthly"
	CadenceQuarterly Cadence = "quarterly"
	CadenceYearly    Cadence = "yearly"
)

// Valid reports whether c is a known cadence.
func (c Cadence) Valid() bool {
	switch c {
	case CadenceMonthly, CadenceQuarterly, CadenceYearly:
		return true
	}
	return false
}

// Next returns the due date one period after from.
func (c Cadence) Next(from time.Time) time.Time {
	switch c {
	case CadenceQuarterly:
		return from.AddDate(0, 3, 0)
	case CadenceYearly:
		return from.AddDate(1, 0, 0)
	default:
		return from.AddDate(0, 1, 0)
	}
}

// Fee is a recurring charge. ClientID is a weak reference; the client
// may have been deleted since.
type Fee struct {
	ID        int64     `json:"id"`
	ClientID  *int64    `json:"client_id,omitempty"`
	Title     string    `json:"title"`
	Amount    float64   `json:"amount"`
	Cadence   Cadence   `json:"cadence"`
	StartDate time.Time `json:"start_date"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// FeeInput carries the mutable fee fields.
type FeeInput struct {
	ClientID  *int64  `json:"client_id"`
	Title     string  `json:"title" validate:"required"`
	Amount    float64 `json:"amount" validate:"gt=0"`
	Cadence   Cadence `json:"cadence" validate:"required,oneof=monthly quarterly yearly"`
	StartDate string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	Active    *bool   `json:"active"`
}

// Payment is one materialised due period of a fee. An invoice may link
// back to it through its fee_payment_id column.
type Payment struct {
	ID      int64     `json:"id"`
	FeeID   int64     `json:"fee_id"`
	DueDate time.Time `json:"due_date"`
	Amount  float64   `json:"amount"`
	Settled bool      `json:"settled"`
}
