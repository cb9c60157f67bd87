// Package expenses tracks shared business expenses between the two
// partners and computes the running settlement balance.
package expenses

import "time"

// Payer identifies which partner paid an expense.
type Payer string

const (
	PayerPartner1 Payer = "partner1"
	PayerPartner2 Payer = "partner2"
)

// Expense is one shared cost. SplitPartner1 is partner1's share of the
// amount in percent; partner2 carries the rest.
type Expense struct {
	ID            int64     `json:"id"`
	Description   string    `json:"description"`
	Amount        float64   `json:"amount"`
	Payer         Payer     `json:"payer"`
	SplitPartner1 float64   `json:"split_partner1"`
	Date          time.Time `json:"date"`
	CreatedAt     time.Time `json:"created_at"`
}

// ExpenseInput carries the mutable expense fields.
type ExpenseInput struct {
	Description   string  `json:"description" validate:"required"`
	Amount        float64 `json:"amount" validate:"gt=0"`
	Payer         Payer   `json:"payer" validate:"required,oneof=partner1 partner2"`
	SplitPartner1 float64 `json:"split_partner1" validate:"gte=0,lte=100"`
	Date          string  `json:"date" validate:"required,datetime=2006-01-02"`
}

// Settlement is the running balance between the partners. Balance is
// positive when partner2 owes partner1, negative the other way round.
type Settlement struct {
	Partner1      string  `json:"partner1"`
	Partner2      string  `json:"partner2"`
	PaidPartner1  float64 `json:"paid_partner1"`
	PaidPartner2  float64 `json:"paid_partner2"`
	SharePartner1 float64 `json:"share_partner1"`
	SharePartner2 float64 `json:"share_partner2"`
	Balance       float64 `json:"balance"`
	Owes          string  `json:"owes,omitempty"`
}
