// Package billing owns invoices: number allocation, document assembly
// (payment slip, logo, HTML render, PDF) and the status lifecycle.
package billing

import (
	"encoding/json"
	"time"
)

// Status is the lifecycle state of an invoice.
type Status string

const (
	StatusDraft Status = "draft"
	StatusSent  Status = "sent"
	StatusPaid  Status = "paid"
)

// Invoice is a stored invoice. Data holds the submitted payload verbatim
// so a regeneration starts from exactly what the caller sent.
type Invoice struct {
	ID            int64           `json:"id"`
	Number        string          `json:"number"`
	ClientID      int64           `json:"client_id"`
	TemplateID    int64           `json:"template_id"`
	Data          json.RawMessage `json:"data"`
	Status        Status          `json:"status"`
	TotalAmount   float64         `json:"total_amount"`
	Title         string          `json:"title,omitempty"`
	Description   string          `json:"description,omitempty"`
	SharePartner1 float64         `json:"share_partner1"`
	SharePartner2 float64         `json:"share_partner2"`
	SentDate      *time.Time      `json:"sent_date,omitempty"`
	PaidDate      *time.Time      `json:"paid_date,omitempty"`
	FeePaymentID  *int64          `json:"fee_payment_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// GenerateInput carries everything a create or regenerate request
// submits.
type GenerateInput struct {
	ClientID     int64
	TemplateID   int64
	Data         []byte
	Logo         *LogoUpload
	FeePaymentID *int64
}

// LogoUpload is an optional logo image sent with the invoice payload.
type LogoUpload struct {
	Filename string
	Data     []byte
}

// LineItem is one billed position after totals have been computed.
// Monetary fields are pre-formatted with two decimals so they drop into
// the document as-is.
type LineItem struct {
	Description string `json:"description"`
	Price       string `json:"price"`
	Qty         string `json:"qty"`
	Total       string `json:"total"`
}
