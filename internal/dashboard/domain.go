// Package dashboard aggregates invoices, due fee payments and the
// expense settlement into a single summary, cached in redis.
package dashboard

// StatusTotal is the invoice count and amount sum for one lifecycle
// state.
type StatusTotal struct {
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// RecentInvoice is the condensed invoice row shown on the dashboard.
type RecentInvoice struct {
	ID          int64   `json:"id"`
	Number      string  `json:"number"`
	ClientID    int64   `json:"client_id"`
	Status      string  `json:"status"`
	TotalAmount float64 `json:"total_amount"`
}

// Summary is the full dashboard payload.
type Summary struct {
	ByStatus          map[string]StatusTotal `json:"by_status"`
	RevenueThisYear   float64                `json:"revenue_this_year"`
	OpenTotal         float64                `json:"open_total"`
	DuePaymentCount   int                    `json:"due_payment_count"`
	DuePaymentTotal   float64                `json:"due_payment_total"`
	SettlementBalance float64                `json:"settlement_balance"`
	SettlementOwes    string                 `json:"settlement_owes,omitempty"`
	RecentInvoices    []RecentInvoice        `json:"recent_invoices"`
}
