// Package calendar stores appointments. Client references are weak and
// may dangle after a client is deleted.
package calendar

import "time"

type Event struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	ClientID  *int64    `json:"client_id,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type EventInput struct {
	Title    string `json:"title" validate:"required"`
	StartsAt string `json:"starts_at" validate:"required"`
	EndsAt   string `json:"ends_at" validate:"required"`
	ClientID *int64 `json:"client_id"`
	Notes    string `json:"notes"`
}
