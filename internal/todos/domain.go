// Package todos is the simple task list. Client references are weak and
// may dangle after a client is deleted.
package todos

import "time"

type Todo struct {
	ID        int64      `json:"id"`
	Text      string     `json:"text"`
	Done      bool       `json:"done"`
	ClientID  *int64     `json:"client_id,omitempty"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type TodoInput struct {
	Text     string `json:"text" validate:"required"`
	ClientID *int64 `json:"client_id"`
	DueDate  string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}
