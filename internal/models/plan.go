package models

import "time"

// Plan is a scheduled task in the planning section.
type Plan struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"userId" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	Date      string    `json:"date" db:"date"` // canonical YYYY-MM-DD
	Time      string    `json:"time,omitempty" db:"time"`
	IsDone    bool      `json:"isDone" db:"is_done"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
