package models

import "time"

// User is a registered end user of the assistant.
type User struct {
	ID        int64     `json:"id" db:"id"` // messaging platform user ID
	Language  string    `json:"language" db:"language"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Settings holds per-user display preferences.
type Settings struct {
	UserID   int64          `json:"userId" db:"user_id"`
	Currency Currency       `json:"currency" db:"currency"`
	Calendar CalendarSystem `json:"calendar" db:"calendar_format"`
}

// UserStats summarizes a user's activity for the admin view.
type UserStats struct {
	UserID           int64 `json:"userId"`
	TransactionCount int   `json:"transactionCount"`
	AccountCount     int   `json:"accountCount"`
	PlanCount        int   `json:"planCount"`
}
