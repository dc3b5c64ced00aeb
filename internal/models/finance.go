package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a card or money source owned by a user.
type Account struct {
	ID         int64           `json:"id" db:"id"`
	UserID     int64           `json:"userId" db:"user_id"`
	Name       string          `json:"name" db:"name"`
	CardNumber string          `json:"cardNumber,omitempty" db:"card_number"`
	Balance    decimal.Decimal `json:"balance" db:"balance"`
}

// Category is a per-user transaction category.
type Category struct {
	ID     int64           `json:"id" db:"id"`
	UserID int64           `json:"userId" db:"user_id"`
	Name   string          `json:"name" db:"name"`
	Type   TransactionType `json:"type" db:"type"`
}

// Transaction is a committed income or expense record.
type Transaction struct {
	ID        int64           `json:"id" db:"id"`
	UserID    int64           `json:"userId" db:"user_id"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Currency  Currency        `json:"currency" db:"currency"`
	Type      TransactionType `json:"type" db:"type"`
	Category  string          `json:"category" db:"category"`
	AccountID int64           `json:"accountId" db:"card_source_id"`
	Date      string          `json:"date" db:"date"` // canonical YYYY-MM-DD
	Note      string          `json:"note,omitempty" db:"note"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}

// CategorySum is one row of a spending report.
type CategorySum struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// Report aggregates transactions over a date range.
type Report struct {
	UserID    int64           `json:"userId"`
	Start     string          `json:"start"` // canonical YYYY-MM-DD
	End       string          `json:"end"`
	Income    decimal.Decimal `json:"income"`
	Expense   decimal.Decimal `json:"expense"`
	ByExpense []CategorySum   `json:"byExpense"`
}

// Net returns income minus expense for the range.
func (r *Report) Net() decimal.Decimal {
	return r.Income.Sub(r.Expense)
}
