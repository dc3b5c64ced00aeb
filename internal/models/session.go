package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SessionState is one slot of the add-transaction flow. States are
// ordered; the session always sits at the first unfilled one.
type SessionState string

const (
	StateAmount      SessionState = "amount"
	StateType        SessionState = "transaction_type"
	StateCategory    SessionState = "category"
	StateAccount     SessionState = "account"
	StateDescription SessionState = "optional_description"
	StateConfirm     SessionState = "confirm"
)

// SessionMode distinguishes menu-started flows from intent-seeded ones.
type SessionMode string

const (
	ModeManual   SessionMode = "manual"
	ModeAssisted SessionMode = "assisted"
)

// TransactionDraft accumulates answers across the slot-filling flow.
// Nil means the slot has not been filled yet.
type TransactionDraft struct {
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Type      *TransactionType `json:"type,omitempty"`
	Category  *string          `json:"category,omitempty"`
	AccountID *int64           `json:"accountId,omitempty"`
	Date      *string          `json:"date,omitempty"` // canonical YYYY-MM-DD
	Time      *string          `json:"time,omitempty"`
	Note      *string          `json:"note,omitempty"`
	Currency  *Currency        `json:"currency,omitempty"`
}

// Session is one user's in-flight add-transaction conversation.
type Session struct {
	ID        string           `json:"id"`
	UserID    int64            `json:"userId"`
	Mode      SessionMode      `json:"mode"`
	State     SessionState     `json:"state"`
	Draft     TransactionDraft `json:"draft"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`

	// PromptMessageIDs tracks transient prompts so cancel can clean up.
	PromptMessageIDs []int `json:"promptMessageIds,omitempty"`
}

// UpdateActivity updates the last activity timestamp.
func (s *Session) UpdateActivity() {
	s.UpdatedAt = time.Now()
}
