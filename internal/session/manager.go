// Package session runs the slot-filling conversation that turns a partial
// add-transaction intent into a committed record. One session per user;
// starting a new one replaces the old.
package session

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finbot/internal/calendar"
	apperrors "finbot/internal/common/errors"
	"finbot/internal/common/logger"
	"finbot/internal/common/metrics"
	"finbot/internal/models"
	"finbot/internal/store"
	"finbot/internal/textnorm"
)

// stateOrder is the canonical slot sequence. The session always sits at
// the first unfilled state.
var stateOrder = []models.SessionState{
	models.StateAmount,
	models.StateType,
	models.StateCategory,
	models.StateAccount,
	models.StateDescription,
	models.StateConfirm,
}

// Reply is what the session wants said to the user next.
type Reply struct {
	Text    string
	Options []string
	Done    bool // session ended, control returns to the menus

	// CleanupIDs are transient prompt messages to delete from the chat.
	CleanupIDs []int
}

// RateConverter turns a dollar amount into toman at commit time.
type RateConverter interface {
	ToToman(ctx context.Context, dollars decimal.Decimal, now time.Time) decimal.Decimal
}

// Manager holds the in-flight sessions. Safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	sessions map[int64]*models.Session
	store    store.Store
	rates    RateConverter
	logger   logger.Logger
}

func NewManager(st store.Store, rates RateConverter, log logger.Logger) *Manager {
	return &Manager{
		sessions: make(map[int64]*models.Session),
		store:    st,
		rates:    rates,
		logger: log.With(map[string]interface{}{
			"component": "session",
		}),
	}
}

// Active reports whether the user has an open session.
func (m *Manager) Active(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[userID]
	return ok
}

// Start opens a manual session beginning at the amount slot.
func (m *Manager) Start(ctx context.Context, userID int64) *Reply {
	return m.open(ctx, userID, models.ModeManual, models.TransactionDraft{})
}

// StartFromIntent opens an assisted session seeded from a resolved intent.
// A missing or non-positive amount restarts the whole flow at the amount
// slot; other seeded slots are kept.
func (m *Manager) StartFromIntent(ctx context.Context, userID int64, intent *models.Intent) *Reply {
	draft := models.TransactionDraft{
		Type:     intent.Type,
		Category: intent.Category,
		Date:     intent.Date,
		Time:     intent.Time,
		Note:     intent.Note,
		Currency: intent.Currency,
	}
	if intent.HasAmount() {
		draft.Amount = intent.Amount
	}

	// best effort card resolution from the hint; unresolved stays a slot
	if intent.CardHint != nil {
		if account, err := m.store.GetAccountByCardHint(ctx, userID, *intent.CardHint); err == nil {
			draft.AccountID = &account.ID
		}
	}

	return m.open(ctx, userID, models.ModeAssisted, draft)
}

func (m *Manager) open(ctx context.Context, userID int64, mode models.SessionMode, draft models.TransactionDraft) *Reply {
	m.mu.Lock()
	if _, exists := m.sessions[userID]; exists {
		// last writer wins: the stale session is silently dropped
		metrics.SessionsCompleted.WithLabelValues("replaced").Inc()
		metrics.SessionsActive.Dec()
	}

	now := time.Now()
	sess := &models.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		Mode:      mode,
		State:     firstUnfilled(&draft),
		Draft:     draft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.sessions[userID] = sess
	m.mu.Unlock()

	metrics.SessionsActive.Inc()
	m.logger.Info("session opened", map[string]interface{}{
		"userId": userID,
		"mode":   string(mode),
		"state":  string(sess.State),
	})
	return m.promptFor(ctx, sess)
}

// TrackPrompt records a transient prompt message so Cancel can delete it.
func (m *Manager) TrackPrompt(userID int64, messageID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[userID]; ok {
		sess.PromptMessageIDs = append(sess.PromptMessageIDs, messageID)
	}
}

// Cancel discards the session without committing anything. It returns the
// tracked prompt message IDs so the caller can clean up the chat.
func (m *Manager) Cancel(userID int64) ([]int, bool) {
	if !m.Active(userID) {
		return nil, false
	}
	return m.close(userID, "cancelled"), true
}

// close removes the session and records its outcome.
func (m *Manager) close(userID int64, outcome string) []int {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[userID]
	if !ok {
		return nil
	}
	delete(m.sessions, userID)

	metrics.SessionsCompleted.WithLabelValues(outcome).Inc()
	metrics.SessionsActive.Dec()
	m.logger.Info("session closed", map[string]interface{}{
		"userId":  userID,
		"outcome": outcome,
		"state":   string(sess.State),
	})
	return sess.PromptMessageIDs
}

// HandleAnswer feeds the user's message into the current slot.
func (m *Manager) HandleAnswer(ctx context.Context, userID int64, text string) *Reply {
	m.mu.Lock()
	sess, ok := m.sessions[userID]
	m.mu.Unlock()
	if !ok {
		return &Reply{Text: msgCancelled, Done: true}
	}

	if matchesAnswer(text, noAnswers) && sess.State != models.StateDescription {
		prompts, _ := m.Cancel(userID)
		return &Reply{Text: msgCancelled, Done: true, CleanupIDs: prompts}
	}

	sess.UpdateActivity()

	switch sess.State {
	case models.StateAmount:
		return m.answerAmount(ctx, sess, text)
	case models.StateType:
		return m.answerType(ctx, sess, text)
	case models.StateCategory:
		return m.answerCategory(ctx, sess, text)
	case models.StateAccount:
		return m.answerAccount(ctx, sess, text)
	case models.StateDescription:
		return m.answerDescription(ctx, sess, text)
	case models.StateConfirm:
		return m.answerConfirm(ctx, sess, text)
	default:
		m.Cancel(userID)
		return &Reply{Text: msgCancelled, Done: true}
	}
}

// ==========================
// Slot Handlers
// ==========================

func (m *Manager) answerAmount(ctx context.Context, sess *models.Session, text string) *Reply {
	cleaned := textnorm.StripSeparators(strings.TrimSpace(textnorm.Digits(text)))
	amount, err := decimal.NewFromString(cleaned)
	if err != nil || !amount.IsPositive() {
		return &Reply{Text: msgInvalidAmount}
	}

	sess.Draft.Amount = &amount
	return m.advance(ctx, sess)
}

func (m *Manager) answerType(ctx context.Context, sess *models.Session, text string) *Reply {
	var txType models.TransactionType
	switch {
	case matchesAnswer(text, incomeAnswers):
		txType = models.TypeIncome
	case matchesAnswer(text, expenseAnswers):
		txType = models.TypeExpense
	default:
		return &Reply{Text: msgInvalidType, Options: typeOptions}
	}

	sess.Draft.Type = &txType
	return m.advance(ctx, sess)
}

func (m *Manager) answerCategory(ctx context.Context, sess *models.Session, text string) *Reply {
	name := strings.TrimSpace(text)
	if name == "" {
		return m.promptFor(ctx, sess)
	}

	// unknown names become new categories without an extra question
	txType := models.TypeExpense
	if sess.Draft.Type != nil {
		txType = *sess.Draft.Type
	}
	if err := m.store.AddCategory(ctx, &models.Category{
		UserID: sess.UserID,
		Name:   name,
		Type:   txType,
	}); err != nil {
		m.logger.WithError(err).Warn("category upsert failed", map[string]interface{}{
			"userId": sess.UserID,
		})
	}

	sess.Draft.Category = &name
	return m.advance(ctx, sess)
}

func (m *Manager) answerAccount(ctx context.Context, sess *models.Session, text string) *Reply {
	answer := strings.TrimSpace(textnorm.Digits(text))

	var account *models.Account
	var err error
	if len(answer) == 4 && isDigits(answer) {
		account, err = m.store.GetAccountByCardHint(ctx, sess.UserID, answer)
	} else {
		account, err = m.store.GetAccountByName(ctx, sess.UserID, answer)
	}

	if err != nil {
		var stdErr *apperrors.StandardError
		if stderrors.As(err, &stdErr) && stdErr.Code == apperrors.ErrCodeOwnershipFailed {
			prompts := m.close(sess.UserID, "aborted")
			return &Reply{Text: msgAborted, Done: true, CleanupIDs: prompts}
		}
		return m.repromptAccount(ctx, sess)
	}

	sess.Draft.AccountID = &account.ID
	return m.advance(ctx, sess)
}

func (m *Manager) answerDescription(ctx context.Context, sess *models.Session, text string) *Reply {
	note := strings.TrimSpace(text)
	if matchesAnswer(note, skipAnswers) {
		note = ""
	}
	sess.Draft.Note = &note
	return m.advance(ctx, sess)
}

func (m *Manager) answerConfirm(ctx context.Context, sess *models.Session, text string) *Reply {
	if !matchesAnswer(text, yesAnswers) {
		return &Reply{Text: confirmSummary(&sess.Draft), Options: confirmOptions}
	}

	tx := m.buildTransaction(sess)

	// dollar drafts are stored in toman at today's street price
	if tx.Currency == models.CurrencyDollar && m.rates != nil {
		tx.Amount = m.rates.ToToman(ctx, tx.Amount, time.Now())
		tx.Currency = models.CurrencyToman
	}

	id, err := m.store.AddTransaction(ctx, tx)
	if err != nil {
		m.logger.WithError(err).Error("transaction commit failed", map[string]interface{}{
			"userId": sess.UserID,
		})
		// nothing was written; the session stays at confirm for a retry
		return &Reply{Text: msgCommitFailed, Options: confirmOptions}
	}

	text = msgCommitted
	if account, err := m.store.GetAccount(ctx, sess.UserID, tx.AccountID); err == nil {
		text = fmt.Sprintf("%s\nموجودی %s: %s تومان", msgCommitted, account.Name, account.Balance.StringFixed(0))
	}

	m.close(sess.UserID, "committed")

	m.logger.Info("transaction recorded", map[string]interface{}{
		"userId":        sess.UserID,
		"transactionId": id,
	})
	return &Reply{Text: text, Done: true}
}

// ==========================
// Flow Helpers
// ==========================

// firstUnfilled walks the slot order and returns the first empty one. The
// description slot counts as unfilled only while Note is nil; an empty
// string means the user skipped it.
func firstUnfilled(draft *models.TransactionDraft) models.SessionState {
	switch {
	case draft.Amount == nil || !draft.Amount.IsPositive():
		return models.StateAmount
	case draft.Type == nil:
		return models.StateType
	case draft.Category == nil:
		return models.StateCategory
	case draft.AccountID == nil:
		return models.StateAccount
	case draft.Note == nil:
		return models.StateDescription
	default:
		return models.StateConfirm
	}
}

func (m *Manager) advance(ctx context.Context, sess *models.Session) *Reply {
	sess.State = firstUnfilled(&sess.Draft)
	return m.promptFor(ctx, sess)
}

func (m *Manager) promptFor(ctx context.Context, sess *models.Session) *Reply {
	switch sess.State {
	case models.StateAmount:
		return &Reply{Text: promptAmount}
	case models.StateType:
		return &Reply{Text: promptType, Options: typeOptions}
	case models.StateCategory:
		return m.repromptCategory(ctx, sess)
	case models.StateAccount:
		return m.repromptAccount(ctx, sess)
	case models.StateDescription:
		return &Reply{Text: promptDescription, Options: descriptionOptions}
	default:
		return &Reply{Text: confirmSummary(&sess.Draft), Options: confirmOptions}
	}
}

func (m *Manager) repromptCategory(ctx context.Context, sess *models.Session) *Reply {
	txType := models.TypeExpense
	if sess.Draft.Type != nil {
		txType = *sess.Draft.Type
	}

	reply := &Reply{Text: promptCategory}
	if categories, err := m.store.ListCategories(ctx, sess.UserID, txType); err == nil {
		for _, c := range categories {
			reply.Options = append(reply.Options, c.Name)
		}
	}
	return reply
}

func (m *Manager) repromptAccount(ctx context.Context, sess *models.Session) *Reply {
	reply := &Reply{Text: promptAccount}
	if accounts, err := m.store.ListAccounts(ctx, sess.UserID); err == nil {
		for _, a := range accounts {
			reply.Options = append(reply.Options, a.Name)
		}
	}
	if reply.Options == nil {
		reply.Text = msgAccountNotFound
	}
	return reply
}

func (m *Manager) buildTransaction(sess *models.Session) *models.Transaction {
	draft := &sess.Draft

	tx := &models.Transaction{
		UserID:    sess.UserID,
		Amount:    *draft.Amount,
		Type:      models.TypeExpense,
		Currency:  models.CurrencyToman,
		AccountID: *draft.AccountID,
		Date:      calendar.Today(time.Now()),
	}
	if draft.Type != nil {
		tx.Type = *draft.Type
	}
	if draft.Currency != nil {
		tx.Currency = *draft.Currency
	}
	if draft.Category != nil {
		tx.Category = *draft.Category
	}
	if draft.Date != nil {
		tx.Date = *draft.Date
	}
	if draft.Note != nil {
		tx.Note = *draft.Note
	}
	return tx
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
