package store

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "finbot/internal/common/errors"
	"finbot/internal/common/logger"
	"finbot/internal/models"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db, logger.NewTestLogger(t)), mock
}

func sampleTransaction() *models.Transaction {
	return &models.Transaction{
		UserID:    42,
		Amount:    decimal.NewFromInt(200),
		Currency:  models.CurrencyToman,
		Type:      models.TypeExpense,
		Category:  "غذا",
		AccountID: 7,
		Date:      "2025-03-09",
	}
}

// ==========================
// Atomic Commit Tests
// ==========================

func TestAddTransaction_CommitsBothOrNeither(t *testing.T) {
	store, mock := newMockStore(t)
	tx := sampleTransaction()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO transactions`)).
		WithArgs(tx.UserID, tx.Amount, tx.Currency, tx.Type, tx.Category, tx.AccountID, tx.Date, tx.Note).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(101)))
	// expense subtracts from the balance
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE cards_sources SET balance = balance + $1`)).
		WithArgs(tx.Amount.Neg(), tx.AccountID, tx.UserID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := store.AddTransaction(context.Background(), tx)

	require.NoError(t, err)
	assert.Equal(t, int64(101), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddTransaction_IncomeAddsToBalance(t *testing.T) {
	store, mock := newMockStore(t)
	tx := sampleTransaction()
	tx.Type = models.TypeIncome

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO transactions`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(102)))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE cards_sources`)).
		WithArgs(tx.Amount, tx.AccountID, tx.UserID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := store.AddTransaction(context.Background(), tx)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddTransaction_BalanceUpdateFailureRollsBack(t *testing.T) {
	store, mock := newMockStore(t)
	tx := sampleTransaction()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO transactions`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(103)))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE cards_sources`)).
		WillReturnError(fmt.Errorf("connection reset"))
	mock.ExpectRollback()

	id, err := store.AddTransaction(context.Background(), tx)

	require.Error(t, err)
	assert.Equal(t, int64(0), id)
	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeTransactionCommitFailed, stdErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddTransaction_ForeignAccountRollsBack(t *testing.T) {
	store, mock := newMockStore(t)
	tx := sampleTransaction()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO transactions`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(104)))
	// account belongs to someone else: zero rows touched
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE cards_sources`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := store.AddTransaction(context.Background(), tx)

	require.Error(t, err)
	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeOwnershipFailed, stdErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// User Lifecycle Tests
// ==========================

func TestEnsureUser_SeedsDefaults(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs(int64(42), "fa").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO user_settings`)).
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	for range defaultCategories {
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO categories`)).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	err := store.EnsureUser(context.Background(), 42, "fa")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureUser_ExistingUserIsNoOp(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs(int64(42), "fa").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.EnsureUser(context.Background(), 42, "fa")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Ownership Tests
// ==========================

func TestDeleteAccount_Ownership(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM cards_sources`)).
		WithArgs(int64(9), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.DeleteAccount(context.Background(), 42, 9)

	require.Error(t, err)
	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeOwnershipFailed, stdErr.Code)
}

func TestMarkPlanDone_Ownership(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE plans SET is_done`)).
		WithArgs(int64(3), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.MarkPlanDone(context.Background(), 42, 3)

	require.Error(t, err)
	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeOwnershipFailed, stdErr.Code)
}

// ==========================
// Report Tests
// ==========================

func TestReport_AggregatesRange(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM transactions WHERE user_id = $1 AND date BETWEEN`)).
		WithArgs(int64(42), "2025-03-01", "2025-03-09").
		WillReturnRows(sqlmock.NewRows([]string{"income", "expense"}).
			AddRow("5000000", "1200000"))
	mock.ExpectQuery(regexp.QuoteMeta(`GROUP BY category`)).
		WithArgs(int64(42), "2025-03-01", "2025-03-09").
		WillReturnRows(sqlmock.NewRows([]string{"category", "sum"}).
			AddRow("غذا", "700000").
			AddRow("حمل و نقل", "500000"))

	report, err := store.Report(context.Background(), 42, "2025-03-01", "2025-03-09")

	require.NoError(t, err)
	assert.Equal(t, "5000000", report.Income.String())
	assert.Equal(t, "1200000", report.Expense.String())
	assert.Equal(t, "3800000", report.Net().String())
	require.Len(t, report.ByExpense, 2)
	assert.Equal(t, "غذا", report.ByExpense[0].Category)
}

// ==========================
// Lookup Tests
// ==========================

func TestGetAccountByCardHint(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`card_number LIKE`)).
		WithArgs(int64(42), "1234").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "card_number", "balance"}).
			AddRow(int64(7), int64(42), "ملت", "6104331234", "1500000"))

	account, err := store.GetAccountByCardHint(context.Background(), 42, "1234")

	require.NoError(t, err)
	assert.Equal(t, int64(7), account.ID)
	assert.Equal(t, "ملت", account.Name)
}

func TestGetAccountByName_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`name = $2`)).
		WithArgs(int64(42), "ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "card_number", "balance"}))

	_, err := store.GetAccountByName(context.Background(), 42, "ghost")

	require.Error(t, err)
	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeRecordNotFound, stdErr.Code)
}
