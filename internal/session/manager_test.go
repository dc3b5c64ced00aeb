package session

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "finbot/internal/common/errors"
	"finbot/internal/common/logger"
	"finbot/internal/models"
)

// fakeStore is an in-memory Store good enough for driving the flow.
type fakeStore struct {
	accounts     []models.Account
	categories   []models.Category
	transactions []models.Transaction
	commitErr    error
	commitCalls  int
}

func (f *fakeStore) EnsureUser(context.Context, int64, string) error { return nil }
func (f *fakeStore) GetSettings(context.Context, int64) (*models.Settings, error) {
	return &models.Settings{Currency: models.CurrencyToman, Calendar: models.CalendarJalali}, nil
}
func (f *fakeStore) UpdateSettings(context.Context, *models.Settings) error { return nil }
func (f *fakeStore) SetLanguage(context.Context, int64, string) error       { return nil }

func (f *fakeStore) AddAccount(_ context.Context, a *models.Account) (int64, error) {
	a.ID = int64(len(f.accounts) + 1)
	f.accounts = append(f.accounts, *a)
	return a.ID, nil
}
func (f *fakeStore) DeleteAccount(context.Context, int64, int64) error { return nil }
func (f *fakeStore) ListAccounts(context.Context, int64) ([]models.Account, error) {
	return f.accounts, nil
}
func (f *fakeStore) GetAccount(_ context.Context, userID, accountID int64) (*models.Account, error) {
	for _, a := range f.accounts {
		if a.ID == accountID {
			if a.UserID != userID {
				return nil, apperrors.NewOwnershipFailedError("card source", a.Name)
			}
			return &a, nil
		}
	}
	return nil, apperrors.NewRecordNotFoundError("card source", "by id")
}
func (f *fakeStore) GetAccountByName(_ context.Context, userID int64, name string) (*models.Account, error) {
	for _, a := range f.accounts {
		if a.Name == name {
			if a.UserID != userID {
				return nil, apperrors.NewOwnershipFailedError("card source", name)
			}
			return &a, nil
		}
	}
	return nil, apperrors.NewRecordNotFoundError("card source", name)
}
func (f *fakeStore) GetAccountByCardHint(_ context.Context, userID int64, hint string) (*models.Account, error) {
	for _, a := range f.accounts {
		if len(a.CardNumber) >= 4 && a.CardNumber[len(a.CardNumber)-4:] == hint {
			if a.UserID != userID {
				return nil, apperrors.NewOwnershipFailedError("card source", hint)
			}
			return &a, nil
		}
	}
	return nil, apperrors.NewRecordNotFoundError("card source", hint)
}

func (f *fakeStore) AddCategory(_ context.Context, c *models.Category) error {
	f.categories = append(f.categories, *c)
	return nil
}
func (f *fakeStore) ListCategories(context.Context, int64, models.TransactionType) ([]models.Category, error) {
	return f.categories, nil
}

func (f *fakeStore) AddTransaction(_ context.Context, tx *models.Transaction) (int64, error) {
	f.commitCalls++
	if f.commitErr != nil {
		return 0, f.commitErr
	}
	f.transactions = append(f.transactions, *tx)
	return int64(len(f.transactions)), nil
}
func (f *fakeStore) Report(context.Context, int64, string, string) (*models.Report, error) {
	return &models.Report{}, nil
}

func (f *fakeStore) AddPlan(context.Context, *models.Plan) (int64, error) { return 1, nil }
func (f *fakeStore) ListPlansBetween(context.Context, int64, string, string) ([]models.Plan, error) {
	return nil, nil
}
func (f *fakeStore) MarkPlanDone(context.Context, int64, int64) error { return nil }
func (f *fakeStore) DeletePlan(context.Context, int64, int64) error   { return nil }

func (f *fakeStore) ListUsers(context.Context) ([]models.User, error) { return nil, nil }
func (f *fakeStore) GetUserStats(context.Context, int64) (*models.UserStats, error) {
	return &models.UserStats{}, nil
}
func (f *fakeStore) ClearUserData(context.Context, int64) error { return nil }

// fakeRates converts dollars at a fixed price.
type fakeRates struct {
	price decimal.Decimal
}

func (f *fakeRates) ToToman(_ context.Context, dollars decimal.Decimal, _ time.Time) decimal.Decimal {
	return dollars.Mul(f.price)
}

// ==========================
// Test Helpers
// ==========================

const testUser int64 = 42

func newTestManager(t *testing.T) (*Manager, *fakeStore) {
	fake := &fakeStore{
		accounts: []models.Account{
			{ID: 1, UserID: testUser, Name: "ملت", CardNumber: "6104331234"},
		},
		categories: []models.Category{
			{ID: 1, UserID: testUser, Name: "غذا", Type: models.TypeExpense},
		},
	}
	return NewManager(fake, nil, logger.NewTestLogger(t)), fake
}

func decimalPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func typePtr(t models.TransactionType) *models.TransactionType { return &t }

func sessionState(m *Manager, userID int64) models.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[userID].State
}

// ==========================
// Seeding Tests
// ==========================

func TestStartFromIntent_SeededAmountAndTypePromptsCategory(t *testing.T) {
	manager, _ := newTestManager(t)
	intent := models.NewIntent(models.SectionFinance, models.ActionAddTransaction)
	intent.Amount = decimalPtr(200)
	intent.Type = typePtr(models.TypeExpense)

	reply := manager.StartFromIntent(context.Background(), testUser, intent)

	assert.Equal(t, models.StateCategory, sessionState(manager, testUser))
	assert.Equal(t, promptCategory, reply.Text)
	assert.Contains(t, reply.Options, "غذا")
}

func TestStartFromIntent_MissingAmountRestartsAtAmount(t *testing.T) {
	manager, _ := newTestManager(t)
	intent := models.NewIntent(models.SectionFinance, models.ActionAddTransaction)
	intent.Type = typePtr(models.TypeIncome)

	reply := manager.StartFromIntent(context.Background(), testUser, intent)

	assert.Equal(t, models.StateAmount, sessionState(manager, testUser))
	assert.Equal(t, promptAmount, reply.Text)

	// the seeded type survives: after the amount the flow jumps to category
	manager.HandleAnswer(context.Background(), testUser, "۵۰۰")
	assert.Equal(t, models.StateCategory, sessionState(manager, testUser))
}

func TestStartFromIntent_NonPositiveAmountRestartsAtAmount(t *testing.T) {
	manager, _ := newTestManager(t)
	intent := models.NewIntent(models.SectionFinance, models.ActionAddTransaction)
	zero := decimal.Zero
	intent.Amount = &zero

	manager.StartFromIntent(context.Background(), testUser, intent)

	assert.Equal(t, models.StateAmount, sessionState(manager, testUser))
}

func TestStartFromIntent_CardHintResolvesAccount(t *testing.T) {
	manager, _ := newTestManager(t)
	intent := models.NewIntent(models.SectionFinance, models.ActionAddTransaction)
	intent.Amount = decimalPtr(200)
	intent.Type = typePtr(models.TypeExpense)
	category := "غذا"
	intent.Category = &category
	hint := "1234"
	intent.CardHint = &hint

	manager.StartFromIntent(context.Background(), testUser, intent)

	// amount, type, category and account are all filled: description next
	assert.Equal(t, models.StateDescription, sessionState(manager, testUser))
}

// ==========================
// Flow Tests
// ==========================

func TestManualFlow_CommitsExactlyOnce(t *testing.T) {
	manager, fake := newTestManager(t)
	ctx := context.Background()

	reply := manager.Start(ctx, testUser)
	assert.Equal(t, promptAmount, reply.Text)

	manager.HandleAnswer(ctx, testUser, "200,000")
	manager.HandleAnswer(ctx, testUser, "هزینه")
	manager.HandleAnswer(ctx, testUser, "غذا")
	manager.HandleAnswer(ctx, testUser, "ملت")
	manager.HandleAnswer(ctx, testUser, "رد")
	reply = manager.HandleAnswer(ctx, testUser, "تایید")

	assert.True(t, reply.Done)
	assert.Equal(t, 1, fake.commitCalls)
	require.Len(t, fake.transactions, 1)

	tx := fake.transactions[0]
	assert.Equal(t, "200000", tx.Amount.String())
	assert.Equal(t, models.TypeExpense, tx.Type)
	assert.Equal(t, "غذا", tx.Category)
	assert.Equal(t, int64(1), tx.AccountID)
	assert.False(t, manager.Active(testUser))
}

func TestInvalidAmountReprompts(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()
	manager.Start(ctx, testUser)

	for _, bad := range []string{"abc", "-5", "0"} {
		reply := manager.HandleAnswer(ctx, testUser, bad)
		assert.Equal(t, msgInvalidAmount, reply.Text)
		assert.Equal(t, models.StateAmount, sessionState(manager, testUser))
	}
}

func TestAnswerOverwritesEarlierValue(t *testing.T) {
	manager, fake := newTestManager(t)
	ctx := context.Background()
	manager.Start(ctx, testUser)

	manager.HandleAnswer(ctx, testUser, "100")
	manager.HandleAnswer(ctx, testUser, "هزینه")
	manager.HandleAnswer(ctx, testUser, "غذا")
	manager.HandleAnswer(ctx, testUser, "ملت")
	// the description answer replaces the earlier skip default
	manager.HandleAnswer(ctx, testUser, "شام با دوستان")
	reply := manager.HandleAnswer(ctx, testUser, "تایید")

	assert.True(t, reply.Done)
	assert.Equal(t, "شام با دوستان", fake.transactions[0].Note)
}

func TestUnknownCategoryIsCreatedSilently(t *testing.T) {
	manager, fake := newTestManager(t)
	ctx := context.Background()
	manager.Start(ctx, testUser)

	manager.HandleAnswer(ctx, testUser, "300")
	manager.HandleAnswer(ctx, testUser, "هزینه")
	reply := manager.HandleAnswer(ctx, testUser, "کتاب")

	assert.Equal(t, models.StateAccount, sessionState(manager, testUser))
	assert.Equal(t, promptAccount, reply.Text)
	require.Len(t, fake.categories, 2)
	assert.Equal(t, "کتاب", fake.categories[1].Name)
}

func TestUnknownAccountReprompts(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()
	manager.Start(ctx, testUser)

	manager.HandleAnswer(ctx, testUser, "300")
	manager.HandleAnswer(ctx, testUser, "هزینه")
	manager.HandleAnswer(ctx, testUser, "غذا")
	reply := manager.HandleAnswer(ctx, testUser, "ناشناس")

	assert.Equal(t, models.StateAccount, sessionState(manager, testUser))
	assert.Contains(t, reply.Options, "ملت")
}

func TestForeignAccountAborts(t *testing.T) {
	manager, fake := newTestManager(t)
	fake.accounts = append(fake.accounts, models.Account{
		ID: 2, UserID: 999, Name: "غریبه", CardNumber: "6104335678",
	})
	ctx := context.Background()
	manager.Start(ctx, testUser)

	manager.HandleAnswer(ctx, testUser, "300")
	manager.HandleAnswer(ctx, testUser, "هزینه")
	manager.HandleAnswer(ctx, testUser, "غذا")
	reply := manager.HandleAnswer(ctx, testUser, "غریبه")

	assert.True(t, reply.Done)
	assert.Equal(t, msgAborted, reply.Text)
	assert.False(t, manager.Active(testUser))
	assert.Equal(t, 0, fake.commitCalls)
}

// ==========================
// Cancel and Commit Tests
// ==========================

func TestCancelDiscardsEverything(t *testing.T) {
	manager, fake := newTestManager(t)
	ctx := context.Background()
	manager.Start(ctx, testUser)
	manager.TrackPrompt(testUser, 11)
	manager.TrackPrompt(testUser, 12)

	manager.HandleAnswer(ctx, testUser, "500")
	reply := manager.HandleAnswer(ctx, testUser, "لغو")

	assert.True(t, reply.Done)
	assert.Equal(t, msgCancelled, reply.Text)
	assert.Equal(t, []int{11, 12}, reply.CleanupIDs)
	assert.False(t, manager.Active(testUser))
	assert.Equal(t, 0, fake.commitCalls)
	assert.Empty(t, fake.transactions)
}

func TestCommitFailureKeepsSessionForRetry(t *testing.T) {
	manager, fake := newTestManager(t)
	fake.commitErr = apperrors.NewTransactionCommitFailedError(assert.AnError)
	ctx := context.Background()
	manager.Start(ctx, testUser)

	manager.HandleAnswer(ctx, testUser, "500")
	manager.HandleAnswer(ctx, testUser, "هزینه")
	manager.HandleAnswer(ctx, testUser, "غذا")
	manager.HandleAnswer(ctx, testUser, "ملت")
	manager.HandleAnswer(ctx, testUser, "رد")
	reply := manager.HandleAnswer(ctx, testUser, "تایید")

	assert.False(t, reply.Done)
	assert.Equal(t, msgCommitFailed, reply.Text)
	assert.True(t, manager.Active(testUser))
	assert.Empty(t, fake.transactions)

	// the store recovers and the retry lands exactly one record
	fake.commitErr = nil
	reply = manager.HandleAnswer(ctx, testUser, "تایید")

	assert.True(t, reply.Done)
	assert.Equal(t, 2, fake.commitCalls)
	assert.Len(t, fake.transactions, 1)
}

func TestCommitReportsAccountBalance(t *testing.T) {
	manager, fake := newTestManager(t)
	fake.accounts[0].Balance = decimal.NewFromInt(750000)
	ctx := context.Background()
	manager.Start(ctx, testUser)

	manager.HandleAnswer(ctx, testUser, "200")
	manager.HandleAnswer(ctx, testUser, "هزینه")
	manager.HandleAnswer(ctx, testUser, "غذا")
	manager.HandleAnswer(ctx, testUser, "ملت")
	manager.HandleAnswer(ctx, testUser, "رد")
	reply := manager.HandleAnswer(ctx, testUser, "تایید")

	assert.True(t, reply.Done)
	assert.Contains(t, reply.Text, "ملت")
	assert.Contains(t, reply.Text, "750000")
}

func TestDollarDraftCommitsInToman(t *testing.T) {
	fake := &fakeStore{
		accounts: []models.Account{
			{ID: 1, UserID: testUser, Name: "ملت", CardNumber: "6104331234"},
		},
	}
	manager := NewManager(fake, &fakeRates{price: decimal.NewFromInt(100000)}, logger.NewTestLogger(t))
	ctx := context.Background()

	intent := models.NewIntent(models.SectionFinance, models.ActionAddTransaction)
	intent.Amount = decimalPtr(3)
	intent.Type = typePtr(models.TypeExpense)
	currency := models.CurrencyDollar
	intent.Currency = &currency
	category := "غذا"
	intent.Category = &category
	hint := "1234"
	intent.CardHint = &hint

	manager.StartFromIntent(ctx, testUser, intent)
	manager.HandleAnswer(ctx, testUser, "رد")
	reply := manager.HandleAnswer(ctx, testUser, "تایید")

	assert.True(t, reply.Done)
	require.Len(t, fake.transactions, 1)
	tx := fake.transactions[0]
	assert.Equal(t, "300000", tx.Amount.String())
	assert.Equal(t, models.CurrencyToman, tx.Currency)
}

func TestNewSessionReplacesOldOne(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	manager.Start(ctx, testUser)
	manager.HandleAnswer(ctx, testUser, "500")
	assert.Equal(t, models.StateType, sessionState(manager, testUser))

	// last writer wins: the fresh session starts over at amount
	reply := manager.Start(ctx, testUser)

	assert.Equal(t, promptAmount, reply.Text)
	assert.Equal(t, models.StateAmount, sessionState(manager, testUser))
}
