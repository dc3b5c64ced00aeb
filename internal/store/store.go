// Package store persists users, accounts, categories, transactions, and
// plans. All operations are scoped to a user ID; nothing crosses users.
package store

import (
	"context"

	"finbot/internal/models"
)

// Store is the persistence surface used by the session and bot layers.
type Store interface {
	// Users and settings
	EnsureUser(ctx context.Context, userID int64, language string) error
	GetSettings(ctx context.Context, userID int64) (*models.Settings, error)
	UpdateSettings(ctx context.Context, settings *models.Settings) error
	SetLanguage(ctx context.Context, userID int64, language string) error

	// Accounts (card sources)
	AddAccount(ctx context.Context, account *models.Account) (int64, error)
	DeleteAccount(ctx context.Context, userID, accountID int64) error
	ListAccounts(ctx context.Context, userID int64) ([]models.Account, error)
	GetAccount(ctx context.Context, userID, accountID int64) (*models.Account, error)
	GetAccountByName(ctx context.Context, userID int64, name string) (*models.Account, error)
	GetAccountByCardHint(ctx context.Context, userID int64, hint string) (*models.Account, error)

	// Categories
	AddCategory(ctx context.Context, category *models.Category) error
	ListCategories(ctx context.Context, userID int64, txType models.TransactionType) ([]models.Category, error)

	// Transactions
	AddTransaction(ctx context.Context, tx *models.Transaction) (int64, error)
	Report(ctx context.Context, userID int64, start, end string) (*models.Report, error)

	// Plans
	AddPlan(ctx context.Context, plan *models.Plan) (int64, error)
	ListPlansBetween(ctx context.Context, userID int64, start, end string) ([]models.Plan, error)
	MarkPlanDone(ctx context.Context, userID, planID int64) error
	DeletePlan(ctx context.Context, userID, planID int64) error

	// Admin
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUserStats(ctx context.Context, userID int64) (*models.UserStats, error)
	ClearUserData(ctx context.Context, userID int64) error
}
