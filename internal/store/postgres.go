// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"finbot/internal/common/errors"
	"finbot/internal/common/logger"
	"finbot/internal/models"
)

// defaultCategories are seeded for every new user.
var defaultCategories = []models.Category{
	{Name: "غذا", Type: models.TypeExpense},
	{Name: "حمل و نقل", Type: models.TypeExpense},
	{Name: "اجاره", Type: models.TypeExpense},
	{Name: "تفریح", Type: models.TypeExpense},
	{Name: "سایر", Type: models.TypeExpense},
	{Name: "حقوق", Type: models.TypeIncome},
	{Name: "پاداش", Type: models.TypeIncome},
	{Name: "سرمایه‌گذاری", Type: models.TypeIncome},
	{Name: "سایر", Type: models.TypeIncome},
}

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresStore(db *sql.DB, log logger.Logger) *PostgresStore {
	return &PostgresStore{
		db: db,
		logger: log.With(map[string]interface{}{
			"component": "store",
		}),
	}
}

// ==========================
// Users and Settings
// ==========================

// EnsureUser registers the user on first contact and seeds the default
// category set. Re-running for an existing user is a no-op.
func (s *PostgresStore) EnsureUser(ctx context.Context, userID int64, language string) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, language) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
		userID, language)
	if err != nil {
		return errors.NewQueryExecutionFailedError("ensure user", err)
	}

	inserted, _ := res.RowsAffected()
	if inserted == 0 {
		return nil
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO user_settings (user_id, currency, calendar_format) VALUES ($1, 'toman', 'jalali')`,
		userID); err != nil {
		return errors.NewQueryExecutionFailedError("seed settings", err)
	}

	for _, cat := range defaultCategories {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO categories (user_id, name, type) VALUES ($1, $2, $3)`,
			userID, cat.Name, cat.Type); err != nil {
			return errors.NewQueryExecutionFailedError("seed categories", err)
		}
	}

	s.logger.Info("new user registered", map[string]interface{}{
		"userId": userID,
	})
	return nil
}

func (s *PostgresStore) GetSettings(ctx context.Context, userID int64) (*models.Settings, error) {
	settings := &models.Settings{UserID: userID}
	err := s.db.QueryRowContext(ctx,
		`SELECT currency, calendar_format FROM user_settings WHERE user_id = $1`,
		userID).Scan(&settings.Currency, &settings.Calendar)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewRecordNotFoundError("settings", fmt.Sprintf("user %d", userID))
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get settings", err)
	}
	return settings, nil
}

func (s *PostgresStore) UpdateSettings(ctx context.Context, settings *models.Settings) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE user_settings SET currency = $2, calendar_format = $3 WHERE user_id = $1`,
		settings.UserID, settings.Currency, settings.Calendar)
	if err != nil {
		return errors.NewQueryExecutionFailedError("update settings", err)
	}
	return nil
}

func (s *PostgresStore) SetLanguage(ctx context.Context, userID int64, language string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET language = $2 WHERE id = $1`,
		userID, language)
	if err != nil {
		return errors.NewQueryExecutionFailedError("set language", err)
	}
	return nil
}

// ==========================
// Accounts
// ==========================

func (s *PostgresStore) AddAccount(ctx context.Context, account *models.Account) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO cards_sources (user_id, name, card_number, balance) VALUES ($1, $2, $3, $4) RETURNING id`,
		account.UserID, account.Name, account.CardNumber, account.Balance).Scan(&id)
	if err != nil {
		return 0, errors.NewQueryExecutionFailedError("add account", err)
	}
	return id, nil
}

func (s *PostgresStore) DeleteAccount(ctx context.Context, userID, accountID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cards_sources WHERE id = $1 AND user_id = $2`,
		accountID, userID)
	if err != nil {
		return errors.NewQueryExecutionFailedError("delete account", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errors.NewOwnershipFailedError("card source", fmt.Sprintf("id %d", accountID))
	}
	return nil
}

func (s *PostgresStore) ListAccounts(ctx context.Context, userID int64) ([]models.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, card_number, balance FROM cards_sources WHERE user_id = $1 ORDER BY id`,
		userID)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list accounts", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.CardNumber, &a.Balance); err != nil {
			return nil, errors.NewQueryExecutionFailedError("scan account", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *PostgresStore) GetAccount(ctx context.Context, userID, accountID int64) (*models.Account, error) {
	return s.scanAccount(s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, card_number, balance FROM cards_sources WHERE id = $1 AND user_id = $2`,
		accountID, userID), fmt.Sprintf("id %d", accountID))
}

func (s *PostgresStore) GetAccountByName(ctx context.Context, userID int64, name string) (*models.Account, error) {
	return s.scanAccount(s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, card_number, balance FROM cards_sources WHERE user_id = $1 AND name = $2`,
		userID, name), name)
}

func (s *PostgresStore) GetAccountByCardHint(ctx context.Context, userID int64, hint string) (*models.Account, error) {
	return s.scanAccount(s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, card_number, balance FROM cards_sources WHERE user_id = $1 AND card_number LIKE '%' || $2`,
		userID, hint), fmt.Sprintf("card ending %s", hint))
}

func (s *PostgresStore) scanAccount(row *sql.Row, details string) (*models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.CardNumber, &a.Balance)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewRecordNotFoundError("card source", details)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get account", err)
	}
	return &a, nil
}

// ==========================
// Categories
// ==========================

func (s *PostgresStore) AddCategory(ctx context.Context, category *models.Category) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (user_id, name, type) VALUES ($1, $2, $3) ON CONFLICT (user_id, name, type) DO NOTHING`,
		category.UserID, category.Name, category.Type)
	if err != nil {
		return errors.NewQueryExecutionFailedError("add category", err)
	}
	return nil
}

func (s *PostgresStore) ListCategories(ctx context.Context, userID int64, txType models.TransactionType) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, type FROM categories WHERE user_id = $1 AND type = $2 ORDER BY id`,
		userID, txType)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list categories", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Type); err != nil {
			return nil, errors.NewQueryExecutionFailedError("scan category", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// ==========================
// Transactions
// ==========================

// AddTransaction writes the record and adjusts the account balance inside
// one database transaction. Either both land or neither does.
func (s *PostgresStore) AddTransaction(ctx context.Context, tx *models.Transaction) (int64, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.NewDatabaseConnectionFailedError(err)
	}
	defer dbTx.Rollback()

	var id int64
	err = dbTx.QueryRowContext(ctx,
		`INSERT INTO transactions (user_id, amount, currency, type, category, card_source_id, date, note)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		tx.UserID, tx.Amount, tx.Currency, tx.Type, tx.Category, tx.AccountID, tx.Date, tx.Note).Scan(&id)
	if err != nil {
		return 0, errors.NewTransactionCommitFailedError(err)
	}

	delta := tx.Amount
	if tx.Type == models.TypeExpense {
		delta = tx.Amount.Neg()
	}

	res, err := dbTx.ExecContext(ctx,
		`UPDATE cards_sources SET balance = balance + $1 WHERE id = $2 AND user_id = $3`,
		delta, tx.AccountID, tx.UserID)
	if err != nil {
		return 0, errors.NewTransactionCommitFailedError(err)
	}
	if affected, _ := res.RowsAffected(); affected != 1 {
		return 0, errors.NewOwnershipFailedError("card source", fmt.Sprintf("id %d", tx.AccountID))
	}

	if err := dbTx.Commit(); err != nil {
		return 0, errors.NewTransactionCommitFailedError(err)
	}

	s.logger.Info("transaction committed", map[string]interface{}{
		"userId":        tx.UserID,
		"transactionId": id,
		"type":          string(tx.Type),
	})
	return id, nil
}

func (s *PostgresStore) Report(ctx context.Context, userID int64, start, end string) (*models.Report, error) {
	report := &models.Report{UserID: userID, Start: start, End: end}

	err := s.db.QueryRowContext(ctx,
		`SELECT
			COALESCE(SUM(amount) FILTER (WHERE type = 'income'), 0),
			COALESCE(SUM(amount) FILTER (WHERE type = 'expense'), 0)
		 FROM transactions WHERE user_id = $1 AND date BETWEEN $2 AND $3`,
		userID, start, end).Scan(&report.Income, &report.Expense)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("report totals", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT category, SUM(amount) FROM transactions
		 WHERE user_id = $1 AND date BETWEEN $2 AND $3 AND type = 'expense'
		 GROUP BY category ORDER BY SUM(amount) DESC`,
		userID, start, end)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("report by category", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sum models.CategorySum
		if err := rows.Scan(&sum.Category, &sum.Total); err != nil {
			return nil, errors.NewQueryExecutionFailedError("scan report row", err)
		}
		report.ByExpense = append(report.ByExpense, sum)
	}
	return report, rows.Err()
}

// ==========================
// Plans
// ==========================

func (s *PostgresStore) AddPlan(ctx context.Context, plan *models.Plan) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO plans (user_id, title, date, time) VALUES ($1, $2, $3, $4) RETURNING id`,
		plan.UserID, plan.Title, plan.Date, plan.Time).Scan(&id)
	if err != nil {
		return 0, errors.NewQueryExecutionFailedError("add plan", err)
	}
	return id, nil
}

func (s *PostgresStore) ListPlansBetween(ctx context.Context, userID int64, start, end string) ([]models.Plan, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, date, time, is_done FROM plans
		 WHERE user_id = $1 AND date BETWEEN $2 AND $3 ORDER BY date, time`,
		userID, start, end)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list plans", err)
	}
	defer rows.Close()

	var plans []models.Plan
	for rows.Next() {
		var p models.Plan
		if err := rows.Scan(&p.ID, &p.UserID, &p.Title, &p.Date, &p.Time, &p.IsDone); err != nil {
			return nil, errors.NewQueryExecutionFailedError("scan plan", err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (s *PostgresStore) MarkPlanDone(ctx context.Context, userID, planID int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE plans SET is_done = TRUE WHERE id = $1 AND user_id = $2`,
		planID, userID)
	if err != nil {
		return errors.NewQueryExecutionFailedError("mark plan done", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errors.NewOwnershipFailedError("plan", fmt.Sprintf("id %d", planID))
	}
	return nil
}

func (s *PostgresStore) DeletePlan(ctx context.Context, userID, planID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM plans WHERE id = $1 AND user_id = $2`,
		planID, userID)
	if err != nil {
		return errors.NewQueryExecutionFailedError("delete plan", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errors.NewOwnershipFailedError("plan", fmt.Sprintf("id %d", planID))
	}
	return nil
}

// ==========================
// Admin
// ==========================

func (s *PostgresStore) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, language, created_at FROM users ORDER BY created_at`)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list users", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Language, &u.CreatedAt); err != nil {
			return nil, errors.NewQueryExecutionFailedError("scan user", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *PostgresStore) GetUserStats(ctx context.Context, userID int64) (*models.UserStats, error) {
	stats := &models.UserStats{UserID: userID}
	err := s.db.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM transactions WHERE user_id = $1),
			(SELECT COUNT(*) FROM cards_sources WHERE user_id = $1),
			(SELECT COUNT(*) FROM plans WHERE user_id = $1)`,
		userID).Scan(&stats.TransactionCount, &stats.AccountCount, &stats.PlanCount)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("user stats", err)
	}
	return stats, nil
}

// ClearUserData wipes everything a user owns except the user row itself.
func (s *PostgresStore) ClearUserData(ctx context.Context, userID int64) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewDatabaseConnectionFailedError(err)
	}
	defer dbTx.Rollback()

	for _, table := range []string{"transactions", "plans", "cards_sources", "categories"} {
		if _, err := dbTx.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1`, table), userID); err != nil {
			return errors.NewQueryExecutionFailedError("clear "+table, err)
		}
	}
	if err := dbTx.Commit(); err != nil {
		return errors.NewTransactionCommitFailedError(err)
	}
	return nil
}
