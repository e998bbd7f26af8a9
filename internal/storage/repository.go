package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"monty/internal/core"

	_ "modernc.org/sqlite"
)

// Dates are stored as text: RFC3339 UTC for transaction timestamps and
// plain ISO dates for budget period keys. Both compare lexicographically.
const (
	timestampLayout = time.RFC3339
	periodLayout    = "2006-01-02"
)

var ErrNotFound = errors.New("not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// UpsertUserByTelegramID creates the user on first login and refreshes the
// display name on subsequent ones.
func (r *SQLiteRepository) UpsertUserByTelegramID(ctx context.Context, telegramID int64, firstName string) (core.User, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (telegram_id, first_name, is_active) VALUES (?, ?, 1)
		ON CONFLICT(telegram_id) DO UPDATE SET first_name = excluded.first_name, is_active = 1`,
		telegramID, firstName)
	if err != nil {
		return core.User{}, fmt.Errorf("upsert user: %w", err)
	}

	return r.GetUserByTelegramID(ctx, telegramID)
}

func (r *SQLiteRepository) GetUserByTelegramID(ctx context.Context, telegramID int64) (core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, telegram_id, first_name, is_active FROM users WHERE telegram_id = ?`, telegramID))
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id int64) (core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, telegram_id, first_name, is_active FROM users WHERE id = ?`, id))
}

func (r *SQLiteRepository) scanUser(row *sql.Row) (core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.TelegramID, &u.FirstName, &u.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, icon, category_group, category_type FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Group, &c.Type); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, icon, category_group, category_type FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Icon, &c.Group, &c.Type)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, category_id, amount, transaction_date, comment)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.CategoryID, t.Amount, t.Date.UTC().Format(timestampLayout), nullable(t.Comment))
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"transaction_id", t.ID,
		"category_id", t.CategoryID,
		"amount", t.Amount)
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	var (
		t       core.Transaction
		date    string
		comment sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, category_id, amount, transaction_date, comment
		FROM transactions WHERE id = ?`, id).
		Scan(&t.ID, &t.UserID, &t.CategoryID, &t.Amount, &date, &comment)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	t.Date, err = time.Parse(timestampLayout, date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction date: %w", err)
	}
	t.Comment = comment.String
	return t, nil
}

// TransactionUpdate carries the optional fields of a transaction edit.
type TransactionUpdate struct {
	CategoryID *int64
	Amount     *int64
	Comment    *string
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id string, upd TransactionUpdate) error {
	t, err := r.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if upd.CategoryID != nil {
		t.CategoryID = *upd.CategoryID
	}
	if upd.Amount != nil {
		t.Amount = *upd.Amount
	}
	if upd.Comment != nil {
		t.Comment = *upd.Comment
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE transactions SET category_id = ?, amount = ?, comment = ? WHERE id = ?`,
		t.CategoryID, t.Amount, nullable(t.Comment), id)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// TransactionFilter narrows ListTransactionViews. Zero values mean
// "no constraint"; Start/End are inclusive.
// TransactionFilter narrows ListTransactionViews. The date range is
// half-open: Start inclusive, End exclusive.
type TransactionFilter struct {
	CategoryID int64
	Start      time.Time
	End        time.Time
	Search     string
}

// ListTransactionViews returns transactions joined with their category
// classification and owner, newest first.
func (r *SQLiteRepository) ListTransactionViews(ctx context.Context, f TransactionFilter) ([]core.TransactionView, error) {
	query := `
		SELECT t.id, t.amount, t.transaction_date, t.comment,
		       c.name, c.icon, c.category_group, c.category_type,
		       u.id, u.first_name
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		JOIN users u ON u.id = t.user_id
		WHERE 1=1`
	var args []any

	if f.CategoryID != 0 {
		query += ` AND t.category_id = ?`
		args = append(args, f.CategoryID)
	}
	if !f.Start.IsZero() {
		query += ` AND t.transaction_date >= ?`
		args = append(args, f.Start.UTC().Format(timestampLayout))
	}
	if !f.End.IsZero() {
		query += ` AND t.transaction_date < ?`
		args = append(args, f.End.UTC().Format(timestampLayout))
	}
	if f.Search != "" {
		query += ` AND (t.comment LIKE ? OR c.name LIKE ?)`
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY t.transaction_date DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var views []core.TransactionView
	for rows.Next() {
		var (
			v       core.TransactionView
			date    string
			comment sql.NullString
		)
		if err := rows.Scan(&v.ID, &v.Amount, &date, &comment,
			&v.CategoryName, &v.CategoryIcon, &v.CategoryGroup, &v.CategoryType,
			&v.UserID, &v.UserName); err != nil {
			return nil, fmt.Errorf("scan transaction view: %w", err)
		}
		v.Date, err = time.Parse(timestampLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parse transaction date: %w", err)
		}
		v.Comment = comment.String
		views = append(views, v)
	}
	return views, rows.Err()
}

// BudgetWithCategory is a monthly budget joined with its category.
type BudgetWithCategory struct {
	Budget   core.MonthlyBudget
	Category core.Category
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, period time.Time) ([]BudgetWithCategory, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT b.id, b.category_id, b.period, b.limit_amount,
		       c.id, c.name, c.icon, c.category_group, c.category_type
		FROM monthly_budgets b
		JOIN categories c ON c.id = b.category_id
		WHERE b.period = ?
		ORDER BY b.id`, period.Format(periodLayout))
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []BudgetWithCategory
	for rows.Next() {
		var (
			b      BudgetWithCategory
			period string
		)
		if err := rows.Scan(&b.Budget.ID, &b.Budget.CategoryID, &period, &b.Budget.LimitAmount,
			&b.Category.ID, &b.Category.Name, &b.Category.Icon, &b.Category.Group, &b.Category.Type); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.Budget.Period, err = time.Parse(periodLayout, period)
		if err != nil {
			return nil, fmt.Errorf("parse budget period: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

// UpsertBudget replaces the limit for an existing (category, period) pair
// instead of duplicating it.
func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.MonthlyBudget) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO monthly_budgets (category_id, period, limit_amount) VALUES (?, ?, ?)
		ON CONFLICT(category_id, period) DO UPDATE SET limit_amount = excluded.limit_amount`,
		b.CategoryID, b.Period.Format(periodLayout), b.LimitAmount)
	if err != nil {
		return fmt.Errorf("upsert budget: %w", err)
	}
	return nil
}

// SpentByCategory sums transaction amounts per category over [start, end).
func (r *SQLiteRepository) SpentByCategory(ctx context.Context, start, end time.Time) (map[int64]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT category_id, COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE transaction_date >= ? AND transaction_date < ?
		GROUP BY category_id`,
		start.UTC().Format(timestampLayout), end.UTC().Format(timestampLayout))
	if err != nil {
		return nil, fmt.Errorf("spent by category: %w", err)
	}
	defer rows.Close()

	spent := make(map[int64]int64)
	for rows.Next() {
		var categoryID, amount int64
		if err := rows.Scan(&categoryID, &amount); err != nil {
			return nil, fmt.Errorf("scan spent row: %w", err)
		}
		spent[categoryID] = amount
	}
	return spent, rows.Err()
}

// SavingsTotal sums everything a user has ever put into SAVINGS-group
// categories.
func (r *SQLiteRepository) SavingsTotal(ctx context.Context, userID int64) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(t.amount), 0)
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = ? AND c.category_group = ?`,
		userID, core.GroupSavings).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("savings total: %w", err)
	}
	return total, nil
}

// CategorySum is a per-category amount, used by the daily digest.
type CategorySum struct {
	Name   string
	Icon   string
	Amount int64
}

// CategoryTotalsForDay sums amounts per category over one calendar day.
func (r *SQLiteRepository) CategoryTotalsForDay(ctx context.Context, day time.Time) ([]CategorySum, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	rows, err := r.db.QueryContext(ctx, `
		SELECT c.name, c.icon, SUM(t.amount)
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.transaction_date >= ? AND t.transaction_date < ?
		GROUP BY c.id, c.name, c.icon
		ORDER BY SUM(t.amount) DESC`,
		start.Format(timestampLayout), end.Format(timestampLayout))
	if err != nil {
		return nil, fmt.Errorf("category totals for day: %w", err)
	}
	defer rows.Close()

	var sums []CategorySum
	for rows.Next() {
		var s CategorySum
		if err := rows.Scan(&s.Name, &s.Icon, &s.Amount); err != nil {
			return nil, fmt.Errorf("scan category sum: %w", err)
		}
		sums = append(sums, s)
	}
	return sums, rows.Err()
}

func (r *SQLiteRepository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get setting: %w", err)
	}
	return value, nil
}

func (r *SQLiteRepository) SetSetting(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
