package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"monty/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "monty.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestUpsertUserByTelegramID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u, err := repo.UpsertUserByTelegramID(ctx, 42, "Ann")
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if u.TelegramID != 42 || u.FirstName != "Ann" || !u.IsActive {
		t.Errorf("user = %+v", u)
	}

	again, err := repo.UpsertUserByTelegramID(ctx, 42, "Anna")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if again.ID != u.ID {
		t.Errorf("upsert created a new row: %d != %d", again.ID, u.ID)
	}
	if again.FirstName != "Anna" {
		t.Errorf("first name not refreshed: %q", again.FirstName)
	}
}

func TestSeededCategories(t *testing.T) {
	repo := newTestRepo(t)

	categories, err := repo.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(categories) == 0 {
		t.Fatal("expected seeded categories")
	}
	for _, c := range categories {
		if err := c.Validate(); err != nil {
			t.Errorf("seeded category %q invalid: %v", c.Name, err)
		}
	}
}

func TestTransactionLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user, err := repo.UpsertUserByTelegramID(ctx, 1, "Ann")
	if err != nil {
		t.Fatal(err)
	}

	tr := core.Transaction{
		ID:         "tx-1",
		UserID:     user.ID,
		CategoryID: 1,
		Amount:     1500,
		Date:       time.Date(2024, time.March, 5, 12, 30, 0, 0, time.UTC),
		Comment:    "weekly shop",
	}
	if err := repo.CreateTransaction(ctx, tr); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetTransaction(ctx, "tx-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Amount != 1500 || got.Comment != "weekly shop" || !got.Date.Equal(tr.Date) {
		t.Errorf("got %+v", got)
	}

	newAmount := int64(1800)
	if err := repo.UpdateTransaction(ctx, "tx-1", TransactionUpdate{Amount: &newAmount}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err = repo.GetTransaction(ctx, "tx-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Amount != 1800 {
		t.Errorf("amount = %d, want 1800", got.Amount)
	}
	if got.Comment != "weekly shop" {
		t.Errorf("comment changed by partial update: %q", got.Comment)
	}

	if err := repo.DeleteTransaction(ctx, "tx-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetTransaction(ctx, "tx-1"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.DeleteTransaction(ctx, "tx-1"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for second delete, got %v", err)
	}
}

func TestListTransactionViews(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user, err := repo.UpsertUserByTelegramID(ctx, 1, "Ann")
	if err != nil {
		t.Fatal(err)
	}

	mk := func(id string, categoryID int64, amount int64, day int, comment string) {
		t.Helper()
		err := repo.CreateTransaction(ctx, core.Transaction{
			ID:         id,
			UserID:     user.ID,
			CategoryID: categoryID,
			Amount:     amount,
			Date:       time.Date(2024, time.March, day, 10, 0, 0, 0, time.UTC),
			Comment:    comment,
		})
		if err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	mk("a", 1, 100, 1, "bread and milk")
	mk("b", 2, 200, 5, "")
	mk("c", 1, 300, 9, "cheese")

	views, err := repo.ListTransactionViews(ctx, TransactionFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 3 {
		t.Fatalf("got %d views, want 3", len(views))
	}
	// newest first
	if views[0].ID != "c" || views[2].ID != "a" {
		t.Errorf("wrong order: %s, %s, %s", views[0].ID, views[1].ID, views[2].ID)
	}
	if views[0].CategoryName == "" || views[0].UserName != "Ann" {
		t.Errorf("join fields missing: %+v", views[0])
	}

	byCategory, err := repo.ListTransactionViews(ctx, TransactionFilter{CategoryID: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(byCategory) != 1 || byCategory[0].ID != "b" {
		t.Errorf("category filter: %+v", byCategory)
	}

	ranged, err := repo.ListTransactionViews(ctx, TransactionFilter{
		Start: time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.March, 6, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(ranged) != 1 || ranged[0].ID != "b" {
		t.Errorf("range filter: %+v", ranged)
	}

	searched, err := repo.ListTransactionViews(ctx, TransactionFilter{Search: "cheese"})
	if err != nil {
		t.Fatal(err)
	}
	if len(searched) != 1 || searched[0].ID != "c" {
		t.Errorf("search filter: %+v", searched)
	}
}

func TestBudgetUpsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	period := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)

	if err := repo.UpsertBudget(ctx, core.MonthlyBudget{CategoryID: 1, Period: period, LimitAmount: 50000}); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpsertBudget(ctx, core.MonthlyBudget{CategoryID: 1, Period: period, LimitAmount: 60000}); err != nil {
		t.Fatal(err)
	}

	budgets, err := repo.ListBudgets(ctx, period)
	if err != nil {
		t.Fatal(err)
	}
	if len(budgets) != 1 {
		t.Fatalf("expected one budget row, got %d", len(budgets))
	}
	if budgets[0].Budget.LimitAmount != 60000 {
		t.Errorf("limit = %d, want 60000 (upsert replaces)", budgets[0].Budget.LimitAmount)
	}
	if budgets[0].Category.Name == "" {
		t.Error("category join missing")
	}
}

func TestSettings(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.GetSetting(ctx, "salary_day"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := repo.SetSetting(ctx, "salary_day", "10"); err != nil {
		t.Fatal(err)
	}
	if err := repo.SetSetting(ctx, "salary_day", "15"); err != nil {
		t.Fatal(err)
	}
	v, err := repo.GetSetting(ctx, "salary_day")
	if err != nil {
		t.Fatal(err)
	}
	if v != "15" {
		t.Errorf("value = %q, want 15", v)
	}
}
