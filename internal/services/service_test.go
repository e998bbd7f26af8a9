package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"monty/internal/amqp"
	"monty/internal/core"
	"monty/internal/storage"
)

// Seeded category ids from the initial migration.
const (
	catGroceries = 1
	catSavings   = 8
	catSalary    = 9
)

func newRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "monty.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newUser(t *testing.T, repo *storage.SQLiteRepository, telegramID int64, name string) core.User {
	t.Helper()
	u, err := repo.UpsertUserByTelegramID(context.Background(), telegramID, name)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func seedTransaction(t *testing.T, repo *storage.SQLiteRepository, id string, userID, categoryID, amount int64, date time.Time) {
	t.Helper()
	err := repo.CreateTransaction(context.Background(), core.Transaction{
		ID:         id,
		UserID:     userID,
		CategoryID: categoryID,
		Amount:     amount,
		Date:       date,
	})
	if err != nil {
		t.Fatalf("seed transaction %s: %v", id, err)
	}
}

type fakePublisher struct {
	messages []*amqp.TransactionCreatedMessage
	err      error
}

func (f *fakePublisher) PublishTransactionCreated(_ context.Context, msg *amqp.TransactionCreatedMessage) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msg)
	return nil
}

type fakeCompleter struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeCompleter) Complete(_ context.Context, _, userPrompt string) (string, error) {
	f.prompts = append(f.prompts, userPrompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type fakeBroadcaster struct {
	sent []string
	err  error
}

func (f *fakeBroadcaster) Broadcast(text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, text)
	return nil
}
