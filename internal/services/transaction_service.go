package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"monty/internal/amqp"
	"monty/internal/cache"
	"monty/internal/core"
	"monty/internal/storage"
)

// EventPublisher publishes transaction events for the workers.
type EventPublisher interface {
	PublishTransactionCreated(ctx context.Context, msg *amqp.TransactionCreatedMessage) error
}

// TransactionService orchestrates transaction writes across SQLite,
// AMQP and the analytics cache.
type TransactionService struct {
	storage   *storage.SQLiteRepository
	publisher EventPublisher
	reports   *cache.LRUCache[core.Report]
}

func NewTransactionService(storage *storage.SQLiteRepository, publisher EventPublisher, reports *cache.LRUCache[core.Report]) *TransactionService {
	return &TransactionService{
		storage:   storage,
		publisher: publisher,
		reports:   reports,
	}
}

type CreateTransactionInput struct {
	UserID     int64
	CategoryID int64
	Amount     int64
	Date       time.Time
	Comment    string
}

// Create validates the input against the category catalog, persists the
// transaction and publishes a created event. Publish failures are logged
// by the caller but never fail the request.
func (s *TransactionService) Create(ctx context.Context, input CreateTransactionInput) (core.Transaction, error) {
	category, err := s.storage.GetCategory(ctx, input.CategoryID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("lookup category: %w", err)
	}

	t := core.Transaction{
		ID:         uuid.NewString(),
		UserID:     input.UserID,
		CategoryID: input.CategoryID,
		Amount:     input.Amount,
		Date:       input.Date,
		Comment:    input.Comment,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if err := s.storage.CreateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.invalidateReports()

	s.publish(ctx, t, category)
	return t, nil
}

func (s *TransactionService) publish(ctx context.Context, t core.Transaction, category core.Category) {
	if s.publisher == nil {
		return
	}
	userName := ""
	if user, err := s.storage.GetUser(ctx, t.UserID); err == nil {
		userName = user.FirstName
	}
	msg := &amqp.TransactionCreatedMessage{
		ID:           t.ID,
		Amount:       t.Amount,
		CategoryName: category.Name,
		CategoryIcon: category.Icon,
		UserName:     userName,
		Comment:      t.Comment,
		Date:         t.Date,
	}
	if err := s.publisher.PublishTransactionCreated(ctx, msg); err != nil {
		// transaction is saved locally, delivery is best effort
		slog.ErrorContext(ctx, "Failed to publish transaction created event",
			"transaction_id", t.ID, "error", err)
	}
}

// Update applies a partial update and returns the new state.
func (s *TransactionService) Update(ctx context.Context, id string, upd storage.TransactionUpdate) (core.Transaction, error) {
	if upd.CategoryID != nil {
		if _, err := s.storage.GetCategory(ctx, *upd.CategoryID); err != nil {
			return core.Transaction{}, fmt.Errorf("lookup category: %w", err)
		}
	}
	if err := s.storage.UpdateTransaction(ctx, id, upd); err != nil {
		return core.Transaction{}, err
	}
	s.invalidateReports()
	return s.storage.GetTransaction(ctx, id)
}

func (s *TransactionService) Delete(ctx context.Context, id string) error {
	if err := s.storage.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	s.invalidateReports()
	return nil
}

// List returns joined transaction views, newest first.
func (s *TransactionService) List(ctx context.Context, filter storage.TransactionFilter) ([]core.TransactionView, error) {
	return s.storage.ListTransactionViews(ctx, filter)
}

func (s *TransactionService) invalidateReports() {
	if s.reports != nil {
		s.reports.InvalidatePrefix("analytics:")
	}
}
