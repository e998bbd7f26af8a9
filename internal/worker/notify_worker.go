package worker

import (
	"context"
	"fmt"
	"log/slog"

	"monty/internal/amqp"
	"monty/internal/services"
	"monty/internal/sheets"
)

// NotifyWorker reacts to transaction-created events: it tells the
// configured chats and mirrors the row into the spreadsheet backup.
type NotifyWorker struct {
	sender services.Broadcaster
	sheets sheets.TransactionWriter
}

func NewNotifyWorker(sender services.Broadcaster, sheets sheets.TransactionWriter) *NotifyWorker {
	return &NotifyWorker{
		sender: sender,
		sheets: sheets,
	}
}

// HandleTransactionCreated processes a single event. A notification
// failure is returned so the delivery is retried; a missing sheets
// client only skips the backup.
func (w *NotifyWorker) HandleTransactionCreated(ctx context.Context, msg *amqp.TransactionCreatedMessage) error {
	slog.InfoContext(ctx, "Processing transaction created event",
		"id", msg.ID,
		"category", msg.CategoryName)

	if w.sender != nil {
		if err := w.sender.Broadcast(FormatNotification(msg)); err != nil {
			return fmt.Errorf("send notification: %w", err)
		}
	}

	if w.sheets == nil {
		slog.WarnContext(ctx, "No sheets writer configured, skipping backup", "id", msg.ID)
		return nil
	}
	ref, err := w.sheets.Append(ctx, msg)
	if err != nil {
		return fmt.Errorf("append to sheet: %w", err)
	}
	slog.InfoContext(ctx, "Backed up transaction to sheet", "id", msg.ID, "row", ref)
	return nil
}

// FormatNotification renders the chat message for a new transaction.
func FormatNotification(msg *amqp.TransactionCreatedMessage) string {
	text := fmt.Sprintf("%s *%s*: %d", msg.CategoryIcon, msg.CategoryName, msg.Amount)
	if msg.UserName != "" {
		text += fmt.Sprintf(" (%s)", msg.UserName)
	}
	if msg.Comment != "" {
		text += fmt.Sprintf("\n_%s_", msg.Comment)
	}
	return text
}
