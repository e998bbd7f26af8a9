package worker

import (
	"context"
	"errors"
	"strings"
	"testing"

	"monty/internal/amqp"
)

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

type fakeSheetWriter struct {
	appended []*amqp.TransactionCreatedMessage
	err      error
}

func (f *fakeSheetWriter) Append(_ context.Context, msg *amqp.TransactionCreatedMessage) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.appended = append(f.appended, msg)
	return "Transactions!A2:E2", nil
}

func event() *amqp.TransactionCreatedMessage {
	return &amqp.TransactionCreatedMessage{
		ID:           "tx-1",
		Amount:       2500,
		CategoryName: "Groceries",
		CategoryIcon: "🛒",
		UserName:     "Ann",
		Comment:      "market",
	}
}

func TestHandleTransactionCreated(t *testing.T) {
	sender := &fakeBroadcaster{}
	sheet := &fakeSheetWriter{}
	w := NewNotifyWorker(sender, sheet)

	if err := w.HandleTransactionCreated(context.Background(), event()); err != nil {
		t.Fatalf("HandleTransactionCreated() error = %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(sender.sent))
	}
	if len(sheet.appended) != 1 || sheet.appended[0].ID != "tx-1" {
		t.Errorf("appended = %+v", sheet.appended)
	}
}

func TestHandleTransactionCreatedNotifyFailureRetries(t *testing.T) {
	sender := &fakeBroadcaster{err: errors.New("telegram down")}
	sheet := &fakeSheetWriter{}
	w := NewNotifyWorker(sender, sheet)

	if err := w.HandleTransactionCreated(context.Background(), event()); err == nil {
		t.Error("expected error so the delivery is requeued")
	}
	if len(sheet.appended) != 0 {
		t.Error("sheet should not be written when notification fails")
	}
}

func TestHandleTransactionCreatedWithoutSheets(t *testing.T) {
	sender := &fakeBroadcaster{}
	w := NewNotifyWorker(sender, nil)

	if err := w.HandleTransactionCreated(context.Background(), event()); err != nil {
		t.Fatalf("missing sheets writer should not fail: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Errorf("sent = %v", sender.sent)
	}
}

func TestFormatNotification(t *testing.T) {
	text := FormatNotification(event())
	for _, want := range []string{"🛒", "*Groceries*", "2500", "(Ann)", "_market_"} {
		if !strings.Contains(text, want) {
			t.Errorf("notification %q missing %q", text, want)
		}
	}

	bare := FormatNotification(&amqp.TransactionCreatedMessage{CategoryName: "Transport", CategoryIcon: "🚌", Amount: 300})
	if strings.Contains(bare, "(") || strings.Contains(bare, "_") {
		t.Errorf("bare notification should omit empty fields: %q", bare)
	}
}
