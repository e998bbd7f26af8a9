package amqp

import (
	"testing"
	"time"
)

func TestTransactionCreatedMessage_JSON(t *testing.T) {
	msg := &TransactionCreatedMessage{
		ID:           "4f2c1b9a",
		Amount:       2500,
		CategoryName: "Groceries",
		CategoryIcon: "🛒",
		UserName:     "Ann",
		Comment:      "market",
		Date:         time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Timestamp:    time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC),
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := TransactionCreatedMessageFromJSON(data)
	if err != nil {
		t.Fatalf("TransactionCreatedMessageFromJSON() error = %v", err)
	}

	if parsed.ID != msg.ID || parsed.Amount != msg.Amount {
		t.Errorf("parsed = %+v, want %+v", parsed, msg)
	}
	if parsed.CategoryName != msg.CategoryName || parsed.UserName != msg.UserName {
		t.Errorf("parsed = %+v, want %+v", parsed, msg)
	}
	if !parsed.Date.Equal(msg.Date) || !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("parsed times = %v/%v, want %v/%v", parsed.Date, parsed.Timestamp, msg.Date, msg.Timestamp)
	}
}

func TestTransactionCreatedMessage_InvalidJSON(t *testing.T) {
	if _, err := TransactionCreatedMessageFromJSON([]byte(`{"amount": "x"}`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
