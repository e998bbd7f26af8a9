package amqp

import (
	"encoding/json"
	"time"
)

// TransactionCreatedMessage notifies workers that a transaction was
// recorded. It carries enough denormalized data for a chat notification
// and a spreadsheet row without another database round trip.
type TransactionCreatedMessage struct {
	ID           string    `json:"id"`
	Amount       int64     `json:"amount"`
	CategoryName string    `json:"category_name"`
	CategoryIcon string    `json:"category_icon"`
	UserName     string    `json:"user_name"`
	Comment      string    `json:"comment"`
	Date         time.Time `json:"date"`
	Timestamp    time.Time `json:"timestamp"`
}

func (m *TransactionCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionCreatedMessageFromJSON(data []byte) (*TransactionCreatedMessage, error) {
	var msg TransactionCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
