package sheets

import (
	"context"

	"monty/internal/amqp"
)

// Ports for outbound adapters.
type (
	// TransactionWriter appends a recorded transaction as a spreadsheet row.
	TransactionWriter interface {
		Append(ctx context.Context, msg *amqp.TransactionCreatedMessage) (rowRef string, err error)
	}
)
