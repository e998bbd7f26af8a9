// Package export renders transaction lists as downloadable files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"monty/internal/core"
)

// WriteTransactionsCSV writes one row per transaction: date, category,
// amount, type, user, comment. Oldest data comes in the order given.
func WriteTransactionsCSV(w io.Writer, txns []core.TransactionView) error {
	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	if err := csvWriter.Write([]string{"Date", "Category", "Amount", "Type", "User", "Comment"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, t := range txns {
		row := []string{
			t.Date.Format("2006-01-02"),
			t.CategoryName,
			strconv.FormatInt(t.Amount, 10),
			string(t.CategoryType),
			t.UserName,
			t.Comment,
		}
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}
