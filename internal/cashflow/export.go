package cashflow

import (
	"context"
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"time"
)

var csvHeader = []string{"id", "date", "type", "category", "amount", "description", "order_id", "automated"}

// WriteCSV serialises every transaction in the window as CSV.
func (s *Service) WriteCSV(ctx context.Context, w io.Writer, win Window) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	err := s.EachTransaction(ctx, win, func(t Transaction) error {
		orderID := ""
		if t.OrderID != nil {
			orderID = *t.OrderID
		}
		return writer.Write([]string{
			t.ID,
			t.Date.UTC().Format(time.RFC3339),
			string(t.Type),
			t.Category,
			formatAmount(t.Amount),
			t.Description,
			orderID,
			strconv.FormatBool(t.Automated),
		})
	})
	if err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

// formatAmount prints at least cents and keeps any finer digits.
func formatAmount(v float64) string {
	if cents := v * 100; cents == math.Trunc(cents) {
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
