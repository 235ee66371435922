package reports

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/fundflow/fundflow/internal/entries"
)

var csvHeader = []string{"id", "team_id", "type", "status", "amount_minor", "currency", "description", "submitted_by", "reviewed_by", "created_at"}

// WriteEntriesCSV serialises entries to CSV, one row per entry.
func WriteEntriesCSV(w io.Writer, items []entries.Entry) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, entry := range items {
		reviewedBy := ""
		if entry.ReviewedBy != nil {
			reviewedBy = entry.ReviewedBy.String()
		}
		if err := writer.Write([]string{
			entry.ID.String(),
			entry.TeamID.String(),
			string(entry.Type),
			string(entry.Status),
			strconv.FormatInt(entry.Amount, 10),
			entry.Currency,
			entry.Description,
			entry.SubmittedBy.String(),
			reviewedBy,
			entry.CreatedAt.UTC().Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
