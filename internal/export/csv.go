// Package export renders the record collection in the two user-facing
// formats: a fixed-column CSV and a plain JSON dump.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/jobtrack/jobtrack-be/internal/domain"
)

// csvHeader fixes the column order of the CSV export.
var csvHeader = []string{
	"Title", "Company", "Location", "Role Type", "Duration", "Work Auth",
	"Salary", "Date Posted", "Logged", "Status", "Active", "Last Checked",
	"URL", "Note",
}

// WriteCSV streams the collection as CSV in store order.
func WriteCSV(w io.Writer, records []domain.JobRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			orNA(rec.Title),
			orNA(rec.Company),
			orNA(rec.Location),
			orNA(rec.RoleType),
			orNA(rec.Duration),
			orNA(rec.WorkAuthorization),
			orNA(rec.Salary),
			orNA(rec.DatePosted),
			rec.DateLogged.Format(time.RFC3339),
			appliedStatus(rec.Applied),
			activeStatus(rec.Active),
			formatOptionalTime(rec.LastChecked),
			rec.URL,
			rec.Note,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// orNA renders the internal empty encoding as the display sentinel.
func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func appliedStatus(applied bool) string {
	if applied {
		return "Completed"
	}
	return "Not Completed"
}

func activeStatus(active bool) string {
	if active {
		return "Yes"
	}
	return "No"
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
