package services

import (
	"fmt"
	"time"

	"github.com/pocketbase/pocketbase/core"
)

// formatQuotationNumber constructs the quotation number string from components.
func formatQuotationNumber(day time.Time, sequence int) string {
	return fmt.Sprintf("QUO-%s-%03d", day.Format("20060102"), sequence)
}

// GenerateQuotationNumber creates the next quotation number for the given day.
// Format: QUO-{YYYYMMDD}-{sequence}
// - sequence: 3-digit zero-padded, counted across all quotations issued that day
func GenerateQuotationNumber(app core.App, now time.Time) (string, error) {
	prefix := fmt.Sprintf("QUO-%s-", now.Format("20060102"))

	existing, err := app.FindRecordsByFilter(
		"quotations",
		"quotation_number ~ {:prefix}",
		"",
		0,
		0,
		map[string]any{"prefix": prefix + "%"},
	)
	if err != nil {
		// If the collection is empty or missing, start at 1
		existing = nil
	}

	return formatQuotationNumber(now, len(existing)+1), nil
}
