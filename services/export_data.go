package services

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// QuotationTitle heads every exported quotation.
const QuotationTitle = "Construction Quotation"

// ExportRow is one line item as it appears in an export.
type ExportRow struct {
	Index       string
	ItemCode    string
	Description string
	Unit        string
	Quantity    decimal.Decimal
	UnitRate    decimal.Decimal
	Amount      decimal.Decimal
	Category    string
	Source      string
}

// ExportMilestone is one payment milestone as it appears in an export.
type ExportMilestone struct {
	Phase      string
	Percentage decimal.Decimal
	Amount     decimal.Decimal
	DueDate    string
}

// ExportData holds everything the Excel and PDF builders render.
type ExportData struct {
	Title           string
	QuotationNumber string
	ProjectName     string
	Location        string
	CreatedDate     string
	ValidityDays    int
	Currency        string
	Rows            []ExportRow
	Totals          Totals
	AmountInWords   string
	Milestones      []ExportMilestone
	Notes           []string
}

// NewExportData builds export data from line items and totals. Line totals
// and totals are recomputed so an export never shows a stale figure.
func NewExportData(title, number, project, location string, created time.Time, currency string, items []LineItem, taxPercent decimal.Decimal, calc Calculator) (ExportData, error) {
	items, totals, err := calc.Recompute(items, taxPercent)
	if err != nil {
		return ExportData{}, err
	}

	rows := make([]ExportRow, len(items))
	for i, it := range items {
		rows[i] = ExportRow{
			Index:       strconv.Itoa(i + 1),
			ItemCode:    it.ItemCode,
			Description: it.Description,
			Unit:        it.Unit,
			Quantity:    it.Quantity,
			UnitRate:    it.UnitRate,
			Amount:      it.LineTotal,
			Category:    it.Category,
			Source:      it.Source,
		}
	}

	if currency == "" {
		currency = DefaultCurrency
	}
	return ExportData{
		Title:           title,
		QuotationNumber: number,
		ProjectName:     project,
		Location:        TitleLocation(location),
		CreatedDate:     created.Format("02 Jan 2006"),
		ValidityDays:    DefaultValidityDays,
		Currency:        currency,
		Rows:            rows,
		Totals:          totals,
		AmountInWords:   AmountToWords(totals.GrandTotal),
	}, nil
}

// WithMilestones attaches the payment schedule.
func (d ExportData) WithMilestones(ms []PaymentMilestone) ExportData {
	out := make([]ExportMilestone, len(ms))
	for i, m := range ms {
		out[i] = ExportMilestone{
			Phase:      m.Phase,
			Percentage: m.Percentage,
			Amount:     m.Amount,
			DueDate:    m.DueDate.Format("02 Jan 2006"),
		}
	}
	d.Milestones = out
	return d
}

