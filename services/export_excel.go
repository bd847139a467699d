package services

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// GenerateExcel creates an Excel workbook for a quotation and returns the
// file contents. The first sheet holds the line items and totals; a
// "Payment Schedule" sheet is added when milestones are present.
func GenerateExcel(data ExportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// Sheet names are limited to 31 characters.
	sheetName := data.QuotationNumber
	if sheetName == "" {
		sheetName = "Quotation"
	}
	if len(sheetName) > 31 {
		sheetName = sheetName[:31]
	}

	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	columns := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I"}
	lastCol := columns[len(columns)-1]

	widths := []float64{5, 10, 42, 8, 10, 18, 20, 20, 12}
	for i, col := range columns {
		if err := f.SetColWidth(sheetName, col, col, widths[i]); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	styles, err := newExcelStyles(f)
	if err != nil {
		return nil, err
	}

	// ── Header Rows (1-4) ───────────────────────────────────────────────

	title := data.Title
	if title == "" {
		title = "Quotation"
	}
	headerLines := []struct {
		value string
		style int
	}{
		{title, styles.title},
		{"Quotation No: " + data.QuotationNumber, styles.subtitle},
		{fmt.Sprintf("Project: %s (%s)", data.ProjectName, data.Location), styles.subtitle},
		{fmt.Sprintf("Date: %s | Valid for %d days", data.CreatedDate, data.ValidityDays), styles.subtitle},
	}
	for i, line := range headerLines {
		r := fmt.Sprintf("%d", i+1)
		if err := f.MergeCell(sheetName, "A"+r, lastCol+r); err != nil {
			return nil, fmt.Errorf("merge header row %s: %w", r, err)
		}
		f.SetCellValue(sheetName, "A"+r, sanitizeExcelCell(line.value))
		f.SetCellStyle(sheetName, "A"+r, lastCol+r, line.style)
	}

	// ── Row 6: Column Headers ───────────────────────────────────────────

	headers := []string{"#", "Item Code", "Description", "Unit", "Qty", "Unit Rate", "Amount", "Category", "Source"}
	for i, h := range headers {
		f.SetCellValue(sheetName, columns[i]+"6", h)
	}
	f.SetCellStyle(sheetName, "A6", lastCol+"6", styles.header)

	// ── Data Rows (starting row 7) ──────────────────────────────────────

	row := 7
	for _, r := range data.Rows {
		rowStr := fmt.Sprintf("%d", row)

		f.SetCellValue(sheetName, "A"+rowStr, r.Index)
		f.SetCellValue(sheetName, "B"+rowStr, sanitizeExcelCell(r.ItemCode))
		f.SetCellValue(sheetName, "C"+rowStr, sanitizeExcelCell(r.Description))
		f.SetCellValue(sheetName, "D"+rowStr, sanitizeExcelCell(r.Unit))
		f.SetCellValue(sheetName, "E"+rowStr, r.Quantity.InexactFloat64())
		f.SetCellValue(sheetName, "F"+rowStr, FormatMoney(data.Currency, r.UnitRate))
		f.SetCellValue(sheetName, "G"+rowStr, FormatMoney(data.Currency, r.Amount))
		f.SetCellValue(sheetName, "H"+rowStr, sanitizeExcelCell(r.Category))
		f.SetCellValue(sheetName, "I"+rowStr, sanitizeExcelCell(r.Source))
		f.SetCellStyle(sheetName, "A"+rowStr, lastCol+rowStr, styles.item)

		row++
	}

	// ── Summary Rows ────────────────────────────────────────────────────

	row++
	summary := []struct {
		label string
		value string
	}{
		{"Subtotal:", FormatMoney(data.Currency, data.Totals.Subtotal)},
		{fmt.Sprintf("VAT (%s):", FormatPercent(data.Totals.TaxPercent)), FormatMoney(data.Currency, data.Totals.TaxAmount)},
		{"Grand Total:", FormatMoney(data.Currency, data.Totals.GrandTotal)},
	}
	for _, s := range summary {
		r := fmt.Sprintf("%d", row)
		f.SetCellValue(sheetName, "F"+r, s.label)
		f.SetCellStyle(sheetName, "F"+r, "F"+r, styles.summaryLabel)
		f.SetCellValue(sheetName, "G"+r, s.value)
		f.SetCellStyle(sheetName, "G"+r, "G"+r, styles.summaryValue)
		row++
	}

	if data.AmountInWords != "" {
		r := fmt.Sprintf("%d", row)
		if err := f.MergeCell(sheetName, "A"+r, lastCol+r); err != nil {
			return nil, fmt.Errorf("merge amount in words: %w", err)
		}
		f.SetCellValue(sheetName, "A"+r, "Amount in words: "+data.AmountInWords)
		f.SetCellStyle(sheetName, "A"+r, lastCol+r, styles.subtitle)
		row++
	}

	// ── Notes ───────────────────────────────────────────────────────────

	if len(data.Notes) > 0 {
		row++
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Notes")
		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), styles.summaryValue)
		row++
		for _, n := range data.Notes {
			r := fmt.Sprintf("%d", row)
			if err := f.MergeCell(sheetName, "A"+r, lastCol+r); err != nil {
				return nil, fmt.Errorf("merge note: %w", err)
			}
			f.SetCellValue(sheetName, "A"+r, sanitizeExcelCell("• "+n))
			row++
		}
	}

	if len(data.Milestones) > 0 {
		if err := addMilestoneSheet(f, data, styles); err != nil {
			return nil, err
		}
	}

	// ── Write to buffer ─────────────────────────────────────────────────

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}

	return buf.Bytes(), nil
}

// MilestoneSheetName is the name of the payment schedule sheet.
const MilestoneSheetName = "Payment Schedule"

func addMilestoneSheet(f *excelize.File, data ExportData, styles excelStyles) error {
	if _, err := f.NewSheet(MilestoneSheetName); err != nil {
		return fmt.Errorf("create payment schedule sheet: %w", err)
	}

	columns := []string{"A", "B", "C", "D"}
	widths := []float64{22, 10, 20, 16}
	for i, col := range columns {
		if err := f.SetColWidth(MilestoneSheetName, col, col, widths[i]); err != nil {
			return fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	headers := []string{"Phase", "%", "Amount", "Due Date"}
	for i, h := range headers {
		f.SetCellValue(MilestoneSheetName, columns[i]+"1", h)
	}
	f.SetCellStyle(MilestoneSheetName, "A1", "D1", styles.header)

	for i, m := range data.Milestones {
		r := fmt.Sprintf("%d", i+2)
		f.SetCellValue(MilestoneSheetName, "A"+r, sanitizeExcelCell(m.Phase))
		f.SetCellValue(MilestoneSheetName, "B"+r, FormatPercent(m.Percentage))
		f.SetCellValue(MilestoneSheetName, "C"+r, FormatMoney(data.Currency, m.Amount))
		f.SetCellValue(MilestoneSheetName, "D"+r, m.DueDate)
		f.SetCellStyle(MilestoneSheetName, "A"+r, "D"+r, styles.item)
	}
	return nil
}

type excelStyles struct {
	title, subtitle, header, item, summaryLabel, summaryValue int
}

func newExcelStyles(f *excelize.File) (excelStyles, error) {
	var s excelStyles
	var err error

	// Title style: bold, 16pt.
	if s.title, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 16},
	}); err != nil {
		return s, fmt.Errorf("create title style: %w", err)
	}

	if s.subtitle, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 11},
	}); err != nil {
		return s, fmt.Errorf("create subtitle style: %w", err)
	}

	// Column header style: bold, white text, charcoal background, centered.
	if s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: thinBorders(),
	}); err != nil {
		return s, fmt.Errorf("create header style: %w", err)
	}

	if s.item, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Size: 10},
		Border: thinBorders(),
	}); err != nil {
		return s, fmt.Errorf("create item style: %w", err)
	}

	if s.summaryLabel, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "right"},
	}); err != nil {
		return s, fmt.Errorf("create summary label style: %w", err)
	}

	if s.summaryValue, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
	}); err != nil {
		return s, fmt.Errorf("create summary value style: %w", err)
	}

	return s, nil
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading
// characters with a single quote.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

// thinBorders returns thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{
			Type:  side,
			Color: "#000000",
			Style: 1, // thin
		}
	}
	return borders
}
