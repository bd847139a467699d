package services

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var (
	mutedGray  = &props.Color{Red: 80, Green: 80, Blue: 80}
	lightGray  = &props.Color{Red: 140, Green: 140, Blue: 140}
	headerFill = &props.Color{Red: 33, Green: 37, Blue: 41}
	stripeFill = &props.Color{Red: 245, Green: 245, Blue: 245}
	totalsFill = &props.Color{Red: 240, Green: 240, Blue: 240}
	white      = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// GeneratePDF renders a quotation to PDF with maroto/v2 and returns the
// raw bytes.
func GeneratePDF(data ExportData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Horizontal).
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).
		WithTopMargin(10).
		WithRightMargin(10).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	addHeader(m, data)
	addTableHeader(m)
	for i, r := range data.Rows {
		addTableRow(m, data.Currency, r, i%2 == 1)
	}
	addSummary(m, data)
	if len(data.Milestones) > 0 {
		addMilestones(m, data)
	}
	addNotes(m, data)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

func addHeader(m core.Maroto, data ExportData) {
	title := data.Title
	if title == "" {
		title = "Quotation"
	}
	m.AddRows(
		row.New(12).Add(
			col.New(12).Add(
				text.New(title, props.Text{
					Size:  16,
					Style: fontstyle.Bold,
					Align: align.Center,
				}),
			),
		),
	)

	m.AddRows(
		row.New(6).Add(
			col.New(6).Add(
				text.New(fmt.Sprintf("Quotation No: %s", data.QuotationNumber), props.Text{Size: 9, Color: mutedGray}),
			),
			col.New(6).Add(
				text.New(fmt.Sprintf("Date: %s", data.CreatedDate), props.Text{Size: 9, Align: align.Right, Color: mutedGray}),
			),
		),
		row.New(6).Add(
			col.New(6).Add(
				text.New(fmt.Sprintf("Project: %s", data.ProjectName), props.Text{Size: 9, Color: mutedGray}),
			),
			col.New(6).Add(
				text.New(fmt.Sprintf("Location: %s", data.Location), props.Text{Size: 9, Align: align.Right, Color: mutedGray}),
			),
		),
	)

	m.AddRows(row.New(4))
}

func addTableHeader(m core.Maroto) {
	headerText := props.Text{
		Size:  8,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: white,
	}
	headerTextLeft := headerText
	headerTextLeft.Align = align.Left

	cell := &props.Cell{BackgroundColor: headerFill}

	m.AddRows(
		row.New(8).Add(
			col.New(1).Add(text.New("Code", headerText)).WithStyle(cell),
			col.New(4).Add(text.New("Description", headerTextLeft)).WithStyle(cell),
			col.New(1).Add(text.New("Unit", headerText)).WithStyle(cell),
			col.New(1).Add(text.New("Qty", headerText)).WithStyle(cell),
			col.New(2).Add(text.New("Unit Rate", headerText)).WithStyle(cell),
			col.New(2).Add(text.New("Amount", headerText)).WithStyle(cell),
			col.New(1).Add(text.New("Source", headerText)).WithStyle(cell),
		),
	)
}

func addTableRow(m core.Maroto, currency string, r ExportRow, striped bool) {
	base := props.Text{Size: 7, Align: align.Center}
	left := base
	left.Align = align.Left
	right := base
	right.Align = align.Right

	desc := r.Description
	if r.Category != "" {
		desc = fmt.Sprintf("%s [%s]", r.Description, r.Category)
	}

	cols := []core.Col{
		col.New(1).Add(text.New(r.ItemCode, base)),
		col.New(4).Add(text.New(desc, left)),
		col.New(1).Add(text.New(r.Unit, base)),
		col.New(1).Add(text.New(FormatQty(r.Quantity), right)),
		col.New(2).Add(text.New(FormatMoney(currency, r.UnitRate), right)),
		col.New(2).Add(text.New(FormatMoney(currency, r.Amount), right)),
		col.New(1).Add(text.New(r.Source, base)),
	}
	if striped {
		cell := &props.Cell{BackgroundColor: stripeFill}
		for i, c := range cols {
			cols[i] = c.WithStyle(cell)
		}
	}

	m.AddRows(row.New(7).Add(cols...))
}

func addSummary(m core.Maroto, data ExportData) {
	m.AddRows(row.New(6))

	cell := &props.Cell{BackgroundColor: totalsFill}
	label := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}
	value := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}

	lines := []struct {
		label string
		value string
	}{
		{"Subtotal", FormatMoney(data.Currency, data.Totals.Subtotal)},
		{fmt.Sprintf("VAT (%s)", FormatPercent(data.Totals.TaxPercent)), FormatMoney(data.Currency, data.Totals.TaxAmount)},
		{"Grand Total", FormatMoney(data.Currency, data.Totals.GrandTotal)},
	}
	for _, l := range lines {
		m.AddRows(
			row.New(8).Add(
				col.New(8).Add(text.New(l.label, label)).WithStyle(cell),
				col.New(4).Add(text.New(l.value, value)).WithStyle(cell),
			),
		)
	}

	if data.AmountInWords != "" {
		m.AddRows(
			row.New(7).Add(
				col.New(12).Add(
					text.New("Amount in words: "+data.AmountInWords, props.Text{Size: 8, Style: fontstyle.Italic, Top: 1}),
				),
			),
		)
	}
}

func addMilestones(m core.Maroto, data ExportData) {
	m.AddRows(row.New(6))
	m.AddRows(
		row.New(7).Add(
			col.New(12).Add(text.New("Payment Schedule", props.Text{Size: 10, Style: fontstyle.Bold})),
		),
	)

	cell := &props.Cell{BackgroundColor: headerFill}
	head := props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Center, Color: white}
	m.AddRows(
		row.New(7).Add(
			col.New(4).Add(text.New("Phase", head)).WithStyle(cell),
			col.New(2).Add(text.New("%", head)).WithStyle(cell),
			col.New(3).Add(text.New("Amount", head)).WithStyle(cell),
			col.New(3).Add(text.New("Due Date", head)).WithStyle(cell),
		),
	)

	body := props.Text{Size: 7, Align: align.Center}
	for _, ms := range data.Milestones {
		m.AddRows(
			row.New(6).Add(
				col.New(4).Add(text.New(ms.Phase, body)),
				col.New(2).Add(text.New(FormatPercent(ms.Percentage), body)),
				col.New(3).Add(text.New(FormatMoney(data.Currency, ms.Amount), body)),
				col.New(3).Add(text.New(ms.DueDate, body)),
			),
		)
	}
}

func addNotes(m core.Maroto, data ExportData) {
	m.AddRows(row.New(6))
	for _, n := range data.Notes {
		m.AddRows(
			row.New(5).Add(
				col.New(12).Add(text.New("• "+n, props.Text{Size: 7, Color: mutedGray})),
			),
		)
	}
	m.AddRows(
		row.New(6).Add(
			col.New(12).Add(
				text.New(
					fmt.Sprintf("Generated on %s. Valid for %d days.", data.CreatedDate, data.ValidityDays),
					props.Text{Size: 7, Color: lightGray},
				),
			),
		),
	)
}
