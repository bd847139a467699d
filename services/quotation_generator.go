package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultValidityDays is how long a generated quotation stays valid.
const DefaultValidityDays = 30

// PaymentMilestone is one stage payment of a quotation.
type PaymentMilestone struct {
	Phase       string          `json:"phase"`
	Percentage  decimal.Decimal `json:"percentage"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     time.Time       `json:"dueDate"`
	Description string          `json:"description"`
}

type milestoneRule struct {
	phase       string
	percent     int64
	days        int
	description string
}

var paymentRules = []milestoneRule{
	{"Mobilization", 10, 7, "Initial mobilization payment"},
	{"Foundation", 25, 30, "Foundation completion"},
	{"Structural Work", 35, 60, "Structural work completion"},
	{"Finishing", 25, 90, "Finishing work completion"},
	{"Final Payment", 5, 100, "Final payment upon handover"},
}

// PaymentSchedule splits total across the standard milestones dated from
// start. Each amount is rounded to cents and the final milestone absorbs the
// rounding remainder so the amounts sum to total exactly.
func PaymentSchedule(total decimal.Decimal, start time.Time, calc Calculator) []PaymentMilestone {
	out := make([]PaymentMilestone, 0, len(paymentRules))
	for _, r := range paymentRules {
		out = append(out, PaymentMilestone{
			Phase:       r.phase,
			Percentage:  decimal.NewFromInt(r.percent),
			DueDate:     start.AddDate(0, 0, r.days),
			Description: r.description,
		})
	}
	return RescaleMilestones(out, total, calc)
}

// RescaleMilestones recomputes milestone amounts for a new total, keeping
// each milestone's percentage and due date.
func RescaleMilestones(ms []PaymentMilestone, total decimal.Decimal, calc Calculator) []PaymentMilestone {
	out := make([]PaymentMilestone, len(ms))
	allocated := decimal.Zero
	for i, m := range ms {
		amount := calc.round(total.Mul(m.Percentage).Div(hundred))
		if i == len(ms)-1 {
			amount = total.Sub(allocated)
		}
		allocated = allocated.Add(amount)
		m.Amount = amount
		out[i] = m
	}
	return out
}

// QuotationInput is what the generator needs from a project and its
// selected design.
type QuotationInput struct {
	ProjectName string
	Location    string
	PlotSize    float64
	Design      Design
}

// GeneratedQuotation is a priced quotation ready to be persisted.
type GeneratedQuotation struct {
	ProjectName     string
	Location        string
	Currency        string
	Items           []LineItem
	Totals          Totals
	PaymentSchedule []PaymentMilestone
	ValidityDays    int
	Notes           []string
	GeneratedAt     time.Time
	Analysis        *DesignAnalysis
}

// QuotationGenerator prices a design into a quotation.
type QuotationGenerator struct {
	Calc       Calculator
	TaxPercent decimal.Decimal
	Currency   string
	Now        func() time.Time
}

// NewQuotationGenerator returns a generator using the wall clock.
func NewQuotationGenerator(calc Calculator, taxPercent decimal.Decimal, currency string) *QuotationGenerator {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &QuotationGenerator{Calc: calc, TaxPercent: taxPercent, Currency: currency, Now: time.Now}
}

// Generate derives line items from the design's material estimate, prices
// them for the project location and computes totals and payment schedule.
func (g *QuotationGenerator) Generate(ctx context.Context, in QuotationInput) (*GeneratedQuotation, error) {
	analysis, err := AnalyzeDesign(ctx, in.Design, in.PlotSize, in.Location)
	if err != nil {
		return nil, err
	}

	items := make([]LineItem, 0, len(analysis.Estimate))
	for _, line := range analysis.Estimate {
		items = append(items, LineItem{
			ItemCode:    line.ItemCode,
			Description: fmt.Sprintf("%s (%s)", line.Material, line.Supplier),
			Unit:        line.Unit,
			Quantity:    line.Quantity,
			UnitRate:    line.UnitPrice,
			Category:    line.Category,
			Source:      "Estimator",
		})
	}

	items, totals, err := g.Calc.Recompute(items, g.TaxPercent)
	if err != nil {
		return nil, err
	}

	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	generatedAt := now()

	return &GeneratedQuotation{
		ProjectName:     in.ProjectName,
		Location:        TitleLocation(in.Location),
		Currency:        g.Currency,
		Items:           items,
		Totals:          totals,
		PaymentSchedule: PaymentSchedule(totals.GrandTotal, generatedAt, g.Calc),
		ValidityDays:    DefaultValidityDays,
		Notes:           g.notes(analysis),
		GeneratedAt:     generatedAt,
		Analysis:        analysis,
	}, nil
}

func (g *QuotationGenerator) notes(a *DesignAnalysis) []string {
	notes := []string{
		fmt.Sprintf("All prices are in %s and include VAT at %s", currencyName(g.Currency), FormatPercent(g.TaxPercent)),
		"Material costs based on current market rates",
		fmt.Sprintf("Prices valid for %d days from quotation date", DefaultValidityDays),
		"Payment terms as per agreed schedule",
	}
	lo, hi := ScheduleWeeks(a.Schedule)
	notes = append(notes, fmt.Sprintf("Estimated construction period %d-%d weeks", lo, hi))
	if !a.Validation.IsCompliant {
		notes = append(notes, "Design requires structural review before construction")
	}
	return notes
}

func currencyName(code string) string {
	if code == DefaultCurrency {
		return "Kenya Shillings (KES)"
	}
	return code
}
