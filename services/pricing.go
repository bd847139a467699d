// Package services provides quotation pricing, the mock design and quotation
// generators, and the export builders used by the HTTP handlers.
package services

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeQuantity  = errors.New("quantity must be zero or greater")
	ErrNegativeUnitRate  = errors.New("unit rate must be zero or greater")
	ErrInvalidTaxPercent = errors.New("tax percent must be between 0 and 100")
	ErrInvalidNumber     = errors.New("value is not a finite number")
)

var hundred = decimal.NewFromInt(100)

// RoundingMode selects how tax amounts are rounded to currency precision.
type RoundingMode string

const (
	RoundHalfUp   RoundingMode = "half_up"
	RoundHalfEven RoundingMode = "half_even"
)

// CurrencyPlaces is the number of decimal places money is rounded to.
const CurrencyPlaces = 2

// LineItem is one row of a quotation.
// LineTotal is derived and always equals Quantity * UnitRate after Recompute.
type LineItem struct {
	ItemCode    string          `json:"itemCode"`
	Description string          `json:"description"`
	Unit        string          `json:"unit"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitRate    decimal.Decimal `json:"unitRate"`
	Category    string          `json:"category"`
	Source      string          `json:"source"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

// Totals holds the quotation totals derived from the full line item list.
type Totals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	TaxPercent decimal.Decimal `json:"taxPercent"`
	TaxAmount  decimal.Decimal `json:"taxAmount"`
	GrandTotal decimal.Decimal `json:"grandTotal"`
}

// Calculator derives quotation totals under a fixed rounding policy.
type Calculator struct {
	Rounding RoundingMode
}

// DefaultCalculator rounds tax half-up to two decimals.
var DefaultCalculator = Calculator{Rounding: RoundHalfUp}

// Recompute derives totals with DefaultCalculator.
func Recompute(items []LineItem, taxPercent decimal.Decimal) ([]LineItem, Totals, error) {
	return DefaultCalculator.Recompute(items, taxPercent)
}

// Recompute validates every item, re-derives each line total and returns the
// refreshed items alongside the totals. The input slice is not modified.
func (c Calculator) Recompute(items []LineItem, taxPercent decimal.Decimal) ([]LineItem, Totals, error) {
	if taxPercent.IsNegative() || taxPercent.GreaterThan(hundred) {
		return nil, Totals{}, fmt.Errorf("%w: got %s", ErrInvalidTaxPercent, taxPercent)
	}

	out := make([]LineItem, len(items))
	subtotal := decimal.Zero
	for i, item := range items {
		if err := ValidateLineItem(item); err != nil {
			return nil, Totals{}, fmt.Errorf("item %d (%s): %w", i+1, item.ItemCode, err)
		}
		item.LineTotal = CalcLineTotal(item.Quantity, item.UnitRate)
		subtotal = subtotal.Add(item.LineTotal)
		out[i] = item
	}

	taxAmount := c.round(subtotal.Mul(taxPercent).Div(hundred))

	return out, Totals{
		Subtotal:   subtotal,
		TaxPercent: taxPercent,
		TaxAmount:  taxAmount,
		GrandTotal: subtotal.Add(taxAmount),
	}, nil
}

func (c Calculator) round(d decimal.Decimal) decimal.Decimal {
	if c.Rounding == RoundHalfEven {
		return d.RoundBank(CurrencyPlaces)
	}
	return d.Round(CurrencyPlaces)
}

// CalcLineTotal returns quantity * unitRate.
func CalcLineTotal(quantity, unitRate decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitRate)
}

// ValidateLineItem rejects negative quantities and rates.
func ValidateLineItem(item LineItem) error {
	if item.Quantity.IsNegative() {
		return ErrNegativeQuantity
	}
	if item.UnitRate.IsNegative() {
		return ErrNegativeUnitRate
	}
	return nil
}

// DecimalFromFloat converts a stored or submitted float into a decimal,
// rejecting NaN and infinities which decimal cannot represent.
func DecimalFromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, ErrInvalidNumber
	}
	return decimal.NewFromFloat(f), nil
}

// ParseRoundingMode maps a config value onto a RoundingMode, defaulting to half-up.
func ParseRoundingMode(s string) RoundingMode {
	switch RoundingMode(s) {
	case RoundHalfEven, "bankers":
		return RoundHalfEven
	default:
		return RoundHalfUp
	}
}
