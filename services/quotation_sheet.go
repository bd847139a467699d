package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

var (
	ErrIndexOutOfRange = errors.New("line item index out of range")
	ErrUnknownField    = errors.New("unknown line item field")
	ErrInvalidValue    = errors.New("invalid value for field")
)

// Field names an editable line item field. The values match the JSON keys
// the API accepts.
type Field string

const (
	FieldItemCode    Field = "item_code"
	FieldDescription Field = "description"
	FieldUnit        Field = "unit"
	FieldQuantity    Field = "quantity"
	FieldUnitRate    Field = "unit_rate"
	FieldCategory    Field = "category"
	FieldSource      Field = "source"
)

// EditableFields lists every field EditItem accepts.
var EditableFields = []Field{
	FieldItemCode, FieldDescription, FieldUnit, FieldQuantity,
	FieldUnitRate, FieldCategory, FieldSource,
}

// IsNumeric reports whether edits to f change the line total.
func (f Field) IsNumeric() bool {
	return f == FieldQuantity || f == FieldUnitRate
}

// QuotationSheet is the editable state of one quotation: its items, tax
// rate and the totals derived from them. Every mutation recomputes totals
// from the full item list, and a failed mutation leaves the sheet untouched.
type QuotationSheet struct {
	calc       Calculator
	taxPercent decimal.Decimal
	items      []LineItem
	totals     Totals
}

// NewQuotationSheet validates items and computes the initial totals.
func NewQuotationSheet(calc Calculator, items []LineItem, taxPercent decimal.Decimal) (*QuotationSheet, error) {
	s := &QuotationSheet{calc: calc, taxPercent: taxPercent}
	if err := s.commit(items); err != nil {
		return nil, err
	}
	return s, nil
}

// Items returns a copy of the current line items.
func (s *QuotationSheet) Items() []LineItem {
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Totals returns the totals for the current items.
func (s *QuotationSheet) Totals() Totals {
	return s.totals
}

// Len returns the number of line items.
func (s *QuotationSheet) Len() int {
	return len(s.items)
}

// AddItem appends item and recomputes totals.
func (s *QuotationSheet) AddItem(item LineItem) error {
	next := append(s.Items(), item)
	return s.commit(next)
}

// EditItem replaces one field on the item at index. Numeric values may be
// given as numbers, numeric strings or decimals.
func (s *QuotationSheet) EditItem(index int, field Field, value any) error {
	if index < 0 || index >= len(s.items) {
		return fmt.Errorf("%w: %d (have %d items)", ErrIndexOutOfRange, index, len(s.items))
	}

	next := s.Items()
	item := next[index]

	switch field {
	case FieldQuantity, FieldUnitRate:
		d, err := coerceDecimal(value)
		if err != nil {
			return fmt.Errorf("%w %s: %v", ErrInvalidValue, field, err)
		}
		if field == FieldQuantity {
			item.Quantity = d
		} else {
			item.UnitRate = d
		}
	case FieldItemCode, FieldDescription, FieldUnit, FieldCategory, FieldSource:
		if value == nil {
			return fmt.Errorf("%w %s: value is required", ErrInvalidValue, field)
		}
		str, err := cast.ToStringE(value)
		if err != nil {
			return fmt.Errorf("%w %s: %v", ErrInvalidValue, field, err)
		}
		setTextField(&item, field, strings.TrimSpace(str))
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	next[index] = item
	return s.commit(next)
}

// DeleteItem removes the item at index and recomputes totals.
func (s *QuotationSheet) DeleteItem(index int) error {
	if index < 0 || index >= len(s.items) {
		return fmt.Errorf("%w: %d (have %d items)", ErrIndexOutOfRange, index, len(s.items))
	}
	next := make([]LineItem, 0, len(s.items)-1)
	next = append(next, s.items[:index]...)
	next = append(next, s.items[index+1:]...)
	return s.commit(next)
}

func (s *QuotationSheet) commit(items []LineItem) error {
	recomputed, totals, err := s.calc.Recompute(items, s.taxPercent)
	if err != nil {
		return err
	}
	s.items = recomputed
	s.totals = totals
	return nil
}

func setTextField(item *LineItem, field Field, v string) {
	switch field {
	case FieldItemCode:
		item.ItemCode = v
	case FieldDescription:
		item.Description = v
	case FieldUnit:
		item.Unit = v
	case FieldCategory:
		item.Category = v
	case FieldSource:
		item.Source = v
	}
}

func coerceDecimal(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case nil:
		return decimal.Zero, errors.New("value is required")
	case bool:
		return decimal.Zero, fmt.Errorf("%t is not a number", v)
	case decimal.Decimal:
		return v, nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Zero, err
		}
		return d, nil
	}
	f, err := cast.ToFloat64E(value)
	if err != nil {
		return decimal.Zero, err
	}
	return DecimalFromFloat(f)
}

// DefaultLineItem returns the placeholder row used when a user adds an item
// to a quotation that already has n items.
func DefaultLineItem(n int) LineItem {
	return LineItem{
		ItemCode:    fmt.Sprintf("NEW%d", n+1),
		Description: "New Item",
		Unit:        "m2",
		Quantity:    decimal.NewFromInt(1),
		UnitRate:    decimal.Zero,
		Category:    "General",
		Source:      "Manual",
	}
}
