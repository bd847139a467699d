package services

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func item(code, qty, rate string) LineItem {
	return LineItem{ItemCode: code, Quantity: d(qty), UnitRate: d(rate)}
}

// sampleItems is the three-row quotation used throughout the product demo.
func sampleItems() []LineItem {
	return []LineItem{
		{ItemCode: "E101", Description: "Excavation to formation level", Unit: "m3", Quantity: d("500"), UnitRate: d("150"), Category: "Earthworks", Source: "CostX"},
		{ItemCode: "C203", Description: "Concrete class 25/20", Unit: "m3", Quantity: d("120"), UnitRate: d("8500"), Category: "Structural Concrete", Source: "Revit"},
		{ItemCode: "F506", Description: "Formwork to soffits of slabs", Unit: "m2", Quantity: d("200"), UnitRate: d("420"), Category: "Formwork", Source: "Candy"},
	}
}

func assertDecimal(t *testing.T, label string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(d(want)) {
		t.Errorf("%s = %s, want %s", label, got, want)
	}
}

func TestRecompute_SampleQuotation(t *testing.T) {
	items, totals, err := Recompute(sampleItems(), d("16"))
	if err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}

	assertDecimal(t, "items[0].LineTotal", items[0].LineTotal, "75000")
	assertDecimal(t, "items[1].LineTotal", items[1].LineTotal, "1020000")
	assertDecimal(t, "items[2].LineTotal", items[2].LineTotal, "84000")
	assertDecimal(t, "Subtotal", totals.Subtotal, "1179000")
	assertDecimal(t, "TaxAmount", totals.TaxAmount, "188640")
	assertDecimal(t, "GrandTotal", totals.GrandTotal, "1367640")
	assertDecimal(t, "TaxPercent", totals.TaxPercent, "16")
}

func TestRecompute_IgnoresStaleLineTotals(t *testing.T) {
	items := sampleItems()
	items[0].LineTotal = d("1")
	items[1].LineTotal = d("999999999")

	got, totals, err := Recompute(items, d("16"))
	if err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}
	assertDecimal(t, "items[0].LineTotal", got[0].LineTotal, "75000")
	assertDecimal(t, "Subtotal", totals.Subtotal, "1179000")

	// Input is not mutated.
	assertDecimal(t, "input items[0].LineTotal", items[0].LineTotal, "1")
}

func TestRecompute_OrderIndependent(t *testing.T) {
	base := []LineItem{
		item("A", "3.5", "19.99"),
		item("B", "0.25", "1200.10"),
		item("C", "7", "0.33"),
		item("D", "1", "0.1"),
	}
	_, want, err := Recompute(base, d("16"))
	if err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}

	perms := [][]int{{3, 2, 1, 0}, {1, 3, 0, 2}, {2, 0, 3, 1}}
	for _, p := range perms {
		shuffled := make([]LineItem, len(base))
		for i, idx := range p {
			shuffled[i] = base[idx]
		}
		_, got, err := Recompute(shuffled, d("16"))
		if err != nil {
			t.Fatalf("Recompute() error = %v", err)
		}
		if !got.Subtotal.Equal(want.Subtotal) || !got.GrandTotal.Equal(want.GrandTotal) {
			t.Errorf("permutation %v: totals %+v, want %+v", p, got, want)
		}
	}
}

func TestRecompute_SubtotalIsSumOfProducts(t *testing.T) {
	items := []LineItem{
		item("A", "2.5", "100.50"),
		item("B", "0", "100"),
		item("C", "10", "0"),
		item("D", "0.1", "0.2"),
	}
	_, totals, err := Recompute(items, d("0"))
	if err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}
	assertDecimal(t, "Subtotal", totals.Subtotal, "251.27")
	assertDecimal(t, "TaxAmount", totals.TaxAmount, "0")
	assertDecimal(t, "GrandTotal", totals.GrandTotal, "251.27")
}

func TestRecompute_GrandTotalIsExactSum(t *testing.T) {
	items := []LineItem{item("A", "3", "33.33"), item("B", "1", "0.07")}
	_, totals, err := Recompute(items, d("16"))
	if err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}
	// 100.06 * 16% = 16.0096 -> 16.01
	assertDecimal(t, "TaxAmount", totals.TaxAmount, "16.01")
	if !totals.GrandTotal.Equal(totals.Subtotal.Add(totals.TaxAmount)) {
		t.Errorf("GrandTotal %s != Subtotal %s + TaxAmount %s", totals.GrandTotal, totals.Subtotal, totals.TaxAmount)
	}
}

func TestRecompute_RoundingModes(t *testing.T) {
	// 0.25 * 10% = 0.025: half-up gives 0.03, half-even gives 0.02.
	items := []LineItem{item("A", "1", "0.25")}

	tests := []struct {
		name   string
		calc   Calculator
		expect string
	}{
		{"half up", Calculator{Rounding: RoundHalfUp}, "0.03"},
		{"half even", Calculator{Rounding: RoundHalfEven}, "0.02"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, totals, err := tt.calc.Recompute(items, d("10"))
			if err != nil {
				t.Fatalf("Recompute() error = %v", err)
			}
			assertDecimal(t, "TaxAmount", totals.TaxAmount, tt.expect)
		})
	}
}

func TestRecompute_EmptyAndNil(t *testing.T) {
	for _, items := range [][]LineItem{nil, {}} {
		got, totals, err := Recompute(items, d("16"))
		if err != nil {
			t.Fatalf("Recompute() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no items, got %d", len(got))
		}
		assertDecimal(t, "Subtotal", totals.Subtotal, "0")
		assertDecimal(t, "TaxAmount", totals.TaxAmount, "0")
		assertDecimal(t, "GrandTotal", totals.GrandTotal, "0")
	}
}

func TestRecompute_Validation(t *testing.T) {
	tests := []struct {
		name       string
		items      []LineItem
		taxPercent string
		wantErr    error
	}{
		{"negative quantity", []LineItem{item("A", "-1", "10")}, "16", ErrNegativeQuantity},
		{"negative rate", []LineItem{item("A", "1", "-10")}, "16", ErrNegativeUnitRate},
		{"negative tax", []LineItem{item("A", "1", "10")}, "-1", ErrInvalidTaxPercent},
		{"tax above 100", []LineItem{item("A", "1", "10")}, "100.5", ErrInvalidTaxPercent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Recompute(tt.items, d(tt.taxPercent))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Recompute() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecimalFromFloat(t *testing.T) {
	if _, err := DecimalFromFloat(0.1); err != nil {
		t.Errorf("DecimalFromFloat(0.1) error = %v", err)
	}
	nan := 0.0
	nan = nan / nan
	if _, err := DecimalFromFloat(nan); !errors.Is(err, ErrInvalidNumber) {
		t.Errorf("DecimalFromFloat(NaN) error = %v, want ErrInvalidNumber", err)
	}
}

func TestParseRoundingMode(t *testing.T) {
	tests := map[string]RoundingMode{
		"":          RoundHalfUp,
		"half_up":   RoundHalfUp,
		"half_even": RoundHalfEven,
		"bankers":   RoundHalfEven,
		"garbage":   RoundHalfUp,
	}
	for in, want := range tests {
		if got := ParseRoundingMode(in); got != want {
			t.Errorf("ParseRoundingMode(%q) = %q, want %q", in, got, want)
		}
	}
}
