package services

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultCurrency is the single currency all quotations are priced in.
const DefaultCurrency = "KES"

// FormatMoney formats an amount with thousands separators and exactly two
// decimal places, prefixed by the currency code (e.g. "KES 1,367,640.00").
func FormatMoney(currency string, amount decimal.Decimal) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	rounded := amount.Round(CurrencyPlaces)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}
	return sign + currency + " " + humanize.FormatFloat("#,###.##", rounded.InexactFloat64())
}

// FormatQty renders whole quantities without decimals and fractional ones with two.
func FormatQty(qty decimal.Decimal) string {
	if qty.Equal(qty.Truncate(0)) {
		return qty.StringFixed(0)
	}
	return qty.StringFixed(2)
}

// FormatPercent renders a percentage without trailing zeros ("16%", "12.5%").
func FormatPercent(p decimal.Decimal) string {
	return p.String() + "%"
}

// FormatArea renders an area in square metres.
func FormatArea(area float64) string {
	return fmt.Sprintf("%s m²", humanize.Comma(int64(math.Floor(area))))
}

// TitleLocation normalises a free-text location for display ("nairobi west" → "Nairobi West").
func TitleLocation(location string) string {
	// A Caser keeps state between calls, so each call gets its own.
	return cases.Title(language.English).String(strings.ToLower(strings.TrimSpace(location)))
}
