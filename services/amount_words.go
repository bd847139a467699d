package services

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AmountToWords spells out an amount rounded to the nearest shilling using
// the international scale.
// Example: 1367640 → "One Million Three Hundred and Sixty Seven Thousand Six Hundred and Forty Kenya Shillings Only"
func AmountToWords(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return "Negative " + AmountToWords(amount.Neg())
	}

	shillings := amount.Round(0).IntPart()
	if shillings == 0 {
		return "Zero Kenya Shillings Only"
	}
	return spellInteger(shillings) + " Kenya Shillings Only"
}

var scales = []struct {
	value int64
	name  string
}{
	{1_000_000_000, "Billion"},
	{1_000_000, "Million"},
	{1_000, "Thousand"},
}

func spellInteger(n int64) string {
	var parts []string
	for _, s := range scales {
		if n >= s.value {
			parts = append(parts, spellUnder1000(n/s.value, false)+" "+s.name)
			n %= s.value
		}
	}
	if n > 0 {
		parts = append(parts, spellUnder1000(n, len(parts) > 0))
	}
	return strings.Join(parts, " ")
}

// spellUnder1000 spells 1..999. joinAnd prefixes "and" to a bare tail below
// one hundred when a larger group precedes it.
func spellUnder1000(n int64, joinAnd bool) string {
	var parts []string
	if n >= 100 {
		parts = append(parts, ones[n/100]+" Hundred")
		n %= 100
	}
	if n > 0 {
		if len(parts) > 0 || joinAnd {
			parts = append(parts, "and "+spellUnder100(n))
		} else {
			parts = append(parts, spellUnder100(n))
		}
	}
	return strings.Join(parts, " ")
}

func spellUnder100(n int64) string {
	if n < 20 {
		return ones[n]
	}
	result := tens[n/10]
	if n%10 != 0 {
		result += " " + ones[n%10]
	}
	return result
}

var ones = []string{
	"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
	"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
	"Seventeen", "Eighteen", "Nineteen",
}

var tens = []string{
	"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
}
