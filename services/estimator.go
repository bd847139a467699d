package services

import (
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// BudgetLine is one row of the material budget estimate for a design.
type BudgetLine struct {
	ItemCode   string          `json:"itemCode"`
	Category   string          `json:"category"`
	Material   string          `json:"material"`
	Quantity   decimal.Decimal `json:"quantity"`
	Unit       string          `json:"unit"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Supplier   string          `json:"supplier"`
}

type estimateRule struct {
	code      string
	category  string
	material  string
	perM2     float64
	unit      string
	unitPrice int64
	supplier  string
}

// estimateRules derive quantities from the floor area. Quantities are
// floored to whole units.
var estimateRules = []estimateRule{
	{"FDN-01", "Foundation", "Concrete (C25)", 0.15, "m3", 12000, "Bamburi Cement"},
	{"STR-01", "Structure", "Steel Reinforcement", 8, "kg", 85, "Devki Steel"},
	{"WAL-01", "Walling", "Machine Cut Blocks", 2.5, "pieces", 35, "Local Supplier"},
	{"ROF-01", "Roofing", "Iron Sheets (Gauge 30)", 1.2, "m2", 850, "Mabati Rolling Mills"},
	{"FLR-01", "Flooring", "Ceramic Tiles", 1, "m2", 1200, "Tile & Carpet Centre"},
	{"FIN-01", "Finishing", "Emulsion Paint", 0.5, "litres", 1500, "Crown Paints"},
}

// EstimateBudget returns the six-category material estimate for a floor area
// in m². Base prices are used; see PriceEstimate for location adjustment.
func EstimateBudget(area float64) []BudgetLine {
	area = math.Floor(area)
	lines := make([]BudgetLine, 0, len(estimateRules))
	for _, r := range estimateRules {
		qty := decimal.NewFromFloat(math.Floor(area * r.perM2))
		price := decimal.NewFromInt(r.unitPrice)
		lines = append(lines, BudgetLine{
			ItemCode:   r.code,
			Category:   r.category,
			Material:   r.material,
			Quantity:   qty,
			Unit:       r.unit,
			UnitPrice:  price,
			TotalPrice: qty.Mul(price),
			Supplier:   r.supplier,
		})
	}
	return lines
}

// EstimateTotal sums the total price of every line.
func EstimateTotal(lines []BudgetLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.TotalPrice)
	}
	return total
}

// LocationMultiplier returns the price adjustment for a location. Only the
// two main cities carry a premium.
func LocationMultiplier(location string) decimal.Decimal {
	switch strings.ToLower(strings.TrimSpace(location)) {
	case "nairobi":
		return decimal.RequireFromString("1.10")
	case "mombasa":
		return decimal.RequireFromString("1.05")
	default:
		return decimal.NewFromInt(1)
	}
}

// AdjustPrice applies the location multiplier and floors to whole shillings.
func AdjustPrice(base decimal.Decimal, location string) decimal.Decimal {
	return base.Mul(LocationMultiplier(location)).Floor()
}

// PriceEstimate returns a copy of lines with unit prices adjusted for location.
func PriceEstimate(lines []BudgetLine, location string) []BudgetLine {
	out := make([]BudgetLine, len(lines))
	for i, l := range lines {
		l.UnitPrice = AdjustPrice(l.UnitPrice, location)
		l.TotalPrice = l.Quantity.Mul(l.UnitPrice)
		out[i] = l
	}
	return out
}

// Material is one entry of the supplier price list.
type Material struct {
	Key      string          `json:"key"`
	Price    decimal.Decimal `json:"price"`
	Unit     string          `json:"unit"`
	Supplier string          `json:"supplier"`
}

var basePriceList = map[string]Material{
	"cement":  {Key: "cement", Price: decimal.NewFromInt(850), Unit: "bag", Supplier: "Bamburi Cement"},
	"steel":   {Key: "steel", Price: decimal.NewFromInt(85), Unit: "kg", Supplier: "Devki Steel"},
	"tiles":   {Key: "tiles", Price: decimal.NewFromInt(1200), Unit: "m2", Supplier: "Tile & Carpet Centre"},
	"paint":   {Key: "paint", Price: decimal.NewFromInt(1500), Unit: "litre", Supplier: "Crown Paints"},
	"timber":  {Key: "timber", Price: decimal.NewFromInt(2500), Unit: "m3", Supplier: "Timsales Kenya"},
	"sand":    {Key: "sand", Price: decimal.NewFromInt(2500), Unit: "tonne", Supplier: "Local Supplier"},
	"ballast": {Key: "ballast", Price: decimal.NewFromInt(2800), Unit: "tonne", Supplier: "Local Supplier"},
}

// MaterialPricing returns the supplier price list adjusted for location,
// sorted by material key.
func MaterialPricing(location string) []Material {
	out := make([]Material, 0, len(basePriceList))
	for _, m := range basePriceList {
		m.Price = AdjustPrice(m.Price, location)
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
