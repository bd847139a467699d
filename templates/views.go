// Package templates holds the templ components for the HTML pages, the
// HTMX fragments and the SVG floor plan. Edit the .templ sources and run
// templ generate; the *_templ.go files are generated.
package templates

import (
	"fmt"
	"strconv"

	"github.com/a-h/templ"
	"github.com/shopspring/decimal"

	"jmstructural/services"
)

// QuotationPageData is what the quotation page renders.
type QuotationPageData struct {
	QuotationID string
	Quotation   services.ExportData
	Role        services.Role
}

// CanEdit reports whether the viewer may change line items.
func (d QuotationPageData) CanEdit() bool {
	return d.Role.CanEditQuotation()
}

var itemHeaders = []string{"#", "Code", "Description", "Unit", "Qty", "Rate", "Amount", "Category", "Source"}

func (d QuotationPageData) money(v decimal.Decimal) string {
	return services.FormatMoney(d.Quotation.Currency, v)
}

func (d QuotationPageData) cells(r services.ExportRow) []string {
	return []string{
		r.Index, r.ItemCode, r.Description, r.Unit,
		services.FormatQty(r.Quantity), d.money(r.UnitRate), d.money(r.Amount),
		r.Category, r.Source,
	}
}

type labelValue struct {
	Label string
	Value string
}

func (d QuotationPageData) totals() []labelValue {
	t := d.Quotation.Totals
	return []labelValue{
		{"Subtotal", d.money(t.Subtotal)},
		{"VAT (" + services.FormatPercent(t.TaxPercent) + ")", d.money(t.TaxAmount)},
		{"Grand Total", d.money(t.GrandTotal)},
	}
}

func (d QuotationPageData) exportURL(format string) templ.SafeURL {
	return templ.URL(fmt.Sprintf("/api/quotations/%s/export/%s", d.QuotationID, format))
}

func (d QuotationPageData) itemsURL() string {
	return "/api/quotations/" + d.QuotationID + "/items/"
}

func (d QuotationPageData) itemURL(index int) string {
	return d.itemsURL() + strconv.Itoa(index) + "/"
}

// DesignInputPageData drives the project wizard summary page.
type DesignInputPageData struct {
	Project services.ProjectInput
	// Message explains why the user landed here, e.g. after a redirect
	// from the quotation page.
	Message string
}

var wizardStepTitles = [services.WizardSteps]string{
	"Project Details",
	"Budget",
	"Location",
	"Requirements",
}

func (d DesignInputPageData) stepState(step int) string {
	if d.Project.StepComplete(step) {
		return "complete"
	}
	return "pending"
}

func (d DesignInputPageData) budget() services.Budget {
	if d.Project.Budget == nil {
		return services.Budget{}
	}
	return *d.Project.Budget
}

func (d DesignInputPageData) location() services.Location {
	if d.Project.Location == nil {
		return services.Location{}
	}
	return *d.Project.Location
}

func (d DesignInputPageData) requirements() services.Requirements {
	if d.Project.Requirements == nil {
		return services.DefaultRequirements()
	}
	return d.Project.Requirements.WithDefaults()
}

type selectOption struct {
	Value    string
	Label    string
	Selected bool
}

func options(values []string, selected string) []selectOption {
	out := make([]selectOption, len(values))
	for i, v := range values {
		out[i] = selectOption{Value: v, Label: services.TitleLocation(v), Selected: v == selected}
	}
	return out
}

func stringsOf[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func wholeNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', 0, 64)
}

// pixelsPerMetre is the drawing scale at 100% zoom (1:100).
const pixelsPerMetre = 10.0

const planMargin = 30.0

// FloorPlanOptions controls the floor plan drawing.
type FloorPlanOptions struct {
	Zoom           int
	ShowGrid       bool
	ShowDimensions bool
}

var roomFills = map[string]string{
	"living":   "#dbeafe",
	"kitchen":  "#dcfce7",
	"dining":   "#fef3c7",
	"bedroom":  "#ede9fe",
	"bathroom": "#fee2e2",
	"store":    "#f3f4f6",
}

type planLine struct {
	X1, Y1, X2, Y2 string
}

type planRect struct {
	X, Y, Width, Height string
}

type planRoom struct {
	Name, Type, Fill         string
	X, Y, Width, Height      string
	LabelX, LabelY, FontSize string
	DimX, DimY, DimFontSize  string
	Dimensions               string
}

// planView is a floor plan scaled and formatted for drawing.
type planView struct {
	Title          string
	Zoom           string
	Width, Height  string
	Walls          planRect
	Grid           []planLine
	Rooms          []planRoom
	ShowGrid       bool
	ShowDimensions bool
}

func coord(f float64) string {
	return strconv.FormatFloat(f, 'f', 1, 64)
}

func newPlanView(title string, plan services.FloorPlan, opts FloorPlanOptions) planView {
	zoom := services.ClampZoom(opts.Zoom)
	scale := pixelsPerMetre * float64(zoom) / 100
	w, h := plan.Width*scale, plan.Depth*scale

	v := planView{
		Title:          title,
		Zoom:           strconv.Itoa(zoom),
		Width:          wholeNumber(w + 2*planMargin),
		Height:         wholeNumber(h + 2*planMargin),
		Walls:          planRect{coord(planMargin), coord(planMargin), coord(w), coord(h)},
		ShowGrid:       opts.ShowGrid,
		ShowDimensions: opts.ShowDimensions,
	}
	if opts.ShowGrid {
		for x := 0.0; x <= plan.Width; x++ {
			px := coord(planMargin + x*scale)
			v.Grid = append(v.Grid, planLine{px, coord(planMargin), px, coord(planMargin + h)})
		}
		for y := 0.0; y <= plan.Depth; y++ {
			py := coord(planMargin + y*scale)
			v.Grid = append(v.Grid, planLine{coord(planMargin), py, coord(planMargin + w), py})
		}
	}
	for _, r := range plan.Rooms {
		x, y := planMargin+r.X*scale, planMargin+r.Y*scale
		rw, rd := r.Width*scale, r.Depth*scale
		fill, ok := roomFills[r.Type]
		if !ok {
			fill = "#ffffff"
		}
		v.Rooms = append(v.Rooms, planRoom{
			Name: r.Name, Type: r.Type, Fill: fill,
			X: coord(x), Y: coord(y), Width: coord(rw), Height: coord(rd),
			LabelX: coord(x + rw/2), LabelY: coord(y + rd/2), FontSize: wholeNumber(1.1 * scale),
			DimX: coord(x + 2), DimY: coord(y + rd - 4), DimFontSize: wholeNumber(0.9 * scale),
			Dimensions: fmt.Sprintf("%.1fm × %.1fm", r.Width, r.Depth),
		})
	}
	return v
}
