package collections

import (
	"fmt"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"jmstructural/services"
)

// ── Definition structs ───────────────────────────────────────────────────

type itemDef struct {
	code        string
	description string
	unit        string
	qty         string
	rate        string
	category    string
	source      string
}

// DemoProjectName is the name of the seeded project.
const DemoProjectName = "Kilimani Residence"

var demoProject = services.ProjectInput{
	Name:        DemoProjectName,
	Description: "Three bedroom family bungalow on a 200 m² plot",
	ProjectType: "residential",
	Budget:      &services.Budget{Amount: 3_000_000, Type: "total", Currency: services.DefaultCurrency},
	Location:    &services.Location{Address: "Argwings Kodhek Road, Kilimani", County: "nairobi"},
}

var demoItems = []itemDef{
	{"E101", "Excavation to formation level", "m3", "500", "150", "Earthworks", "CostX"},
	{"C203", "Concrete class 25/20", "m3", "120", "8500", "Structural Concrete", "Revit"},
	{"F506", "Formwork to soffits of slabs", "m2", "200", "420", "Formwork", "Candy"},
}

// Seed inserts a demo project with its generated designs and a quotation
// priced from the demo bill of quantities. It is safe to call on every
// startup because it returns early if any project records already exist.
func Seed(app core.App, calc services.Calculator, taxPercent decimal.Decimal) error {
	// ── idempotency: skip if projects already exist ──────────────────
	existing, err := app.FindAllRecords(services.ProjectsCollection)
	if err != nil {
		return fmt.Errorf("seed: could not query projects: %w", err)
	}
	if len(existing) > 0 {
		return nil // already seeded
	}

	zap.L().Info("seed: projects collection is empty, inserting demo data")

	project, err := services.SaveProject(app, demoProject)
	if err != nil {
		return fmt.Errorf("seed: save project: %w", err)
	}

	req := services.DesignRequestFor(demoProject.Normalized())
	designs := services.BuildDesigns(req)
	for i := range designs {
		designs[i].Validation = services.StructuralValidator{}.Validate(req, designs[i])
	}
	designRecs, err := services.SaveDesigns(app, project.Id, designs)
	if err != nil {
		return fmt.Errorf("seed: save designs: %w", err)
	}

	items := make([]services.LineItem, 0, len(demoItems))
	for _, d := range demoItems {
		items = append(items, services.LineItem{
			ItemCode:    d.code,
			Description: d.description,
			Unit:        d.unit,
			Quantity:    decimal.RequireFromString(d.qty),
			UnitRate:    decimal.RequireFromString(d.rate),
			Category:    d.category,
			Source:      d.source,
		})
	}
	priced, totals, err := calc.Recompute(items, taxPercent)
	if err != nil {
		return fmt.Errorf("seed: price items: %w", err)
	}

	now := time.Now()
	q := &services.GeneratedQuotation{
		ProjectName:     demoProject.Name,
		Location:        services.TitleLocation(demoProject.Location.County),
		Currency:        services.DefaultCurrency,
		Items:           priced,
		Totals:          totals,
		PaymentSchedule: services.PaymentSchedule(totals.GrandTotal, now, calc),
		ValidityDays:    services.DefaultValidityDays,
		Notes: []string{
			"Quantities taken from the structural drawings",
			"Payment terms as per agreed schedule",
		},
		GeneratedAt: now,
	}
	quotation, err := services.SaveQuotation(app, project.Id, designRecs[0].Id, q)
	if err != nil {
		return fmt.Errorf("seed: save quotation: %w", err)
	}

	zap.L().Info("seed: demo data inserted",
		zap.String("project", project.Id),
		zap.Int("designs", len(designRecs)),
		zap.String("quotation", quotation.GetString("quotation_number")),
		zap.String("grand_total", services.FormatMoney(services.DefaultCurrency, totals.GrandTotal)),
	)
	return nil
}
