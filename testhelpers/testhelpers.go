// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"strings"
	"testing"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"jmstructural/collections"
	"jmstructural/services"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}
	t.Cleanup(func() { _ = app.ResetBootstrapState() })

	if err := collections.Setup(app); err != nil {
		t.Fatalf("failed to set up collections: %v", err)
	}

	return app
}

// TestProjectInput is the wizard input used by CreateTestProject: a 3M KES
// bungalow in Nairobi with default requirements.
func TestProjectInput(name string) services.ProjectInput {
	return services.ProjectInput{
		Name:        name,
		ProjectType: "residential",
		Budget:      &services.Budget{Amount: 3_000_000, Type: "total", Currency: "KES"},
		Location:    &services.Location{Address: "Kilimani, Nairobi", County: "nairobi"},
	}
}

// CreateTestProject creates a project record with the given name and returns it.
func CreateTestProject(t *testing.T, app core.App, name string) *core.Record {
	t.Helper()

	record, err := services.SaveProject(app, TestProjectInput(name))
	if err != nil {
		t.Fatalf("failed to save test project: %v", err)
	}
	return record
}

// CreateTestDesigns stores the three deterministic candidates for a project
// and returns their records in order.
func CreateTestDesigns(t *testing.T, app core.App, projectID string) []*core.Record {
	t.Helper()

	rec, err := app.FindRecordById("projects", projectID)
	if err != nil {
		t.Fatalf("failed to find test project: %v", err)
	}
	project, err := services.ProjectFromRecord(rec)
	if err != nil {
		t.Fatalf("failed to decode test project: %v", err)
	}
	req := services.DesignRequestFor(project)
	designs := services.BuildDesigns(req)
	for i := range designs {
		designs[i].Validation = services.StructuralValidator{}.Validate(req, designs[i])
	}

	records, err := services.SaveDesigns(app, projectID, designs)
	if err != nil {
		t.Fatalf("failed to save test designs: %v", err)
	}
	return records
}

// SampleItems is the three-row quotation used in the product demo:
// subtotal 1,179,000, VAT 188,640, grand total 1,367,640 at 16%.
func SampleItems() []services.LineItem {
	d := decimal.RequireFromString
	return []services.LineItem{
		{ItemCode: "E101", Description: "Excavation to formation level", Unit: "m3", Quantity: d("500"), UnitRate: d("150"), Category: "Earthworks", Source: "CostX"},
		{ItemCode: "C203", Description: "Concrete class 25/20", Unit: "m3", Quantity: d("120"), UnitRate: d("8500"), Category: "Structural Concrete", Source: "Revit"},
		{ItemCode: "F506", Description: "Formwork to soffits of slabs", Unit: "m2", Quantity: d("200"), UnitRate: d("420"), Category: "Formwork", Source: "Candy"},
	}
}

// CreateTestQuotation stores a quotation with the given items at 16% VAT.
// projectID and designID may be empty.
func CreateTestQuotation(t *testing.T, app core.App, projectID, designID string, items []services.LineItem) *core.Record {
	t.Helper()

	calc := services.DefaultCalculator
	priced, totals, err := calc.Recompute(items, decimal.NewFromInt(16))
	if err != nil {
		t.Fatalf("failed to price test quotation: %v", err)
	}
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	q := &services.GeneratedQuotation{
		ProjectName:     "Test Project",
		Location:        "Nairobi",
		Currency:        "KES",
		Items:           priced,
		Totals:          totals,
		PaymentSchedule: services.PaymentSchedule(totals.GrandTotal, now, calc),
		ValidityDays:    services.DefaultValidityDays,
		Notes:           []string{"Payment terms as per agreed schedule"},
		GeneratedAt:     now,
	}

	record, err := services.SaveQuotation(app, projectID, designID, q)
	if err != nil {
		t.Fatalf("failed to save test quotation: %v", err)
	}
	return record
}

// AssertHTMLContains checks that body contains all specified fragments.
func AssertHTMLContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected HTML to contain %q, but it was not found\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

// AssertHXRedirect checks that the response has an HX-Redirect header with the expected URL.
func AssertHXRedirect(t *testing.T, headerVal, expectedURL string) {
	t.Helper()

	if headerVal != expectedURL {
		t.Errorf("expected HX-Redirect %q, got %q", expectedURL, headerVal)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
