package services_test

import (
	"errors"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"jmstructural/services"
	"jmstructural/testhelpers"
)

func TestFindRecord_NotFound(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	_, err := services.FindRecord(app, services.ProjectsCollection, "missingid123456")
	if !errors.Is(err, services.ErrNotFound) {
		t.Errorf("FindRecord() error = %v, want ErrNotFound", err)
	}
}

func TestSaveProject_RoundTrip(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	rec := testhelpers.CreateTestProject(t, app, "Karen Villa")

	if rec.GetString("status") != "planning" {
		t.Errorf("status = %q, want planning", rec.GetString("status"))
	}

	got, err := services.ProjectFromRecord(rec)
	if err != nil {
		t.Fatalf("ProjectFromRecord() error = %v", err)
	}
	if got.Name != "Karen Villa" || got.ProjectType != "residential" {
		t.Errorf("unexpected project %+v", got)
	}
	if got.Budget == nil || got.Budget.Amount != 3_000_000 || got.Budget.Currency != "KES" {
		t.Errorf("budget = %+v", got.Budget)
	}
	if got.Location == nil || got.Location.Label() != "nairobi" {
		t.Errorf("location = %+v", got.Location)
	}
	// Skipped requirements step is stored with defaults.
	def := services.DefaultRequirements()
	if r := got.Requirements; r == nil || r.BedroomCount() != *def.Bedrooms || r.BathroomCount() != *def.Bathrooms ||
		r.Floors != def.Floors || r.BuildingType != def.BuildingType || r.Style != def.Style || r.PlotSize != def.PlotSize {
		t.Errorf("requirements = %+v", got.Requirements)
	}
}

func TestSaveProject_ValidationError(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	in := testhelpers.TestProjectInput("")
	in.Location = nil

	_, err := services.SaveProject(app, in)
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("SaveProject() error = %v, want validation.Errors", err)
	}
	for _, key := range []string{"name", "location"} {
		if _, ok := verrs[key]; !ok {
			t.Errorf("expected validation error for %q, got %v", key, verrs)
		}
	}

	recs, _ := app.FindAllRecords(services.ProjectsCollection)
	if len(recs) != 0 {
		t.Errorf("invalid project was stored")
	}
}

func TestSaveDesigns_RoundTrip(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	project := testhelpers.CreateTestProject(t, app, "Designs Project")
	recs := testhelpers.CreateTestDesigns(t, app, project.Id)

	if len(recs) != 3 {
		t.Fatalf("expected 3 design records, got %d", len(recs))
	}
	d, err := services.DesignFromRecord(recs[0])
	if err != nil {
		t.Fatalf("DesignFromRecord() error = %v", err)
	}
	if d.Area != 120 {
		t.Errorf("Area = %v, want 120", d.Area)
	}
	if !d.Cost.Equal(decimal.NewFromInt(2_850_000)) {
		t.Errorf("Cost = %s, want 2850000", d.Cost)
	}
	if len(d.Rooms) == 0 {
		t.Error("rooms not stored")
	}
	if d.Validation.CodeReference != services.BuildingCode {
		t.Errorf("CodeReference = %q", d.Validation.CodeReference)
	}

	fresh, _ := app.FindRecordById(services.ProjectsCollection, project.Id)
	if fresh.GetString("status") != "design" {
		t.Errorf("project status = %q, want design", fresh.GetString("status"))
	}

	// A second generation is appended after the first.
	more := testhelpers.CreateTestDesigns(t, app, project.Id)
	if more[0].GetInt("sort_order") != 3 {
		t.Errorf("sort_order = %d, want 3", more[0].GetInt("sort_order"))
	}
}

func TestValidateStoredDesign(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	project := testhelpers.CreateTestProject(t, app, "Validate Project")
	recs := testhelpers.CreateTestDesigns(t, app, project.Id)

	// Wipe the stored result so the re-run is observable.
	recs[0].Set("compliance_score", 0)
	recs[0].Set("is_compliant", false)
	if err := app.Save(recs[0]); err != nil {
		t.Fatalf("save design: %v", err)
	}

	v, err := services.ValidateStoredDesign(app, recs[0].Id)
	if err != nil {
		t.Fatalf("ValidateStoredDesign() error = %v", err)
	}
	fresh, _ := app.FindRecordById(services.DesignsCollection, recs[0].Id)
	if fresh.GetInt("compliance_score") != v.ComplianceScore || v.ComplianceScore == 0 {
		t.Errorf("stored score %d, returned %d", fresh.GetInt("compliance_score"), v.ComplianceScore)
	}
	if fresh.GetBool("is_compliant") != v.IsCompliant {
		t.Error("stored compliance flag does not match")
	}
}

func TestSaveQuotation_StoresItemsAndMilestones(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	q := testhelpers.CreateTestQuotation(t, app, "", "", testhelpers.SampleItems())

	if q.GetString("quotation_number") != "QUO-20260314-001" {
		t.Errorf("quotation_number = %q", q.GetString("quotation_number"))
	}
	totals := services.StoredTotals(q)
	if !totals.GrandTotal.Equal(decimal.NewFromInt(1367640)) {
		t.Errorf("GrandTotal = %s", totals.GrandTotal)
	}

	ms, err := services.LoadMilestones(app, q.Id)
	if err != nil {
		t.Fatalf("LoadMilestones() error = %v", err)
	}
	if len(ms) != 5 {
		t.Fatalf("expected 5 milestones, got %d", len(ms))
	}
	if ms[0].Phase != "Mobilization" || !ms[0].Amount.Equal(decimal.NewFromInt(136764)) {
		t.Errorf("first milestone = %+v", ms[0])
	}
	if got := ms[4].DueDate.Format("2006-01-02"); got != "2026-06-22" {
		t.Errorf("final due date = %s, want 2026-06-22", got)
	}
}

func TestQuotationSheet_PersistedEdit(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	q := testhelpers.CreateTestQuotation(t, app, "", "", testhelpers.SampleItems())
	calc := services.DefaultCalculator

	err := app.RunInTransaction(func(txApp core.App) error {
		sheet, rec, err := services.LoadQuotationSheet(txApp, calc, q.Id)
		if err != nil {
			return err
		}
		if err := sheet.EditItem(1, services.FieldQuantity, "100"); err != nil {
			return err
		}
		return services.SaveQuotationSheet(txApp, calc, rec, sheet)
	})
	if err != nil {
		t.Fatalf("edit transaction error = %v", err)
	}

	sheet, rec, err := services.LoadQuotationSheet(app, calc, q.Id)
	if err != nil {
		t.Fatalf("LoadQuotationSheet() error = %v", err)
	}
	stored := services.StoredTotals(rec)
	for label, pair := range map[string][2]decimal.Decimal{
		"subtotal":    {stored.Subtotal, decimal.NewFromInt(1009000)},
		"tax":         {stored.TaxAmount, decimal.NewFromInt(161440)},
		"grand total": {stored.GrandTotal, decimal.NewFromInt(1170440)},
	} {
		if !pair[0].Equal(pair[1]) {
			t.Errorf("%s = %s, want %s", label, pair[0], pair[1])
		}
	}
	if !sheet.Items()[1].LineTotal.Equal(decimal.NewFromInt(850000)) {
		t.Errorf("line total = %s, want 850000", sheet.Items()[1].LineTotal)
	}

	ms, _ := services.LoadMilestones(app, q.Id)
	sum := decimal.Zero
	for _, m := range ms {
		sum = sum.Add(m.Amount)
	}
	if !sum.Equal(stored.GrandTotal) {
		t.Errorf("milestones sum to %s, want %s", sum, stored.GrandTotal)
	}
}

func TestQuotationSheet_FailedEditRollsBack(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	q := testhelpers.CreateTestQuotation(t, app, "", "", testhelpers.SampleItems())
	calc := services.DefaultCalculator

	err := app.RunInTransaction(func(txApp core.App) error {
		sheet, rec, err := services.LoadQuotationSheet(txApp, calc, q.Id)
		if err != nil {
			return err
		}
		if err := sheet.DeleteItem(0); err != nil {
			return err
		}
		if err := services.SaveQuotationSheet(txApp, calc, rec, sheet); err != nil {
			return err
		}
		return errors.New("abort")
	})
	if err == nil {
		t.Fatal("expected transaction error")
	}

	items, _ := app.FindRecordsByFilter(services.QuotationItemsCollection, "quotation = {:q}", "", 0, 0, map[string]any{"q": q.Id})
	if len(items) != 3 {
		t.Errorf("expected 3 items after rollback, got %d", len(items))
	}
	fresh, _ := app.FindRecordById(services.QuotationsCollection, q.Id)
	if fresh.GetFloat("grand_total") != 1367640 {
		t.Errorf("grand_total = %v after rollback", fresh.GetFloat("grand_total"))
	}
}

func TestRecordBIMExport(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	project := testhelpers.CreateTestProject(t, app, "BIM Project")
	design := testhelpers.CreateTestDesigns(t, app, project.Id)[0]

	rec, err := services.RecordBIMExport(app, design.Id, "model-1")
	if err != nil {
		t.Fatalf("RecordBIMExport() error = %v", err)
	}
	if want := "/exports/" + design.Id + ".ifc"; rec.GetString("file_path") != want {
		t.Errorf("file_path = %q, want %q", rec.GetString("file_path"), want)
	}
	if rec.GetString("model_type") != "IFC" {
		t.Errorf("model_type = %q", rec.GetString("model_type"))
	}
	var components []string
	if err := rec.UnmarshalJSONField("components", &components); err != nil || len(components) == 0 {
		t.Errorf("components = %v, err %v", components, err)
	}

	if _, err := services.RecordBIMExport(app, "missingid123456", "model-2"); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("missing design error = %v, want ErrNotFound", err)
	}
}
