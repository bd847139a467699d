package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

const (
	ProjectsCollection          = "projects"
	DesignsCollection           = "designs"
	QuotationsCollection        = "quotations"
	QuotationItemsCollection    = "quotation_items"
	PaymentMilestonesCollection = "payment_milestones"
	BIMModelsCollection         = "bim_models"
)

// FindRecord loads a record by id, mapping a missing row to ErrNotFound.
func FindRecord(app core.App, collection, id string) (*core.Record, error) {
	rec, err := app.FindRecordById(collection, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %q: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find %s %q: %w", collection, id, err)
	}
	return rec, nil
}

// decodeJSONField unmarshals a JSON field, leaving dst untouched when the
// field was never set.
func decodeJSONField(rec *core.Record, field string, dst any) error {
	raw := rec.GetString(field)
	if raw == "" || raw == "null" {
		return nil
	}
	return json.Unmarshal([]byte(raw), dst)
}

func toDecimal(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// ── Projects ─────────────────────────────────────────────────────────────

// SaveProject validates the wizard input and stores it as a new project in
// the planning status.
func SaveProject(app core.App, in ProjectInput) (*core.Record, error) {
	in = in.Normalized()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	col, err := app.FindCollectionByNameOrId(ProjectsCollection)
	if err != nil {
		return nil, fmt.Errorf("find projects collection: %w", err)
	}

	rec := core.NewRecord(col)
	rec.Set("name", in.Name)
	rec.Set("description", in.Description)
	rec.Set("project_type", in.ProjectType)
	rec.Set("status", "planning")
	rec.Set("budget", in.Budget)
	rec.Set("location", in.Location)
	if in.Requirements != nil {
		rec.Set("requirements", in.Requirements)
	}
	if err := app.Save(rec); err != nil {
		return nil, fmt.Errorf("save project: %w", err)
	}
	return rec, nil
}

// ProjectFromRecord decodes the wizard fields of a project record.
func ProjectFromRecord(rec *core.Record) (ProjectInput, error) {
	p := ProjectInput{
		Name:        rec.GetString("name"),
		Description: rec.GetString("description"),
		ProjectType: rec.GetString("project_type"),
	}
	var budget Budget
	if err := decodeJSONField(rec, "budget", &budget); err != nil {
		return p, fmt.Errorf("decode budget: %w", err)
	}
	var loc Location
	if err := decodeJSONField(rec, "location", &loc); err != nil {
		return p, fmt.Errorf("decode location: %w", err)
	}
	var req Requirements
	if err := decodeJSONField(rec, "requirements", &req); err != nil {
		return p, fmt.Errorf("decode requirements: %w", err)
	}
	p.Budget = &budget
	p.Location = &loc
	p.Requirements = &req
	return p, nil
}

// DesignRequestFor builds the generator request for a stored project,
// applying default requirements where the wizard step was skipped.
func DesignRequestFor(p ProjectInput) DesignRequest {
	var budget float64
	if p.Budget != nil {
		budget = p.Budget.Amount
	}
	var location string
	if p.Location != nil {
		location = p.Location.Label()
	}
	var req Requirements
	if p.Requirements != nil {
		req = *p.Requirements
	}
	return NewDesignRequest(budget, location, req)
}

// ── Designs ──────────────────────────────────────────────────────────────

// SaveDesigns stores generated designs for a project after any designs it
// already has, and moves the project into the design status.
func SaveDesigns(app core.App, projectID string, designs []Design) ([]*core.Record, error) {
	var out []*core.Record
	err := app.RunInTransaction(func(txApp core.App) error {
		project, err := FindRecord(txApp, ProjectsCollection, projectID)
		if err != nil {
			return err
		}
		col, err := txApp.FindCollectionByNameOrId(DesignsCollection)
		if err != nil {
			return fmt.Errorf("find designs collection: %w", err)
		}
		existing, err := txApp.FindRecordsByFilter(col, "project = {:p}", "", 0, 0, map[string]any{"p": projectID})
		if err != nil {
			return fmt.Errorf("query designs: %w", err)
		}

		for i, d := range designs {
			rec := core.NewRecord(col)
			rec.Set("project", projectID)
			rec.Set("sort_order", len(existing)+i)
			setDesignFields(rec, d)
			if err := txApp.Save(rec); err != nil {
				return fmt.Errorf("save design %q: %w", d.Name, err)
			}
			out = append(out, rec)
		}

		project.Set("status", "design")
		return txApp.Save(project)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func setDesignFields(rec *core.Record, d Design) {
	rec.Set("name", d.Name)
	rec.Set("description", d.Description)
	rec.Set("variant", d.Variant)
	rec.Set("bedrooms", d.Bedrooms)
	rec.Set("bathrooms", d.Bathrooms)
	rec.Set("floors", d.Floors)
	rec.Set("style", string(d.Style))
	rec.Set("building_type", string(d.BuildingType))
	rec.Set("area", d.Area)
	rec.Set("cost", d.Cost.InexactFloat64())
	rec.Set("rooms", d.Rooms)
	setValidationFields(rec, d.Validation)
}

func setValidationFields(rec *core.Record, v StructuralValidation) {
	rec.Set("compliance_score", v.ComplianceScore)
	rec.Set("is_compliant", v.IsCompliant)
	rec.Set("violations", nonNil(v.Violations))
	rec.Set("warnings", nonNil(v.Warnings))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// DesignFromRecord decodes a stored design.
func DesignFromRecord(rec *core.Record) (Design, error) {
	d := Design{
		Name:         rec.GetString("name"),
		Description:  rec.GetString("description"),
		Variant:      rec.GetString("variant"),
		Bedrooms:     rec.GetInt("bedrooms"),
		Bathrooms:    rec.GetInt("bathrooms"),
		Floors:       rec.GetInt("floors"),
		Style:        Style(rec.GetString("style")),
		BuildingType: BuildingType(rec.GetString("building_type")),
		Area:         rec.GetFloat("area"),
		Cost:         toDecimal(rec.GetFloat("cost")),
		Validation: StructuralValidation{
			ComplianceScore: rec.GetInt("compliance_score"),
			IsCompliant:     rec.GetBool("is_compliant"),
			CodeReference:   BuildingCode,
		},
	}
	if err := decodeJSONField(rec, "rooms", &d.Rooms); err != nil {
		return d, fmt.Errorf("decode rooms: %w", err)
	}
	if err := decodeJSONField(rec, "violations", &d.Validation.Violations); err != nil {
		return d, fmt.Errorf("decode violations: %w", err)
	}
	if err := decodeJSONField(rec, "warnings", &d.Validation.Warnings); err != nil {
		return d, fmt.Errorf("decode warnings: %w", err)
	}
	return d, nil
}

// ValidateStoredDesign re-runs structural validation for a design record
// against its project and stores the outcome.
func ValidateStoredDesign(app core.App, designID string) (StructuralValidation, error) {
	rec, err := FindRecord(app, DesignsCollection, designID)
	if err != nil {
		return StructuralValidation{}, err
	}
	design, err := DesignFromRecord(rec)
	if err != nil {
		return StructuralValidation{}, err
	}
	projectRec, err := FindRecord(app, ProjectsCollection, rec.GetString("project"))
	if err != nil {
		return StructuralValidation{}, err
	}
	project, err := ProjectFromRecord(projectRec)
	if err != nil {
		return StructuralValidation{}, err
	}

	result := StructuralValidator{}.Validate(DesignRequestFor(project), design)
	setValidationFields(rec, result)
	if err := app.Save(rec); err != nil {
		return StructuralValidation{}, fmt.Errorf("save validation: %w", err)
	}
	return result, nil
}

// ── Quotations ───────────────────────────────────────────────────────────

// SaveQuotation numbers and stores a generated quotation with its items and
// payment schedule in one transaction.
func SaveQuotation(app core.App, projectID, designID string, q *GeneratedQuotation) (*core.Record, error) {
	var out *core.Record
	err := app.RunInTransaction(func(txApp core.App) error {
		col, err := txApp.FindCollectionByNameOrId(QuotationsCollection)
		if err != nil {
			return fmt.Errorf("find quotations collection: %w", err)
		}
		number, err := GenerateQuotationNumber(txApp, q.GeneratedAt)
		if err != nil {
			return err
		}

		rec := core.NewRecord(col)
		rec.Set("project", projectID)
		rec.Set("design", designID)
		rec.Set("quotation_number", number)
		rec.Set("currency", q.Currency)
		rec.Set("validity_days", q.ValidityDays)
		rec.Set("notes", nonNil(q.Notes))
		setTotals(rec, q.Totals)
		if err := txApp.Save(rec); err != nil {
			return fmt.Errorf("save quotation: %w", err)
		}
		if err := saveItems(txApp, rec.Id, q.Items); err != nil {
			return err
		}
		if err := saveMilestones(txApp, rec.Id, q.PaymentSchedule); err != nil {
			return err
		}

		if projectID != "" {
			project, err := FindRecord(txApp, ProjectsCollection, projectID)
			if err != nil {
				return err
			}
			project.Set("status", "quotation")
			if err := txApp.Save(project); err != nil {
				return fmt.Errorf("update project status: %w", err)
			}
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func setTotals(rec *core.Record, t Totals) {
	rec.Set("tax_percent", t.TaxPercent.InexactFloat64())
	rec.Set("subtotal", t.Subtotal.InexactFloat64())
	rec.Set("tax_amount", t.TaxAmount.InexactFloat64())
	rec.Set("grand_total", t.GrandTotal.InexactFloat64())
}

// StoredTotals reads the cached totals of a quotation record.
func StoredTotals(rec *core.Record) Totals {
	return Totals{
		Subtotal:   toDecimal(rec.GetFloat("subtotal")),
		TaxPercent: toDecimal(rec.GetFloat("tax_percent")),
		TaxAmount:  toDecimal(rec.GetFloat("tax_amount")),
		GrandTotal: toDecimal(rec.GetFloat("grand_total")),
	}
}

// LoadQuotationSheet loads a quotation and its items as an editable sheet.
// Totals are re-derived from the items; the stored ones are ignored.
func LoadQuotationSheet(app core.App, calc Calculator, quotationID string) (*QuotationSheet, *core.Record, error) {
	rec, err := FindRecord(app, QuotationsCollection, quotationID)
	if err != nil {
		return nil, nil, err
	}
	itemRecs, err := findChildren(app, QuotationItemsCollection, quotationID)
	if err != nil {
		return nil, nil, err
	}

	items := make([]LineItem, 0, len(itemRecs))
	for _, r := range itemRecs {
		items = append(items, LineItem{
			ItemCode:    r.GetString("item_code"),
			Description: r.GetString("description"),
			Unit:        r.GetString("unit"),
			Quantity:    toDecimal(r.GetFloat("quantity")),
			UnitRate:    toDecimal(r.GetFloat("unit_rate")),
			Category:    r.GetString("category"),
			Source:      r.GetString("source"),
		})
	}
	sheet, err := NewQuotationSheet(calc, items, toDecimal(rec.GetFloat("tax_percent")))
	if err != nil {
		return nil, nil, fmt.Errorf("quotation %s: %w", quotationID, err)
	}
	return sheet, rec, nil
}

// SaveQuotationSheet writes the sheet's items and totals back to the
// quotation and rescales its payment milestones to the new grand total.
// Callers run it inside a transaction so items and totals commit together.
func SaveQuotationSheet(app core.App, calc Calculator, rec *core.Record, sheet *QuotationSheet) error {
	if err := saveItems(app, rec.Id, sheet.Items()); err != nil {
		return err
	}
	totals := sheet.Totals()
	setTotals(rec, totals)
	if err := app.Save(rec); err != nil {
		return fmt.Errorf("save quotation totals: %w", err)
	}

	milestones, err := LoadMilestones(app, rec.Id)
	if err != nil {
		return err
	}
	if len(milestones) == 0 {
		return nil
	}
	return saveMilestones(app, rec.Id, RescaleMilestones(milestones, totals.GrandTotal, calc))
}

// saveItems makes the stored items of a quotation match items, updating
// rows in place and creating or deleting the difference.
func saveItems(app core.App, quotationID string, items []LineItem) error {
	col, err := app.FindCollectionByNameOrId(QuotationItemsCollection)
	if err != nil {
		return fmt.Errorf("find quotation_items collection: %w", err)
	}
	existing, err := findChildren(app, QuotationItemsCollection, quotationID)
	if err != nil {
		return err
	}

	for i, it := range items {
		var r *core.Record
		if i < len(existing) {
			r = existing[i]
		} else {
			r = core.NewRecord(col)
			r.Set("quotation", quotationID)
		}
		r.Set("sort_order", i)
		r.Set("item_code", it.ItemCode)
		r.Set("description", it.Description)
		r.Set("unit", it.Unit)
		r.Set("quantity", it.Quantity.InexactFloat64())
		r.Set("unit_rate", it.UnitRate.InexactFloat64())
		r.Set("line_total", it.LineTotal.InexactFloat64())
		r.Set("category", it.Category)
		r.Set("source", it.Source)
		if err := app.Save(r); err != nil {
			return fmt.Errorf("save item %d: %w", i, err)
		}
	}
	for _, r := range existing[min(len(items), len(existing)):] {
		if err := app.Delete(r); err != nil {
			return fmt.Errorf("delete item %s: %w", r.Id, err)
		}
	}
	return nil
}

// LoadMilestones returns the payment schedule of a quotation in order.
func LoadMilestones(app core.App, quotationID string) ([]PaymentMilestone, error) {
	recs, err := findChildren(app, PaymentMilestonesCollection, quotationID)
	if err != nil {
		return nil, err
	}
	out := make([]PaymentMilestone, 0, len(recs))
	for _, r := range recs {
		out = append(out, PaymentMilestone{
			Phase:       r.GetString("phase"),
			Percentage:  toDecimal(r.GetFloat("percentage")),
			Amount:      toDecimal(r.GetFloat("amount")),
			DueDate:     r.GetDateTime("due_date").Time(),
			Description: r.GetString("description"),
		})
	}
	return out, nil
}

func saveMilestones(app core.App, quotationID string, ms []PaymentMilestone) error {
	col, err := app.FindCollectionByNameOrId(PaymentMilestonesCollection)
	if err != nil {
		return fmt.Errorf("find payment_milestones collection: %w", err)
	}
	existing, err := findChildren(app, PaymentMilestonesCollection, quotationID)
	if err != nil {
		return err
	}
	for i, m := range ms {
		var r *core.Record
		if i < len(existing) {
			r = existing[i]
		} else {
			r = core.NewRecord(col)
			r.Set("quotation", quotationID)
		}
		r.Set("sort_order", i)
		r.Set("phase", m.Phase)
		r.Set("percentage", m.Percentage.InexactFloat64())
		r.Set("amount", m.Amount.InexactFloat64())
		r.Set("due_date", m.DueDate.UTC())
		r.Set("description", m.Description)
		if err := app.Save(r); err != nil {
			return fmt.Errorf("save milestone %q: %w", m.Phase, err)
		}
	}
	for _, r := range existing[min(len(ms), len(existing)):] {
		if err := app.Delete(r); err != nil {
			return fmt.Errorf("delete milestone %s: %w", r.Id, err)
		}
	}
	return nil
}

func findChildren(app core.App, collection, quotationID string) ([]*core.Record, error) {
	recs, err := app.FindRecordsByFilter(collection, "quotation = {:q}", "sort_order", 0, 0, map[string]any{"q": quotationID})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	return recs, nil
}

// CheckQuotation loads a quotation and reports whether its stored totals or
// any stored item line total differ from the values derived from the items.
func CheckQuotation(app core.App, calc Calculator, quotationID string) (bool, *QuotationSheet, *core.Record, error) {
	sheet, rec, err := LoadQuotationSheet(app, calc, quotationID)
	if err != nil {
		return false, nil, nil, err
	}
	stored := StoredTotals(rec)
	fresh := sheet.Totals()
	if !stored.Subtotal.Equal(fresh.Subtotal) || !stored.TaxAmount.Equal(fresh.TaxAmount) || !stored.GrandTotal.Equal(fresh.GrandTotal) {
		return true, sheet, rec, nil
	}

	itemRecs, err := findChildren(app, QuotationItemsCollection, quotationID)
	if err != nil {
		return false, nil, nil, err
	}
	for i, it := range sheet.Items() {
		if !toDecimal(itemRecs[i].GetFloat("line_total")).Equal(it.LineTotal) {
			return true, sheet, rec, nil
		}
	}
	return false, sheet, rec, nil
}

// RecalcQuotation re-derives the stored totals and item line totals of one
// quotation from its items. It reports whether anything changed.
func RecalcQuotation(app core.App, calc Calculator, quotationID string) (bool, error) {
	changed := false
	err := app.RunInTransaction(func(txApp core.App) error {
		stale, sheet, rec, err := CheckQuotation(txApp, calc, quotationID)
		if err != nil || !stale {
			return err
		}
		changed = true
		return SaveQuotationSheet(txApp, calc, rec, sheet)
	})
	return changed, err
}

// RecalcAllQuotations re-derives stored totals for every quotation and
// returns how many were corrected.
func RecalcAllQuotations(app core.App, calc Calculator) (int, error) {
	recs, err := app.FindAllRecords(QuotationsCollection)
	if err != nil {
		return 0, fmt.Errorf("query quotations: %w", err)
	}
	fixed := 0
	for _, r := range recs {
		changed, err := RecalcQuotation(app, calc, r.Id)
		if err != nil {
			return fixed, fmt.Errorf("recalc %s: %w", r.GetString("quotation_number"), err)
		}
		if changed {
			fixed++
		}
	}
	return fixed, nil
}

// ── BIM ──────────────────────────────────────────────────────────────────

// BIMModelType is the only export format offered.
const BIMModelType = "IFC"

// RecordBIMExport stores a BIM export entry for a design. No model file is
// produced; the record carries the path the file would be written to.
func RecordBIMExport(app core.App, designID, modelID string) (*core.Record, error) {
	design, err := FindRecord(app, DesignsCollection, designID)
	if err != nil {
		return nil, err
	}
	var rooms []Room
	if err := decodeJSONField(design, "rooms", &rooms); err != nil {
		return nil, fmt.Errorf("decode rooms: %w", err)
	}
	components := make([]string, 0, len(rooms))
	for _, r := range rooms {
		components = append(components, r.Name)
	}

	col, err := app.FindCollectionByNameOrId(BIMModelsCollection)
	if err != nil {
		return nil, fmt.Errorf("find bim_models collection: %w", err)
	}
	rec := core.NewRecord(col)
	rec.Set("design", designID)
	rec.Set("model_id", modelID)
	rec.Set("file_path", fmt.Sprintf("/exports/%s.ifc", designID))
	rec.Set("model_type", BIMModelType)
	rec.Set("components", components)
	if err := app.Save(rec); err != nil {
		return nil, fmt.Errorf("save bim model: %w", err)
	}
	return rec, nil
}

// QuotationCreated returns the creation time of a quotation record.
func QuotationCreated(rec *core.Record) time.Time {
	return rec.GetDateTime("created").Time()
}

// QuotationExportData loads a stored quotation with its project details,
// items and payment schedule, ready for export or display.
func QuotationExportData(app core.App, calc Calculator, quotationID string) (ExportData, error) {
	sheet, rec, err := LoadQuotationSheet(app, calc, quotationID)
	if err != nil {
		return ExportData{}, err
	}

	var projectName, location string
	if projectID := rec.GetString("project"); projectID != "" {
		projectRec, err := FindRecord(app, ProjectsCollection, projectID)
		if err != nil {
			return ExportData{}, err
		}
		p, err := ProjectFromRecord(projectRec)
		if err != nil {
			return ExportData{}, err
		}
		projectName = p.Name
		if p.Location != nil {
			location = p.Location.Label()
		}
	}

	data, err := NewExportData(QuotationTitle, rec.GetString("quotation_number"), projectName, location,
		QuotationCreated(rec), rec.GetString("currency"), sheet.Items(), sheet.Totals().TaxPercent, calc)
	if err != nil {
		return ExportData{}, err
	}
	if days := rec.GetInt("validity_days"); days > 0 {
		data.ValidityDays = days
	}
	if err := decodeJSONField(rec, "notes", &data.Notes); err != nil {
		return ExportData{}, fmt.Errorf("decode notes: %w", err)
	}

	milestones, err := LoadMilestones(app, quotationID)
	if err != nil {
		return ExportData{}, err
	}
	return data.WithMilestones(milestones), nil
}
