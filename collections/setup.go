package collections

import (
	"fmt"

	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"jmstructural/services"
)

// Setup programmatically creates/ensures every collection the app uses.
// Collections that already exist are left untouched.
func Setup(app core.App) error {
	projects, err := ensureCollection(app, "projects", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "description"})
		c.Fields.Add(&core.SelectField{
			Name:      "project_type",
			Required:  true,
			Values:    services.ProjectTypes,
			MaxSelect: 1,
		})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			Values:    services.ProjectStatuses,
			MaxSelect: 1,
		})
		c.Fields.Add(&core.JSONField{Name: "budget"})
		c.Fields.Add(&core.JSONField{Name: "location"})
		c.Fields.Add(&core.JSONField{Name: "requirements"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})
	if err != nil {
		return err
	}

	designs, err := ensureCollection(app, "designs", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "project",
			Required:      true,
			CollectionId:  projects.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.NumberField{Name: "sort_order"})
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "description"})
		c.Fields.Add(&core.TextField{Name: "variant"})
		c.Fields.Add(&core.NumberField{Name: "bedrooms"})
		c.Fields.Add(&core.NumberField{Name: "bathrooms"})
		c.Fields.Add(&core.NumberField{Name: "floors"})
		c.Fields.Add(&core.TextField{Name: "style"})
		c.Fields.Add(&core.TextField{Name: "building_type"})
		c.Fields.Add(&core.NumberField{Name: "area"})
		c.Fields.Add(&core.NumberField{Name: "cost"})
		c.Fields.Add(&core.JSONField{Name: "rooms"})
		c.Fields.Add(&core.NumberField{Name: "compliance_score"})
		c.Fields.Add(&core.BoolField{Name: "is_compliant"})
		c.Fields.Add(&core.JSONField{Name: "violations"})
		c.Fields.Add(&core.JSONField{Name: "warnings"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
	})
	if err != nil {
		return err
	}

	// project and design are optional so a quotation survives as a
	// standalone document.
	quotations, err := ensureCollection(app, "quotations", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "project",
			CollectionId:  projects.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.RelationField{
			Name:         "design",
			CollectionId: designs.Id,
			MaxSelect:    1,
		})
		c.Fields.Add(&core.TextField{Name: "quotation_number", Required: true})
		c.Fields.Add(&core.TextField{Name: "currency", Required: true})
		c.Fields.Add(&core.NumberField{Name: "tax_percent"})
		c.Fields.Add(&core.NumberField{Name: "subtotal"})
		c.Fields.Add(&core.NumberField{Name: "tax_amount"})
		c.Fields.Add(&core.NumberField{Name: "grand_total"})
		c.Fields.Add(&core.NumberField{Name: "validity_days"})
		c.Fields.Add(&core.JSONField{Name: "notes"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})
	if err != nil {
		return err
	}

	_, err = ensureCollection(app, "quotation_items", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "quotation",
			Required:      true,
			CollectionId:  quotations.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.NumberField{Name: "sort_order"})
		c.Fields.Add(&core.TextField{Name: "item_code"})
		c.Fields.Add(&core.TextField{Name: "description"})
		c.Fields.Add(&core.TextField{Name: "unit"})
		c.Fields.Add(&core.NumberField{Name: "quantity"})
		c.Fields.Add(&core.NumberField{Name: "unit_rate"})
		c.Fields.Add(&core.NumberField{Name: "line_total"})
		c.Fields.Add(&core.TextField{Name: "category"})
		c.Fields.Add(&core.TextField{Name: "source"})
	})
	if err != nil {
		return err
	}

	_, err = ensureCollection(app, "payment_milestones", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "quotation",
			Required:      true,
			CollectionId:  quotations.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.NumberField{Name: "sort_order"})
		c.Fields.Add(&core.TextField{Name: "phase", Required: true})
		c.Fields.Add(&core.NumberField{Name: "percentage"})
		c.Fields.Add(&core.NumberField{Name: "amount"})
		c.Fields.Add(&core.DateField{Name: "due_date"})
		c.Fields.Add(&core.TextField{Name: "description"})
	})
	if err != nil {
		return err
	}

	_, err = ensureCollection(app, "bim_models", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "design",
			Required:      true,
			CollectionId:  designs.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "model_id", Required: true})
		c.Fields.Add(&core.TextField{Name: "file_path"})
		c.Fields.Add(&core.TextField{Name: "model_type"})
		c.Fields.Add(&core.JSONField{Name: "components"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
	})
	if err != nil {
		return err
	}

	_, err = ensureCollection(app, "kv_entries", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "key", Required: true})
		c.Fields.Add(&core.JSONField{Name: "value"})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_kv_entries_key", true, "key", "")
	})
	return err
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app core.App, name string, addFields func(*core.Collection)) (*core.Collection, error) {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		zap.L().Debug("collection already exists, skipping creation", zap.String("collection", name))
		return existing, nil
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		return nil, fmt.Errorf("create collection %q: %w", name, err)
	}

	zap.L().Info("created collection", zap.String("collection", name), zap.String("id", collection.Id))
	return collection, nil
}
