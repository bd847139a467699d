package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"

	"jmstructural/services"
	"jmstructural/templates"
)

// editSheet loads a quotation sheet, applies op and writes items and totals
// back in a single transaction. A failing op leaves the stored quotation
// unchanged.
func editSheet(app core.App, calc services.Calculator, quotationID string, op func(*services.QuotationSheet) error) error {
	return app.RunInTransaction(func(txApp core.App) error {
		sheet, rec, err := services.LoadQuotationSheet(txApp, calc, quotationID)
		if err != nil {
			return err
		}
		if err := op(sheet); err != nil {
			return err
		}
		return services.SaveQuotationSheet(txApp, calc, rec, sheet)
	})
}

// respondSheet answers an item edit: the re-rendered quotation section for
// HTMX requests, otherwise the quotation JSON.
func respondSheet(e *core.RequestEvent, app *pocketbase.PocketBase, deps *Deps, quotationID, op string) error {
	calc := deps.Config.Calculator()
	if isHTMX(e) {
		data, err := services.QuotationExportData(app, calc, quotationID)
		if err != nil {
			return respondError(e, op, err)
		}
		e.Response.Header().Set("Content-Type", "text/html; charset=utf-8")
		return templates.QuotationSection(templates.QuotationPageData{
			QuotationID: quotationID,
			Quotation:   data,
			Role:        GetRole(e.Request),
		}).Render(e.Request.Context(), e.Response)
	}
	resp, err := loadQuotationResponse(app, calc, quotationID)
	if err != nil {
		return respondError(e, op, err)
	}
	return e.JSON(http.StatusOK, resp)
}

type addItemRequest struct {
	ItemCode    string `json:"item_code"`
	Description string `json:"description"`
	Unit        string `json:"unit"`
	Quantity    any    `json:"quantity"`
	UnitRate    any    `json:"unit_rate"`
	Category    string `json:"category"`
	Source      string `json:"source"`
}

// HandleAddItem appends a line item. An empty body adds the placeholder row.
func HandleAddItem(app *pocketbase.PocketBase, deps *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := requirePermission(e, services.PermEditBudget); err != nil {
			return respondError(e, "add_item", err)
		}
		quotationID := e.Request.PathValue("id")

		var body addItemRequest
		if isJSON(e.Request) {
			if err := e.BindBody(&body); err != nil {
				return ErrorToast(e, http.StatusBadRequest, "Invalid request body")
			}
		}

		err := editSheet(app, deps.Config.Calculator(), quotationID, func(s *services.QuotationSheet) error {
			item := services.DefaultLineItem(s.Len())
			if body.ItemCode != "" {
				item.ItemCode = body.ItemCode
			}
			if body.Description != "" {
				item.Description = body.Description
			}
			if body.Unit != "" {
				item.Unit = body.Unit
			}
			if body.Category != "" {
				item.Category = body.Category
			}
			if body.Source != "" {
				item.Source = body.Source
			}
			if err := s.AddItem(item); err != nil {
				return err
			}
			idx := s.Len() - 1
			if body.Quantity != nil {
				if err := s.EditItem(idx, services.FieldQuantity, body.Quantity); err != nil {
					return err
				}
			}
			if body.UnitRate != nil {
				return s.EditItem(idx, services.FieldUnitRate, body.UnitRate)
			}
			return nil
		})
		if err != nil {
			return respondError(e, "add_item", err)
		}

		SetToast(e, "success", "Item added")
		return respondSheet(e, app, deps, quotationID, "add_item")
	}
}

type editItemRequest struct {
	Field services.Field `json:"field"`
	Value any            `json:"value"`
}

// HandleEditItem changes one field of the item at {index}.
func HandleEditItem(app *pocketbase.PocketBase, deps *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := requirePermission(e, services.PermEditBudget); err != nil {
			return respondError(e, "edit_item", err)
		}
		quotationID := e.Request.PathValue("id")
		index, err := cast.ToIntE(e.Request.PathValue("index"))
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid item index")
		}

		var body editItemRequest
		if err := e.BindBody(&body); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid request body")
		}
		if body.Field == "" {
			return ErrorToast(e, http.StatusBadRequest, "Missing field")
		}

		err = editSheet(app, deps.Config.Calculator(), quotationID, func(s *services.QuotationSheet) error {
			return s.EditItem(index, body.Field, body.Value)
		})
		if err != nil {
			return respondError(e, "edit_item", err)
		}
		return respondSheet(e, app, deps, quotationID, "edit_item")
	}
}

// HandleDeleteItem removes the item at {index}.
func HandleDeleteItem(app *pocketbase.PocketBase, deps *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := requirePermission(e, services.PermEditBudget); err != nil {
			return respondError(e, "delete_item", err)
		}
		quotationID := e.Request.PathValue("id")
		index, err := cast.ToIntE(e.Request.PathValue("index"))
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid item index")
		}

		err = editSheet(app, deps.Config.Calculator(), quotationID, func(s *services.QuotationSheet) error {
			return s.DeleteItem(index)
		})
		if err != nil {
			return respondError(e, "delete_item", err)
		}

		SetToast(e, "success", "Item deleted")
		return respondSheet(e, app, deps, quotationID, "delete_item")
	}
}
