package handlers

import (
	"net/http"
	"net/url"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"jmstructural/services"
	"jmstructural/session"
	"jmstructural/templates"
)

const missingDesignMessage = "Please select a design first"

// HandleQuotationPage renders the session's quotation. Without a selected
// design it redirects to the design input page; with a design but no
// quotation it generates one.
func HandleQuotationPage(app *pocketbase.PocketBase, deps *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		state, err := currentState(e, deps)
		if err != nil {
			return respondError(e, "quotation_page", err)
		}
		if !state.HasSelectedDesign() {
			target := "/design-input?message=" + url.QueryEscape(missingDesignMessage)
			if isHTMX(e) {
				e.Response.Header().Set("HX-Redirect", target)
				return e.NoContent(http.StatusOK)
			}
			return e.Redirect(http.StatusFound, target)
		}

		quotationID := state.QuotationID
		if quotationID != "" {
			if _, err := services.FindRecord(app, services.QuotationsCollection, quotationID); err != nil {
				quotationID = ""
			}
		}
		if quotationID == "" {
			rec, err := generateQuotation(e.Request.Context(), app, deps, state.SelectedDesignID)
			if err != nil {
				_, _ = dispatch(e, deps, session.SetError{Message: err.Error()})
				return respondError(e, "quotation_page", err)
			}
			quotationID = rec.Id
			if _, err := dispatch(e, deps, session.SetQuotation{QuotationID: quotationID}); err != nil {
				return respondError(e, "quotation_page", err)
			}
		}

		data, err := services.QuotationExportData(app, deps.Config.Calculator(), quotationID)
		if err != nil {
			return respondError(e, "quotation_page", err)
		}
		e.Response.Header().Set("Content-Type", "text/html; charset=utf-8")
		return templates.QuotationPage(templates.QuotationPageData{
			QuotationID: quotationID,
			Quotation:   data,
			Role:        GetRole(e.Request),
		}).Render(e.Request.Context(), e.Response)
	}
}

// HandleDesignInputPage renders the project wizard, prefilled from the
// session's current project when there is one.
func HandleDesignInputPage(app *pocketbase.PocketBase, deps *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		state, err := currentState(e, deps)
		if err != nil {
			return respondError(e, "design_input_page", err)
		}

		data := templates.DesignInputPageData{Message: e.Request.URL.Query().Get("message")}
		if state.CurrentProjectID != "" {
			if rec, err := services.FindRecord(app, services.ProjectsCollection, state.CurrentProjectID); err == nil {
				if p, err := services.ProjectFromRecord(rec); err == nil {
					data.Project = p
				}
			}
		}

		e.Response.Header().Set("Content-Type", "text/html; charset=utf-8")
		return templates.DesignInputPage(data).Render(e.Request.Context(), e.Response)
	}
}
