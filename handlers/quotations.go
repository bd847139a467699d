package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"jmstructural/services"
	"jmstructural/session"
)

// QuotationResponse is the JSON shape of a stored quotation.
type QuotationResponse struct {
	ID              string                      `json:"id"`
	QuotationNumber string                      `json:"quotationNumber"`
	ProjectID       string                      `json:"projectId"`
	DesignID        string                      `json:"designId"`
	Currency        string                      `json:"currency"`
	Items           []services.LineItem         `json:"items"`
	Totals          services.Totals             `json:"totals"`
	PaymentSchedule []services.PaymentMilestone `json:"paymentSchedule"`
	ValidityDays    int                         `json:"validityDays"`
	AmountInWords   string                      `json:"amountInWords"`
	Created         string                      `json:"created"`
}

func loadQuotationResponse(app core.App, calc services.Calculator, id string) (QuotationResponse, error) {
	sheet, rec, err := services.LoadQuotationSheet(app, calc, id)
	if err != nil {
		return QuotationResponse{}, err
	}
	milestones, err := services.LoadMilestones(app, id)
	if err != nil {
		return QuotationResponse{}, err
	}
	totals := sheet.Totals()
	return QuotationResponse{
		ID:              rec.Id,
		QuotationNumber: rec.GetString("quotation_number"),
		ProjectID:       rec.GetString("project"),
		DesignID:        rec.GetString("design"),
		Currency:        rec.GetString("currency"),
		Items:           sheet.Items(),
		Totals:          totals,
		PaymentSchedule: milestones,
		ValidityDays:    rec.GetInt("validity_days"),
		AmountInWords:   services.AmountToWords(totals.GrandTotal),
		Created:         services.QuotationCreated(rec).Format(time.RFC3339),
	}, nil
}

// generateQuotation prices designID for its project and stores the result.
func generateQuotation(ctx context.Context, app core.App, deps *Deps, designID string) (*core.Record, error) {
	designRec, err := services.FindRecord(app, services.DesignsCollection, designID)
	if err != nil {
		return nil, err
	}
	design, err := services.DesignFromRecord(designRec)
	if err != nil {
		return nil, err
	}
	projectID := designRec.GetString("project")
	projectRec, err := services.FindRecord(app, services.ProjectsCollection, projectID)
	if err != nil {
		return nil, err
	}
	project, err := services.ProjectFromRecord(projectRec)
	if err != nil {
		return nil, err
	}

	in := services.QuotationInput{
		ProjectName: project.Name,
		PlotSize:    services.DesignRequestFor(project).PlotSize,
		Design:      design,
	}
	if project.Location != nil {
		in.Location = project.Location.Label()
	}

	q, err := deps.quotationGenerator().Generate(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("generate quotation: %w", err)
	}
	return services.SaveQuotation(app, projectID, designID, q)
}

type generateQuotationRequest struct {
	DesignID string `json:"designId"`
}

// HandleGenerateQuotation prices the requested design, or the session's
// selected design when the body names none.
func HandleGenerateQuotation(app *pocketbase.PocketBase, deps *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := requirePermission(e, services.PermRequestQuote); err != nil {
			return respondError(e, "generate_quotation", err)
		}

		var body generateQuotationRequest
		if isJSON(e.Request) {
			if err := e.BindBody(&body); err != nil {
				return ErrorToast(e, http.StatusBadRequest, "Invalid request body")
			}
		}
		designID := body.DesignID
		if designID == "" {
			state, err := currentState(e, deps)
			if err != nil {
				return respondError(e, "generate_quotation", err)
			}
			designID = state.SelectedDesignID
		}
		if designID == "" {
			return ErrorToast(e, http.StatusBadRequest, "Select a design first")
		}

		rec, err := generateQuotation(e.Request.Context(), app, deps, designID)
		if err != nil {
			return respondError(e, "generate_quotation", err)
		}
		if _, err := dispatch(e, deps,
			session.SetCurrentProject{ProjectID: rec.GetString("project")},
			session.SetSelectedDesign{DesignID: designID},
			session.SetQuotation{QuotationID: rec.Id},
		); err != nil {
			return respondError(e, "generate_quotation", err)
		}

		resp, err := loadQuotationResponse(app, deps.Config.Calculator(), rec.Id)
		if err != nil {
			return respondError(e, "generate_quotation", err)
		}
		SetToast(e, "success", "Quotation "+resp.QuotationNumber+" generated")
		return e.JSON(http.StatusCreated, resp)
	}
}

// QuotationSummary is one row of the quotation list.
type QuotationSummary struct {
	ID              string          `json:"id"`
	QuotationNumber string          `json:"quotationNumber"`
	ProjectID       string          `json:"projectId"`
	DesignID        string          `json:"designId"`
	GrandTotal      decimal.Decimal `json:"grandTotal"`
	Currency        string          `json:"currency"`
	Created         string          `json:"created"`
}

// HandleQuotationList lists quotations, newest first, optionally limited
// to ?project=.
func HandleQuotationList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var (
			records []*core.Record
			err     error
		)
		if projectID := e.Request.URL.Query().Get("project"); projectID != "" {
			records, err = app.FindRecordsByFilter(services.QuotationsCollection, "project = {:projectId}", "", 0, 0, map[string]any{"projectId": projectID})
		} else {
			records, err = app.FindAllRecords(services.QuotationsCollection)
		}
		if err != nil {
			return respondError(e, "quotation_list", err)
		}
		sortNewestFirst(records)

		out := make([]QuotationSummary, 0, len(records))
		for _, rec := range records {
			out = append(out, QuotationSummary{
				ID:              rec.Id,
				QuotationNumber: rec.GetString("quotation_number"),
				ProjectID:       rec.GetString("project"),
				DesignID:        rec.GetString("design"),
				GrandTotal:      services.StoredTotals(rec).GrandTotal,
				Currency:        rec.GetString("currency"),
				Created:         services.QuotationCreated(rec).Format(time.RFC3339),
			})
		}
		return e.JSON(http.StatusOK, out)
	}
}

// HandleQuotationDetail returns a quotation with its items and totals.
func HandleQuotationDetail(app *pocketbase.PocketBase, deps *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		resp, err := loadQuotationResponse(app, deps.Config.Calculator(), e.Request.PathValue("id"))
		if err != nil {
			return respondError(e, "quotation_detail", err)
		}
		return e.JSON(http.StatusOK, resp)
	}
}
