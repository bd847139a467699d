package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"jmstructural/logging"
	"jmstructural/services"
	"jmstructural/session"
)

// ProjectResponse is the JSON shape of a project.
type ProjectResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	services.ProjectInput
	Created string `json:"created"`
}

func projectResponse(rec *core.Record) (ProjectResponse, error) {
	p, err := services.ProjectFromRecord(rec)
	if err != nil {
		return ProjectResponse{}, err
	}
	return ProjectResponse{
		ID:           rec.Id,
		Status:       rec.GetString("status"),
		ProjectInput: p,
		Created:      rec.GetDateTime("created").Time().Format(time.RFC3339),
	}, nil
}

// HandleProjectList returns every project, newest first.
func HandleProjectList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		records, err := app.FindAllRecords(services.ProjectsCollection)
		if err != nil {
			return respondError(e, "project_list", err)
		}
		sortNewestFirst(records)
		out := make([]ProjectResponse, 0, len(records))
		for _, rec := range records {
			p, err := projectResponse(rec)
			if err != nil {
				return respondError(e, "project_list", err)
			}
			out = append(out, p)
		}
		return e.JSON(http.StatusOK, out)
	}
}

func sortNewestFirst(records []*core.Record) {
	slices.SortStableFunc(records, func(a, b *core.Record) int {
		return b.GetDateTime("created").Time().Compare(a.GetDateTime("created").Time())
	})
}

// HandleProjectCreate validates the wizard input, creates the project and
// makes it the session's current project. It accepts JSON or the wizard's
// form encoding.
func HandleProjectCreate(app *pocketbase.PocketBase, deps *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in services.ProjectInput
		if isJSON(e.Request) {
			if err := e.BindBody(&in); err != nil {
				return ErrorToast(e, http.StatusBadRequest, "Invalid request body")
			}
		} else {
			if err := e.Request.ParseForm(); err != nil {
				return ErrorToast(e, http.StatusBadRequest, "Invalid form data")
			}
			in = projectInputFromForm(e.Request)
		}

		rec, err := services.SaveProject(app, in)
		if err != nil {
			return respondError(e, "project_create", err)
		}
		if _, err := dispatch(e, deps, session.AddProject{ProjectID: rec.Id}); err != nil {
			return respondError(e, "project_create", err)
		}

		resp, err := projectResponse(rec)
		if err != nil {
			return respondError(e, "project_create", err)
		}
		SetToast(e, "success", "Project created")
		return e.JSON(http.StatusCreated, resp)
	}
}

// projectInputFromForm reads the wizard form. Field names use dotted paths
// such as budget.amount.
func projectInputFromForm(r *http.Request) services.ProjectInput {
	f := r.PostForm
	in := services.ProjectInput{
		Name:        f.Get("name"),
		Description: f.Get("description"),
		ProjectType: f.Get("project_type"),
	}
	if amount := f.Get("budget.amount"); amount != "" || f.Get("budget.type") != "" {
		in.Budget = &services.Budget{
			Amount: cast.ToFloat64(amount),
			Type:   f.Get("budget.type"),
		}
	}
	if county, address := f.Get("location.county"), f.Get("location.address"); county != "" || address != "" {
		in.Location = &services.Location{County: county, Address: address}
	}
	req := services.Requirements{
		Bedrooms:     formInt(f, "requirements.bedrooms"),
		Bathrooms:    formInt(f, "requirements.bathrooms"),
		Floors:       cast.ToInt(f.Get("requirements.floors")),
		PlotSize:     cast.ToFloat64(f.Get("requirements.plotSize")),
		BuildingType: services.BuildingType(f.Get("requirements.buildingType")),
		Style:        services.Style(f.Get("requirements.style")),
	}
	if req != (services.Requirements{}) {
		in.Requirements = &req
	}
	return in
}

// formInt returns nil for an absent or blank field so defaults apply only to
// values the form did not send.
func formInt(f url.Values, key string) *int {
	v := strings.TrimSpace(f.Get(key))
	if v == "" {
		return nil
	}
	return services.IntPtr(cast.ToInt(v))
}

// HandleProjectDetail returns one project.
func HandleProjectDetail(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rec, err := services.FindRecord(app, services.ProjectsCollection, e.Request.PathValue("id"))
		if err != nil {
			return respondError(e, "project_detail", err)
		}
		resp, err := projectResponse(rec)
		if err != nil {
			return respondError(e, "project_detail", err)
		}
		return e.JSON(http.StatusOK, resp)
	}
}

// DesignResponse is the JSON shape of a stored design.
type DesignResponse struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`
	services.Design
}

func designResponse(rec *core.Record) (DesignResponse, error) {
	d, err := services.DesignFromRecord(rec)
	if err != nil {
		return DesignResponse{}, err
	}
	return DesignResponse{ID: rec.Id, ProjectID: rec.GetString("project"), Design: d}, nil
}

// HandleGenerateDesign runs the design generator for a project and stores
// the candidates. A newer request from the same session cancels this one.
func HandleGenerateDesign(app *pocketbase.PocketBase, deps *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := requirePermission(e, services.PermGenerateDesign); err != nil {
			return respondError(e, "generate_design", err)
		}

		projectID := e.Request.PathValue("id")
		rec, err := services.FindRecord(app, services.ProjectsCollection, projectID)
		if err != nil {
			return respondError(e, "generate_design", err)
		}
		project, err := services.ProjectFromRecord(rec)
		if err != nil {
			return respondError(e, "generate_design", err)
		}

		var saved []*core.Record
		err = runGeneration(e, deps, services.DesignRequestFor(project), func(designs []services.Design) error {
			var err error
			saved, err = services.SaveDesigns(app, projectID, designs)
			return err
		})
		if err != nil {
			return respondError(e, "generate_design", err)
		}
		if _, err := dispatch(e, deps, session.SetCurrentProject{ProjectID: projectID}); err != nil {
			return respondError(e, "generate_design", err)
		}

		out := make([]DesignResponse, 0, len(saved))
		for _, r := range saved {
			d, err := designResponse(r)
			if err != nil {
				return respondError(e, "generate_design", err)
			}
			out = append(out, d)
		}
		SetToast(e, "success", fmt.Sprintf("Generated %d designs", len(out)))
		return e.JSON(http.StatusCreated, map[string]any{"designs": out})
	}
}

// runGeneration calls the generator under the session's generation slot
// and the configured timeout, then hands the designs to persist. The slot
// stays loading until persist returns. A generation superseded before
// persist runs is discarded.
func runGeneration(e *core.RequestEvent, deps *Deps, req services.DesignRequest, persist func([]services.Design) error) error {
	log := logging.FromContext(e.Request.Context())
	ctx := e.Request.Context()
	finish := func(error) {}

	if id := GetSessionID(e.Request); id != "" && deps.Sessions != nil {
		genCtx, done, err := deps.Sessions.BeginGeneration(ctx, id)
		if err != nil {
			return err
		}
		ctx, finish = genCtx, done
	}
	if deps.Config.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, deps.Config.GenerationTimeout)
		defer cancel()
	}

	designs, err := deps.Generator.Generate(ctx, req, func(percent int, message string) {
		log.Debug("generation progress", zap.Int("percent", percent), zap.String("message", message))
	})
	if err == nil {
		err = ctx.Err()
	}
	if err == nil {
		err = persist(designs)
	}
	finish(err)

	if errors.Is(err, context.Canceled) && e.Request.Context().Err() == nil {
		return fmt.Errorf("%w: %w", errSuperseded, err)
	}
	return err
}
