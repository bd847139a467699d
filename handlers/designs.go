package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"

	"jmstructural/services"
	"jmstructural/session"
	"jmstructural/templates"
)

// HandleDesignList returns the designs of the project named by ?project=,
// in generation order.
func HandleDesignList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.URL.Query().Get("project")
		if projectID == "" {
			return ErrorToast(e, http.StatusBadRequest, "Missing project parameter")
		}
		if _, err := services.FindRecord(app, services.ProjectsCollection, projectID); err != nil {
			return respondError(e, "design_list", err)
		}

		records, err := app.FindRecordsByFilter(services.DesignsCollection, "project = {:projectId}", "sort_order", 0, 0, map[string]any{"projectId": projectID})
		if err != nil {
			return respondError(e, "design_list", err)
		}
		out := make([]DesignResponse, 0, len(records))
		for _, rec := range records {
			d, err := designResponse(rec)
			if err != nil {
				return respondError(e, "design_list", err)
			}
			out = append(out, d)
		}
		return e.JSON(http.StatusOK, out)
	}
}

// HandleValidateStructure re-runs the building code checks for a design and
// stores the outcome on it.
func HandleValidateStructure(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		v, err := services.ValidateStoredDesign(app, e.Request.PathValue("id"))
		if err != nil {
			return respondError(e, "validate_structure", err)
		}
		return e.JSON(http.StatusOK, v)
	}
}

// HandleSelectDesign makes a design, and its project, current for the
// session. Selecting a different design clears the session's quotation.
func HandleSelectDesign(app *pocketbase.PocketBase, deps *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rec, err := services.FindRecord(app, services.DesignsCollection, e.Request.PathValue("id"))
		if err != nil {
			return respondError(e, "select_design", err)
		}
		state, err := dispatch(e, deps,
			session.SetCurrentProject{ProjectID: rec.GetString("project")},
			session.SetSelectedDesign{DesignID: rec.Id},
		)
		if err != nil {
			return respondError(e, "select_design", err)
		}
		SetToast(e, "success", "Design selected")
		return e.JSON(http.StatusOK, state)
	}
}

// HandleFloorPlanSVG draws a design's rooms. Query parameters: zoom
// (percent), grid and dimensions (booleans, default on).
func HandleFloorPlanSVG(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rec, err := services.FindRecord(app, services.DesignsCollection, e.Request.PathValue("id"))
		if err != nil {
			return respondError(e, "floorplan", err)
		}
		design, err := services.DesignFromRecord(rec)
		if err != nil {
			return respondError(e, "floorplan", err)
		}

		q := e.Request.URL.Query()
		opts := templates.FloorPlanOptions{
			Zoom:           cast.ToInt(q.Get("zoom")),
			ShowGrid:       queryBool(q.Get("grid"), true),
			ShowDimensions: queryBool(q.Get("dimensions"), true),
		}

		e.Response.Header().Set("Content-Type", "image/svg+xml")
		plan := services.LayoutFloorPlan(design.Rooms)
		return templates.FloorPlanSVG(design.Name, plan, opts).Render(e.Request.Context(), e.Response)
	}
}

func queryBool(v string, def bool) bool {
	if v == "" {
		return def
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return def
	}
	return b
}

// ScheduleResponse is the construction programme of a design.
type ScheduleResponse struct {
	DesignID string                  `json:"designId"`
	Tasks    []services.ScheduleTask `json:"tasks"`
	MinWeeks int                     `json:"minWeeks"`
	MaxWeeks int                     `json:"maxWeeks"`
}

// HandleDesignSchedule returns the construction schedule for a design.
func HandleDesignSchedule(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := requirePermission(e, services.PermViewSchedule); err != nil {
			return respondError(e, "design_schedule", err)
		}
		rec, err := services.FindRecord(app, services.DesignsCollection, e.Request.PathValue("id"))
		if err != nil {
			return respondError(e, "design_schedule", err)
		}

		tasks := services.ConstructionSchedule(rec.GetInt("floors"))
		if err := services.ValidateSchedule(tasks); err != nil {
			return respondError(e, "design_schedule", err)
		}
		lo, hi := services.ScheduleWeeks(tasks)
		return e.JSON(http.StatusOK, ScheduleResponse{DesignID: rec.Id, Tasks: tasks, MinWeeks: lo, MaxWeeks: hi})
	}
}
