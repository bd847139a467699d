package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"jmstructural/services"
	"jmstructural/session"
	"jmstructural/testhelpers"
)

func TestHandleDesignList(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	project := testhelpers.CreateTestProject(t, app, "Listed")
	designs := testhelpers.CreateTestDesigns(t, app, project.Id)

	req := httptest.NewRequest(http.MethodGet, "/api/designs/?project="+project.Id, nil)
	rec := httptest.NewRecorder()
	if err := HandleDesignList(app)(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertStatus(t, rec, http.StatusOK)

	got := decodeBody[[]DesignResponse](t, rec)
	if len(got) != len(designs) {
		t.Fatalf("expected %d designs, got %d", len(designs), len(got))
	}
	for i, d := range got {
		if d.ID != designs[i].Id {
			t.Errorf("design %d: expected id %q, got %q", i, designs[i].Id, d.ID)
		}
	}
}

func TestHandleDesignList_RequiresProject(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	for _, target := range []string{"/api/designs/", "/api/designs/?project=missing"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		if err := HandleDesignList(app)(newTestRequestEvent(app, req, rec)); err != nil {
			t.Fatalf("handler returned error: %v", err)
		}
		if rec.Code != http.StatusBadRequest && rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 400 or 404, got %d", target, rec.Code)
		}
	}
}

func TestHandleValidateStructure(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	project := testhelpers.CreateTestProject(t, app, "Validated")
	design := testhelpers.CreateTestDesigns(t, app, project.Id)[0]

	req := httptest.NewRequest(http.MethodPost, "/api/designs/"+design.Id+"/validate_structure/", nil)
	req.SetPathValue("id", design.Id)
	rec := httptest.NewRecorder()
	if err := HandleValidateStructure(app)(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertStatus(t, rec, http.StatusOK)

	got := decodeBody[services.StructuralValidation](t, rec)
	if got.CodeReference != services.BuildingCode {
		t.Errorf("expected code reference %q, got %q", services.BuildingCode, got.CodeReference)
	}
	if got.ComplianceScore < 0 || got.ComplianceScore > 100 {
		t.Errorf("score out of range: %d", got.ComplianceScore)
	}
}

func TestHandleSelectDesign_UpdatesSession(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	deps := newTestDeps(t, app)
	project := testhelpers.CreateTestProject(t, app, "Selected")
	designs := testhelpers.CreateTestDesigns(t, app, project.Id)
	sid := session.NewID()

	if _, err := deps.Sessions.Dispatch(sid, session.SetQuotation{QuotationID: "stale"}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	req := newRequest(http.MethodPost, "/api/designs/"+designs[1].Id+"/select/", nil, sid, "")
	req.SetPathValue("id", designs[1].Id)
	rec := httptest.NewRecorder()
	if err := HandleSelectDesign(app, deps)(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertStatus(t, rec, http.StatusOK)

	got := decodeBody[session.State](t, rec)
	if got.SelectedDesignID != designs[1].Id || got.CurrentProjectID != project.Id {
		t.Errorf("unexpected state %+v", got)
	}
	if got.QuotationID != "" {
		t.Errorf("expected quotation to be cleared, got %q", got.QuotationID)
	}
}

func TestHandleFloorPlanSVG(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	project := testhelpers.CreateTestProject(t, app, "Drawn")
	design := testhelpers.CreateTestDesigns(t, app, project.Id)[0]

	tests := []struct {
		name     string
		query    string
		contains []string
		excludes []string
	}{
		{"defaults", "", []string{`data-zoom="100"`, `class="grid"`, `class="dimension"`, `class="room"`}, nil},
		{"zoomed without grid", "?zoom=150&grid=false", []string{`data-zoom="150"`, `class="dimension"`}, []string{`class="grid"`}},
		{"clamped", "?zoom=900&dimensions=0", []string{`data-zoom="200"`}, []string{`class="dimension"`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/designs/"+design.Id+"/floorplan.svg"+tt.query, nil)
			req.SetPathValue("id", design.Id)
			rec := httptest.NewRecorder()
			if err := HandleFloorPlanSVG(app)(newTestRequestEvent(app, req, rec)); err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			assertStatus(t, rec, http.StatusOK)
			if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
				t.Errorf("expected svg content type, got %q", ct)
			}
			body := rec.Body.String()
			testhelpers.AssertHTMLContains(t, body, tt.contains...)
			for _, s := range tt.excludes {
				if strings.Contains(body, s) {
					t.Errorf("expected %q to be absent", s)
				}
			}
		})
	}
}

func TestHandleDesignSchedule(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	project := testhelpers.CreateTestProject(t, app, "Scheduled")
	design := testhelpers.CreateTestDesigns(t, app, project.Id)[0]

	run := func(role services.Role) *httptest.ResponseRecorder {
		req := newRequest(http.MethodGet, "/api/designs/"+design.Id+"/schedule/", nil, "", role)
		req.SetPathValue("id", design.Id)
		rec := httptest.NewRecorder()
		if err := HandleDesignSchedule(app)(newTestRequestEvent(app, req, rec)); err != nil {
			t.Fatalf("handler returned error: %v", err)
		}
		return rec
	}

	rec := run(services.RoleContractor)
	assertStatus(t, rec, http.StatusOK)
	got := decodeBody[ScheduleResponse](t, rec)
	if len(got.Tasks) != 6 {
		t.Errorf("expected 6 tasks, got %d", len(got.Tasks))
	}
	if got.MinWeeks <= 0 || got.MaxWeeks < got.MinWeeks {
		t.Errorf("unexpected duration %d-%d weeks", got.MinWeeks, got.MaxWeeks)
	}

	assertStatus(t, run(services.RoleHomeowner), http.StatusForbidden)
}
