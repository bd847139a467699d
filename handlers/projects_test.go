package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"jmstructural/services"
	"jmstructural/session"
	"jmstructural/testhelpers"
)

func TestHandleProjectCreate_JSON(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	deps := newTestDeps(t, app)
	sid := session.NewID()

	in := testhelpers.TestProjectInput("Karen Villa")
	req := newRequest(http.MethodPost, "/api/projects/", in, sid, "")
	rec := httptest.NewRecorder()

	if err := HandleProjectCreate(app, deps)(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertStatus(t, rec, http.StatusCreated)

	got := decodeBody[ProjectResponse](t, rec)
	if got.ID == "" || got.Name != "Karen Villa" {
		t.Errorf("unexpected project %+v", got)
	}
	if got.Status != "planning" {
		t.Errorf("expected status planning, got %q", got.Status)
	}
	if got.Requirements == nil || got.Requirements.BedroomCount() != 3 {
		t.Errorf("expected default requirements, got %+v", got.Requirements)
	}

	state, err := deps.Sessions.Get(sid)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if state.CurrentProjectID != got.ID {
		t.Errorf("expected session project %q, got %q", got.ID, state.CurrentProjectID)
	}
}

func TestHandleProjectCreate_Form(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	deps := newTestDeps(t, app)

	form := url.Values{}
	form.Set("name", "Nyali Maisonette")
	form.Set("budget.amount", "4500000")
	form.Set("budget.type", "construction")
	form.Set("location.county", "mombasa")
	form.Set("requirements.bedrooms", "4")
	form.Set("requirements.buildingType", "maisonette")

	req := httptest.NewRequest(http.MethodPost, "/api/projects/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()

	if err := HandleProjectCreate(app, deps)(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertStatus(t, rec, http.StatusCreated)

	got := decodeBody[ProjectResponse](t, rec)
	if got.Budget == nil || got.Budget.Amount != 4_500_000 || got.Budget.Type != "construction" {
		t.Errorf("unexpected budget %+v", got.Budget)
	}
	if got.Requirements.BedroomCount() != 4 || got.Requirements.BuildingType != services.BuildingMaisonette {
		t.Errorf("unexpected requirements %+v", got.Requirements)
	}
}

func TestHandleProjectCreate_ValidationErrors(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	deps := newTestDeps(t, app)

	in := services.ProjectInput{Name: "  "}
	req := newRequest(http.MethodPost, "/api/projects/", in, "", "")
	rec := httptest.NewRecorder()

	if err := HandleProjectCreate(app, deps)(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertStatus(t, rec, http.StatusBadRequest)

	body := decodeBody[map[string]any](t, rec)
	fields, ok := body["fields"].(map[string]any)
	if !ok {
		t.Fatalf("expected field errors, got %v", body)
	}
	for _, key := range []string{"name", "budget", "location"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("expected error for %q, got %v", key, fields)
		}
	}

	all, _ := app.FindAllRecords(services.ProjectsCollection)
	if len(all) != 0 {
		t.Errorf("expected no project to be stored, found %d", len(all))
	}
}

func TestHandleProjectList(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestProject(t, app, "First")
	testhelpers.CreateTestProject(t, app, "Second")

	req := httptest.NewRequest(http.MethodGet, "/api/projects/", nil)
	rec := httptest.NewRecorder()
	if err := HandleProjectList(app)(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertStatus(t, rec, http.StatusOK)

	got := decodeBody[[]ProjectResponse](t, rec)
	if len(got) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(got))
	}
}

func TestHandleProjectDetail_NotFound(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/projects/missing/", nil)
	req.SetPathValue("id", "missing")
	rec := httptest.NewRecorder()
	if err := HandleProjectDetail(app)(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertStatus(t, rec, http.StatusNotFound)
}

func generateDesignRequest(projectID, sid string, role services.Role) *http.Request {
	req := newRequest(http.MethodPost, "/api/projects/"+projectID+"/generate_design/", nil, sid, role)
	req.SetPathValue("id", projectID)
	return req
}

func TestHandleGenerateDesign_StoresCandidates(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	deps := newTestDeps(t, app)
	project := testhelpers.CreateTestProject(t, app, "Kilimani Residence")
	sid := session.NewID()

	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, generateDesignRequest(project.Id, sid, ""), rec)
	if err := HandleGenerateDesign(app, deps)(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertStatus(t, rec, http.StatusCreated)

	got := decodeBody[struct {
		Designs []DesignResponse `json:"designs"`
	}](t, rec)
	if len(got.Designs) != 3 {
		t.Fatalf("expected 3 designs, got %d", len(got.Designs))
	}
	first := got.Designs[0]
	if first.Area != 120 {
		t.Errorf("expected area 120, got %v", first.Area)
	}
	if !first.Cost.Equal(decimalOf(t, "2850000")) {
		t.Errorf("expected cost 2850000, got %s", first.Cost)
	}
	if first.ProjectID != project.Id {
		t.Errorf("expected project %q, got %q", project.Id, first.ProjectID)
	}

	state, _ := deps.Sessions.Get(sid)
	if state.Loading || state.Error != "" {
		t.Errorf("expected idle session after generation, got %+v", state)
	}
	if state.CurrentProjectID != project.Id {
		t.Errorf("expected current project %q, got %q", project.Id, state.CurrentProjectID)
	}
}

func TestHandleGenerateDesign_Forbidden(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	deps := newTestDeps(t, app)
	project := testhelpers.CreateTestProject(t, app, "Homeowner View")

	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, generateDesignRequest(project.Id, "", services.RoleHomeowner), rec)
	if err := HandleGenerateDesign(app, deps)(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertStatus(t, rec, http.StatusForbidden)
}

func TestHandleGenerateDesign_FailureAndTimeout(t *testing.T) {
	tests := []struct {
		name      string
		generator *services.MockDesignGenerator
		timeout   time.Duration
		want      int
	}{
		{
			name: "generator failure",
			generator: &services.MockDesignGenerator{Fail: func(services.DesignRequest) error {
				return errors.New("model offline")
			}},
			timeout: time.Second,
			want:    http.StatusBadGateway,
		},
		{
			name:      "timeout",
			generator: services.NewMockDesignGenerator(time.Second, 1),
			timeout:   20 * time.Millisecond,
			want:      http.StatusGatewayTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := testhelpers.NewTestApp(t)
			deps := newTestDeps(t, app)
			deps.Generator = tt.generator
			deps.Config.GenerationTimeout = tt.timeout
			project := testhelpers.CreateTestProject(t, app, "Failing")
			sid := session.NewID()

			rec := httptest.NewRecorder()
			e := newTestRequestEvent(app, generateDesignRequest(project.Id, sid, ""), rec)
			if err := HandleGenerateDesign(app, deps)(e); err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			assertStatus(t, rec, tt.want)

			state, _ := deps.Sessions.Get(sid)
			if state.Loading {
				t.Error("expected loading to be cleared")
			}
			if state.Error == "" {
				t.Error("expected session error to be recorded")
			}
			designs, _ := app.FindAllRecords(services.DesignsCollection)
			if len(designs) != 0 {
				t.Errorf("expected no stored designs, found %d", len(designs))
			}
		})
	}
}

// gatedGenerator blocks until released or cancelled.
type gatedGenerator struct {
	started chan struct{}
	release chan struct{}
	inner   *services.MockDesignGenerator
}

func (g *gatedGenerator) Generate(ctx context.Context, req services.DesignRequest, progress services.ProgressFunc) ([]services.Design, error) {
	g.started <- struct{}{}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-g.release:
	}
	return g.inner.Generate(ctx, req, progress)
}

func TestHandleGenerateDesign_LatestWins(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	deps := newTestDeps(t, app)
	gen := &gatedGenerator{
		started: make(chan struct{}, 2),
		release: make(chan struct{}),
		inner:   services.NewMockDesignGenerator(0, 1),
	}
	deps.Generator = gen
	project := testhelpers.CreateTestProject(t, app, "Twice Clicked")
	sid := session.NewID()
	handler := HandleGenerateDesign(app, deps)

	run := func(rec *httptest.ResponseRecorder, wg *sync.WaitGroup) {
		defer wg.Done()
		if err := handler(newTestRequestEvent(app, generateDesignRequest(project.Id, sid, ""), rec)); err != nil {
			t.Errorf("handler returned error: %v", err)
		}
	}

	first, second := httptest.NewRecorder(), httptest.NewRecorder()
	var firstDone, secondDone sync.WaitGroup
	firstDone.Add(1)
	secondDone.Add(1)

	go run(first, &firstDone)
	<-gen.started
	go run(second, &secondDone)
	<-gen.started

	firstDone.Wait()
	assertStatus(t, first, http.StatusConflict)

	close(gen.release)
	secondDone.Wait()
	assertStatus(t, second, http.StatusCreated)

	designs, _ := app.FindAllRecords(services.DesignsCollection)
	if len(designs) != 3 {
		t.Errorf("expected only the latest generation to be stored, found %d designs", len(designs))
	}
	state, _ := deps.Sessions.Get(sid)
	if state.Loading || state.Error != "" {
		t.Errorf("expected idle session without error, got %+v", state)
	}
}

func TestHandleGenerateDesign_ZeroRoomCommercial(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	deps := newTestDeps(t, app)
	sid := session.NewID()

	in := testhelpers.TestProjectInput("Westlands Office Block")
	in.ProjectType = "commercial"
	in.Requirements = &services.Requirements{
		Bedrooms:     services.IntPtr(0),
		Bathrooms:    services.IntPtr(0),
		BuildingType: services.BuildingCommercial,
	}
	rec := httptest.NewRecorder()
	if err := HandleProjectCreate(app, deps)(newTestRequestEvent(app, newRequest(http.MethodPost, "/api/projects/", in, sid, ""), rec)); err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	assertStatus(t, rec, http.StatusCreated)
	project := decodeBody[ProjectResponse](t, rec)
	if project.Requirements.BedroomCount() != 0 || project.Requirements.BathroomCount() != 0 {
		t.Fatalf("explicit zero counts replaced: %+v", project.Requirements)
	}

	rec = httptest.NewRecorder()
	if err := HandleGenerateDesign(app, deps)(newTestRequestEvent(app, generateDesignRequest(project.ID, sid, ""), rec)); err != nil {
		t.Fatalf("generate returned error: %v", err)
	}
	assertStatus(t, rec, http.StatusCreated)

	got := decodeBody[struct {
		Designs []DesignResponse `json:"designs"`
	}](t, rec)
	if len(got.Designs) != 3 {
		t.Fatalf("expected 3 designs, got %d", len(got.Designs))
	}
	for _, d := range got.Designs {
		if d.Bedrooms != 0 || d.Bathrooms != 0 || d.BuildingType != services.BuildingCommercial {
			t.Errorf("%s: bedrooms=%d bathrooms=%d type=%s", d.Name, d.Bedrooms, d.Bathrooms, d.BuildingType)
		}
		for _, room := range d.Rooms {
			if room.Type == "bedroom" || room.Type == "bathroom" {
				t.Errorf("%s: unexpected room %q", d.Name, room.Name)
			}
		}
	}
}

func TestProjectInputFromForm_RoomCounts(t *testing.T) {
	form := url.Values{}
	form.Set("requirements.bedrooms", "0")
	form.Set("requirements.bathrooms", " ")

	req := httptest.NewRequest(http.MethodPost, "/api/projects/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if err := req.ParseForm(); err != nil {
		t.Fatalf("ParseForm() error = %v", err)
	}

	in := projectInputFromForm(req)
	if in.Requirements == nil || in.Requirements.Bedrooms == nil || *in.Requirements.Bedrooms != 0 {
		t.Fatalf("expected explicit zero bedrooms, got %+v", in.Requirements)
	}
	if in.Requirements.Bathrooms != nil {
		t.Errorf("blank bathrooms should be unset, got %d", *in.Requirements.Bathrooms)
	}
	if got := in.Normalized().Requirements.BathroomCount(); got != services.DefaultBathrooms {
		t.Errorf("BathroomCount() = %d, want default %d", got, services.DefaultBathrooms)
	}
}

func TestRunGeneration_LoadingUntilPersisted(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	deps := newTestDeps(t, app)
	sid := session.NewID()
	req := services.NewDesignRequest(3_000_000, "nairobi", services.Requirements{})

	e := newTestRequestEvent(app, newRequest(http.MethodPost, "/", nil, sid, ""), httptest.NewRecorder())
	var persisted int
	err := runGeneration(e, deps, req, func(designs []services.Design) error {
		state, err := deps.Sessions.Get(sid)
		if err != nil {
			return err
		}
		if !state.Loading || !deps.Sessions.InFlight(sid) {
			t.Errorf("expected generation still in flight while persisting, got %+v", state)
		}
		persisted = len(designs)
		return nil
	})
	if err != nil {
		t.Fatalf("runGeneration() error = %v", err)
	}
	if persisted != 3 {
		t.Errorf("expected 3 designs persisted, got %d", persisted)
	}

	state, _ := deps.Sessions.Get(sid)
	if state.Loading || deps.Sessions.InFlight(sid) {
		t.Errorf("expected idle session after persist, got %+v", state)
	}
}

func TestRunGeneration_PersistFailureRecorded(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	deps := newTestDeps(t, app)
	sid := session.NewID()
	req := services.NewDesignRequest(3_000_000, "nairobi", services.Requirements{})

	e := newTestRequestEvent(app, newRequest(http.MethodPost, "/", nil, sid, ""), httptest.NewRecorder())
	err := runGeneration(e, deps, req, func([]services.Design) error {
		return errors.New("disk full")
	})
	if err == nil {
		t.Fatal("expected persist error")
	}

	state, _ := deps.Sessions.Get(sid)
	if state.Loading || state.Error == "" {
		t.Errorf("expected recorded error and cleared loading, got %+v", state)
	}
}
