package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"jmstructural/services"
	"jmstructural/session"
	"jmstructural/testhelpers"
)

func TestHandleGenerateQuotation_FromSessionDesign(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	deps := newTestDeps(t, app)
	project := testhelpers.CreateTestProject(t, app, "Priced")
	design := testhelpers.CreateTestDesigns(t, app, project.Id)[0]
	sid := session.NewID()
	if _, err := deps.Sessions.Dispatch(sid,
		session.SetCurrentProject{ProjectID: project.Id},
		session.SetSelectedDesign{DesignID: design.Id},
	); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	req := newRequest(http.MethodPost, "/api/quotations/generate/", nil, sid, "")
	rec := httptest.NewRecorder()
	if err := HandleGenerateQuotation(app, deps)(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertStatus(t, rec, http.StatusCreated)

	got := decodeBody[QuotationResponse](t, rec)
	if got.ProjectID != project.Id || got.DesignID != design.Id {
		t.Errorf("unexpected links %+v", got)
	}
	if len(got.Items) == 0 {
		t.Fatal("expected generated line items")
	}
	if !got.Totals.GrandTotal.Equal(got.Totals.Subtotal.Add(got.Totals.TaxAmount)) {
		t.Errorf("grand total %s != subtotal %s + tax %s", got.Totals.GrandTotal, got.Totals.Subtotal, got.Totals.TaxAmount)
	}
	if len(got.PaymentSchedule) != 5 {
		t.Errorf("expected 5 milestones, got %d", len(got.PaymentSchedule))
	}

	state, _ := deps.Sessions.Get(sid)
	if state.QuotationID != got.ID {
		t.Errorf("expected session quotation %q, got %q", got.ID, state.QuotationID)
	}
}

func TestHandleGenerateQuotation_WithoutDesign(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	deps := newTestDeps(t, app)

	req := newRequest(http.MethodPost, "/api/quotations/generate/", nil, session.NewID(), "")
	rec := httptest.NewRecorder()
	if err := HandleGenerateQuotation(app, deps)(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertStatus(t, rec, http.StatusBadRequest)

	req = newRequest(http.MethodPost, "/api/quotations/generate/", generateQuotationRequest{DesignID: "missing"}, "", "")
	rec = httptest.NewRecorder()
	if err := HandleGenerateQuotation(app, deps)(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertStatus(t, rec, http.StatusNotFound)
}

func TestHandleQuotationList(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	a := testhelpers.CreateTestProject(t, app, "A")
	b := testhelpers.CreateTestProject(t, app, "B")
	testhelpers.CreateTestQuotation(t, app, a.Id, "", testhelpers.SampleItems())
	testhelpers.CreateTestQuotation(t, app, b.Id, "", testhelpers.SampleItems())

	tests := []struct {
		query string
		want  int
	}{
		{"", 2},
		{"?project=" + a.Id, 1},
		{"?project=none", 0},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/quotations/"+tt.query, nil)
		rec := httptest.NewRecorder()
		if err := HandleQuotationList(app)(newTestRequestEvent(app, req, rec)); err != nil {
			t.Fatalf("handler returned error: %v", err)
		}
		assertStatus(t, rec, http.StatusOK)
		got := decodeBody[[]QuotationSummary](t, rec)
		if len(got) != tt.want {
			t.Errorf("%q: expected %d quotations, got %d", tt.query, tt.want, len(got))
		}
		for _, q := range got {
			if !q.GrandTotal.Equal(decimalOf(t, "1367640")) {
				t.Errorf("expected grand total 1367640, got %s", q.GrandTotal)
			}
		}
	}
}

func TestHandleQuotationDetail(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	deps := newTestDeps(t, app)
	q := testhelpers.CreateTestQuotation(t, app, "", "", testhelpers.SampleItems())

	req := httptest.NewRequest(http.MethodGet, "/api/quotations/"+q.Id+"/", nil)
	req.SetPathValue("id", q.Id)
	rec := httptest.NewRecorder()
	if err := HandleQuotationDetail(app, deps)(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertStatus(t, rec, http.StatusOK)

	got := decodeBody[QuotationResponse](t, rec)
	if got.QuotationNumber != "QUO-20260314-001" {
		t.Errorf("expected number QUO-20260314-001, got %q", got.QuotationNumber)
	}
	if len(got.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got.Items))
	}
	assertTotals(t, got.Totals, "1179000", "188640", "1367640")
	want := "One Million Three Hundred and Sixty Seven Thousand Six Hundred and Forty Kenya Shillings Only"
	if got.AmountInWords != want {
		t.Errorf("AmountInWords = %q", got.AmountInWords)
	}
}

func assertTotals(t *testing.T, got services.Totals, subtotal, tax, grand string) {
	t.Helper()
	if !got.Subtotal.Equal(decimalOf(t, subtotal)) {
		t.Errorf("Subtotal = %s, want %s", got.Subtotal, subtotal)
	}
	if !got.TaxAmount.Equal(decimalOf(t, tax)) {
		t.Errorf("TaxAmount = %s, want %s", got.TaxAmount, tax)
	}
	if !got.GrandTotal.Equal(decimalOf(t, grand)) {
		t.Errorf("GrandTotal = %s, want %s", got.GrandTotal, grand)
	}
}
