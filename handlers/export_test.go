package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"jmstructural/services"
	"jmstructural/testhelpers"
)

func exportRequest(id, format string, role services.Role) *http.Request {
	req := newRequest(http.MethodGet, "/api/quotations/"+id+"/export/"+format, nil, "", role)
	req.SetPathValue("id", id)
	req.SetPathValue("format", format)
	return req
}

func TestHandleQuotationExport_Excel(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	deps := newTestDeps(t, app)
	project := testhelpers.CreateTestProject(t, app, "Kilimani Residence")
	q := testhelpers.CreateTestQuotation(t, app, project.Id, "", testhelpers.SampleItems())

	rec := httptest.NewRecorder()
	if err := HandleQuotationExport(app, deps)(newTestRequestEvent(app, exportRequest(q.Id, "excel", ""), rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertStatus(t, rec, http.StatusOK)

	cd := rec.Header().Get("Content-Disposition")
	if !strings.Contains(cd, "QUO-20260314-001_Kilimani-Residence.xlsx") {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("response is not a valid workbook: %v", err)
	}
	defer f.Close()
	if len(f.GetSheetList()) == 0 {
		t.Error("expected at least one sheet")
	}
}

func TestHandleQuotationExport_PDF(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	deps := newTestDeps(t, app)
	q := testhelpers.CreateTestQuotation(t, app, "", "", testhelpers.SampleItems())

	rec := httptest.NewRecorder()
	if err := HandleQuotationExport(app, deps)(newTestRequestEvent(app, exportRequest(q.Id, "pdf", ""), rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertStatus(t, rec, http.StatusOK)

	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("expected application/pdf, got %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Error("expected PDF magic bytes")
	}
}

func TestHandleQuotationExport_Errors(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	deps := newTestDeps(t, app)
	q := testhelpers.CreateTestQuotation(t, app, "", "", testhelpers.SampleItems())

	tests := []struct {
		name   string
		id     string
		format string
		role   services.Role
		want   int
	}{
		{"unknown format", q.Id, "docx", "", http.StatusNotFound},
		{"missing quotation", "missing", "pdf", "", http.StatusNotFound},
		{"homeowner", q.Id, "excel", services.RoleHomeowner, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			if err := HandleQuotationExport(app, deps)(newTestRequestEvent(app, exportRequest(tt.id, tt.format, tt.role), rec)); err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			assertStatus(t, rec, tt.want)
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"Kilimani Residence": "Kilimani-Residence",
		`a/b\c:d`:            "a-b-c-d",
		`say "hi"`:           "say-hi",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
