package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
	"go.uber.org/zap/zaptest"

	"jmstructural/config"
	"jmstructural/services"
	"jmstructural/session"
)

// newTestRequestEvent creates a RequestEvent suitable for handler tests.
func newTestRequestEvent(app *pocketbase.PocketBase, req *http.Request, rec *httptest.ResponseRecorder) *core.RequestEvent {
	e := &core.RequestEvent{}
	e.App = app
	e.Request = req
	e.Response = rec
	return e
}

// newTestDeps wires handlers to app with a fast generator and a
// record-backed session store.
func newTestDeps(t *testing.T, app *pocketbase.PocketBase) *Deps {
	t.Helper()
	cfg := &config.Config{
		Environment:       "test",
		Currency:          services.DefaultCurrency,
		TaxPercent:        decimal.NewFromInt(16),
		Rounding:          services.RoundHalfUp,
		GenerationTimeout: 5 * time.Second,
	}
	return &Deps{
		Config:    cfg,
		Sessions:  session.NewStore(session.RecordKV{App: app}, zaptest.NewLogger(t)),
		Generator: services.NewMockDesignGenerator(0, 1),
	}
}

// newRequest builds a request carrying a session id and an optional role.
func newRequest(method, target string, body any, sessionID string, role services.Role) *http.Request {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: sessionID})
	}
	if role != "" {
		req.Header.Set(RoleHeader, string(role))
	}
	return req
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not valid JSON: %v\n%s", err, rec.Body.String())
	}
	return out
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func decimalOf(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	return decimal.RequireFromString(s)
}
