package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase/core"

	"jmstructural/services"
	"jmstructural/session"
)

// isHTMX reports whether the request came from an HTMX swap.
func isHTMX(e *core.RequestEvent) bool {
	return e.Request.Header.Get("HX-Request") == "true"
}

func isJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// requirePermission checks the acting role before a mutation.
func requirePermission(e *core.RequestEvent, p services.Permission) error {
	return GetRole(e.Request).Require(p)
}

// dispatch applies actions to the caller's session. Requests without a
// session id (direct API calls that skipped the middleware) are ignored.
func dispatch(e *core.RequestEvent, deps *Deps, actions ...session.Action) (session.State, error) {
	id := GetSessionID(e.Request)
	if id == "" || deps.Sessions == nil {
		return session.State{}, nil
	}
	state, err := deps.Sessions.Dispatch(id, actions...)
	if err != nil {
		return state, fmt.Errorf("update session: %w", err)
	}
	return state, nil
}

func currentState(e *core.RequestEvent, deps *Deps) (session.State, error) {
	id := GetSessionID(e.Request)
	if id == "" || deps.Sessions == nil {
		return session.State{}, nil
	}
	return deps.Sessions.Get(id)
}
