package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"jmstructural/services"
	"jmstructural/session"
)

// SessionResponse is the caller's application state.
type SessionResponse struct {
	session.State
	InFlight    bool                  `json:"inFlight"`
	Role        services.Role         `json:"role"`
	Permissions []services.Permission `json:"permissions"`
}

// HandleSessionState returns the session state along with the acting role.
func HandleSessionState(deps *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		state, err := currentState(e, deps)
		if err != nil {
			return respondError(e, "session_state", err)
		}
		role := GetRole(e.Request)
		resp := SessionResponse{State: state, Role: role, Permissions: role.Permissions()}
		if id := GetSessionID(e.Request); id != "" && deps.Sessions != nil {
			resp.InFlight = deps.Sessions.InFlight(id)
		}
		return e.JSON(http.StatusOK, resp)
	}
}
