package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"jmstructural/logging"
)

// SetToast sets the HX-Trigger response header to show a toast notification
// on the client via HTMX. If an HX-Trigger header already exists, the toast
// payload is merged into the existing JSON object.
// It also sets a flash cookie so toasts survive regular (non-HTMX) redirects.
func SetToast(e *core.RequestEvent, toastType string, message string) {
	log := eventLogger(e)
	toast := map[string]any{
		"showToast": map[string]string{
			"message": message,
			"type":    toastType,
		},
	}

	merged := toast
	if existing := e.Response.Header().Get("HX-Trigger"); existing != "" {
		var prev map[string]any
		if err := json.Unmarshal([]byte(existing), &prev); err != nil {
			log.Warn("toast: existing HX-Trigger is not valid JSON, overwriting", zap.Error(err))
		} else {
			prev["showToast"] = toast["showToast"]
			merged = prev
		}
	}
	data, err := json.Marshal(merged)
	if err != nil {
		log.Error("toast: failed to marshal HX-Trigger JSON", zap.Error(err))
		return
	}
	e.Response.Header().Set("HX-Trigger", string(data))

	// Also set a flash cookie for non-HTMX redirects (302) where HX-Trigger is lost
	cookieVal, err := json.Marshal(map[string]string{"message": message, "type": toastType})
	if err == nil {
		http.SetCookie(e.Response, &http.Cookie{
			Name:     "flash_toast",
			Value:    url.QueryEscape(string(cookieVal)),
			Path:     "/",
			MaxAge:   10,
			HttpOnly: false, // JS needs to read it
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// ErrorToast sets an error toast and prevents HTMX from swapping the error
// body into the DOM, then writes {"error": message} with statusCode.
func ErrorToast(e *core.RequestEvent, statusCode int, message string) error {
	return errorJSON(e, statusCode, map[string]any{"error": message}, message)
}

func errorJSON(e *core.RequestEvent, statusCode int, body map[string]any, message string) error {
	SetToast(e, "error", message)
	e.Response.Header().Set("HX-Reswap", "none")
	return e.JSON(statusCode, body)
}

// eventLogger returns the request-scoped logger, or the global one for
// events built without a request.
func eventLogger(e *core.RequestEvent) *zap.Logger {
	if e.Request == nil {
		return zap.L()
	}
	return logging.FromContext(e.Request.Context())
}
