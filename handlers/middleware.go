package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"jmstructural/logging"
	"jmstructural/services"
	"jmstructural/session"
)

type contextKey string

const SessionIDKey contextKey = "sessionID"

// SessionCookie names the cookie that carries the session id.
const SessionCookie = "jm_session"

// RoleHeader carries the acting role. It is trusted as-is.
const RoleHeader = "X-User-Role"

// RequestIDHeader is echoed back on every response.
const RequestIDHeader = "X-Request-ID"

// GetSessionID extracts the session id from the request context, falling
// back to the cookie when the middleware did not run.
func GetSessionID(r *http.Request) string {
	if val, ok := r.Context().Value(SessionIDKey).(string); ok {
		return val
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// GetRole returns the role named by the X-User-Role header.
func GetRole(r *http.Request) services.Role {
	return services.ParseRole(r.Header.Get(RoleHeader))
}

// SessionMiddleware ensures every request has a session id, issuing a new
// cookie when the browser has none.
func SessionMiddleware() func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := ""
		if c, err := e.Request.Cookie(SessionCookie); err == nil {
			if _, perr := uuid.Parse(c.Value); perr == nil {
				id = c.Value
			}
		}
		if id == "" {
			id = session.NewID()
			http.SetCookie(e.Response, &http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   int((30 * 24 * time.Hour).Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(e.Request.Context(), SessionIDKey, id)
		e.Request = e.Request.WithContext(ctx)
		return e.Next()
	}
}

// RequestLogger tags each request with a request id, attaches a scoped
// logger to its context and logs the outcome. Credentials in headers are
// masked.
func RequestLogger(base *zap.Logger) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		start := time.Now()
		reqID := e.Request.Header.Get(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		e.Response.Header().Set(RequestIDHeader, reqID)

		log := base.With(
			zap.String("request_id", reqID),
			zap.String("method", e.Request.Method),
			zap.String("path", e.Request.URL.Path),
		)
		e.Request = e.Request.WithContext(logging.WithContext(e.Request.Context(), log))

		err := e.Next()

		fields := []zap.Field{
			zap.Int("status", e.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("role", string(GetRole(e.Request))),
			zap.String("session", logging.MaskID(GetSessionID(e.Request))),
		}
		if err != nil {
			log.Warn("request failed", append(fields, zap.Error(err), zap.Any("headers", logging.MaskHeaders(e.Request.Header)))...)
			return err
		}
		log.Info("request", fields...)
		return nil
	}
}
