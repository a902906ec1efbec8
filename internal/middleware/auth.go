package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"syspres_app/internal/models"
	"syspres_app/internal/services"
)

// SessionCookie is the browser cookie carrying the session token
const SessionCookie = "syspres_session"

// RequireAuth verifies the session cookie on every request and attaches
// the resolved session to the echo context.
func RequireAuth(auth *services.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "login required")
			}

			session, err := auth.Resolve(c.Request().Context(), cookie.Value)
			if err != nil {
				return err
			}
			if session == nil {
				// Expired or revoked; make the browser drop the cookie too.
				c.SetCookie(&http.Cookie{
					Name:     SessionCookie,
					Value:    "",
					MaxAge:   -1,
					HttpOnly: true,
					Path:     "/",
				})
				return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
			}

			c.Set("session", session)
			c.Set("username", session.Username)
			return next(c)
		}
	}
}

// RequirePermission gates a route group on one functional-area grant.
func RequirePermission(p models.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session, ok := c.Get("session").(*services.Session)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "login required")
			}
			if !session.HasPermission(p) {
				return echo.NewHTTPError(http.StatusForbidden, "missing permission: "+string(p))
			}
			return next(c)
		}
	}
}
