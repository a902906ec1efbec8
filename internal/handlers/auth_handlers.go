package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"syspres_app/internal/middleware"
	"syspres_app/internal/services"
)

type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	token, user, err := h.auth.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(12 * time.Hour),
	})

	return c.JSON(http.StatusOK, map[string]interface{}{
		"username":    user.Username,
		"permissions": user.Permissions,
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	cookie, err := c.Cookie(middleware.SessionCookie)
	if err == nil && cookie.Value != "" {
		h.auth.Logout(c.Request().Context(), cookie.Value)
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}

// Me returns the current session, so the client can restore state after
// a page reload.
func (h *AuthHandler) Me(c echo.Context) error {
	session, ok := c.Get("session").(*services.Session)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "no session")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"username":    session.Username,
		"permissions": session.Permissions,
	})
}
