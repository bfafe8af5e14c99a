package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/akhbar-news/backoffice/internal/api/middleware"
	"github.com/akhbar-news/backoffice/internal/core/domain"
)

// CurrentUser returns the user the authorization gate attached to the
// request. It is only set on routes behind a gate guard.
func CurrentUser(c echo.Context) (*domain.User, bool) {
	u, ok := c.Get(middleware.UserKey).(*domain.User)
	return u, ok && u != nil
}

// currentUser is CurrentUser for handlers that are always mounted behind a
// guard; a missing user means the route was wired without one.
func currentUser(c echo.Context) (*domain.User, error) {
	u, ok := CurrentUser(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "route is missing an authorization guard")
	}
	return u, nil
}

func currentSessionID(c echo.Context) string {
	sid, _ := c.Get(middleware.SessionIDKey).(string)
	return sid
}
