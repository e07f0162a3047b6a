package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskdash/dashboard/internal/api/middleware"
	"github.com/taskdash/dashboard/internal/core/domain"
)

// ctxIdentity returns the identity injected by RequireSession. Its absence
// means the route was registered without the middleware.
func ctxIdentity(c echo.Context) (*domain.Identity, error) {
	id, _ := c.Get(middleware.IdentityKey).(*domain.Identity)
	if id == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing session identity")
	}
	return id, nil
}
