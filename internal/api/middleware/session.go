package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskdash/dashboard/internal/core/domain"
	"github.com/taskdash/dashboard/internal/core/ports"
)

// IdentityKey is the echo context key holding the *domain.Identity of the
// signed-in user.
const IdentityKey = "identity"

// RequireSession rejects requests while the session is not authenticated
// and injects the current identity into the context.
func RequireSession(session ports.SessionService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			st := session.Snapshot()
			if !st.IsAuthenticated || st.Identity == nil {
				if st.IsLoading {
					return echo.NewHTTPError(http.StatusUnauthorized, "session is still resolving")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
			}

			c.Set(IdentityKey, st.Identity)
			return next(c)
		}
	}
}

// RequireRole enforces role-based access on top of RequireSession.
func RequireRole(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, _ := c.Get(IdentityKey).(*domain.Identity)
			if id == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
			}
			if _, ok := allowed[id.Role]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}
