package testbackend

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// bearer verifies the HS256 token and loads the account named by sub.
func (s *Server) bearer(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.Response().Header().Set("WWW-Authenticate", "Bearer")
			return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
		}

		claims := jwt.MapClaims{}
		tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return s.secret, nil
		}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
		if err != nil || !tkn.Valid {
			return credentialsRejected(c)
		}

		sub, _ := claims.GetSubject()
		a := s.lookup(sub)
		if a == nil {
			return credentialsRejected(c)
		}

		c.Set(ctxAccount, a)
		return next(c)
	}
}

func adminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		a, _ := c.Get(ctxAccount).(*account)
		if a == nil || !a.IsAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "Operation not permitted for non-admin users")
		}
		return next(c)
	}
}

func credentialsRejected(c echo.Context) error {
	c.Response().Header().Set("WWW-Authenticate", "Bearer")
	return echo.NewHTTPError(http.StatusUnauthorized, "Could not validate credentials")
}
