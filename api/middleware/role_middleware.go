package middleware

import (
	"net/http"

	"authd/internal/entity"

	"github.com/labstack/echo/v4"
)

// RequireRole runs after RequireAuth and gates the route on the role carried
// by the access token.
func RequireRole(role entity.AccountRole) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			current, ok := RoleFromContext(c)
			if !ok || current != role {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}
