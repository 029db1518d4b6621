package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireAdmin lets only sessions with the admin role through. It must run
// after Auth.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s := Session(c)
			if s == nil || !s.Current().Role.IsAdmin {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
