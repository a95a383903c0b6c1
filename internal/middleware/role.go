package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/llm-proxy-admin/internal/model"
)

// RequireRole enforces that the caller's role set intersects the given
// roles. An empty list means "authenticated only", which Auth has already
// guaranteed by the time this runs.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if len(allowed) == 0 {
				return next(c)
			}
			callerRoles, ok := c.Get(ContextRoles).([]string)
			if !ok || len(callerRoles) == 0 {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			for _, r := range callerRoles {
				if allowed[model.Role(r)] {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
	}
}
