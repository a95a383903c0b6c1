// Package middleware provides the authorization gate and the role check
// applied to protected routes.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/llm-proxy-admin/internal/service"
)

// Context keys populated by Auth for downstream handlers and middleware.
const (
	ContextSubject = "sub"
	ContextRoles   = "roles"
	ContextJTI     = "jti"
)

// Auth returns middleware that enforces a valid, non-blacklisted access
// token. On success the subject, role list and jti are attached to the
// request context. Every rejection is a uniform 401; the cause is never
// exposed to the client.
func Auth(tokens *service.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			claims, err := tokens.VerifyAccess(raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
			}

			revoked, err := tokens.IsBlacklisted(c.Request().Context(), claims.ID)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token check failed"})
			}
			if revoked {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
			}

			c.Set(ContextSubject, claims.Subject)
			c.Set(ContextRoles, claims.Roles)
			c.Set(ContextJTI, claims.ID)
			return next(c)
		}
	}
}
