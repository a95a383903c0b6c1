// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/llm-proxy-admin/internal/handler"
	"github.com/iliyamo/llm-proxy-admin/internal/middleware"
	"github.com/iliyamo/llm-proxy-admin/internal/model"
	"github.com/iliyamo/llm-proxy-admin/internal/service"
)

// RegisterRoutes registers routes that require no authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the session lifecycle endpoints. Login, refresh
// and logout are deliberately outside the gate: refresh carries its own
// credential and logout must work with an expired access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, tokens *service.TokenService) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.Auth(tokens))
	auth.GET("/me", a.Me, middleware.RequireRole())
}

// RegisterUsers registers the directory endpoints. Everything is behind the
// gate; update additionally admits USER so a proxy user can rotate its own
// record through the admin surface.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, tokens *service.TokenService) {
	g := e.Group("/v1/users")
	g.Use(middleware.Auth(tokens))
	g.POST("", u.Create, middleware.RequireRole(model.RoleAdmin))
	g.GET("", u.List, middleware.RequireRole(model.RoleAdmin))
	g.PUT("", u.Update, middleware.RequireRole(model.RoleAdmin, model.RoleUser))
	g.DELETE("", u.Delete, middleware.RequireRole(model.RoleAdmin))
	g.PUT("/key", u.UpsertKey, middleware.RequireRole(model.RoleAdmin))

	e.GET("/v1/audit", u.Audit, middleware.Auth(tokens), middleware.RequireRole(model.RoleAdmin))
}
