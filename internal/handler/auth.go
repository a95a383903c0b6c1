package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/llm-proxy-admin/internal/middleware"
	"github.com/iliyamo/llm-proxy-admin/internal/model"
	"github.com/iliyamo/llm-proxy-admin/internal/service"
)

// refreshHeader carries the refresh token on /v1/auth/refresh. A JSON body
// field is accepted as a fallback for clients that cannot set headers.
const refreshHeader = "X-Refresh-Token"

// AuthHandler exposes the session lifecycle endpoints.
type AuthHandler struct {
	Sessions *service.SessionService
}

func NewAuthHandler(s *service.SessionService) *AuthHandler {
	return &AuthHandler{Sessions: s}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type loginResp struct {
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
	Email        string     `json:"email"`
	Role         model.Role `json:"role"`
}

type refreshResp struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Login authenticates the administrator and returns a fresh token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.Sessions.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}
	return c.JSON(http.StatusOK, loginResp{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		Email:        res.Email,
		Role:         res.Role,
	})
}

// Refresh rotates the presented refresh token into a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	token := strings.TrimSpace(c.Request().Header.Get(refreshHeader))
	if token == "" {
		var req refreshReq
		_ = c.Bind(&req)
		token = strings.TrimSpace(req.RefreshToken)
	}
	if token == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	pair, err := h.Sessions.Refresh(ctx, token)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}
	return c.JSON(http.StatusOK, refreshResp{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Logout terminates the session of the bearer token. It is idempotent and
// succeeds even for malformed or expired tokens; only a store failure
// produces an error.
func (h *AuthHandler) Logout(c echo.Context) error {
	auth := c.Request().Header.Get("Authorization")
	token := ""
	if strings.HasPrefix(auth, "Bearer ") {
		token = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Sessions.Logout(ctx, token); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Me returns the identity the gate attached to the request context.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"email": c.Get(middleware.ContextSubject),
		"roles": c.Get(middleware.ContextRoles),
	})
}

// requestContext bounds handler work so a slow store round-trip cannot pin
// a request forever.
func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}
