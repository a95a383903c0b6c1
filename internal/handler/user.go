package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/llm-proxy-admin/internal/model"
	"github.com/iliyamo/llm-proxy-admin/internal/repository"
	"github.com/iliyamo/llm-proxy-admin/internal/service"
)

// UserHandler exposes the user directory endpoints and the audit listing.
// Audits may be nil when no audit database is configured.
type UserHandler struct {
	Users  *service.UserService
	Audits *repository.AuditRepo
}

func NewUserHandler(users *service.UserService, audits *repository.AuditRepo) *UserHandler {
	return &UserHandler{Users: users, Audits: audits}
}

type createUserReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	APIKey   string `json:"api_key"`
	Role     string `json:"role"`
}

type updateUserReq struct {
	Email    string  `json:"email"`
	Password *string `json:"password"`
	APIKey   *string `json:"api_key"`
	Role     *string `json:"role"`
	Enabled  *bool   `json:"enabled"`
}

type deleteUserReq struct {
	Email string `json:"email"`
}

type upsertKeyReq struct {
	Email  string `json:"email"`
	APIKey string `json:"api_key"`
}

// userResp is the directory record as exposed over HTTP. The password hash
// and API key ciphertext stay server-side.
type userResp struct {
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
	Enabled   bool       `json:"enabled"`
	HasAPIKey bool       `json:"has_api_key"`
}

func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	role := model.RoleUser
	if strings.TrimSpace(req.Role) != "" {
		parsed, ok := model.ParseRole(req.Role)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
		}
		role = parsed
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	err := h.Users.Create(ctx, service.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
		APIKey:   req.APIKey,
		Role:     role,
	})
	if err != nil {
		return userError(c, err, "create user failed")
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true})
}

func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list users failed"})
	}
	out := make([]userResp, 0, len(users))
	for _, u := range users {
		out = append(out, userResp{
			Email:     u.Email,
			Role:      u.Role,
			Enabled:   u.Enabled,
			HasAPIKey: u.APIKeyCiphertext != "",
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *UserHandler) Update(c echo.Context) error {
	var req updateUserReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	in := service.UpdateUserInput{
		Email:    req.Email,
		Password: req.Password,
		APIKey:   req.APIKey,
		Enabled:  req.Enabled,
	}
	if req.Role != nil {
		parsed, ok := model.ParseRole(*req.Role)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
		}
		in.Role = &parsed
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Users.Update(ctx, in); err != nil {
		return userError(c, err, "update user failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *UserHandler) Delete(c echo.Context) error {
	var req deleteUserReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Users.Delete(ctx, req.Email); err != nil {
		return userError(c, err, "delete user failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *UserHandler) UpsertKey(c echo.Context) error {
	var req upsertKeyReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Users.UpsertAPIKey(ctx, req.Email, req.APIKey); err != nil {
		return userError(c, err, "update api key failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Audit returns the newest audit events. 503 when no audit database is
// configured.
func (h *UserHandler) Audit(c echo.Context) error {
	if h.Audits == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "audit store unavailable"})
	}
	limit := 50
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 500 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		limit = n
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	entries, err := h.Audits.Recent(ctx, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "audit query failed"})
	}
	return c.JSON(http.StatusOK, entries)
}

// userError maps directory errors onto the response taxonomy.
func userError(c echo.Context, err error, internalMsg string) error {
	switch {
	case errors.Is(err, service.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": service.ErrConflict.Error()})
	case errors.Is(err, service.ErrBadRequest):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": internalMsg})
	}
}
