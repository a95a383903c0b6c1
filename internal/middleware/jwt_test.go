package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/llm-proxy-admin/internal/model"
	"github.com/iliyamo/llm-proxy-admin/internal/repository"
	"github.com/iliyamo/llm-proxy-admin/internal/service"
	"github.com/iliyamo/llm-proxy-admin/internal/store"
)

func newGate(t *testing.T) (*service.TokenService, echo.MiddlewareFunc) {
	t.Helper()
	tokens := service.NewTokenService(
		repository.NewTokenRepo(store.NewMemory()),
		[]byte("gate-access-secret"), []byte("gate-refresh-secret"),
		15*time.Minute, 7*24*time.Hour, time.Hour,
	)
	return tokens, Auth(tokens)
}

// run sends a request with the given Authorization header through the gate
// into a handler that echoes the attached subject.
func run(t *testing.T, gate echo.MiddlewareFunc, authorization string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := gate(func(c echo.Context) error {
		return c.String(http.StatusOK, c.Get(ContextSubject).(string))
	})
	require.NoError(t, handler(c))
	return rec
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	t.Parallel()
	_, gate := newGate(t)

	rec := run(t, gate, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = run(t, gate, "Basic dXNlcjpwdw==")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsGarbageToken(t *testing.T) {
	t.Parallel()
	_, gate := newGate(t)

	rec := run(t, gate, "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"invalid credentials"}`, rec.Body.String())
}

func TestAuthPassesValidToken(t *testing.T) {
	t.Parallel()
	tokens, gate := newGate(t)

	access, err := tokens.IssueAccess(model.User{Email: "admin@example.com", Role: model.RoleAdmin, Enabled: true})
	require.NoError(t, err)

	rec := run(t, gate, "Bearer "+access)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin@example.com", rec.Body.String())
}

func TestAuthRejectsBlacklistedToken(t *testing.T) {
	t.Parallel()
	tokens, gate := newGate(t)

	access, err := tokens.IssueAccess(model.User{Email: "admin@example.com", Role: model.RoleAdmin, Enabled: true})
	require.NoError(t, err)
	claims, err := tokens.VerifyAccess(access)
	require.NoError(t, err)
	require.NoError(t, tokens.Blacklist(context.Background(), claims.ID, claims.ExpiresAt.Time))

	rec := run(t, gate, "Bearer "+access)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
