package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/llm-proxy-admin/internal/model"
	"github.com/iliyamo/llm-proxy-admin/internal/repository"
	"github.com/iliyamo/llm-proxy-admin/internal/store"
)

var (
	testAccessSecret  = []byte("test-access-secret")
	testRefreshSecret = []byte("test-refresh-secret")
)

func newTestTokenService(mem *store.Memory) *TokenService {
	return NewTokenService(
		repository.NewTokenRepo(mem),
		testAccessSecret,
		testRefreshSecret,
		15*time.Minute,
		7*24*time.Hour,
		time.Hour,
	)
}

func testUser() model.User {
	return model.User{Email: "admin@example.com", Role: model.RoleAdmin, Enabled: true}
}

func TestIssueAndVerifyAccess(t *testing.T) {
	t.Parallel()
	svc := newTestTokenService(store.NewMemory())

	token, err := svc.IssueAccess(testUser())
	require.NoError(t, err)

	claims, err := svc.VerifyAccess(token)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", claims.Subject)
	assert.Equal(t, []string{"ADMIN"}, claims.Roles)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, model.TokenAccess, claims.Kind)
}

func TestVerifyAccessRejectsExpired(t *testing.T) {
	t.Parallel()
	svc := NewTokenService(
		repository.NewTokenRepo(store.NewMemory()),
		testAccessSecret, testRefreshSecret,
		-time.Minute, 7*24*time.Hour, time.Hour,
	)

	token, err := svc.IssueAccess(testUser())
	require.NoError(t, err)

	_, err = svc.VerifyAccess(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyAccessRejectsRefreshToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestTokenService(store.NewMemory())

	refresh, err := svc.IssueRefresh(ctx, testUser())
	require.NoError(t, err)

	// Signed with the refresh secret, so the signature check fails before
	// the kind is ever inspected.
	_, err = svc.VerifyAccess(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyAccessRejectsWrongKind(t *testing.T) {
	t.Parallel()
	svc := newTestTokenService(store.NewMemory())

	// A token with the right signature but the wrong discriminator must be
	// rejected by the kind check, not the signature check.
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin@example.com",
			ID:        "jti-x",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Roles: []string{"ADMIN"},
		Kind:  model.TokenRefresh,
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testAccessSecret)
	require.NoError(t, err)

	_, err = svc.VerifyAccess(forged)
	assert.ErrorIs(t, err, ErrWrongKind)
}

func TestIssueRefreshStoresBinding(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := store.NewMemory()
	svc := newTestTokenService(mem)

	token, err := svc.IssueRefresh(ctx, testUser())
	require.NoError(t, err)

	stored, ok, err := mem.Get(ctx, "auth:refresh:admin@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, token, stored, "stored binding must be the token byte-for-byte")

	claims, err := svc.VerifyRefresh(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", claims.Subject)
	assert.Equal(t, model.TokenRefresh, claims.Kind)
}

func TestVerifyRefreshRejectsSupersededToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestTokenService(store.NewMemory())

	first, err := svc.IssueRefresh(ctx, testUser())
	require.NoError(t, err)
	second, err := svc.IssueRefresh(ctx, testUser())
	require.NoError(t, err)

	_, err = svc.VerifyRefresh(ctx, first)
	assert.ErrorIs(t, err, ErrRevoked)

	_, err = svc.VerifyRefresh(ctx, second)
	assert.NoError(t, err)
}

func TestVerifyRefreshRejectsAccessToken(t *testing.T) {
	t.Parallel()
	svc := newTestTokenService(store.NewMemory())

	access, err := svc.IssueAccess(testUser())
	require.NoError(t, err)

	_, err = svc.VerifyRefresh(context.Background(), access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevokeRefresh(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestTokenService(store.NewMemory())

	token, err := svc.IssueRefresh(ctx, testUser())
	require.NoError(t, err)

	require.NoError(t, svc.RevokeRefresh(ctx, "admin@example.com"))

	_, err = svc.VerifyRefresh(ctx, token)
	assert.ErrorIs(t, err, ErrRevoked)
}

func TestRotateIssuesBothKinds(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestTokenService(store.NewMemory())

	pair, err := svc.Rotate(ctx, testUser())
	require.NoError(t, err)

	_, err = svc.VerifyAccess(pair.AccessToken)
	assert.NoError(t, err)
	_, err = svc.VerifyRefresh(ctx, pair.RefreshToken)
	assert.NoError(t, err)
}

func TestBlacklistTTLBoundedByExpiryHint(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := store.NewMemory()
	svc := newTestTokenService(mem)

	now := time.Now()
	svc.now = func() time.Time { return now }
	mem.SetClock(func() time.Time { return now })

	// Hint 30s out: the entry must expire with the token, not at the
	// one-hour maximum.
	require.NoError(t, svc.Blacklist(ctx, "jti-short", now.Add(30*time.Second)))
	// No hint: the configured maximum applies.
	require.NoError(t, svc.Blacklist(ctx, "jti-max", time.Time{}))

	on, err := svc.IsBlacklisted(ctx, "jti-short")
	require.NoError(t, err)
	assert.True(t, on)

	now = now.Add(31 * time.Second)
	on, err = svc.IsBlacklisted(ctx, "jti-short")
	require.NoError(t, err)
	assert.False(t, on, "short entry must have expired")

	on, err = svc.IsBlacklisted(ctx, "jti-max")
	require.NoError(t, err)
	assert.True(t, on, "max entry must still be present")
}

func TestDecodeAccessIgnoresSignatureAndExpiry(t *testing.T) {
	t.Parallel()
	expired := NewTokenService(
		repository.NewTokenRepo(store.NewMemory()),
		testAccessSecret, testRefreshSecret,
		-time.Minute, 7*24*time.Hour, time.Hour,
	)

	token, err := expired.IssueAccess(testUser())
	require.NoError(t, err)

	claims, err := expired.DecodeAccess(token)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", claims.Subject)
	assert.NotEmpty(t, claims.ID)

	_, err = expired.DecodeAccess("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
