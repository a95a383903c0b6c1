package repository

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/iliyamo/llm-proxy-admin/internal/model"
	"github.com/iliyamo/llm-proxy-admin/internal/store"
)

const (
	refreshKeyPrefix   = "auth:refresh:"
	blacklistKeyPrefix = "auth:blacklist:"
	blacklistSentinel  = "1"
)

// TokenRepo owns the two token-related keyspaces: the single-active refresh
// binding per user and the TTL-bounded access-token blacklist.
type TokenRepo struct {
	Store store.Store
}

func NewTokenRepo(s store.Store) *TokenRepo { return &TokenRepo{Store: s} }

func refreshKey(email string) string {
	return refreshKeyPrefix + model.CanonicalEmail(email)
}

func blacklistKey(jti string) string {
	return blacklistKeyPrefix + jti
}

// StoreRefresh binds token to the user, overwriting any previous binding.
// Overwriting is what invalidates the prior refresh token.
func (r *TokenRepo) StoreRefresh(ctx context.Context, email, token string, ttl time.Duration) error {
	return r.Store.Set(ctx, refreshKey(email), token, ttl)
}

// ValidateRefresh checks that token is byte-equal to the currently bound
// value for the user. Absent or different bindings yield ErrRefreshMismatch.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, email, token string) error {
	stored, ok, err := r.Store.Get(ctx, refreshKey(email))
	if err != nil {
		return err
	}
	if !ok || subtle.ConstantTimeCompare([]byte(stored), []byte(token)) != 1 {
		return ErrRefreshMismatch
	}
	return nil
}

// RevokeRefresh removes the binding, forcing a full re-login.
func (r *TokenRepo) RevokeRefresh(ctx context.Context, email string) error {
	return r.Store.Del(ctx, refreshKey(email))
}

// Blacklist marks a jti as revoked for the given TTL.
func (r *TokenRepo) Blacklist(ctx context.Context, jti string, ttl time.Duration) error {
	return r.Store.Set(ctx, blacklistKey(jti), blacklistSentinel, ttl)
}

func (r *TokenRepo) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	v, ok, err := r.Store.Get(ctx, blacklistKey(jti))
	if err != nil {
		return false, err
	}
	return ok && v == blacklistSentinel, nil
}
