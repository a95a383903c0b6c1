package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/iliyamo/llm-proxy-admin/internal/model"
	"github.com/iliyamo/llm-proxy-admin/internal/repository"
)

// AccessClaims is the payload of a short-lived access token. Subject is the
// canonical email, ID the random jti used for blacklisting.
type AccessClaims struct {
	jwt.RegisteredClaims
	Roles []string        `json:"r"`
	Kind  model.TokenKind `json:"type"`
}

// RefreshClaims is the payload of a refresh token. Refresh tokens carry no
// roles; the user record is re-read at refresh time.
type RefreshClaims struct {
	jwt.RegisteredClaims
	Kind model.TokenKind `json:"type"`
}

// TokenPair is the result of a rotation.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenService issues and verifies both token kinds. Access tokens are
// stateless; refresh tokens are additionally bound in the store, one active
// binding per user.
type TokenService struct {
	tokens        *repository.TokenRepo
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	blacklistMax  time.Duration
	now           func() time.Time
}

func NewTokenService(tokens *repository.TokenRepo, accessSecret, refreshSecret []byte, accessTTL, refreshTTL, blacklistMax time.Duration) *TokenService {
	return &TokenService{
		tokens:        tokens,
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		blacklistMax:  blacklistMax,
		now:           time.Now,
	}
}

func hmacKeyfunc(secret []byte) jwt.Keyfunc {
	return func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	}
}

// IssueAccess signs a fresh access token for the user. Nothing is persisted;
// the signature alone proves existence until the jti lands on the blacklist.
func (s *TokenService) IssueAccess(user model.User) (string, error) {
	now := s.now().UTC()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   model.CanonicalEmail(user.Email),
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Roles: []string{string(user.Role)},
		Kind:  model.TokenAccess,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessSecret)
}

// VerifyAccess checks signature and expiry against the access secret, then
// the kind discriminator. Blacklist checks are the caller's job; the gate
// performs them per request.
func (s *TokenService) VerifyAccess(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	tok, err := jwt.ParseWithClaims(token, claims, hmacKeyfunc(s.accessSecret))
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Kind != model.TokenAccess {
		return nil, ErrWrongKind
	}
	return claims, nil
}

// IssueRefresh signs a fresh refresh token and binds it to the user with
// TTL equal to the refresh lifetime. The write overwrites any previous
// binding, invalidating the prior refresh token.
func (s *TokenService) IssueRefresh(ctx context.Context, user model.User) (string, error) {
	now := s.now().UTC()
	email := model.CanonicalEmail(user.Email)
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Kind: model.TokenRefresh,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.refreshSecret)
	if err != nil {
		return "", err
	}
	if err := s.tokens.StoreRefresh(ctx, email, token, s.refreshTTL); err != nil {
		return "", err
	}
	return token, nil
}

// VerifyRefresh validates signature, expiry and kind against the refresh
// secret, then requires the token to be byte-equal to the binding currently
// stored for its subject.
func (s *TokenService) VerifyRefresh(ctx context.Context, token string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	tok, err := jwt.ParseWithClaims(token, claims, hmacKeyfunc(s.refreshSecret))
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Kind != model.TokenRefresh {
		return nil, ErrWrongKind
	}
	if err := s.tokens.ValidateRefresh(ctx, claims.Subject, token); err != nil {
		if errors.Is(err, repository.ErrRefreshMismatch) {
			return nil, ErrRevoked
		}
		return nil, err
	}
	return claims, nil
}

// Rotate issues a new access/refresh pair. This is the only producer of
// refresh tokens, so every refresh request rotates the binding.
func (s *TokenService) Rotate(ctx context.Context, user model.User) (TokenPair, error) {
	access, err := s.IssueAccess(user)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.IssueRefresh(ctx, user)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Blacklist revokes an access token by jti. With an expiry hint the entry
// lives min(remaining lifetime, configured max); without one, the maximum.
// Either way the entry outlives the token itself.
func (s *TokenService) Blacklist(ctx context.Context, jti string, exp time.Time) error {
	ttl := s.blacklistMax
	if !exp.IsZero() {
		if remaining := exp.Sub(s.now()); remaining > 0 && remaining < ttl {
			ttl = remaining
		}
	}
	return s.tokens.Blacklist(ctx, jti, ttl)
}

func (s *TokenService) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	return s.tokens.IsBlacklisted(ctx, jti)
}

// RevokeRefresh deletes the user's refresh binding, forcing a full re-login.
func (s *TokenService) RevokeRefresh(ctx context.Context, email string) error {
	return s.tokens.RevokeRefresh(ctx, email)
}

// DecodeAccess extracts claims without verifying the signature or expiry.
// This is the deliberate unauthenticated tier used only by logout, which
// must work against an already-expired token; every other path goes through
// VerifyAccess.
func (s *TokenService) DecodeAccess(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
