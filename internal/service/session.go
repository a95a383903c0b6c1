package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/iliyamo/llm-proxy-admin/internal/model"
	"github.com/iliyamo/llm-proxy-admin/internal/queue"
	"github.com/iliyamo/llm-proxy-admin/internal/repository"
	"github.com/iliyamo/llm-proxy-admin/internal/security"
)

// LoginResult is what a successful login returns to the client.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	Email        string
	Role         model.Role
}

// SessionService orchestrates the session lifecycle: login with bootstrap
// provisioning, refresh with rotation, and idempotent logout. The server
// keeps no session object beyond the refresh binding; an active session is
// purely client-held tokens.
type SessionService struct {
	users      *repository.UserRepo
	tokens     *TokenService
	log        *slog.Logger
	audit      *Publisher
	adminEmail string
	adminPass  string
	bcryptCost int
	// dummyHash burns a bcrypt comparison on the unknown-user and
	// non-admin paths so they cost the same as a wrong password.
	dummyHash string
}

func NewSessionService(users *repository.UserRepo, tokens *TokenService, log *slog.Logger, audit *Publisher, adminEmail, adminPassword string, bcryptCost int) (*SessionService, error) {
	dummy, err := security.HashPassword("session-timing-pad", bcryptCost)
	if err != nil {
		return nil, err
	}
	return &SessionService{
		users:      users,
		tokens:     tokens,
		log:        log,
		audit:      audit,
		adminEmail: model.CanonicalEmail(adminEmail),
		adminPass:  adminPassword,
		bcryptCost: bcryptCost,
		dummyHash:  dummy,
	}, nil
}

// ensureBootstrapAdmin provisions the configured admin account when no
// ADMIN record exists at the configured email. It runs on every login
// attempt and is a no-op once the admin exists, so the account self-heals
// after a store wipe. Bootstrap always targets the configured email; the
// login lookup below targets the submitted one.
func (s *SessionService) ensureBootstrapAdmin(ctx context.Context) error {
	if s.adminEmail == "" || s.adminPass == "" {
		s.log.Warn("bootstrap admin not configured; no admin will be provisioned")
		return nil
	}

	existing, err := s.users.Get(ctx, s.adminEmail)
	if err == nil && existing.Role == model.RoleAdmin {
		return nil
	}
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return err
	}

	hash, err := security.HashPassword(s.adminPass, s.bcryptCost)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	admin := model.User{
		Email:        s.adminEmail,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		Enabled:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Save(ctx, admin); err != nil {
		return err
	}
	s.log.Info("bootstrap admin created", "email", security.MaskEmail(s.adminEmail))
	return nil
}

// Login authenticates an administrator. Unknown user, non-admin role and
// wrong password all surface as the same ErrUnauthorized.
func (s *SessionService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if err := s.ensureBootstrapAdmin(ctx); err != nil {
		return nil, err
	}

	user, err := s.users.Get(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}
	if err != nil || user.Role != model.RoleAdmin {
		security.VerifyPassword(s.dummyHash, password)
		return nil, ErrUnauthorized
	}
	if !security.VerifyPassword(user.PasswordHash, password) {
		return nil, ErrUnauthorized
	}

	pair, err := s.tokens.Rotate(ctx, user)
	if err != nil {
		return nil, err
	}

	masked := security.MaskEmail(user.Email)
	s.log.Info("admin login", "email", masked)
	s.audit.emit(ctx, queue.EventLogin, masked)

	return &LoginResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Email:        user.Email,
		Role:         user.Role,
	}, nil
}

// Refresh exchanges a valid refresh token for a new pair, rotating the
// stored binding. Any verification failure, a missing subject or a disabled
// user all surface as ErrUnauthorized.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.VerifyRefresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrWrongKind) || errors.Is(err, ErrRevoked) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	user, err := s.users.Get(ctx, claims.Subject)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if !user.Enabled {
		return nil, ErrUnauthorized
	}

	pair, err := s.tokens.Rotate(ctx, user)
	if err != nil {
		return nil, err
	}
	s.audit.emit(ctx, queue.EventRefresh, security.MaskEmail(user.Email))
	return &pair, nil
}

// Logout terminates the session carried by accessToken: the jti is
// blacklisted and the subject's refresh binding deleted. The token is
// decoded without verification so an expired token still logs out. A token
// missing sub or jti makes the call a no-op; a client must always be able
// to clear its own session state.
func (s *SessionService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.tokens.DecodeAccess(accessToken)
	if err != nil || claims.Subject == "" || claims.ID == "" {
		return nil
	}

	var exp time.Time
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	if err := s.tokens.Blacklist(ctx, claims.ID, exp); err != nil {
		return err
	}
	if err := s.tokens.RevokeRefresh(ctx, claims.Subject); err != nil {
		return err
	}

	masked := security.MaskEmail(claims.Subject)
	s.log.Info("logout", "email", masked)
	s.audit.emit(ctx, queue.EventLogout, masked)
	return nil
}
