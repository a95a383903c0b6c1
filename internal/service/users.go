package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iliyamo/llm-proxy-admin/internal/model"
	"github.com/iliyamo/llm-proxy-admin/internal/queue"
	"github.com/iliyamo/llm-proxy-admin/internal/repository"
	"github.com/iliyamo/llm-proxy-admin/internal/security"
)

// CreateUserInput carries everything needed to create a user. The API key
// is optional at creation and may be rotated in later.
type CreateUserInput struct {
	Email    string
	Password string
	APIKey   string
	Role     model.Role
}

// UpdateUserInput is a partial update; nil means keep the existing value.
// Plaintext password and API key are hashed/encrypted here before they ever
// reach the directory.
type UpdateUserInput struct {
	Email    string
	Password *string
	APIKey   *string
	Role     *model.Role
	Enabled  *bool
}

// UserService implements the directory operations: CRUD plus API key
// rotation, with the bootstrap admin protected from deletion and downgrade.
type UserService struct {
	users      *repository.UserRepo
	cryptor    *security.Cryptor
	log        *slog.Logger
	audit      *Publisher
	adminEmail string
	bcryptCost int
}

func NewUserService(users *repository.UserRepo, cryptor *security.Cryptor, log *slog.Logger, audit *Publisher, adminEmail string, bcryptCost int) *UserService {
	return &UserService{
		users:      users,
		cryptor:    cryptor,
		log:        log,
		audit:      audit,
		adminEmail: model.CanonicalEmail(adminEmail),
		bcryptCost: bcryptCost,
	}
}

// isBootstrapAdmin reports whether u is the configured bootstrap admin
// record, the one account that can never be removed or downgraded.
func (s *UserService) isBootstrapAdmin(u model.User) bool {
	return u.Role == model.RoleAdmin && model.CanonicalEmail(u.Email) == s.adminEmail
}

func (s *UserService) Create(ctx context.Context, in CreateUserInput) error {
	if in.Email == "" || in.Password == "" {
		return fmt.Errorf("%w: email and password required", ErrBadRequest)
	}
	role := in.Role
	if role == "" {
		role = model.RoleUser
	}

	_, err := s.users.Get(ctx, in.Email)
	if err == nil {
		return ErrConflict
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return err
	}

	hash, err := security.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return err
	}
	var encKey string
	if in.APIKey != "" {
		encKey, err = s.cryptor.Encrypt(in.APIKey)
		if err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	u := model.User{
		Email:            model.CanonicalEmail(in.Email),
		PasswordHash:     hash,
		APIKeyCiphertext: encKey,
		Role:             role,
		Enabled:          true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.users.Save(ctx, u); err != nil {
		return err
	}

	masked := security.MaskEmail(u.Email)
	s.log.Info("user created", "email", masked, "role", string(role))
	s.audit.emit(ctx, queue.EventUserCreated, masked)
	return nil
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}

func (s *UserService) Update(ctx context.Context, in UpdateUserInput) error {
	existing, err := s.users.Get(ctx, in.Email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return fmt.Errorf("%w: can't update user", ErrBadRequest)
	}
	if err != nil {
		return err
	}
	if s.isBootstrapAdmin(existing) && in.Role != nil && *in.Role != model.RoleAdmin {
		return fmt.Errorf("%w: can't downgrade user role", ErrBadRequest)
	}

	upd := model.UserUpdate{Role: in.Role, Enabled: in.Enabled}
	if in.Password != nil {
		hash, err := security.HashPassword(*in.Password, s.bcryptCost)
		if err != nil {
			return err
		}
		upd.PasswordHash = &hash
	}
	if in.APIKey != nil {
		enc, err := s.cryptor.Encrypt(*in.APIKey)
		if err != nil {
			return err
		}
		upd.APIKeyCiphertext = &enc
	}

	merged := existing.Merge(upd)
	merged.UpdatedAt = time.Now().UTC()
	if err := s.users.Save(ctx, merged); err != nil {
		return err
	}

	masked := security.MaskEmail(merged.Email)
	s.log.Info("user updated", "email", masked)
	s.audit.emit(ctx, queue.EventUserUpdated, masked)
	return nil
}

func (s *UserService) Delete(ctx context.Context, email string) error {
	existing, err := s.users.Get(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return fmt.Errorf("%w: can't remove user", ErrBadRequest)
	}
	if err != nil {
		return err
	}
	if s.isBootstrapAdmin(existing) {
		return fmt.Errorf("%w: can't remove user", ErrBadRequest)
	}

	if err := s.users.Delete(ctx, email); err != nil {
		return err
	}
	masked := security.MaskEmail(existing.Email)
	s.log.Info("user deleted", "email", masked)
	s.audit.emit(ctx, queue.EventUserDeleted, masked)
	return nil
}

// UpsertAPIKey replaces the user's upstream API key with a freshly
// encrypted value.
func (s *UserService) UpsertAPIKey(ctx context.Context, email, apiKey string) error {
	existing, err := s.users.Get(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return fmt.Errorf("%w: can't update api key", ErrBadRequest)
	}
	if err != nil {
		return err
	}
	if apiKey == "" {
		return fmt.Errorf("%w: can't update api key", ErrBadRequest)
	}

	enc, err := s.cryptor.Encrypt(apiKey)
	if err != nil {
		return err
	}
	merged := existing.Merge(model.UserUpdate{APIKeyCiphertext: &enc})
	merged.UpdatedAt = time.Now().UTC()
	if err := s.users.Save(ctx, merged); err != nil {
		return err
	}

	masked := security.MaskEmail(existing.Email)
	s.log.Info("api key rotated", "email", masked)
	s.audit.emit(ctx, queue.EventUserUpdated, masked)
	return nil
}

// APIKey returns the decrypted upstream API key for a user. The forwarding
// proxy consumes this when relaying chat-completion traffic. A decryption
// failure here means key or data corruption and propagates as-is.
func (s *UserService) APIKey(ctx context.Context, email string) (string, error) {
	u, err := s.users.Get(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return "", fmt.Errorf("%w: unknown user", ErrBadRequest)
	}
	if err != nil {
		return "", err
	}
	if u.APIKeyCiphertext == "" {
		return "", fmt.Errorf("%w: no api key on record", ErrBadRequest)
	}
	return s.cryptor.Decrypt(u.APIKeyCiphertext)
}
