package repository

import (
	"context"
	"encoding/json"

	"github.com/iliyamo/llm-proxy-admin/internal/model"
	"github.com/iliyamo/llm-proxy-admin/internal/store"
)

const userKeyPrefix = "user:"

// UserRepo is the user directory: full JSON records keyed by canonical
// email on the key-value store. Records never expire.
type UserRepo struct {
	Store store.Store
}

func NewUserRepo(s store.Store) *UserRepo { return &UserRepo{Store: s} }

func userKey(email string) string {
	return userKeyPrefix + model.CanonicalEmail(email)
}

// Get fetches a user by email. Returns ErrUserNotFound when absent.
func (r *UserRepo) Get(ctx context.Context, email string) (model.User, error) {
	raw, ok, err := r.Store.Get(ctx, userKey(email))
	if err != nil {
		return model.User{}, err
	}
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	var u model.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// Save writes the full record. The stored email is always the canonical
// form regardless of what the caller put in the struct.
func (r *UserRepo) Save(ctx context.Context, u model.User) error {
	u.Email = model.CanonicalEmail(u.Email)
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return r.Store.Set(ctx, userKey(u.Email), string(raw), 0)
}

func (r *UserRepo) Delete(ctx context.Context, email string) error {
	return r.Store.Del(ctx, userKey(email))
}

// List returns every user record. Keys that vanish between the scan and the
// read are skipped rather than failing the whole listing.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	keys, err := r.Store.Scan(ctx, userKeyPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]model.User, 0, len(keys))
	for _, key := range keys {
		raw, ok, err := r.Store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		var u model.User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}
