// Package memory is an in-process Store driver. It backs unit tests and the
// dev mode; production runs on the mongo driver. All operations serialize on
// one mutex, which trivially satisfies the rotation atomicity contract.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/clipfeedhq/clipfeed/internal/accounts/domain"
	"github.com/clipfeedhq/clipfeed/internal/accounts/store"
)

type Store struct {
	mu    sync.Mutex
	users map[string]domain.User // keyed by id
}

func NewStore() *Store {
	return &Store{users: make(map[string]domain.User)}
}

func (s *Store) Users() store.Users       { return (*usersRepo)(s) }
func (s *Store) Sessions() store.Sessions { return (*sessionsRepo)(s) }

func (s *Store) Close() error                 { return nil }
func (s *Store) Ping(_ context.Context) error { return nil }

type usersRepo Store

func (r *usersRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return u, nil
}

func (r *usersRepo) GetByUsernameOrEmail(_ context.Context, username, email string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	username = strings.ToLower(username)
	email = strings.ToLower(email)

	for _, u := range r.users {
		if (username != "" && u.Username == username) ||
			(email != "" && u.Email == email) {
			return u, nil
		}
	}
	return domain.User{}, store.ErrNotFound
}

func (r *usersRepo) Create(_ context.Context, u domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[u.ID]; ok {
		return store.ErrAlreadyExists
	}
	for _, existing := range r.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return store.ErrAlreadyExists
		}
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	r.users[u.ID] = u
	return nil
}

func (r *usersRepo) UpdatePasswordHash(_ context.Context, userID, newHash string) error {
	return r.update(userID, func(u *domain.User) { u.PasswordHash = newHash })
}

func (r *usersRepo) UpdateAvatar(_ context.Context, userID, url string) error {
	return r.update(userID, func(u *domain.User) { u.AvatarURL = url })
}

func (r *usersRepo) UpdateCoverImage(_ context.Context, userID, url string) error {
	return r.update(userID, func(u *domain.User) { u.CoverImageURL = url })
}

func (r *usersRepo) update(userID string, mutate func(*domain.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	mutate(&u)
	u.UpdatedAt = time.Now().UTC()
	r.users[userID] = u
	return nil
}

type sessionsRepo Store

func (r *sessionsRepo) SetRefreshToken(_ context.Context, userID, token string) error {
	return (*usersRepo)(r).update(userID, func(u *domain.User) { u.RefreshToken = token })
}

func (r *sessionsRepo) GetRefreshToken(_ context.Context, userID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return "", store.ErrNotFound
	}
	return u.RefreshToken, nil
}

func (r *sessionsRepo) ClearRefreshToken(_ context.Context, userID string) error {
	return (*usersRepo)(r).update(userID, func(u *domain.User) { u.RefreshToken = "" })
}

func (r *sessionsRepo) RotateRefreshToken(_ context.Context, userID, presented, next string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return false, store.ErrNotFound
	}
	if u.RefreshToken == "" || u.RefreshToken != presented {
		return false, nil
	}
	u.RefreshToken = next
	u.UpdatedAt = time.Now().UTC()
	r.users[userID] = u
	return true, nil
}
