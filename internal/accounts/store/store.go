package store

import (
	"context"
	"errors"

	"github.com/clipfeedhq/clipfeed/internal/accounts/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (mongo for
// production, memory for tests and dev) implement this. Sub-repositories keep
// concerns tidy; both operate on the same underlying user document.
type Store interface {
	Users() Users
	Sessions() Sessions

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the backing store is still reachable.
	Ping(ctx context.Context) error
}

type Users interface {
	// GetByID returns a user by id.
	GetByID(ctx context.Context, id string) (domain.User, error)

	// GetByUsernameOrEmail matches on either unique key; pass "" for the one
	// not supplied. Used by login, which accepts username or email.
	GetByUsernameOrEmail(ctx context.Context, username, email string) (domain.User, error)

	// Create inserts a new user (id is provided by the app via ULID).
	// Returns ErrAlreadyExists when username or email is taken.
	Create(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error

	// UpdateAvatar sets the avatar URL and bumps updated_at.
	UpdateAvatar(ctx context.Context, userID, url string) error

	// UpdateCoverImage sets the cover image URL and bumps updated_at.
	UpdateCoverImage(ctx context.Context, userID, url string) error
}

// Sessions manages the single current refresh token stored on each identity.
type Sessions interface {
	// SetRefreshToken overwrites the stored refresh token. At most one live
	// refresh token exists per identity at any time.
	SetRefreshToken(ctx context.Context, userID, token string) error

	// GetRefreshToken returns the stored token, "" when none.
	GetRefreshToken(ctx context.Context, userID string) (string, error)

	// ClearRefreshToken empties the stored token on logout.
	ClearRefreshToken(ctx context.Context, userID string) error

	// RotateRefreshToken stores next only if presented equals the currently
	// stored value, as a single conditional update. Returns false without
	// mutation on mismatch; under concurrent rotation exactly one caller
	// wins. This is the anti-replay guarantee.
	RotateRefreshToken(ctx context.Context, userID, presented, next string) (bool, error)
}
