package service

import (
	"context"
	"errors"
	"strings"

	"github.com/clipfeedhq/clipfeed/internal/accounts/domain"
	"github.com/clipfeedhq/clipfeed/internal/accounts/store"
	"github.com/clipfeedhq/clipfeed/pkg/cryptox"
	"github.com/clipfeedhq/clipfeed/pkg/jwtx"
	"github.com/clipfeedhq/clipfeed/pkg/slogx"
)

// AuthService orchestrates login, logout, refresh and access gating. It is
// stateless between requests; all session state lives in the store's
// refresh-token field.
type AuthService struct {
	Store    store.Store
	Issuer   *jwtx.Issuer
	Verifier *jwtx.Verifier
}

// Credentials are the login inputs. At least one of Username and Email must
// be supplied.
type Credentials struct {
	Username string
	Email    string
	Password string
}

func identityOf(u domain.User) jwtx.Identity {
	return jwtx.Identity{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
	}
}

// Login authenticates the credentials and opens a session: a fresh token
// pair, with the refresh half persisted as the identity's single current
// refresh token. The persistence is awaited; if it fails the login fails,
// because an unpersisted refresh token would silently break the later
// rotation check.
func (s *AuthService) Login(ctx context.Context, creds Credentials) (domain.User, domain.TokenPair, error) {
	username := strings.ToLower(strings.TrimSpace(creds.Username))
	email := strings.ToLower(strings.TrimSpace(creds.Email))

	if username == "" && email == "" {
		return domain.User{}, domain.TokenPair{}, ErrIdentifierRequired
	}

	user, err := s.Store.Users().GetByUsernameOrEmail(ctx, username, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, domain.TokenPair{}, ErrUserNotFound
		}
		return domain.User{}, domain.TokenPair{}, internalError("Failed to log in.", err)
	}

	if creds.Password == "" {
		return domain.User{}, domain.TokenPair{}, ErrPasswordRequired
	}

	if err := cryptox.VerifyPassword(creds.Password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrMismatch) {
			return domain.User{}, domain.TokenPair{}, ErrInvalidCredentials
		}
		// Stored hash is unreadable; that is our fault, not the caller's.
		return domain.User{}, domain.TokenPair{}, internalError("Failed to log in.", err)
	}

	pair, err := s.openSession(ctx, user)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}

	slogx.FromContext(ctx).Info("user logged in", "user_id", user.ID)
	return user, pair, nil
}

// Logout clears the identity's stored refresh token. The caller is expected
// to be authenticated already; the HTTP layer also clears both cookies.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.Store.Sessions().ClearRefreshToken(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUnauthorized
		}
		return internalError("Failed to log out.", err)
	}

	slogx.FromContext(ctx).Info("user logged out", "user_id", userID)
	return nil
}

// Refresh redeems a presented refresh token for a new pair. The presented
// value must verify as a refresh-kind token AND equal the currently stored
// value; rotation happens as one conditional update, so a token that has
// already been rotated away is rejected even though its signature and expiry
// are still good.
func (s *AuthService) Refresh(ctx context.Context, presented string) (domain.User, domain.TokenPair, error) {
	if presented == "" {
		return domain.User{}, domain.TokenPair{}, ErrUnauthorized
	}

	claims, err := s.Verifier.Verify(presented, jwtx.KindRefresh)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, ErrInvalidRefreshToken
	}

	user, err := s.Store.Users().GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, domain.TokenPair{}, ErrInvalidRefreshToken
		}
		return domain.User{}, domain.TokenPair{}, internalError("Failed to refresh session.", err)
	}

	access, refresh, err := s.Issuer.IssuePair(identityOf(user))
	if err != nil {
		return domain.User{}, domain.TokenPair{}, internalError("Failed to refresh session.", err)
	}

	rotated, err := s.Store.Sessions().RotateRefreshToken(ctx, user.ID, presented, refresh)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, internalError("Failed to refresh session.", err)
	}
	if !rotated {
		// Replay: the presented token is no longer the stored one.
		slogx.FromContext(ctx).Warn("refresh token replay rejected", "user_id", user.ID)
		return domain.User{}, domain.TokenPair{}, ErrRefreshTokenReused
	}

	return user, domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Authenticate gates access to protected operations: verifies the raw access
// token and loads the identity it names. Every failure is a uniform 401.
func (s *AuthService) Authenticate(ctx context.Context, rawToken string) (domain.User, error) {
	if rawToken == "" {
		return domain.User{}, ErrUnauthorized
	}

	claims, err := s.Verifier.Verify(rawToken, jwtx.KindAccess)
	if err != nil {
		return domain.User{}, ErrInvalidAccessToken
	}

	user, err := s.Store.Users().GetByID(ctx, claims.Subject)
	if err != nil {
		return domain.User{}, ErrInvalidAccessToken
	}

	return user, nil
}

func (s *AuthService) openSession(ctx context.Context, user domain.User) (domain.TokenPair, error) {
	access, refresh, err := s.Issuer.IssuePair(identityOf(user))
	if err != nil {
		return domain.TokenPair{}, internalError("Something went wrong while generating tokens.", err)
	}

	if err := s.Store.Sessions().SetRefreshToken(ctx, user.ID, refresh); err != nil {
		return domain.TokenPair{}, internalError("Something went wrong while generating tokens.", err)
	}

	return domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
