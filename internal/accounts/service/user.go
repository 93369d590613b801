package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/clipfeedhq/clipfeed/internal/accounts/domain"
	"github.com/clipfeedhq/clipfeed/internal/accounts/media"
	"github.com/clipfeedhq/clipfeed/internal/accounts/store"
	"github.com/clipfeedhq/clipfeed/pkg/cryptox"
	"github.com/clipfeedhq/clipfeed/pkg/idx"
	"github.com/clipfeedhq/clipfeed/pkg/slogx"
)

// UserService implements registration and account mutations. Media uploads
// are synchronous: registration does not complete until the avatar (and cover
// image, when supplied) are stored and have public URLs.
type UserService struct {
	Store    store.Store
	Media    media.Uploader
	HashCost int
}

// Registration carries the register inputs. Avatar is required, CoverImage
// optional.
type Registration struct {
	FullName   string
	Username   string
	Email      string
	Password   string
	Avatar     *media.File
	CoverImage *media.File
}

// Register creates a new account. Text fields are trimmed, username and email
// lowercased. The uniqueness pre-check gives a friendly 409 before any upload
// work; the store's unique indexes backstop concurrent registrations.
func (s *UserService) Register(ctx context.Context, reg Registration) (domain.User, error) {
	fullName := strings.TrimSpace(reg.FullName)
	username := strings.ToLower(strings.TrimSpace(reg.Username))
	email := strings.ToLower(strings.TrimSpace(reg.Email))

	if fullName == "" || username == "" || email == "" || reg.Password == "" {
		return domain.User{}, ErrFieldsRequired
	}
	if reg.Avatar == nil {
		return domain.User{}, ErrAvatarRequired
	}

	if _, err := s.Store.Users().GetByUsernameOrEmail(ctx, username, email); err == nil {
		return domain.User{}, ErrUserExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, internalError("Failed to register user.", err)
	}

	id := idx.New().String()

	avatarURL, err := s.Media.Upload(ctx, mediaKey("avatars", id, reg.Avatar.Name), *reg.Avatar)
	if err != nil {
		return domain.User{}, &Error{Status: ErrAvatarRequired.Status, Message: "Failed to upload avatar.", Err: err}
	}

	var coverURL string
	if reg.CoverImage != nil {
		coverURL, err = s.Media.Upload(ctx, mediaKey("covers", id, reg.CoverImage.Name), *reg.CoverImage)
		if err != nil {
			return domain.User{}, &Error{Status: ErrCoverRequired.Status, Message: "Failed to upload cover image.", Err: err}
		}
	}

	hash, err := cryptox.HashPassword(reg.Password, s.HashCost)
	if err != nil {
		return domain.User{}, internalError("Failed to register user.", err)
	}

	user := domain.User{
		ID:            id,
		Username:      username,
		Email:         email,
		FullName:      fullName,
		PasswordHash:  hash,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
	}

	if err := s.Store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrUserExists
		}
		return domain.User{}, internalError("Failed to register user.", err)
	}

	created, err := s.Store.Users().GetByID(ctx, id)
	if err != nil {
		return domain.User{}, internalError("Failed to register user.", err)
	}

	slogx.FromContext(ctx).Info("user registered", "user_id", id, "username", username)
	return created, nil
}

// ChangePassword verifies the old password before storing a fresh hash of the
// new one. Existing sessions stay valid; tokens are not reissued here.
func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return ErrFieldsRequired
	}

	user, err := s.Store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUnauthorized
		}
		return internalError("Failed to change password.", err)
	}

	if err := cryptox.VerifyPassword(oldPassword, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrMismatch) {
			return ErrInvalidOldPassword
		}
		return internalError("Failed to change password.", err)
	}

	hash, err := cryptox.HashPassword(newPassword, s.HashCost)
	if err != nil {
		return internalError("Failed to change password.", err)
	}

	if err := s.Store.Users().UpdatePasswordHash(ctx, userID, hash); err != nil {
		return internalError("Failed to change password.", err)
	}

	slogx.FromContext(ctx).Info("password changed", "user_id", userID)
	return nil
}

// UpdateAvatar replaces the user's avatar with a freshly uploaded file.
func (s *UserService) UpdateAvatar(ctx context.Context, userID string, f *media.File) (domain.User, error) {
	if f == nil {
		return domain.User{}, ErrAvatarRequired
	}

	url, err := s.Media.Upload(ctx, mediaKey("avatars", userID, f.Name), *f)
	if err != nil {
		return domain.User{}, &Error{Status: ErrAvatarRequired.Status, Message: "Failed to upload avatar.", Err: err}
	}

	if err := s.Store.Users().UpdateAvatar(ctx, userID, url); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUnauthorized
		}
		return domain.User{}, internalError("Failed to update avatar.", err)
	}

	return s.fetch(ctx, userID, "Failed to update avatar.")
}

// UpdateCoverImage replaces the user's cover image with a freshly uploaded
// file.
func (s *UserService) UpdateCoverImage(ctx context.Context, userID string, f *media.File) (domain.User, error) {
	if f == nil {
		return domain.User{}, ErrCoverRequired
	}

	url, err := s.Media.Upload(ctx, mediaKey("covers", userID, f.Name), *f)
	if err != nil {
		return domain.User{}, &Error{Status: ErrCoverRequired.Status, Message: "Failed to upload cover image.", Err: err}
	}

	if err := s.Store.Users().UpdateCoverImage(ctx, userID, url); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUnauthorized
		}
		return domain.User{}, internalError("Failed to update cover image.", err)
	}

	return s.fetch(ctx, userID, "Failed to update cover image.")
}

func (s *UserService) fetch(ctx context.Context, userID, failMsg string) (domain.User, error) {
	user, err := s.Store.Users().GetByID(ctx, userID)
	if err != nil {
		return domain.User{}, internalError(failMsg, err)
	}
	return user, nil
}

// mediaKey builds the object key for an upload: the owning user's id under a
// per-purpose prefix, keeping only the original filename's extension.
func mediaKey(prefix, userID, filename string) string {
	return prefix + "/" + userID + strings.ToLower(filepath.Ext(filename))
}
