package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clipfeedhq/clipfeed/internal/accounts/media"
	"github.com/clipfeedhq/clipfeed/internal/accounts/store/drivers/memory"
	"github.com/clipfeedhq/clipfeed/pkg/cryptox"
	"github.com/clipfeedhq/clipfeed/pkg/idx"
)

type fakeUploader struct {
	keys    []string
	failFor string // key prefix that fails
}

func (f *fakeUploader) Upload(_ context.Context, key string, _ media.File) (string, error) {
	if f.failFor != "" && strings.HasPrefix(key, f.failFor) {
		return "", errors.New("upload failed")
	}
	f.keys = append(f.keys, key)
	return "https://media.test/clipfeed-media/" + key, nil
}

func newTestUsers(t *testing.T) (*UserService, *memory.Store, *fakeUploader) {
	t.Helper()

	st := memory.NewStore()
	up := &fakeUploader{}
	return &UserService{Store: st, Media: up, HashCost: 4}, st, up
}

func validRegistration() Registration {
	return Registration{
		FullName: "  Casey Jones ",
		Username: " Casey ",
		Email:    " Casey@Example.COM ",
		Password: "hunter22",
		Avatar:   &media.File{Name: "face.PNG", Reader: strings.NewReader("png"), Size: 3, ContentType: "image/png"},
	}
}

func TestRegisterCreatesSanitizedUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, st, up := newTestUsers(t)

	user, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)
	require.Equal(t, "Casey Jones", user.FullName)
	require.Equal(t, "casey", user.Username)
	require.Equal(t, "casey@example.com", user.Email)
	require.Equal(t, "https://media.test/clipfeed-media/avatars/"+user.ID+".png", user.AvatarURL)
	require.Empty(t, user.CoverImageURL)
	require.False(t, user.CreatedAt.IsZero())

	// Plaintext never stored; the hash verifies.
	require.NotEqual(t, "hunter22", user.PasswordHash)
	require.NoError(t, cryptox.VerifyPassword("hunter22", user.PasswordHash))

	require.Len(t, up.keys, 1)
	require.Equal(t, "avatars/"+user.ID+".png", up.keys[0])

	stored, err := st.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, user.Username, stored.Username)
}

func TestRegisterWithCoverImage(t *testing.T) {
	t.Parallel()

	svc, _, up := newTestUsers(t)

	reg := validRegistration()
	reg.CoverImage = &media.File{Name: "banner.jpg", Reader: strings.NewReader("jpg"), Size: 3, ContentType: "image/jpeg"}

	user, err := svc.Register(context.Background(), reg)
	require.NoError(t, err)
	require.Equal(t, "https://media.test/clipfeed-media/covers/"+user.ID+".jpg", user.CoverImageURL)
	require.Len(t, up.keys, 2)
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, _, _ := newTestUsers(t)

	for _, mutate := range []func(*Registration){
		func(r *Registration) { r.FullName = "   " },
		func(r *Registration) { r.Username = "" },
		func(r *Registration) { r.Email = "" },
		func(r *Registration) { r.Password = "" },
	} {
		reg := validRegistration()
		mutate(&reg)
		_, err := svc.Register(ctx, reg)
		require.ErrorIs(t, err, ErrFieldsRequired)
	}

	reg := validRegistration()
	reg.Avatar = nil
	_, err := svc.Register(ctx, reg)
	require.ErrorIs(t, err, ErrAvatarRequired)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, _, _ := newTestUsers(t)

	_, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	// Same username, different email.
	reg := validRegistration()
	reg.Email = "other@example.com"
	reg.Avatar = &media.File{Name: "face.png", Reader: strings.NewReader("png"), Size: 3}
	_, err = svc.Register(ctx, reg)
	require.ErrorIs(t, err, ErrUserExists)

	// Same email, different username.
	reg = validRegistration()
	reg.Username = "other"
	reg.Avatar = &media.File{Name: "face.png", Reader: strings.NewReader("png"), Size: 3}
	_, err = svc.Register(ctx, reg)
	require.ErrorIs(t, err, ErrUserExists)
}

func TestRegisterUploadFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, _, up := newTestUsers(t)
	up.failFor = "avatars/"

	_, err := svc.Register(ctx, validRegistration())
	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, http.StatusBadRequest, svcErr.Status)

	up.failFor = "covers/"
	reg := validRegistration()
	reg.CoverImage = &media.File{Name: "banner.jpg", Reader: strings.NewReader("jpg"), Size: 3}
	_, err = svc.Register(ctx, reg)
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, http.StatusBadRequest, svcErr.Status)
}

func TestChangePassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, st, _ := newTestUsers(t)
	user, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	require.ErrorIs(t, svc.ChangePassword(ctx, user.ID, "", "next"), ErrFieldsRequired)
	require.ErrorIs(t, svc.ChangePassword(ctx, user.ID, "hunter22", ""), ErrFieldsRequired)
	require.ErrorIs(t, svc.ChangePassword(ctx, user.ID, "wrong", "next22"), ErrInvalidOldPassword)

	require.NoError(t, svc.ChangePassword(ctx, user.ID, "hunter22", "next22"))

	updated, err := st.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NoError(t, cryptox.VerifyPassword("next22", updated.PasswordHash))
	require.ErrorIs(t, cryptox.VerifyPassword("hunter22", updated.PasswordHash), cryptox.ErrMismatch)
}

func TestChangePasswordKeepsSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, st, _ := newTestUsers(t)
	user, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	require.NoError(t, st.Sessions().SetRefreshToken(ctx, user.ID, "live-refresh-token"))
	require.NoError(t, svc.ChangePassword(ctx, user.ID, "hunter22", "next22"))

	stored, err := st.Sessions().GetRefreshToken(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "live-refresh-token", stored)
}

func TestUpdateAvatar(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, _, _ := newTestUsers(t)
	user, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	_, err = svc.UpdateAvatar(ctx, user.ID, nil)
	require.ErrorIs(t, err, ErrAvatarRequired)

	updated, err := svc.UpdateAvatar(ctx, user.ID, &media.File{
		Name: "new-face.webp", Reader: strings.NewReader("webp"), Size: 4, ContentType: "image/webp",
	})
	require.NoError(t, err)
	require.Equal(t, "https://media.test/clipfeed-media/avatars/"+user.ID+".webp", updated.AvatarURL)
}

func TestUpdateCoverImage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, _, _ := newTestUsers(t)
	user, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	_, err = svc.UpdateCoverImage(ctx, user.ID, nil)
	require.ErrorIs(t, err, ErrCoverRequired)

	updated, err := svc.UpdateCoverImage(ctx, user.ID, &media.File{
		Name: "banner.jpg", Reader: strings.NewReader("jpg"), Size: 3, ContentType: "image/jpeg",
	})
	require.NoError(t, err)
	require.Equal(t, "https://media.test/clipfeed-media/covers/"+user.ID+".jpg", updated.CoverImageURL)
}

func TestUpdateAvatarUnknownUser(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestUsers(t)
	_, err := svc.UpdateAvatar(context.Background(), idx.New().String(), &media.File{
		Name: "x.png", Reader: strings.NewReader("x"), Size: 1,
	})
	require.ErrorIs(t, err, ErrUnauthorized)
}
