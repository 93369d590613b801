package http

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/clipfeedhq/clipfeed/internal/accounts/domain"
	"github.com/clipfeedhq/clipfeed/internal/accounts/media"
	"github.com/clipfeedhq/clipfeed/internal/accounts/service"
	"github.com/clipfeedhq/clipfeed/pkg/httpx"
	"github.com/clipfeedhq/clipfeed/pkg/slogx"
)

// maxUploadBytes bounds the in-memory portion of a multipart registration;
// larger file parts spill to temp files.
const maxUploadBytes = 10 << 20

// formFile adapts one multipart file part into a media.File. Returns nil when
// the field is absent, which the service treats as "not supplied".
func formFile(r *http.Request, field string) (*media.File, func(), error) {
	f, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, func() {}, nil
		}
		return nil, func() {}, err
	}
	return &media.File{
		Name:        header.Filename,
		Reader:      f,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
	}, func() { _ = f.Close() }, nil
}

type RegisterHandler struct {
	Users *service.UserService
}

func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpx.WriteFailure(w, http.StatusBadRequest, "Invalid multipart form.")
		return
	}
	defer cleanupMultipart(r.MultipartForm)

	avatar, closeAvatar, err := formFile(r, "avatar")
	if err != nil {
		httpx.WriteFailure(w, http.StatusBadRequest, "Invalid avatar file.")
		return
	}
	defer closeAvatar()

	cover, closeCover, err := formFile(r, "coverImage")
	if err != nil {
		httpx.WriteFailure(w, http.StatusBadRequest, "Invalid cover image file.")
		return
	}
	defer closeCover()

	user, err := h.Users.Register(ctx, service.Registration{
		FullName:   r.FormValue("fullName"),
		Username:   r.FormValue("username"),
		Email:      r.FormValue("email"),
		Password:   r.FormValue("password"),
		Avatar:     avatar,
		CoverImage: cover,
	})
	if err != nil {
		writeServiceError(w, slogx.FromContext(ctx), err)
		return
	}

	httpx.WriteSuccess(w, http.StatusCreated, user.Public(), "User registered successfully.")
}

func cleanupMultipart(form *multipart.Form) {
	if form != nil {
		_ = form.RemoveAll()
	}
}

type MeHandler struct{}

func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := CurrentUser(ctx)
	if !ok {
		writeServiceError(w, slogx.FromContext(ctx), service.ErrUnauthorized)
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, user.Public(), "Current user fetched successfully.")
}

type ChangePasswordHandler struct {
	Users *service.UserService
}

func (h *ChangePasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := CurrentUser(ctx)
	if !ok {
		writeServiceError(w, slogx.FromContext(ctx), service.ErrUnauthorized)
		return
	}

	var body struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteFailure(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if err := h.Users.ChangePassword(ctx, user.ID, body.OldPassword, body.NewPassword); err != nil {
		writeServiceError(w, slogx.FromContext(ctx), err)
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, nil, "Password changed successfully.")
}

type AvatarHandler struct {
	Users *service.UserService
}

func (h *AvatarHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	updateImage(w, r, "avatar", "Avatar updated successfully.", h.Users.UpdateAvatar)
}

type CoverImageHandler struct {
	Users *service.UserService
}

func (h *CoverImageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	updateImage(w, r, "coverImage", "Cover image updated successfully.", h.Users.UpdateCoverImage)
}

func updateImage(
	w http.ResponseWriter,
	r *http.Request,
	field, successMsg string,
	update func(ctx context.Context, userID string, f *media.File) (domain.User, error),
) {
	ctx := r.Context()

	user, ok := CurrentUser(ctx)
	if !ok {
		writeServiceError(w, slogx.FromContext(ctx), service.ErrUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpx.WriteFailure(w, http.StatusBadRequest, "Invalid multipart form.")
		return
	}
	defer cleanupMultipart(r.MultipartForm)

	file, closeFile, err := formFile(r, field)
	if err != nil {
		httpx.WriteFailure(w, http.StatusBadRequest, "Invalid image file.")
		return
	}
	defer closeFile()

	updated, err := update(ctx, user.ID, file)
	if err != nil {
		writeServiceError(w, slogx.FromContext(ctx), err)
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, updated.Public(), successMsg)
}
