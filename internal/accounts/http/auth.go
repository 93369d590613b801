package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/clipfeedhq/clipfeed/internal/accounts/domain"
	"github.com/clipfeedhq/clipfeed/internal/accounts/service"
	"github.com/clipfeedhq/clipfeed/pkg/httpx"
	"github.com/clipfeedhq/clipfeed/pkg/slogx"
)

// sessionResponse is the login payload: the public identity plus both tokens.
// The tokens also travel as cookies; the body copy serves non-browser clients.
type sessionResponse struct {
	User         domain.PublicUser `json:"user"`
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken"`
}

type LoginHandler struct {
	Auth       *service.AuthService
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteFailure(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, pair, err := h.Auth.Login(ctx, service.Credentials{
		Username: body.Username,
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		writeServiceError(w, slogx.FromContext(ctx), err)
		return
	}

	httpx.SetAuthCookie(w, accessCookie, pair.AccessToken, h.AccessTTL)
	httpx.SetAuthCookie(w, refreshCookie, pair.RefreshToken, h.RefreshTTL)

	httpx.WriteSuccess(w, http.StatusOK, sessionResponse{
		User:         user.Public(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "User logged in successfully.")
}

type LogoutHandler struct {
	Auth *service.AuthService
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := CurrentUser(ctx)
	if !ok {
		writeServiceError(w, slogx.FromContext(ctx), service.ErrUnauthorized)
		return
	}

	if err := h.Auth.Logout(ctx, user.ID); err != nil {
		writeServiceError(w, slogx.FromContext(ctx), err)
		return
	}

	httpx.ClearAuthCookie(w, accessCookie)
	httpx.ClearAuthCookie(w, refreshCookie)

	httpx.WriteSuccess(w, http.StatusOK, nil, "User logged out successfully.")
}

type RefreshHandler struct {
	Auth       *service.AuthService
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Browser clients present the cookie; others may send the token in the
	// body instead.
	presented := httpx.CookieValue(r, refreshCookie)
	if presented == "" && r.Body != nil {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		presented = body.RefreshToken
	}

	_, pair, err := h.Auth.Refresh(ctx, presented)
	if err != nil {
		writeServiceError(w, slogx.FromContext(ctx), err)
		return
	}

	httpx.SetAuthCookie(w, accessCookie, pair.AccessToken, h.AccessTTL)
	httpx.SetAuthCookie(w, refreshCookie, pair.RefreshToken, h.RefreshTTL)

	httpx.WriteSuccess(w, http.StatusOK, pair, "Access token refreshed.")
}
