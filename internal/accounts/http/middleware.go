package http

import (
	"net/http"

	"github.com/clipfeedhq/clipfeed/internal/accounts/service"
	"github.com/clipfeedhq/clipfeed/pkg/httpx"
	"github.com/clipfeedhq/clipfeed/pkg/slogx"
)

// Cookie names shared by the login, refresh and logout handlers.
const (
	accessCookie  = "accessToken"
	refreshCookie = "refreshToken"
)

// requireAuth gates a route on a valid access token, taken from the
// accessToken cookie or an Authorization bearer header. On success the
// resolved user rides the request context.
func requireAuth(auth *service.AuthService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token := httpx.CookieValue(r, accessCookie)
			if token == "" {
				token = httpx.BearerToken(r)
			}

			user, err := auth.Authenticate(ctx, token)
			if err != nil {
				writeServiceError(w, slogx.FromContext(ctx), err)
				return
			}

			next.ServeHTTP(w, r.WithContext(withCurrentUser(ctx, user)))
		})
	}
}
