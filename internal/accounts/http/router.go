package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/clipfeedhq/clipfeed/internal/accounts/service"
	"github.com/clipfeedhq/clipfeed/internal/accounts/store"
	"github.com/clipfeedhq/clipfeed/pkg/httpx"
	"github.com/clipfeedhq/clipfeed/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store       store.Store
	AuthService *service.AuthService
	UserService *service.UserService

	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerUsers()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerUsers() {
	authed := requireAuth(r.AuthService)

	// POST /v1/users/register - strict rate limit (account creation abuse)
	r.Mux.Handle("POST /v1/users/register",
		httpx.Chain(&RegisterHandler{Users: r.UserService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		))

	// POST /v1/users/login - strict rate limit (brute force prevention)
	r.Mux.Handle("POST /v1/users/login",
		httpx.Chain(&LoginHandler{Auth: r.AuthService, AccessTTL: r.AccessTTL, RefreshTTL: r.RefreshTTL},
			httpx.RateLimitByIP(httpx.StrictLimit),
		))

	// POST /v1/users/refresh - strict rate limit (token grinding prevention)
	r.Mux.Handle("POST /v1/users/refresh",
		httpx.Chain(&RefreshHandler{Auth: r.AuthService, AccessTTL: r.AccessTTL, RefreshTTL: r.RefreshTTL},
			httpx.RateLimitByIP(httpx.StrictLimit),
		))

	// POST /v1/users/logout - authenticated
	r.Mux.Handle("POST /v1/users/logout",
		httpx.Chain(&LogoutHandler{Auth: r.AuthService},
			httpx.RateLimitByIP(httpx.ModerateLimit),
			authed,
		))

	// GET /v1/users/me - authenticated
	r.Mux.Handle("GET /v1/users/me",
		httpx.Chain(&MeHandler{},
			httpx.RateLimitByIP(httpx.LenientLimit),
			authed,
		))

	// POST /v1/users/change-password - authenticated, moderate limit
	r.Mux.Handle("POST /v1/users/change-password",
		httpx.Chain(&ChangePasswordHandler{Users: r.UserService},
			httpx.RateLimitByIP(httpx.ModerateLimit),
			authed,
		))

	// PATCH /v1/users/avatar - authenticated, moderate limit
	r.Mux.Handle("PATCH /v1/users/avatar",
		httpx.Chain(&AvatarHandler{Users: r.UserService},
			httpx.RateLimitByIP(httpx.ModerateLimit),
			authed,
		))

	// PATCH /v1/users/cover-image - authenticated, moderate limit
	r.Mux.Handle("PATCH /v1/users/cover-image",
		httpx.Chain(&CoverImageHandler{Users: r.UserService},
			httpx.RateLimitByIP(httpx.ModerateLimit),
			authed,
		))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}
