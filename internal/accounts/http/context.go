package http

import (
	"context"

	"github.com/clipfeedhq/clipfeed/internal/accounts/domain"
)

type ctxKey int

const ctxKeyCurrentUser ctxKey = iota

func withCurrentUser(ctx context.Context, u domain.User) context.Context {
	return context.WithValue(ctx, ctxKeyCurrentUser, u)
}

// CurrentUser returns the authenticated user placed on the context by the
// auth middleware. ok is false on routes that skipped the middleware.
func CurrentUser(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(ctxKeyCurrentUser).(domain.User)
	return u, ok
}
