package user

import (
	"context"
	"net/http"

	"parley/infrastructure"
)

type contextKey struct{}

var callerKey contextKey

// WithCaller stores the authenticated user in the context.
func WithCaller(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, callerKey, u)
}

// CallerFrom returns the authenticated user, if any.
func CallerFrom(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(callerKey).(*User)
	return u, ok
}

// Caller is the handler-side variant: it writes a 403 when no
// authenticated user is present.
func Caller(w http.ResponseWriter, r *http.Request) (*User, bool) {
	u, ok := CallerFrom(r.Context())
	if !ok {
		infrastructure.WriteError(w, infrastructure.Unauthorized("no authenticated user"))
	}
	return u, ok
}
