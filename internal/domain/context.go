package domain

import "context"

type ctxKey string

const userCtxKey ctxKey = "user"

// ContextWithUser returns a new context carrying the authenticated user.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey, u)
}

// UserFromContext extracts the authenticated user from the context.
// Returns nil if not set.
func UserFromContext(ctx context.Context) *User {
	if u, ok := ctx.Value(userCtxKey).(*User); ok {
		return u
	}
	return nil
}
