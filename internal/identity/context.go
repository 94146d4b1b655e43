package identity

import "context"

type contextKey struct{}

var identityContextKey = contextKey{}

// WithIdentity returns a context carrying id, retrievable via FromContext.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// FromContext extracts the Identity attached by WithIdentity, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(Identity)
	return id, ok
}
