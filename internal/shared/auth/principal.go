package auth

import "context"

// Principal is the authenticated caller of a use case.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// Owns reports whether the principal may act on a resource owned by userID.
func (p Principal) Owns(userID string) bool {
	return p.IsAdmin || (p.UserID != "" && p.UserID == userID)
}

type principalKey struct{}

// WithPrincipal stores p on ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored by WithPrincipal.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
