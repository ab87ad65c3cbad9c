package authz

import (
	"context"

	"github.com/dmitrymomot/authz/pkg/requestid"
)

type principalContextKey struct{}

// WithPrincipal stores the authenticated principal in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext returns the principal stored by Middleware.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}

func requestIDFrom(ctx context.Context) string {
	return requestid.FromContext(ctx)
}
