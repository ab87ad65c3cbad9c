package clientip

import (
	"context"
	"net/http"
)

type clientIPContextKey struct{}

// SetIPToContext stores client IP in context.
func SetIPToContext(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// GetIPFromContext retrieves client IP from context.
func GetIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

// FromRequest returns the IP stored by Middleware, falling back to the peer address.
func FromRequest(r *http.Request) string {
	if ip := GetIPFromContext(r.Context()); ip != "" {
		return ip
	}
	return GetIP(r)
}
