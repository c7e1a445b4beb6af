package authcore

import "context"

type clientIPContextKey struct{}

// WithClientIP attaches the caller's network address to ctx. It keys the
// anonymous quota tier for requests without an identity.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// ClientIPFromContext returns the address attached by [WithClientIP].
func ClientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
