package middleware

import (
	"context"
	"strings"

	"github.com/pixelmint/authcore/token"
)

type claimsContextKey struct{}

// ClaimsFromContext returns the identity attached by [Require] or
// [Optional]. The second return is false for anonymous requests.
func ClaimsFromContext(ctx context.Context) (token.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(token.Claims)
	return claims, ok
}

func withClaims(ctx context.Context, claims token.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	tok := value[len(bearer):]
	if tok == "" {
		return "", false
	}

	return tok, true
}
