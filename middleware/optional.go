package middleware

import (
	"net/http"

	"github.com/pixelmint/authcore/token"
)

// Optional returns middleware that attaches an identity when a valid Bearer
// token is present and otherwise lets the request through untouched. "No
// credential" and "invalid credential" are distinct outcomes internally, but
// both leave the request anonymous.
func Optional(codec *token.Codec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok, ok := bearerToken(r.Header.Get("Authorization")); ok {
				if claims, err := codec.VerifyAccess(tok); err == nil {
					r = r.WithContext(withClaims(r.Context(), claims))
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
