package middleware

import (
	"net/http"

	"github.com/pixelmint/authcore/token"
)

// Require returns middleware that demands a valid Bearer access token.
// Missing header, malformed header, and invalid token all collapse to a
// single 401; no sub-reason is revealed to the caller.
func Require(codec *token.Codec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := codec.VerifyAccess(tok)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}
