package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pixelmint/authcore/token"
)

// RequireGin is [Require] for gin handler chains.
func RequireGin(codec *token.Codec) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "access token required"})
			return
		}

		claims, err := codec.VerifyAccess(tok)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired access token"})
			return
		}

		c.Request = c.Request.WithContext(withClaims(c.Request.Context(), claims))
		c.Next()
	}
}

// OptionalGin is [Optional] for gin handler chains.
func OptionalGin(codec *token.Codec) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok, ok := bearerToken(c.GetHeader("Authorization")); ok {
			if claims, err := codec.VerifyAccess(tok); err == nil {
				c.Request = c.Request.WithContext(withClaims(c.Request.Context(), claims))
			}
		}

		c.Next()
	}
}
