package middleware

import (
	"net/http"

	"github.com/artcatalog/backend/internal/services"
	"github.com/gin-gonic/gin"
)

const (
	authenticatedKey = "authenticated"
	usernameKey      = "username"
)

// TokenAuthenticator checks an Authorization header value.
type TokenAuthenticator interface {
	Authenticate(token string) services.AuthResult
}

func authenticate(c *gin.Context, auth TokenAuthenticator) bool {
	if IsAuthenticated(c) {
		return true
	}
	result := auth.Authenticate(c.GetHeader("Authorization"))
	if !result.Valid {
		return false
	}
	c.Set(authenticatedKey, true)
	c.Set(usernameKey, result.Claims.Username)
	return true
}

// Authenticate marks requests carrying a valid token. Requests without one pass
// through as anonymous.
func Authenticate(auth TokenAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c, auth)
		c.Next()
	}
}

// RequireAuth rejects requests without a valid token.
func RequireAuth(auth TokenAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, auth) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// IsAuthenticated reports whether an earlier middleware accepted the caller's token.
func IsAuthenticated(c *gin.Context) bool {
	return c.GetBool(authenticatedKey)
}

// Username returns the operator name of an authenticated request.
func Username(c *gin.Context) string {
	return c.GetString(usernameKey)
}
