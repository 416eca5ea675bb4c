package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/windchimes/backend/internal/config"
	"github.com/windchimes/backend/pkg/jwt"
)

const currentUserKey = "current_user_sub"

// ResolveCurrentUser extracts the user id from a bearer token when one is
// present. Requests without a (valid) token continue anonymously; handlers
// that need an identity enforce it via RequireAuth.
func ResolveCurrentUser(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.Next()
			return
		}

		claims, err := jwt.ValidateToken(strings.TrimPrefix(header, "Bearer "), cfg.JWTSecret)
		if err != nil || claims.Subject == "" {
			c.Next()
			return
		}

		c.Set(currentUserKey, claims.Subject)
		c.Next()
	}
}

// RequireAuth rejects requests that did not resolve to a user
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(currentUserKey) == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUserSub returns the authenticated user id, or "" for anonymous
// requests.
func CurrentUserSub(c *gin.Context) string {
	return c.GetString(currentUserKey)
}
