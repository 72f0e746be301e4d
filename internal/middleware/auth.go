package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"carpool/internal/auth"
)

// UserIDKey is the gin context key carrying the authenticated user's ID.
const UserIDKey = "userID"

// AuthRequired validates the Bearer token and stores the caller's user ID
// in the request context. Identity is all the core trusts from here; role
// and ownership checks happen in the services.
func AuthRequired(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "bearer token required"})
			return
		}

		userID, err := tokens.Verify(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// CallerID returns the authenticated user's ID from the context.
func CallerID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
