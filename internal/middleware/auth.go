package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"coursehub/internal/auth"
)

const identityContextKey = "identity"

// TokenDecoder resolves a bearer token into the caller's identity.
type TokenDecoder interface {
	Decode(token string) (auth.Identity, error)
}

func IdentityFromContext(c *gin.Context) (auth.Identity, bool) {
	value, ok := c.Get(identityContextKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := value.(auth.Identity)
	return id, ok && id.UserID != ""
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	id, ok := IdentityFromContext(c)
	return id.UserID, ok
}

func RequireAuth(decoder TokenDecoder) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
			return
		}

		id, err := decoder.Decode(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
			return
		}

		c.Set(identityContextKey, id)
		c.Next()
	}
}

// RequireAccess must run after RequireAuth.
func RequireAccess(level string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
			return
		}
		if id.AccessLevel != level {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient access level"})
			return
		}
		c.Next()
	}
}
