package middleware

import (
	"net/http"
	"strings"

	"github.com/fuswap/backend/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const claimsKey = "auth_claims"

// AuthMiddleware requires a valid bearer JWT and stores its claims on the context
func AuthMiddleware(tokens *utils.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			return
		}

		claims, err := tokens.Validate(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// AdminMiddleware rejects tokens without the admin flag. It must run after
// AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := Claims(c); !ok || !claims.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}

// Claims returns the token claims stored by AuthMiddleware
func Claims(c *gin.Context) (*utils.Claims, bool) {
	value, exists := c.Get(claimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*utils.Claims)
	return claims, ok
}

// UserID returns the id of the authenticated user. Admin tokens carry no user.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	claims, ok := Claims(c)
	if !ok || claims.UserID == uuid.Nil {
		return uuid.Nil, false
	}
	return claims.UserID, true
}

func bearerToken(header string) string {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
